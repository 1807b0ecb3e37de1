package scouting

import "fmt"

// PatchOp names the session mutation a catalog action asks for. Submit ops
// carry no session mutation; the transport boundary handles them.
type PatchOp string

const (
	OpNone                PatchOp = "none"
	OpStartCycle          PatchOp = "startCycle"
	OpPatchActive         PatchOp = "patchActive"
	OpCloseActive         PatchOp = "closeActive"
	OpCancelActive        PatchOp = "cancelActive"
	OpUndo                PatchOp = "undo"
	OpRedo                PatchOp = "redo"
	OpSetStartingPosition PatchOp = "setStartingPosition"
	OpTogglePreload       PatchOp = "togglePreload"
	OpBeginAuto           PatchOp = "beginAuto"
	OpBeginTele           PatchOp = "beginTele"
	OpEndMatch            PatchOp = "endMatch"
	OpSubmitNetwork       PatchOp = "submitNetwork"
	OpSubmitQR            PatchOp = "submitQR"
)

// Patch describes what to change. Action descriptors return patches instead
// of mutating the session, so the table stays pure and testable.
type Patch struct {
	Op        PatchOp
	CycleType CycleType
	Fields    Fields
	Position  int
}

// Apply routes a patch through the controller and history operations. No
// other code path mutates the active cycle or the committed sequence.
func (s *Session) Apply(p Patch) error {
	switch p.Op {
	case OpStartCycle:
		return s.StartCycle(p.CycleType, p.Fields)
	case OpPatchActive:
		return s.PatchActive(p.Fields)
	case OpCloseActive:
		return s.CloseActive(p.Fields)
	case OpCancelActive:
		s.CancelActive()
		return nil
	case OpUndo:
		s.Undo()
		return nil
	case OpRedo:
		s.Redo()
		return nil
	case OpSetStartingPosition:
		return s.SetStartingPosition(p.Position)
	case OpTogglePreload:
		return s.TogglePreload()
	case OpBeginAuto:
		return s.BeginAuto()
	case OpBeginTele:
		return s.BeginTele()
	case OpEndMatch:
		return s.EndMatch()
	case OpSubmitNetwork, OpSubmitQR, OpNone:
		return nil
	default:
		return fmt.Errorf("unknown patch op %q", p.Op)
	}
}

// ActionID identifies one catalog row.
type ActionID string

const (
	ActionSetStartingPosition ActionID = "setStartingPosition"
	ActionTogglePreload       ActionID = "togglePreload"
	ActionBeginAuto           ActionID = "beginAuto"
	ActionStartCoral          ActionID = "startCoral"
	ActionStartAlgae          ActionID = "startAlgae"
	ActionStartSnowball       ActionID = "startSnowball"
	ActionStartMovement       ActionID = "startMovement"
	ActionStartHang           ActionID = "startHang"
	ActionStartDefense        ActionID = "startDefense"
	ActionStartContact        ActionID = "startContact"
	ActionScoreCoral          ActionID = "scoreCoral"
	ActionScoreAlgae          ActionID = "scoreAlgae"
	ActionDropActive          ActionID = "dropActive"
	ActionSetRate             ActionID = "setRate"
	ActionFinishMovement      ActionID = "finishMovement"
	ActionFinishHang          ActionID = "finishHang"
	ActionFinishSnowball      ActionID = "finishSnowball"
	ActionFinishDefense       ActionID = "finishDefense"
	ActionFinishContact       ActionID = "finishContact"
	ActionAddPin              ActionID = "addPin"
	ActionAddFoul             ActionID = "addFoul"
	ActionCancelCycle         ActionID = "cancelCycle"
	ActionUndo                ActionID = "undo"
	ActionRedo                ActionID = "redo"
	ActionBeginTele           ActionID = "beginTele"
	ActionEndMatch            ActionID = "endMatch"
	ActionSubmitNetwork       ActionID = "submitMatchNetwork"
	ActionSubmitQR            ActionID = "submitMatchQR"
)

// Action is one row of the catalog: where it applies, whether it currently
// shows, whether it can fire, and the patch it produces. Options fan one
// descriptor out into several buttons (reef faces, rates, levels).
type Action struct {
	ID      ActionID
	Label   string
	Phases  []Phase
	Options []string
	Visible func(*Session) bool
	Enabled func(*Session) bool
	Invoke  func(*Session, string) Patch
}

func (a Action) appliesTo(p Phase) bool {
	for _, ph := range a.Phases {
		if ph == p {
			return true
		}
	}
	return false
}

func (a Action) visible(s *Session) bool {
	return a.Visible == nil || a.Visible(s)
}

// IsEnabled reports whether invoking the action would do anything.
func (a Action) IsEnabled(s *Session) bool {
	return a.Enabled == nil || a.Enabled(s)
}

// Catalog is a static table of action descriptors keyed by ID.
type Catalog struct {
	actions []Action
	byID    map[ActionID]int
}

func NewCatalog(actions []Action) *Catalog {
	c := &Catalog{actions: actions, byID: make(map[ActionID]int, len(actions))}
	for i, a := range actions {
		c.byID[a.ID] = i
	}
	return c
}

// Candidates returns the actions that pass both the phase filter and their
// own visibility predicate for the session's current state.
func (c *Catalog) Candidates(s *Session) []Action {
	var out []Action
	for _, a := range c.actions {
		if a.appliesTo(s.Phase) && a.visible(s) {
			out = append(out, a)
		}
	}
	return out
}

// Lookup returns the descriptor for id.
func (c *Catalog) Lookup(id ActionID) (Action, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Action{}, false
	}
	return c.actions[i], true
}

// Invoke resolves an action against the session. Actions outside the
// candidate set fail with ErrActionUnavailable; disabled actions are a
// no-op and report applied=false. The returned patch has not been applied.
func (c *Catalog) Invoke(s *Session, id ActionID, optionKey string) (patch Patch, applied bool, err error) {
	a, ok := c.Lookup(id)
	if !ok {
		return Patch{}, false, fmt.Errorf("%w: unknown action %q", ErrActionUnavailable, id)
	}
	if !a.appliesTo(s.Phase) || !a.visible(s) {
		return Patch{}, false, fmt.Errorf("%w: %q in phase %s", ErrActionUnavailable, id, s.Phase)
	}
	if len(a.Options) > 0 && !contains(a.Options, optionKey) {
		return Patch{}, false, fmt.Errorf("%w: option %q for %q", ErrActionUnavailable, optionKey, id)
	}
	if !a.IsEnabled(s) {
		return Patch{}, false, nil
	}
	return a.Invoke(s, optionKey), true, nil
}

func contains(opts []string, key string) bool {
	for _, o := range opts {
		if o == key {
			return true
		}
	}
	return false
}

func noActive(s *Session) bool {
	_, open := s.Active()
	return !open
}

func activeOfType(types ...CycleType) func(*Session) bool {
	return func(s *Session) bool {
		c, open := s.Active()
		if !open {
			return false
		}
		for _, t := range types {
			if c.Type == t {
				return true
			}
		}
		return false
	}
}

func startPatch(t CycleType) func(*Session, string) Patch {
	return func(_ *Session, optionKey string) Patch {
		f := Fields{}
		if optionKey != "" {
			loc := optionKey
			f.Location = &loc
		}
		return Patch{Op: OpStartCycle, CycleType: t, Fields: f}
	}
}

func closePatch(d DepositType) func(*Session, string) Patch {
	return func(_ *Session, optionKey string) Patch {
		f := Fields{}
		if d != "" {
			dep := d
			f.DepositType = &dep
		}
		if optionKey != "" {
			loc := optionKey
			f.Location = &loc
		}
		return Patch{Op: OpCloseActive, Fields: f}
	}
}

func reefOptions() []string {
	faces := []string{"AB", "CD", "EF", "GH", "IJ", "KL"}
	var opts []string
	for _, f := range faces {
		for lvl := 1; lvl <= 4; lvl++ {
			opts = append(opts, fmt.Sprintf("REEF_%s_%d", f, lvl))
		}
	}
	return opts
}

// DefaultCatalog is the action table for the current game. New actions are
// new rows, not new types.
func DefaultCatalog() *Catalog {
	both := []Phase{PhaseAuto, PhaseTele}

	return NewCatalog([]Action{
		{
			ID:      ActionSetStartingPosition,
			Label:   "Starting Position",
			Phases:  []Phase{PhasePreMatch},
			Options: []string{"1", "2", "3", "4"},
			Invoke: func(_ *Session, optionKey string) Patch {
				pos := 0
				fmt.Sscanf(optionKey, "%d", &pos)
				return Patch{Op: OpSetStartingPosition, Position: pos}
			},
		},
		{
			ID:     ActionTogglePreload,
			Label:  "Toggle Preload",
			Phases: []Phase{PhasePreMatch},
			Invoke: func(_ *Session, _ string) Patch { return Patch{Op: OpTogglePreload} },
		},
		{
			ID:      ActionBeginAuto,
			Label:   "Start Match",
			Phases:  []Phase{PhasePreMatch},
			Enabled: func(s *Session) bool { return s.StartingPosition != 0 },
			Invoke:  func(_ *Session, _ string) Patch { return Patch{Op: OpBeginAuto} },
		},

		{
			ID:      ActionStartCoral,
			Label:   "Pick Up Coral",
			Phases:  both,
			Options: []string{"CORAL_STATION_LEFT", "CORAL_STATION_RIGHT", "GROUND"},
			Visible: noActive,
			Invoke:  startPatch(CycleCoral),
		},
		{
			ID:      ActionStartAlgae,
			Label:   "Pick Up Algae",
			Phases:  both,
			Options: []string{"REEF", "GROUND"},
			Visible: noActive,
			Invoke:  startPatch(CycleAlgae),
		},
		{
			ID:      ActionStartSnowball,
			Label:   "Pick Up Snowball",
			Phases:  both,
			Options: []string{"GROUND"},
			Visible: noActive,
			Invoke:  startPatch(CycleSnowball),
		},
		{
			ID:      ActionStartMovement,
			Label:   "Leave Starting Zone",
			Phases:  []Phase{PhaseAuto},
			Visible: noActive,
			Invoke:  startPatch(CycleMovement),
		},
		{
			ID:      ActionStartHang,
			Label:   "Start Hang",
			Phases:  []Phase{PhaseTele},
			Options: []string{"1", "2", "3"},
			Visible: noActive,
			Invoke: func(_ *Session, optionKey string) Patch {
				lvl := 0
				fmt.Sscanf(optionKey, "%d", &lvl)
				return Patch{Op: OpStartCycle, CycleType: CycleHang, Fields: Fields{HangLevel: &lvl}}
			},
		},
		{
			ID:      ActionStartDefense,
			Label:   "Start Defense",
			Phases:  both,
			Visible: noActive,
			Invoke:  startPatch(CycleDefense),
		},
		{
			ID:      ActionStartContact,
			Label:   "Start Contact",
			Phases:  both,
			Visible: noActive,
			Invoke:  startPatch(CycleContact),
		},

		{
			ID:      ActionScoreCoral,
			Label:   "Score Coral",
			Phases:  both,
			Options: reefOptions(),
			Visible: activeOfType(CycleCoral),
			Invoke:  closePatch(DepositScore),
		},
		{
			ID:      ActionScoreAlgae,
			Label:   "Score Algae",
			Phases:  both,
			Options: []string{"NET", "PROCESSOR"},
			Visible: activeOfType(CycleAlgae),
			Invoke:  closePatch(DepositScore),
		},
		{
			ID:      ActionDropActive,
			Label:   "Dropped",
			Phases:  both,
			Visible: activeOfType(CycleCoral, CycleAlgae, CycleSnowball),
			Invoke:  closePatch(DepositDrop),
		},
		{
			ID:      ActionSetRate,
			Label:   "Rate Cycle",
			Phases:  both,
			Options: []string{"1", "2", "3", "4", "5"},
			Visible: func(s *Session) bool { return !noActive(s) },
			Invoke: func(_ *Session, optionKey string) Patch {
				rate := 0
				fmt.Sscanf(optionKey, "%d", &rate)
				return Patch{Op: OpPatchActive, Fields: Fields{Rate: &rate}}
			},
		},
		{
			ID:      ActionFinishMovement,
			Label:   "Left Starting Zone",
			Phases:  []Phase{PhaseAuto},
			Visible: activeOfType(CycleMovement),
			Invoke:  closePatch(DepositSucceed),
		},
		{
			ID:      ActionFinishHang,
			Label:   "Finish Hang",
			Phases:  []Phase{PhaseTele},
			Options: []string{"SUCCEED", "FAIL"},
			Visible: activeOfType(CycleHang),
			Invoke: func(_ *Session, optionKey string) Patch {
				dep := DepositType(optionKey)
				return Patch{Op: OpCloseActive, Fields: Fields{DepositType: &dep}}
			},
		},
		{
			ID:      ActionFinishSnowball,
			Label:   "Finish Snowball",
			Phases:  both,
			Options: []string{"SUCCEED", "FAIL"},
			Visible: activeOfType(CycleSnowball),
			Invoke: func(_ *Session, optionKey string) Patch {
				dep := DepositType(optionKey)
				return Patch{Op: OpCloseActive, Fields: Fields{DepositType: &dep}}
			},
		},
		{
			ID:      ActionFinishDefense,
			Label:   "End Defense",
			Phases:  both,
			Visible: activeOfType(CycleDefense),
			Invoke:  closePatch(""),
		},
		{
			ID:      ActionFinishContact,
			Label:   "End Contact",
			Phases:  both,
			Visible: activeOfType(CycleContact),
			Invoke:  closePatch(""),
		},
		{
			ID:      ActionAddPin,
			Label:   "Pin",
			Phases:  both,
			Visible: activeOfType(CycleContact),
			Invoke: func(s *Session, _ string) Patch {
				c, _ := s.Active()
				n := c.PinCount + 1
				return Patch{Op: OpPatchActive, Fields: Fields{PinCount: &n}}
			},
		},
		{
			ID:      ActionAddFoul,
			Label:   "Foul",
			Phases:  both,
			Visible: activeOfType(CycleContact),
			Invoke: func(s *Session, _ string) Patch {
				c, _ := s.Active()
				n := c.FoulCount + 1
				return Patch{Op: OpPatchActive, Fields: Fields{FoulCount: &n}}
			},
		},
		{
			ID:      ActionCancelCycle,
			Label:   "Cancel",
			Phases:  both,
			Visible: func(s *Session) bool { return !noActive(s) },
			Invoke:  func(_ *Session, _ string) Patch { return Patch{Op: OpCancelActive} },
		},

		{
			ID:      ActionUndo,
			Label:   "Undo",
			Phases:  both,
			Enabled: func(s *Session) bool { return s.CanUndo() },
			Invoke:  func(_ *Session, _ string) Patch { return Patch{Op: OpUndo} },
		},
		{
			ID:      ActionRedo,
			Label:   "Redo",
			Phases:  both,
			Enabled: func(s *Session) bool { return s.CanRedo() },
			Invoke:  func(_ *Session, _ string) Patch { return Patch{Op: OpRedo} },
		},
		{
			ID:     ActionBeginTele,
			Label:  "Start Teleop",
			Phases: []Phase{PhaseAuto},
			Invoke: func(_ *Session, _ string) Patch { return Patch{Op: OpBeginTele} },
		},
		{
			ID:     ActionEndMatch,
			Label:  "End Match",
			Phases: []Phase{PhaseTele},
			Invoke: func(_ *Session, _ string) Patch { return Patch{Op: OpEndMatch} },
		},
		{
			ID:     ActionSubmitNetwork,
			Label:  "Submit",
			Phases: []Phase{PhasePostMatch},
			Invoke: func(_ *Session, _ string) Patch { return Patch{Op: OpSubmitNetwork} },
		},
		{
			ID:     ActionSubmitQR,
			Label:  "Show QR",
			Phases: []Phase{PhasePostMatch},
			Invoke: func(_ *Session, _ string) Patch { return Patch{Op: OpSubmitQR} },
		},
	})
}

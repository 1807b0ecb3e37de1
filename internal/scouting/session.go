package scouting

import (
	"time"

	"github.com/google/uuid"
)

// Meta identifies who is scouting what. It survives a session reset.
type Meta struct {
	EventKey  string `json:"eventKey"`
	MatchKey  string `json:"matchKey"`
	Station   string `json:"station"`
	Robot     int    `json:"robot"`
	ScoutID   string `json:"scoutId"`
	ScoutName string `json:"scoutName"`
}

// Report is the finalized, submittable record of one session. It is
// produced once and keyed by ReportID for idempotent storage.
type Report struct {
	ReportID       string            `json:"reportId"`
	MatchStartTime int64             `json:"matchStartTime"`
	Robot          int               `json:"robot"`
	ScoutID        string            `json:"scoutId"`
	ScoutName      string            `json:"scoutName"`
	Cycles         []Cycle           `json:"cycles"`
	Endgame        map[string]string `json:"endgame"`
}

// Session is the aggregate root for one scouting session: one device, one
// match, one team. All mutation of the active cycle and the history funnels
// through its methods; nothing else touches them.
type Session struct {
	Meta

	ReportID         string
	Phase            Phase
	MatchStartTime   int64 // epoch ms, 0 until AUTO begins
	StartingPosition int   // 0 = unset
	Preload          bool
	Endgame          map[string]string

	active    *Cycle
	history   History
	nowMillis func() int64
}

// NewSession creates a fresh PRE_MATCH session with a new report ID.
func NewSession(meta Meta) *Session {
	return &Session{
		Meta:      meta,
		ReportID:  uuid.NewString(),
		Phase:     PhasePreMatch,
		Endgame:   map[string]string{},
		nowMillis: func() int64 { return time.Now().UnixMilli() },
	}
}

// MatchMillis is the elapsed match time in ms, 0 before the match starts.
func (s *Session) MatchMillis() int64 {
	if s.MatchStartTime == 0 {
		return 0
	}
	return s.nowMillis() - s.MatchStartTime
}

// Active returns a copy of the active cycle, if one is open.
func (s *Session) Active() (Cycle, bool) {
	if s.active == nil {
		return Cycle{}, false
	}
	return *s.active, true
}

// Cycles is the live committed sequence. Derived state (possession,
// aggregation, submission) must come from here, never from the full
// history including redo-pending entries.
func (s *Session) Cycles() []Cycle { return s.history.Live() }

func (s *Session) CanUndo() bool { return s.history.CanUndo() }
func (s *Session) CanRedo() bool { return s.history.CanRedo() }

// Undo steps the committed sequence back one cycle.
func (s *Session) Undo() bool { return s.history.Undo() }

// Redo restores the most recently undone cycle.
func (s *Session) Redo() bool { return s.history.Redo() }

// StartCycle opens a new active cycle stamped at the current match time.
// At most one cycle may be open across AUTO and TELE combined.
func (s *Session) StartCycle(t CycleType, f Fields) error {
	if s.Phase != PhaseAuto && s.Phase != PhaseTele {
		return validationf("cycles can only start during AUTO or TELE, not %s", s.Phase)
	}
	if s.active != nil && s.active.Open() {
		return ErrCycleConflict
	}
	c := Cycle{
		Type:      t,
		Phase:     s.Phase,
		StartTime: s.MatchMillis(),
	}
	c.merge(f)
	s.active = &c
	return nil
}

// PatchActive shallow-merges fields into the active cycle.
func (s *Session) PatchActive(f Fields) error {
	if s.active == nil {
		return ErrNoActiveCycle
	}
	s.active.merge(f)
	return nil
}

// CloseActive stamps the end time, merges the final fields, commits the
// cycle to history and clears the active slot.
func (s *Session) CloseActive(f Fields) error {
	if s.active == nil {
		return ErrNoActiveCycle
	}
	end := s.MatchMillis()
	if end < s.active.StartTime {
		end = s.active.StartTime
	}
	s.active.EndTime = &end
	s.active.merge(f)
	s.history.Commit(*s.active)
	s.active = nil
	return nil
}

// CancelActive discards the active cycle without committing it. No-op if
// none is open.
func (s *Session) CancelActive() {
	s.active = nil
}

// SetStartingPosition records the robot's starting position. PRE_MATCH only.
func (s *Session) SetStartingPosition(pos int) error {
	if s.Phase != PhasePreMatch {
		return validationf("starting position can only change during PRE_MATCH")
	}
	if pos < 1 {
		return validationf("starting position must be at least 1")
	}
	s.StartingPosition = pos
	return nil
}

// TogglePreload flips whether the robot holds a preloaded game piece.
func (s *Session) TogglePreload() error {
	if s.Phase != PhasePreMatch {
		return validationf("preload can only change during PRE_MATCH")
	}
	s.Preload = !s.Preload
	return nil
}

// BeginAuto leaves PRE_MATCH, stamps the match start time, and, if a
// preload was set, opens the preload cycle at t=0. Entering AUTO requires
// a starting position.
func (s *Session) BeginAuto() error {
	if s.Phase != PhasePreMatch {
		return validationf("cannot enter AUTO from %s", s.Phase)
	}
	if s.StartingPosition == 0 {
		return validationf("starting position must be set before AUTO")
	}
	s.Phase = PhaseAuto
	s.MatchStartTime = s.nowMillis()
	if s.Preload {
		// The preload was acquired before the clock started; its outcome is
		// still the scout's call, so it occupies the active slot rather than
		// landing in history pre-closed.
		s.active = &Cycle{
			Type:      CycleCoral,
			Phase:     PhaseAuto,
			Location:  "PRELOAD",
			StartTime: 0,
		}
	}
	return nil
}

// BeginTele moves AUTO to TELE. An open active cycle carries across.
func (s *Session) BeginTele() error {
	if s.Phase != PhaseAuto {
		return validationf("cannot enter TELE from %s", s.Phase)
	}
	s.Phase = PhaseTele
	return nil
}

// EndMatch moves TELE to POST_MATCH. An open cycle cannot outlive TELE;
// it is discarded, not committed.
func (s *Session) EndMatch() error {
	if s.Phase != PhaseTele {
		return validationf("cannot end the match from %s", s.Phase)
	}
	s.CancelActive()
	s.Phase = PhasePostMatch
	return nil
}

// SetEndgame records one answer from the end-of-match form.
func (s *Session) SetEndgame(key, value string) {
	s.Endgame[key] = value
}

// BuildReport assembles the submission artifact from the live sequence.
// Only legal once the match has ended.
func (s *Session) BuildReport() (Report, error) {
	if s.Phase != PhasePostMatch {
		return Report{}, validationf("report can only be built during POST_MATCH")
	}
	endgame := make(map[string]string, len(s.Endgame))
	for k, v := range s.Endgame {
		endgame[k] = v
	}
	return Report{
		ReportID:       s.ReportID,
		MatchStartTime: s.MatchStartTime,
		Robot:          s.Robot,
		ScoutID:        s.ScoutID,
		ScoutName:      s.ScoutName,
		Cycles:         s.Cycles(),
		Endgame:        endgame,
	}, nil
}

// Reset prepares the session for the next match: new report ID, cleared
// cycles and answers, back to PRE_MATCH. Meta is kept. Called only after a
// confirmed successful submission or an explicit restart; a failed
// submission leaves everything in place.
func (s *Session) Reset() {
	s.ReportID = uuid.NewString()
	s.Phase = PhasePreMatch
	s.MatchStartTime = 0
	s.StartingPosition = 0
	s.Preload = false
	s.Endgame = map[string]string{}
	s.active = nil
	s.history = History{}
}

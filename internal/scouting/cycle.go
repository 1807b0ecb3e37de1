package scouting

// Phase is one of the four match segments. Phases gate which catalog
// actions are legal; they never advance on a timer.
type Phase string

const (
	PhasePreMatch  Phase = "PRE_MATCH"
	PhaseAuto      Phase = "AUTO"
	PhaseTele      Phase = "TELE"
	PhasePostMatch Phase = "POST_MATCH"
)

// CycleType classifies what the robot was doing during a cycle.
type CycleType string

const (
	CycleMovement CycleType = "MOVEMENT"
	CycleCoral    CycleType = "CORAL"
	CycleAlgae    CycleType = "ALGAE"
	CycleHang     CycleType = "HANG"
	CycleDefense  CycleType = "DEFENSE"
	CycleContact  CycleType = "CONTACT"
	CycleSnowball CycleType = "SNOWBALL"
)

// DepositType is the outcome recorded when a cycle closes.
type DepositType string

const (
	DepositScore   DepositType = "SCORE"
	DepositDrop    DepositType = "DROP"
	DepositFail    DepositType = "FAIL"
	DepositSucceed DepositType = "SUCCEED"
)

// Cycle is one discrete timed robot action. Times are milliseconds since
// match start; a preload cycle starts at 0. EndTime is nil while the cycle
// is open. A cycle is mutable only while it is the session's active cycle;
// once committed to history it is never touched again.
type Cycle struct {
	Type        CycleType   `json:"type"`
	Phase       Phase       `json:"phase"`
	Location    string      `json:"location,omitempty"`
	StartTime   int64       `json:"startTime"`
	EndTime     *int64      `json:"endTime,omitempty"`
	DepositType DepositType `json:"depositType,omitempty"`
	Rate        int         `json:"rate,omitempty"`
	HangLevel   int         `json:"hangLevel,omitempty"`
	PinCount    int         `json:"pinCount,omitempty"`
	FoulCount   int         `json:"foulCount,omitempty"`
}

// Open reports whether the cycle has no end time yet.
func (c Cycle) Open() bool { return c.EndTime == nil }

// Duration returns endTime-startTime, or nil while the cycle is open.
func (c Cycle) Duration() *int64 {
	if c.EndTime == nil {
		return nil
	}
	d := *c.EndTime - c.StartTime
	return &d
}

// Fields is a partial cycle used for the step-wise entry flows. Nil members
// are left untouched by a merge.
type Fields struct {
	Location    *string      `json:"location,omitempty"`
	DepositType *DepositType `json:"depositType,omitempty"`
	Rate        *int         `json:"rate,omitempty"`
	HangLevel   *int         `json:"hangLevel,omitempty"`
	PinCount    *int         `json:"pinCount,omitempty"`
	FoulCount   *int         `json:"foulCount,omitempty"`
}

func (c *Cycle) merge(f Fields) {
	if f.Location != nil {
		c.Location = *f.Location
	}
	if f.DepositType != nil {
		c.DepositType = *f.DepositType
	}
	if f.Rate != nil {
		c.Rate = *f.Rate
	}
	if f.HangLevel != nil {
		c.HangLevel = *f.HangLevel
	}
	if f.PinCount != nil {
		c.PinCount = *f.PinCount
	}
	if f.FoulCount != nil {
		c.FoulCount = *f.FoulCount
	}
}

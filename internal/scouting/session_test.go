package scouting

import (
	"errors"
	"testing"
)

// testSession returns a session with a controllable clock. Advance time by
// storing into the returned pointer.
func testSession(t *testing.T) (*Session, *int64) {
	t.Helper()
	now := int64(1_000_000)
	s := NewSession(Meta{
		EventKey:  "2025wasno",
		MatchKey:  "qm12",
		Station:   "red1",
		Robot:     1318,
		ScoutID:   "scout-7",
		ScoutName: "Avery",
	})
	s.nowMillis = func() int64 { return now }
	return s, &now
}

func startedSession(t *testing.T) (*Session, *int64) {
	t.Helper()
	s, now := testSession(t)
	if err := s.SetStartingPosition(3); err != nil {
		t.Fatalf("set starting position: %v", err)
	}
	if err := s.BeginAuto(); err != nil {
		t.Fatalf("begin auto: %v", err)
	}
	return s, now
}

func TestStartCycleConflict(t *testing.T) {
	s, _ := startedSession(t)

	if err := s.StartCycle(CycleCoral, Fields{}); err != nil {
		t.Fatalf("first start: %v", err)
	}
	err := s.StartCycle(CycleAlgae, Fields{})
	if !errors.Is(err, ErrCycleConflict) {
		t.Fatalf("second start error = %v, want ErrCycleConflict", err)
	}

	// The guard must hold across any call sequence: close, start again.
	if err := s.CloseActive(Fields{}); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.StartCycle(CycleAlgae, Fields{}); err != nil {
		t.Fatalf("start after close: %v", err)
	}
}

func TestPatchAndCloseWithoutActive(t *testing.T) {
	s, _ := startedSession(t)

	if err := s.PatchActive(Fields{}); !errors.Is(err, ErrNoActiveCycle) {
		t.Fatalf("patch error = %v, want ErrNoActiveCycle", err)
	}
	if err := s.CloseActive(Fields{}); !errors.Is(err, ErrNoActiveCycle) {
		t.Fatalf("close error = %v, want ErrNoActiveCycle", err)
	}
	// Cancel with nothing active is a deliberate no-op.
	s.CancelActive()
}

func TestCancelDiscardsActive(t *testing.T) {
	s, _ := startedSession(t)

	if err := s.StartCycle(CycleCoral, Fields{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	s.CancelActive()

	if _, open := s.Active(); open {
		t.Fatal("active cycle should be gone after cancel")
	}
	if n := len(s.Cycles()); n != 0 {
		t.Fatalf("cancelled cycle leaked into history: %d entries", n)
	}
}

func TestCycleStartOnlyInAutoOrTele(t *testing.T) {
	s, _ := testSession(t)

	err := s.StartCycle(CycleCoral, Fields{})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("start during PRE_MATCH = %v, want ValidationError", err)
	}
}

func TestBeginAutoRequiresStartingPosition(t *testing.T) {
	s, _ := testSession(t)

	err := s.BeginAuto()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("begin auto error = %v, want ValidationError", err)
	}
	if s.Phase != PhasePreMatch {
		t.Fatalf("phase = %s, blocked transition must not advance", s.Phase)
	}
	if s.MatchStartTime != 0 {
		t.Fatal("match start time must not be stamped on a blocked transition")
	}
}

func TestBeginAutoStampsClockAndPreload(t *testing.T) {
	s, now := testSession(t)
	if err := s.SetStartingPosition(2); err != nil {
		t.Fatalf("set starting position: %v", err)
	}
	if err := s.TogglePreload(); err != nil {
		t.Fatalf("toggle preload: %v", err)
	}

	*now = 2_000_000
	if err := s.BeginAuto(); err != nil {
		t.Fatalf("begin auto: %v", err)
	}

	if s.MatchStartTime != 2_000_000 {
		t.Fatalf("matchStartTime = %d, want 2000000", s.MatchStartTime)
	}

	active, open := s.Active()
	if !open {
		t.Fatal("preload should open the active slot")
	}
	if active.StartTime != 0 {
		t.Fatalf("preload startTime = %d, want 0", active.StartTime)
	}
	if active.Type != CycleCoral {
		t.Fatalf("preload type = %s, want CORAL", active.Type)
	}
}

func TestPhaseTransitionsAreOneWay(t *testing.T) {
	s, _ := startedSession(t)

	if err := s.BeginTele(); err != nil {
		t.Fatalf("begin tele: %v", err)
	}
	if err := s.BeginAuto(); err == nil {
		t.Fatal("re-entering AUTO from TELE must fail")
	}
	if err := s.EndMatch(); err != nil {
		t.Fatalf("end match: %v", err)
	}
	if err := s.BeginTele(); err == nil {
		t.Fatal("re-entering TELE from POST_MATCH must fail")
	}
	if s.Phase != PhasePostMatch {
		t.Fatalf("phase = %s, want POST_MATCH", s.Phase)
	}
}

func TestEndMatchDiscardsOpenCycle(t *testing.T) {
	s, _ := startedSession(t)
	if err := s.BeginTele(); err != nil {
		t.Fatalf("begin tele: %v", err)
	}
	if err := s.StartCycle(CycleDefense, Fields{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.EndMatch(); err != nil {
		t.Fatalf("end match: %v", err)
	}
	if _, open := s.Active(); open {
		t.Fatal("open cycle must not outlive TELE")
	}
}

func TestOpenCycleCarriesAutoToTele(t *testing.T) {
	s, _ := startedSession(t)
	if err := s.StartCycle(CycleCoral, Fields{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.BeginTele(); err != nil {
		t.Fatalf("begin tele: %v", err)
	}
	if _, open := s.Active(); !open {
		t.Fatal("active cycle should survive the AUTO to TELE transition")
	}
	if err := s.StartCycle(CycleAlgae, Fields{}); !errors.Is(err, ErrCycleConflict) {
		t.Fatalf("start in TELE over carried cycle = %v, want ErrCycleConflict", err)
	}
}

func TestBuildReportOnlyPostMatch(t *testing.T) {
	s, _ := startedSession(t)

	if _, err := s.BuildReport(); err == nil {
		t.Fatal("report must not build before POST_MATCH")
	}

	if err := s.BeginTele(); err != nil {
		t.Fatalf("begin tele: %v", err)
	}
	if err := s.EndMatch(); err != nil {
		t.Fatalf("end match: %v", err)
	}

	s.SetEndgame("climbAttempted", "yes")
	report, err := s.BuildReport()
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if report.ReportID != s.ReportID {
		t.Fatalf("reportId = %q, want %q", report.ReportID, s.ReportID)
	}
	if report.Robot != 1318 || report.ScoutID != "scout-7" {
		t.Fatalf("report meta wrong: %+v", report)
	}
	if report.Endgame["climbAttempted"] != "yes" {
		t.Fatalf("endgame = %v", report.Endgame)
	}
}

func TestResetIssuesNewReportID(t *testing.T) {
	s, _ := startedSession(t)
	if err := s.StartCycle(CycleCoral, Fields{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.CloseActive(Fields{}); err != nil {
		t.Fatalf("close: %v", err)
	}

	oldID := s.ReportID
	s.Reset()

	if s.ReportID == oldID {
		t.Fatal("reset must issue a new report ID")
	}
	if s.Phase != PhasePreMatch {
		t.Fatalf("phase after reset = %s, want PRE_MATCH", s.Phase)
	}
	if len(s.Cycles()) != 0 || s.CanUndo() || s.CanRedo() {
		t.Fatal("reset must clear all committed cycles")
	}
	if s.Robot != 1318 {
		t.Fatal("reset must keep session meta")
	}
}

func TestUndoneCyclesInvisibleToDerivedState(t *testing.T) {
	s, now := startedSession(t)

	*now += 2000
	if err := s.StartCycle(CycleCoral, Fields{Location: strp("GROUND")}); err != nil {
		t.Fatalf("start: %v", err)
	}
	*now += 3000
	if err := s.CloseActive(Fields{DepositType: depp(DepositScore)}); err != nil {
		t.Fatalf("close: %v", err)
	}

	s.Undo()
	if n := len(s.Cycles()); n != 0 {
		t.Fatalf("undone cycle still visible: %d live entries", n)
	}
	totals := ComputeReportTotals(s.Cycles())
	if len(totals) != 0 {
		t.Fatalf("undone cycle affected aggregation: %v", totals)
	}

	s.Redo()
	if n := len(s.Cycles()); n != 1 {
		t.Fatalf("redo did not restore the cycle: %d live entries", n)
	}
}

// Full scenario: pre-match setup through aggregation.
func TestFullMatchScenario(t *testing.T) {
	s, now := testSession(t)

	if err := s.SetStartingPosition(3); err != nil {
		t.Fatalf("set starting position: %v", err)
	}
	if err := s.BeginAuto(); err != nil {
		t.Fatalf("begin auto: %v", err)
	}
	matchStart := *now

	*now = matchStart + 2000
	if err := s.StartCycle(CycleCoral, Fields{Location: strp("CORAL_STATION_LEFT")}); err != nil {
		t.Fatalf("start cycle: %v", err)
	}

	*now = matchStart + 9000
	if err := s.CloseActive(Fields{
		DepositType: depp(DepositScore),
		Location:    strp("REEF_AB_4"),
	}); err != nil {
		t.Fatalf("close cycle: %v", err)
	}

	live := s.Cycles()
	if len(live) != 1 {
		t.Fatalf("live cycles = %d, want 1", len(live))
	}
	c := live[0]
	if c.StartTime != 2000 {
		t.Fatalf("startTime = %d, want 2000", c.StartTime)
	}
	if d := c.Duration(); d == nil || *d != 7000 {
		t.Fatalf("duration = %v, want 7000", d)
	}
	if c.Location != "REEF_AB_4" {
		t.Fatalf("location = %q, want REEF_AB_4", c.Location)
	}

	if err := s.BeginTele(); err != nil {
		t.Fatalf("begin tele: %v", err)
	}
	if err := s.EndMatch(); err != nil {
		t.Fatalf("end match: %v", err)
	}

	totals := ComputeReportTotals(s.Cycles())
	coral := totals[PhaseAuto][CategoryCoral]
	if coral == nil {
		t.Fatalf("no auto coral totals: %v", totals)
	}
	if got := coral["scoredCount"]; got != 1 {
		t.Errorf("scoredCount = %v, want 1", got)
	}
	if got := coral["attainedCount"]; got != 1 {
		t.Errorf("attainedCount = %v, want 1", got)
	}
	if got := coral["droppedCount"]; got != 0 {
		t.Errorf("droppedCount = %v, want 0", got)
	}
	if got := coral["avgScoringCycleTime"]; got != 7000 {
		t.Errorf("avgScoringCycleTime = %v, want 7000", got)
	}
}

func strp(s string) *string           { return &s }
func depp(d DepositType) *DepositType { return &d }

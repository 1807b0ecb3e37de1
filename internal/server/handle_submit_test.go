package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/scoutbase/matchscout/internal/database"
	"github.com/scoutbase/matchscout/internal/migrations"
	"github.com/scoutbase/matchscout/internal/qr"
	"github.com/scoutbase/matchscout/internal/scouting"
)

// playMatch drives a session through one scored coral cycle to POST_MATCH.
func playMatch(t *testing.T, r http.Handler, station string) SessionSnapshot {
	t.Helper()
	mustInvoke(t, r, station, "setStartingPosition", "3")
	mustInvoke(t, r, station, "beginAuto", "")
	mustInvoke(t, r, station, "startCoral", "CORAL_STATION_LEFT")
	mustInvoke(t, r, station, "scoreCoral", "REEF_AB_4")
	mustInvoke(t, r, station, "beginTele", "")
	resp := mustInvoke(t, r, station, "endMatch", "")
	return resp.Session
}

func sessionState(t *testing.T, r http.Handler, station string) SessionSnapshot {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+station, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("state: expected 200, got %d", w.Code)
	}
	var snap SessionSnapshot
	json.NewDecoder(w.Body).Decode(&snap)
	return snap
}

func TestSubmitStoresAndResets(t *testing.T) {
	r, db := testRouter(t)
	createSession(t, r, "red1")
	before := playMatch(t, r, "red1")

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/red1/submit", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("submit: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp SubmitResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Message != "report stored" {
		t.Errorf("message = %q, want 'report stored'", resp.Message)
	}
	if resp.ReportID != before.ReportID {
		t.Errorf("reportId = %q, want %q", resp.ReportID, before.ReportID)
	}

	// A confirmed submission resets the session for the next match.
	after := sessionState(t, r, "red1")
	if after.Phase != "PRE_MATCH" {
		t.Errorf("phase after submit = %q, want PRE_MATCH", after.Phase)
	}
	if after.ReportID == before.ReportID {
		t.Error("submit must issue a fresh report ID")
	}
	if len(after.Cycles) != 0 {
		t.Errorf("cycles after submit = %d, want 0", len(after.Cycles))
	}

	// The report landed, and the pending fallback slot was cleared.
	store := NewSQLiteStore(db)
	reports, err := store.ListReports(context.Background(), "2025wasno", "", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(reports) != 1 || reports[0].ReportID != before.ReportID {
		t.Fatalf("stored reports = %v", reports)
	}

	key := PendingKey{EventKey: "2025wasno", MatchKey: "qm12", Station: "red1", ScoutID: "scout-7"}
	if _, err := store.LoadPending(context.Background(), key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("pending after submit = %v, want ErrNotFound", err)
	}
}

// flakyStore fails InsertReport on demand while delegating everything else
// to the real store underneath.
type flakyStore struct {
	Store
	insertErr error
}

func (s *flakyStore) InsertReport(ctx context.Context, rec StoredReport) (bool, error) {
	if s.insertErr != nil {
		return false, s.insertErr
	}
	return s.Store.InsertReport(ctx, rec)
}

func TestSubmitFailureLeavesSessionIntact(t *testing.T) {
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(context.Background(), db); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	store := &flakyStore{Store: NewSQLiteStore(db), insertErr: errors.New("disk full")}
	sessions := NewSessionRegistry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	r.Post("/api/sessions", handleCreateSession(sessions))
	r.Route("/api/sessions/{station}", func(r chi.Router) {
		r.Get("/", handleSessionState(sessions))
		r.Post("/actions/{actionID}", handleInvokeAction(logger, sessions, scouting.DefaultCatalog(), store, NewBroker(), 512))
		r.Post("/submit", handleSubmit(logger, sessions, store, NewBroker()))
	})

	createSession(t, r, "red1")
	before := playMatch(t, r, "red1")

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/red1/submit", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("failed submit: expected 502, got %d: %s", w.Code, w.Body.String())
	}

	// The committed log is the durable record until a success is confirmed:
	// phase, cycles and report ID must all survive the failure.
	after := sessionState(t, r, "red1")
	if after.Phase != "POST_MATCH" {
		t.Errorf("phase after failed submit = %q, want POST_MATCH", after.Phase)
	}
	if after.ReportID != before.ReportID {
		t.Errorf("reportId changed on failure: %q != %q", after.ReportID, before.ReportID)
	}
	if len(after.Cycles) != len(before.Cycles) {
		t.Errorf("cycles after failed submit = %d, want %d", len(after.Cycles), len(before.Cycles))
	}

	// The fallback copy was saved before the insert, so a retry can resume.
	key := PendingKey{EventKey: "2025wasno", MatchKey: "qm12", Station: "red1", ScoutID: "scout-7"}
	if _, err := store.LoadPending(context.Background(), key); err != nil {
		t.Fatalf("pending after failed submit: %v", err)
	}

	// Storage recovers; the retry stores the very same report and only then
	// does the session reset.
	store.insertErr = nil

	req = httptest.NewRequest(http.MethodPost, "/api/sessions/red1/submit", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("retry: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp SubmitResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.ReportID != before.ReportID {
		t.Errorf("retried reportId = %q, want %q", resp.ReportID, before.ReportID)
	}

	reports, err := store.ListReports(context.Background(), "2025wasno", "", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(reports) != 1 || reports[0].ReportID != before.ReportID {
		t.Fatalf("stored reports = %v", reports)
	}

	if snap := sessionState(t, r, "red1"); snap.Phase != "PRE_MATCH" {
		t.Fatalf("phase after successful retry = %q, want PRE_MATCH", snap.Phase)
	}
}

func TestSubmitBeforePostMatch(t *testing.T) {
	r, _ := testRouter(t)
	createSession(t, r, "red1")

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/red1/submit", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Fatalf("submit during PRE_MATCH: expected 409, got %d", w.Code)
	}
}

func TestSubmitViaCatalogAction(t *testing.T) {
	r, _ := testRouter(t)
	createSession(t, r, "red1")
	playMatch(t, r, "red1")

	// The submit button routes through the same storage path as /submit.
	w := invoke(t, r, "red1", "submitMatchNetwork", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp SubmitResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Message != "report stored" {
		t.Fatalf("message = %q, want 'report stored'", resp.Message)
	}

	if snap := sessionState(t, r, "red1"); snap.Phase != "PRE_MATCH" {
		t.Fatalf("phase = %q, want PRE_MATCH after submit", snap.Phase)
	}
}

func TestQRDoesNotReset(t *testing.T) {
	r, db := testRouter(t)
	createSession(t, r, "red1")
	before := playMatch(t, r, "red1")

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/red1/qr", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("qr: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp QRResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.ReportID != before.ReportID {
		t.Errorf("reportId = %q, want %q", resp.ReportID, before.ReportID)
	}
	if len(resp.Parts) == 0 {
		t.Fatal("expected at least one payload part")
	}

	// The parts reassemble into the exact report.
	var report scouting.Report
	if err := qr.Decode(resp.Parts, &report); err != nil {
		t.Fatalf("decode parts: %v", err)
	}
	if report.ReportID != before.ReportID || report.Robot != 1318 {
		t.Fatalf("decoded report = %+v", report)
	}
	if len(report.Cycles) != 1 || report.Cycles[0].Location != "REEF_AB_4" {
		t.Fatalf("decoded cycles = %+v", report.Cycles)
	}

	// A side channel, not a confirmed submission: the session stays put and
	// the fallback copy is saved for a later retry.
	after := sessionState(t, r, "red1")
	if after.Phase != "POST_MATCH" || after.ReportID != before.ReportID {
		t.Fatalf("session changed after QR render: %+v", after)
	}

	store := NewSQLiteStore(db)
	key := PendingKey{EventKey: "2025wasno", MatchKey: "qm12", Station: "red1", ScoutID: "scout-7"}
	if _, err := store.LoadPending(context.Background(), key); err != nil {
		t.Fatalf("pending after QR: %v", err)
	}
}

func TestQRChunkedPayload(t *testing.T) {
	r, _ := testRouterChunked(t, 48)
	createSession(t, r, "red1")
	before := playMatch(t, r, "red1")

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/red1/qr", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp QRResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if len(resp.Parts) < 2 {
		t.Fatalf("parts = %d, a tiny chunk size should split the report", len(resp.Parts))
	}

	var report scouting.Report
	if err := qr.Decode(resp.Parts, &report); err != nil {
		t.Fatalf("decode parts: %v", err)
	}
	if report.ReportID != before.ReportID {
		t.Fatalf("reportId = %q, want %q", report.ReportID, before.ReportID)
	}
}

package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scoutbase/matchscout/internal/qr"
	"github.com/scoutbase/matchscout/internal/scouting"
)

type SubmitResponse struct {
	Message  string `json:"message"`
	ReportID string `json:"reportId"`
}

type QRResponse struct {
	ReportID string   `json:"reportId"`
	Parts    []string `json:"parts"`
}

func handleSubmit(logger *slog.Logger, sessions *SessionRegistry, store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry := sessions.Get(chi.URLParam(r, "station"))
		if entry == nil {
			writeError(w, http.StatusNotFound, "no session for station")
			return
		}

		entry.Lock()
		defer entry.Unlock()
		submitLocked(w, r, logger, entry, store, broker)
	}
}

// submitLocked finalizes the report and stores it. The caller holds the
// entry lock. On any storage failure the session is left untouched: the
// committed cycle log and the pending fallback row stay the durable record
// until a success is acknowledged.
func submitLocked(w http.ResponseWriter, r *http.Request, logger *slog.Logger, entry *SessionEntry, store Store, broker *Broker) {
	s := entry.Session

	report, err := s.BuildReport()
	if err != nil {
		var ve *scouting.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusConflict, ve.Reason)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	key := PendingKey{EventKey: s.EventKey, MatchKey: s.MatchKey, Station: s.Station, ScoutID: s.ScoutID}

	// Persist the fallback copy first so a failed network submission can
	// resume later without re-scouting.
	if payload, err := json.Marshal(report); err == nil {
		if err := store.SavePending(r.Context(), key, payload); err != nil {
			logger.Error("saving pending report", "reportId", report.ReportID, "error", err)
		}
	}

	inserted, err := store.InsertReport(r.Context(), StoredReport{
		EventKey: s.EventKey,
		MatchKey: s.MatchKey,
		Station:  s.Station,
		Report:   report,
	})
	if err != nil {
		logger.Error("storing report", "reportId", report.ReportID, "error", err)
		writeError(w, http.StatusBadGateway, "submission failed")
		return
	}

	if err := store.DeletePending(r.Context(), key); err != nil {
		logger.Error("clearing pending report", "reportId", report.ReportID, "error", err)
	}

	broker.Publish(s.Station, SSEEvent{Type: "report_submitted", Station: s.Station, ReportID: report.ReportID})

	msg := "report stored"
	if !inserted {
		msg = "report already stored"
	}

	// Only a confirmed success resets the session for the next match.
	s.Reset()

	writeJSON(w, http.StatusOK, SubmitResponse{Message: msg, ReportID: report.ReportID})
}

func handleQR(logger *slog.Logger, sessions *SessionRegistry, store Store, qrChunkSize int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry := sessions.Get(chi.URLParam(r, "station"))
		if entry == nil {
			writeError(w, http.StatusNotFound, "no session for station")
			return
		}

		entry.Lock()
		defer entry.Unlock()
		qrLocked(w, r, logger, entry.Session, store, qrChunkSize)
	}
}

// qrLocked renders the current report as scannable payload chunks. The
// session is not reset: the QR channel is a side channel, not a confirmed
// submission.
func qrLocked(w http.ResponseWriter, r *http.Request, logger *slog.Logger, s *scouting.Session, store Store, qrChunkSize int) {
	report, err := s.BuildReport()
	if err != nil {
		var ve *scouting.ValidationError
		if errors.As(err, &ve) {
			writeError(w, http.StatusConflict, ve.Reason)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	key := PendingKey{EventKey: s.EventKey, MatchKey: s.MatchKey, Station: s.Station, ScoutID: s.ScoutID}
	if payload, err := json.Marshal(report); err == nil {
		if err := store.SavePending(r.Context(), key, payload); err != nil {
			logger.Error("saving pending report", "reportId", report.ReportID, "error", err)
		}
	}

	parts, err := qr.Encode(report, qrChunkSize)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, QRResponse{ReportID: report.ReportID, Parts: parts})
}

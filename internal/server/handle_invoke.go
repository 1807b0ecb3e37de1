package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/scoutbase/matchscout/internal/scouting"
)

// ActionInfo is one candidate button for the current session state.
type ActionInfo struct {
	ID      scouting.ActionID `json:"id"`
	Label   string            `json:"label"`
	Options []string          `json:"options,omitempty"`
	Enabled bool              `json:"enabled"`
}

type ActionsResponse struct {
	Phase   scouting.Phase `json:"phase"`
	Actions []ActionInfo   `json:"actions"`
}

type InvokeRequest struct {
	OptionKey string `json:"optionKey,omitempty"`
}

type InvokeResponse struct {
	Applied bool            `json:"applied"`
	Session SessionSnapshot `json:"session"`
}

func handleListActions(sessions *SessionRegistry, catalog *scouting.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry := sessions.Get(chi.URLParam(r, "station"))
		if entry == nil {
			writeError(w, http.StatusNotFound, "no session for station")
			return
		}

		entry.Lock()
		defer entry.Unlock()

		candidates := catalog.Candidates(entry.Session)
		infos := make([]ActionInfo, 0, len(candidates))
		for _, a := range candidates {
			infos = append(infos, ActionInfo{
				ID:      a.ID,
				Label:   a.Label,
				Options: a.Options,
				Enabled: a.IsEnabled(entry.Session),
			})
		}

		writeJSON(w, http.StatusOK, ActionsResponse{
			Phase:   entry.Session.Phase,
			Actions: infos,
		})
	}
}

func handleInvokeAction(logger *slog.Logger, sessions *SessionRegistry, catalog *scouting.Catalog, store Store, broker *Broker, qrChunkSize int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry := sessions.Get(chi.URLParam(r, "station"))
		if entry == nil {
			writeError(w, http.StatusNotFound, "no session for station")
			return
		}

		var req InvokeRequest
		if r.ContentLength != 0 {
			if err := readJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
		}

		entry.Lock()
		defer entry.Unlock()
		s := entry.Session

		actionID := scouting.ActionID(chi.URLParam(r, "actionID"))
		patch, applied, err := catalog.Invoke(s, actionID, req.OptionKey)
		if err != nil {
			writeInvokeError(w, err)
			return
		}
		if !applied {
			// Disabled action: a deliberate no-op, never an error.
			writeJSON(w, http.StatusOK, InvokeResponse{Applied: false, Session: snapshotOf(s)})
			return
		}

		// Submission ops cross the transport boundary instead of mutating
		// the session.
		switch patch.Op {
		case scouting.OpSubmitNetwork:
			submitLocked(w, r, logger, entry, store, broker)
			return
		case scouting.OpSubmitQR:
			qrLocked(w, r, logger, s, store, qrChunkSize)
			return
		}

		if err := s.Apply(patch); err != nil {
			writeInvokeError(w, err)
			return
		}

		switch patch.Op {
		case scouting.OpCloseActive:
			broker.Publish(s.Station, SSEEvent{Type: "cycle_committed", Station: s.Station, ActionID: actionID})
		case scouting.OpBeginAuto, scouting.OpBeginTele, scouting.OpEndMatch:
			broker.Publish(s.Station, SSEEvent{Type: "phase_changed", Station: s.Station, Phase: s.Phase})
		}

		writeJSON(w, http.StatusOK, InvokeResponse{Applied: true, Session: snapshotOf(s)})
	}
}

func writeInvokeError(w http.ResponseWriter, err error) {
	var ve *scouting.ValidationError
	switch {
	case errors.Is(err, scouting.ErrActionUnavailable):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, scouting.ErrCycleConflict), errors.Is(err, scouting.ErrNoActiveCycle):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &ve):
		writeError(w, http.StatusConflict, ve.Reason)
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

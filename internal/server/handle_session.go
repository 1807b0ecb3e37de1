package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/scoutbase/matchscout/internal/scouting"
)

type CreateSessionRequest struct {
	EventKey  string `json:"eventKey"`
	MatchKey  string `json:"matchKey"`
	Station   string `json:"station"`
	Robot     int    `json:"robot"`
	ScoutID   string `json:"scoutId"`
	ScoutName string `json:"scoutName"`
}

// SessionSnapshot is the full externally visible session state.
type SessionSnapshot struct {
	Station          string            `json:"station"`
	ReportID         string            `json:"reportId"`
	Phase            scouting.Phase    `json:"phase"`
	MatchMillis      int64             `json:"matchMillis"`
	StartingPosition int               `json:"startingPosition,omitempty"`
	Preload          bool              `json:"preload"`
	ActiveCycle      *scouting.Cycle   `json:"activeCycle,omitempty"`
	Cycles           []scouting.Cycle  `json:"cycles"`
	CanUndo          bool              `json:"canUndo"`
	CanRedo          bool              `json:"canRedo"`
	Endgame          map[string]string `json:"endgame,omitempty"`
}

func snapshotOf(s *scouting.Session) SessionSnapshot {
	snap := SessionSnapshot{
		Station:          s.Station,
		ReportID:         s.ReportID,
		Phase:            s.Phase,
		MatchMillis:      s.MatchMillis(),
		StartingPosition: s.StartingPosition,
		Preload:          s.Preload,
		Cycles:           s.Cycles(),
		CanUndo:          s.CanUndo(),
		CanRedo:          s.CanRedo(),
		Endgame:          s.Endgame,
	}
	if c, open := s.Active(); open {
		snap.ActiveCycle = &c
	}
	return snap
}

func handleCreateSession(sessions *SessionRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateSessionRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Station = strings.TrimSpace(req.Station)
		if req.EventKey == "" || req.MatchKey == "" || req.Station == "" || req.ScoutID == "" {
			writeError(w, http.StatusBadRequest, "eventKey, matchKey, station and scoutId are required")
			return
		}
		if req.Robot <= 0 {
			writeError(w, http.StatusBadRequest, "robot must be a positive team number")
			return
		}

		entry := sessions.Put(scouting.Meta{
			EventKey:  req.EventKey,
			MatchKey:  req.MatchKey,
			Station:   req.Station,
			Robot:     req.Robot,
			ScoutID:   req.ScoutID,
			ScoutName: req.ScoutName,
		})

		entry.Lock()
		defer entry.Unlock()
		writeJSON(w, http.StatusCreated, snapshotOf(entry.Session))
	}
}

func handleSessionState(sessions *SessionRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry := sessions.Get(chi.URLParam(r, "station"))
		if entry == nil {
			writeError(w, http.StatusNotFound, "no session for station")
			return
		}

		entry.Lock()
		defer entry.Unlock()
		writeJSON(w, http.StatusOK, snapshotOf(entry.Session))
	}
}

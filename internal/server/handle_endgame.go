package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// EndgameRequest carries answers from the end-of-match form. Keys repeat
// across submissions; the latest value wins.
type EndgameRequest struct {
	Answers map[string]string `json:"answers"`
}

func handleEndgame(sessions *SessionRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entry := sessions.Get(chi.URLParam(r, "station"))
		if entry == nil {
			writeError(w, http.StatusNotFound, "no session for station")
			return
		}

		var req EndgameRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if len(req.Answers) == 0 {
			writeError(w, http.StatusBadRequest, "answers are required")
			return
		}

		entry.Lock()
		defer entry.Unlock()

		for k, v := range req.Answers {
			entry.Session.SetEndgame(k, v)
		}
		writeJSON(w, http.StatusOK, snapshotOf(entry.Session))
	}
}

package server

import (
	"database/sql"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/scoutbase/matchscout/internal/scouting"
)

func addRoutes(r chi.Router, logger *slog.Logger, db *sql.DB, qrChunkSize int) {
	store := NewSQLiteStore(db)
	sessions := NewSessionRegistry()
	catalog := scouting.DefaultCatalog()
	broker := NewBroker()

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("MatchScout API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, db))

	r.Post("/api/sessions", handleCreateSession(sessions))
	r.Route("/api/sessions/{station}", func(r chi.Router) {
		r.Get("/", handleSessionState(sessions))
		r.Get("/actions", handleListActions(sessions, catalog))
		r.Post("/actions/{actionID}", handleInvokeAction(logger, sessions, catalog, store, broker, qrChunkSize))
		r.Post("/endgame", handleEndgame(sessions))
		r.Post("/submit", handleSubmit(logger, sessions, store, broker))
		r.Get("/qr", handleQR(logger, sessions, store, qrChunkSize))
	})

	r.Get("/api/reports", handleListReports(store))
	r.Get("/api/events", handleEvents(broker))
}

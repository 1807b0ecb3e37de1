package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "MatchScout API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for match scouting: per-station cycle recording, report submission, and cross-match aggregation.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/sessions
	createSession, _ := r.NewOperationContext(http.MethodPost, "/api/sessions")
	createSession.SetSummary("Start a scouting session")
	createSession.SetDescription("Creates a fresh PRE_MATCH session for a station, replacing any session already recording there.")
	createSession.AddReqStructure(CreateSessionRequest{})
	createSession.AddRespStructure(SessionSnapshot{}, openapi.WithHTTPStatus(http.StatusCreated))
	createSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(createSession)

	// GET /api/sessions/{station}
	getSession, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{station}")
	getSession.SetSummary("Get session state")
	getSession.SetDescription("Returns the full session snapshot: phase, active cycle, live committed cycles, undo/redo availability.")
	getSession.AddRespStructure(SessionSnapshot{}, openapi.WithHTTPStatus(http.StatusOK))
	getSession.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getSession)

	// GET /api/sessions/{station}/actions
	getActions, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{station}/actions")
	getActions.SetSummary("List candidate actions")
	getActions.SetDescription("Returns the catalog actions visible for the session's current phase and state.")
	getActions.AddRespStructure(ActionsResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getActions.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getActions)

	// POST /api/sessions/{station}/actions/{actionID}
	invoke, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{station}/actions/{actionID}")
	invoke.SetSummary("Invoke an action")
	invoke.SetDescription("Runs one catalog action against the session. Disabled actions are a no-op; guard violations return 409.")
	invoke.AddReqStructure(InvokeRequest{})
	invoke.AddRespStructure(InvokeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	invoke.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	invoke.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(invoke)

	// POST /api/sessions/{station}/endgame
	endgame, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{station}/endgame")
	endgame.SetSummary("Record endgame answers")
	endgame.SetDescription("Merges answers from the end-of-match form into the session; they ride along in the submitted report.")
	endgame.AddReqStructure(EndgameRequest{})
	endgame.AddRespStructure(SessionSnapshot{}, openapi.WithHTTPStatus(http.StatusOK))
	endgame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	endgame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(endgame)

	// POST /api/sessions/{station}/submit
	submit, _ := r.NewOperationContext(http.MethodPost, "/api/sessions/{station}/submit")
	submit.SetSummary("Submit the finalized report")
	submit.SetDescription("Stores the report idempotently by report ID and resets the session. A storage failure leaves the session untouched.")
	submit.AddRespStructure(SubmitResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	submit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	submit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	submit.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadGateway))
	_ = r.AddOperation(submit)

	// GET /api/sessions/{station}/qr
	getQR, _ := r.NewOperationContext(http.MethodGet, "/api/sessions/{station}/qr")
	getQR.SetSummary("Fallback payload")
	getQR.SetDescription("Renders the finalized report as scannable payload chunks without resetting the session.")
	getQR.AddRespStructure(QRResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getQR.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	getQR.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(getQR)

	// GET /api/reports
	getReports, _ := r.NewOperationContext(http.MethodGet, "/api/reports")
	getReports.SetSummary("Read reports and averages")
	getReports.SetDescription("Returns stored reports for an event, optionally filtered by match and robot, with per-robot averages recomputed on read.")
	getReports.AddRespStructure(ReportsResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getReports.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(getReports)

	// GET /api/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/events")
	getEvents.SetSummary("SSE event stream")
	getEvents.SetDescription("Server-Sent Events stream of committed cycles, phase changes, and submissions for one station.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

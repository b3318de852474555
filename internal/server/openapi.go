package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// MessageResponse is the common success shape for admin mutations.
type MessageResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Pokeruta API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the Pokeruta town route: scan QR codes at five stops, capture the local pokemon, claim your prize.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// GET /api/stops
	getStops, _ := r.NewOperationContext(http.MethodGet, "/api/stops")
	getStops.SetSummary("List active stops")
	getStops.SetDescription("Returns the active stops in route order with map coordinates.")
	getStops.AddRespStructure(StopsResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getStops)

	// POST /api/register
	postRegister, _ := r.NewOperationContext(http.MethodPost, "/api/register")
	postRegister.SetSummary("Register a participant")
	postRegister.SetDescription("Upserts a participant by email. Allowlisted webmail domains only. Rate-limited per client address.")
	postRegister.AddReqStructure(RegisterRequest{})
	postRegister.AddRespStructure(RegisterResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postRegister.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postRegister.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusTooManyRequests))
	_ = r.AddOperation(postRegister)

	// POST /api/capture
	postCapture, _ := r.NewOperationContext(http.MethodPost, "/api/capture")
	postCapture.SetSummary("Capture at a stop")
	postCapture.SetDescription("Records a capture for the scanned stop token. Re-scans are idempotent and flagged alreadyCaptured.")
	postCapture.AddReqStructure(CaptureRequest{})
	postCapture.AddRespStructure(CaptureResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postCapture.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postCapture.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusForbidden))
	postCapture.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusTooManyRequests))
	_ = r.AddOperation(postCapture)

	// POST /api/finish
	postFinish, _ := r.NewOperationContext(http.MethodPost, "/api/finish")
	postFinish.SetSummary("Finish the route")
	postFinish.SetDescription("Issues the completion code once all captures are in; repeat calls return the same code.")
	postFinish.AddReqStructure(FinishRequest{})
	postFinish.AddRespStructure(FinishResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postFinish.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postFinish.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postFinish)

	// GET /api/profile
	getProfile, _ := r.NewOperationContext(http.MethodGet, "/api/profile")
	getProfile.SetSummary("Participant profile")
	getProfile.SetDescription("Returns progress, captures and the full pokedex with captured flags. Refreshes last-seen.")
	getProfile.AddRespStructure(ProfileResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getProfile.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getProfile)

	// POST /api/admin/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/admin/login")
	postLogin.SetSummary("Admin login")
	postLogin.SetDescription("Checks the shared admin password and sets the admin cookie.")
	postLogin.AddReqStructure(AdminLoginRequest{})
	postLogin.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogin)

	// POST /api/admin/logout
	postLogout, _ := r.NewOperationContext(http.MethodPost, "/api/admin/logout")
	postLogout.SetSummary("Admin logout")
	postLogout.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postLogout)

	// GET /api/admin/metrics
	getMetrics, _ := r.NewOperationContext(http.MethodGet, "/api/admin/metrics")
	getMetrics.SetSummary("Event metrics")
	getMetrics.SetDescription("Totals plus captures grouped by pokemon. Requires admin credential.")
	getMetrics.AddRespStructure(AdminMetricsResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getMetrics.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMetrics)

	// GET /api/admin/participants
	getParticipants, _ := r.NewOperationContext(http.MethodGet, "/api/admin/participants")
	getParticipants.SetSummary("Search participants")
	getParticipants.SetDescription("Case-insensitive substring search on email or nick, paginated, newest first.")
	getParticipants.AddRespStructure(AdminParticipantsResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getParticipants.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getParticipants)

	// POST /api/admin/grant-capture
	postGrant, _ := r.NewOperationContext(http.MethodPost, "/api/admin/grant-capture")
	postGrant.SetSummary("Grant a capture")
	postGrant.AddReqStructure(AdminCaptureRequest{})
	postGrant.AddRespStructure(MessageResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postGrant.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postGrant)

	// POST /api/admin/revoke-capture
	postRevoke, _ := r.NewOperationContext(http.MethodPost, "/api/admin/revoke-capture")
	postRevoke.SetSummary("Revoke a capture")
	postRevoke.SetDescription("Retracts an unverified completion if the count drops below the total; verified completions lock captures.")
	postRevoke.AddReqStructure(AdminCaptureRequest{})
	postRevoke.AddRespStructure(MessageResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postRevoke.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	postRevoke.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postRevoke)

	// POST /api/admin/delete-participant
	postDelete, _ := r.NewOperationContext(http.MethodPost, "/api/admin/delete-participant")
	postDelete.SetSummary("Delete a participant")
	postDelete.SetDescription("Removes the participant with their captures and completion. Irreversible.")
	postDelete.AddReqStructure(AdminDeleteParticipantRequest{})
	postDelete.AddRespStructure(MessageResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postDelete.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postDelete)

	// POST /api/admin/stop/toggle
	postToggle, _ := r.NewOperationContext(http.MethodPost, "/api/admin/stop/toggle")
	postToggle.SetSummary("Toggle stop availability")
	postToggle.AddReqStructure(AdminToggleStopRequest{})
	postToggle.AddRespStructure(MessageResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postToggle.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postToggle)

	// POST /api/admin/stop/update-position
	postPosition, _ := r.NewOperationContext(http.MethodPost, "/api/admin/stop/update-position")
	postPosition.SetSummary("Move a stop on the map")
	postPosition.AddReqStructure(AdminStopPositionRequest{})
	postPosition.AddRespStructure(MessageResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postPosition.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postPosition)

	// POST /api/admin/verify-finish
	postVerify, _ := r.NewOperationContext(http.MethodPost, "/api/admin/verify-finish")
	postVerify.SetSummary("Verify a finish code")
	postVerify.SetDescription("Stamps the in-person verification. Idempotent: repeats report the original timestamp.")
	postVerify.AddReqStructure(AdminVerifyRequest{})
	postVerify.AddRespStructure(AdminVerifyResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postVerify.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postVerify)

	// CSV exports.
	getParticipantsCSV, _ := r.NewOperationContext(http.MethodGet, "/api/admin/export/participants.csv")
	getParticipantsCSV.SetSummary("Export participants CSV")
	getParticipantsCSV.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/csv"))
	_ = r.AddOperation(getParticipantsCSV)

	getCompletionsCSV, _ := r.NewOperationContext(http.MethodGet, "/api/admin/export/completions.csv")
	getCompletionsCSV.SetSummary("Export completions CSV")
	getCompletionsCSV.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/csv"))
	_ = r.AddOperation(getCompletionsCSV)

	// GET /api/admin/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/admin/events")
	getEvents.SetSummary("Admin activity stream")
	getEvents.SetDescription("Server-Sent Events feed of registrations, captures, finishes and verifications.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		json.NewEncoder(w).Encode(spec)
	}
}

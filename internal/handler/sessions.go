package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gymwatch/gymwatch/internal/auth"
	"github.com/gymwatch/gymwatch/internal/handler/dto"
	"github.com/gymwatch/gymwatch/internal/service"
)

// SessionHandler handles the owner's schedule API.
type SessionHandler struct {
	svc    *service.ScheduleService
	status *StatusHandler
	logger *slog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(svc *service.ScheduleService, status *StatusHandler, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		svc:    svc,
		status: status,
		logger: logger,
	}
}

// List handles GET /api/v1/sessions.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.ToSessionListResponse(h.svc.AllSessions(r.Context())))
}

// Create handles POST /api/v1/sessions.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	input := service.AddSessionInput{OwnerID: auth.UserIDFromContext(r.Context())}
	if req.StartTime != nil {
		input.Start = *req.StartTime
	}
	if req.EndTime != nil {
		input.End = *req.EndTime
	}

	session, err := h.svc.AddSession(r.Context(), input)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.status.Refresh(r.Context())

	writeJSON(w, http.StatusCreated, dto.ToSessionResponse(session))
}

// Delete handles DELETE /api/v1/sessions/{id}.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "MISSING_ID", "Session ID is required")
		return
	}

	if err := h.svc.DeleteSession(r.Context(), id); err != nil {
		h.handleServiceError(w, err)
		return
	}
	h.status.Refresh(r.Context())

	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) handleServiceError(w http.ResponseWriter, err error) {
	status, code, message := scheduleError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("internal_error", "error", err)
	}
	writeError(w, status, code, message)
}

// scheduleError maps schedule service errors to HTTP status, error code and
// the user-facing message. Pages and the API share it.
func scheduleError(err error) (int, string, string) {
	switch {
	case errors.Is(err, service.ErrMissingTimes):
		return http.StatusBadRequest, "MISSING_TIMES", "Please select both start and end times"
	case errors.Is(err, service.ErrInvalidInterval):
		return http.StatusUnprocessableEntity, "INVALID_INTERVAL", "End time must be after start time"
	case errors.Is(err, service.ErrNotAuthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED", "You must be logged in to add sessions"
	case errors.Is(err, service.ErrWriteFailed):
		return http.StatusServiceUnavailable, "WRITE_FAILED", "Could not save changes. Please try again."
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred"
	}
}

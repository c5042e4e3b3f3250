package handler

import (
	"log/slog"
	"net/http"

	"github.com/gymwatch/gymwatch/internal/handler/dto"
	"github.com/gymwatch/gymwatch/internal/service"
)

// DangerHandler reads and toggles the danger flag.
type DangerHandler struct {
	svc    *service.ScheduleService
	status *StatusHandler
	logger *slog.Logger
}

// NewDangerHandler creates a new DangerHandler.
func NewDangerHandler(svc *service.ScheduleService, status *StatusHandler, logger *slog.Logger) *DangerHandler {
	return &DangerHandler{
		svc:    svc,
		status: status,
		logger: logger,
	}
}

// Get handles GET /api/v1/danger.
func (h *DangerHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.DangerResponse{Danger: h.svc.GetDangerFlag(r.Context())})
}

// Put handles PUT /api/v1/danger.
func (h *DangerHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req dto.DangerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if req.Danger == nil {
		writeError(w, http.StatusBadRequest, "MISSING_DANGER", "danger is required")
		return
	}

	if err := h.svc.SetDangerFlag(r.Context(), *req.Danger); err != nil {
		status, code, message := scheduleError(err)
		writeError(w, status, code, message)
		return
	}
	h.status.Refresh(r.Context())

	writeJSON(w, http.StatusOK, dto.DangerResponse{Danger: *req.Danger})
}

package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gymwatch/gymwatch/internal/handler/dto"
	"github.com/gymwatch/gymwatch/internal/poller"
	"github.com/gymwatch/gymwatch/internal/service"
)

// StatusHandler serves the public availability status.
type StatusHandler struct {
	svc    *service.ScheduleService
	poller *poller.Poller
	logger *slog.Logger
	now    func() time.Time
}

// NewStatusHandler creates a new StatusHandler. p may be nil, in which case
// every request computes the status inline.
func NewStatusHandler(svc *service.ScheduleService, p *poller.Poller, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{
		svc:    svc,
		poller: p,
		logger: logger,
		now:    time.Now,
	}
}

// Current returns the poller's snapshot when fresh, otherwise computes the
// status now.
func (h *StatusHandler) Current(ctx context.Context) *service.Status {
	now := h.now()
	if h.poller != nil {
		if st, ok := h.poller.Fresh(now); ok {
			return st
		}
		h.logger.Debug("status snapshot stale, computing inline")
	}
	return h.svc.Status(ctx, now)
}

// Refresh recomputes the poller snapshot after a change so the next read
// sees it. Without a poller every read is already live.
func (h *StatusHandler) Refresh(ctx context.Context) {
	if h.poller != nil {
		h.poller.Refresh(ctx)
	}
}

// Get handles GET /api/v1/status.
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.ToStatusResponse(h.Current(r.Context())))
}

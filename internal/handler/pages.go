package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gymwatch/gymwatch/internal/auth"
	"github.com/gymwatch/gymwatch/internal/middleware"
	"github.com/gymwatch/gymwatch/internal/model"
	"github.com/gymwatch/gymwatch/internal/service"
	"github.com/gymwatch/gymwatch/internal/web"
)

const (
	loginPath  = "/login"
	managePath = "/manage"
)

// PageHandler renders the HTML pages and handles their form posts.
type PageHandler struct {
	schedule *service.ScheduleService
	status   *StatusHandler
	auth     *service.AuthService
	cookie   SessionCookie
	renderer *web.Renderer
	logger   *slog.Logger
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(
	schedule *service.ScheduleService,
	status *StatusHandler,
	authSvc *service.AuthService,
	cookie SessionCookie,
	renderer *web.Renderer,
	logger *slog.Logger,
) *PageHandler {
	return &PageHandler{
		schedule: schedule,
		status:   status,
		auth:     authSvc,
		cookie:   cookie,
		renderer: renderer,
		logger:   logger,
	}
}

type statusPage struct {
	Title  string
	Status *service.Status
}

type loginPage struct {
	Title     string
	CSRFToken string
	Email     string
	Next      string
	Error     string
}

type managePage struct {
	Title      string
	CSRFToken  string
	Email      string
	Status     *service.Status
	Sessions   []*model.Session
	Now        time.Time
	StartValue string
	EndValue   string
	Error      string
}

// Status handles GET /.
func (h *PageHandler) Status(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, web.PageStatus, statusPage{
		Title:  "Gym Status",
		Status: h.status.Current(r.Context()),
	})
}

// Login handles GET /login.
func (h *PageHandler) Login(w http.ResponseWriter, r *http.Request) {
	if auth.AuthFromContext(r.Context()) != nil {
		http.Redirect(w, r, managePath, http.StatusSeeOther)
		return
	}
	h.render(w, http.StatusOK, web.PageLogin, loginPage{
		Title:     "Log in",
		CSRFToken: middleware.CSRFToken(r.Context()),
		Next:      safeNext(r.URL.Query().Get("next")),
	})
}

// LoginSubmit handles POST /login.
func (h *PageHandler) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	email := r.PostForm.Get("email")
	next := safeNext(r.PostForm.Get("next"))

	result, err := h.auth.Login(r.Context(), email, r.PostForm.Get("password"))
	if err != nil {
		status, _, message := loginError(err)
		h.render(w, status, web.PageLogin, loginPage{
			Title:     "Log in",
			CSRFToken: middleware.CSRFToken(r.Context()),
			Email:     email,
			Next:      next,
			Error:     message,
		})
		return
	}

	h.cookie.set(w, result.Token, result.ExpiresAt)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// LogoutSubmit handles POST /logout.
func (h *PageHandler) LogoutSubmit(w http.ResponseWriter, r *http.Request) {
	token := middleware.TokenFromRequest(r, h.cookie.Name)
	if err := h.auth.Logout(r.Context(), token); err != nil {
		h.logger.Warn("logout failed", "error", err)
	}
	h.cookie.clear(w)
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

// Manage handles GET /manage.
func (h *PageHandler) Manage(w http.ResponseWriter, r *http.Request) {
	h.renderManage(w, r, http.StatusOK, managePage{})
}

// AddSessionSubmit handles POST /manage/sessions.
func (h *PageHandler) AddSessionSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	startValue := r.PostForm.Get("start_time")
	endValue := r.PostForm.Get("end_time")
	form := managePage{StartValue: startValue, EndValue: endValue}

	start, startErr := web.ParseDateTimeLocal(startValue)
	end, endErr := web.ParseDateTimeLocal(endValue)
	if startErr != nil || endErr != nil {
		// An unparseable value is treated like an empty one.
		form.Error = "Please select both start and end times"
		h.renderManage(w, r, http.StatusBadRequest, form)
		return
	}

	_, err := h.schedule.AddSession(r.Context(), service.AddSessionInput{
		Start:   start,
		End:     end,
		OwnerID: auth.UserIDFromContext(r.Context()),
	})
	if err != nil {
		status, _, message := scheduleError(err)
		form.Error = message
		h.renderManage(w, r, status, form)
		return
	}
	h.status.Refresh(r.Context())

	http.Redirect(w, r, managePath, http.StatusSeeOther)
}

// DeleteSessionSubmit handles POST /manage/sessions/{id}/delete.
func (h *PageHandler) DeleteSessionSubmit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.schedule.DeleteSession(r.Context(), id); err != nil {
		status, _, message := scheduleError(err)
		h.renderManage(w, r, status, managePage{Error: message})
		return
	}
	h.status.Refresh(r.Context())
	http.Redirect(w, r, managePath, http.StatusSeeOther)
}

// DangerSubmit handles POST /manage/danger.
func (h *PageHandler) DangerSubmit(w http.ResponseWriter, r *http.Request) {
	on, err := strconv.ParseBool(r.PostFormValue("danger"))
	if err != nil {
		http.Error(w, "Invalid danger value", http.StatusBadRequest)
		return
	}

	if err := h.schedule.SetDangerFlag(r.Context(), on); err != nil {
		status, _, message := scheduleError(err)
		h.renderManage(w, r, status, managePage{Error: message})
		return
	}
	h.status.Refresh(r.Context())
	http.Redirect(w, r, managePath, http.StatusSeeOther)
}

// renderManage fills in the live parts of the management page and renders it.
// The owner always sees a freshly computed status, never the poller snapshot.
func (h *PageHandler) renderManage(w http.ResponseWriter, r *http.Request, status int, page managePage) {
	ctx := r.Context()
	page.Title = "Manage Schedule"
	page.CSRFToken = middleware.CSRFToken(ctx)
	if ac := auth.AuthFromContext(ctx); ac != nil {
		page.Email = ac.Email
	}
	page.Now = h.status.now()
	page.Status = h.schedule.Status(ctx, page.Now)
	page.Sessions = h.schedule.AllSessions(ctx)
	h.render(w, status, web.PageManage, page)
}

func (h *PageHandler) render(w http.ResponseWriter, status int, page string, data any) {
	if err := h.renderer.Render(w, status, page, data); err != nil {
		h.logger.Error("render failed", "page", page, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return managePath
	}
	return next
}

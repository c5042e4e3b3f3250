package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gymwatch/gymwatch/internal/auth"
	"github.com/gymwatch/gymwatch/internal/handler/dto"
	"github.com/gymwatch/gymwatch/internal/middleware"
	"github.com/gymwatch/gymwatch/internal/service"
)

// SessionCookie describes the login session cookie.
type SessionCookie struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

func (c SessionCookie) set(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(c.TTL.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (c SessionCookie) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// AuthHandler handles the JSON sign-in API.
type AuthHandler struct {
	svc    *service.AuthService
	cookie SessionCookie
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, cookie SessionCookie, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		cookie: cookie,
		logger: logger,
	}
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	result, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		status, code, message := loginError(err)
		writeError(w, status, code, message)
		return
	}

	writeJSON(w, http.StatusOK, dto.LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      dto.UserResponse{ID: result.User.ID, Email: result.User.Email},
	})
}

// Logout handles POST /api/v1/auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.TokenFromRequest(r, h.cookie.Name)
	if err := h.svc.Logout(r.Context(), token); err != nil {
		status, code, message := loginError(err)
		writeError(w, status, code, message)
		return
	}

	h.cookie.clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/v1/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ac := auth.AuthFromContext(r.Context())
	if ac == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "You must be logged in")
		return
	}
	writeJSON(w, http.StatusOK, dto.UserResponse{ID: ac.UserID, Email: ac.Email})
}

// loginError maps auth service errors to HTTP status, code and message.
func loginError(err error) (int, string, string) {
	switch {
	case errors.Is(err, service.ErrMissingCredentials):
		return http.StatusBadRequest, "MISSING_CREDENTIALS", "Please enter both email and password"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password"
	case errors.Is(err, service.ErrAuthUnavailable):
		return http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "Sign-in is temporarily unavailable"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred"
	}
}

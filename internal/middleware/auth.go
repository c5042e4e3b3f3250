package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gymwatch/gymwatch/internal/auth"
	"github.com/gymwatch/gymwatch/internal/model"
)

// Authenticator resolves a login token. *service.AuthService satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.AuthContext, error)
}

// SessionConfig holds configuration for the session middleware.
type SessionConfig struct {
	Logger        *slog.Logger
	Authenticator Authenticator
	CookieName    string
}

// Session attaches the owner's auth context when the request carries a
// valid login token, from the session cookie or an Authorization: Bearer
// header. Anonymous requests pass through untouched; use RequireOwnerAPI or
// RequireOwnerPage to gate routes.
func Session(cfg SessionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r, cfg.CookieName)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			authCtx, err := cfg.Authenticator.Authenticate(r.Context(), token)
			if err != nil {
				cfg.Logger.Debug("session not accepted",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
				)
				next.ServeHTTP(w, r)
				return
			}

			notePrincipal(r.Context(), authCtx.UserID)
			next.ServeHTTP(w, r.WithContext(auth.ContextWithAuth(r.Context(), authCtx)))
		})
	}
}

// TokenFromRequest returns the bearer token if present, else the session
// cookie value.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(cookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// RequireOwnerAPI answers 401 JSON for anonymous API requests.
func RequireOwnerAPI(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.AuthFromContext(r.Context()) == nil {
			writeJSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "You must be logged in")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireOwnerPage redirects anonymous page requests to loginPath, keeping
// the original path in the next parameter.
func RequireOwnerPage(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth.AuthFromContext(r.Context()) == nil {
				target := loginPath + "?next=" + url.QueryEscape(r.URL.Path)
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

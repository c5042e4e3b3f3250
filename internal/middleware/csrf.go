package middleware

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"net/http"
	"strings"
)

const (
	// CSRFCookieName holds the double-submit token.
	CSRFCookieName = "gymwatch_csrf"
	// CSRFHeaderName is checked for script-issued requests.
	CSRFHeaderName = "X-CSRF-Token"
	// CSRFFormField is checked for HTML form posts.
	CSRFFormField = "csrf_token"

	csrfTokenKey contextKey = "csrf_token"
)

// CSRFConfig is the configuration for the CSRF middleware.
type CSRFConfig struct {
	Logger       *slog.Logger
	CookieSecure bool
}

// CSRF implements double-submit cookie protection for cookie-authenticated
// requests. Safe methods get a token cookie (and the token in context for
// templates); unsafe methods must echo it in the header or form field.
// Requests authenticated by a bearer token are exempt.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}

			cookieToken := ""
			if c, err := r.Cookie(CSRFCookieName); err == nil {
				cookieToken = c.Value
			}

			if isSafeMethod(r.Method) {
				if cookieToken == "" {
					token, err := generateCSRFToken()
					if err != nil {
						cfg.Logger.Error("failed to generate CSRF token", slog.String("error", err.Error()))
						http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
						return
					}
					cookieToken = token
					http.SetCookie(w, &http.Cookie{
						Name:     CSRFCookieName,
						Value:    token,
						Path:     "/",
						HttpOnly: false,
						Secure:   cfg.CookieSecure,
						SameSite: http.SameSiteLaxMode,
					})
				}
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfTokenKey, cookieToken)))
				return
			}

			submitted := r.Header.Get(CSRFHeaderName)
			if submitted == "" {
				submitted = r.PostFormValue(CSRFFormField)
			}

			if cookieToken == "" || subtle.ConstantTimeCompare([]byte(cookieToken), []byte(submitted)) != 1 {
				cfg.Logger.Warn("CSRF validation failed",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				if strings.HasPrefix(r.URL.Path, "/api/") {
					writeJSONError(w, http.StatusForbidden, "CSRF_FAILED", "CSRF token validation failed")
					return
				}
				http.Error(w, "CSRF token validation failed", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfTokenKey, cookieToken)))
		})
	}
}

// CSRFToken returns the token to embed in forms, or "" outside CSRF.
func CSRFToken(ctx context.Context) string {
	token, _ := ctx.Value(csrfTokenKey).(string)
	return token
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}

func generateCSRFToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

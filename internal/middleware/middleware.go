package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/campaignly/campaignly/internal/auth"
)

type ctxKey string

const (
	ctxKeyUserID ctxKey = "user_id"
	ctxKeyEmail  ctxKey = "user_email"
	ctxKeyName   ctxKey = "user_name"
)

// SessionCookie is the cookie carrying the auth token.
const SessionCookie = "session"

// UserID returns the authenticated user ID from the request context, or "".
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyUserID).(string)
	return id
}

// UserEmail returns the authenticated user's email address, or "".
func UserEmail(ctx context.Context) string {
	email, _ := ctx.Value(ctxKeyEmail).(string)
	return email
}

// UserName returns the authenticated user's display name, or "".
func UserName(ctx context.Context) string {
	name, _ := ctx.Value(ctxKeyName).(string)
	return name
}

// WithUser returns a context carrying the given identity. Exported for
// handler tests.
func WithUser(ctx context.Context, userID, email, name string) context.Context {
	ctx = context.WithValue(ctx, ctxKeyUserID, userID)
	ctx = context.WithValue(ctx, ctxKeyEmail, email)
	return context.WithValue(ctx, ctxKeyName, name)
}

// Logger middleware logs HTTP requests
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", wrapped.status,
				"duration", time.Since(start),
				"ip", r.RemoteAddr,
			)
		})
	}
}

// Recovery middleware recovers from panics
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						"error", err,
						"stack", string(debug.Stack()),
					)
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// Auth middleware validates the session token and loads the user identity
// into the request context. Requests without a valid token are redirected to
// the login page with the stale cookie cleared.
func Auth(svc *auth.Service, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookie)
			if err != nil {
				http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
				return
			}

			claims, err := svc.ClaimsFromToken(cookie.Value)
			if err != nil {
				logger.Debug("rejected session token", "error", err, "ip", r.RemoteAddr)
				ClearSession(w)
				http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
				return
			}

			ctx := WithUser(r.Context(), claims.Subject, claims.Email, claims.Name)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SetSession writes the session cookie for the issued token.
func SetSession(w http.ResponseWriter, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSession expires the session cookie.
func ClearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// MethodOverride middleware allows overriding HTTP method via _method form field
func MethodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			method := r.FormValue("_method")
			if method != "" {
				r.Method = method
			}
		}
		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

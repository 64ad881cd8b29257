package adapthttp

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"luminapos/internal/app"
	"luminapos/internal/domain"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type contextKey string

const sessionContextKey contextKey = "session"

// sessionFrom returns the verified session stored by requireSession.
func sessionFrom(ctx context.Context) *app.Session {
	sess, _ := ctx.Value(sessionContextKey).(*app.Session)
	return sess
}

// requireSession verifies the bearer token, or the session cookie, and admits
// only the listed roles. License sessions end as soon as their key stops
// passing its checks.
func (s *Server) requireSession(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				if c, err := r.Cookie(sessionCookie); err == nil {
					raw = c.Value
				}
			}
			if raw == "" {
				writeError(w, r, http.StatusUnauthorized, app.ErrInvalidSession)
				return
			}

			sess, err := s.svc.Sessions.Parse(raw)
			if err != nil {
				writeError(w, r, http.StatusUnauthorized, app.ErrInvalidSession)
				return
			}
			if !slices.Contains(roles, sess.Role) {
				writeError(w, r, http.StatusForbidden, errForbidden)
				return
			}
			if sess.Role == domain.RoleLicense {
				reason, err := s.svc.Licenses.Authorize(r.Context(), sess.Subject, sess.DeviceID)
				if err != nil {
					s.fail(w, r, err)
					return
				}
				if reason != domain.ReasonNone {
					writeJSON(w, r, http.StatusUnauthorized, domain.Rejected(reason))
					return
				}
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// loggingMiddleware logs one line per request.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.log.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func zapRequest(r *http.Request, err error) []zap.Field {
	return []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	}
}

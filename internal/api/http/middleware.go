package http

import (
	"net/http"
	"strings"
	"time"

	"iotkit-rental-backend/internal/config"
	"iotkit-rental-backend/internal/logger"
	"iotkit-rental-backend/internal/security"

	"github.com/gorilla/mux"
)

// AuthMiddleware enforces the security level configured for the matched
// route template.
func AuthMiddleware(tm security.TokenManager) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			template := r.URL.Path
			if route := mux.CurrentRoute(r); route != nil {
				if t, err := route.GetPathTemplate(); err == nil {
					template = t
				}
			}

			level := config.RequiredLevel(r.Method, template)
			if level == config.SecurityPublic {
				next.ServeHTTP(w, r)
				return
			}

			token := extractToken(r)
			if token == "" {
				writeMessage(w, http.StatusUnauthorized, "authorization token is not provided")
				return
			}
			claims, err := tm.ValidateToken(token)
			if err != nil {
				writeMessage(w, http.StatusUnauthorized, "invalid token: "+err.Error())
				return
			}
			if level == config.SecurityAdmin && !claims.HasRole(security.RoleAdmin) {
				writeMessage(w, http.StatusForbidden, "admin role required")
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

func extractToken(r *http.Request) string {
	token := r.Header.Get("Authorization")
	// Remove Bearer prefix if present
	if len(token) > 7 && strings.ToUpper(token[0:7]) == "BEARER " {
		token = token[7:]
	}
	return strings.TrimSpace(token)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs one line per request.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		attrs := []any{"method", r.Method, "path", r.URL.Path, "status", rec.status, "duration_ms", time.Since(start).Milliseconds()}
		if rec.status >= http.StatusInternalServerError {
			logger.Error("HTTP request", attrs...)
			return
		}
		logger.Info("HTTP request", attrs...)
	})
}

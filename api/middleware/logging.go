package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/bizledger-backend/pkg/logger"
)

// HTTPObserver records one finished request; *metrics.HTTPMetrics satisfies it.
type HTTPObserver interface {
	Observe(method, route string, status int, duration time.Duration)
}

// Logging emits request.start and request.complete and feeds observer, which may be nil.
func Logging(logg *logger.Logger, observer HTTPObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"method": r.Method,
					"path":   r.URL.Path,
				})
				logg.Info(ctx, "request.start")
			}

			rec := &statusRecorder{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(rec, r.WithContext(ctx))
			elapsed := time.Since(start)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			if observer != nil {
				observer.Observe(r.Method, routeLabel(r), status, elapsed)
			}
			if logg != nil {
				logg.Info(logg.WithFields(ctx, map[string]any{
					"status":      status,
					"duration_ms": elapsed.Milliseconds(),
				}), "request.complete")
			}
		})
	}
}

// routeLabel prefers the matched chi pattern so ids never become label values.
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/droplabs/drop-service/internal/entities"
)

// principalRecord lets Auth report the resolved caller back to the
// Logger middleware wrapping it. One record per request, no sharing.
type principalRecord struct {
	principal entities.Principal
	resolved  bool
}

type principalRecordKey struct{}

func recordPrincipal(ctx context.Context, p entities.Principal) {
	if rec, ok := ctx.Value(principalRecordKey{}).(*principalRecord); ok {
		rec.principal = p
		rec.resolved = true
	}
}

// Logger writes one line per request. The principal resolved by Auth is
// folded in when present so admin console actions are attributable.
func Logger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := wrapResponseWriter(w)
			rec := &principalRecord{}
			ctx := context.WithValue(r.Context(), principalRecordKey{}, rec)

			next.ServeHTTP(ww, r.WithContext(ctx))

			attrs := []any{
				slog.Int("status", ww.status),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("bytes", ww.written),
				slog.String("remote", r.RemoteAddr),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", chimw.GetReqID(r.Context())),
			}
			if rec.resolved {
				attrs = append(attrs,
					slog.Int64("user_id", rec.principal.UserID),
					slog.String("role", string(rec.principal.Role)),
				)
			}

			if ww.status >= http.StatusInternalServerError {
				logger.Error("request", attrs...)
				return
			}
			logger.Info("request", attrs...)
		})
	}
}

// responseWriter captures the status code and body size for the logger
// and metrics middleware, which share the same wrapped writer.
type responseWriter struct {
	http.ResponseWriter
	status  int
	written int
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += n
	return n, err
}

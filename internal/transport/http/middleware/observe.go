package middleware

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/vedran77/relay/internal/metrics"
)

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// Observe records metrics for one operation and logs every request. A
// request-scoped logger is placed in the context; later middleware and
// handlers add fields to it with zerolog.Ctx.
func Observe(operation string, m *metrics.Metrics, log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqLog := log.With().
				Str("operation", operation).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Logger()
			ctx := reqLog.WithContext(r.Context())

			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r.WithContext(ctx))

			elapsed := time.Since(start)
			m.RecordRequest(operation, sw.status, elapsed)

			l := zerolog.Ctx(ctx)
			var event *zerolog.Event
			switch {
			case sw.status >= http.StatusInternalServerError:
				event = l.Error()
			case sw.status >= http.StatusBadRequest:
				event = l.Warn()
			default:
				event = l.Info()
			}
			event.
				Int("status", sw.status).
				Dur("duration", elapsed).
				Msg("request completed")
		})
	}
}

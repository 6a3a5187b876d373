package middleware

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/nutrition-api/internal/api/shared"
	"github.com/phrazzld/nutrition-api/internal/platform/logger"
)

// NewTraceMiddleware adds a trace ID to the request context and echoes it in
// the X-Trace-ID response header. A request logger carrying the trace ID is
// stored in the context for downstream handlers.
//
// This middleware should be applied early in the middleware chain to ensure
// that all subsequent handlers have access to the trace ID.
func NewTraceMiddleware(base *slog.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := shared.SetTraceID(r.Context())
			traceID := shared.GetTraceID(ctx)

			log := base.With(slog.String("trace_id", traceID))
			ctx = logger.WithLogger(ctx, log)

			log.Debug("request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remote_addr", r.RemoteAddr))

			w.Header().Set(shared.TraceIDHeader, traceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

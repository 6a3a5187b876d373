package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/phrazzld/nutrition-api/internal/api/shared"
	"github.com/phrazzld/nutrition-api/internal/platform/logger"
	"github.com/phrazzld/nutrition-api/internal/ratelimit"
	"github.com/phrazzld/nutrition-api/internal/redact"
)

// RateLimitExceededMessage is the error body returned with 429 responses.
const RateLimitExceededMessage = "Rate limit exceeded. Please try again later."

// RateLimiter throttles requests per client address.
type RateLimiter struct {
	limiter ratelimit.Limiter
	logger  *slog.Logger
}

// NewRateLimiter creates rate limiting middleware backed by limiter.
func NewRateLimiter(limiter ratelimit.Limiter, logger *slog.Logger) *RateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RateLimiter{limiter: limiter, logger: logger}
}

// Middleware returns the http middleware. It expects chi's RealIP to have
// already rewritten RemoteAddr when running behind a proxy.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := clientAddress(r)

		res, err := rl.limiter.Allow(r.Context(), clientID)
		if err != nil {
			// The limiter backend is unavailable; serve the request anyway.
			logger.FromContextOrDefault(r.Context(), rl.logger).Warn("rate limiter unavailable",
				slog.String("error", redact.Error(err)))
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

		if !res.Allowed {
			seconds := int(math.Ceil(res.RetryAfter.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			shared.RespondWithErrorAndLog(w, r, http.StatusTooManyRequests, RateLimitExceededMessage, nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

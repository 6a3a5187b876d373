package ratelimit

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidLimit is returned when a limiter is built with a non-positive limit.
var ErrInvalidLimit = errors.New("requests per minute must be positive")

// Result contains the result of a rate limit check
type Result struct {
	Allowed    bool
	Remaining  int
	Limit      int
	RetryAfter time.Duration // zero when allowed
}

// Limiter decides whether a client may make another request.
type Limiter interface {
	Allow(ctx context.Context, clientID string) (Result, error)
}

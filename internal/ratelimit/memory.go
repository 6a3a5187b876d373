package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	sweepInterval = time.Minute
	idleTTL       = 5 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter is a per-client token bucket holding perMinute tokens and
// refilling at perMinute per minute.
type MemoryLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	perMinute int
	lastSweep time.Time
	now       func() time.Time
}

var _ Limiter = (*MemoryLimiter)(nil)

// NewMemoryLimiter creates an in-process limiter.
func NewMemoryLimiter(perMinute int) (*MemoryLimiter, error) {
	if perMinute <= 0 {
		return nil, ErrInvalidLimit
	}
	return &MemoryLimiter{
		visitors:  make(map[string]*visitor),
		perMinute: perMinute,
		now:       time.Now,
	}, nil
}

// Allow consumes one token for clientID if one is available.
func (l *MemoryLimiter) Allow(_ context.Context, clientID string) (Result, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)

	v, ok := l.visitors[clientID]
	if !ok {
		v = &visitor{
			limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.perMinute)), l.perMinute),
		}
		l.visitors[clientID] = v
	}
	v.lastSeen = now

	res := Result{Limit: l.perMinute}
	if v.limiter.AllowN(now, 1) {
		res.Allowed = true
		res.Remaining = int(v.limiter.TokensAt(now))
		return res, nil
	}

	r := v.limiter.ReserveN(now, 1)
	res.RetryAfter = r.DelayFrom(now)
	r.CancelAt(now)
	return res, nil
}

// sweep forgets clients idle for longer than idleTTL. Callers hold l.mu.
func (l *MemoryLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < sweepInterval {
		return
	}
	l.lastSweep = now
	for id, v := range l.visitors {
		if now.Sub(v.lastSeen) > idleTTL {
			delete(l.visitors, id)
		}
	}
}

// clients reports how many clients are tracked.
func (l *MemoryLimiter) clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

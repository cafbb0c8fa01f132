package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"github.com/spec-kit/admin-backoffice/internal/config"
	apperrors "github.com/spec-kit/admin-backoffice/pkg/util"
)

// Kind selects which fixed-window budget a consumption draws from.
type Kind string

const (
	// KindAuth covers sign-in, sign-in-by-OTP, sign-up, verify-email,
	// verify-OTP and reset-password.
	KindAuth Kind = "auth"
	// KindAPI covers all other protected endpoints.
	KindAPI Kind = "api"
)

type window struct {
	count        int
	windowStart  time.Time
	blockedUntil time.Time
}

type budget struct {
	points   int
	duration time.Duration
	windows  map[string]*window
}

// Limiter tracks per-client fixed-window attempt budgets. Counters are
// process-local; running multiple instances loses global accuracy.
type Limiter struct {
	mu      sync.Mutex
	budgets map[Kind]*budget
	now     func() time.Time
}

// NewLimiter builds a limiter from configured budgets.
func NewLimiter(cfg config.RateLimitConfig) *Limiter {
	return &Limiter{
		budgets: map[Kind]*budget{
			KindAuth: {
				points:   cfg.AuthPoints,
				duration: time.Duration(cfg.AuthWindowSeconds) * time.Second,
				windows:  make(map[string]*window),
			},
			KindAPI: {
				points:   cfg.APIPoints,
				duration: time.Duration(cfg.APIWindowSeconds) * time.Second,
				windows:  make(map[string]*window),
			},
		},
		now: time.Now,
	}
}

// Consume draws one point from the budget for key. It returns a
// TooManyRequests error once the budget is exhausted; the auth budget
// additionally blocks the key for a full window.
func (l *Limiter) Consume(kind Kind, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.budgets[kind]
	if !ok {
		return nil
	}

	now := l.now()
	w := b.windows[key]
	if w == nil {
		w = &window{windowStart: now}
		b.windows[key] = w
	}

	if now.Before(w.blockedUntil) {
		return tooManyRequests(w.blockedUntil.Sub(now))
	}

	if now.Sub(w.windowStart) >= b.duration {
		w.count = 0
		w.windowStart = now
		w.blockedUntil = time.Time{}
	}

	if w.count >= b.points {
		if kind == KindAuth {
			w.blockedUntil = now.Add(b.duration)
			return tooManyRequests(b.duration)
		}
		return tooManyRequests(b.duration - now.Sub(w.windowStart))
	}

	w.count++
	return nil
}

// Reset clears the auth budget for key. Invoked after any successful
// auth-sensitive operation so legitimate recovery is not penalized by
// earlier failed attempts.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.budgets[KindAuth].windows, key)
}

func tooManyRequests(retryAfter time.Duration) error {
	if retryAfter < 0 {
		retryAfter = 0
	}
	return apperrors.NewTooManyRequests(
		fmt.Sprintf("too many attempts, retry in %d seconds", int(retryAfter.Seconds())),
		map[string]any{"retry_after_seconds": int(retryAfter.Seconds())},
	)
}

package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"
)

const minSweepSize = 1024

// SessionRateLimiter throttles requests per session with one token bucket
// each. Full buckets are dropped once the map grows, a new one is identical.
type SessionRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	sweepAt  int
}

func NewSessionRateLimiter(perSecond float64, burst int) *SessionRateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &SessionRateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		sweepAt:  minSweepSize,
	}
}

func (l *SessionRateLimiter) limiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[key]
	if !ok {
		if len(l.limiters) >= l.sweepAt {
			l.sweep(time.Now())
		}
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = lim
	}
	return lim
}

func (l *SessionRateLimiter) Allow(sessionID string) bool {
	return l.limiter(sessionID).Allow()
}

func (l *SessionRateLimiter) sweep(now time.Time) {
	for key, lim := range l.limiters {
		if lim.TokensAt(now) >= float64(l.burst) {
			delete(l.limiters, key)
		}
	}
	l.sweepAt = max(2*len(l.limiters), minSweepSize)
}

// Size is the number of buckets currently kept.
func (l *SessionRateLimiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// Forget drops the bucket of a deleted session.
func (l *SessionRateLimiter) Forget(sessionID string) {
	l.mu.Lock()
	delete(l.limiters, sessionID)
	l.mu.Unlock()
}

// Limit rejects requests above the rate of the session in the URL with 429.
func (l *SessionRateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(chi.URLParam(r, "sessionID")) {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "too many score submissions, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}

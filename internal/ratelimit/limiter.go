// Package ratelimit implements per-submitter-client ingress rate limiting,
// protecting the single sink from being overwhelmed by a misbehaving
// producer.
package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// Limiter holds one token bucket per distinct client key, created lazily on
// first sight.
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

// New builds a Limiter allowing rps requests per second with the given
// burst, per client key.
func New(rps float64, burst int) *Limiter {
	return &Limiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

// Allow reports whether a request from key may proceed, consuming a token
// if so.
func (l *Limiter) Allow(key string) bool {
	return l.limiterFor(key).Allow()
}

func (l *Limiter) limiterFor(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.rps, l.burst)
		l.limiters[key] = lim
	}
	return lim
}

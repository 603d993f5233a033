// Package ratelimit keeps one token-bucket limiter per client key.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// maxKeys bounds memory. Once reached, idle buckets are dropped and, if none
// are idle, unseen keys are refused until some refill.
const maxKeys = 10_000

type Registry struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

// New returns a registry granting perSecond events per key with the given burst.
func New(perSecond float64, burst int) *Registry {
	if burst < 1 {
		burst = 1
	}
	return &Registry{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether key may proceed now and consumes one token if so.
func (r *Registry) Allow(key string) bool {
	l := r.get(key)
	return l != nil && l.Allow()
}

// get returns the limiter for key, or nil when the registry is full of active keys.
func (r *Registry) get(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.limiters[key]; ok {
		return l
	}
	if len(r.limiters) >= maxKeys {
		r.evictIdle(time.Now())
		if len(r.limiters) >= maxKeys {
			return nil
		}
	}
	l := rate.NewLimiter(r.limit, r.burst)
	r.limiters[key] = l
	return l
}

// evictIdle drops buckets that have refilled completely; a new bucket for the
// same key behaves identically.
func (r *Registry) evictIdle(now time.Time) {
	full := float64(r.burst)
	for key, l := range r.limiters {
		if l.TokensAt(now) >= full {
			delete(r.limiters, key)
		}
	}
}

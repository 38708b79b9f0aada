// Package ratelimit limits requests per client with one token bucket per
// client and endpoint tier.
package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Info contains information about rate limit status.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

type bucket struct {
	limiter    *rate.Limiter
	burst      int
	lastAccess time.Time
}

// Limiter manages rate limiting for multiple clients.
type Limiter struct {
	mu            sync.Mutex
	buckets       map[string]*bucket
	config        *Config
	cleanupTicker *time.Ticker
	cleanupStop   chan struct{}
	stopOnce      sync.Once
}

// NewLimiter creates a new rate limiter with the given configuration.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = NewConfig(true, 0, 0)
	}

	l := &Limiter{
		buckets: make(map[string]*bucket),
		config:  config,
	}

	if config.Enabled && config.CleanupInterval > 0 {
		l.cleanupTicker = time.NewTicker(config.CleanupInterval)
		l.cleanupStop = make(chan struct{})
		go l.cleanup()
	}
	return l
}

// Allow checks if a request from the given client is allowed for the specified endpoint.
func (l *Limiter) Allow(clientID, endpoint, method string) (bool, Info) {
	if !l.config.Enabled {
		return true, Info{Allowed: true}
	}

	key := clientID
	limit := rate.Limit(l.config.RPS)
	burst := l.config.Burst

	if ec := MatchEndpoint(endpoint, method, l.config.EndpointConfigs); ec != nil {
		if ec.Limit == 0 {
			return true, Info{Allowed: true}
		}
		key = clientID + "|" + ec.Method + " " + ec.Path
		limit = rate.Every(ec.Window / time.Duration(ec.Limit))
		burst = ec.Burst
		if burst <= 0 {
			burst = ec.Limit
		}
	}

	now := time.Now()
	b := l.getBucket(key, limit, burst, now)

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, Info{Limit: burst, ResetTime: now}
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, Info{
			Limit:      burst,
			Remaining:  0,
			ResetTime:  resetTime(b, now),
			RetryAfter: delay,
		}
	}

	return true, Info{
		Allowed:   true,
		Limit:     burst,
		Remaining: int(math.Max(0, math.Floor(b.limiter.TokensAt(now)))),
		ResetTime: resetTime(b, now),
	}
}

// resetTime is when the bucket will be full again.
func resetTime(b *bucket, now time.Time) time.Time {
	missing := float64(b.burst) - b.limiter.TokensAt(now)
	if missing <= 0 || b.limiter.Limit() <= 0 {
		return now
	}
	return now.Add(time.Duration(missing / float64(b.limiter.Limit()) * float64(time.Second)))
}

// getBucket gets or creates the bucket for key.
func (l *Limiter) getBucket(key string, limit rate.Limit, burst int, now time.Time) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(limit, burst), burst: burst}
		l.buckets[key] = b
	}
	b.lastAccess = now
	return b
}

// cleanup removes old unused buckets to prevent memory leaks.
func (l *Limiter) cleanup() {
	for {
		select {
		case <-l.cleanupTicker.C:
			l.cleanupBuckets(time.Now())
		case <-l.cleanupStop:
			return
		}
	}
}

// cleanupBuckets removes buckets idle since before now-IdleTimeout.
func (l *Limiter) cleanupBuckets(now time.Time) {
	cutoff := now.Add(-l.config.IdleTimeout)

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		if b.lastAccess.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// size returns the number of live buckets.
func (l *Limiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Stop stops the cleanup goroutine.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() {
		if l.cleanupTicker != nil {
			l.cleanupTicker.Stop()
		}
		if l.cleanupStop != nil {
			close(l.cleanupStop)
		}
	})
}

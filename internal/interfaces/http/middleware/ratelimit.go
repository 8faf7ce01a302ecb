package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/relayops/leadtrack/pkg/errors"
)

// RateLimiter answers whether a keyed request may proceed.
type RateLimiter interface {
	Allow(key string) (bool, RateLimitInfo)
}

// RateLimitInfo is the limiter state exposed in response headers.
type RateLimitInfo struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RateLimitConfig tunes the rate limit middleware.
type RateLimitConfig struct {
	// KeyFunc extracts the limit key from a request. Nil keys on client IP.
	KeyFunc func(r *http.Request) string

	// SkipPaths bypass limiting entirely.
	SkipPaths []string
}

// DefaultRateLimitConfig keys on client IP and exempts the probe endpoints.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		SkipPaths: []string{"/healthz", "/readyz", "/metrics"},
	}
}

// clientIP prefers proxy headers over the socket address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i > 0 {
			return strings.TrimSpace(xff[:i])
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}

type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
}

// TokenBucketLimiter is an in-memory per-key token bucket. Buckets refill at
// the sustained rate up to the burst size; idle buckets are dropped by a
// background sweep so the map does not grow with every client ever seen.
type TokenBucketLimiter struct {
	rate  float64
	burst int

	mu      sync.RWMutex
	buckets map[string]*tokenBucket

	sweepInterval time.Duration
	stop          chan struct{}
	stopOnce      sync.Once
}

// NewTokenBucketLimiter builds a limiter with the given sustained rate in
// requests per second. A non-positive sweep interval disables cleanup.
func NewTokenBucketLimiter(ratePerSecond float64, burst int, sweepInterval time.Duration) *TokenBucketLimiter {
	l := &TokenBucketLimiter{
		rate:          ratePerSecond,
		burst:         burst,
		buckets:       make(map[string]*tokenBucket),
		sweepInterval: sweepInterval,
		stop:          make(chan struct{}),
	}
	if sweepInterval > 0 {
		go l.sweepLoop()
	}
	return l
}

func (l *TokenBucketLimiter) Allow(key string) (bool, RateLimitInfo) {
	now := time.Now()

	l.mu.RLock()
	b, ok := l.buckets[key]
	l.mu.RUnlock()
	if !ok {
		l.mu.Lock()
		b, ok = l.buckets[key]
		if !ok {
			b = &tokenBucket{tokens: float64(l.burst), lastRefill: now}
			l.buckets[key] = b
		}
		l.mu.Unlock()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens += now.Sub(b.lastRefill).Seconds() * l.rate
	if b.tokens > float64(l.burst) {
		b.tokens = float64(l.burst)
	}
	b.lastRefill = now

	info := RateLimitInfo{
		Limit:   l.burst,
		ResetAt: now.Add(time.Duration(float64(time.Second) / l.rate)),
	}
	if b.tokens >= 1 {
		b.tokens--
		info.Remaining = int(b.tokens)
		return true, info
	}
	return false, info
}

// Stop ends the background sweep.
func (l *TokenBucketLimiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

// BucketCount reports the number of tracked keys.
func (l *TokenBucketLimiter) BucketCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.buckets)
}

func (l *TokenBucketLimiter) sweepLoop() {
	ticker := time.NewTicker(l.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.sweep()
		case <-l.stop:
			return
		}
	}
}

// sweep drops buckets that have sat full for a whole interval.
func (l *TokenBucketLimiter) sweep() {
	threshold := time.Now().Add(-l.sweepInterval)

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		b.mu.Lock()
		idle := b.lastRefill.Before(threshold) && b.tokens >= float64(l.burst)-1
		b.mu.Unlock()
		if idle {
			delete(l.buckets, key)
		}
	}
}

// RateLimit rejects over-limit requests with 429 and the standard
// X-RateLimit headers.
func RateLimit(limiter RateLimiter, cfg RateLimitConfig) func(http.Handler) http.Handler {
	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}
	keyFunc := cfg.KeyFunc
	if keyFunc == nil {
		keyFunc = clientIP
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			allowed, info := limiter.Allow(keyFunc(r))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetAt.Unix(), 10))

			if !allowed {
				retryAfter := int(time.Until(info.ResetAt).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"code":"` + string(errors.ErrCodeTooManyRequests) + `","message":"rate limit exceeded"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

package limiter

import (
	"sync"
	"time"
)

// Limiter decides whether a caller of the lookup API may proceed.
// It throttles inbound requests per client; it does not track the upstream quota.
type Limiter interface {
	// Allow reports whether a request from client may proceed
	Allow(client string) bool

	// Close cleans up any resources (Redis connections, etc.)
	Close() error
}

// idleTTL is how long an untouched bucket is kept before being swept
const idleTTL = 5 * time.Minute

// tokenBucket allows bursts up to capacity while holding an average rate
type tokenBucket struct {
	mu       sync.Mutex
	tokens   float64
	capacity float64
	rate     float64 // tokens per second
	last     time.Time
}

func newTokenBucket(rate float64, now time.Time) *tokenBucket {
	// Fractional rates (e.g. 0.2/s) still need room for one request
	capacity := max(rate, 1.0)
	return &tokenBucket{
		tokens:   capacity,
		capacity: capacity,
		rate:     rate,
		last:     now,
	}
}

// take refills by elapsed time and consumes one token if available
func (b *tokenBucket) take(now time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	elapsed := now.Sub(b.last).Seconds()
	if elapsed > 0 {
		b.tokens = min(b.tokens+elapsed*b.rate, b.capacity)
		b.last = now
	}

	if b.tokens < 1.0 {
		return false
	}
	b.tokens--
	return true
}

func (b *tokenBucket) idleSince() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last
}

// MemoryLimiter keeps one token bucket per client in process memory.
// Suitable for a single instance.
type MemoryLimiter struct {
	buckets sync.Map // client -> *tokenBucket
	rate    float64
	now     func() time.Time

	sweepMu   sync.Mutex
	lastSweep time.Time
}

// NewMemoryLimiter creates an in-memory limiter allowing requestsPerSecond
// per client (fractional rates such as 0.2 are fine)
func NewMemoryLimiter(requestsPerSecond float64) *MemoryLimiter {
	return newMemoryLimiter(requestsPerSecond, time.Now)
}

func newMemoryLimiter(requestsPerSecond float64, now func() time.Time) *MemoryLimiter {
	return &MemoryLimiter{
		rate:      requestsPerSecond,
		now:       now,
		lastSweep: now(),
	}
}

// Allow implements Limiter
func (l *MemoryLimiter) Allow(client string) bool {
	now := l.now()

	bucket, ok := l.buckets.Load(client)
	if !ok {
		bucket, _ = l.buckets.LoadOrStore(client, newTokenBucket(l.rate, now))
	}
	allowed := bucket.(*tokenBucket).take(now)

	l.sweep(now)
	return allowed
}

// sweep drops buckets idle for longer than idleTTL, at most once per idleTTL
func (l *MemoryLimiter) sweep(now time.Time) {
	l.sweepMu.Lock()
	defer l.sweepMu.Unlock()

	if now.Sub(l.lastSweep) < idleTTL {
		return
	}

	threshold := now.Add(-idleTTL)
	l.buckets.Range(func(key, value interface{}) bool {
		if value.(*tokenBucket).idleSince().Before(threshold) {
			l.buckets.Delete(key)
		}
		return true
	})
	l.lastSweep = now
}

// Close implements Limiter; there is nothing to release
func (l *MemoryLimiter) Close() error {
	return nil
}

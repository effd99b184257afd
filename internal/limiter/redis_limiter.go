package limiter

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrWithExpiry increments the window counter and sets its TTL on first use.
// KEYS[1] = window key, ARGV[1] = TTL in seconds
var incrWithExpiry = redis.NewScript(`
	local current = redis.call('INCR', KEYS[1])
	if current == 1 then
		redis.call('EXPIRE', KEYS[1], ARGV[1])
	end
	return current
`)

// RedisLimiter shares a fixed-window counter per client across instances.
// Key format: ratelimit:<client>:<window number>
type RedisLimiter struct {
	client *redis.Client
	ctx    context.Context
	window time.Duration
	limit  int64 // requests allowed per window
	now    func() time.Time
}

// NewRedisLimiter connects to Redis and creates a limiter allowing
// requestsPerSecond per client
func NewRedisLimiter(addr, password string, db int, requestsPerSecond float64) (*RedisLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis for rate limiting: %w", err)
	}

	// Fractional rates get a longer window: 0.2 req/s -> 1 request per 5s
	window := time.Second
	if requestsPerSecond > 0 && requestsPerSecond < 1.0 {
		window = time.Duration(float64(time.Second) / requestsPerSecond)
	}

	return &RedisLimiter{
		client: client,
		ctx:    ctx,
		window: window,
		limit:  int64(math.Ceil(requestsPerSecond * window.Seconds())),
		now:    time.Now,
	}, nil
}

// Allow implements Limiter. Redis errors fail open so an outage of the
// limiter backend does not take the lookup API down with it.
func (l *RedisLimiter) Allow(client string) bool {
	// Windows are not whole seconds for fractional rates (0.4 req/s -> 2.5s)
	key := fmt.Sprintf("ratelimit:%s:%d", client, l.now().UnixNano()/l.window.Nanoseconds())
	ttl := int64(math.Ceil(2 * l.window.Seconds()))

	count, err := incrWithExpiry.Run(l.ctx, l.client, []string{key}, ttl).Int64()
	if err != nil {
		return true
	}
	return count <= l.limit
}

// Close closes the Redis connection
func (l *RedisLimiter) Close() error {
	if l.client != nil {
		return l.client.Close()
	}
	return nil
}

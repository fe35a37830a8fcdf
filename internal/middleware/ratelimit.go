package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/AnshRaj112/mindsoothe-backend/pkg/clientip"
)

const (
	// RateLimitWindow is 120 seconds
	RateLimitWindow = 120 * time.Second
	// DefaultRateLimitMaxRequests is the number of requests allowed per window
	DefaultRateLimitMaxRequests = 25
	// RateLimitKeyPrefix is the Redis key prefix for rate limiting
	RateLimitKeyPrefix = "ratelimit:"
	// BlockedIPKeyPrefix is the Redis key prefix for blocked IPs
	BlockedIPKeyPrefix = "blocked_ip:"
	// BlockedIPDuration is how long an IP stays blocked
	BlockedIPDuration = 15 * time.Minute

	redisLimiterTimeout = 500 * time.Millisecond
)

// RedisRateLimiter counts requests per anonymised client IP in a fixed
// window shared by all instances. Exceeding the limit blocks the client for
// BlockedIPDuration. Redis failures let the request through.
type RedisRateLimiter struct {
	client      *redis.Client
	maxRequests int
	logger      *zap.Logger
}

func NewRedisRateLimiter(client *redis.Client, maxRequests int, logger *zap.Logger) *RedisRateLimiter {
	if maxRequests <= 0 {
		maxRequests = DefaultRateLimitMaxRequests
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisRateLimiter{client: client, maxRequests: maxRequests, logger: logger}
}

func (l *RedisRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l == nil || l.client == nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), redisLimiterTimeout)
		defer cancel()

		key := clientip.AnonymizedKey(clientip.RealClientIP(r))
		blockedKey := BlockedIPKeyPrefix + key

		blocked, err := l.client.Exists(ctx, blockedKey).Result()
		if err == nil && blocked > 0 {
			writeTooManyRequests(w, "Too many requests. Please try again later.", BlockedIPDuration)
			return
		}

		rateLimitKey := RateLimitKeyPrefix + key
		pipe := l.client.Pipeline()
		incr := pipe.Incr(ctx, rateLimitKey)
		ttl := pipe.TTL(ctx, rateLimitKey)
		if _, err := pipe.Exec(ctx); err != nil {
			// If Redis fails, allow the request (fail open)
			l.logger.Warn("rate limiter unavailable", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}
		n := incr.Val()
		if ttl.Val() < 0 {
			// New window, or a counter whose expiry was never set.
			if err := l.client.Expire(ctx, rateLimitKey, RateLimitWindow).Err(); err != nil {
				l.logger.Warn("failed to set rate limit window", zap.Error(err))
			}
		}

		count := int(n)
		if count > l.maxRequests {
			if err := l.client.Set(ctx, blockedKey, "1", BlockedIPDuration).Err(); err != nil {
				l.logger.Warn("failed to block client", zap.Error(err))
			}
			writeTooManyRequests(w, "Rate limit exceeded. Please try again later.", RateLimitWindow)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.maxRequests))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(l.maxRequests-count))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(RateLimitWindow).Unix(), 10))

		next.ServeHTTP(w, r)
	})
}

func writeTooManyRequests(w http.ResponseWriter, message string, retryAfter time.Duration) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
	w.WriteHeader(http.StatusTooManyRequests)
	w.Write([]byte(`{"error":"` + message + `"}`))
}

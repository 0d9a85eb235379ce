package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"hrpayroll/internal/transport/http/api"
)

// Limiter counts hits per key in fixed windows.
type Limiter interface {
	Hit(ctx context.Context, key string) (count int, resetIn time.Duration, err error)
}

type rateBucket struct {
	count int
	reset time.Time
}

type MemoryLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	clients map[string]*rateBucket
	now     func() time.Time
}

func NewMemoryLimiter(window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{window: window, clients: map[string]*rateBucket{}, now: time.Now}
}

func (l *MemoryLimiter) Hit(_ context.Context, key string) (int, time.Duration, error) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	bucket, ok := l.clients[key]
	if !ok || now.After(bucket.reset) {
		bucket = &rateBucket{reset: now.Add(l.window)}
		l.clients[key] = bucket
	}
	bucket.count++
	return bucket.count, bucket.reset.Sub(now), nil
}

// RedisLimiter shares windows across instances with INCR and EXPIRE NX.
type RedisLimiter struct {
	client redis.UniversalClient
	window time.Duration
}

func NewRedisLimiter(client redis.UniversalClient, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, window: window}
}

func (l *RedisLimiter) Hit(ctx context.Context, key string) (int, time.Duration, error) {
	redisKey := "hrpayroll:ratelimit:" + key
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, l.window)
	ttl := pipe.PTTL(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}
	return int(incr.Val()), ttl.Val(), nil
}

// RateLimit throttles writes per actor, or per client IP without one. A
// limiter error lets the request through.
func RateLimit(limit int, limiter Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit <= 0 || r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}
			key := actorOrIPKey(r)
			count, resetIn, err := limiter.Hit(r.Context(), key)
			if err != nil {
				slog.Warn("rate limiter unavailable", "err", err)
				next.ServeHTTP(w, r)
				return
			}
			resetSec := durationSeconds(resetIn)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(limit-count, 0)))
			w.Header().Set("X-RateLimit-Reset", strconv.Itoa(resetSec))
			if count > limit {
				w.Header().Set("Retry-After", strconv.Itoa(max(resetSec, 1)))
				slog.Warn("rate limit exceeded", "key", key, "path", r.URL.Path, "method", r.Method, "limit", limit)
				api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func actorOrIPKey(r *http.Request) string {
	if actorID := GetActorID(r.Context()); actorID != "" {
		return "actor:" + actorID
	}
	return "ip:" + clientIPKey(r)
}

func clientIPKey(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		if value := strings.TrimSpace(strings.Split(fwd, ",")[0]); value != "" {
			return value
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}

func durationSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	seconds := int(d.Seconds())
	if seconds <= 0 {
		return 1
	}
	return seconds
}

package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"portfolio_api/internal/common"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const rateLimitMessage = "Too many requests from this IP, please try again later."

// RateDecision is the outcome of one limiter check.
type RateDecision struct {
	Allowed   bool
	Count     int
	WindowEnd time.Time
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) RateDecision
}

// RedisRateLimiter is a fixed-window counter: INCR on every hit, and EXPIRE
// whenever the key has no TTL, so a failed EXPIRE is retried on the next hit.
// Redis failures let the request through.
type RedisRateLimiter struct {
	rdb     redis.Cmdable
	log     *slog.Logger
	prefix  string
	timeout time.Duration
}

func NewRedisRateLimiter(rdb redis.Cmdable, log *slog.Logger) *RedisRateLimiter {
	if log == nil {
		log = slog.Default()
	}
	return &RedisRateLimiter{
		rdb:     rdb,
		log:     log,
		prefix:  "portfolio:ratelimit:",
		timeout: 250 * time.Millisecond,
	}
}

func (rl *RedisRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) RateDecision {
	if limit <= 0 {
		return RateDecision{Allowed: true}
	}
	if window <= 0 {
		window = time.Minute
	}
	ctx, cancel := context.WithTimeout(ctx, rl.timeout)
	defer cancel()

	redisKey := rl.prefix + key
	counter, err := rl.rdb.Incr(ctx, redisKey).Result()
	if err != nil {
		rl.log.Error("redis rate limiter error", "op", "incr", "error", err)
		return RateDecision{Allowed: true}
	}
	ttl, err := rl.rdb.TTL(ctx, redisKey).Result()
	switch {
	case err != nil:
		rl.log.Error("redis rate limiter error", "op", "ttl", "error", err)
		ttl = window
	case ttl < 0:
		// -1: the counter has no expiry yet
		if err := rl.rdb.Expire(ctx, redisKey, window).Err(); err != nil {
			rl.log.Error("redis rate limiter error", "op", "expire", "error", err)
		}
		ttl = window
	case ttl == 0:
		ttl = window
	}
	return RateDecision{
		Allowed:   int(counter) <= limit,
		Count:     int(counter),
		WindowEnd: time.Now().Add(ttl),
	}
}

// RateLimit builds per-scope limiting middleware keyed by client IP.
type RateLimit struct {
	limiter RateLimiter
	window  time.Duration
	hits    *prometheus.CounterVec
}

func NewRateLimit(limiter RateLimiter, window time.Duration, reg prometheus.Registerer) *RateLimit {
	hits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "portfolio",
		Subsystem: "http",
		Name:      "rate_limit_hits_total",
		Help:      "Requests rejected by the rate limiter",
	}, []string{"scope"})
	if reg != nil {
		reg.MustRegister(hits)
	}
	return &RateLimit{limiter: limiter, window: window, hits: hits}
}

// Limit allows at most limit requests per client IP and window under scope.
// A nil limiter or non-positive limit disables the check.
func (rl *RateLimit) Limit(scope string, limit int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rl == nil || rl.limiter == nil || limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			key := scope + ":" + clientIP(r)
			decision := rl.limiter.Allow(r.Context(), key, limit, rl.window)
			applyRateHeaders(w, limit, decision)
			if !decision.Allowed {
				rl.hits.WithLabelValues(scope).Inc()
				common.RespondWithError(w, http.StatusTooManyRequests, rateLimitMessage)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func applyRateHeaders(w http.ResponseWriter, limit int, d RateDecision) {
	remaining := limit - d.Count
	if remaining < 0 {
		remaining = 0
	}
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	if !d.WindowEnd.IsZero() {
		h.Set("X-RateLimit-Reset", strconv.FormatInt(d.WindowEnd.Unix(), 10))
		if !d.Allowed {
			retry := int(time.Until(d.WindowEnd).Seconds())
			if retry < 1 {
				retry = 1
			}
			h.Set("Retry-After", strconv.Itoa(retry))
		}
	}
}

// clientIP relies on chi's RealIP having rewritten RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		host = "unknown"
	}
	return host
}

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter provides per-IP sliding-window rate limiting backed by Redis sorted sets.
type RateLimiter struct {
	client    redis.Cmdable
	scope     string
	maxReqs   int
	windowSec int
}

// NewRateLimiter creates a rate limiter that allows maxReqs per windowSec
// seconds per client IP. scope namespaces the Redis keys (e.g. "chat").
func NewRateLimiter(client redis.Cmdable, scope string, maxReqs, windowSec int) *RateLimiter {
	return &RateLimiter{client: client, scope: scope, maxReqs: maxReqs, windowSec: windowSec}
}

// Middleware returns an HTTP middleware that enforces the rate limit.
// On Redis errors it fails open (allows the request through).
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		key := "ratelimit:" + rl.scope + ":" + ip

		allowed, err := rl.allow(r.Context(), key)
		if err != nil {
			slog.Warn("rate limiter: redis error, failing open", "error", err, "ip", ip, "scope", rl.scope)
			next.ServeHTTP(w, r)
			return
		}

		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(rl.windowSec))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"too many requests, please slow down"}`))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(ctx context.Context, key string) (bool, error) {
	now := time.Now()
	windowStart := float64(now.Add(-time.Duration(rl.windowSec) * time.Second).UnixMilli())
	member := fmt.Sprintf("%d", now.UnixNano())
	score := float64(now.UnixMilli())

	pipe := rl.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("%f", windowStart))
	countCmd := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{Score: score, Member: member})
	pipe.Expire(ctx, key, time.Duration(rl.windowSec)*time.Second+time.Second)

	_, err := pipe.Exec(ctx)
	if err != nil {
		return false, err
	}

	return countCmd.Val() < int64(rl.maxReqs), nil
}

func clientIP(r *http.Request) string {
	// X-Forwarded-For is set by the trusted reverse proxy; the first hop is the client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

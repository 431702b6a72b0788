// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/carterperez-dev/templates/qa-backend/internal/config"
	"github.com/carterperez-dev/templates/qa-backend/internal/core"
)

// RateLimitConfig describes one budget. Name namespaces the redis keys so
// budgets that key on the same client never share a bucket.
type RateLimitConfig struct {
	Name     string
	Limit    redis_rate.Limit
	KeyFunc  func(*http.Request) string
	FailOpen bool
	Bypass   func(*http.Request) bool
}

// RateLimiter enforces a GCRA budget in redis and falls back to an
// in-process token bucket while redis is unreachable.
type RateLimiter struct {
	limiter  *redis_rate.Limiter
	fallback *localLimiter
	config   RateLimitConfig
}

func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}

	return &RateLimiter{
		limiter:  redis_rate.NewLimiter(rdb),
		fallback: newLocalLimiter(),
		config:   cfg,
	}
}

func (rl *RateLimiter) key(r *http.Request) string {
	return "ratelimit:" + rl.config.Name + ":" + rl.config.KeyFunc(r)
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.config.Bypass != nil && rl.config.Bypass(r) {
			next.ServeHTTP(w, r)
			return
		}

		key := rl.key(r)
		res, err := rl.allow(r.Context(), key)
		if err != nil {
			if rl.config.FailOpen {
				slog.WarnContext(r.Context(), "rate limiter error, failing open",
					"limiter", rl.config.Name,
					"key", key,
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}
			core.JSONError(w, core.NewAppError(
				err,
				"rate limiter unavailable",
				http.StatusServiceUnavailable,
				"UNAVAILABLE",
			))
			return
		}

		setRateLimitHeaders(w, res, rl.config.Limit)

		if res.Allowed == 0 {
			writeRateLimitExceeded(w, res)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(
	ctx context.Context,
	key string,
) (*redis_rate.Result, error) {
	res, err := rl.limiter.Allow(ctx, key, rl.config.Limit)
	if err != nil {
		return rl.fallback.allow(key, rl.config.Limit)
	}
	return res, nil
}

// KeyByIP uses the last X-Forwarded-For hop, the one appended by our own
// proxy, then X-Real-IP, then the socket address.
func KeyByIP(r *http.Request) string {
	return "ip:" + clientIP(r)
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		if ip := strings.TrimSpace(hops[len(hops)-1]); ip != "" {
			return ip
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// KeyByUser buckets signed in callers by account so voting from several
// devices shares one budget.
func KeyByUser(r *http.Request) string {
	if userID := GetUserID(r.Context()); userID != "" {
		return "user:" + userID
	}
	return KeyByIP(r)
}

func KeyByIPAndEndpoint(r *http.Request) string {
	return KeyByIP(r) + ":" + r.Method + ":" + normalizeEndpoint(r.URL.Path)
}

// normalizeEndpoint collapses ids so /questions/<uuid>/upvote and
// /answers/<n>/comment share a bucket per route rather than per resource.
func normalizeEndpoint(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, part := range parts {
		if isUUID(part) || isNumeric(part) {
			parts[i] = "{id}"
		}
	}
	return "/" + strings.Join(parts, "/")
}

func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	return s[8] == '-' && s[13] == '-' && s[18] == '-' && s[23] == '-'
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}

func setRateLimitHeaders(
	w http.ResponseWriter,
	res *redis_rate.Result,
	limit redis_rate.Limit,
) {
	h := w.Header()

	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(
		time.Now().Add(res.ResetAfter).Unix(), 10))
	h.Set("RateLimit-Policy", fmt.Sprintf(`%d;w=%d`, limit.Rate, int(limit.Period.Seconds())))
	h.Set("RateLimit", fmt.Sprintf(`%d;t=%d`, res.Remaining, int(res.ResetAfter.Seconds())))
}

func writeRateLimitExceeded(w http.ResponseWriter, res *redis_rate.Result) {
	retryAfter := max(int(res.RetryAfter.Seconds()), 1)

	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	core.JSONError(w, core.NewAppError(
		nil,
		fmt.Sprintf("rate limit exceeded, retry after %d seconds", retryAfter),
		http.StatusTooManyRequests,
		"RATE_LIMITED",
	))
}

const (
	cleanupInterval = 5 * time.Minute
	entryTTL        = 10 * time.Minute
)

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess atomic.Int64
}

// localLimiter is the per-process stand-in used while redis is down. Its
// budgets are per instance, so a fleet lets through more than the limit.
type localLimiter struct {
	limiters sync.Map
}

func newLocalLimiter() *localLimiter {
	l := &localLimiter{}
	go l.cleanup()
	return l
}

func (l *localLimiter) cleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		cutoff := time.Now().Add(-entryTTL).Unix()
		l.limiters.Range(func(key, value any) bool {
			if entry, ok := value.(*limiterEntry); ok && entry.lastAccess.Load() < cutoff {
				l.limiters.Delete(key)
			}
			return true
		})
	}
}

func (l *localLimiter) allow(
	key string,
	limit redis_rate.Limit,
) (*redis_rate.Result, error) {
	perSecond := float64(limit.Rate) / limit.Period.Seconds()
	interval := time.Duration(float64(time.Second) / perSecond)

	value, ok := l.limiters.Load(key)
	if !ok {
		value, _ = l.limiters.LoadOrStore(key, &limiterEntry{
			limiter: rate.NewLimiter(rate.Limit(perSecond), limit.Burst),
		})
	}
	entry, ok := value.(*limiterEntry)
	if !ok {
		return nil, fmt.Errorf("invalid limiter entry for %s", key)
	}
	entry.lastAccess.Store(time.Now().Unix())

	res := &redis_rate.Result{
		Limit:      limit,
		Remaining:  max(int(entry.limiter.Tokens()), 0),
		RetryAfter: -1,
		ResetAfter: interval,
	}
	if entry.limiter.Allow() {
		res.Allowed = 1
		res.Remaining = max(int(entry.limiter.Tokens()), 0)
	} else {
		res.RetryAfter = interval
	}
	return res, nil
}

// Limits bundles the limiters mounted on the router: a global per-IP
// budget, a stricter per-IP budget on credential endpoints and a per-user
// budget on vote endpoints.
type Limits struct {
	Global      *RateLimiter
	Credentials *RateLimiter
	Votes       *RateLimiter
}

func NewLimits(rdb *redis.Client, cfg config.RateLimitConfig) *Limits {
	perWindow := func(n int) redis_rate.Limit {
		return redis_rate.Limit{Rate: n, Burst: min(cfg.Burst, n), Period: cfg.Window}
	}

	return &Limits{
		Global: NewRateLimiter(rdb, RateLimitConfig{
			Name:     "global",
			Limit:    perWindow(cfg.Requests),
			KeyFunc:  KeyByIP,
			FailOpen: true,
			Bypass: func(r *http.Request) bool {
				return r.Method == http.MethodOptions
			},
		}),
		Credentials: NewRateLimiter(rdb, RateLimitConfig{
			Name:     "credentials",
			Limit:    perWindow(cfg.AuthRequests),
			KeyFunc:  KeyByIPAndEndpoint,
			FailOpen: true,
		}),
		Votes: NewRateLimiter(rdb, RateLimitConfig{
			Name:     "votes",
			Limit:    perWindow(cfg.VoteRequests),
			KeyFunc:  KeyByUser,
			FailOpen: true,
		}),
	}
}

package middleware

import (
    "context"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/iliyamo/prompt-library/internal/config"
)

// takeToken refills the bucket stored at KEYS[1] and spends one token.
// ARGV: now_ms, capacity, refill, interval_ms, ttl_s.
// Returns {allowed, remaining, wait_ms}.
var takeToken = redis.NewScript(`
local cap, refill, step = tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4])
local now = tonumber(ARGV[1])
local b = redis.call('HMGET', KEYS[1], 'tokens', 'at')
local tokens, at = tonumber(b[1]) or cap, tonumber(b[2]) or now
local n = math.floor(math.max(0, now - at) / step)
if n > 0 then
  tokens = math.min(cap, tokens + n * refill)
  at = at + n * step
end
local ok, wait = 0, 0
if tokens >= 1 then
  ok, tokens = 1, tokens - 1
else
  wait = math.max(0, step - (now - at))
end
redis.call('HSET', KEYS[1], 'tokens', tokens, 'at', at)
redis.call('EXPIRE', KEYS[1], ARGV[5])
return {ok, tokens, wait}
`)

// bucketVerdict is the outcome of one takeToken call.
type bucketVerdict struct {
    Allowed   bool
    Remaining int64
    Wait      time.Duration
}

// retryAfter rounds Wait up to whole seconds for the Retry-After header.
func (v bucketVerdict) retryAfter() int {
    return int((v.Wait + time.Second - 1) / time.Second)
}

func take(ctx context.Context, rdb *redis.Client, cfg config.RateLimitConfig, key string) (bucketVerdict, error) {
    vals, err := takeToken.Run(ctx, rdb, []string{key},
        time.Now().UnixMilli(),
        cfg.Capacity,
        cfg.RefillTokens,
        cfg.RefillInterval.Milliseconds(),
        int64(cfg.TTL/time.Second),
    ).Int64Slice()
    if err != nil {
        return bucketVerdict{}, err
    }
    if len(vals) != 3 {
        return bucketVerdict{}, redis.Nil
    }
    return bucketVerdict{
        Allowed:   vals[0] == 1,
        Remaining: vals[1],
        Wait:      time.Duration(vals[2]) * time.Millisecond,
    }, nil
}

// NewTokenBucket throttles the credential endpoints.  Redis errors fail
// open so an unhealthy cache never locks users out.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(cfg, c)
            v, err := take(c.Request().Context(), rdb, cfg, key)
            if err != nil {
                if cfg.Debug {
                    log.Warn("rate limit unavailable", zap.String("key", key), zap.Error(err))
                }
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(v.Remaining, 10))
            if v.Allowed {
                return next(c)
            }

            secs := v.retryAfter()
            h.Set("Retry-After", strconv.Itoa(secs))
            if cfg.Debug {
                log.Info("rate limited", zap.String("key", key), zap.Duration("wait", v.Wait))
            }
            return c.JSON(http.StatusTooManyRequests, echo.Map{
                "error":       "too many requests",
                "retry_after": secs,
            })
        }
    }
}

// buildRateKey composes the bucket key from the parts KeyStrategy names,
// in the fixed order ip, user, route.  Unknown strategies use all three.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    strategy := strings.ToLower(cfg.KeyStrategy)
    var useIP, useUser, useRoute bool
    switch strategy {
    case "ip", "user", "route", "ip_user", "ip_route", "user_route":
        for _, p := range strings.Split(strategy, "_") {
            useIP = useIP || p == "ip"
            useUser = useUser || p == "user"
            useRoute = useRoute || p == "route"
        }
    default:
        useIP, useUser, useRoute = true, true, true
    }

    parts := []string{cfg.Prefix}
    if useIP {
        ip := c.RealIP()
        if ip == "" {
            ip = "unknown"
        }
        parts = append(parts, "ip", ip)
    }
    if useUser {
        parts = append(parts, "user", userID(c))
    }
    if useRoute {
        parts = append(parts, "route", c.Request().Method+" "+c.Path())
    }
    return strings.Join(parts, ":")
}

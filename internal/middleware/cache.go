package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/hex"
    "encoding/json"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/iliyamo/prompt-library/internal/config"
)

// cachedResponse is what a cache entry holds.  Only Content-Type is kept
// from the original headers.
type cachedResponse struct {
    Status      int    `json:"s"`
    ContentType string `json:"t,omitempty"`
    Body        []byte `json:"b"`
}

func parseCachedResponse(bs []byte) (cachedResponse, bool) {
    var cr cachedResponse
    if err := json.Unmarshal(bs, &cr); err != nil || cr.Status == 0 {
        return cachedResponse{}, false
    }
    return cr, true
}

func (cr cachedResponse) replay(c echo.Context) error {
    h := c.Response().Header()
    if cr.ContentType != "" {
        h.Set(echo.HeaderContentType, cr.ContentType)
    }
    h.Set("X-Cache", "HIT")
    c.Response().WriteHeader(cr.Status)
    _, err := c.Response().Write(cr.Body)
    return err
}

// bodyRecorder tees the response to the client and keeps a copy of up to
// limit bytes.  limit <= 0 means unbounded.
type bodyRecorder struct {
    http.ResponseWriter
    status   int
    buf      bytes.Buffer
    limit    int
    overflow bool
}

func (br *bodyRecorder) WriteHeader(code int) {
    br.status = code
    br.ResponseWriter.WriteHeader(code)
}

func (br *bodyRecorder) Write(b []byte) (int, error) {
    if !br.overflow {
        if br.limit > 0 && br.buf.Len()+len(b) > br.limit {
            br.overflow = true
            br.buf.Reset()
        } else {
            br.buf.Write(b)
        }
    }
    return br.ResponseWriter.Write(b)
}

// cacheKeyFrom hashes the request identity selected by KeyStrategy.  The
// concrete URL path is used, not the route pattern, so
// /prompts/category/A and /prompts/category/B never share an entry.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context) string {
    r := c.Request()
    strategy := strings.ToLower(cfg.KeyStrategy)
    if strategy == "" {
        strategy = "path_query"
    }

    var id []string
    if strings.HasPrefix(strategy, "method_") {
        id = append(id, "method", r.Method)
    }
    id = append(id, "path", r.URL.Path)
    if strings.HasSuffix(strategy, "_query") {
        id = append(id, "q", r.URL.RawQuery)
    }
    sum := sha1.Sum([]byte(strings.Join(id, ":")))
    return cfg.Prefix + ":" + hex.EncodeToString(sum[:])
}

// NewRedisCache caches successful public catalog reads.  Only routes whose
// response does not depend on the caller may use it.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    ttl := cfg.TTL
    if ttl <= 0 {
        ttl = 5 * time.Minute
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
                return next(c)
            }
            ctx := c.Request().Context()
            key := cacheKeyFrom(cfg, c)

            if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
                if cr, ok := parseCachedResponse(bs); ok {
                    return cr.replay(c)
                }
            }

            rec := &bodyRecorder{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
            c.Response().Writer = rec
            c.Response().Header().Set("X-Cache", "MISS")

            if err := next(c); err != nil {
                return err
            }
            if rec.status != http.StatusOK || rec.overflow {
                return nil
            }
            payload, err := json.Marshal(cachedResponse{
                Status:      rec.status,
                ContentType: c.Response().Header().Get(echo.HeaderContentType),
                Body:        rec.buf.Bytes(),
            })
            if err == nil {
                _ = rdb.SetEx(context.WithoutCancel(ctx), key, payload, ttl).Err()
            }
            return nil
        }
    }
}

// CacheInvalidator drops every cached catalog response after a write.
type CacheInvalidator struct {
    rdb    *redis.Client
    prefix string
    log    *zap.Logger
}

func NewCacheInvalidator(cfg config.CacheConfig, rdb *redis.Client, log *zap.Logger) *CacheInvalidator {
    return &CacheInvalidator{rdb: rdb, prefix: cfg.Prefix, log: log}
}

// Invalidate deletes keys under the cache prefix in SCAN-sized batches.
// Failures are logged; entries then age out by TTL.
func (ci *CacheInvalidator) Invalidate(ctx context.Context) {
    if ci == nil || ci.rdb == nil {
        return
    }
    var (
        cursor  uint64
        removed int
    )
    for {
        keys, next, err := ci.rdb.Scan(ctx, cursor, ci.prefix+":*", 100).Result()
        if err != nil {
            ci.log.Warn("scan cache keys", zap.Error(err))
            return
        }
        if len(keys) > 0 {
            if err := ci.rdb.Del(ctx, keys...).Err(); err != nil {
                ci.log.Warn("delete cache keys", zap.Error(err), zap.Int("keys", len(keys)))
                return
            }
            removed += len(keys)
        }
        if next == 0 {
            break
        }
        cursor = next
    }
    ci.log.Debug("catalog cache invalidated", zap.Int("keys", removed))
}

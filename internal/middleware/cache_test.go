package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/prompt-library/internal/config"
)

func keyFor(t *testing.T, cfg config.CacheConfig, method, target string) string {
	t.Helper()
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(method, target, nil), httptest.NewRecorder())
	c.SetPath("/prompts/category/:categoryId")
	return cacheKeyFrom(cfg, c)
}

func TestCacheKey_DistinctPerConcretePath(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "catalog", KeyStrategy: "path_query"}
	a := keyFor(t, cfg, http.MethodGet, "/prompts/category/aaa")
	b := keyFor(t, cfg, http.MethodGet, "/prompts/category/bbb")
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^catalog:[0-9a-f]{40}$`, a)
}

func TestCacheKey_Strategies(t *testing.T) {
	pq := config.CacheConfig{Prefix: "p", KeyStrategy: "path_query"}
	assert.NotEqual(t,
		keyFor(t, pq, http.MethodGet, "/categories?x=1"),
		keyFor(t, pq, http.MethodGet, "/categories?x=2"))

	path := config.CacheConfig{Prefix: "p", KeyStrategy: "path"}
	assert.Equal(t,
		keyFor(t, path, http.MethodGet, "/categories?x=1"),
		keyFor(t, path, http.MethodGet, "/categories?x=2"))

	mp := config.CacheConfig{Prefix: "p", KeyStrategy: "method_path"}
	assert.NotEqual(t,
		keyFor(t, mp, http.MethodGet, "/categories"),
		keyFor(t, mp, http.MethodHead, "/categories"))
}

func TestCachedResponse_Parse(t *testing.T) {
	bs, err := json.Marshal(cachedResponse{Status: http.StatusOK, ContentType: "application/json", Body: []byte(`[{"id":"1"}]`)})
	require.NoError(t, err)

	cr, ok := parseCachedResponse(bs)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, cr.Status)
	assert.Equal(t, `[{"id":"1"}]`, string(cr.Body))

	_, ok = parseCachedResponse([]byte("{not json"))
	assert.False(t, ok)
	_, ok = parseCachedResponse([]byte(`{"b":"eA=="}`))
	assert.False(t, ok)
}

func TestCachedResponse_Replay(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/categories", nil), rec)

	require.NoError(t, cachedResponse{Status: http.StatusOK, ContentType: "application/json", Body: []byte(`[]`)}.replay(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, "application/json", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "[]", rec.Body.String())
}

func TestBodyRecorder_Overflow(t *testing.T) {
	out := httptest.NewRecorder()
	br := &bodyRecorder{ResponseWriter: out, status: http.StatusOK, limit: 4}
	_, _ = br.Write([]byte("abc"))
	assert.False(t, br.overflow)
	_, _ = br.Write([]byte("de"))
	assert.True(t, br.overflow)
	assert.Zero(t, br.buf.Len())
	assert.Equal(t, "abcde", out.Body.String())
}

func TestNewRedisCache_PassThroughWithoutClient(t *testing.T) {
	mw := NewRedisCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}}, nil)
	rec, _ := serve(t, mw, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-Cache"))
}

func TestCacheInvalidator_NilClientIsNoop(t *testing.T) {
	ci := NewCacheInvalidator(config.CacheConfig{Prefix: "catalog"}, nil, zap.NewNop())
	assert.NotPanics(t, func() { ci.Invalidate(context.Background()) })

	var nilCI *CacheInvalidator
	assert.NotPanics(t, func() { nilCI.Invalidate(context.Background()) })
}

func TestNewTokenBucket_PassThroughWithoutClient(t *testing.T) {
	mw := NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil, zap.NewNop())
	for i := 0; i < 3; i++ {
		rec, _ := serve(t, mw, "")
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/users/login", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.7")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/users/login")

	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_route"}
	assert.Equal(t, "rl:ip:10.0.0.7:route:POST /users/login", buildRateKey(cfg, c))

	cfg.KeyStrategy = "ip_user"
	assert.Equal(t, "rl:ip:10.0.0.7:user:guest", buildRateKey(cfg, c))

	cfg.KeyStrategy = "anything"
	assert.Equal(t, "rl:ip:10.0.0.7:user:guest:route:POST /users/login", buildRateKey(cfg, c))
}

func TestBucketVerdict_RetryAfterRoundsUp(t *testing.T) {
	assert.Equal(t, 0, bucketVerdict{}.retryAfter())
	assert.Equal(t, 1, bucketVerdict{Wait: time.Millisecond}.retryAfter())
	assert.Equal(t, 2, bucketVerdict{Wait: 1500 * time.Millisecond}.retryAfter())
	assert.Equal(t, 6, bucketVerdict{Wait: 6 * time.Second}.retryAfter())
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/victoralfred/userdir/internal/domain/ratelimit"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// countingLimiter admits the first limit requests per key
type countingLimiter struct {
	counts map[string]int
	keys   []string
	err    error
}

func newCountingLimiter() *countingLimiter {
	return &countingLimiter{counts: make(map[string]int)}
}

func (l *countingLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (*ratelimit.Result, error) {
	l.keys = append(l.keys, key)
	if l.err != nil {
		return nil, l.err
	}
	l.counts[key]++
	n := l.counts[key]
	if n > limit {
		return &ratelimit.Result{
			Allowed:    false,
			Limit:      limit,
			ResetTime:  time.Now().Add(window),
			RetryAfter: window,
		}, nil
	}
	return &ratelimit.Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - n,
		ResetTime: time.Now().Add(window),
	}, nil
}

func (l *countingLimiter) Reset(ctx context.Context, key string) error {
	delete(l.counts, key)
	return nil
}

func rateLimitedRouter(limiter ratelimit.Limiter, rule ratelimit.Rule, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/users", RateLimit(limiter, rule, logger), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	return router
}

func post(router *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/users", nil)
	req.RemoteAddr = remoteAddr
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimit_RejectsOverBudget(t *testing.T) {
	limiter := newCountingLimiter()
	router := rateLimitedRouter(limiter, ratelimit.Rule{Limit: 2, Window: time.Minute}, nil)

	w := post(router, "10.0.0.1:1234")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	w = post(router, "10.0.0.1:1234")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = post(router, "10.0.0.1:1234")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "RATE_LIMIT_EXCEEDED")
	assert.Equal(t, "60", w.Header().Get("Retry-After"))

	// other clients keep their own budget
	w = post(router, "10.0.0.2:1234")
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRateLimit_KeyIncludesRouteAndIP(t *testing.T) {
	limiter := newCountingLimiter()
	router := rateLimitedRouter(limiter, ratelimit.Rule{Limit: 5, Window: time.Minute}, nil)

	post(router, "192.0.2.7:80")

	require.Len(t, limiter.keys, 1)
	assert.Equal(t, "POST:/users:ip:192.0.2.7", limiter.keys[0])
}

func TestRateLimit_LimiterFailureLetsRequestThrough(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	limiter := newCountingLimiter()
	limiter.err = errors.New("connection refused")
	router := rateLimitedRouter(limiter, ratelimit.Rule{Limit: 1, Window: time.Minute}, zap.New(core))

	w := post(router, "10.0.0.1:1234")

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, 1, logs.FilterMessage("Rate limiter unavailable").Len())
}

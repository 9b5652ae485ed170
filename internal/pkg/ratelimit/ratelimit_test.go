package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRedisLimiter_FirstHitStartsWindow(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRedisLimiter(db, 2, time.Minute)

	mock.ExpectIncr("ratelimit:1.2.3.4").SetVal(1)
	mock.ExpectExpire("ratelimit:1.2.3.4", time.Minute).SetVal(true)

	ok, err := limiter.Allow(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisLimiter_OverLimit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRedisLimiter(db, 2, time.Minute)

	// Third hit in the same window exceeds a limit of 2. No Expire call is
	// expected past the first hit.
	mock.ExpectIncr("ratelimit:1.2.3.4").SetVal(3)

	ok, err := limiter.Allow(context.Background(), "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryLimiter(t *testing.T) {
	limiter := NewMemoryLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(context.Background(), "client-a")
		require.NoError(t, err)
		assert.True(t, ok, "request %d within burst", i+1)
	}

	ok, err := limiter.Allow(context.Background(), "client-a")
	require.NoError(t, err)
	assert.False(t, ok)

	// Other clients have their own bucket.
	ok, err = limiter.Allow(context.Background(), "client-b")
	require.NoError(t, err)
	assert.True(t, ok)
}

type deniedLimiter struct{}

func (deniedLimiter) Allow(context.Context, string) (bool, error) { return false, nil }

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func middlewareStatus(t *testing.T, limiter Limiter) int {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(Middleware(limiter, zap.NewNop()))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	r.ServeHTTP(w, req)
	return w.Code
}

func TestMiddleware_Throttles(t *testing.T) {
	assert.Equal(t, http.StatusTooManyRequests, middlewareStatus(t, deniedLimiter{}))
}

func TestMiddleware_FailsOpenOnLimiterError(t *testing.T) {
	assert.Equal(t, http.StatusOK, middlewareStatus(t, brokenLimiter{}))
}

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct {
	mu      sync.Mutex
	counts  map[string]int64
	expires map[string]time.Duration
	err     error
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{counts: map[string]int64{}, expires: map[string]time.Duration{}}
}

func (f *fakeCounter) Incr(ctx context.Context, key string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	f.counts[key]++
	cmd.SetVal(f.counts[key])
	return cmd
}

func (f *fakeCounter) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expires[key] = expiration
	cmd := redis.NewBoolCmd(ctx)
	cmd.SetVal(true)
	return cmd
}

func TestCreateLimiter(t *testing.T) {
	counter := newFakeCounter()
	limiter := newCreateLimiter(counter, 2)
	limiter.now = func() time.Time { return time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := limiter.allow(ctx, "cards", "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := limiter.allow(ctx, "cards", "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, _ = limiter.allow(ctx, "cards", "10.0.0.2")
	assert.True(t, ok, "limits are per client")
	ok, _ = limiter.allow(ctx, "links", "10.0.0.1")
	assert.True(t, ok, "limits are per scope")

	assert.Equal(t, int64(3), counter.counts["rate:cards:10.0.0.1:2026-10-17"])
	assert.Equal(t, 24*time.Hour, counter.expires["rate:cards:10.0.0.1:2026-10-17"])
}

func TestCreateLimiterFailsOpen(t *testing.T) {
	counter := newFakeCounter()
	counter.err = errors.New("connection refused")
	limiter := newCreateLimiter(counter, 1)

	ok, err := limiter.allow(context.Background(), "cards", "10.0.0.1")
	assert.Error(t, err)
	assert.True(t, ok)

	ok, err = newCreateLimiter(nil, 1).allow(context.Background(), "cards", "10.0.0.1")
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestCreateLimiterMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := newCreateLimiter(newFakeCounter(), 1)
	router := gin.New()
	router.POST("/x", limiter.middleware("cards"), func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3600", w.Header().Get("Retry-After"))
}

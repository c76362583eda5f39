package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newLimitedRouter(limit int, window time.Duration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	limiter := NewLimiter(NewMemoryStore(), limit, window)
	keyByHeader := func(c *gin.Context) string { return c.GetHeader("X-Test-Client") }
	router.POST("/admin/deploy-prompt", Middleware(limiter, keyByHeader, zap.NewNop()), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return router
}

func TestMiddlewareRejectsOverLimit(t *testing.T) {
	router := newLimitedRouter(5, time.Minute)

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/admin/deploy-prompt", nil)
		req.Header.Set("X-Test-Client", "203.0.113.5")
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, "request %d should pass", i+1)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/deploy-prompt", nil)
	req.Header.Set("X-Test-Client", "203.0.113.5")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	retryAfter, err := strconv.Atoi(w.Header().Get("Retry-After"))
	require.NoError(t, err, "429 must carry a numeric Retry-After header")
	assert.Greater(t, retryAfter, 0)
	assert.Contains(t, w.Body.String(), "error")
}

func TestMiddlewareIsolatesClients(t *testing.T) {
	router := newLimitedRouter(1, time.Minute)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/deploy-prompt", nil)
	req.Header.Set("X-Test-Client", "client-a")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/admin/deploy-prompt", nil)
	req.Header.Set("X-Test-Client", "client-a")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/admin/deploy-prompt", nil)
	req.Header.Set("X-Test-Client", "client-b")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "another client key must keep its own quota")
}

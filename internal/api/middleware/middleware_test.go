package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupTestRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(handlers...)
	router.GET("/wallpapers", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/stream", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func get(router *gin.Engine, path, remote, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if remote != "" {
		req.RemoteAddr = remote
	}
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCORSPageOrigin(t *testing.T) {
	router := setupTestRouter(CORS("http://localhost:8000"))

	tests := []struct {
		name       string
		origin     string
		wantStatus int
		wantAllow  string
	}{
		{name: "page origin", origin: "http://localhost:8000", wantStatus: http.StatusOK, wantAllow: "http://localhost:8000"},
		{name: "foreign origin", origin: "https://evil.example", wantStatus: http.StatusForbidden},
		{name: "same-origin request", wantStatus: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(router, "/wallpapers", "", tt.origin)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantAllow, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCORSPreflightExposesETag(t *testing.T) {
	router := setupTestRouter(CORS("http://localhost:8000"))

	w := get(router, "/wallpapers", "", "http://localhost:8000")
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Etag")

	req := httptest.NewRequest(http.MethodOptions, "/wallpapers", nil)
	req.Header.Set("Origin", "http://localhost:8000")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")
}

func TestCORSWithoutOriginAllowsAll(t *testing.T) {
	router := setupTestRouter(CORS(""))

	w := get(router, "/wallpapers", "", "http://localhost:3000")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	router := setupTestRouter(RateLimit(RateLimitConfig{RequestsPerSecond: 2, Burst: 2}))

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, get(router, "/wallpapers", "192.168.1.1:1234", "").Code, "request %d", i+1)
	}

	w := get(router, "/wallpapers", "192.168.1.1:1234", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), `"kind":"rate_limited"`)
}

func TestRateLimitDifferentClients(t *testing.T) {
	router := setupTestRouter(RateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 1}))

	assert.Equal(t, http.StatusOK, get(router, "/wallpapers", "192.168.1.1:1234", "").Code)
	assert.Equal(t, http.StatusOK, get(router, "/wallpapers", "192.168.1.2:1234", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(router, "/wallpapers", "192.168.1.1:1234", "").Code)
}

func TestRateLimitExemptPaths(t *testing.T) {
	router := setupTestRouter(RateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 1, Exempt: []string{"/stream"}}))

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, get(router, "/stream", "192.168.1.1:1234", "").Code)
	}
}

func TestRateLimitZeroBurstRejects(t *testing.T) {
	router := setupTestRouter(RateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 0}))

	w := get(router, "/wallpapers", "192.168.1.1:1234", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestRateLimiterForgetsIdleClients(t *testing.T) {
	clock := time.Now()
	l := NewRateLimiter(RateLimitConfig{RequestsPerSecond: 1, Burst: 1, IdleTTL: time.Minute})
	l.now = func() time.Time { return clock }
	l.lastSweep = clock
	router := setupTestRouter(l.Handler())

	get(router, "/wallpapers", "192.168.1.1:1234", "")
	get(router, "/wallpapers", "192.168.1.2:1234", "")
	assert.Equal(t, 2, l.Visitors())

	clock = clock.Add(2 * time.Minute)
	assert.Equal(t, http.StatusOK, get(router, "/wallpapers", "192.168.1.3:1234", "").Code)
	assert.Equal(t, 1, l.Visitors())
}

func TestDefaultRateLimitConfig(t *testing.T) {
	rl := DefaultRateLimitConfig()
	assert.Equal(t, 100, rl.RequestsPerSecond)
	assert.Equal(t, 200, rl.Burst)
	assert.ElementsMatch(t, []string{"/stream", "/metrics"}, rl.Exempt)
}

func BenchmarkRateLimit(b *testing.B) {
	router := setupTestRouter(RateLimit(DefaultRateLimitConfig()))
	req := httptest.NewRequest(http.MethodGet, "/wallpapers", nil)
	req.RemoteAddr = "192.168.1.1:1234"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
	}
}

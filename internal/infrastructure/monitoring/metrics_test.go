package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsIsolatedRegistries(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.RecordWallpaperOp("add", nil)
	a.RecordWallpaperOp("add", errors.New("quota"))

	assert.Equal(t, 1.0, testutil.ToFloat64(a.WallpaperOps.WithLabelValues("add", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.WallpaperOps.WithLabelValues("add", "error")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.WallpaperOps.WithLabelValues("add", "success")))
}

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()
	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/media/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	for _, key := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/media/"+key, nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/media/:id", "200")))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), "shell_http_requests_total")
	assert.Contains(t, w.Body.String(), "shell_uptime_seconds")
}

func TestTimer(t *testing.T) {
	m := NewMetrics()
	NewTimer(m, "remove").Stop(nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.WallpaperOps.WithLabelValues("remove", "success")))
}

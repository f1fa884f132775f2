package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	cfgpkg "github.com/taoyao-code/carlink-driver/internal/config"
	"github.com/taoyao-code/carlink-driver/internal/metrics"
)

func get(h http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestServerRoutes(t *testing.T) {
	srv := New(cfgpkg.HTTPConfig{Addr: ":0"}, "/metrics", metrics.Handler(metrics.NewRegistry()),
		func() bool { return true },
		func(r *gin.Engine) {
			r.GET("/extra", func(c *gin.Context) { c.String(http.StatusOK, "extra") })
		})

	h := srv.Handler()
	assert.Equal(t, http.StatusOK, get(h, "/healthz").Code)
	assert.Equal(t, http.StatusOK, get(h, "/readyz").Code)
	assert.Equal(t, http.StatusOK, get(h, "/extra").Code)

	w := get(h, "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestServerNotReady(t *testing.T) {
	srv := New(cfgpkg.HTTPConfig{Addr: ":0"}, "", nil, func() bool { return false }, nil)
	h := srv.Handler()
	assert.Equal(t, http.StatusServiceUnavailable, get(h, "/readyz").Code)
	// 指标处理器为空时不挂载 /metrics
	assert.Equal(t, http.StatusNotFound, get(h, "/metrics").Code)
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestHTTPMetricsMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	registry := prometheus.NewRegistry()
	m := newHTTPMetrics(registry, Config{ServiceName: "osb-test"})

	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/buildings/egid/:egid", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	for _, path := range []string{"/buildings/egid/1", "/buildings/egid/2", "/nope"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.Equal(t, float64(2), testutil.ToFloat64(m.requests.WithLabelValues("/buildings/egid/:egid", "GET", "404")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.requests.WithLabelValues("unmatched", "GET", "404")))
}

func TestHTTPMetricsReusesRegisteredCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	first := newHTTPMetrics(registry, Config{})
	second := newHTTPMetrics(registry, Config{})
	require.Same(t, first.requests, second.requests)
	require.Same(t, first.latency, second.latency)
}

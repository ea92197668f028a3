package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics records request counters and latency for the API surface.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewHTTPMetrics registers HTTP collectors on the default registerer.
func NewHTTPMetrics(cfg Config) *HTTPMetrics {
	return newHTTPMetrics(prometheus.DefaultRegisterer, cfg)
}

func newHTTPMetrics(registerer prometheus.Registerer, cfg Config) *HTTPMetrics {
	constLabels := prometheus.Labels{"service": cfg.ServiceName}
	if cfg.ServiceName == "" {
		constLabels["service"] = "open-swiss-buildings"
	}

	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "osb_http_requests_total",
			Help:        "HTTP requests by route, method and status code.",
			ConstLabels: constLabels,
		}, []string{"route", "method", "status_code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "osb_http_request_duration_seconds",
			Help:        "HTTP request latency by route.",
			Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			ConstLabels: constLabels,
		}, []string{"route", "method"}),
	}

	for _, c := range []prometheus.Collector{m.requests, m.latency} {
		if err := registerer.Register(c); err != nil {
			if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
				switch existing := already.ExistingCollector.(type) {
				case *prometheus.CounterVec:
					m.requests = existing
				case *prometheus.HistogramVec:
					m.latency = existing
				}
				continue
			}
			panic(err)
		}
	}
	return m
}

// GinMiddleware observes every request using the matched route template.
func (m *HTTPMetrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.requests.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
		m.latency.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}

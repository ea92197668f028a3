package server

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/observability/logger"
	obsmetrics "github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/observability/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	rateLimitEndpointSearch = "search"
	rateLimitByClientIP     = "client_ip"
)

// SearchRateLimit applies the per-client token bucket to address searches.
// A failing limiter lets the request through.
func (s *Server) SearchRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.searchLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		result, err := s.searchLimiter.Allow(ctx, s.rateLimitClientKey(c))
		if err != nil {
			logger.FromContext(ctx).Warn("search rate limit check failed", zap.Error(err))
			c.Next()
			return
		}
		if !result.Allowed {
			denySearchRateLimit(c, result.RetryAfter, s.obsMetrics)
			return
		}

		recordRateLimit(ctx, true, s.obsMetrics)
		if result.Limit > 0 {
			c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		}
		c.Next()
	}
}

// rateLimitClientKey keys the bucket by client IP, or by the configured header when present.
func (s *Server) rateLimitClientKey(c *gin.Context) string {
	by := rateLimitByClientIP
	if s.tuning != nil {
		by = strings.TrimSpace(s.tuning.Get().Search.RateLimitByKey)
	}
	if by != "" && by != rateLimitByClientIP {
		if value := strings.TrimSpace(c.GetHeader(by)); value != "" {
			return value
		}
	}
	return c.ClientIP()
}

func denySearchRateLimit(c *gin.Context, retryAfter time.Duration, metrics *obsmetrics.Metrics) {
	ctx := c.Request.Context()
	logger.FromContext(ctx).Debug("search rate limit exceeded",
		zap.String("endpoint", rateLimitEndpointSearch),
	)
	recordRateLimit(ctx, false, metrics)

	seconds := int(math.Ceil(retryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	c.Header("Retry-After", strconv.Itoa(seconds))
	AbortWithError(c, ErrRateLimited)
}

func recordRateLimit(ctx context.Context, allowed bool, metrics *obsmetrics.Metrics) {
	if metrics == nil {
		return
	}
	metrics.RecordRateLimit(ctx, rateLimitEndpointSearch, allowed)
}

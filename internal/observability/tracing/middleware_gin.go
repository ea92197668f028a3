package tracing

import (
	"net/http"

	obscontext "github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/observability/context"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// untracedPaths are polled by orchestrators and scrapers often enough to drown real traffic.
var untracedPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// GinMiddleware opens a server span per lookup and names it after the matched route.
func GinMiddleware() gin.HandlerFunc {
	tracer := otel.Tracer(tracerName + "/http")
	return func(c *gin.Context) {
		if _, skip := untracedPaths[c.Request.URL.Path]; skip {
			c.Next()
			return
		}

		method := c.Request.Method
		parent := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx, span := tracer.Start(parent, method+" "+routeOf(c), trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		route := routeOf(c)
		span.SetName(method + " " + route)

		attrs := []attribute.KeyValue{
			attribute.String("http.method", method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", c.Writer.Status()),
			attribute.Int("http.response_size", c.Writer.Size()),
		}
		if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
			attrs = append(attrs, attribute.String("request_id", requestID))
		}
		span.SetAttributes(SafeAttributes(attrs...)...)

		markSpan(span, c)
	}
}

// routeOf returns the route template, so /buildings/egid/:egid rather than the concrete id.
func routeOf(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return "unmatched"
}

func markSpan(span trace.Span, c *gin.Context) {
	status := c.Writer.Status()
	if status < http.StatusInternalServerError {
		return
	}
	if last := c.Errors.Last(); last != nil {
		span.RecordError(SafeError(last.Err))
	}
	span.SetStatus(codes.Error, http.StatusText(status))
}

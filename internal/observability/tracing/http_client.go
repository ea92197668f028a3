package tracing

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type tracingTransport struct {
	base http.RoundTripper
}

// WrapHTTPClient makes outgoing requests carry the caller's trace context.
func WrapHTTPClient(client *http.Client) *http.Client {
	if client == nil {
		client = &http.Client{}
	}
	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	if _, ok := base.(*tracingTransport); ok {
		return client
	}
	wrapped := *client
	wrapped.Transport = &tracingTransport{base: base}
	return &wrapped
}

func (t *tracingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, span := otel.Tracer(tracerName+"/http-client").Start(
		req.Context(),
		"HTTP "+req.Method+" "+req.URL.Host,
		trace.WithSpanKind(trace.SpanKindClient),
	)
	defer span.End()

	req = req.Clone(ctx)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	span.SetAttributes(
		attribute.String("http.method", req.Method),
		attribute.String("net.peer.name", req.URL.Host),
	)

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		span.RecordError(SafeError(err))
		span.SetStatus(codes.Error, "transport error")
		return nil, err
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, resp.Status)
	}
	return resp, nil
}

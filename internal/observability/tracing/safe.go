package tracing

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
)

const maxAttributeLength = 256

// ExtractContext reads upstream trace headers into ctx.
func ExtractContext(ctx context.Context, carrier propagation.TextMapCarrier) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}

// SafeAttributes truncates string values so free-text input cannot bloat spans.
func SafeAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if attr.Value.Type() == attribute.STRING {
			value := attr.Value.AsString()
			if len(value) > maxAttributeLength {
				attr = attribute.String(string(attr.Key), value[:maxAttributeLength])
			}
		}
		out = append(out, attr)
	}
	return out
}

// SafeError strips the wrapped chain down to the outermost message.
func SafeError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.TrimSpace(err.Error())
	if len(msg) > maxAttributeLength {
		msg = msg[:maxAttributeLength]
	}
	return errors.New(msg)
}

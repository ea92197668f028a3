package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("kind", "egid"),
		attribute.String("egid", "150404"),
		attribute.String("outcome", "found"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	for _, attr := range attrs {
		if attr.Key == "egid" {
			t.Fatalf("expected egid to be dropped")
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordBuildingsImported(ctx, 3)
	m.RecordMappingsCreated(ctx, 3)
	m.RecordLookup(ctx, "egid", "found")
	m.RecordCacheLookup(ctx, "egid", true)
	m.RecordRateLimit(ctx, "search", false)
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{}, noop.NewMeterProvider())
	require.NoError(t, err)
	m.RecordLookup(context.Background(), "egrid", "not_found")
}

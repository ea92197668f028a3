package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	buildingsImported metric.Int64Counter
	mappingsCreated   metric.Int64Counter
	lookups           metric.Int64Counter
	cacheLookups      metric.Int64Counter
	rateLimit         metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return provider.Shutdown(ctx)
			},
		})
	}
	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

// New creates the domain instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "open-swiss-buildings"
	}
	meter := provider.Meter(name)

	var (
		m   Metrics
		err error
	)
	if m.buildingsImported, err = meter.Int64Counter("osb_buildings_imported_total"); err != nil {
		return nil, err
	}
	if m.mappingsCreated, err = meter.Int64Counter("osb_address_mappings_created_total"); err != nil {
		return nil, err
	}
	if m.lookups, err = meter.Int64Counter("osb_building_lookups_total"); err != nil {
		return nil, err
	}
	if m.cacheLookups, err = meter.Int64Counter("osb_view_cache_lookups_total"); err != nil {
		return nil, err
	}
	if m.rateLimit, err = meter.Int64Counter("osb_search_rate_limit_total"); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Metrics) RecordBuildingsImported(ctx context.Context, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.buildingsImported.Add(ctx, int64(count))
}

func (m *Metrics) RecordMappingsCreated(ctx context.Context, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.mappingsCreated.Add(ctx, int64(count))
}

// RecordLookup counts composed-view reads by key kind (egid, egrid, address, search) and outcome.
func (m *Metrics) RecordLookup(ctx context.Context, kind, outcome string) {
	if m == nil {
		return
	}
	attrs := FilterAttributes(
		attribute.String("kind", strings.TrimSpace(kind)),
		attribute.String("outcome", strings.TrimSpace(outcome)),
	)
	m.lookups.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordCacheLookup(ctx context.Context, kind string, hit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	attrs := FilterAttributes(
		attribute.String("kind", strings.TrimSpace(kind)),
		attribute.String("outcome", outcome),
	)
	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *Metrics) RecordRateLimit(ctx context.Context, endpoint string, allowed bool) {
	if m == nil {
		return
	}
	outcome := "allowed"
	if !allowed {
		outcome = "denied"
	}
	attrs := FilterAttributes(
		attribute.String("endpoint", strings.TrimSpace(endpoint)),
		attribute.String("outcome", outcome),
	)
	m.rateLimit.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}

var allowedLabelKeys = map[attribute.Key]struct{}{
	"kind":        {},
	"outcome":     {},
	"endpoint":    {},
	"status_code": {},
	"stage":       {},
}

// FilterAttributes strips disallowed labels to keep metrics low-cardinality.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, ok := allowedLabelKeys[attr.Key]; !ok {
			continue
		}
		filtered = append(filtered, attr)
	}
	return filtered
}

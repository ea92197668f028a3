package observability

import (
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/observability/logger"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/observability/metrics"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module wires logging, tracing and metrics for both binaries.
var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		Config.logger,
		Config.sqlLogger,
		Config.tracing,
		Config.metrics,
		logger.New,
		tracing.NewProvider,
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
		metrics.ImportWithConfig,
		metrics.NewPusher,
	),
	fx.Invoke(announce),
)

// announce forces the tracer provider to be built and logs the effective setup once.
func announce(cfg Config, log *zap.Logger, _ *sdktrace.TracerProvider) {
	log.Named("observability").Info("observability configured",
		zap.String("environment", cfg.Environment),
		zap.String("version", cfg.Version),
		zap.Bool("otel_enabled", cfg.OtelEnabled),
		zap.String("otel_protocol", cfg.OtelExporterProtocol),
		zap.Duration("sql_slow_threshold", cfg.SQLSlowThreshold),
	)
}

func (c Config) logger() logger.Config {
	debug := c.Debug()
	return logger.Config{
		ServiceName:         c.ServiceName,
		Environment:         c.Environment,
		Version:             c.Version,
		Level:               c.LogLevel,
		Format:              c.LogFormat,
		Debug:               debug,
		IncludeCaller:       true,
		IncludeStackOnError: debug,
	}
}

func (c Config) sqlLogger() logger.GormLoggerConfig {
	return logger.GormLoggerConfig{
		Level:                logger.ParseGormLevel(c.SQLLogLevel),
		SlowThreshold:        c.SQLSlowThreshold,
		IgnoreRecordNotFound: true,
	}
}

func (c Config) tracing() tracing.Config {
	return tracing.Config{
		Enabled:          c.OtelEnabled,
		ServiceName:      c.ServiceName,
		ServiceVersion:   c.Version,
		Environment:      c.Environment,
		ExporterEndpoint: c.OtelExporterEndpoint,
		ExporterProtocol: c.OtelExporterProtocol,
		SamplingRatio:    c.OtelSamplingRatio,
	}
}

func (c Config) metrics() metrics.Config {
	return metrics.Config{
		Enabled:          c.OtelEnabled,
		ExporterEndpoint: c.OtelExporterEndpoint,
		ExporterProtocol: c.OtelExporterProtocol,
		ServiceName:      c.ServiceName,
		Environment:      c.Environment,
	}
}

package observability

import (
	"testing"
	"time"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/config"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

func mapLookup(vars map[string]string) lookupFunc {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg := loadConfig(config.Config{Environment: "production", AppVersion: "1.2.3"}, mapLookup(map[string]string{
		"OTEL_EXPORTER_OTLP_TRACES_PROTOCOL": "HTTP",
		"LOG_LEVEL":                          "  ",
	}))

	require.Equal(t, "open-swiss-buildings", cfg.ServiceName)
	require.Equal(t, "production", cfg.Environment)
	require.Equal(t, "1.2.3", cfg.Version)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, "http", cfg.OtelExporterProtocol)
	require.True(t, cfg.OtelEnabled)
	require.Equal(t, 0.1, cfg.OtelSamplingRatio)
	require.Equal(t, 500*time.Millisecond, cfg.SQLSlowThreshold)
	require.False(t, cfg.Debug())
}

func TestLoadConfigOverrides(t *testing.T) {
	cfg := loadConfig(config.Config{Environment: "production", AppName: "osb"}, mapLookup(map[string]string{
		"OTEL_SERVICE_NAME":           "osb-importer",
		"DEPLOYMENT_ENV":              "staging",
		"OTEL_ENABLED":                "off",
		"OTEL_EXPORTER_OTLP_PROTOCOL": "grpc",
		"OTEL_SAMPLING_RATIO":         "1.5",
		"SQL_LOG_SLOW_MS":             "250",
		"SQL_LOG_LEVEL":               "Info",
	}))

	require.Equal(t, "osb-importer", cfg.ServiceName)
	require.Equal(t, "staging", cfg.Environment)
	require.False(t, cfg.OtelEnabled)
	require.Equal(t, "grpc", cfg.OtelExporterProtocol)
	require.Equal(t, 0.1, cfg.OtelSamplingRatio, "out of range ratio falls back")
	require.Equal(t, 250*time.Millisecond, cfg.SQLSlowThreshold)
	require.Equal(t, gormlogger.Info, cfg.sqlLogger().Level)
}

func TestDebugFollowsEnvironment(t *testing.T) {
	require.True(t, Config{Environment: "development"}.Debug())
	require.True(t, Config{Environment: "production", LogLevel: "debug"}.Debug())
	require.False(t, Config{Environment: "staging"}.Debug())
}

func TestLoggerConfigCarriesDebug(t *testing.T) {
	lc := Config{Environment: "local", LogFormat: "console"}.logger()
	require.True(t, lc.Debug)
	require.True(t, lc.IncludeStackOnError)
	require.Equal(t, "console", lc.Format)
}

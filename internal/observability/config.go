package observability

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/config"
)

const defaultServiceName = "open-swiss-buildings"

// Config holds logging, tracing and metrics settings shared by the API and importer.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	// SQLSlowThreshold marks statements worth a warning in the GORM log.
	SQLSlowThreshold time.Duration
	SQLLogLevel      string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
}

// LoadConfig layers OTEL_*, LOG_* and SQL_LOG_* variables over the application config.
func LoadConfig(cfg config.Config) Config {
	return loadConfig(cfg, os.LookupEnv)
}

type lookupFunc func(key string) (string, bool)

type envReader struct {
	lookup lookupFunc
}

func (r envReader) str(key, def string) string {
	if v, ok := r.lookup(key); ok {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return strings.TrimSpace(def)
}

func (r envReader) lower(key, def string) string {
	return strings.ToLower(r.str(key, def))
}

// first returns the first non-empty variable in keys.
func (r envReader) first(def string, keys ...string) string {
	for _, key := range keys {
		if v := r.str(key, ""); v != "" {
			return v
		}
	}
	return def
}

func (r envReader) flag(key string, def bool) bool {
	b, err := strconv.ParseBool(r.lower(key, ""))
	if err != nil {
		switch r.lower(key, "") {
		case "yes", "y", "on":
			return true
		case "no", "n", "off":
			return false
		}
		return def
	}
	return b
}

func (r envReader) ratio(key string, def float64) float64 {
	v, err := strconv.ParseFloat(r.str(key, ""), 64)
	if err != nil || v < 0 || v > 1 {
		return def
	}
	return v
}

func (r envReader) millis(key string, def time.Duration) time.Duration {
	v, err := strconv.Atoi(r.str(key, ""))
	if err != nil || v <= 0 {
		return def
	}
	return time.Duration(v) * time.Millisecond
}

func loadConfig(cfg config.Config, lookup lookupFunc) Config {
	env := envReader{lookup: lookup}
	name := strings.TrimSpace(cfg.AppName)
	if name == "" {
		name = defaultServiceName
	}

	return Config{
		ServiceName: env.str("OTEL_SERVICE_NAME", name),
		Environment: env.str("DEPLOYMENT_ENV", cfg.Environment),
		Version:     env.str("SERVICE_VERSION", cfg.AppVersion),

		LogLevel:  env.lower("LOG_LEVEL", "info"),
		LogFormat: env.lower("LOG_FORMAT", "json"),

		SQLSlowThreshold: env.millis("SQL_LOG_SLOW_MS", 500*time.Millisecond),
		SQLLogLevel:      env.lower("SQL_LOG_LEVEL", "warn"),

		OtelEnabled:          env.flag("OTEL_ENABLED", cfg.IsProduction()),
		OtelExporterEndpoint: env.str("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTLPEndpoint),
		OtelExporterProtocol: strings.ToLower(env.first("grpc", "OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", "OTEL_EXPORTER_OTLP_PROTOCOL")),
		OtelSamplingRatio:    env.ratio("OTEL_SAMPLING_RATIO", 0.1),
	}
}

// Debug reports whether verbose output is wanted, either from LOG_LEVEL or a local environment.
func (c Config) Debug() bool {
	if strings.EqualFold(strings.TrimSpace(c.LogLevel), "debug") {
		return true
	}
	switch strings.ToLower(strings.TrimSpace(c.Environment)) {
	case "dev", "development", "local", "test":
		return true
	}
	return false
}

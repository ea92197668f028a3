package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const DefaultImportBatchSize = 1000

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	RegistryDBPath string

	Redis         RedisConfig
	AddressSearch AddressSearchConfig
	Import        ImportConfig
	MetricsPush   MetricsPushConfig
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type AddressSearchConfig struct {
	URL            string
	TimeoutSeconds int
}

type ImportConfig struct {
	BatchSize      int
	ClearExisting  bool
	SkipMappings   bool
	LockTTLSeconds int
}

type MetricsPushConfig struct {
	Exporter  string
	Endpoint  string
	AuthToken string
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	batchSize := getenvInt("IMPORT_BATCH_SIZE", DefaultImportBatchSize)
	if batchSize < 1 {
		log.Printf("[config] IMPORT_BATCH_SIZE=%d is invalid, using %d", batchSize, DefaultImportBatchSize)
		batchSize = DefaultImportBatchSize
	}

	cfg := Config{
		AppName:      getenv("APP_SERVICE", "open-swiss-buildings"),
		AppVersion:   getenv("APP_VERSION", "0.1.0"),
		Environment:  getenv("ENVIRONMENT", "development"),
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "swissbuildings"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBPath:            getenv("DATABASE_PATH", "swissbuildings.db"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 1800),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 300),

		RegistryDBPath: getenv("REGISTRY_DB_PATH", "var/data/registry/ch/data.sqlite"),

		Redis: RedisConfig{
			Enabled:  getenvBool("REDIS_ENABLED", false),
			Addr:     strings.TrimSpace(getenv("REDIS_ADDR", "localhost:6379")),
			Password: strings.TrimSpace(getenv("REDIS_PASSWORD", "")),
			DB:       getenvInt("REDIS_DB", 0),
		},
		AddressSearch: AddressSearchConfig{
			URL:            strings.TrimSpace(getenv("ADDRESS_SEARCH_URL", "")),
			TimeoutSeconds: getenvInt("ADDRESS_SEARCH_TIMEOUT_SECONDS", 10),
		},
		Import: ImportConfig{
			BatchSize:      batchSize,
			ClearExisting:  getenvBool("IMPORT_CLEAR_EXISTING", false),
			SkipMappings:   getenvBool("IMPORT_SKIP_MAPPINGS", false),
			LockTTLSeconds: getenvInt("IMPORT_LOCK_TTL_SECONDS", 6*60*60),
		},
		MetricsPush: MetricsPushConfig{
			Exporter:  strings.ToLower(strings.TrimSpace(getenv("METRICS_PUSH_EXPORTER", ""))),
			Endpoint:  strings.TrimSpace(getenv("METRICS_PUSH_ENDPOINT", "")),
			AuthToken: strings.TrimSpace(getenv("METRICS_PUSH_AUTH_TOKEN", "")),
		},
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %d", key, value, def)
		return def
	}
	return parsed
}

package db

import (
	"fmt"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func Dialect(cfg Config) (gorm.Dialector, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case "mysql":
		return mysql.Open(fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.Name,
		)), nil
	case "postgres":
		return postgres.Open(fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			cfg.Host,
			cfg.User,
			cfg.Password,
			cfg.Name,
			cfg.Port,
			cfg.SSLMode,
		)), nil
	case "sqlite":
		path := strings.TrimSpace(cfg.Path)
		if path == "" {
			path = "swissbuildings.db"
		}
		return sqlite.Open(path + "?_foreign_keys=on"), nil
	default:
		return nil, fmt.Errorf("unsupported %s type", cfg.Type)
	}
}

// ReadOnlySQLite opens an existing sqlite file without creating it.
func ReadOnlySQLite(path string) gorm.Dialector {
	return sqlite.Open(fmt.Sprintf("file:%s?mode=ro&_query_only=1", strings.TrimSpace(path)))
}

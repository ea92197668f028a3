package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/config"
	obslogger "github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/observability/logger"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/registry/domain"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/registry/repository"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("registry",
	fx.Provide(NewReader),
)

type Params struct {
	fx.In

	Lc  fx.Lifecycle
	Cfg config.Config
	Log *zap.Logger

	SQLLog obslogger.GormLoggerConfig `optional:"true"`
}

// NewReader opens the GWR export read-only. The file must exist.
func NewReader(p Params) (domain.Reader, error) {
	path := strings.TrimSpace(p.Cfg.RegistryDBPath)
	if path == "" {
		return nil, errors.New("REGISTRY_DB_PATH is required")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("registry database %s: %w", path, err)
	}

	conn, err := gorm.Open(db.ReadOnlySQLite(path), &gorm.Config{
		Logger:                 obslogger.NewGormLogger(p.SQLLog.OrDefault()),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open registry database: %w", err)
	}
	if err := db.Instrument(conn, "registry"); err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	log := p.Log.Named("registry")
	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := sqlDB.PingContext(ctx); err != nil {
				return fmt.Errorf("ping registry database: %w", err)
			}
			log.Info("registry database opened", zap.String("path", path))
			return nil
		},
		OnStop: func(context.Context) error {
			return sqlDB.Close()
		},
	})

	return repository.NewReader(conn), nil
}

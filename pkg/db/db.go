package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/config"
	obslogger "github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/observability/logger"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormprometheus "gorm.io/plugin/prometheus"
)

var Module = fx.Module("db",
	fx.Provide(New),
)

type Params struct {
	fx.In

	Lc  fx.Lifecycle
	Cfg config.Config
	Log *zap.Logger

	SQLLog obslogger.GormLoggerConfig `optional:"true"`
}

func New(p Params) (*gorm.DB, error) {
	dbCfg := ConfigFrom(p.Cfg)
	dialector, err := Dialect(dbCfg)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 obslogger.NewGormLogger(p.SQLLog.OrDefault()),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dbCfg.Type, err)
	}

	if err := Instrument(conn, dbCfg.Name); err != nil {
		return nil, err
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	applyPool(dbCfg, sqlDB.SetMaxIdleConns, sqlDB.SetMaxOpenConns, sqlDB.SetConnMaxLifetime, sqlDB.SetConnMaxIdleTime)

	log := p.Log.Named("db")
	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := sqlDB.PingContext(ctx); err != nil {
				return fmt.Errorf("ping database: %w", err)
			}
			log.Info("database connected", zap.String("type", dbCfg.Type), zap.String("name", dbCfg.Name))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return sqlDB.Close()
		},
	})

	return conn, nil
}

// Instrument attaches tracing and pool metrics plugins.
func Instrument(conn *gorm.DB, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		name = conn.Dialector.Name()
	}
	if err := conn.Use(otelgorm.NewPlugin(otelgorm.WithDBName(name))); err != nil {
		return fmt.Errorf("register otelgorm: %w", err)
	}
	if err := conn.Use(gormprometheus.New(gormprometheus.Config{
		DBName:          name,
		RefreshInterval: 15,
		StartServer:     false,
	})); err != nil {
		return fmt.Errorf("register gorm prometheus: %w", err)
	}
	return nil
}

func applyPool(
	cfg Config,
	setIdle func(int),
	setOpen func(int),
	setLifetime func(time.Duration),
	setIdleTime func(time.Duration),
) {
	if cfg.MaxIdleConn > 0 {
		setIdle(cfg.MaxIdleConn)
	}
	if cfg.MaxOpenConn > 0 {
		setOpen(cfg.MaxOpenConn)
	}
	if cfg.ConnMaxLifetime > 0 {
		setLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}
	if cfg.ConnMaxIdleTime > 0 {
		setIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Second)
	}
}

package main

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/buildingdata"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/buildingdata/domain"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/cache"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/clock"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/config"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/entrance"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/migration"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/observability"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/ratelimit"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/registry"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	exitFailed     = 1
	exitInProgress = 2
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Source registry and target store
		registry.Module,
		entrance.Module,
		cache.Module,
		ratelimit.Module,
		buildingdata.Module,
		buildingdata.ImportModule,

		fx.Invoke(StartImport),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

// StartImport runs one import after start-up and stops the app with its outcome.
func StartImport(lc fx.Lifecycle, shutdowner fx.Shutdowner, cfg config.Config, job domain.ImportJob, log *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				code := runImport(ctx, cfg, job, log.Named("importer"))
				_ = shutdowner.Shutdown(fx.ExitCode(code))
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}

func runImport(ctx context.Context, cfg config.Config, job domain.ImportJob, log *zap.Logger) int {
	opts := domain.ImportOptions{
		BatchSize:     cfg.Import.BatchSize,
		ClearExisting: cfg.Import.ClearExisting,
		SkipMappings:  cfg.Import.SkipMappings,
	}
	log.Info("import starting",
		zap.Int("batch_size", opts.BatchSize),
		zap.Bool("clear_existing", opts.ClearExisting),
		zap.Bool("skip_mappings", opts.SkipMappings),
	)

	start := time.Now()
	result, err := job.Run(ctx, opts)
	switch {
	case errors.Is(err, domain.ErrImportInProgress):
		log.Warn("another import holds the lock, nothing to do")
		return exitInProgress
	case err != nil:
		log.Error("import failed",
			zap.String("run_id", result.RunID.String()),
			zap.Int64("metadata_count", result.MetadataCount),
			zap.Int64("mapping_count", result.MappingCount),
			zap.Error(err),
		)
		return exitFailed
	}

	log.Info("import finished",
		zap.String("run_id", result.RunID.String()),
		zap.Int64("metadata_count", result.MetadataCount),
		zap.Int64("mapping_count", result.MappingCount),
		zap.Duration("duration", time.Since(start)),
	)
	return 0
}

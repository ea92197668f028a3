package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/buildingdata/domain"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/clock"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/config"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/observability/metrics"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	importLockKey      = "osb:import:lock"
	defaultLockTTL     = 6 * time.Hour
	finalizeTimeout    = 30 * time.Second
	pushMetricsTimeout = 10 * time.Second
)

// ImportLocker guards the single writer of an import run.
type ImportLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Refresh(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, token string) error
}

type JobParams struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Cfg      config.Config
	Clock    clock.Clock
	GenID    *snowflake.Node
	Importer domain.MetadataImporter
	Mapper   domain.MappingService
	Runs     domain.ImportRunRepository
	Locker   *ratelimit.Locker      `optional:"true"`
	Cache    domain.ViewCache       `optional:"true"`
	Metrics  *metrics.ImportMetrics `optional:"true"`
	Pusher   metrics.Pusher         `optional:"true"`
}

type ImportJob struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	genID    *snowflake.Node
	importer domain.MetadataImporter
	mapper   domain.MappingService
	runs     domain.ImportRunRepository
	locker   ImportLocker
	lockTTL  time.Duration
	cache    domain.ViewCache
	metrics  *metrics.ImportMetrics
	pusher   metrics.Pusher
}

func NewImportJob(p JobParams) domain.ImportJob {
	job := &ImportJob{
		db:       p.DB,
		log:      p.Log.Named("buildingdata.import_job"),
		clock:    p.Clock,
		genID:    p.GenID,
		importer: p.Importer,
		mapper:   p.Mapper,
		runs:     p.Runs,
		lockTTL:  time.Duration(p.Cfg.Import.LockTTLSeconds) * time.Second,
		cache:    p.Cache,
		metrics:  p.Metrics,
		pusher:   p.Pusher,
	}
	if p.Locker != nil {
		job.locker = p.Locker
	}
	if job.cache == nil {
		job.cache = domain.NoopViewCache{}
	}
	if job.lockTTL <= 0 {
		job.lockTTL = defaultLockTTL
	}
	return job
}

// Run imports the registry and then builds the mappings unless SkipMappings is set.
// The run is recorded in import_runs whatever its outcome.
func (j *ImportJob) Run(ctx context.Context, opts domain.ImportOptions) (domain.ImportResult, error) {
	if opts.BatchSize < 1 {
		return domain.ImportResult{}, domain.ErrInvalidBatchSize
	}

	lease, err := j.acquire(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrImportInProgress) {
			j.metrics.IncRun(metrics.ImportOutcomeSkipped)
			j.metrics.IncError(metrics.ImportStageBuildings, fmt.Errorf("%w: %w", metrics.ErrImportLockHeld, err))
		}
		return domain.ImportResult{}, err
	}
	defer lease.release(ctx)

	run := &domain.ImportRun{
		ID:            j.genID.Generate(),
		Status:        domain.ImportRunRunning,
		BatchSize:     opts.BatchSize,
		ClearExisting: opts.ClearExisting,
		SkipMappings:  opts.SkipMappings,
		StartedAt:     j.clock.Now(),
	}
	if err := j.runs.Insert(ctx, j.db, run); err != nil {
		return domain.ImportResult{}, fmt.Errorf("record import run: %w", err)
	}

	log := j.log.With(zap.String("run_id", run.ID.String()))
	log.Info("import run started",
		zap.Int("batch_size", opts.BatchSize),
		zap.Bool("clear_existing", opts.ClearExisting),
		zap.Bool("skip_mappings", opts.SkipMappings),
	)

	result := domain.ImportResult{RunID: run.ID}
	durations, runErr := j.execute(ctx, opts, lease, &result)

	finishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()
	j.finish(finishCtx, run, result, durations, runErr)

	if runErr != nil {
		log.Error("import run failed", zap.Error(runErr))
		return result, runErr
	}
	log.Info("import run finished",
		zap.Int64("metadata_count", result.MetadataCount),
		zap.Int64("mapping_count", result.MappingCount),
	)
	return result, nil
}

func (j *ImportJob) execute(ctx context.Context, opts domain.ImportOptions, lease *importLease, result *domain.ImportResult) (map[string]any, error) {
	durations := map[string]any{}

	started := j.clock.Now()
	imported, err := j.importer.Import(ctx, opts.BatchSize, opts.ClearExisting)
	elapsed := j.clock.Now().Sub(started)
	durations["buildings_ms"] = elapsed.Milliseconds()
	j.metrics.ObserveStageDuration(metrics.ImportStageBuildings, elapsed)
	j.metrics.AddProcessed(metrics.ImportStageBuildings, int(imported))
	result.MetadataCount = imported
	if err != nil {
		j.metrics.IncError(metrics.ImportStageBuildings, err)
		return durations, fmt.Errorf("import building metadata: %w", err)
	}

	if opts.SkipMappings {
		return durations, nil
	}
	lease.refresh(ctx)

	started = j.clock.Now()
	created, err := j.mapper.BuildMappings(ctx, opts.BatchSize)
	elapsed = j.clock.Now().Sub(started)
	durations["mappings_ms"] = elapsed.Milliseconds()
	j.metrics.ObserveStageDuration(metrics.ImportStageMappings, elapsed)
	j.metrics.AddProcessed(metrics.ImportStageMappings, int(created))
	result.MappingCount = created
	if err != nil {
		j.metrics.IncError(metrics.ImportStageMappings, err)
		return durations, fmt.Errorf("build address mappings: %w", err)
	}
	return durations, nil
}

func (j *ImportJob) finish(ctx context.Context, run *domain.ImportRun, result domain.ImportResult, durations map[string]any, runErr error) {
	finished := j.clock.Now()
	run.FinishedAt = &finished
	run.MetadataCount = result.MetadataCount
	run.MappingCount = result.MappingCount
	run.Details = datatypes.JSONMap(durations)
	if runErr != nil {
		run.Status = domain.ImportRunFailed
		run.Error = runErr.Error()
		j.metrics.IncRun(metrics.ImportOutcomeFailed)
	} else {
		run.Status = domain.ImportRunSucceeded
		j.metrics.IncRun(metrics.ImportOutcomeSucceeded)
		j.metrics.MarkSuccess(finished, result.MetadataCount)
	}

	if err := j.runs.Update(ctx, j.db, run); err != nil {
		j.log.Error("failed to record import run outcome", zap.String("run_id", run.ID.String()), zap.Error(err))
	}
	if err := j.cache.Purge(ctx); err != nil {
		j.log.Warn("failed to purge view cache", zap.Error(err))
	}
	j.push(ctx)
}

// importLease is the held import lock. A nil locker yields an unguarded lease.
type importLease struct {
	locker ImportLocker
	token  string
	ttl    time.Duration
	log    *zap.Logger
}

// acquire takes the import lock. Without a locker the job runs unguarded.
func (j *ImportJob) acquire(ctx context.Context) (*importLease, error) {
	lease := &importLease{locker: j.locker, ttl: j.lockTTL, log: j.log}
	if j.locker == nil {
		return lease, nil
	}

	token, ok, err := j.locker.TryLock(ctx, importLockKey, j.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire import lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrImportInProgress
	}
	lease.token = token
	return lease, nil
}

// refresh restarts the lock TTL between stages so long imports keep it.
func (l *importLease) refresh(ctx context.Context) {
	if l.locker == nil {
		return
	}
	held, err := l.locker.Refresh(ctx, importLockKey, l.token, l.ttl)
	switch {
	case err != nil:
		l.log.Warn("failed to refresh import lock", zap.Error(err))
	case !held:
		l.log.Warn("import lock expired during the run")
	}
}

func (l *importLease) release(ctx context.Context) {
	if l.locker == nil {
		return
	}
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()
	if err := l.locker.Release(releaseCtx, importLockKey, l.token); err != nil {
		l.log.Warn("failed to release import lock", zap.Error(err))
	}
}

func (j *ImportJob) push(ctx context.Context) {
	if j.pusher == nil || j.metrics == nil {
		return
	}

	registry := prometheus.NewRegistry()
	for _, collector := range j.metrics.Collectors() {
		if err := registry.Register(collector); err != nil {
			j.log.Warn("failed to register import collector", zap.Error(err))
		}
	}

	pushCtx, cancel := context.WithTimeout(ctx, pushMetricsTimeout)
	defer cancel()
	if err := j.pusher.Push(pushCtx, registry); err != nil {
		j.log.Warn("failed to push import metrics", zap.Error(err))
	}
}

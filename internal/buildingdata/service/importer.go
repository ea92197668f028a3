package service

import (
	"context"
	"fmt"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/buildingdata/domain"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/observability/metrics"
	registrydomain "github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/registry/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ImporterParams struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Registry registrydomain.Reader
	Metadata domain.MetadataRepository
	Mappings domain.MappingRepository
	Metrics  *metrics.Metrics `optional:"true"`
}

type Importer struct {
	db       *gorm.DB
	log      *zap.Logger
	registry registrydomain.Reader
	metadata domain.MetadataRepository
	mappings domain.MappingRepository
	metrics  *metrics.Metrics
}

func NewImporter(p ImporterParams) domain.MetadataImporter {
	return &Importer{
		db:       p.DB,
		log:      p.Log.Named("buildingdata.importer"),
		registry: p.Registry,
		metadata: p.Metadata,
		mappings: p.Mappings,
		metrics:  p.Metrics,
	}
}

// Import pages through the active registry buildings and upserts one page per transaction.
// Pages committed before a failure stay in place.
func (s *Importer) Import(ctx context.Context, batchSize int, clearExisting bool) (int64, error) {
	if batchSize < 1 {
		return 0, domain.ErrInvalidBatchSize
	}

	if clearExisting {
		if err := s.clear(ctx); err != nil {
			return 0, err
		}
	}

	total, err := s.registry.CountActiveBuildings(ctx)
	if err != nil {
		return 0, fmt.Errorf("count registry buildings: %w", err)
	}
	s.log.Info("importing building metadata",
		zap.Int64("total", total),
		zap.Int("batch_size", batchSize),
		zap.Bool("clear_existing", clearExisting),
	)

	var processed int64
	for offset := 0; int64(offset) < total; offset += batchSize {
		rows, err := s.registry.FindActiveBuildings(ctx, batchSize, offset)
		if err != nil {
			return processed, fmt.Errorf("read registry batch at offset %d: %w", offset, err)
		}
		if len(rows) == 0 {
			break
		}

		items := make([]domain.BuildingMetadata, 0, len(rows))
		for _, row := range rows {
			items = append(items, domain.MetadataFromRegistry(row))
		}

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return s.metadata.UpsertBatch(ctx, tx, items)
		})
		if err != nil {
			return processed, fmt.Errorf("write metadata batch at offset %d: %w", offset, err)
		}

		processed += int64(len(items))
		s.metrics.RecordBuildingsImported(ctx, len(items))
		s.log.Info("building batch imported",
			zap.Int("offset", offset),
			zap.Int64("total", total),
			zap.Int64("processed", processed),
		)
	}

	return processed, nil
}

func (s *Importer) clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		mappings, err := s.mappings.DeleteAll(ctx, tx)
		if err != nil {
			return fmt.Errorf("clear address mappings: %w", err)
		}
		buildings, err := s.metadata.DeleteAll(ctx, tx)
		if err != nil {
			return fmt.Errorf("clear building metadata: %w", err)
		}
		s.log.Info("existing building data cleared",
			zap.Int64("mappings", mappings),
			zap.Int64("buildings", buildings),
		)
		return nil
	})
}

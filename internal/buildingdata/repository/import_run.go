package repository

import (
	"context"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/buildingdata/domain"
	"gorm.io/gorm"
)

type importRunRepo struct{}

func ProvideImportRun() domain.ImportRunRepository {
	return &importRunRepo{}
}

func (r *importRunRepo) Insert(ctx context.Context, db *gorm.DB, run *domain.ImportRun) error {
	return db.WithContext(ctx).Create(run).Error
}

func (r *importRunRepo) Update(ctx context.Context, db *gorm.DB, run *domain.ImportRun) error {
	return db.WithContext(ctx).
		Model(&domain.ImportRun{}).
		Where("id = ?", run.ID).
		Updates(map[string]any{
			"status":         run.Status,
			"metadata_count": run.MetadataCount,
			"mapping_count":  run.MappingCount,
			"error":          run.Error,
			"finished_at":    run.FinishedAt,
			"details":        run.Details,
		}).Error
}

func (r *importRunRepo) FindLatestSucceeded(ctx context.Context, db *gorm.DB) (*domain.ImportRun, error) {
	var items []domain.ImportRun
	err := db.WithContext(ctx).
		Where("status = ?", domain.ImportRunSucceeded).
		Order("finished_at DESC, id DESC").
		Limit(1).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

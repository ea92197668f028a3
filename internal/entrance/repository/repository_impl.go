package repository

import (
	"context"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/entrance/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) CountAll(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&domain.Entrance{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repo) FindBatch(ctx context.Context, db *gorm.DB, limit, offset int) ([]domain.Entrance, error) {
	var items []domain.Entrance
	err := db.WithContext(ctx).
		Model(&domain.Entrance{}).
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id string) (*domain.Entrance, error) {
	var items []domain.Entrance
	err := db.WithContext(ctx).
		Where("id = ?", id).
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

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, ids []string) ([]domain.Entrance, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []domain.Entrance
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

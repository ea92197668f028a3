package repository

import (
	"context"
	"strings"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/buildingdata/domain"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/pkg/db/option"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	writeChunkSize     = 500
	defaultFinderLimit = 10
)

type metadataRepo struct{}

func ProvideMetadata() domain.MetadataRepository {
	return &metadataRepo{}
}

// UpsertBatch writes items keyed by EGID, replacing rows that already exist.
func (r *metadataRepo) UpsertBatch(ctx context.Context, db *gorm.DB, items []domain.BuildingMetadata) error {
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "egid"}},
			UpdateAll: true,
		}).
		CreateInBatches(items, writeChunkSize).Error
}

func (r *metadataRepo) DeleteAll(ctx context.Context, db *gorm.DB) (int64, error) {
	res := db.WithContext(ctx).Exec(`DELETE FROM building_metadata`)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *metadataRepo) FindByEGID(ctx context.Context, db *gorm.DB, egid string) (*domain.BuildingMetadata, error) {
	return r.findOne(ctx, db, "egid = ?", egid)
}

func (r *metadataRepo) FindByEGRID(ctx context.Context, db *gorm.DB, egrid string) (*domain.BuildingMetadata, error) {
	return r.findOne(ctx, db, "egrid = ?", egrid)
}

func (r *metadataRepo) findOne(ctx context.Context, db *gorm.DB, query string, arg string) (*domain.BuildingMetadata, error) {
	var items []domain.BuildingMetadata
	err := db.WithContext(ctx).
		Where(query, arg).
		Order("egid ASC").
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

func (r *metadataRepo) FindByEGIDs(ctx context.Context, db *gorm.DB, egids []string) ([]domain.BuildingMetadata, error) {
	if len(egids) == 0 {
		return nil, nil
	}
	var items []domain.BuildingMetadata
	if err := db.WithContext(ctx).Where("egid IN ?", egids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *metadataRepo) ExistingEGIDs(ctx context.Context, db *gorm.DB, egids []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{}, len(egids))
	if len(egids) == 0 {
		return existing, nil
	}
	var found []string
	err := db.WithContext(ctx).
		Model(&domain.BuildingMetadata{}).
		Where("egid IN ?", egids).
		Pluck("egid", &found).Error
	if err != nil {
		return nil, err
	}
	for _, egid := range found {
		existing[egid] = struct{}{}
	}
	return existing, nil
}

func (r *metadataRepo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, page pagination.Pagination, cursor *pagination.Cursor) ([]domain.BuildingMetadata, error) {
	var items []domain.BuildingMetadata
	stmt := applyFilter(db.WithContext(ctx).Model(&domain.BuildingMetadata{}), filter)
	stmt = option.ApplyPagination(page, cursor, "egid").Apply(stmt)
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *metadataRepo) FindLimited(ctx context.Context, db *gorm.DB, filter domain.ListFilter, limit int) ([]domain.BuildingMetadata, error) {
	var items []domain.BuildingMetadata
	stmt := applyFilter(db.WithContext(ctx).Model(&domain.BuildingMetadata{}), filter)
	stmt = option.Limit(limit, defaultFinderLimit).Apply(stmt)
	if err := stmt.Order("egid ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *metadataRepo) CountTotal(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&domain.BuildingMetadata{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func applyFilter(stmt *gorm.DB, filter domain.ListFilter) *gorm.DB {
	if v := strings.TrimSpace(filter.Canton); v != "" {
		stmt = stmt.Where("gdekt = ?", strings.ToUpper(v))
	}
	if v := strings.TrimSpace(filter.MunicipalityCode); v != "" {
		stmt = stmt.Where("ggdenr = ?", v)
	}
	if v := strings.TrimSpace(filter.Status); v != "" {
		stmt = stmt.Where("gstat = ?", v)
	}
	if v := strings.TrimSpace(filter.Category); v != "" {
		stmt = stmt.Where("gkat = ?", v)
	}
	if v := strings.TrimSpace(filter.YearFrom); v != "" {
		stmt = stmt.Where("gbauj >= ?", v)
	}
	if v := strings.TrimSpace(filter.YearTo); v != "" {
		stmt = stmt.Where("gbauj <= ?", v)
	}
	return stmt
}

package repository

import (
	"context"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/buildingdata/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type mappingRepo struct{}

func ProvideMapping() domain.MappingRepository {
	return &mappingRepo{}
}

func (r *mappingRepo) Exists(ctx context.Context, db *gorm.DB, egid, buildingEntranceID string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.AddressMapping{}).
		Where("egid = ? AND building_entrance_id = ?", egid, buildingEntranceID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ExistingKeys returns the mapped (egid, entrance) pairs among the given entrances.
func (r *mappingRepo) ExistingKeys(ctx context.Context, db *gorm.DB, buildingEntranceIDs []string) (map[domain.MappingKey]struct{}, error) {
	keys := make(map[domain.MappingKey]struct{}, len(buildingEntranceIDs))
	if len(buildingEntranceIDs) == 0 {
		return keys, nil
	}
	var rows []domain.MappingKey
	err := db.WithContext(ctx).
		Model(&domain.AddressMapping{}).
		Select("egid, building_entrance_id").
		Where("building_entrance_id IN ?", buildingEntranceIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		keys[row] = struct{}{}
	}
	return keys, nil
}

func (r *mappingRepo) Create(ctx context.Context, db *gorm.DB, mapping *domain.AddressMapping) error {
	return db.WithContext(ctx).Create(mapping).Error
}

// CreateBatch inserts mappings and skips pairs that already exist. It returns the rows written.
func (r *mappingRepo) CreateBatch(ctx context.Context, db *gorm.DB, mappings []domain.AddressMapping) (int64, error) {
	if len(mappings) == 0 {
		return 0, nil
	}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "egid"}, {Name: "building_entrance_id"}},
			DoNothing: true,
		}).
		CreateInBatches(mappings, writeChunkSize)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *mappingRepo) FindByEGID(ctx context.Context, db *gorm.DB, egid string) ([]domain.AddressMapping, error) {
	var items []domain.AddressMapping
	err := db.WithContext(ctx).
		Where("egid = ?", egid).
		Order("is_primary_entrance DESC, entrance_id ASC, created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *mappingRepo) FindByEntrance(ctx context.Context, db *gorm.DB, buildingEntranceID string) (*domain.AddressMapping, error) {
	return r.findOne(ctx, db.Where("building_entrance_id = ?", buildingEntranceID))
}

func (r *mappingRepo) FindPrimary(ctx context.Context, db *gorm.DB, egid string) (*domain.AddressMapping, error) {
	return r.findOne(ctx, db.Where("egid = ? AND is_primary_entrance = ?", egid, true))
}

func (r *mappingRepo) findOne(ctx context.Context, stmt *gorm.DB) (*domain.AddressMapping, error) {
	var items []domain.AddressMapping
	if err := stmt.WithContext(ctx).Order("created_at ASC").Limit(1).Find(&items).Error; err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

// SetPrimaryEntrance moves the primary flag inside one transaction. When the entrance
// is not mapped to egid the transaction rolls back and ErrEntranceNotMapped is returned.
func (r *mappingRepo) SetPrimaryEntrance(ctx context.Context, db *gorm.DB, egid, buildingEntranceID string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			`UPDATE building_address_mapping SET is_primary_entrance = ? WHERE egid = ?`,
			false, egid,
		).Error; err != nil {
			return err
		}
		res := tx.Exec(
			`UPDATE building_address_mapping SET is_primary_entrance = ? WHERE egid = ? AND building_entrance_id = ?`,
			true, egid, buildingEntranceID,
		)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrEntranceNotMapped
		}
		return nil
	})
}

func (r *mappingRepo) CountTotal(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&domain.AddressMapping{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *mappingRepo) DeleteAll(ctx context.Context, db *gorm.DB) (int64, error) {
	res := db.WithContext(ctx).Exec(`DELETE FROM building_address_mapping`)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

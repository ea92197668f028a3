package domain

import (
	"context"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/pkg/db/pagination"
	"gorm.io/gorm"
)

// ListFilter narrows metadata listings. Empty fields are ignored.
type ListFilter struct {
	Canton           string
	MunicipalityCode string
	Status           string
	Category         string
	YearFrom         string
	YearTo           string
}

type MetadataRepository interface {
	UpsertBatch(ctx context.Context, db *gorm.DB, items []BuildingMetadata) error
	DeleteAll(ctx context.Context, db *gorm.DB) (int64, error)
	FindByEGID(ctx context.Context, db *gorm.DB, egid string) (*BuildingMetadata, error)
	FindByEGRID(ctx context.Context, db *gorm.DB, egrid string) (*BuildingMetadata, error)
	FindByEGIDs(ctx context.Context, db *gorm.DB, egids []string) ([]BuildingMetadata, error)
	ExistingEGIDs(ctx context.Context, db *gorm.DB, egids []string) (map[string]struct{}, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter, page pagination.Pagination, cursor *pagination.Cursor) ([]BuildingMetadata, error)
	FindLimited(ctx context.Context, db *gorm.DB, filter ListFilter, limit int) ([]BuildingMetadata, error)
	CountTotal(ctx context.Context, db *gorm.DB) (int64, error)
}

type MappingRepository interface {
	Exists(ctx context.Context, db *gorm.DB, egid, buildingEntranceID string) (bool, error)
	ExistingKeys(ctx context.Context, db *gorm.DB, buildingEntranceIDs []string) (map[MappingKey]struct{}, error)
	Create(ctx context.Context, db *gorm.DB, mapping *AddressMapping) error
	CreateBatch(ctx context.Context, db *gorm.DB, mappings []AddressMapping) (int64, error)
	FindByEGID(ctx context.Context, db *gorm.DB, egid string) ([]AddressMapping, error)
	FindByEntrance(ctx context.Context, db *gorm.DB, buildingEntranceID string) (*AddressMapping, error)
	FindPrimary(ctx context.Context, db *gorm.DB, egid string) (*AddressMapping, error)
	SetPrimaryEntrance(ctx context.Context, db *gorm.DB, egid, buildingEntranceID string) error
	CountTotal(ctx context.Context, db *gorm.DB) (int64, error)
	DeleteAll(ctx context.Context, db *gorm.DB) (int64, error)
}

type ImportRunRepository interface {
	Insert(ctx context.Context, db *gorm.DB, run *ImportRun) error
	Update(ctx context.Context, db *gorm.DB, run *ImportRun) error
	FindLatestSucceeded(ctx context.Context, db *gorm.DB) (*ImportRun, error)
}

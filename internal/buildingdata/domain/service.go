package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	entrancedomain "github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/entrance/domain"
)

const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 100
	MaxExportRows      = 10000
)

// MetadataImporter copies active registry buildings into the target store.
type MetadataImporter interface {
	Import(ctx context.Context, batchSize int, clearExisting bool) (int64, error)
}

type CreateMappingRequest struct {
	EGID               string
	BuildingEntranceID string
	EntranceID         string
	IsPrimary          bool
}

// MappingService maintains building to entrance links.
type MappingService interface {
	BuildMappings(ctx context.Context, batchSize int) (int64, error)
	CreateMapping(ctx context.Context, req CreateMappingRequest) (*AddressMapping, error)
	SetPrimaryEntrance(ctx context.Context, egid, buildingEntranceID string) error
	FindPrimaryEntrance(ctx context.Context, egid string) (*entrancedomain.Entrance, error)
}

type ImportOptions struct {
	BatchSize     int
	ClearExisting bool
	SkipMappings  bool
}

type ImportResult struct {
	RunID         snowflake.ID
	MetadataCount int64
	MappingCount  int64
}

// ImportJob runs one guarded import followed by the mapping build.
type ImportJob interface {
	Run(ctx context.Context, opts ImportOptions) (ImportResult, error)
}

type AddressRequest struct {
	ID                  string
	IncludeAllEntrances bool
}

type SearchRequest struct {
	Street      string
	HouseNumber string
	PostalCode  string
	Locality    string
	Address     string
	Limit       int
}

type ListRequest struct {
	Filter    ListFilter
	PageToken string
	PageSize  int
}

type QueryService interface {
	GetByEGID(ctx context.Context, egid string) (*BuildingView, error)
	GetByEGRID(ctx context.Context, egrid string) (*BuildingView, error)
	GetAddress(ctx context.Context, req AddressRequest) (*AddressView, error)
	Search(ctx context.Context, req SearchRequest) (*SearchResult, error)
	List(ctx context.Context, req ListRequest) (*ListResponse, error)
	Export(ctx context.Context, filter ListFilter) ([]BuildingSummary, error)
}

type StatsService interface {
	Compute(ctx context.Context) (Stats, error)
	Report(ctx context.Context) (*StatsView, error)
}

// Place is one ranked hit of the address search collaborator.
type Place struct {
	ID            string
	StreetAddress string
	PostalCode    string
	Locality      string
	Region        string
	Latitude      *float64
	Longitude     *float64
	BuildingID    string
	Score         float64
}

type PlaceSearcher interface {
	SearchPlaces(ctx context.Context, query string, limit int) ([]Place, error)
}

const (
	CacheKindBuilding = "building"
	CacheKindAddress  = "address"
	CacheKindSearch   = "search"
)

// ViewCache stores composed views. Implementations swallow their own failures.
type ViewCache interface {
	Get(ctx context.Context, kind, id string, dest any) bool
	Set(ctx context.Context, kind, id string, value any)
	Invalidate(ctx context.Context, kind string, ids ...string)
	Purge(ctx context.Context) error
}

type NoopViewCache struct{}

func (NoopViewCache) Get(context.Context, string, string, any) bool { return false }
func (NoopViewCache) Set(context.Context, string, string, any)      {}
func (NoopViewCache) Invalidate(context.Context, string, ...string) {}
func (NoopViewCache) Purge(context.Context) error                   { return nil }

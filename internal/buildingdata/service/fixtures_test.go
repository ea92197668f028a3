package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/buildingdata/domain"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/buildingdata/repository"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/clock"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/config"
	entrancedomain "github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/entrance/domain"
	entrancerepository "github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/entrance/repository"
	registrydomain "github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/registry/domain"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/pkg/db/dbtest"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	entranceMain  = "6f1c2a9e-5b1d-4a53-9c51-000000000001"
	entranceSide  = "6f1c2a9e-5b1d-4a53-9c51-000000000002"
	entranceOther = "6f1c2a9e-5b1d-4a53-9c51-000000000003"
	entranceLoose = "6f1c2a9e-5b1d-4a53-9c51-000000000004"
)

var fixedNow = time.Date(2025, 1, 6, 6, 0, 0, 0, time.UTC)

type fixture struct {
	db        *gorm.DB
	clock     *clock.FakeClock
	metadata  domain.MetadataRepository
	mappings  domain.MappingRepository
	runs      domain.ImportRunRepository
	entrances entrancedomain.Repository
	cache     *memoryCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		db:        dbtest.Open(t, &domain.BuildingMetadata{}, &domain.AddressMapping{}, &domain.ImportRun{}, &entrancedomain.Entrance{}),
		clock:     clock.NewFakeClock(fixedNow),
		metadata:  repository.ProvideMetadata(),
		mappings:  repository.ProvideMapping(),
		runs:      repository.ProvideImportRun(),
		entrances: entrancerepository.Provide(),
		cache:     newMemoryCache(),
	}
}

func (f *fixture) importer(reader registrydomain.Reader) domain.MetadataImporter {
	return NewImporter(ImporterParams{
		DB:       f.db,
		Log:      zap.NewNop(),
		Registry: reader,
		Metadata: f.metadata,
		Mappings: f.mappings,
	})
}

func (f *fixture) mapper() domain.MappingService {
	return NewMappingService(MappingParams{
		DB:        f.db,
		Log:       zap.NewNop(),
		Clock:     f.clock,
		Entrances: f.entrances,
		Metadata:  f.metadata,
		Mappings:  f.mappings,
		Cache:     f.cache,
	})
}

func (f *fixture) query(places domain.PlaceSearcher) domain.QueryService {
	return NewQueryService(QueryParams{
		DB:        f.db,
		Log:       zap.NewNop(),
		Metadata:  f.metadata,
		Mappings:  f.mappings,
		Entrances: f.entrances,
		Places:    places,
		Cache:     f.cache,
		Tuning:    config.NewStaticTuningHolder(config.DefaultTuning()),
	})
}

func (f *fixture) stats() domain.StatsService {
	return NewStatsService(StatsParams{
		DB:       f.db,
		Log:      zap.NewNop(),
		Clock:    f.clock,
		Metadata: f.metadata,
		Mappings: f.mappings,
		Runs:     f.runs,
	})
}

func (f *fixture) seedBuildings(t *testing.T, items ...domain.BuildingMetadata) {
	t.Helper()
	require.NoError(t, f.metadata.UpsertBatch(context.Background(), f.db, items))
}

func (f *fixture) seedEntrances(t *testing.T, items ...entrancedomain.Entrance) {
	t.Helper()
	require.NoError(t, f.db.Create(&items).Error)
}

func (f *fixture) seedMapping(t *testing.T, egid, entranceRef, seq string, primary bool) {
	t.Helper()
	require.NoError(t, f.mappings.Create(context.Background(), f.db, &domain.AddressMapping{
		ID:                 entranceRef + "-m",
		EGID:               egid,
		BuildingEntranceID: entranceRef,
		EntranceID:         seq,
		IsPrimaryEntrance:  primary,
		CreatedAt:          fixedNow,
	}))
}

func metadataRow(egid string) domain.BuildingMetadata {
	return domain.BuildingMetadata{
		EGID:     egid,
		EGRID:    "CH" + padEGRID(egid),
		GDEKT:    "ZH",
		GGDENR:   "261",
		GGDENAME: "Zürich",
		GSTAT:    "1004",
		GKAT:     "1020",
		GKLAS:    "1122",
		GBAUJ:    "1965",
		GWAERZH1: "7410",
		GENH1:    "7520",
	}
}

func padEGRID(egid string) string {
	out := "000000000000" + egid
	return out[len(out)-12:]
}

func entrance(id, egid, seq, street, number string) entrancedomain.Entrance {
	lat, lon := 47.3769, 8.5417
	return entrancedomain.Entrance{
		ID:                id,
		BuildingID:        egid,
		EntranceID:        seq,
		StreetName:        street,
		StreetHouseNumber: number,
		AddressPostalCode: "8001",
		AddressLocality:   "Zürich",
		AddressCanton:     "ZH",
		Latitude:          &lat,
		Longitude:         &lon,
	}
}

func newNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return node
}

// registryStub serves a fixed slice of active buildings.
type registryStub struct {
	rows  []registrydomain.Building
	pages int
	err   error
}

func (r *registryStub) CountActiveBuildings(context.Context) (int64, error) {
	return int64(len(r.rows)), nil
}

func (r *registryStub) FindActiveBuildings(_ context.Context, limit, offset int) ([]registrydomain.Building, error) {
	r.pages++
	if r.err != nil && r.pages > 1 {
		return nil, r.err
	}
	if offset >= len(r.rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(r.rows) {
		end = len(r.rows)
	}
	return r.rows[offset:end], nil
}

func (r *registryStub) FindByEGID(_ context.Context, egid string) (*registrydomain.Building, error) {
	for i := range r.rows {
		if r.rows[i].EGID == egid {
			return &r.rows[i], nil
		}
	}
	return nil, nil
}

type placeSearcherMock struct {
	mock.Mock
}

func (m *placeSearcherMock) SearchPlaces(ctx context.Context, query string, limit int) ([]domain.Place, error) {
	args := m.Called(ctx, query, limit)
	places, _ := args.Get(0).([]domain.Place)
	return places, args.Error(1)
}

// memoryCache is a ViewCache that keeps JSON payloads in a map.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	purges  int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, kind, id string, dest any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[kind+"/"+id]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (c *memoryCache) Set(_ context.Context, kind, id string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[kind+"/"+id] = raw
}

func (c *memoryCache) Invalidate(_ context.Context, kind string, ids ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.entries, kind+"/"+id)
	}
}

func (c *memoryCache) Purge(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string][]byte{}
	c.purges++
	return nil
}

func (c *memoryCache) has(kind, id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[kind+"/"+id]
	return ok
}

// failingMetadataRepo fails the failOn-th UpsertBatch and delegates everything else.
type failingMetadataRepo struct {
	domain.MetadataRepository
	failOn int
	calls  int
	err    error
}

func (r *failingMetadataRepo) UpsertBatch(ctx context.Context, db *gorm.DB, items []domain.BuildingMetadata) error {
	r.calls++
	if r.calls == r.failOn {
		return r.err
	}
	return r.MetadataRepository.UpsertBatch(ctx, db, items)
}

// failingMappingRepo fails the failOn-th CreateBatch and delegates everything else.
type failingMappingRepo struct {
	domain.MappingRepository
	failOn int
	calls  int
	err    error
}

func (r *failingMappingRepo) CreateBatch(ctx context.Context, db *gorm.DB, mappings []domain.AddressMapping) (int64, error) {
	r.calls++
	if r.calls == r.failOn {
		return 0, r.err
	}
	return r.MappingRepository.CreateBatch(ctx, db, mappings)
}

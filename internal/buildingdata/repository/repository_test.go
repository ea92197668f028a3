package repository

import (
	"context"
	"testing"
	"time"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/buildingdata/domain"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/pkg/db/dbtest"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func openStore(t *testing.T) *gorm.DB {
	t.Helper()
	return dbtest.Open(t, &domain.BuildingMetadata{}, &domain.AddressMapping{}, &domain.ImportRun{})
}

func building(egid, canton, year string) domain.BuildingMetadata {
	return domain.BuildingMetadata{EGID: egid, GDEKT: canton, GBAUJ: year, GSTAT: "1004", EGRID: "CH" + egid}
}

func TestMetadataUpsertOverwritesByEGID(t *testing.T) {
	conn := openStore(t)
	repo := ProvideMetadata()
	ctx := context.Background()

	require.NoError(t, repo.UpsertBatch(ctx, conn, []domain.BuildingMetadata{
		building("1", "ZH", "1950"),
		building("2", "BE", "2001"),
	}))
	updated := building("1", "ZH", "1951")
	updated.GBEZ = "Neubau"
	require.NoError(t, repo.UpsertBatch(ctx, conn, []domain.BuildingMetadata{updated}))

	count, err := repo.CountTotal(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	got, err := repo.FindByEGID(ctx, conn, "1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "1951", got.GBAUJ)
	assert.Equal(t, "Neubau", got.GBEZ)

	byEgrid, err := repo.FindByEGRID(ctx, conn, "CH2")
	require.NoError(t, err)
	require.NotNil(t, byEgrid)
	assert.Equal(t, "2", byEgrid.EGID)

	missing, err := repo.FindByEGID(ctx, conn, "3")
	require.NoError(t, err)
	assert.Nil(t, missing)

	existing, err := repo.ExistingEGIDs(ctx, conn, []string{"1", "3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"1": {}}, existing)
}

func TestMetadataListFiltersAndPages(t *testing.T) {
	conn := openStore(t)
	repo := ProvideMetadata()
	ctx := context.Background()

	require.NoError(t, repo.UpsertBatch(ctx, conn, []domain.BuildingMetadata{
		building("10", "ZH", "1950"),
		building("11", "ZH", "1980"),
		building("12", "ZH", "2010"),
		building("13", "BE", "1980"),
	}))

	filter := domain.ListFilter{Canton: "zh", YearFrom: "1960"}
	page := pagination.Pagination{PageSize: 1}
	first, err := repo.List(ctx, conn, filter, page, nil)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "11", first[0].EGID)

	next, err := repo.List(ctx, conn, filter, page, &pagination.Cursor{After: "11"})
	require.NoError(t, err)
	require.Len(t, next, 1)
	assert.Equal(t, "12", next[0].EGID)

	limited, err := repo.FindLimited(ctx, conn, domain.ListFilter{YearFrom: "1980", YearTo: "1980"}, 0)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestMappingLifecycle(t *testing.T) {
	conn := openStore(t)
	metadata := ProvideMetadata()
	repo := ProvideMapping()
	ctx := context.Background()
	now := time.Date(2025, 1, 6, 6, 0, 0, 0, time.UTC)

	require.NoError(t, metadata.UpsertBatch(ctx, conn, []domain.BuildingMetadata{building("150404", "ZH", "1965")}))

	created, err := repo.CreateBatch(ctx, conn, []domain.AddressMapping{
		{ID: "m0", EGID: "150404", BuildingEntranceID: "entrance-y", EntranceID: "0", IsPrimaryEntrance: true, CreatedAt: now},
		{ID: "m1", EGID: "150404", BuildingEntranceID: "entrance-x", EntranceID: "1", CreatedAt: now},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), created)

	again, err := repo.CreateBatch(ctx, conn, []domain.AddressMapping{
		{ID: "m2", EGID: "150404", BuildingEntranceID: "entrance-x", EntranceID: "1", CreatedAt: now},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), again)

	exists, err := repo.Exists(ctx, conn, "150404", "entrance-x")
	require.NoError(t, err)
	assert.True(t, exists)

	keys, err := repo.ExistingKeys(ctx, conn, []string{"entrance-x", "entrance-z"})
	require.NoError(t, err)
	assert.Equal(t, map[domain.MappingKey]struct{}{{EGID: "150404", BuildingEntranceID: "entrance-x"}: {}}, keys)

	require.NoError(t, repo.SetPrimaryEntrance(ctx, conn, "150404", "entrance-x"))
	primary, err := repo.FindPrimary(ctx, conn, "150404")
	require.NoError(t, err)
	require.NotNil(t, primary)
	assert.Equal(t, "entrance-x", primary.BuildingEntranceID)

	all, err := repo.FindByEGID(ctx, conn, "150404")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "entrance-x", all[0].BuildingEntranceID)
	assert.False(t, all[1].IsPrimaryEntrance)

	err = repo.SetPrimaryEntrance(ctx, conn, "150404", "entrance-z")
	require.ErrorIs(t, err, domain.ErrEntranceNotMapped)
	primary, err = repo.FindPrimary(ctx, conn, "150404")
	require.NoError(t, err)
	require.NotNil(t, primary)
	assert.Equal(t, "entrance-x", primary.BuildingEntranceID)

	byEntrance, err := repo.FindByEntrance(ctx, conn, "entrance-y")
	require.NoError(t, err)
	require.NotNil(t, byEntrance)
	assert.Equal(t, "150404", byEntrance.EGID)

	deleted, err := repo.DeleteAll(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	total, err := repo.CountTotal(ctx, conn)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestImportRunLatestSucceeded(t *testing.T) {
	conn := openStore(t)
	repo := ProvideImportRun()
	ctx := context.Background()
	start := time.Date(2025, 1, 6, 2, 0, 0, 0, time.UTC)

	none, err := repo.FindLatestSucceeded(ctx, conn)
	require.NoError(t, err)
	assert.Nil(t, none)

	run := &domain.ImportRun{ID: 1, Status: domain.ImportRunRunning, BatchSize: 1000, StartedAt: start}
	require.NoError(t, repo.Insert(ctx, conn, run))
	require.NoError(t, repo.Insert(ctx, conn, &domain.ImportRun{ID: 2, Status: domain.ImportRunFailed, BatchSize: 1000, StartedAt: start}))

	finished := start.Add(time.Hour)
	run.Status = domain.ImportRunSucceeded
	run.MetadataCount = 42
	run.FinishedAt = &finished
	require.NoError(t, repo.Update(ctx, conn, run))

	latest, err := repo.FindLatestSucceeded(ctx, conn)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, int64(42), latest.MetadataCount)
	require.NotNil(t, latest.FinishedAt)
	assert.True(t, finished.Equal(*latest.FinishedAt))
}

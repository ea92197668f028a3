package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/buildingdata/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMappingsLinksImportedBuildingsOnly(t *testing.T) {
	f := newFixture(t)
	f.seedBuildings(t, metadataRow("150404"))
	f.seedEntrances(t,
		entrance(entranceMain, "150404", "0", "Bahnhofstrasse", "1"),
		entrance(entranceSide, "150404", "1", "Bahnhofstrasse", "1a"),
		entrance(entranceOther, "777", "0", "Limmatquai", "2"),
		entrance(entranceLoose, "", "0", "Unbekannt", ""),
	)
	svc := f.mapper()
	ctx := context.Background()

	created, err := svc.BuildMappings(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), created)

	items, err := f.mappings.FindByEGID(ctx, f.db, "150404")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, entranceMain, items[0].BuildingEntranceID)
	assert.True(t, items[0].IsPrimaryEntrance)
	assert.False(t, items[1].IsPrimaryEntrance)
	assert.True(t, fixedNow.Equal(items[0].CreatedAt))

	again, err := svc.BuildMappings(ctx, 2)
	require.NoError(t, err)
	assert.Zero(t, again)
	total, err := f.mappings.CountTotal(ctx, f.db)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestBuildMappingsAbortsOnWriteFailureKeepingEarlierBatches(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("disk full")
	f.seedBuildings(t, metadataRow("1"), metadataRow("2"), metadataRow("3"))
	f.seedEntrances(t,
		entrance(entranceMain, "1", "0", "Bahnhofstrasse", "1"),
		entrance(entranceSide, "2", "0", "Bahnhofstrasse", "2"),
		entrance(entranceOther, "3", "0", "Bahnhofstrasse", "3"),
	)
	f.mappings = &failingMappingRepo{MappingRepository: f.mappings, failOn: 2, err: boom}

	created, err := f.mapper().BuildMappings(context.Background(), 1)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int64(1), created)

	total, err := f.mappings.CountTotal(context.Background(), f.db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestBuildMappingsKeepsExistingPrimaryFlag(t *testing.T) {
	f := newFixture(t)
	f.seedBuildings(t, metadataRow("150404"))
	f.seedEntrances(t,
		entrance(entranceMain, "150404", "0", "Bahnhofstrasse", "1"),
		entrance(entranceSide, "150404", "1", "Bahnhofstrasse", "1a"),
	)
	f.seedMapping(t, "150404", entranceMain, "0", false)

	created, err := f.mapper().BuildMappings(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), created)

	primary, err := f.mappings.FindPrimary(context.Background(), f.db, "150404")
	require.NoError(t, err)
	assert.Nil(t, primary)
}

func TestSetPrimaryEntranceMovesFlag(t *testing.T) {
	f := newFixture(t)
	f.seedBuildings(t, metadataRow("150404"))
	f.seedEntrances(t,
		entrance(entranceMain, "150404", "0", "Bahnhofstrasse", "1"),
		entrance(entranceSide, "150404", "1", "Bahnhofstrasse", "1a"),
	)
	f.seedMapping(t, "150404", entranceMain, "0", true)
	f.seedMapping(t, "150404", entranceSide, "1", false)
	f.cache.Set(context.Background(), domain.CacheKindBuilding, "150404", map[string]string{"egid": "150404"})
	f.cache.Set(context.Background(), domain.CacheKindAddress, addressCacheID(entranceMain, true), map[string]string{})
	svc := f.mapper()

	require.NoError(t, svc.SetPrimaryEntrance(context.Background(), "150404", entranceSide))

	items, err := f.mappings.FindByEGID(context.Background(), f.db, "150404")
	require.NoError(t, err)
	flags := map[string]bool{}
	for _, item := range items {
		flags[item.BuildingEntranceID] = item.IsPrimaryEntrance
	}
	assert.Equal(t, map[string]bool{entranceMain: false, entranceSide: true}, flags)
	assert.False(t, f.cache.has(domain.CacheKindBuilding, "150404"))
	assert.False(t, f.cache.has(domain.CacheKindAddress, addressCacheID(entranceMain, true)))

	primary, err := svc.FindPrimaryEntrance(context.Background(), "150404")
	require.NoError(t, err)
	require.NotNil(t, primary)
	assert.Equal(t, "1", primary.EntranceID)
}

func TestSetPrimaryEntranceValidation(t *testing.T) {
	f := newFixture(t)
	f.seedBuildings(t, metadataRow("150404"))
	f.seedEntrances(t, entrance(entranceMain, "150404", "0", "Bahnhofstrasse", "1"))
	f.seedMapping(t, "150404", entranceMain, "0", true)
	svc := f.mapper()
	ctx := context.Background()

	tests := []struct {
		name     string
		egid     string
		entrance string
		want     error
	}{
		{name: "invalid egid", egid: "15a", entrance: entranceMain, want: domain.ErrInvalidEGID},
		{name: "invalid entrance", egid: "150404", entrance: "nope", want: domain.ErrInvalidEntranceID},
		{name: "unknown building", egid: "42", entrance: entranceMain, want: domain.ErrBuildingNotFound},
		{name: "entrance not mapped", egid: "150404", entrance: entranceSide, want: domain.ErrEntranceNotMapped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.SetPrimaryEntrance(ctx, tt.egid, tt.entrance)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	primary, err := f.mappings.FindPrimary(ctx, f.db, "150404")
	require.NoError(t, err)
	require.NotNil(t, primary)
	assert.Equal(t, entranceMain, primary.BuildingEntranceID)
}

func TestCreateMapping(t *testing.T) {
	f := newFixture(t)
	f.seedBuildings(t, metadataRow("150404"))
	f.seedEntrances(t, entrance(entranceSide, "150404", "1", "Bahnhofstrasse", "1a"))
	svc := f.mapper()
	ctx := context.Background()

	created, err := svc.CreateMapping(ctx, domain.CreateMappingRequest{EGID: "150404", BuildingEntranceID: entranceSide})
	require.NoError(t, err)
	assert.Equal(t, "1", created.EntranceID)
	assert.False(t, created.IsPrimaryEntrance)

	again, err := svc.CreateMapping(ctx, domain.CreateMappingRequest{EGID: "150404", BuildingEntranceID: entranceSide, IsPrimary: true})
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.False(t, again.IsPrimaryEntrance)

	_, err = svc.CreateMapping(ctx, domain.CreateMappingRequest{EGID: "1", BuildingEntranceID: entranceSide})
	assert.ErrorIs(t, err, domain.ErrBuildingNotFound)
	_, err = svc.CreateMapping(ctx, domain.CreateMappingRequest{EGID: "150404", BuildingEntranceID: entranceOther})
	assert.ErrorIs(t, err, domain.ErrAddressNotFound)
}

func TestCreatePrimaryMappingTakesFlagFromCurrentPrimary(t *testing.T) {
	f := newFixture(t)
	f.seedBuildings(t, metadataRow("150404"))
	f.seedEntrances(t,
		entrance(entranceMain, "150404", "0", "Bahnhofstrasse", "1"),
		entrance(entranceSide, "150404", "1", "Bahnhofstrasse", "1a"),
	)
	f.seedMapping(t, "150404", entranceMain, "0", true)
	svc := f.mapper()
	ctx := context.Background()

	created, err := svc.CreateMapping(ctx, domain.CreateMappingRequest{EGID: "150404", BuildingEntranceID: entranceSide, IsPrimary: true})
	require.NoError(t, err)
	assert.True(t, created.IsPrimaryEntrance)

	var primaries int64
	require.NoError(t, f.db.Model(&domain.AddressMapping{}).
		Where("egid = ? AND is_primary_entrance = ?", "150404", true).
		Count(&primaries).Error)
	assert.Equal(t, int64(1), primaries)

	primary, err := f.mappings.FindPrimary(ctx, f.db, "150404")
	require.NoError(t, err)
	require.NotNil(t, primary)
	assert.Equal(t, entranceSide, primary.BuildingEntranceID)
}

func TestCreateMappingPurgesSiblingAddressViews(t *testing.T) {
	f := newFixture(t)
	f.seedBuildings(t, metadataRow("150404"))
	f.seedEntrances(t,
		entrance(entranceMain, "150404", "0", "Bahnhofstrasse", "1"),
		entrance(entranceSide, "150404", "1", "Bahnhofstrasse", "1a"),
	)
	f.seedMapping(t, "150404", entranceMain, "0", true)
	ctx := context.Background()
	f.cache.Set(ctx, domain.CacheKindBuilding, "150404", map[string]string{})
	f.cache.Set(ctx, domain.CacheKindAddress, addressCacheID(entranceMain, true), map[string]string{})
	f.cache.Set(ctx, domain.CacheKindAddress, addressCacheID(entranceMain, false), map[string]string{})

	_, err := f.mapper().CreateMapping(ctx, domain.CreateMappingRequest{EGID: "150404", BuildingEntranceID: entranceSide})
	require.NoError(t, err)

	assert.False(t, f.cache.has(domain.CacheKindBuilding, "150404"))
	assert.False(t, f.cache.has(domain.CacheKindAddress, addressCacheID(entranceMain, true)))
	assert.False(t, f.cache.has(domain.CacheKindAddress, addressCacheID(entranceMain, false)))
}

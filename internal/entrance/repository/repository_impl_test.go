package repository

import (
	"context"
	"testing"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/entrance/domain"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepositoryBatchesInIDOrder(t *testing.T) {
	conn := dbtest.Open(t, &domain.Entrance{})
	ctx := context.Background()
	lat, lon := 47.37, 8.54

	require.NoError(t, conn.Create(&[]domain.Entrance{
		{ID: "00000000-0000-0000-0000-000000000003", BuildingID: "150404", EntranceID: "1", StreetName: "Limmatquai", StreetHouseNumber: "3"},
		{ID: "00000000-0000-0000-0000-000000000001", BuildingID: "150404", EntranceID: "0", StreetName: "Limmatquai", StreetHouseNumber: "1", Latitude: &lat, Longitude: &lon},
		{ID: "00000000-0000-0000-0000-000000000002", BuildingID: "42", EntranceID: "0", StreetName: "Bahnhofstrasse", StreetHouseNumber: ""},
	}).Error)

	repo := Provide()

	count, err := repo.CountAll(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	page, err := repo.FindBatch(ctx, conn, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "00000000-0000-0000-0000-000000000001", page[0].ID)
	assert.True(t, page[0].HasCoordinates())
	assert.Equal(t, "Bahnhofstrasse", page[1].StreetAddress())

	rest, err := repo.FindBatch(ctx, conn, 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.False(t, rest[0].HasCoordinates())

	found, err := repo.FindByID(ctx, conn, "00000000-0000-0000-0000-000000000003")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Limmatquai 3", found.StreetAddress())

	missing, err := repo.FindByID(ctx, conn, "00000000-0000-0000-0000-0000000000ff")
	require.NoError(t, err)
	assert.Nil(t, missing)

	many, err := repo.FindByIDs(ctx, conn, []string{"00000000-0000-0000-0000-000000000001", "00000000-0000-0000-0000-000000000002"})
	require.NoError(t, err)
	assert.Len(t, many, 2)

	none, err := repo.FindByIDs(ctx, conn, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

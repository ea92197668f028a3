package pdf

import (
	"bytes"
	"context"
	"testing"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/buildingdata/domain"
	"github.com/stretchr/testify/require"
)

func TestFactsheetRendersPDF(t *testing.T) {
	updated := "2021-03-04"
	view := &domain.BuildingView{
		BuildingCore: domain.BuildingCore{
			EGID:   "150404",
			EGRID:  "CH123456789012",
			Status: "1004",
			Construction: domain.ConstructionView{
				Year:     "1967",
				Category: "1020",
			},
			PhysicalCharacteristics: domain.PhysicalView{Area: "220", Floors: "3"},
			EnergySystems: domain.EnergySystemsView{
				Heating: []domain.EnergySystemView{{HeatGenerator: "7410", EnergySource: "7520", LastUpdated: &updated}},
			},
			Location: domain.LocationView{Canton: "ZH", MunicipalityCode: "261", MunicipalityName: "Zürich"},
		},
		Addresses: []domain.BuildingAddress{
			{StreetAddress: "Bahnhofstrasse 1", PostalCode: "8001", Locality: "Zürich", IsPrimary: true},
			{StreetAddress: "Bahnhofstrasse 1a", PostalCode: "8001", Locality: "Zürich"},
		},
	}

	out, err := New().Factsheet(context.Background(), view)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF")), "expected a PDF header")
}

func TestFactsheetRejectsEmptyView(t *testing.T) {
	_, err := New().Factsheet(context.Background(), nil)
	require.ErrorIs(t, err, ErrEmptyView)

	_, err = New().Factsheet(context.Background(), &domain.BuildingView{})
	require.ErrorIs(t, err, ErrEmptyView)
}

func TestFactsheetHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Factsheet(ctx, &domain.BuildingView{BuildingCore: domain.BuildingCore{EGID: "1"}})
	require.ErrorIs(t, err, context.Canceled)
}

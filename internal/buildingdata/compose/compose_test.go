package compose

import (
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/buildingdata/domain"
	entrancedomain "github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/entrance/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func metadata150404() domain.BuildingMetadata {
	return domain.BuildingMetadata{
		EGID:       "150404",
		EGRID:      "CH123456789012",
		GDEKT:      "ZH",
		GGDENR:     "261",
		GGDENAME:   "Zürich",
		GKODE:      "2683000.5",
		GKODN:      "1247000.25",
		GKSCE:      "901",
		GSTAT:      "1004",
		GKAT:       "1020",
		GKLAS:      "1122",
		GBAUJ:      "1965",
		GBAUM:      "6",
		GBAUP:      "8014",
		GABBJ:      "",
		GAREA:      "240",
		GVOL:       "2100",
		GVOLNORM:   "961",
		GASTW:      "5",
		GANZWHG:    "8",
		GAZZI:      "0",
		GSCHUTZR:   "1",
		GEBF:       "1100",
		GWAERZH1:   "7410",
		GENH1:      "7520",
		GWAERSCEH1: "869",
		GWAERDATH1: date(2021, 6, 30),
		GWAERZH2:   "",
		GWAERZW1:   "7610",
		GENW1:      "7520",
		GWAERDATW1: date(2021, 6, 30),
		GWAERZW2:   "7650",
		GENW2:      "7570",
		GEXPDAT:    date(2025, 1, 6),
		LGBKR:      "261",
		LPARZ:      "AU1234",
		LTYP:       "1",
		GEBNR:      "12a",
		GBEZ:       "Haus am See",
	}
}

func TestCoreExistingBuildingWithSingleHeating(t *testing.T) {
	core := Core(metadata150404())

	assert.Equal(t, "existing", core.Status, spew.Sdump(core))
	require.Len(t, core.EnergySystems.Heating, 1, spew.Sdump(core.EnergySystems))
	require.Len(t, core.EnergySystems.HotWater, 2, spew.Sdump(core.EnergySystems))
	assert.Equal(t, "2021-06-30", *core.EnergySystems.Heating[0].LastUpdated)
	assert.Nil(t, core.EnergySystems.HotWater[1].LastUpdated)
	assert.Nil(t, core.Construction.DemolitionYear)
	assert.True(t, core.PhysicalCharacteristics.CivilDefenseShelter)
	assert.Equal(t, "LV95", core.Location.Coordinates.System)
	assert.Equal(t, "2025-01-06", *core.LastExport)
	assert.Equal(t, "AU1234", core.Property.PlotNumber)
}

func TestEnergyAlwaysKeepsFirstSlot(t *testing.T) {
	m := domain.BuildingMetadata{GWAERZH1: "", GWAERZH2: "", GWAERZW1: "", GWAERZW2: "  "}

	energy := Energy(m)

	require.Len(t, energy.Heating, 1)
	require.Len(t, energy.HotWater, 1)
	assert.Equal(t, "", energy.Heating[0].HeatGenerator)
}

func TestDemolitionYear(t *testing.T) {
	cases := map[string]*string{
		"":     nil,
		"0":    nil,
		"0000": nil,
	}
	for in, want := range cases {
		assert.Equal(t, want, demolitionYear(in), in)
	}
	got := demolitionYear(" 1999 ")
	require.NotNil(t, got)
	assert.Equal(t, "1999", *got)
}

func TestBuildingSkipsUnresolvedEntrances(t *testing.T) {
	lat, lon := 47.3769, 8.5417
	links := []Link{
		{
			Mapping:  domain.AddressMapping{EntranceID: "0", IsPrimaryEntrance: true},
			Entrance: &entrancedomain.Entrance{ID: "e0", StreetName: "Seestrasse", StreetHouseNumber: "1", AddressPostalCode: "8002", AddressLocality: "Zürich", AddressCanton: "ZH", Latitude: &lat, Longitude: &lon},
		},
		{Mapping: domain.AddressMapping{EntranceID: "1"}},
		{
			Mapping:  domain.AddressMapping{EntranceID: "2"},
			Entrance: &entrancedomain.Entrance{ID: "e2", StreetName: "Seestrasse ", StreetHouseNumber: ""},
		},
	}

	view := Building(metadata150404(), links)

	require.Len(t, view.Addresses, 2, spew.Sdump(view.Addresses))
	first := view.Addresses[0]
	assert.Equal(t, "Seestrasse 1", first.StreetAddress)
	assert.True(t, first.IsPrimary)
	require.NotNil(t, first.Coordinates)
	assert.Equal(t, "WGS84", first.Coordinates.System)
	assert.Equal(t, "Seestrasse", view.Addresses[1].StreetAddress)
	assert.Nil(t, view.Addresses[1].Coordinates)
}

func TestBuildingWithoutLinksHasEmptyAddressList(t *testing.T) {
	view := Building(metadata150404(), nil)
	require.NotNil(t, view.Addresses)
	assert.Empty(t, view.Addresses)
}

func TestAddressWithoutBuilding(t *testing.T) {
	e := entrancedomain.Entrance{ID: "e1", StreetName: "Bahnhofstrasse", StreetHouseNumber: "10", AddressPostalCode: "8001"}

	view := Address(e, nil, nil, true)

	assert.Nil(t, view.Building)
	assert.Equal(t, domain.NoBuildingMetadataNote, view.Note)
	assert.Equal(t, "Bahnhofstrasse 10", view.Address.StreetAddress)
	assert.Nil(t, view.Address.Coordinates)
}

func TestAddressMarksCurrentEntrance(t *testing.T) {
	current := entrancedomain.Entrance{ID: "e1", StreetName: "Seestrasse", StreetHouseNumber: "3"}
	other := entrancedomain.Entrance{ID: "e0", StreetName: "Seestrasse", StreetHouseNumber: "1"}
	m := metadata150404()
	links := []Link{
		{Mapping: domain.AddressMapping{EntranceID: "0", IsPrimaryEntrance: true}, Entrance: &other},
		{Mapping: domain.AddressMapping{EntranceID: "1"}, Entrance: &current},
	}

	view := Address(current, &m, links, true)
	require.NotNil(t, view.Building)
	require.Len(t, view.Building.AllEntrances, 2)
	assert.False(t, view.Building.AllEntrances[0].IsCurrentAddress)
	assert.True(t, view.Building.AllEntrances[0].IsPrimary)
	assert.True(t, view.Building.AllEntrances[1].IsCurrentAddress)
	assert.Empty(t, view.Note)

	withoutAll := Address(current, &m, links, false)
	assert.Nil(t, withoutAll.Building.AllEntrances)
}

func TestSummaryCountsSystems(t *testing.T) {
	lat, lon := 47.0, 8.0
	m := metadata150404()
	place := &domain.Place{StreetAddress: "Seestrasse 1", PostalCode: "8002", Locality: "Zürich", Region: "ZH", Latitude: &lat, Longitude: &lon}

	summary := Summary(m, place)

	assert.Equal(t, 1, summary.EnergySystems.HeatingSystemCount)
	assert.Equal(t, 2, summary.EnergySystems.HotWaterSystemCount)
	assert.Equal(t, "7410", summary.EnergySystems.PrimaryHeating.HeatGenerator)
	require.NotNil(t, summary.MatchedAddress)
	assert.Equal(t, "ZH", summary.MatchedAddress.Canton)
	require.NotNil(t, summary.Location.Coordinates)
	assert.Equal(t, lat, summary.Location.Coordinates.Latitude)

	bare := Summary(m, nil)
	assert.Nil(t, bare.MatchedAddress)
	assert.Nil(t, bare.Location.Coordinates)
}

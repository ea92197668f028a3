// Package compose assembles the nested API views from normalized rows.
package compose

import (
	"strings"
	"time"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/buildingdata/domain"
	entrancedomain "github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/entrance/domain"
)

const (
	dateLayout    = "2006-01-02"
	systemLV95    = "LV95"
	systemWGS84   = "WGS84"
	shelterMarker = "1"
)

// Link is a mapping together with its resolved entrance. Entrance is nil when it no longer exists.
type Link struct {
	Mapping  domain.AddressMapping
	Entrance *entrancedomain.Entrance
}

// Core projects the metadata fields shared by all building views.
func Core(m domain.BuildingMetadata) domain.BuildingCore {
	return domain.BuildingCore{
		EGID:   m.EGID,
		EGRID:  m.EGRID,
		Status: domain.TranslateStatus(m.GSTAT),
		Construction: domain.ConstructionView{
			Year:           m.GBAUJ,
			Month:          m.GBAUM,
			Period:         m.GBAUP,
			DemolitionYear: demolitionYear(m.GABBJ),
			Category:       m.GKAT,
			Class:          m.GKLAS,
		},
		PhysicalCharacteristics: domain.PhysicalView{
			Area:                m.GAREA,
			Volume:              m.GVOL,
			VolumeNorm:          m.GVOLNORM,
			Floors:              m.GASTW,
			Apartments:          m.GANZWHG,
			SeparateRooms:       m.GAZZI,
			CivilDefenseShelter: strings.TrimSpace(m.GSCHUTZR) == shelterMarker,
		},
		EnergySystems: Energy(m),
		Location: domain.LocationView{
			Canton:           m.GDEKT,
			MunicipalityCode: m.GGDENR,
			MunicipalityName: m.GGDENAME,
			Coordinates: domain.LV95Coordinates{
				East:   m.GKODE,
				North:  m.GKODN,
				System: systemLV95,
				Source: m.GKSCE,
			},
		},
		Property: domain.PropertyView{
			EGRID:                m.EGRID,
			LandRegistryDistrict: m.LGBKR,
			PlotNumber:           m.LPARZ,
			PlotSuffix:           m.LPARZSX,
			PropertyType:         m.LTYP,
		},
		OfficialNumber: m.GEBNR,
		BuildingName:   m.GBEZ,
		LastExport:     formatDate(m.GEXPDAT),
	}
}

// Energy lists heating and hot water systems. The first slot of each is the
// registry's nominal primary and is always present; the second only when it has a generator.
func Energy(m domain.BuildingMetadata) domain.EnergySystemsView {
	heating := []domain.EnergySystemView{
		energySystem(m.GWAERZH1, m.GENH1, m.GWAERSCEH1, m.GWAERDATH1),
	}
	if present(m.GWAERZH2) {
		heating = append(heating, energySystem(m.GWAERZH2, m.GENH2, m.GWAERSCEH2, m.GWAERDATH2))
	}

	hotWater := []domain.EnergySystemView{
		energySystem(m.GWAERZW1, m.GENW1, m.GWAERSCEW1, m.GWAERDATW1),
	}
	if present(m.GWAERZW2) {
		hotWater = append(hotWater, energySystem(m.GWAERZW2, m.GENW2, m.GWAERSCEW2, m.GWAERDATW2))
	}

	return domain.EnergySystemsView{
		ReferenceArea: m.GEBF,
		Heating:       heating,
		HotWater:      hotWater,
	}
}

// Building composes the EGID view. Links whose entrance did not resolve are skipped.
func Building(m domain.BuildingMetadata, links []Link) domain.BuildingView {
	addresses := make([]domain.BuildingAddress, 0, len(links))
	for _, link := range links {
		if link.Entrance == nil {
			continue
		}
		e := link.Entrance
		addresses = append(addresses, domain.BuildingAddress{
			EntranceID:    link.Mapping.EntranceID,
			StreetAddress: e.StreetAddress(),
			PostalCode:    e.AddressPostalCode,
			Locality:      e.AddressLocality,
			Canton:        e.AddressCanton,
			IsPrimary:     link.Mapping.IsPrimaryEntrance,
			Coordinates:   coordinates(e, systemWGS84),
		})
	}

	return domain.BuildingView{
		BuildingCore: Core(m),
		Addresses:    addresses,
	}
}

// Address composes the per-address view. m is nil when the address has no mapped building.
func Address(e entrancedomain.Entrance, m *domain.BuildingMetadata, links []Link, includeAll bool) domain.AddressView {
	view := domain.AddressView{
		Address: domain.AddressDetail{
			ID:            e.ID,
			StreetAddress: e.StreetAddress(),
			PostalCode:    e.AddressPostalCode,
			Locality:      e.AddressLocality,
			Canton:        e.AddressCanton,
			Coordinates:   coordinates(&e, ""),
		},
	}
	if m == nil {
		view.Note = domain.NoBuildingMetadataNote
		return view
	}

	building := &domain.AddressBuildingView{BuildingCore: Core(*m)}
	if includeAll {
		building.AllEntrances = make([]domain.EntranceSummary, 0, len(links))
		for _, link := range links {
			if link.Entrance == nil {
				continue
			}
			building.AllEntrances = append(building.AllEntrances, domain.EntranceSummary{
				EntranceID:       link.Mapping.EntranceID,
				StreetAddress:    link.Entrance.StreetAddress(),
				PostalCode:       link.Entrance.AddressPostalCode,
				Locality:         link.Entrance.AddressLocality,
				IsPrimary:        link.Mapping.IsPrimaryEntrance,
				IsCurrentAddress: link.Entrance.ID == e.ID,
			})
		}
	}
	view.Building = building
	return view
}

// Summary composes the compact view. place is the search hit that matched, if any.
func Summary(m domain.BuildingMetadata, place *domain.Place) domain.BuildingSummary {
	heatingCount, hotWaterCount := 1, 1
	if present(m.GWAERZH2) {
		heatingCount = 2
	}
	if present(m.GWAERZW2) {
		hotWaterCount = 2
	}

	summary := domain.BuildingSummary{
		EGID:   m.EGID,
		Status: domain.TranslateStatus(m.GSTAT),
		Construction: domain.SummaryConstruction{
			Year:     m.GBAUJ,
			Month:    m.GBAUM,
			Category: m.GKAT,
			Class:    m.GKLAS,
		},
		PhysicalCharacteristics: domain.SummaryPhysical{
			Area:       m.GAREA,
			Volume:     m.GVOL,
			Floors:     m.GASTW,
			Apartments: m.GANZWHG,
		},
		EnergySystems: domain.SummaryEnergy{
			ReferenceArea:       m.GEBF,
			HeatingSystemCount:  heatingCount,
			HotWaterSystemCount: hotWaterCount,
			PrimaryHeating: domain.PrimaryHeating{
				HeatGenerator: m.GWAERZH1,
				EnergySource:  m.GENH1,
			},
		},
		Location: domain.SummaryLocation{
			Canton:           m.GDEKT,
			MunicipalityName: m.GGDENAME,
		},
	}

	if place != nil {
		summary.MatchedAddress = &domain.MatchedAddress{
			StreetAddress: place.StreetAddress,
			PostalCode:    place.PostalCode,
			Locality:      place.Locality,
			Canton:        place.Region,
		}
		if place.Latitude != nil && place.Longitude != nil {
			summary.Location.Coordinates = &domain.WGS84Coordinates{
				Latitude:  *place.Latitude,
				Longitude: *place.Longitude,
			}
		}
	}
	return summary
}

func energySystem(generator, source, informationSource string, updated *time.Time) domain.EnergySystemView {
	return domain.EnergySystemView{
		HeatGenerator:     generator,
		EnergySource:      source,
		InformationSource: informationSource,
		LastUpdated:       formatDate(updated),
	}
}

func coordinates(e *entrancedomain.Entrance, system string) *domain.WGS84Coordinates {
	if e == nil || !e.HasCoordinates() {
		return nil
	}
	return &domain.WGS84Coordinates{
		Latitude:  *e.Latitude,
		Longitude: *e.Longitude,
		System:    system,
	}
}

func demolitionYear(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" || strings.Trim(value, "0") == "" {
		return nil
	}
	return &value
}

func present(generator string) bool {
	return strings.TrimSpace(generator) != ""
}

func formatDate(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

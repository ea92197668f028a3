package domain

import "github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/pkg/db/pagination"

type ConstructionView struct {
	Year           string  `json:"year"`
	Month          string  `json:"month"`
	Period         string  `json:"period"`
	DemolitionYear *string `json:"demolitionYear"`
	Category       string  `json:"category"`
	Class          string  `json:"class"`
}

type PhysicalView struct {
	Area                string `json:"area"`
	Volume              string `json:"volume"`
	VolumeNorm          string `json:"volumeNorm"`
	Floors              string `json:"floors"`
	Apartments          string `json:"apartments"`
	SeparateRooms       string `json:"separateRooms"`
	CivilDefenseShelter bool   `json:"civilDefenseShelter"`
}

type EnergySystemView struct {
	HeatGenerator     string  `json:"heatGenerator"`
	EnergySource      string  `json:"energySource"`
	InformationSource string  `json:"informationSource,omitempty"`
	LastUpdated       *string `json:"lastUpdated"`
}

type EnergySystemsView struct {
	ReferenceArea string             `json:"referenceArea"`
	Heating       []EnergySystemView `json:"heating"`
	HotWater      []EnergySystemView `json:"hotWater"`
}

type LV95Coordinates struct {
	East   string `json:"east"`
	North  string `json:"north"`
	System string `json:"system"`
	Source string `json:"source"`
}

type LocationView struct {
	Canton           string          `json:"canton"`
	MunicipalityCode string          `json:"municipalityCode"`
	MunicipalityName string          `json:"municipalityName"`
	Coordinates      LV95Coordinates `json:"coordinates"`
}

type PropertyView struct {
	EGRID                string `json:"egrid"`
	LandRegistryDistrict string `json:"landRegistryDistrict"`
	PlotNumber           string `json:"plotNumber"`
	PlotSuffix           string `json:"plotSuffix"`
	PropertyType         string `json:"propertyType"`
}

// BuildingCore is the part of a building view shared by every lookup.
type BuildingCore struct {
	EGID                    string            `json:"egid"`
	EGRID                   string            `json:"egrid"`
	Status                  string            `json:"status"`
	Construction            ConstructionView  `json:"construction"`
	PhysicalCharacteristics PhysicalView      `json:"physicalCharacteristics"`
	EnergySystems           EnergySystemsView `json:"energySystems"`
	Location                LocationView      `json:"location"`
	Property                PropertyView      `json:"property"`
	OfficialNumber          string            `json:"officialNumber"`
	BuildingName            string            `json:"buildingName"`
	LastExport              *string           `json:"lastExport"`
}

type WGS84Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	System    string  `json:"system,omitempty"`
}

type BuildingAddress struct {
	EntranceID    string            `json:"entranceId"`
	StreetAddress string            `json:"streetAddress"`
	PostalCode    string            `json:"postalCode"`
	Locality      string            `json:"locality"`
	Canton        string            `json:"canton"`
	IsPrimary     bool              `json:"isPrimary"`
	Coordinates   *WGS84Coordinates `json:"coordinates"`
}

// BuildingView is served for EGID and EGRID lookups.
type BuildingView struct {
	BuildingCore
	Addresses []BuildingAddress `json:"addresses"`
}

type EntranceSummary struct {
	EntranceID       string `json:"entranceId"`
	StreetAddress    string `json:"streetAddress"`
	PostalCode       string `json:"postalCode"`
	Locality         string `json:"locality"`
	IsPrimary        bool   `json:"isPrimary"`
	IsCurrentAddress bool   `json:"isCurrentAddress"`
}

type AddressBuildingView struct {
	BuildingCore
	AllEntrances []EntranceSummary `json:"allEntrances,omitempty"`
}

type AddressDetail struct {
	ID            string            `json:"id"`
	StreetAddress string            `json:"streetAddress"`
	PostalCode    string            `json:"postalCode"`
	Locality      string            `json:"locality"`
	Canton        string            `json:"canton"`
	Coordinates   *WGS84Coordinates `json:"coordinates"`
}

const NoBuildingMetadataNote = "No building metadata available for this address"

// AddressView is served for address lookups; Building is nil when the address has no mapping.
type AddressView struct {
	Address  AddressDetail        `json:"address"`
	Building *AddressBuildingView `json:"building"`
	Note     string               `json:"note,omitempty"`
}

type MatchedAddress struct {
	StreetAddress string `json:"streetAddress"`
	PostalCode    string `json:"postalCode"`
	Locality      string `json:"locality"`
	Canton        string `json:"canton"`
}

type SummaryConstruction struct {
	Year     string `json:"year"`
	Month    string `json:"month"`
	Category string `json:"category"`
	Class    string `json:"class"`
}

type SummaryPhysical struct {
	Area       string `json:"area"`
	Volume     string `json:"volume"`
	Floors     string `json:"floors"`
	Apartments string `json:"apartments"`
}

type PrimaryHeating struct {
	HeatGenerator string `json:"heatGenerator"`
	EnergySource  string `json:"energySource"`
}

type SummaryEnergy struct {
	ReferenceArea       string         `json:"referenceArea"`
	HeatingSystemCount  int            `json:"heatingSystemCount"`
	HotWaterSystemCount int            `json:"hotWaterSystemCount"`
	PrimaryHeating      PrimaryHeating `json:"primaryHeating"`
}

type SummaryLocation struct {
	Canton           string            `json:"canton"`
	MunicipalityName string            `json:"municipalityName"`
	Coordinates      *WGS84Coordinates `json:"coordinates"`
}

// BuildingSummary is the compact view used by search, list and export.
type BuildingSummary struct {
	EGID                    string              `json:"egid"`
	Status                  string              `json:"status"`
	MatchedAddress          *MatchedAddress     `json:"matchedAddress,omitempty"`
	Construction            SummaryConstruction `json:"construction"`
	PhysicalCharacteristics SummaryPhysical     `json:"physicalCharacteristics"`
	EnergySystems           SummaryEnergy       `json:"energySystems"`
	Location                SummaryLocation     `json:"location"`
}

type SearchResult struct {
	Query     string            `json:"query"`
	Count     int               `json:"count"`
	Buildings []BuildingSummary `json:"buildings"`
}

type ListResponse struct {
	pagination.PageInfo
	Buildings []BuildingSummary `json:"buildings"`
}

// Stats are the aggregate counts behind the stats endpoint.
type Stats struct {
	TotalBuildings              int64
	TotalMappings               int64
	Ratio                       float64
	AverageEntrancesPerBuilding float64
}

type DataQuality struct {
	WithMetadata                int64   `json:"withMetadata"`
	AddressMappingRatio         float64 `json:"addressMappingRatio"`
	AverageEntrancesPerBuilding float64 `json:"averageEntrancesPerBuilding"`
}

type ImportRunSummary struct {
	ID            string  `json:"id"`
	Status        string  `json:"status"`
	MetadataCount int64   `json:"metadataCount"`
	MappingCount  int64   `json:"mappingCount"`
	StartedAt     string  `json:"startedAt"`
	FinishedAt    *string `json:"finishedAt"`
}

type StatsView struct {
	TotalBuildings       int64             `json:"totalBuildings"`
	TotalAddressMappings int64             `json:"totalAddressMappings"`
	Status               string            `json:"status"`
	LastUpdated          string            `json:"lastUpdated"`
	LastImport           *ImportRunSummary `json:"lastImport,omitempty"`
	DataQuality          DataQuality       `json:"dataQuality"`
	Coverage             map[string]string `json:"coverage"`
	Capabilities         map[string]string `json:"capabilities"`
	MetadataFields       map[string]string `json:"metadataFields"`
}

package domain

import (
	"context"
	"strings"

	"gorm.io/gorm"
)

// Entrance is an address sub-unit of a building. Rows are owned by the address import.
type Entrance struct {
	ID                      string   `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	BuildingID              string   `gorm:"column:building_id;size:9;index" json:"building_id"`
	EntranceID              string   `gorm:"column:entrance_id;size:2" json:"entrance_id"`
	StreetName              string   `gorm:"column:street_name" json:"street_name"`
	StreetHouseNumber       string   `gorm:"column:street_house_number" json:"street_house_number"`
	AddressPostalCode       string   `gorm:"column:address_postal_code" json:"address_postal_code"`
	AddressLocality         string   `gorm:"column:address_locality" json:"address_locality"`
	AddressMunicipalityCode string   `gorm:"column:address_municipality_code" json:"address_municipality_code"`
	AddressMunicipality     string   `gorm:"column:address_municipality" json:"address_municipality"`
	AddressCanton           string   `gorm:"column:address_canton" json:"address_canton"`
	Latitude                *float64 `gorm:"column:latitude" json:"latitude,omitempty"`
	Longitude               *float64 `gorm:"column:longitude" json:"longitude,omitempty"`
}

func (Entrance) TableName() string { return "building_entrance" }

// StreetAddress joins street name and house number.
func (e Entrance) StreetAddress() string {
	return strings.TrimSpace(e.StreetName + " " + e.StreetHouseNumber)
}

func (e Entrance) HasCoordinates() bool {
	return e.Latitude != nil && e.Longitude != nil
}

type Repository interface {
	CountAll(ctx context.Context, db *gorm.DB) (int64, error)
	FindBatch(ctx context.Context, db *gorm.DB, limit, offset int) ([]Entrance, error)
	FindByID(ctx context.Context, db *gorm.DB, id string) (*Entrance, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []string) ([]Entrance, error)
}

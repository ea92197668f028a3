package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	registrydomain "github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/registry/domain"
	"gorm.io/datatypes"
)

// BuildingMetadata is the normalized copy of one GWR building, keyed by EGID.
type BuildingMetadata struct {
	EGID     string `gorm:"column:egid;size:9;primaryKey"`
	GDEKT    string `gorm:"column:gdekt;size:2;not null;index:idx_building_metadata_canton"`
	GGDENR   string `gorm:"column:ggdenr;size:4;not null;index:idx_building_metadata_municipality"`
	GGDENAME string `gorm:"column:ggdename;size:40;not null"`
	EGRID    string `gorm:"column:egrid;size:14;not null;index:idx_building_metadata_egrid"`
	LGBKR    string `gorm:"column:lgbkr;size:4;not null"`
	LPARZ    string `gorm:"column:lparz;size:12;not null"`
	LPARZSX  string `gorm:"column:lparzsx;size:12;not null"`
	LTYP     string `gorm:"column:ltyp;size:4;not null"`
	GEBNR    string `gorm:"column:gebnr;size:12;not null"`
	GBEZ     string `gorm:"column:gbez;size:40;not null"`
	GKODE    string `gorm:"column:gkode;size:11;not null"`
	GKODN    string `gorm:"column:gkodn;size:11;not null"`
	GKSCE    string `gorm:"column:gksce;size:3;not null"`

	GSTAT string `gorm:"column:gstat;size:4;not null;index:idx_building_metadata_status"`
	GKAT  string `gorm:"column:gkat;size:4;not null;index:idx_building_metadata_category"`
	GKLAS string `gorm:"column:gklas;size:4;not null"`

	GBAUJ string `gorm:"column:gbauj;size:4;not null;index:idx_building_metadata_construction_year"`
	GBAUM string `gorm:"column:gbaum;size:2;not null"`
	GBAUP string `gorm:"column:gbaup;size:4;not null"`
	GABBJ string `gorm:"column:gabbj;size:4;not null"`

	GAREA    string `gorm:"column:garea;size:5;not null"`
	GVOL     string `gorm:"column:gvol;size:7;not null"`
	GVOLNORM string `gorm:"column:gvolnorm;size:3;not null"`
	GVOLSCE  string `gorm:"column:gvolsce;size:3;not null"`
	GASTW    string `gorm:"column:gastw;size:2;not null"`
	GANZWHG  string `gorm:"column:ganzwhg;size:3;not null"`
	GAZZI    string `gorm:"column:gazzi;size:3;not null"`
	GSCHUTZR string `gorm:"column:gschutzr;size:1;not null"`
	GEBF     string `gorm:"column:gebf;size:6;not null"`

	GWAERZH1   string     `gorm:"column:gwaerzh1;size:4;not null"`
	GENH1      string     `gorm:"column:genh1;size:4;not null"`
	GWAERSCEH1 string     `gorm:"column:gwaersceh1;size:3;not null"`
	GWAERDATH1 *time.Time `gorm:"column:gwaerdath1;type:date"`
	GWAERZH2   string     `gorm:"column:gwaerzh2;size:4;not null"`
	GENH2      string     `gorm:"column:genh2;size:4;not null"`
	GWAERSCEH2 string     `gorm:"column:gwaersceh2;size:3;not null"`
	GWAERDATH2 *time.Time `gorm:"column:gwaerdath2;type:date"`
	GWAERZW1   string     `gorm:"column:gwaerzw1;size:4;not null"`
	GENW1      string     `gorm:"column:genw1;size:4;not null"`
	GWAERSCEW1 string     `gorm:"column:gwaerscew1;size:3;not null"`
	GWAERDATW1 *time.Time `gorm:"column:gwaerdatw1;type:date"`
	GWAERZW2   string     `gorm:"column:gwaerzw2;size:4;not null"`
	GENW2      string     `gorm:"column:genw2;size:4;not null"`
	GWAERSCEW2 string     `gorm:"column:gwaerscew2;size:3;not null"`
	GWAERDATW2 *time.Time `gorm:"column:gwaerdatw2;type:date"`

	GEXPDAT *time.Time `gorm:"column:gexpdat;type:date"`
}

func (BuildingMetadata) TableName() string { return "building_metadata" }

// MetadataFromRegistry copies a registry row field by field. Only dates are converted.
func MetadataFromRegistry(b registrydomain.Building) BuildingMetadata {
	return BuildingMetadata{
		EGID:       b.EGID,
		GDEKT:      b.GDEKT,
		GGDENR:     b.GGDENR,
		GGDENAME:   b.GGDENAME,
		EGRID:      b.EGRID,
		LGBKR:      b.LGBKR,
		LPARZ:      b.LPARZ,
		LPARZSX:    b.LPARZSX,
		LTYP:       b.LTYP,
		GEBNR:      b.GEBNR,
		GBEZ:       b.GBEZ,
		GKODE:      b.GKODE,
		GKODN:      b.GKODN,
		GKSCE:      b.GKSCE,
		GSTAT:      b.GSTAT,
		GKAT:       b.GKAT,
		GKLAS:      b.GKLAS,
		GBAUJ:      b.GBAUJ,
		GBAUM:      b.GBAUM,
		GBAUP:      b.GBAUP,
		GABBJ:      b.GABBJ,
		GAREA:      b.GAREA,
		GVOL:       b.GVOL,
		GVOLNORM:   b.GVOLNORM,
		GVOLSCE:    b.GVOLSCE,
		GASTW:      b.GASTW,
		GANZWHG:    b.GANZWHG,
		GAZZI:      b.GAZZI,
		GSCHUTZR:   b.GSCHUTZR,
		GEBF:       b.GEBF,
		GWAERZH1:   b.GWAERZH1,
		GENH1:      b.GENH1,
		GWAERSCEH1: b.GWAERSCEH1,
		GWAERDATH1: registrydomain.ParseDate(b.GWAERDATH1),
		GWAERZH2:   b.GWAERZH2,
		GENH2:      b.GENH2,
		GWAERSCEH2: b.GWAERSCEH2,
		GWAERDATH2: registrydomain.ParseDate(b.GWAERDATH2),
		GWAERZW1:   b.GWAERZW1,
		GENW1:      b.GENW1,
		GWAERSCEW1: b.GWAERSCEW1,
		GWAERDATW1: registrydomain.ParseDate(b.GWAERDATW1),
		GWAERZW2:   b.GWAERZW2,
		GENW2:      b.GENW2,
		GWAERSCEW2: b.GWAERSCEW2,
		GWAERDATW2: registrydomain.ParseDate(b.GWAERDATW2),
		GEXPDAT:    registrydomain.ParseDate(b.GEXPDAT),
	}
}

// AddressMapping links a building to one of its entrances.
type AddressMapping struct {
	ID                 string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	EGID               string    `gorm:"column:egid;size:9;not null;uniqueIndex:uniq_building_entrance,priority:1;index:idx_mapping_egid" json:"egid"`
	BuildingEntranceID string    `gorm:"column:building_entrance_id;type:uuid;not null;uniqueIndex:uniq_building_entrance,priority:2;index:idx_mapping_entrance" json:"building_entrance_id"`
	EntranceID         string    `gorm:"column:entrance_id;size:2;not null" json:"entrance_id"`
	IsPrimaryEntrance  bool      `gorm:"column:is_primary_entrance;not null;index:idx_mapping_primary" json:"is_primary_entrance"`
	CreatedAt          time.Time `gorm:"column:created_at;not null" json:"created_at"`
}

func (AddressMapping) TableName() string { return "building_address_mapping" }

// MappingKey identifies a mapping by its natural key.
type MappingKey struct {
	EGID               string
	BuildingEntranceID string
}

const (
	ImportRunRunning   = "running"
	ImportRunSucceeded = "succeeded"
	ImportRunFailed    = "failed"
)

// ImportRun records one execution of the import job.
type ImportRun struct {
	ID            snowflake.ID      `gorm:"primaryKey" json:"id"`
	Status        string            `gorm:"size:16;not null;index" json:"status"`
	BatchSize     int               `gorm:"not null" json:"batch_size"`
	ClearExisting bool              `gorm:"not null" json:"clear_existing"`
	SkipMappings  bool              `gorm:"not null" json:"skip_mappings"`
	MetadataCount int64             `gorm:"not null" json:"metadata_count"`
	MappingCount  int64             `gorm:"not null" json:"mapping_count"`
	Error         string            `gorm:"type:text" json:"error,omitempty"`
	StartedAt     time.Time         `gorm:"not null" json:"started_at"`
	FinishedAt    *time.Time        `json:"finished_at,omitempty"`
	Details       datatypes.JSONMap `json:"details,omitempty"`
}

func (ImportRun) TableName() string { return "import_runs" }

// TranslateStatus maps a stored GSTAT code to its semantic tag.
func TranslateStatus(code string) string {
	return registrydomain.ParseStatus(code).Tag()
}

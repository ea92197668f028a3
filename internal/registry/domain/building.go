package domain

import (
	"context"
	"strings"
	"time"
)

// Building is one row of the GWR `building` table. Every column is read as text.
type Building struct {
	EGID       string `gorm:"column:EGID;primaryKey"`
	GDEKT      string `gorm:"column:GDEKT"`
	GGDENR     string `gorm:"column:GGDENR"`
	GGDENAME   string `gorm:"column:GGDENAME"`
	EGRID      string `gorm:"column:EGRID"`
	LGBKR      string `gorm:"column:LGBKR"`
	LPARZ      string `gorm:"column:LPARZ"`
	LPARZSX    string `gorm:"column:LPARZSX"`
	LTYP       string `gorm:"column:LTYP"`
	GEBNR      string `gorm:"column:GEBNR"`
	GBEZ       string `gorm:"column:GBEZ"`
	GKODE      string `gorm:"column:GKODE"`
	GKODN      string `gorm:"column:GKODN"`
	GKSCE      string `gorm:"column:GKSCE"`
	GSTAT      string `gorm:"column:GSTAT"`
	GKAT       string `gorm:"column:GKAT"`
	GKLAS      string `gorm:"column:GKLAS"`
	GBAUJ      string `gorm:"column:GBAUJ"`
	GBAUM      string `gorm:"column:GBAUM"`
	GBAUP      string `gorm:"column:GBAUP"`
	GABBJ      string `gorm:"column:GABBJ"`
	GAREA      string `gorm:"column:GAREA"`
	GVOL       string `gorm:"column:GVOL"`
	GVOLNORM   string `gorm:"column:GVOLNORM"`
	GVOLSCE    string `gorm:"column:GVOLSCE"`
	GASTW      string `gorm:"column:GASTW"`
	GANZWHG    string `gorm:"column:GANZWHG"`
	GAZZI      string `gorm:"column:GAZZI"`
	GSCHUTZR   string `gorm:"column:GSCHUTZR"`
	GEBF       string `gorm:"column:GEBF"`
	GWAERZH1   string `gorm:"column:GWAERZH1"`
	GENH1      string `gorm:"column:GENH1"`
	GWAERSCEH1 string `gorm:"column:GWAERSCEH1"`
	GWAERDATH1 string `gorm:"column:GWAERDATH1"`
	GWAERZH2   string `gorm:"column:GWAERZH2"`
	GENH2      string `gorm:"column:GENH2"`
	GWAERSCEH2 string `gorm:"column:GWAERSCEH2"`
	GWAERDATH2 string `gorm:"column:GWAERDATH2"`
	GWAERZW1   string `gorm:"column:GWAERZW1"`
	GENW1      string `gorm:"column:GENW1"`
	GWAERSCEW1 string `gorm:"column:GWAERSCEW1"`
	GWAERDATW1 string `gorm:"column:GWAERDATW1"`
	GWAERZW2   string `gorm:"column:GWAERZW2"`
	GENW2      string `gorm:"column:GENW2"`
	GWAERSCEW2 string `gorm:"column:GWAERSCEW2"`
	GWAERDATW2 string `gorm:"column:GWAERDATW2"`
	GEXPDAT    string `gorm:"column:GEXPDAT"`
}

func (Building) TableName() string { return "building" }

func (b Building) Status() Status {
	return ParseStatus(b.GSTAT)
}

var dateLayouts = []string{"2006-01-02", "02.01.2006", time.RFC3339, "2006-01-02 15:04:05"}

// ParseDate reads a registry date column. Empty and unparsable values yield nil.
func ParseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	return nil
}

// Reader is paginated read access to active registry buildings.
type Reader interface {
	CountActiveBuildings(ctx context.Context) (int64, error)
	FindActiveBuildings(ctx context.Context, limit, offset int) ([]Building, error)
	FindByEGID(ctx context.Context, egid string) (*Building, error)
}

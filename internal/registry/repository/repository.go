package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/registry/domain"
	"gorm.io/gorm"
)

var buildingColumns = []string{
	"EGID", "GDEKT", "GGDENR", "GGDENAME", "EGRID", "LGBKR", "LPARZ", "LPARZSX", "LTYP",
	"GEBNR", "GBEZ", "GKODE", "GKODN", "GKSCE", "GSTAT", "GKAT", "GKLAS",
	"GBAUJ", "GBAUM", "GBAUP", "GABBJ", "GAREA", "GVOL", "GVOLNORM", "GVOLSCE",
	"GASTW", "GANZWHG", "GAZZI", "GSCHUTZR", "GEBF",
	"GWAERZH1", "GENH1", "GWAERSCEH1", "GWAERDATH1",
	"GWAERZH2", "GENH2", "GWAERSCEH2", "GWAERDATH2",
	"GWAERZW1", "GENW1", "GWAERSCEW1", "GWAERDATW1",
	"GWAERZW2", "GENW2", "GWAERSCEW2", "GWAERDATW2",
	"GEXPDAT",
}

// The export mixes INTEGER, REAL and TEXT affinities and leaves many cells NULL.
var selectColumns = func() string {
	parts := make([]string, 0, len(buildingColumns))
	for _, col := range buildingColumns {
		parts = append(parts, fmt.Sprintf("COALESCE(CAST(%[1]s AS TEXT), '') AS %[1]s", col))
	}
	return strings.Join(parts, ", ")
}()

type reader struct {
	db *gorm.DB
}

// NewReader wraps a connection to the GWR export.
func NewReader(db *gorm.DB) domain.Reader {
	return &reader{db: db}
}

func (r *reader) CountActiveBuildings(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Building{}).
		Where("GSTAT = ?", int(domain.StatusExisting)).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *reader) FindActiveBuildings(ctx context.Context, limit, offset int) ([]domain.Building, error) {
	if limit <= 0 {
		return nil, nil
	}
	var items []domain.Building
	err := r.db.WithContext(ctx).
		Model(&domain.Building{}).
		Select(selectColumns).
		Where("GSTAT = ?", int(domain.StatusExisting)).
		Order("EGID ASC").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	for i := range items {
		trim(&items[i])
	}
	return items, nil
}

func (r *reader) FindByEGID(ctx context.Context, egid string) (*domain.Building, error) {
	var item domain.Building
	err := r.db.WithContext(ctx).
		Model(&domain.Building{}).
		Select(selectColumns).
		Where("EGID = ?", strings.TrimSpace(egid)).
		Take(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	trim(&item)
	return &item, nil
}

func trim(b *domain.Building) {
	b.EGID = strings.TrimSpace(b.EGID)
	b.GSTAT = strings.TrimSpace(b.GSTAT)
	b.EGRID = strings.TrimSpace(b.EGRID)
}

package option

import (
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/pkg/db/pagination"
	"gorm.io/gorm"
)

type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type QueryOptionFunc func(db *gorm.DB) *gorm.DB

func (f QueryOptionFunc) Apply(db *gorm.DB) *gorm.DB {
	return f(db)
}

// ApplyPagination seeks past the cursor column and fetches one extra row so callers can detect more pages.
func ApplyPagination(page pagination.Pagination, cursor *pagination.Cursor, column string) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		page = page.Normalize()
		if cursor != nil && cursor.After != "" {
			db = db.Where(column+" > ?", cursor.After)
		}
		return db.Order(column + " ASC").Limit(page.PageSize + 1)
	})
}

// Limit caps the result set; non-positive values use fallback.
func Limit(limit, fallback int) QueryOption {
	return QueryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if limit <= 0 {
			limit = fallback
		}
		return db.Limit(limit)
	})
}

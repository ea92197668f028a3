package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	pgUniqueViolation = "23505"
	pgUndefinedTable  = "42P01"
)

func IsDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	if pgCode(err) == pgUniqueViolation {
		return true
	}

	// MySQL (error code 1062)
	if strings.Contains(err.Error(), "Error 1062") {
		return true
	}

	// SQLite (error code 2067)
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return true
	}

	return false
}

// IsUndefinedTableErr reports whether err was caused by a missing table.
func IsUndefinedTableErr(err error) bool {
	if err == nil {
		return false
	}

	if pgCode(err) == pgUndefinedTable {
		return true
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "no such table"):
		return true
	case strings.Contains(msg, "Error 1146"):
		return true
	case strings.Contains(msg, "does not exist") && strings.Contains(msg, "relation"):
		return true
	default:
		return false
	}
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr != nil {
		return string(pqErr.Code)
	}
	return ""
}

package domain

import "errors"

var (
	ErrNotFound            = errors.New("not_found")
	ErrBuildingNotFound    = errors.New("building_not_found")
	ErrAddressNotFound     = errors.New("address_not_found")
	ErrInvalidEGID         = errors.New("invalid_egid")
	ErrInvalidEGRID        = errors.New("invalid_egrid")
	ErrInvalidAddressID    = errors.New("invalid_address_id")
	ErrInvalidEntranceID   = errors.New("invalid_entrance_id")
	ErrInvalidLimit        = errors.New("invalid_limit")
	ErrInvalidFilter       = errors.New("invalid_filter")
	ErrEmptySearchCriteria = errors.New("empty_search_criteria")
	ErrInvalidBatchSize    = errors.New("invalid_batch_size")
	ErrNotInitialized      = errors.New("not_initialized")
	ErrEntranceNotMapped   = errors.New("entrance_not_mapped")
	ErrSearchUnavailable   = errors.New("search_unavailable")
	ErrImportInProgress    = errors.New("import_in_progress")
)

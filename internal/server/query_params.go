package server

import (
	"strconv"
	"strings"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/buildingdata/domain"
	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/pkg/db/pagination"
	"github.com/gin-gonic/gin"
)

type listQuery struct {
	Canton       string `form:"canton"`
	Municipality string `form:"municipality"`
	Status       string `form:"status"`
	Category     string `form:"category"`
	YearFrom     string `form:"year_from"`
	YearTo       string `form:"year_to"`
	PageToken    string `form:"page_token"`
	PageSize     string `form:"page_size"`
}

func (q listQuery) filter() domain.ListFilter {
	return domain.ListFilter{
		Canton:           strings.TrimSpace(q.Canton),
		MunicipalityCode: strings.TrimSpace(q.Municipality),
		Status:           strings.TrimSpace(q.Status),
		Category:         strings.TrimSpace(q.Category),
		YearFrom:         strings.TrimSpace(q.YearFrom),
		YearTo:           strings.TrimSpace(q.YearTo),
	}
}

func bindListQuery(c *gin.Context) (listQuery, error) {
	var query listQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		return listQuery{}, invalidRequestError()
	}
	return query, nil
}

func parseOptionalBool(value string) (*bool, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(trimmed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseOptionalInt(value string) (*int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

// parsePageSize accepts an empty value and otherwise 1..MaxPageSize.
func parsePageSize(value string) (int, error) {
	size, err := parseOptionalInt(value)
	if err != nil {
		return 0, newValidationError("page_size", "invalid_page_size", "page_size must be an integer")
	}
	if size == nil {
		return pagination.DefaultPageSize, nil
	}
	if *size < 1 || *size > pagination.MaxPageSize {
		return 0, newValidationError("page_size", "invalid_page_size", "page_size must be between 1 and 250")
	}
	return *size, nil
}

// parseSearchLimit leaves an absent limit at zero so the service applies its default.
func parseSearchLimit(value string) (int, error) {
	limit, err := parseOptionalInt(value)
	if err != nil {
		return 0, domain.ErrInvalidLimit
	}
	if limit == nil {
		return 0, nil
	}
	if *limit < 1 || *limit > domain.MaxSearchLimit {
		return 0, domain.ErrInvalidLimit
	}
	return *limit, nil
}

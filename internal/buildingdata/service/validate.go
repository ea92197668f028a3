package service

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/buildingdata/domain"
	"github.com/google/uuid"
)

var (
	egidPattern  = regexp.MustCompile(`^[0-9]{1,9}$`)
	egridPattern = regexp.MustCompile(`^CH[0-9A-Z]{12}$`)
	yearPattern  = regexp.MustCompile(`^[0-9]{4}$`)
)

func normalizeEGID(value string) (string, error) {
	egid := strings.TrimSpace(value)
	if !egidPattern.MatchString(egid) {
		return "", domain.ErrInvalidEGID
	}
	return egid, nil
}

func normalizeEGRID(value string) (string, error) {
	egrid := strings.ToUpper(strings.TrimSpace(value))
	if !egridPattern.MatchString(egrid) {
		return "", domain.ErrInvalidEGRID
	}
	return egrid, nil
}

// normalizeUUID returns the canonical lower-case form of value or invalid.
func normalizeUUID(value string, invalid error) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return "", invalid
	}
	return parsed.String(), nil
}

func normalizeFilter(filter domain.ListFilter) (domain.ListFilter, error) {
	filter.Canton = strings.ToUpper(strings.TrimSpace(filter.Canton))
	filter.MunicipalityCode = strings.TrimSpace(filter.MunicipalityCode)
	filter.Status = strings.TrimSpace(filter.Status)
	filter.Category = strings.TrimSpace(filter.Category)
	filter.YearFrom = strings.TrimSpace(filter.YearFrom)
	filter.YearTo = strings.TrimSpace(filter.YearTo)

	for _, numeric := range []string{filter.MunicipalityCode, filter.Status, filter.Category} {
		if numeric == "" {
			continue
		}
		if _, err := strconv.Atoi(numeric); err != nil {
			return filter, domain.ErrInvalidFilter
		}
	}
	for _, year := range []string{filter.YearFrom, filter.YearTo} {
		if year != "" && !yearPattern.MatchString(year) {
			return filter, domain.ErrInvalidFilter
		}
	}
	if filter.YearFrom != "" && filter.YearTo != "" && filter.YearFrom > filter.YearTo {
		return filter, domain.ErrInvalidFilter
	}
	if len(filter.Canton) > 2 {
		return filter, domain.ErrInvalidFilter
	}
	return filter, nil
}

// searchQuery prefers the free-text address and otherwise joins the non-empty components.
func searchQuery(req domain.SearchRequest) string {
	if address := strings.TrimSpace(req.Address); address != "" {
		return address
	}
	parts := make([]string, 0, 4)
	for _, part := range []string{req.Street, req.HouseNumber, req.PostalCode, req.Locality} {
		if p := strings.TrimSpace(part); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

func addressCacheID(id string, includeAll bool) string {
	if includeAll {
		return id + ":all"
	}
	return id
}

func searchCacheID(query string, limit int) string {
	return query + " " + strconv.Itoa(limit)
}

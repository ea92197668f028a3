package domain

import (
	"strconv"
	"strings"
)

// Status is the GWR building status (GSTAT).
type Status int

const (
	StatusUnknown           Status = 0
	StatusPlanned           Status = 1001
	StatusApproved          Status = 1002
	StatusUnderConstruction Status = 1003
	StatusExisting          Status = 1004
	StatusNotUsable         Status = 1005
	StatusDemolished        Status = 1007
	StatusNotBuilt          Status = 1008
)

var statusTags = map[Status]string{
	StatusPlanned:           "planned",
	StatusApproved:          "approved",
	StatusUnderConstruction: "under_construction",
	StatusExisting:          "existing",
	StatusNotUsable:         "not_usable",
	StatusDemolished:        "demolished",
	StatusNotBuilt:          "not_built",
}

// ParseStatus returns StatusUnknown for anything outside the published code list.
func ParseStatus(code string) Status {
	code = strings.TrimSpace(code)
	n, err := strconv.Atoi(code)
	if err != nil || strconv.Itoa(n) != code {
		return StatusUnknown
	}
	if _, ok := statusTags[Status(n)]; !ok {
		return StatusUnknown
	}
	return Status(n)
}

// Code is the numeric code as stored in the registry, empty for StatusUnknown.
func (s Status) Code() string {
	if _, ok := statusTags[s]; !ok {
		return ""
	}
	return strconv.Itoa(int(s))
}

// Tag is the semantic status name exposed by the API.
func (s Status) Tag() string {
	if tag, ok := statusTags[s]; ok {
		return tag
	}
	return "unknown"
}

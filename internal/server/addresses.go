package server

import (
	"net/http"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/buildingdata/domain"
	"github.com/gin-gonic/gin"
)

type searchQuery struct {
	Street      string `form:"strasse"`
	HouseNumber string `form:"hausnummer"`
	PostalCode  string `form:"plz"`
	Locality    string `form:"ort"`
	Address     string `form:"adresse"`
	Limit       string `form:"limit"`
}

func (s *Server) SearchBuildings(c *gin.Context) {
	var query searchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	limit, err := parseSearchLimit(query.Limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.querySvc.Search(c.Request.Context(), domain.SearchRequest{
		Street:      query.Street,
		HouseNumber: query.HouseNumber,
		PostalCode:  query.PostalCode,
		Locality:    query.Locality,
		Address:     query.Address,
		Limit:       limit,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetAddressBuilding(c *gin.Context) {
	includeAll, err := parseOptionalBool(c.Query("include_all_entrances"))
	if err != nil {
		AbortWithError(c, newValidationError("include_all_entrances", "invalid_include_all_entrances", "include_all_entrances must be a boolean"))
		return
	}

	resp, err := s.querySvc.GetAddress(c.Request.Context(), domain.AddressRequest{
		ID:                  c.Param("id"),
		IncludeAllEntrances: includeAll != nil && *includeAll,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

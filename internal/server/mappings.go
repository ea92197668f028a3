package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/buildingdata/domain"
	entrancedomain "github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/entrance/domain"
	"github.com/gin-gonic/gin"
)

type createMappingRequest struct {
	EntranceID     string `json:"entranceId"`
	EntranceNumber string `json:"entranceNumber"`
	IsPrimary      bool   `json:"isPrimary"`
}

type mappingResponse struct {
	ID                string `json:"id"`
	EGID              string `json:"egid"`
	EntranceID        string `json:"entranceId"`
	EntranceNumber    string `json:"entranceNumber"`
	IsPrimaryEntrance bool   `json:"isPrimaryEntrance"`
	CreatedAt         string `json:"createdAt"`
}

type primaryEntranceResponse struct {
	EGID           string   `json:"egid"`
	EntranceID     string   `json:"entranceId"`
	EntranceNumber string   `json:"entranceNumber"`
	Street         string   `json:"street"`
	HouseNumber    string   `json:"houseNumber"`
	PostalCode     string   `json:"postalCode"`
	Locality       string   `json:"locality"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
}

// CreateMapping links one entrance to the building. Linking an already mapped
// entrance returns the existing mapping unchanged.
func (s *Server) CreateMapping(c *gin.Context) {
	var req createMappingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	entranceID := strings.TrimSpace(req.EntranceID)
	if entranceID == "" {
		AbortWithError(c, newValidationError("entranceId", "required", "entranceId is required"))
		return
	}

	mapping, err := s.mappingSvc.CreateMapping(c.Request.Context(), domain.CreateMappingRequest{
		EGID:               c.Param("egid"),
		BuildingEntranceID: entranceID,
		EntranceID:         strings.TrimSpace(req.EntranceNumber),
		IsPrimary:          req.IsPrimary,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, mappingResponse{
		ID:                mapping.ID,
		EGID:              mapping.EGID,
		EntranceID:        mapping.BuildingEntranceID,
		EntranceNumber:    mapping.EntranceID,
		IsPrimaryEntrance: mapping.IsPrimaryEntrance,
		CreatedAt:         mapping.CreatedAt.UTC().Format(time.RFC3339),
	})
}

func (s *Server) GetPrimaryEntrance(c *gin.Context) {
	egid := c.Param("egid")
	entrance, err := s.mappingSvc.FindPrimaryEntrance(c.Request.Context(), egid)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if entrance == nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, primaryEntranceOf(strings.TrimSpace(egid), entrance))
}

func primaryEntranceOf(egid string, e *entrancedomain.Entrance) primaryEntranceResponse {
	return primaryEntranceResponse{
		EGID:           egid,
		EntranceID:     e.ID,
		EntranceNumber: e.EntranceID,
		Street:         e.StreetName,
		HouseNumber:    e.StreetHouseNumber,
		PostalCode:     e.AddressPostalCode,
		Locality:       e.AddressLocality,
		Latitude:       e.Latitude,
		Longitude:      e.Longitude,
	}
}

package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/ecolution-engineering-gmbh/open-swiss-buildings-api/internal/buildingdata/domain"
	"github.com/gin-gonic/gin"
)

const (
	contentTypePDF  = "application/pdf"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type setPrimaryEntranceRequest struct {
	EntranceID string `json:"entranceId"`
}

func (s *Server) GetBuildingByEGID(c *gin.Context) {
	view, err := s.querySvc.GetByEGID(c.Request.Context(), c.Param("egid"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (s *Server) GetBuildingByEGRID(c *gin.Context) {
	view, err := s.querySvc.GetByEGRID(c.Request.Context(), c.Param("egrid"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (s *Server) GetBuildingFactsheet(c *gin.Context) {
	ctx := c.Request.Context()
	view, err := s.querySvc.GetByEGID(ctx, c.Param("egid"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	doc, err := s.pdf.Factsheet(ctx, view)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="building-%s.pdf"`, view.EGID))
	c.Data(http.StatusOK, contentTypePDF, doc)
}

func (s *Server) ListBuildings(c *gin.Context) {
	query, err := bindListQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	pageSize, err := parsePageSize(query.PageSize)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.querySvc.List(c.Request.Context(), domain.ListRequest{
		Filter:    query.filter(),
		PageToken: strings.TrimSpace(query.PageToken),
		PageSize:  pageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) ExportBuildings(c *gin.Context) {
	query, err := bindListQuery(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	rows, err := s.querySvc.Export(c.Request.Context(), query.filter())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	doc, err := s.xlsx.Buildings(rows)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="buildings.xlsx"`)
	c.Data(http.StatusOK, contentTypeXLSX, doc)
}

func (s *Server) SetPrimaryEntrance(c *gin.Context) {
	var req setPrimaryEntranceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	entranceID := strings.TrimSpace(req.EntranceID)
	if entranceID == "" {
		AbortWithError(c, newValidationError("entranceId", "required", "entranceId is required"))
		return
	}

	ctx := c.Request.Context()
	egid := c.Param("egid")
	if err := s.mappingSvc.SetPrimaryEntrance(ctx, egid, entranceID); err != nil {
		AbortWithError(c, err)
		return
	}

	view, err := s.querySvc.GetByEGID(ctx, egid)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

func (s *Server) GetBuildingStats(c *gin.Context) {
	report, err := s.statsSvc.Report(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apierrors "github.com/stwalsh4118/bluesky/api/internal/errors"
	"github.com/stwalsh4118/bluesky/api/internal/models"
	"github.com/stwalsh4118/bluesky/api/internal/services"
)

// ColumnMappingData is the wire form of a column mapping.
type ColumnMappingData struct {
	CreatedAt      time.Time   `json:"created_at"`
	ColumnRaw      *ColumnData `json:"column_raw"`
	ColumnMapped   *ColumnData `json:"column_mapped"`
	UserID         *int64      `json:"user_id"`
	ID             int64       `json:"id"`
	OrganizationID int64       `json:"organization_id"`
}

// ColumnMappingsResponse is the body of GET /column_mappings/.
type ColumnMappingsResponse struct {
	Status         string              `json:"status"`
	ColumnMappings []ColumnMappingData `json:"column_mappings"`
}

// ColumnMappingResponse is the body of GET /column_mappings/:id/.
type ColumnMappingResponse struct {
	Status        string            `json:"status"`
	ColumnMapping ColumnMappingData `json:"column_mapping"`
}

// DeleteCountResponse is the body of POST /column_mappings/delete_all/.
type DeleteCountResponse struct {
	Status      string `json:"status"`
	DeleteCount int64  `json:"delete_count"`
}

// ListMappings handles GET /api/v2/column_mappings/.
func (h *ColumnHandler) ListMappings(c *gin.Context) {
	orgID, ok := requireOrg(c)
	if !ok {
		return
	}

	mappings, err := h.service.ListMappings(c.Request.Context(), orgID)
	if err != nil {
		if errors.Is(err, services.ErrOrganizationNotFound) {
			apierrors.NotFound(c, fmt.Sprintf("organization with id %d does not exist", orgID))
			return
		}
		apierrors.InternalServerError(c, "Failed to list column mappings", err)
		return
	}

	data := make([]ColumnMappingData, 0, len(mappings))
	for _, m := range mappings {
		data = append(data, mapColumnMapping(m))
	}

	c.JSON(http.StatusOK, ColumnMappingsResponse{Status: StatusSuccess, ColumnMappings: data})
}

// GetMapping handles GET /api/v2/column_mappings/:id/.
func (h *ColumnHandler) GetMapping(c *gin.Context) {
	orgID, ok := requireOrg(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "column_mapping")
	if !ok {
		return
	}

	mapping, err := h.service.GetMapping(c.Request.Context(), orgID, id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrColumnMappingNotFound):
			apierrors.NotFound(c, fmt.Sprintf("column_mapping with id %d does not exist", id))
		case errors.Is(err, services.ErrOrganizationMismatch):
			apierrors.BadRequest(c, "Organization ID mismatch between column_mappings and organization", nil)
		default:
			apierrors.InternalServerError(c, "Failed to load column mapping", err)
		}
		return
	}

	c.JSON(http.StatusOK, ColumnMappingResponse{Status: StatusSuccess, ColumnMapping: mapColumnMapping(*mapping)})
}

// DeleteAllMappings handles POST /api/v2/column_mappings/delete_all/.
func (h *ColumnHandler) DeleteAllMappings(c *gin.Context) {
	orgID, ok := requireOrg(c)
	if !ok {
		return
	}

	count, err := h.service.DeleteAllMappings(c.Request.Context(), orgID)
	if err != nil {
		if errors.Is(err, services.ErrOrganizationNotFound) {
			apierrors.NotFound(c, fmt.Sprintf("organization with id %d does not exist", orgID))
			return
		}
		apierrors.InternalServerError(c, "Failed to delete column mappings", err)
		return
	}

	c.JSON(http.StatusOK, DeleteCountResponse{Status: StatusSuccess, DeleteCount: count})
}

func mapColumnMapping(m models.ColumnMapping) ColumnMappingData {
	dto := ColumnMappingData{
		ID:             m.ID,
		OrganizationID: m.SuperOrganizationID,
		UserID:         m.UserID,
		CreatedAt:      m.CreatedAt,
	}
	if m.ColumnRaw != nil {
		raw := mapColumn(*m.ColumnRaw)
		dto.ColumnRaw = &raw
	}
	if m.ColumnMapped != nil {
		mapped := mapColumn(*m.ColumnMapped)
		dto.ColumnMapped = &mapped
	}
	return dto
}

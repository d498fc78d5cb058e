package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/stwalsh4118/bluesky/api/internal/access"
	apierrors "github.com/stwalsh4118/bluesky/api/internal/errors"
	"github.com/stwalsh4118/bluesky/api/internal/models"
	"github.com/stwalsh4118/bluesky/api/internal/services"
)

// StatusSuccess is the "status" value of successful column responses.
const StatusSuccess = "success"

// ColumnHandler handles column, column mapping and column list setting requests.
type ColumnHandler struct {
	service services.ColumnService
}

// NewColumnHandler creates a new ColumnHandler instance.
func NewColumnHandler(service services.ColumnService) *ColumnHandler {
	return &ColumnHandler{
		service: service,
	}
}

// ListColumnsRequest represents the query parameters for listing columns.
type ListColumnsRequest struct {
	InventoryType string `form:"inventory_type"`
	UsedOnly      bool   `form:"used_only"`
}

// AddColumnNamesRequest represents the query parameters for add_column_names.
type AddColumnNamesRequest struct {
	InventoryType string `form:"inventory_type"`
	InventoryPK   string `form:"inventory_pk"`
}

// ColumnData is the wire form of a column.
type ColumnData struct {
	CreatedAt      time.Time `json:"created_at"`
	TableName      string    `json:"table_name"`
	ColumnName     string    `json:"column_name"`
	Name           string    `json:"name"`
	DataType       string    `json:"data_type"`
	ID             int64     `json:"id"`
	OrganizationID int64     `json:"organization_id"`
	IsExtraData    bool      `json:"is_extra_data"`
}

// ColumnListItem is a column annotated for the requested inventory type.
type ColumnListItem struct {
	ColumnData
	Related bool `json:"related"`
}

// ColumnsResponse is the body of GET /columns/.
type ColumnsResponse struct {
	Status  string           `json:"status"`
	Columns []ColumnListItem `json:"columns"`
}

// ColumnResponse is the body of GET /columns/:id/.
type ColumnResponse struct {
	Column ColumnData `json:"column"`
	Status string     `json:"status"`
}

// ExtraDataColumnsResponse is the body of POST /columns/add_column_names/.
type ExtraDataColumnsResponse struct {
	Status  string       `json:"status"`
	Columns []ColumnData `json:"columns"`
}

// DeleteAllColumnsResponse is the body of POST /columns/delete_all/.
type DeleteAllColumnsResponse struct {
	Status                string `json:"status"`
	ColumnMappingsDeleted int64  `json:"column_mappings_deleted_count"`
	ColumnsDeleted        int64  `json:"columns_deleted_count"`
}

// ListColumns handles GET /api/v2/columns/.
func (h *ColumnHandler) ListColumns(c *gin.Context) {
	orgID, ok := requireOrg(c)
	if !ok {
		return
	}

	var req ListColumnsRequest
	if !bindQuery(c, &req) {
		return
	}

	columns, err := h.service.ListColumns(c.Request.Context(), orgID, req.InventoryType, req.UsedOnly)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInventoryType) {
			apierrors.BadRequest(c, fmt.Sprintf("%s is not a valid inventory type", req.InventoryType), nil)
			return
		}
		apierrors.InternalServerError(c, "Failed to list columns", err)
		return
	}

	items := make([]ColumnListItem, 0, len(columns))
	for _, info := range columns {
		items = append(items, ColumnListItem{ColumnData: mapColumn(info.Column), Related: info.Related})
	}

	c.JSON(http.StatusOK, ColumnsResponse{Status: StatusSuccess, Columns: items})
}

// GetColumn handles GET /api/v2/columns/:id/.
func (h *ColumnHandler) GetColumn(c *gin.Context) {
	orgID, ok := requireOrg(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "column")
	if !ok {
		return
	}

	column, err := h.service.GetColumn(c.Request.Context(), orgID, id)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrColumnNotFound):
			apierrors.NotFound(c, fmt.Sprintf("column with id %d does not exist", id))
		case errors.Is(err, services.ErrOrganizationMismatch):
			apierrors.BadRequest(c, "Organization ID mismatch between column and organization", nil)
		default:
			apierrors.InternalServerError(c, "Failed to load column", err)
		}
		return
	}

	c.JSON(http.StatusOK, ColumnResponse{Status: StatusSuccess, Column: mapColumn(*column)})
}

// DeleteAllColumns handles POST /api/v2/columns/delete_all/.
func (h *ColumnHandler) DeleteAllColumns(c *gin.Context) {
	orgID, ok := requireOrg(c)
	if !ok {
		return
	}

	result, err := h.service.DeleteAllColumns(c.Request.Context(), orgID)
	if err != nil {
		if errors.Is(err, services.ErrOrganizationNotFound) {
			apierrors.NotFound(c, fmt.Sprintf("organization with id %d does not exist", orgID))
			return
		}
		apierrors.InternalServerError(c, "Failed to delete columns", err)
		return
	}

	c.JSON(http.StatusOK, DeleteAllColumnsResponse{
		Status:                StatusSuccess,
		ColumnMappingsDeleted: result.ColumnMappingsDeleted,
		ColumnsDeleted:        result.ColumnsDeleted,
	})
}

// AddColumnNames handles POST /api/v2/columns/add_column_names/.
// It registers the extra_data keys of one state as columns.
func (h *ColumnHandler) AddColumnNames(c *gin.Context) {
	orgID, ok := requireOrg(c)
	if !ok {
		return
	}

	var req AddColumnNamesRequest
	if !bindQuery(c, &req) {
		return
	}
	inventoryType := req.InventoryType
	if inventoryType == "" {
		inventoryType = services.InventoryTypeProperty
	}

	columns, err := h.service.AddColumnNames(c.Request.Context(), orgID, inventoryType, req.InventoryPK)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInventoryType):
			apierrors.BadRequest(c, fmt.Sprintf("%s is not a valid inventory type", inventoryType), nil)
		case errors.Is(err, services.ErrInventoryNotFound):
			apierrors.NotFound(c, fmt.Sprintf("No %s was found matching %s", inventoryType, req.InventoryPK))
		default:
			apierrors.InternalServerError(c, "Failed to add column names", err)
		}
		return
	}

	data := make([]ColumnData, 0, len(columns))
	for _, col := range columns {
		data = append(data, mapColumn(col))
	}

	c.JSON(http.StatusOK, ExtraDataColumnsResponse{Status: StatusSuccess, Columns: data})
}

func mapColumn(col models.Column) ColumnData {
	return ColumnData{
		ID:             col.ID,
		OrganizationID: col.OrganizationID,
		TableName:      col.StateTable,
		ColumnName:     col.ColumnName,
		Name:           col.ColumnName,
		DataType:       col.DataType,
		IsExtraData:    col.IsExtraData,
		CreatedAt:      col.CreatedAt,
	}
}

func requireOrg(c *gin.Context) (int64, bool) {
	orgID, ok := access.OrganizationIDFrom(c)
	if !ok {
		apierrors.BadRequest(c, "organization_id is required", nil)
		return 0, false
	}
	return orgID, true
}

func pathID(c *gin.Context, kind string) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		apierrors.NotFound(c, fmt.Sprintf("%s with id %s does not exist", kind, raw))
		return 0, false
	}
	return id, true
}

func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			apierrors.ValidationError(c, validationErrors)
			return false
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return false
	}
	return true
}

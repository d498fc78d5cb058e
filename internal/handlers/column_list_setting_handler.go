package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apierrors "github.com/stwalsh4118/bluesky/api/internal/errors"
	"github.com/stwalsh4118/bluesky/api/internal/models"
	"github.com/stwalsh4118/bluesky/api/internal/services"
)

// ColumnListSettingRequest is the body of create and update requests.
type ColumnListSettingRequest struct {
	Name             string                    `json:"name" binding:"required"`
	SettingsLocation string                    `json:"settings_location"`
	InventoryType    string                    `json:"inventory_type" binding:"required"`
	Columns          []ColumnListSettingColumn `json:"columns" binding:"dive"`
}

// ColumnListSettingColumn places one column in a setting.
type ColumnListSettingColumn struct {
	ID     int64 `json:"id" binding:"required,gt=0"`
	Order  int   `json:"order" binding:"gte=0"`
	Pinned bool  `json:"pinned"`
}

// ColumnListSettingData is the wire form of a column list setting.
type ColumnListSettingData struct {
	CreatedAt        time.Time                 `json:"created_at"`
	UpdatedAt        time.Time                 `json:"updated_at"`
	Columns          []ColumnListSettingColumn `json:"columns"`
	Name             string                    `json:"name"`
	SettingsLocation string                    `json:"settings_location"`
	InventoryType    string                    `json:"inventory_type"`
	ID               int64                     `json:"id"`
	OrganizationID   int64                     `json:"organization_id"`
}

// ColumnListSettingsResponse is the body of the setting list endpoint.
type ColumnListSettingsResponse struct {
	Status string                  `json:"status"`
	Data   []ColumnListSettingData `json:"data"`
}

// ColumnListSettingResponse is the body of single-setting endpoints.
type ColumnListSettingResponse struct {
	Data   *ColumnListSettingData `json:"data,omitempty"`
	Status string                 `json:"status"`
}

// ListSettings handles GET /api/v2/column_list_settings/.
func (h *ColumnHandler) ListSettings(c *gin.Context) {
	orgID, ok := requireOrg(c)
	if !ok {
		return
	}

	settings, err := h.service.ListSettings(c.Request.Context(), orgID)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to list column list settings", err)
		return
	}

	data := make([]ColumnListSettingData, 0, len(settings))
	for _, s := range settings {
		data = append(data, mapColumnListSetting(s))
	}

	c.JSON(http.StatusOK, ColumnListSettingsResponse{Status: StatusSuccess, Data: data})
}

// GetSetting handles GET /api/v2/column_list_settings/:id/.
func (h *ColumnHandler) GetSetting(c *gin.Context) {
	orgID, ok := requireOrg(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "column_list_setting")
	if !ok {
		return
	}

	setting, err := h.service.GetSetting(c.Request.Context(), orgID, id)
	if err != nil {
		writeSettingError(c, err, "Failed to load column list setting")
		return
	}

	data := mapColumnListSetting(*setting)
	c.JSON(http.StatusOK, ColumnListSettingResponse{Status: StatusSuccess, Data: &data})
}

// CreateSetting handles POST /api/v2/column_list_settings/.
func (h *ColumnHandler) CreateSetting(c *gin.Context) {
	orgID, ok := requireOrg(c)
	if !ok {
		return
	}
	in, ok := bindSetting(c)
	if !ok {
		return
	}

	setting, err := h.service.CreateSetting(c.Request.Context(), orgID, in)
	if err != nil {
		writeSettingError(c, err, "Failed to create column list setting")
		return
	}

	data := mapColumnListSetting(*setting)
	c.JSON(http.StatusCreated, ColumnListSettingResponse{Status: StatusSuccess, Data: &data})
}

// UpdateSetting handles PUT /api/v2/column_list_settings/:id/.
func (h *ColumnHandler) UpdateSetting(c *gin.Context) {
	orgID, ok := requireOrg(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "column_list_setting")
	if !ok {
		return
	}
	in, ok := bindSetting(c)
	if !ok {
		return
	}

	setting, err := h.service.UpdateSetting(c.Request.Context(), orgID, id, in)
	if err != nil {
		writeSettingError(c, err, "Failed to update column list setting")
		return
	}

	data := mapColumnListSetting(*setting)
	c.JSON(http.StatusOK, ColumnListSettingResponse{Status: StatusSuccess, Data: &data})
}

// DeleteSetting handles DELETE /api/v2/column_list_settings/:id/.
func (h *ColumnHandler) DeleteSetting(c *gin.Context) {
	orgID, ok := requireOrg(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "column_list_setting")
	if !ok {
		return
	}

	if err := h.service.DeleteSetting(c.Request.Context(), orgID, id); err != nil {
		writeSettingError(c, err, "Failed to delete column list setting")
		return
	}

	c.JSON(http.StatusOK, ColumnListSettingResponse{Status: StatusSuccess})
}

func bindSetting(c *gin.Context) (services.ColumnListSettingInput, bool) {
	var req ColumnListSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			apierrors.ValidationError(c, validationErrors)
			return services.ColumnListSettingInput{}, false
		}
		apierrors.BadRequest(c, "Invalid request body", nil)
		return services.ColumnListSettingInput{}, false
	}

	in := services.ColumnListSettingInput{
		Name:             req.Name,
		SettingsLocation: req.SettingsLocation,
		InventoryType:    req.InventoryType,
		Columns:          make([]models.ColumnListSettingColumn, 0, len(req.Columns)),
	}
	for _, col := range req.Columns {
		in.Columns = append(in.Columns, models.ColumnListSettingColumn{
			ColumnID: col.ID,
			Order:    col.Order,
			Pinned:   col.Pinned,
		})
	}
	return in, true
}

func writeSettingError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, services.ErrColumnListSettingNotFound):
		apierrors.NotFound(c, "Column list setting not found")
	case errors.Is(err, services.ErrInvalidColumnListSetting):
		apierrors.BadRequest(c, err.Error(), nil)
	default:
		apierrors.InternalServerError(c, message, err)
	}
}

func mapColumnListSetting(s models.ColumnListSetting) ColumnListSettingData {
	columns := make([]ColumnListSettingColumn, 0, len(s.Columns))
	for _, col := range s.Columns {
		columns = append(columns, ColumnListSettingColumn{ID: col.ColumnID, Order: col.Order, Pinned: col.Pinned})
	}
	return ColumnListSettingData{
		ID:               s.ID,
		OrganizationID:   s.OrganizationID,
		Name:             s.Name,
		SettingsLocation: s.SettingsLocation,
		InventoryType:    s.InventoryType,
		Columns:          columns,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

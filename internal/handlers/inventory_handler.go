package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/stwalsh4118/bluesky/api/internal/access"
	apierrors "github.com/stwalsh4118/bluesky/api/internal/errors"
	"github.com/stwalsh4118/bluesky/api/internal/pagination"
	"github.com/stwalsh4118/bluesky/api/internal/services"
)

// InventoryHandler handles property and tax lot view requests.
type InventoryHandler struct {
	service services.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler instance.
func NewInventoryHandler(service services.InventoryService) *InventoryHandler {
	return &InventoryHandler{
		service: service,
	}
}

// ListProperties handles GET /api/v2/properties/.
// It returns one page of property views with their related tax lot states.
func (h *InventoryHandler) ListProperties(c *gin.Context) {
	orgID, req, ok := bindList(c)
	if !ok {
		return
	}

	page, err := h.service.ListProperties(c.Request.Context(), orgID, req)
	if err != nil {
		writeInventoryError(c, err, "Failed to list properties")
		return
	}

	c.JSON(http.StatusOK, mapPropertyPage(page))
}

// GetProperty handles GET /api/v2/properties/:id/.
// It returns the property's view with the full views of its tax lots.
func (h *InventoryHandler) GetProperty(c *gin.Context) {
	orgID, id, ok := bindDetail(c, "property")
	if !ok {
		return
	}

	detail, err := h.service.GetProperty(c.Request.Context(), orgID, id)
	if err != nil {
		if errors.Is(err, services.ErrPropertyNotFound) {
			apierrors.NotFound(c, fmt.Sprintf("No property was found matching %d", id))
			return
		}
		writeInventoryError(c, err, "Failed to load property")
		return
	}

	c.JSON(http.StatusOK, mapPropertyDetail(detail))
}

// ListTaxLots handles GET /api/v2/taxlots/.
func (h *InventoryHandler) ListTaxLots(c *gin.Context) {
	orgID, req, ok := bindList(c)
	if !ok {
		return
	}

	page, err := h.service.ListTaxLots(c.Request.Context(), orgID, req)
	if err != nil {
		writeInventoryError(c, err, "Failed to list tax lots")
		return
	}

	c.JSON(http.StatusOK, mapTaxLotPage(page))
}

// GetTaxLot handles GET /api/v2/taxlots/:id/.
func (h *InventoryHandler) GetTaxLot(c *gin.Context) {
	orgID, id, ok := bindDetail(c, "taxlot")
	if !ok {
		return
	}

	detail, err := h.service.GetTaxLot(c.Request.Context(), orgID, id)
	if err != nil {
		if errors.Is(err, services.ErrTaxLotNotFound) {
			apierrors.NotFound(c, fmt.Sprintf("No taxlot was found matching %d", id))
			return
		}
		writeInventoryError(c, err, "Failed to load tax lot")
		return
	}

	c.JSON(http.StatusOK, mapTaxLotDetail(detail))
}

func bindList(c *gin.Context) (int64, pagination.Request, bool) {
	var req pagination.Request
	if err := c.ShouldBindQuery(&req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			apierrors.ValidationError(c, validationErrors)
			return 0, req, false
		}
		apierrors.BadRequest(c, "Invalid query parameters", nil)
		return 0, req, false
	}

	orgID, ok := access.OrganizationIDFrom(c)
	if !ok {
		apierrors.BadRequest(c, "organization_id is required", nil)
		return 0, req, false
	}
	return orgID, req, true
}

func bindDetail(c *gin.Context, kind string) (int64, int64, bool) {
	orgID, ok := access.OrganizationIDFrom(c)
	if !ok {
		apierrors.BadRequest(c, "organization_id is required", nil)
		return 0, 0, false
	}

	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		apierrors.NotFound(c, fmt.Sprintf("No %s was found matching %s", kind, raw))
		return 0, 0, false
	}
	return orgID, id, true
}

func writeInventoryError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, services.ErrInvalidOrganization):
		apierrors.BadRequest(c, "organization_id must be a positive integer", nil)
	case errors.Is(err, pagination.ErrInvalidPerPage):
		apierrors.BadRequest(c, pagination.ErrInvalidPerPage.Error(), nil)
	default:
		apierrors.InternalServerError(c, message, err)
	}
}

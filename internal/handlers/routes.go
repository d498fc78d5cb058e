package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stwalsh4118/bluesky/api/internal/authz"
)

// Guard returns the access chain for a route requiring permission.
type Guard func(permission string) gin.HandlerFunc

// RegisterRoutes mounts the organization-scoped API on api.
// Paths are registered with and without the trailing slash.
func RegisterRoutes(api gin.IRouter, inventory *InventoryHandler, columns *ColumnHandler, guard Guard) {
	view := guard(authz.RequiresViewer)
	modify := guard(authz.CanModifyData)

	handle := func(method, path string, chain gin.HandlerFunc, h gin.HandlerFunc) {
		api.Handle(method, path, chain, h)
		api.Handle(method, path+"/", chain, h)
	}

	handle(http.MethodGet, "/properties", view, inventory.ListProperties)
	handle(http.MethodGet, "/properties/:id", view, inventory.GetProperty)
	handle(http.MethodGet, "/taxlots", view, inventory.ListTaxLots)
	handle(http.MethodGet, "/taxlots/:id", view, inventory.GetTaxLot)

	handle(http.MethodGet, "/columns", view, columns.ListColumns)
	handle(http.MethodPost, "/columns/delete_all", modify, columns.DeleteAllColumns)
	handle(http.MethodPost, "/columns/add_column_names", modify, columns.AddColumnNames)
	handle(http.MethodGet, "/columns/:id", view, columns.GetColumn)

	handle(http.MethodGet, "/column_mappings", view, columns.ListMappings)
	handle(http.MethodPost, "/column_mappings/delete_all", modify, columns.DeleteAllMappings)
	handle(http.MethodGet, "/column_mappings/:id", view, columns.GetMapping)

	handle(http.MethodGet, "/column_list_settings", view, columns.ListSettings)
	handle(http.MethodPost, "/column_list_settings", modify, columns.CreateSetting)
	handle(http.MethodGet, "/column_list_settings/:id", view, columns.GetSetting)
	handle(http.MethodPut, "/column_list_settings/:id", modify, columns.UpdateSetting)
	handle(http.MethodDelete, "/column_list_settings/:id", modify, columns.DeleteSetting)
}

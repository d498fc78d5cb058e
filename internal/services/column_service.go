package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/stwalsh4118/bluesky/api/internal/logger"
	"github.com/stwalsh4118/bluesky/api/internal/models"
	"github.com/stwalsh4118/bluesky/api/internal/repository"
)

// Inventory types accepted by column operations.
const (
	InventoryTypeProperty      = "property"
	InventoryTypePropertyState = "propertystate"
	InventoryTypeTaxLot        = "taxlot"
	InventoryTypeTaxLotState   = "taxlotstate"
)

// Column errors
var (
	ErrInvalidInventoryType      = errors.New("invalid inventory type")
	ErrOrganizationNotFound      = errors.New("organization not found")
	ErrOrganizationMismatch      = errors.New("organization mismatch")
	ErrColumnNotFound            = errors.New("column not found")
	ErrColumnMappingNotFound     = errors.New("column mapping not found")
	ErrInventoryNotFound         = errors.New("inventory record not found")
	ErrColumnListSettingNotFound = errors.New("column list setting not found")
	ErrInvalidColumnListSetting  = errors.New("invalid column list setting")
)

// ColumnInfo is a column annotated for one inventory type. Related is true
// when the column belongs to the other inventory type's state table.
type ColumnInfo struct {
	Column  models.Column
	Related bool
}

// DeleteAllResult reports how much was removed by DeleteAllColumns.
type DeleteAllResult struct {
	ColumnMappingsDeleted int64
	ColumnsDeleted        int64
}

// ColumnListSettingInput is the writable part of a column list setting.
type ColumnListSettingInput struct {
	Name             string
	SettingsLocation string
	InventoryType    string
	Columns          []models.ColumnListSettingColumn
}

// ColumnService defines operations over column metadata, column mappings and
// column list settings.
type ColumnService interface {
	// ListColumns returns every column of the organization, flagged as related
	// when it belongs to the other inventory type. With usedOnly only columns
	// referenced by a mapping are returned.
	// Returns ErrInvalidInventoryType unless inventoryType is property or taxlot.
	ListColumns(ctx context.Context, orgID int64, inventoryType string, usedOnly bool) ([]ColumnInfo, error)

	// GetColumn returns ErrColumnNotFound if no column has the id and
	// ErrOrganizationMismatch if it belongs to another organization.
	GetColumn(ctx context.Context, orgID, columnID int64) (*models.Column, error)

	// DeleteAllColumns removes the organization's mappings and columns.
	// Returns ErrOrganizationNotFound if the organization does not exist.
	DeleteAllColumns(ctx context.Context, orgID int64) (*DeleteAllResult, error)

	// AddColumnNames creates an extra-data column for every extra_data key of a
	// state and returns the organization's extra-data columns of that state table.
	// An empty inventoryPK selects the organization's newest state.
	AddColumnNames(ctx context.Context, orgID int64, inventoryType, inventoryPK string) ([]models.Column, error)

	// ListMappings returns the organization's column mappings.
	ListMappings(ctx context.Context, orgID int64) ([]models.ColumnMapping, error)

	// GetMapping returns ErrColumnMappingNotFound or ErrOrganizationMismatch like GetColumn.
	GetMapping(ctx context.Context, orgID, mappingID int64) (*models.ColumnMapping, error)

	// DeleteAllMappings removes the organization's column mappings and returns the count.
	DeleteAllMappings(ctx context.Context, orgID int64) (int64, error)

	ListSettings(ctx context.Context, orgID int64) ([]models.ColumnListSetting, error)
	GetSetting(ctx context.Context, orgID, settingID int64) (*models.ColumnListSetting, error)
	CreateSetting(ctx context.Context, orgID int64, in ColumnListSettingInput) (*models.ColumnListSetting, error)
	UpdateSetting(ctx context.Context, orgID, settingID int64, in ColumnListSettingInput) (*models.ColumnListSetting, error)
	DeleteSetting(ctx context.Context, orgID, settingID int64) error
}

// columnService is the concrete implementation of ColumnService.
type columnService struct {
	columns  repository.ColumnRepository
	mappings repository.ColumnMappingRepository
	settings repository.ColumnListSettingRepository
	orgs     repository.OrganizationRepository
	log      *logger.Logger
}

// NewColumnService creates a new instance of ColumnService.
func NewColumnService(
	columns repository.ColumnRepository,
	mappings repository.ColumnMappingRepository,
	settings repository.ColumnListSettingRepository,
	orgs repository.OrganizationRepository,
	log *logger.Logger,
) ColumnService {
	return &columnService{
		columns:  columns,
		mappings: mappings,
		settings: settings,
		orgs:     orgs,
		log:      log.WithComponent("columns"),
	}
}

func (s *columnService) ListColumns(ctx context.Context, orgID int64, inventoryType string, usedOnly bool) ([]ColumnInfo, error) {
	if inventoryType == "" {
		inventoryType = InventoryTypeProperty
	}

	var table string
	switch inventoryType {
	case InventoryTypeProperty:
		table = models.TablePropertyState
	case InventoryTypeTaxLot:
		table = models.TableTaxLotState
	default:
		return nil, fmt.Errorf("%w: %s is not a valid inventory type", ErrInvalidInventoryType, inventoryType)
	}

	columns, err := s.columns.ListColumns(ctx, orgID)
	if err != nil {
		s.log.Error("Failed to list columns", err, map[string]interface{}{
			"organization_id": orgID,
		})
		return nil, fmt.Errorf("failed to list columns: %w", err)
	}

	var used map[int64]struct{}
	if usedOnly {
		ids, err := s.columns.MappedColumnIDs(ctx, orgID)
		if err != nil {
			return nil, fmt.Errorf("failed to query mapped columns: %w", err)
		}
		used = make(map[int64]struct{}, len(ids))
		for _, id := range ids {
			used[id] = struct{}{}
		}
	}

	result := make([]ColumnInfo, 0, len(columns))
	for _, c := range columns {
		if used != nil {
			if _, ok := used[c.ID]; !ok {
				continue
			}
		}
		result = append(result, ColumnInfo{Column: c, Related: c.StateTable != table})
	}

	s.log.Debug("Listed columns", map[string]interface{}{
		"organization_id": orgID,
		"inventory_type":  inventoryType,
		"used_only":       usedOnly,
		"count":           len(result),
	})

	return result, nil
}

func (s *columnService) GetColumn(ctx context.Context, orgID, columnID int64) (*models.Column, error) {
	column, err := s.columns.FindColumn(ctx, columnID)
	if err != nil {
		return nil, fmt.Errorf("failed to query column: %w", err)
	}
	if column == nil {
		return nil, fmt.Errorf("%w: column with id %d does not exist", ErrColumnNotFound, columnID)
	}
	if column.OrganizationID != orgID {
		s.log.Warn("Column requested from another organization", map[string]interface{}{
			"organization_id": orgID,
			"column_id":       columnID,
		})
		return nil, fmt.Errorf("%w: Organization ID mismatch between column and organization", ErrOrganizationMismatch)
	}
	return column, nil
}

func (s *columnService) DeleteAllColumns(ctx context.Context, orgID int64) (*DeleteAllResult, error) {
	if err := s.requireOrganization(ctx, orgID); err != nil {
		return nil, err
	}

	columns, mappings, err := s.columns.DeleteAll(ctx, orgID)
	if err != nil {
		s.log.Error("Failed to delete columns", err, map[string]interface{}{
			"organization_id": orgID,
		})
		return nil, fmt.Errorf("failed to delete columns: %w", err)
	}

	s.log.Info("Deleted all columns", map[string]interface{}{
		"organization_id":  orgID,
		"columns_deleted":  columns,
		"mappings_deleted": mappings,
	})

	return &DeleteAllResult{ColumnMappingsDeleted: mappings, ColumnsDeleted: columns}, nil
}

func (s *columnService) AddColumnNames(ctx context.Context, orgID int64, inventoryType, inventoryPK string) ([]models.Column, error) {
	if inventoryType == "" {
		inventoryType = InventoryTypeProperty
	}

	var table string
	switch inventoryType {
	case InventoryTypeProperty, InventoryTypePropertyState:
		table = models.TablePropertyState
	case InventoryTypeTaxLot, InventoryTypeTaxLotState:
		table = models.TableTaxLotState
	default:
		return nil, fmt.Errorf("%w: %s is not a valid inventory type", ErrInvalidInventoryType, inventoryType)
	}

	notFound := fmt.Errorf("%w: No %s was found matching %s", ErrInventoryNotFound, inventoryType, inventoryPK)

	var id *int64
	if pk := strings.TrimSpace(inventoryPK); pk != "" {
		parsed, err := strconv.ParseInt(pk, 10, 64)
		if err != nil {
			return nil, notFound
		}
		id = &parsed
	}

	var extra models.ExtraData
	switch table {
	case models.TablePropertyState:
		state, err := s.columns.FindPropertyState(ctx, orgID, id)
		if err != nil {
			return nil, fmt.Errorf("failed to query property state: %w", err)
		}
		if state == nil {
			return nil, notFound
		}
		extra = state.ExtraData
	default:
		state, err := s.columns.FindTaxLotState(ctx, orgID, id)
		if err != nil {
			return nil, fmt.Errorf("failed to query tax lot state: %w", err)
		}
		if state == nil {
			return nil, notFound
		}
		extra = state.ExtraData
	}

	created, err := s.columns.EnsureExtraDataColumns(ctx, orgID, table, extra.Keys())
	if err != nil {
		s.log.Error("Failed to save column names", err, map[string]interface{}{
			"organization_id": orgID,
			"table":           table,
		})
		return nil, fmt.Errorf("failed to save column names: %w", err)
	}

	s.log.Info("Saved column names", map[string]interface{}{
		"organization_id": orgID,
		"table":           table,
		"created":         created,
	})

	columns, err := s.columns.ListExtraDataColumns(ctx, orgID, table)
	if err != nil {
		return nil, fmt.Errorf("failed to list extra data columns: %w", err)
	}
	return columns, nil
}

func (s *columnService) ListMappings(ctx context.Context, orgID int64) ([]models.ColumnMapping, error) {
	if err := s.requireOrganization(ctx, orgID); err != nil {
		return nil, err
	}

	mappings, err := s.mappings.ListMappings(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list column mappings: %w", err)
	}
	return mappings, nil
}

func (s *columnService) GetMapping(ctx context.Context, orgID, mappingID int64) (*models.ColumnMapping, error) {
	mapping, err := s.mappings.FindMapping(ctx, mappingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query column mapping: %w", err)
	}
	if mapping == nil {
		return nil, fmt.Errorf("%w: column_mapping with id %d does not exist", ErrColumnMappingNotFound, mappingID)
	}
	if mapping.SuperOrganizationID != orgID {
		return nil, fmt.Errorf("%w: Organization ID mismatch between column_mappings and organization", ErrOrganizationMismatch)
	}
	return mapping, nil
}

func (s *columnService) DeleteAllMappings(ctx context.Context, orgID int64) (int64, error) {
	if err := s.requireOrganization(ctx, orgID); err != nil {
		return 0, err
	}

	count, err := s.mappings.DeleteMappings(ctx, orgID)
	if err != nil {
		s.log.Error("Failed to delete column mappings", err, map[string]interface{}{
			"organization_id": orgID,
		})
		return 0, fmt.Errorf("failed to delete column mappings: %w", err)
	}

	s.log.Info("Deleted all column mappings", map[string]interface{}{
		"organization_id": orgID,
		"deleted":         count,
	})
	return count, nil
}

func (s *columnService) requireOrganization(ctx context.Context, orgID int64) error {
	exists, err := s.orgs.Exists(ctx, orgID)
	if err != nil {
		return fmt.Errorf("failed to query organization: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: organization with id %d does not exist", ErrOrganizationNotFound, orgID)
	}
	return nil
}

package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/stwalsh4118/bluesky/api/internal/models"
)

// Inventory types a column list setting applies to.
const (
	SettingInventoryProperty = "Property"
	SettingInventoryTaxLot   = "Tax Lot"
)

func (s *columnService) ListSettings(ctx context.Context, orgID int64) ([]models.ColumnListSetting, error) {
	settings, err := s.settings.ListSettings(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list column list settings: %w", err)
	}
	return settings, nil
}

func (s *columnService) GetSetting(ctx context.Context, orgID, settingID int64) (*models.ColumnListSetting, error) {
	setting, err := s.settings.FindSetting(ctx, orgID, settingID)
	if err != nil {
		return nil, fmt.Errorf("failed to query column list setting: %w", err)
	}
	if setting == nil {
		return nil, ErrColumnListSettingNotFound
	}
	return setting, nil
}

func (s *columnService) CreateSetting(ctx context.Context, orgID int64, in ColumnListSettingInput) (*models.ColumnListSetting, error) {
	if err := s.validateSetting(ctx, orgID, in); err != nil {
		return nil, err
	}

	setting := &models.ColumnListSetting{
		OrganizationID:   orgID,
		Name:             strings.TrimSpace(in.Name),
		SettingsLocation: in.SettingsLocation,
		InventoryType:    in.InventoryType,
		Columns:          in.Columns,
	}
	if err := s.settings.CreateSetting(ctx, setting); err != nil {
		s.log.Error("Failed to create column list setting", err, map[string]interface{}{
			"organization_id": orgID,
		})
		return nil, fmt.Errorf("failed to create column list setting: %w", err)
	}

	s.log.Info("Created column list setting", map[string]interface{}{
		"organization_id": orgID,
		"setting_id":      setting.ID,
		"columns":         len(setting.Columns),
	})
	return setting, nil
}

func (s *columnService) UpdateSetting(ctx context.Context, orgID, settingID int64, in ColumnListSettingInput) (*models.ColumnListSetting, error) {
	existing, err := s.GetSetting(ctx, orgID, settingID)
	if err != nil {
		return nil, err
	}
	if err := s.validateSetting(ctx, orgID, in); err != nil {
		return nil, err
	}

	existing.Name = strings.TrimSpace(in.Name)
	existing.SettingsLocation = in.SettingsLocation
	existing.InventoryType = in.InventoryType
	existing.Columns = in.Columns

	if err := s.settings.UpdateSetting(ctx, existing); err != nil {
		s.log.Error("Failed to update column list setting", err, map[string]interface{}{
			"organization_id": orgID,
			"setting_id":      settingID,
		})
		return nil, fmt.Errorf("failed to update column list setting: %w", err)
	}
	return existing, nil
}

func (s *columnService) DeleteSetting(ctx context.Context, orgID, settingID int64) error {
	deleted, err := s.settings.DeleteSetting(ctx, orgID, settingID)
	if err != nil {
		return fmt.Errorf("failed to delete column list setting: %w", err)
	}
	if !deleted {
		return ErrColumnListSettingNotFound
	}

	s.log.Info("Deleted column list setting", map[string]interface{}{
		"organization_id": orgID,
		"setting_id":      settingID,
	})
	return nil
}

func (s *columnService) validateSetting(ctx context.Context, orgID int64, in ColumnListSettingInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidColumnListSetting)
	}
	if in.InventoryType != SettingInventoryProperty && in.InventoryType != SettingInventoryTaxLot {
		return fmt.Errorf("%w: inventory_type must be %q or %q", ErrInvalidColumnListSetting, SettingInventoryProperty, SettingInventoryTaxLot)
	}

	seen := make(map[int64]struct{}, len(in.Columns))
	ids := make([]int64, 0, len(in.Columns))
	for _, c := range in.Columns {
		if _, dup := seen[c.ColumnID]; dup {
			return fmt.Errorf("%w: column %d is listed more than once", ErrInvalidColumnListSetting, c.ColumnID)
		}
		seen[c.ColumnID] = struct{}{}
		ids = append(ids, c.ColumnID)
	}
	if len(ids) == 0 {
		return nil
	}

	count, err := s.columns.CountColumns(ctx, orgID, ids)
	if err != nil {
		return fmt.Errorf("failed to verify columns: %w", err)
	}
	if count != int64(len(ids)) {
		return fmt.Errorf("%w: columns must belong to the organization", ErrInvalidColumnListSetting)
	}
	return nil
}

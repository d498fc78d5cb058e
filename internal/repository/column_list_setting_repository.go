package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/stwalsh4118/bluesky/api/internal/database"
	"github.com/stwalsh4118/bluesky/api/internal/models"
)

// ColumnListSettingRepository defines access to saved column list settings.
// Every method is scoped to the organization.
type ColumnListSettingRepository interface {
	// ListSettings returns the organization's settings with their columns in order.
	ListSettings(ctx context.Context, orgID int64) ([]models.ColumnListSetting, error)

	// FindSetting returns nil, nil if the setting does not exist in the organization.
	FindSetting(ctx context.Context, orgID, id int64) (*models.ColumnListSetting, error)

	// CreateSetting inserts the setting and its columns.
	CreateSetting(ctx context.Context, setting *models.ColumnListSetting) error

	// UpdateSetting overwrites the setting's fields and replaces its columns.
	UpdateSetting(ctx context.Context, setting *models.ColumnListSetting) error

	// DeleteSetting reports whether a setting was deleted.
	DeleteSetting(ctx context.Context, orgID, id int64) (bool, error)
}

type columnListSettingRepository struct {
	db *gorm.DB
}

// NewColumnListSettingRepository creates a new instance of ColumnListSettingRepository.
func NewColumnListSettingRepository(db *database.Database) ColumnListSettingRepository {
	return &columnListSettingRepository{
		db: db.Gorm,
	}
}

func orderedColumns(db *gorm.DB) *gorm.DB {
	return db.Order(`"order", id`)
}

func (r *columnListSettingRepository) ListSettings(ctx context.Context, orgID int64) ([]models.ColumnListSetting, error) {
	var settings []models.ColumnListSetting
	if err := r.db.WithContext(ctx).
		Preload("Columns", orderedColumns).
		Where("organization_id = ?", orgID).
		Order("id").
		Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to list column list settings for organization %d: %w", orgID, err)
	}
	return settings, nil
}

func (r *columnListSettingRepository) FindSetting(ctx context.Context, orgID, id int64) (*models.ColumnListSetting, error) {
	var setting models.ColumnListSetting
	if err := r.db.WithContext(ctx).
		Preload("Columns", orderedColumns).
		Where("organization_id = ? AND id = ?", orgID, id).
		First(&setting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query column list setting %d: %w", id, err)
	}
	return &setting, nil
}

func (r *columnListSettingRepository) CreateSetting(ctx context.Context, setting *models.ColumnListSetting) error {
	if err := r.db.WithContext(ctx).Create(setting).Error; err != nil {
		return fmt.Errorf("failed to create column list setting: %w", err)
	}
	return nil
}

func (r *columnListSettingRepository) UpdateSetting(ctx context.Context, setting *models.ColumnListSetting) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ColumnListSetting{}).
			Where("organization_id = ? AND id = ?", setting.OrganizationID, setting.ID).
			Updates(map[string]interface{}{
				"name":              setting.Name,
				"settings_location": setting.SettingsLocation,
				"inventory_type":    setting.InventoryType,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Where("column_list_setting_id = ?", setting.ID).
			Delete(&models.ColumnListSettingColumn{}).Error; err != nil {
			return err
		}

		for i := range setting.Columns {
			setting.Columns[i].ID = 0
			setting.Columns[i].ColumnListSettingID = setting.ID
		}
		if len(setting.Columns) > 0 {
			if err := tx.Create(&setting.Columns).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update column list setting %d: %w", setting.ID, err)
	}
	return nil
}

func (r *columnListSettingRepository) DeleteSetting(ctx context.Context, orgID, id int64) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("organization_id = ? AND id = ?", orgID, id).Delete(&models.ColumnListSetting{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		deleted = true
		return tx.Where("column_list_setting_id = ?", id).Delete(&models.ColumnListSettingColumn{}).Error
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete column list setting %d: %w", id, err)
	}
	return deleted, nil
}

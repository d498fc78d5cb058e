package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/stwalsh4118/bluesky/api/internal/database"
	"github.com/stwalsh4118/bluesky/api/internal/models"
)

// ColumnMappingRepository defines access to raw-to-inventory column mappings.
type ColumnMappingRepository interface {
	// ListMappings returns the organization's mappings with both columns loaded.
	ListMappings(ctx context.Context, orgID int64) ([]models.ColumnMapping, error)

	// FindMapping returns the mapping with the given id regardless of organization.
	// Returns nil, nil if no such mapping exists.
	FindMapping(ctx context.Context, id int64) (*models.ColumnMapping, error)

	// DeleteMappings removes every mapping of the organization and returns the count.
	DeleteMappings(ctx context.Context, orgID int64) (int64, error)
}

type columnMappingRepository struct {
	db *gorm.DB
}

// NewColumnMappingRepository creates a new instance of ColumnMappingRepository.
func NewColumnMappingRepository(db *database.Database) ColumnMappingRepository {
	return &columnMappingRepository{
		db: db.Gorm,
	}
}

func (r *columnMappingRepository) ListMappings(ctx context.Context, orgID int64) ([]models.ColumnMapping, error) {
	var mappings []models.ColumnMapping
	if err := r.db.WithContext(ctx).
		Preload("ColumnRaw").
		Preload("ColumnMapped").
		Where("super_organization_id = ?", orgID).
		Order("id").
		Find(&mappings).Error; err != nil {
		return nil, fmt.Errorf("failed to list column mappings for organization %d: %w", orgID, err)
	}
	return mappings, nil
}

func (r *columnMappingRepository) FindMapping(ctx context.Context, id int64) (*models.ColumnMapping, error) {
	var mapping models.ColumnMapping
	if err := r.db.WithContext(ctx).
		Preload("ColumnRaw").
		Preload("ColumnMapped").
		First(&mapping, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query column mapping %d: %w", id, err)
	}
	return &mapping, nil
}

func (r *columnMappingRepository) DeleteMappings(ctx context.Context, orgID int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("super_organization_id = ?", orgID).
		Delete(&models.ColumnMapping{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete column mappings for organization %d: %w", orgID, res.Error)
	}
	return res.RowsAffected, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/stwalsh4118/bluesky/api/internal/database"
	"github.com/stwalsh4118/bluesky/api/internal/models"
)

// ColumnRepository defines access to column metadata and the states columns
// are derived from.
type ColumnRepository interface {
	// ListColumns returns every column of the organization ordered by id.
	ListColumns(ctx context.Context, orgID int64) ([]models.Column, error)

	// MappedColumnIDs returns the ids of columns referenced by any of the
	// organization's column mappings, on either the raw or the mapped side.
	MappedColumnIDs(ctx context.Context, orgID int64) ([]int64, error)

	// FindColumn returns the column with the given id regardless of organization.
	// Returns nil, nil if no such column exists.
	FindColumn(ctx context.Context, id int64) (*models.Column, error)

	// CountColumns returns how many of ids are columns owned by the organization.
	CountColumns(ctx context.Context, orgID int64, ids []int64) (int64, error)

	// DeleteAll removes the organization's column mappings and columns in one
	// transaction and returns how many of each were deleted.
	DeleteAll(ctx context.Context, orgID int64) (columns int64, mappings int64, err error)

	// FindPropertyState returns the organization's property state with the given id,
	// or its newest state when id is nil. Returns nil, nil when none matches.
	FindPropertyState(ctx context.Context, orgID int64, id *int64) (*models.PropertyState, error)

	// FindTaxLotState returns the organization's tax lot state with the given id,
	// or its newest state when id is nil. Returns nil, nil when none matches.
	FindTaxLotState(ctx context.Context, orgID int64, id *int64) (*models.TaxLotState, error)

	// EnsureExtraDataColumns creates an extra-data column for every name the
	// organization does not have yet in table. Returns the number created.
	EnsureExtraDataColumns(ctx context.Context, orgID int64, table string, names []string) (int, error)

	// ListExtraDataColumns returns the organization's extra-data columns of table.
	ListExtraDataColumns(ctx context.Context, orgID int64, table string) ([]models.Column, error)
}

type columnRepository struct {
	db *gorm.DB
}

// NewColumnRepository creates a new instance of ColumnRepository.
func NewColumnRepository(db *database.Database) ColumnRepository {
	return &columnRepository{
		db: db.Gorm,
	}
}

func (r *columnRepository) ListColumns(ctx context.Context, orgID int64) ([]models.Column, error) {
	var columns []models.Column
	if err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("id").
		Find(&columns).Error; err != nil {
		return nil, fmt.Errorf("failed to list columns for organization %d: %w", orgID, err)
	}
	return columns, nil
}

func (r *columnRepository) MappedColumnIDs(ctx context.Context, orgID int64) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT column_raw_id FROM column_mappings WHERE super_organization_id = ?
		UNION
		SELECT column_mapped_id FROM column_mappings WHERE super_organization_id = ? AND column_mapped_id IS NOT NULL
	`, orgID, orgID).Scan(&ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query mapped columns for organization %d: %w", orgID, err)
	}
	return ids, nil
}

func (r *columnRepository) FindColumn(ctx context.Context, id int64) (*models.Column, error) {
	var column models.Column
	if err := r.db.WithContext(ctx).First(&column, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query column %d: %w", id, err)
	}
	return &column, nil
}

func (r *columnRepository) CountColumns(ctx context.Context, orgID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Column{}).
		Where("organization_id = ? AND id IN ?", orgID, ids).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count columns: %w", err)
	}
	return count, nil
}

func (r *columnRepository) DeleteAll(ctx context.Context, orgID int64) (int64, int64, error) {
	var columns, mappings int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("super_organization_id = ?", orgID).Delete(&models.ColumnMapping{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete column mappings: %w", res.Error)
		}
		mappings = res.RowsAffected

		res = tx.Where("column_id IN (?)",
			tx.Model(&models.Column{}).Select("id").Where("organization_id = ?", orgID),
		).Delete(&models.ColumnListSettingColumn{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete list setting columns: %w", res.Error)
		}

		res = tx.Where("organization_id = ?", orgID).Delete(&models.Column{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete columns: %w", res.Error)
		}
		columns = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("failed to delete columns for organization %d: %w", orgID, err)
	}

	return columns, mappings, nil
}

func (r *columnRepository) FindPropertyState(ctx context.Context, orgID int64, id *int64) (*models.PropertyState, error) {
	var state models.PropertyState
	if err := r.stateQuery(ctx, orgID, id).First(&state).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query property state: %w", err)
	}
	return &state, nil
}

func (r *columnRepository) FindTaxLotState(ctx context.Context, orgID int64, id *int64) (*models.TaxLotState, error) {
	var state models.TaxLotState
	if err := r.stateQuery(ctx, orgID, id).First(&state).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query tax lot state: %w", err)
	}
	return &state, nil
}

// stateQuery scopes a state lookup to the organization. Without an id the
// newest state is selected.
func (r *columnRepository) stateQuery(ctx context.Context, orgID int64, id *int64) *gorm.DB {
	q := r.db.WithContext(ctx).Where("organization_id = ?", orgID)
	if id != nil {
		return q.Where("id = ?", *id)
	}
	return q.Order("id DESC")
}

func (r *columnRepository) EnsureExtraDataColumns(ctx context.Context, orgID int64, table string, names []string) (int, error) {
	if len(names) == 0 {
		return 0, nil
	}

	created := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing []string
		if err := tx.Model(&models.Column{}).
			Where("organization_id = ? AND table_name = ? AND column_name IN ?", orgID, table, names).
			Pluck("column_name", &existing).Error; err != nil {
			return fmt.Errorf("failed to query existing columns: %w", err)
		}

		have := make(map[string]struct{}, len(existing))
		for _, name := range existing {
			have[name] = struct{}{}
		}

		var missing []models.Column
		for _, name := range names {
			if _, ok := have[name]; ok {
				continue
			}
			have[name] = struct{}{}
			missing = append(missing, models.Column{
				OrganizationID: orgID,
				StateTable:     table,
				ColumnName:     name,
				IsExtraData:    true,
				DataType:       "None",
			})
		}
		if len(missing) == 0 {
			return nil
		}

		if err := tx.Create(&missing).Error; err != nil {
			return fmt.Errorf("failed to create columns: %w", err)
		}
		created = len(missing)
		return nil
	})
	if err != nil {
		return 0, err
	}

	return created, nil
}

func (r *columnRepository) ListExtraDataColumns(ctx context.Context, orgID int64, table string) ([]models.Column, error) {
	var columns []models.Column
	if err := r.db.WithContext(ctx).
		Where("organization_id = ? AND table_name = ? AND is_extra_data = ?", orgID, table, true).
		Order("id").
		Find(&columns).Error; err != nil {
		return nil, fmt.Errorf("failed to list extra data columns: %w", err)
	}
	return columns, nil
}

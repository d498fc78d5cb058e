package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/stwalsh4118/bluesky/api/internal/database"
	"github.com/stwalsh4118/bluesky/api/internal/models"
)

// InventoryRepository defines read access to property and tax lot views.
// Every method takes the organization id and applies it to every table it
// reads, including the association table and the opposite side.
type InventoryRepository interface {
	// CountPropertyViews returns the number of property views owned by the organization.
	CountPropertyViews(ctx context.Context, orgID int64) (int, error)

	// ListPropertyViews returns one page of the organization's property views
	// ordered by view id, with property, state and cycle loaded.
	ListPropertyViews(ctx context.Context, orgID int64, offset, limit int) ([]models.PropertyView, error)

	// FindPropertyViewsByIDs returns the organization's property views among ids.
	// Ids outside the organization are silently absent from the result.
	FindPropertyViewsByIDs(ctx context.Context, orgID int64, ids []int64) ([]models.PropertyView, error)

	// FindPropertyViewByProperty returns the view of the given property.
	// When the property has views in several cycles the most recent cycle wins.
	// Returns nil, nil if the property does not exist in the organization.
	FindPropertyViewByProperty(ctx context.Context, orgID, propertyID int64) (*models.PropertyView, error)

	// CountTaxLotViews returns the number of tax lot views owned by the organization.
	CountTaxLotViews(ctx context.Context, orgID int64) (int, error)

	// ListTaxLotViews returns one page of the organization's tax lot views ordered by view id.
	ListTaxLotViews(ctx context.Context, orgID int64, offset, limit int) ([]models.TaxLotView, error)

	// FindTaxLotViewsByIDs returns the organization's tax lot views among ids.
	FindTaxLotViewsByIDs(ctx context.Context, orgID int64, ids []int64) ([]models.TaxLotView, error)

	// FindTaxLotViewByTaxLot returns the view of the given tax lot, most recent cycle first.
	// Returns nil, nil if the tax lot does not exist in the organization.
	FindTaxLotViewByTaxLot(ctx context.Context, orgID, taxlotID int64) (*models.TaxLotView, error)

	// LinksByPropertyViews returns association rows naming any of the property
	// view ids, ordered by association id. Both ends must belong to the organization.
	LinksByPropertyViews(ctx context.Context, orgID int64, viewIDs []int64) ([]models.TaxLotProperty, error)

	// LinksByTaxLotViews returns association rows naming any of the tax lot
	// view ids, ordered by association id. Both ends must belong to the organization.
	LinksByTaxLotViews(ctx context.Context, orgID int64, viewIDs []int64) ([]models.TaxLotProperty, error)
}

// inventoryRepository is the concrete implementation of InventoryRepository.
type inventoryRepository struct {
	db *database.Database
}

// NewInventoryRepository creates a new instance of InventoryRepository.
func NewInventoryRepository(db *database.Database) InventoryRepository {
	return &inventoryRepository{
		db: db,
	}
}

const propertyViewSelect = `
	SELECT
		v.id,
		v.property_id,
		v.cycle_id,
		v.state_id,
		p.id,
		p.organization_id,
		p.created_at,
		p.updated_at,
		c.id,
		c.organization_id,
		c.name,
		c.start_date,
		c.end_date,
		c.created_at,
		s.id,
		s.organization_id,
		s.pm_property_id,
		s.custom_id_1,
		s.address_line_1,
		s.address_line_2,
		s.city,
		s.state,
		s.postal_code,
		s.building_count,
		s.year_built,
		s.gross_floor_area,
		s.extra_data,
		s.created_at
	FROM property_views v
	JOIN properties p ON p.id = v.property_id
	JOIN cycles c ON c.id = v.cycle_id
	JOIN property_states s ON s.id = v.state_id
`

const taxlotViewSelect = `
	SELECT
		v.id,
		v.taxlot_id,
		v.cycle_id,
		v.state_id,
		t.id,
		t.organization_id,
		t.created_at,
		t.updated_at,
		c.id,
		c.organization_id,
		c.name,
		c.start_date,
		c.end_date,
		c.created_at,
		s.id,
		s.organization_id,
		s.jurisdiction_tax_lot_id,
		s.block_number,
		s.district,
		s.custom_id_1,
		s.address_line_1,
		s.city,
		s.state,
		s.postal_code,
		s.number_properties,
		s.extra_data,
		s.created_at
	FROM taxlot_views v
	JOIN taxlots t ON t.id = v.taxlot_id
	JOIN cycles c ON c.id = v.cycle_id
	JOIN taxlot_states s ON s.id = v.state_id
`

const linkSelect = `
	SELECT
		tp.id,
		tp.property_view_id,
		tp.taxlot_view_id,
		tp.is_primary,
		tp.cycle_id
	FROM taxlot_properties tp
	JOIN property_views pv ON pv.id = tp.property_view_id
	JOIN properties p ON p.id = pv.property_id
	JOIN taxlot_views tv ON tv.id = tp.taxlot_view_id
	JOIN taxlots t ON t.id = tv.taxlot_id
	WHERE p.organization_id = $1
	  AND t.organization_id = $1
`

func (r *inventoryRepository) CountPropertyViews(ctx context.Context, orgID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM property_views v
		JOIN properties p ON p.id = v.property_id
		WHERE p.organization_id = $1
	`

	var count int
	if err := r.db.Pool.QueryRow(ctx, query, orgID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count property views for organization %d: %w", orgID, err)
	}
	return count, nil
}

func (r *inventoryRepository) ListPropertyViews(ctx context.Context, orgID int64, offset, limit int) ([]models.PropertyView, error) {
	query := propertyViewSelect + `
		WHERE p.organization_id = $1
		ORDER BY v.id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool.Query(ctx, query, orgID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list property views for organization %d: %w", orgID, err)
	}
	return collectPropertyViews(rows)
}

func (r *inventoryRepository) FindPropertyViewsByIDs(ctx context.Context, orgID int64, ids []int64) ([]models.PropertyView, error) {
	if len(ids) == 0 {
		return []models.PropertyView{}, nil
	}

	query := propertyViewSelect + `
		WHERE p.organization_id = $1
		  AND v.id = ANY($2)
		ORDER BY v.id
	`

	rows, err := r.db.Pool.Query(ctx, query, orgID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query property views by id: %w", err)
	}
	return collectPropertyViews(rows)
}

func (r *inventoryRepository) FindPropertyViewByProperty(ctx context.Context, orgID, propertyID int64) (*models.PropertyView, error) {
	query := propertyViewSelect + `
		WHERE p.organization_id = $1
		  AND v.property_id = $2
		ORDER BY c.start_date DESC, v.id DESC
		LIMIT 1
	`

	view, err := scanPropertyView(r.db.Pool.QueryRow(ctx, query, orgID, propertyID))
	if err != nil {
		// Handle no rows found - this is not an error at the repository level
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query view of property %d: %w", propertyID, err)
	}
	return view, nil
}

func (r *inventoryRepository) CountTaxLotViews(ctx context.Context, orgID int64) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM taxlot_views v
		JOIN taxlots t ON t.id = v.taxlot_id
		WHERE t.organization_id = $1
	`

	var count int
	if err := r.db.Pool.QueryRow(ctx, query, orgID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tax lot views for organization %d: %w", orgID, err)
	}
	return count, nil
}

func (r *inventoryRepository) ListTaxLotViews(ctx context.Context, orgID int64, offset, limit int) ([]models.TaxLotView, error) {
	query := taxlotViewSelect + `
		WHERE t.organization_id = $1
		ORDER BY v.id
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool.Query(ctx, query, orgID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list tax lot views for organization %d: %w", orgID, err)
	}
	return collectTaxLotViews(rows)
}

func (r *inventoryRepository) FindTaxLotViewsByIDs(ctx context.Context, orgID int64, ids []int64) ([]models.TaxLotView, error) {
	if len(ids) == 0 {
		return []models.TaxLotView{}, nil
	}

	query := taxlotViewSelect + `
		WHERE t.organization_id = $1
		  AND v.id = ANY($2)
		ORDER BY v.id
	`

	rows, err := r.db.Pool.Query(ctx, query, orgID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query tax lot views by id: %w", err)
	}
	return collectTaxLotViews(rows)
}

func (r *inventoryRepository) FindTaxLotViewByTaxLot(ctx context.Context, orgID, taxlotID int64) (*models.TaxLotView, error) {
	query := taxlotViewSelect + `
		WHERE t.organization_id = $1
		  AND v.taxlot_id = $2
		ORDER BY c.start_date DESC, v.id DESC
		LIMIT 1
	`

	view, err := scanTaxLotView(r.db.Pool.QueryRow(ctx, query, orgID, taxlotID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query view of tax lot %d: %w", taxlotID, err)
	}
	return view, nil
}

func (r *inventoryRepository) LinksByPropertyViews(ctx context.Context, orgID int64, viewIDs []int64) ([]models.TaxLotProperty, error) {
	return r.links(ctx, orgID, "tp.property_view_id", viewIDs)
}

func (r *inventoryRepository) LinksByTaxLotViews(ctx context.Context, orgID int64, viewIDs []int64) ([]models.TaxLotProperty, error) {
	return r.links(ctx, orgID, "tp.taxlot_view_id", viewIDs)
}

// links loads association rows whose column matches one of viewIDs.
// column is one of the two fixed view id columns, never caller input.
func (r *inventoryRepository) links(ctx context.Context, orgID int64, column string, viewIDs []int64) ([]models.TaxLotProperty, error) {
	if len(viewIDs) == 0 {
		return []models.TaxLotProperty{}, nil
	}

	query := linkSelect + `
		  AND ` + column + ` = ANY($2)
		ORDER BY tp.id
	`

	rows, err := r.db.Pool.Query(ctx, query, orgID, viewIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query taxlot/property links: %w", err)
	}
	defer rows.Close()

	links := []models.TaxLotProperty{}
	for rows.Next() {
		var link models.TaxLotProperty
		if err := rows.Scan(
			&link.ID,
			&link.PropertyViewID,
			&link.TaxLotViewID,
			&link.Primary,
			&link.CycleID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan taxlot/property link: %w", err)
		}
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating taxlot/property links: %w", err)
	}

	return links, nil
}

func collectPropertyViews(rows pgx.Rows) ([]models.PropertyView, error) {
	defer rows.Close()

	views := []models.PropertyView{}
	for rows.Next() {
		view, err := scanPropertyView(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property view: %w", err)
		}
		views = append(views, *view)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating property views: %w", err)
	}

	return views, nil
}

func collectTaxLotViews(rows pgx.Rows) ([]models.TaxLotView, error) {
	defer rows.Close()

	views := []models.TaxLotView{}
	for rows.Next() {
		view, err := scanTaxLotView(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tax lot view: %w", err)
		}
		views = append(views, *view)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tax lot views: %w", err)
	}

	return views, nil
}

func scanPropertyView(row pgx.Row) (*models.PropertyView, error) {
	var v models.PropertyView
	err := row.Scan(
		&v.ID,
		&v.PropertyID,
		&v.CycleID,
		&v.StateID,
		&v.Property.ID,
		&v.Property.OrganizationID,
		&v.Property.CreatedAt,
		&v.Property.UpdatedAt,
		&v.Cycle.ID,
		&v.Cycle.OrganizationID,
		&v.Cycle.Name,
		&v.Cycle.Start,
		&v.Cycle.End,
		&v.Cycle.CreatedAt,
		&v.State.ID,
		&v.State.OrganizationID,
		&v.State.PMPropertyID,
		&v.State.CustomID1,
		&v.State.AddressLine1,
		&v.State.AddressLine2,
		&v.State.City,
		&v.State.State,
		&v.State.PostalCode,
		&v.State.BuildingCount,
		&v.State.YearBuilt,
		&v.State.GrossFloorArea,
		&v.State.ExtraData,
		&v.State.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func scanTaxLotView(row pgx.Row) (*models.TaxLotView, error) {
	var v models.TaxLotView
	err := row.Scan(
		&v.ID,
		&v.TaxLotID,
		&v.CycleID,
		&v.StateID,
		&v.TaxLot.ID,
		&v.TaxLot.OrganizationID,
		&v.TaxLot.CreatedAt,
		&v.TaxLot.UpdatedAt,
		&v.Cycle.ID,
		&v.Cycle.OrganizationID,
		&v.Cycle.Name,
		&v.Cycle.Start,
		&v.Cycle.End,
		&v.Cycle.CreatedAt,
		&v.State.ID,
		&v.State.OrganizationID,
		&v.State.JurisdictionTaxLotID,
		&v.State.BlockNumber,
		&v.State.District,
		&v.State.CustomID1,
		&v.State.AddressLine1,
		&v.State.City,
		&v.State.State,
		&v.State.PostalCode,
		&v.State.NumberProperties,
		&v.State.ExtraData,
		&v.State.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/stwalsh4118/bluesky/api/internal/database"
	"github.com/stwalsh4118/bluesky/api/internal/models"
)

// OrganizationRepository defines access to organizations and their members.
type OrganizationRepository interface {
	// Exists reports whether the organization exists.
	Exists(ctx context.Context, orgID int64) (bool, error)

	// FindMembership returns the user's membership in the organization.
	// Returns nil, nil if the user is not a member.
	FindMembership(ctx context.Context, orgID, userID int64) (*models.OrganizationUser, error)
}

type organizationRepository struct {
	db *database.Database
}

// NewOrganizationRepository creates a new instance of OrganizationRepository.
func NewOrganizationRepository(db *database.Database) OrganizationRepository {
	return &organizationRepository{
		db: db,
	}
}

func (r *organizationRepository) Exists(ctx context.Context, orgID int64) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM organizations WHERE id = $1)`, orgID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check organization %d: %w", orgID, err)
	}
	return exists, nil
}

func (r *organizationRepository) FindMembership(ctx context.Context, orgID, userID int64) (*models.OrganizationUser, error) {
	query := `
		SELECT id, organization_id, user_id, role
		FROM organization_users
		WHERE organization_id = $1
		  AND user_id = $2
	`

	var member models.OrganizationUser
	err := r.db.Pool.QueryRow(ctx, query, orgID, userID).Scan(
		&member.ID,
		&member.OrganizationID,
		&member.UserID,
		&member.Role,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query membership of user %d in organization %d: %w", userID, orgID, err)
	}
	return &member, nil
}

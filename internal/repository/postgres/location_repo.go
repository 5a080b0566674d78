package postgres

import (
	"context"
	"database/sql"
	"errors"

	"teamcalendar/internal/domain"
)

type locationRepository struct {
	DB *sql.DB
}

func NewLocationRepository(db *sql.DB) domain.LocationRepository {
	return &locationRepository{
		DB: db,
	}
}

func (r *locationRepository) Create(ctx context.Context, loc *domain.Location) error {
	query := `
		INSERT INTO locations (organization_id, name, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	return r.DB.QueryRowContext(ctx, query, loc.OrganizationID, loc.Name, nullString(loc.Address), loc.CreatedAt, loc.UpdatedAt).Scan(&loc.ID)
}

func (r *locationRepository) GetByID(ctx context.Context, orgID, id string) (*domain.Location, error) {
	query := `
		SELECT id, organization_id, name, address, created_at, updated_at
		FROM locations
		WHERE id = $1 AND organization_id = $2
	`
	loc := &domain.Location{}
	var address sql.NullString
	err := r.DB.QueryRowContext(ctx, query, id, orgID).Scan(&loc.ID, &loc.OrganizationID, &loc.Name, &address, &loc.CreatedAt, &loc.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	loc.Address = stringPtr(address)
	return loc, nil
}

func (r *locationRepository) List(ctx context.Context, orgID string, params domain.PaginationParams) ([]*domain.Location, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM locations WHERE organization_id = $1`, orgID).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `
		SELECT id, organization_id, name, address, created_at, updated_at
		FROM locations
		WHERE organization_id = $1
		ORDER BY name, id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.DB.QueryContext(ctx, query, orgID, params.Limit(), params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	locations := make([]*domain.Location, 0)
	for rows.Next() {
		loc := &domain.Location{}
		var address sql.NullString
		if err := rows.Scan(&loc.ID, &loc.OrganizationID, &loc.Name, &address, &loc.CreatedAt, &loc.UpdatedAt); err != nil {
			return nil, 0, err
		}
		loc.Address = stringPtr(address)
		locations = append(locations, loc)
	}
	return locations, total, rows.Err()
}

// Delete cascades to the location's resources; a resource or event still linked to a live
// booking makes the whole statement fail with ErrReferenced.
func (r *locationRepository) Delete(ctx context.Context, orgID, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM locations WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err != nil {
		return mapPQError(err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

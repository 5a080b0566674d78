package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"teamcalendar/internal/domain"
)

const resourceColumns = `id, organization_id, resource_type_id, location_id, name, capacity, is_bookable, created_at, updated_at`

type resourceRepository struct {
	DB *sql.DB
}

func NewResourceRepository(db *sql.DB) domain.ResourceRepository {
	return &resourceRepository{
		DB: db,
	}
}

func scanResource(row rowScanner) (*domain.Resource, error) {
	res := &domain.Resource{}
	err := row.Scan(&res.ID, &res.OrganizationID, &res.ResourceTypeID, &res.LocationID, &res.Name, &res.Capacity,
		&res.IsBookable, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *resourceRepository) Create(ctx context.Context, res *domain.Resource) error {
	query := `
		INSERT INTO resources (organization_id, resource_type_id, location_id, name, capacity, is_bookable, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query, res.OrganizationID, res.ResourceTypeID, res.LocationID, res.Name, res.Capacity,
		res.IsBookable, res.CreatedAt, res.UpdatedAt).Scan(&res.ID)
	if err != nil {
		return mapPQError(err)
	}
	return nil
}

func (r *resourceRepository) GetByID(ctx context.Context, orgID, id string) (*domain.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE id = $1 AND organization_id = $2`
	res, err := scanResource(r.DB.QueryRowContext(ctx, query, id, orgID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return res, nil
}

func (r *resourceRepository) GetByIDs(ctx context.Context, orgID string, ids []string) ([]*domain.Resource, error) {
	resources := make([]*domain.Resource, 0, len(ids))
	if len(ids) == 0 {
		return resources, nil
	}
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE organization_id = $1 AND id = ANY($2::uuid[]) ORDER BY name`
	rows, err := r.DB.QueryContext(ctx, query, orgID, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		resources = append(resources, res)
	}
	return resources, rows.Err()
}

func (r *resourceRepository) List(ctx context.Context, orgID string, params domain.PaginationParams) ([]*domain.Resource, int, error) {
	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM resources WHERE organization_id = $1`, orgID).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE organization_id = $1 ORDER BY name, id LIMIT $2 OFFSET $3`
	rows, err := r.DB.QueryContext(ctx, query, orgID, params.Limit(), params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	resources := make([]*domain.Resource, 0)
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, 0, err
		}
		resources = append(resources, res)
	}
	return resources, total, rows.Err()
}

func (r *resourceRepository) SetBookable(ctx context.Context, orgID, id string, bookable bool) (*domain.Resource, error) {
	query := `
		UPDATE resources
		SET is_bookable = $3, updated_at = NOW()
		WHERE id = $1 AND organization_id = $2
		RETURNING ` + resourceColumns
	res, err := scanResource(r.DB.QueryRowContext(ctx, query, id, orgID, bookable))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return res, nil
}

func (r *resourceRepository) Delete(ctx context.Context, orgID, id string) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM resources WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err != nil {
		return mapPQError(err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

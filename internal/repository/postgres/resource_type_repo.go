package postgres

import (
	"context"
	"database/sql"
	"errors"

	"teamcalendar/internal/domain"
)

type resourceTypeRepository struct {
	DB *sql.DB
}

func NewResourceTypeRepository(db *sql.DB) domain.ResourceTypeRepository {
	return &resourceTypeRepository{DB: db}
}

func (r *resourceTypeRepository) Create(ctx context.Context, rt *domain.ResourceType) error {
	query := `
		INSERT INTO resource_types (organization_id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	if err := r.DB.QueryRowContext(ctx, query, rt.OrganizationID, rt.Name, rt.CreatedAt, rt.UpdatedAt).Scan(&rt.ID); err != nil {
		return mapPQError(err)
	}
	return nil
}

func (r *resourceTypeRepository) EnsureByName(ctx context.Context, orgID, name string) (*domain.ResourceType, error) {
	query := `
		INSERT INTO resource_types (organization_id, name)
		VALUES ($1, $2)
		ON CONFLICT (organization_id, name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, organization_id, name, created_at, updated_at
	`
	rt := &domain.ResourceType{}
	err := r.DB.QueryRowContext(ctx, query, orgID, name).Scan(&rt.ID, &rt.OrganizationID, &rt.Name, &rt.CreatedAt, &rt.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func (r *resourceTypeRepository) GetByID(ctx context.Context, orgID, id string) (*domain.ResourceType, error) {
	query := `
		SELECT id, organization_id, name, created_at, updated_at
		FROM resource_types
		WHERE id = $1 AND organization_id = $2
	`
	rt := &domain.ResourceType{}
	err := r.DB.QueryRowContext(ctx, query, id, orgID).Scan(&rt.ID, &rt.OrganizationID, &rt.Name, &rt.CreatedAt, &rt.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return rt, nil
}

func (r *resourceTypeRepository) List(ctx context.Context, orgID string) ([]*domain.ResourceType, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, organization_id, name, created_at, updated_at FROM resource_types WHERE organization_id = $1 ORDER BY name`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []*domain.ResourceType
	for rows.Next() {
		rt := &domain.ResourceType{}
		if err := rows.Scan(&rt.ID, &rt.OrganizationID, &rt.Name, &rt.CreatedAt, &rt.UpdatedAt); err != nil {
			return nil, err
		}
		types = append(types, rt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if types == nil {
		types = []*domain.ResourceType{}
	}
	return types, nil
}

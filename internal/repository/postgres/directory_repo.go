package postgres

import (
	"context"
	"database/sql"
	"errors"

	"teamcalendar/internal/domain"
)

type directory struct {
	DB *sql.DB
}

// NewDirectory answers user and team lookups from the shared users/teams tables.
func NewDirectory(db *sql.DB) domain.Directory {
	return &directory{DB: db}
}

func (d *directory) UserExists(ctx context.Context, orgID, userID string) (bool, error) {
	var exists bool
	err := d.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND organization_id = $2)`, userID, orgID).Scan(&exists)
	return exists, err
}

func (d *directory) TeamExists(ctx context.Context, orgID, teamID string) (bool, error) {
	var exists bool
	err := d.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM teams WHERE id = $1 AND organization_id = $2)`, teamID, orgID).Scan(&exists)
	return exists, err
}

func (d *directory) UserEmail(ctx context.Context, userID string) (string, error) {
	var email sql.NullString
	err := d.DB.QueryRowContext(ctx, `SELECT email FROM users WHERE id = $1`, userID).Scan(&email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	if !email.Valid || email.String == "" {
		return "", domain.ErrNotFound
	}
	return email.String, nil
}

package domain

import (
	"context"
	"time"
)

// Directory answers existence questions about users and teams, which are owned by other services.
type Directory interface {
	UserExists(ctx context.Context, orgID, userID string) (bool, error)
	TeamExists(ctx context.Context, orgID, teamID string) (bool, error)
	// UserEmail returns ErrNotFound when the user has no address on file.
	UserEmail(ctx context.Context, userID string) (string, error)
}

// Principal is the authenticated caller and the organization they act in.
type Principal struct {
	UserID         string
	OrganizationID string
}

// TokenVerifier verifies a bearer token and returns the caller.
type TokenVerifier interface {
	Verify(token string) (Principal, error)
}

// TokenIssuer signs tokens for a user acting in an organization.
type TokenIssuer interface {
	Issue(userID, orgID string, expiry time.Duration) (string, error)
}

package services

import (
	"context"
	"fmt"

	"teamcalendar/internal/domain"
)

type conflictDetector struct {
	repo domain.ConflictRepository
}

// NewConflictDetector returns a detector over the given dimension queries. Pass the
// repository bound to a booking transaction to detect under the booking locks.
func NewConflictDetector(repo domain.ConflictRepository) domain.ConflictDetector {
	return &conflictDetector{repo: repo}
}

// Detect returns resource conflicts, then team conflicts, then location conflicts.
// An event colliding on several dimensions appears once per dimension and identifier.
func (d *conflictDetector) Detect(ctx context.Context, q domain.ConflictQuery) ([]domain.Conflict, error) {
	conflicts := make([]domain.Conflict, 0)
	for _, dim := range d.dimensions(q) {
		found, err := dim.query(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("%s conflicts: %w", dim.reason, err)
		}
		conflicts = append(conflicts, excluding(found, q.ExcludeEventID)...)
	}
	return conflicts, nil
}

// HasConflicts stops at the first dimension that reports a collision.
func (d *conflictDetector) HasConflicts(ctx context.Context, q domain.ConflictQuery) (bool, error) {
	for _, dim := range d.dimensions(q) {
		found, err := dim.query(ctx, q)
		if err != nil {
			return false, fmt.Errorf("%s conflicts: %w", dim.reason, err)
		}
		if len(excluding(found, q.ExcludeEventID)) > 0 {
			return true, nil
		}
	}
	return false, nil
}

type dimension struct {
	reason domain.ConflictReason
	query  func(context.Context, domain.ConflictQuery) ([]domain.Conflict, error)
}

// dimensions lists only the dimensions the query constrains.
func (d *conflictDetector) dimensions(q domain.ConflictQuery) []dimension {
	dims := make([]dimension, 0, 3)
	if len(q.ResourceIDs) > 0 {
		dims = append(dims, dimension{domain.ConflictReasonResource, d.repo.ByResources})
	}
	if len(q.TeamIDs) > 0 {
		dims = append(dims, dimension{domain.ConflictReasonTeam, d.repo.ByTeams})
	}
	if q.LocationID != nil && *q.LocationID != "" {
		dims = append(dims, dimension{domain.ConflictReasonLocation, d.repo.ByLocation})
	}
	return dims
}

func excluding(conflicts []domain.Conflict, eventID *string) []domain.Conflict {
	if eventID == nil {
		return conflicts
	}
	out := conflicts[:0:0]
	for _, c := range conflicts {
		if c.ID != *eventID {
			out = append(out, c)
		}
	}
	return out
}

package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"teamcalendar/internal/domain"
)

type conflictRepository struct {
	DB DBTX
}

// NewConflictRepository returns the dimension queries of the conflict detector.
func NewConflictRepository(db *sql.DB) domain.ConflictRepository {
	return &conflictRepository{DB: db}
}

// The overlap predicate is shared by every dimension: live events with
// existing.start < candidate.end AND existing.end > candidate.start.
// $1 organization, $2 candidate start, $3 candidate end, $4 excluded event id (nullable).
const liveOverlap = `
	e.organization_id = $1
	AND e.status <> 'canceled'
	AND e.start_time < $3
	AND e.end_time > $2
	AND ($4::uuid IS NULL OR e.id <> $4::uuid)
`

func (r *conflictRepository) ByResources(ctx context.Context, q domain.ConflictQuery) ([]domain.Conflict, error) {
	if len(q.ResourceIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT e.id, e.title, e.start_time, e.end_time, e.event_type, er.resource_id
		FROM events e
		JOIN event_resources er ON er.event_id = e.id
		WHERE er.resource_id = ANY($5::uuid[]) AND` + liveOverlap + `
		ORDER BY e.start_time, e.id, er.resource_id
	`
	return r.query(ctx, domain.ConflictReasonResource, query,
		q.OrganizationID, q.StartTime, q.EndTime, nullableID(q.ExcludeEventID), pq.Array(q.ResourceIDs))
}

func (r *conflictRepository) ByTeams(ctx context.Context, q domain.ConflictQuery) ([]domain.Conflict, error) {
	if len(q.TeamIDs) == 0 {
		return nil, nil
	}
	query := `
		SELECT e.id, e.title, e.start_time, e.end_time, e.event_type, t.team_id
		FROM events e
		CROSS JOIN LATERAL unnest(e.team_ids) AS t(team_id)
		WHERE t.team_id = ANY($5::uuid[]) AND` + liveOverlap + `
		ORDER BY e.start_time, e.id, t.team_id
	`
	return r.query(ctx, domain.ConflictReasonTeam, query,
		q.OrganizationID, q.StartTime, q.EndTime, nullableID(q.ExcludeEventID), pq.Array(q.TeamIDs))
}

func (r *conflictRepository) ByLocation(ctx context.Context, q domain.ConflictQuery) ([]domain.Conflict, error) {
	if q.LocationID == nil {
		return nil, nil
	}
	query := `
		SELECT e.id, e.title, e.start_time, e.end_time, e.event_type, e.location_id
		FROM events e
		WHERE e.location_id = $5 AND` + liveOverlap + `
		ORDER BY e.start_time, e.id
	`
	return r.query(ctx, domain.ConflictReasonLocation, query,
		q.OrganizationID, q.StartTime, q.EndTime, nullableID(q.ExcludeEventID), *q.LocationID)
}

func (r *conflictRepository) query(ctx context.Context, reason domain.ConflictReason, query string, args ...any) ([]domain.Conflict, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	conflicts := make([]domain.Conflict, 0)
	for rows.Next() {
		c := domain.Conflict{ConflictReason: reason}
		var eventType string
		if err := rows.Scan(&c.ID, &c.Title, &c.StartTime, &c.EndTime, &eventType, &c.ConflictIdentifier); err != nil {
			return nil, err
		}
		c.EventType = domain.EventType(eventType)
		conflicts = append(conflicts, c)
	}
	return conflicts, rows.Err()
}

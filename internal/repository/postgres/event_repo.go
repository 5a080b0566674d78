package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"teamcalendar/internal/domain"
)

const eventColumns = `id, organization_id, team_ids, title, description, event_type, status, start_time, end_time, all_day,
		location_id, repetition, repetition_end_date, training_session_id, game_id, created_at, updated_at`

type eventRepository struct {
	DB DBTX
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var (
		descNull, locationNull, repetitionNull, trainingNull, gameNull sql.NullString
		repetitionEndNull                                              sql.NullTime
		teamIDs                                                        pq.StringArray
		eventType, status                                              string
	)
	err := row.Scan(
		&e.ID, &e.OrganizationID, &teamIDs, &e.Title, &descNull, &eventType, &status, &e.StartTime, &e.EndTime, &e.AllDay,
		&locationNull, &repetitionNull, &repetitionEndNull, &trainingNull, &gameNull, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.TeamIDs = []string(teamIDs)
	if e.TeamIDs == nil {
		e.TeamIDs = []string{}
	}
	e.EventType = domain.EventType(eventType)
	e.Status = domain.EventStatus(status)
	e.Description = stringPtr(descNull)
	e.LocationID = stringPtr(locationNull)
	e.TrainingSessionID = stringPtr(trainingNull)
	e.GameID = stringPtr(gameNull)
	if repetitionNull.Valid {
		e.Repetition = &domain.Repetition{Kind: repetitionNull.String}
		if repetitionEndNull.Valid {
			e.Repetition.EndDate = &repetitionEndNull.Time
		}
	}
	e.Resources = []domain.EventResource{}
	e.Attendees = []domain.EventAttendee{}
	return e, nil
}

func repetitionArgs(r *domain.Repetition) (sql.NullString, sql.NullTime) {
	if r == nil {
		return sql.NullString{}, sql.NullTime{}
	}
	end := sql.NullTime{}
	if r.EndDate != nil {
		end = sql.NullTime{Time: *r.EndDate, Valid: true}
	}
	return sql.NullString{String: r.Kind, Valid: true}, end
}

func (r *eventRepository) FindAll(ctx context.Context, filter domain.EventFilter, preload domain.Preload) ([]*domain.Event, error) {
	where := []string{"organization_id = $1"}
	args := []any{filter.OrganizationID}
	n := 2
	// [start, end) overlap; an open side is unbounded.
	if filter.End != nil {
		where = append(where, fmt.Sprintf("start_time < $%d", n))
		args = append(args, *filter.End)
		n++
	}
	if filter.Start != nil {
		where = append(where, fmt.Sprintf("end_time > $%d", n))
		args = append(args, *filter.Start)
		n++
	}
	if filter.TeamID != "" {
		where = append(where, fmt.Sprintf("$%d = ANY(team_ids)", n))
		args = append(args, filter.TeamID)
		n++
	}
	if filter.EventType != "" {
		where = append(where, fmt.Sprintf("event_type = $%d", n))
		args = append(args, string(filter.EventType))
		n++
	}
	if filter.LocationID != "" {
		where = append(where, fmt.Sprintf("location_id = $%d", n))
		args = append(args, filter.LocationID)
	}
	query := fmt.Sprintf(`
		SELECT %s
		FROM events
		WHERE %s
		ORDER BY start_time ASC, id ASC
	`, eventColumns, strings.Join(where, " AND "))
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := loadLinks(ctx, r.DB, events, preload); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *eventRepository) FindByID(ctx context.Context, orgID, id string, preload domain.Preload) (*domain.Event, error) {
	e, err := findEvent(ctx, r.DB, orgID, id, false)
	if err != nil {
		return nil, err
	}
	if err := loadLinks(ctx, r.DB, []*domain.Event{e}, preload); err != nil {
		return nil, err
	}
	return e, nil
}

func findEvent(ctx context.Context, db DBTX, orgID, id string, forUpdate bool) (*domain.Event, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM events
		WHERE id = $1 AND organization_id = $2
	`, eventColumns)
	if forUpdate {
		query += "FOR UPDATE"
	}
	e, err := scanEvent(db.QueryRowContext(ctx, query, id, orgID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event, resourceIDs []string) (*domain.Event, error) {
	if e.TeamIDs == nil {
		e.TeamIDs = []string{}
	}
	err := withTx(ctx, r.DB, func(tx DBTX) error {
		repetition, repetitionEnd := repetitionArgs(e.Repetition)
		query := `
			INSERT INTO events (organization_id, team_ids, title, description, event_type, status, start_time, end_time, all_day,
				location_id, repetition, repetition_end_date, training_session_id, game_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			RETURNING id
		`
		err := tx.QueryRowContext(ctx, query,
			e.OrganizationID, pq.Array(e.TeamIDs), e.Title, nullString(e.Description), string(e.EventType), string(e.Status),
			e.StartTime, e.EndTime, e.AllDay, nullString(e.LocationID), repetition, repetitionEnd,
			nullString(e.TrainingSessionID), nullString(e.GameID), e.CreatedAt, e.UpdatedAt,
		).Scan(&e.ID)
		if err != nil {
			return mapPQError(err)
		}
		links, err := insertResourceLinks(ctx, tx, e.ID, resourceIDs, e.CreatedAt)
		if err != nil {
			return err
		}
		e.Resources = links
		e.Attendees = []domain.EventAttendee{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func insertResourceLinks(ctx context.Context, tx DBTX, eventID string, resourceIDs []string, createdAt time.Time) ([]domain.EventResource, error) {
	links := make([]domain.EventResource, 0, len(resourceIDs))
	for _, resourceID := range resourceIDs {
		_, err := tx.ExecContext(ctx, `INSERT INTO event_resources (event_id, resource_id, created_at) VALUES ($1, $2, $3)`,
			eventID, resourceID, createdAt)
		if err != nil {
			return nil, fmt.Errorf("link resource %s: %w", resourceID, mapPQError(err))
		}
		links = append(links, domain.EventResource{EventID: eventID, ResourceID: resourceID, CreatedAt: createdAt})
	}
	return links, nil
}

func (r *eventRepository) Update(ctx context.Context, orgID, id string, patch domain.EventPatch, resourceIDs *[]string) (*domain.Event, error) {
	var updated *domain.Event
	err := withTx(ctx, r.DB, func(tx DBTX) error {
		e, err := findEvent(ctx, tx, orgID, id, true)
		if err != nil {
			return err
		}
		patch.Apply(e)
		e.UpdatedAt = time.Now().UTC()
		repetition, repetitionEnd := repetitionArgs(e.Repetition)
		query := `
			UPDATE events
			SET team_ids = $1, title = $2, description = $3, event_type = $4, status = $5, start_time = $6, end_time = $7,
				all_day = $8, location_id = $9, repetition = $10, repetition_end_date = $11, training_session_id = $12,
				game_id = $13, updated_at = $14
			WHERE id = $15 AND organization_id = $16
		`
		_, err = tx.ExecContext(ctx, query,
			pq.Array(e.TeamIDs), e.Title, nullString(e.Description), string(e.EventType), string(e.Status), e.StartTime, e.EndTime,
			e.AllDay, nullString(e.LocationID), repetition, repetitionEnd, nullString(e.TrainingSessionID),
			nullString(e.GameID), e.UpdatedAt, id, orgID,
		)
		if err != nil {
			return mapPQError(err)
		}
		if resourceIDs != nil {
			if _, err := tx.ExecContext(ctx, `DELETE FROM event_resources WHERE event_id = $1`, id); err != nil {
				return fmt.Errorf("clear resource links: %w", err)
			}
			if _, err := insertResourceLinks(ctx, tx, id, *resourceIDs, e.UpdatedAt); err != nil {
				return err
			}
		}
		if err := loadLinks(ctx, tx, []*domain.Event{e}, domain.PreloadAll); err != nil {
			return err
		}
		updated = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *eventRepository) Delete(ctx context.Context, orgID, id string) (bool, error) {
	query := `DELETE FROM events WHERE id = $1 AND organization_id = $2`
	result, err := r.DB.ExecContext(ctx, query, id, orgID)
	if err != nil {
		return false, mapPQError(err)
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// loadLinks fills the requested link slices of events with two ANY($1) queries.
func loadLinks(ctx context.Context, db DBTX, events []*domain.Event, preload domain.Preload) error {
	if len(events) == 0 || (!preload.Resources && !preload.Attendees) {
		return nil
	}
	byID := make(map[string]*domain.Event, len(events))
	ids := make([]string, 0, len(events))
	for _, e := range events {
		byID[e.ID] = e
		ids = append(ids, e.ID)
	}
	if preload.Resources {
		rows, err := db.QueryContext(ctx, `
			SELECT event_id, resource_id, created_at
			FROM event_resources
			WHERE event_id = ANY($1)
			ORDER BY created_at, resource_id
		`, pq.Array(ids))
		if err != nil {
			return fmt.Errorf("load resource links: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var link domain.EventResource
			if err := rows.Scan(&link.EventID, &link.ResourceID, &link.CreatedAt); err != nil {
				return err
			}
			if e, ok := byID[link.EventID]; ok {
				e.Resources = append(e.Resources, link)
			}
		}
		if err := rows.Err(); err != nil {
			return err
		}
	}
	if preload.Attendees {
		attendees, err := listAttendees(ctx, db, ids)
		if err != nil {
			return fmt.Errorf("load attendees: %w", err)
		}
		for _, a := range attendees {
			if e, ok := byID[a.EventID]; ok {
				e.Attendees = append(e.Attendees, *a)
			}
		}
	}
	return nil
}

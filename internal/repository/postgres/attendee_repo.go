package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"teamcalendar/internal/domain"
)

type attendeeRepository struct {
	DB DBTX
}

func NewAttendeeRepository(db *sql.DB) domain.AttendeeRepository {
	return &attendeeRepository{
		DB: db,
	}
}

func (r *attendeeRepository) Add(ctx context.Context, a *domain.EventAttendee) error {
	query := `
		INSERT INTO event_attendees (event_id, user_id, status, absence_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.DB.ExecContext(ctx, query, a.EventID, a.UserID, string(a.Status), nullString(a.AbsenceReason), a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return mapPQError(err)
	}
	return nil
}

func (r *attendeeRepository) UpdateStatus(ctx context.Context, a *domain.EventAttendee) error {
	query := `
		UPDATE event_attendees
		SET status = $3, absence_reason = $4, updated_at = $5
		WHERE event_id = $1 AND user_id = $2
		RETURNING created_at
	`
	err := r.DB.QueryRowContext(ctx, query, a.EventID, a.UserID, string(a.Status), nullString(a.AbsenceReason), a.UpdatedAt).Scan(&a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	return nil
}

func (r *attendeeRepository) Remove(ctx context.Context, eventID, userID string) (bool, error) {
	query := `DELETE FROM event_attendees WHERE event_id = $1 AND user_id = $2`
	result, err := r.DB.ExecContext(ctx, query, eventID, userID)
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (r *attendeeRepository) ListByEventID(ctx context.Context, eventID string) ([]*domain.EventAttendee, error) {
	return listAttendees(ctx, r.DB, []string{eventID})
}

func listAttendees(ctx context.Context, db DBTX, eventIDs []string) ([]*domain.EventAttendee, error) {
	query := `
		SELECT event_id, user_id, status, absence_reason, created_at, updated_at
		FROM event_attendees
		WHERE event_id = ANY($1)
		ORDER BY created_at, user_id
	`
	rows, err := db.QueryContext(ctx, query, pq.Array(eventIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	attendees := make([]*domain.EventAttendee, 0)
	for rows.Next() {
		a := &domain.EventAttendee{}
		var status string
		var reason sql.NullString
		if err := rows.Scan(&a.EventID, &a.UserID, &status, &reason, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		a.Status = domain.AttendanceStatus(status)
		a.AbsenceReason = stringPtr(reason)
		attendees = append(attendees, a)
	}
	return attendees, rows.Err()
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"teamcalendar/internal/domain"
)

type bookingStore struct {
	DB *sql.DB
}

// NewBookingStore returns a domain.BookingStore that serialises bookings with transaction-scoped
// advisory locks.
func NewBookingStore(db *sql.DB) domain.BookingStore {
	return &bookingStore{DB: db}
}

type bookingScope struct {
	events    domain.EventRepository
	conflicts domain.ConflictRepository
}

func (s *bookingScope) Events() domain.EventRepository       { return s.events }
func (s *bookingScope) Conflicts() domain.ConflictRepository { return s.conflicts }

// InBookingTx opens one transaction, takes pg_advisory_xact_lock for every key in sorted order
// and runs fn with repositories bound to that transaction. The locks are released on commit or
// rollback. Any error returned by fn rolls the transaction back.
func (s *bookingStore) InBookingTx(ctx context.Context, lockKeys []string, fn func(ctx context.Context, scope domain.BookingScope) error) error {
	keys := slices.Clone(lockKeys)
	slices.Sort(keys)
	keys = slices.Compact(keys)
	return withTx(ctx, s.DB, func(tx DBTX) error {
		for _, key := range keys {
			if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
				return fmt.Errorf("acquire booking lock %s: %w", key, err)
			}
		}
		return fn(ctx, &bookingScope{
			events:    &eventRepository{DB: tx},
			conflicts: &conflictRepository{DB: tx},
		})
	})
}

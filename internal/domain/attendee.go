package domain

import (
	"context"
	"time"
)

// AttendanceStatus is a participant's answer for an event.
type AttendanceStatus string

const (
	AttendanceInvited   AttendanceStatus = "invited"
	AttendanceAttending AttendanceStatus = "attending"
	AttendanceAbsent    AttendanceStatus = "absent"
	AttendanceMaybe     AttendanceStatus = "maybe"
)

func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceInvited, AttendanceAttending, AttendanceAbsent, AttendanceMaybe:
		return true
	}
	return false
}

// EventAttendee links one event to one user. At most one row exists per (event, user).
// swagger:model EventAttendee
type EventAttendee struct {
	EventID       string           `json:"event_id"`
	UserID        string           `json:"user_id"`
	Status        AttendanceStatus `json:"status"`
	AbsenceReason *string          `json:"absence_reason"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// AttendeeRepository stores event participants.
type AttendeeRepository interface {
	// Add returns ErrDuplicate when the (event, user) pair already exists.
	Add(ctx context.Context, attendee *EventAttendee) error
	UpdateStatus(ctx context.Context, attendee *EventAttendee) error
	Remove(ctx context.Context, eventID, userID string) (bool, error)
	ListByEventID(ctx context.Context, eventID string) ([]*EventAttendee, error)
}

// AddParticipantInput is used both to add a participant and to change their status.
type AddParticipantInput struct {
	OrganizationID string `validate:"required,uuid4"`
	EventID        string `validate:"required,uuid4"`
	UserID         string `validate:"required,uuid4"`
	Status         AttendanceStatus
	AbsenceReason  *string
}

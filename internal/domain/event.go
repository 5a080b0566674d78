package domain

import (
	"context"
	"time"
)

// EventType categorises an event.
type EventType string

const (
	EventTypeIceTraining      EventType = "ice_training"
	EventTypePhysicalTraining EventType = "physical_training"
	EventTypeGame             EventType = "game"
	EventTypeMeeting          EventType = "meeting"
	EventTypeMedical          EventType = "medical"
	EventTypeTravel           EventType = "travel"
	EventTypeOther            EventType = "other"
)

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	switch t {
	case EventTypeIceTraining, EventTypePhysicalTraining, EventTypeGame, EventTypeMeeting,
		EventTypeMedical, EventTypeTravel, EventTypeOther:
		return true
	}
	return false
}

// EventStatus is the lifecycle state of an event. No transition table is enforced.
type EventStatus string

const (
	EventStatusScheduled EventStatus = "scheduled"
	EventStatusCanceled  EventStatus = "canceled"
	EventStatusCompleted EventStatus = "completed"
)

func (s EventStatus) Valid() bool {
	switch s {
	case EventStatusScheduled, EventStatusCanceled, EventStatusCompleted:
		return true
	}
	return false
}

// Repetition is stored and returned as-is; it is never expanded into occurrences.
type Repetition struct {
	Kind    string     `json:"kind"`
	EndDate *time.Time `json:"end_date,omitempty"`
}

// Event is a scheduled, time-bounded activity within an organization.
// swagger:model Event
type Event struct {
	ID                string          `json:"id"`
	OrganizationID    string          `json:"organization_id"`
	TeamIDs           []string        `json:"team_ids"`
	Title             string          `json:"title"`
	Description       *string         `json:"description"`
	EventType         EventType       `json:"event_type"`
	Status            EventStatus     `json:"status"`
	StartTime         time.Time       `json:"start_time"`
	EndTime           time.Time       `json:"end_time"`
	AllDay            bool            `json:"all_day"`
	LocationID        *string         `json:"location_id"`
	Repetition        *Repetition     `json:"repetition,omitempty"`
	TrainingSessionID *string         `json:"training_session_id,omitempty"`
	GameID            *string         `json:"game_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Resources         []EventResource `json:"resources"`
	Attendees         []EventAttendee `json:"attendees"`
}

// ResourceIDs returns the ids of the linked resources in link order.
func (e *Event) ResourceIDs() []string {
	ids := make([]string, 0, len(e.Resources))
	for _, r := range e.Resources {
		ids = append(ids, r.ResourceID)
	}
	return ids
}

// EventResource links one event to one bookable resource.
type EventResource struct {
	EventID    string    `json:"event_id"`
	ResourceID string    `json:"resource_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// EventPatch carries the fields of a partial update. Nil fields keep their stored value.
// LocationID pointing to an empty string clears the location.
type EventPatch struct {
	Title             *string
	Description       *string
	EventType         *EventType
	Status            *EventStatus
	StartTime         *time.Time
	EndTime           *time.Time
	AllDay            *bool
	LocationID        *string
	TeamIDs           *[]string
	Repetition        *Repetition
	TrainingSessionID *string
	GameID            *string
}

// Apply copies every set field of p onto e.
func (p EventPatch) Apply(e *Event) {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = p.Description
	}
	if p.EventType != nil {
		e.EventType = *p.EventType
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.StartTime != nil {
		e.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		e.EndTime = *p.EndTime
	}
	if p.AllDay != nil {
		e.AllDay = *p.AllDay
	}
	if p.LocationID != nil {
		if *p.LocationID == "" {
			e.LocationID = nil
		} else {
			id := *p.LocationID
			e.LocationID = &id
		}
	}
	if p.TeamIDs != nil {
		e.TeamIDs = append([]string{}, (*p.TeamIDs)...)
	}
	if p.Repetition != nil {
		e.Repetition = p.Repetition
	}
	if p.TrainingSessionID != nil {
		e.TrainingSessionID = p.TrainingSessionID
	}
	if p.GameID != nil {
		e.GameID = p.GameID
	}
}

// EventFilter narrows FindAll. Zero values mean "no constraint".
type EventFilter struct {
	OrganizationID string
	Start          *time.Time
	End            *time.Time
	TeamID         string
	EventType      EventType
	LocationID     string
}

// Preload selects which links are eagerly loaded with an event.
type Preload struct {
	Resources bool
	Attendees bool
}

// PreloadAll loads every link.
var PreloadAll = Preload{Resources: true, Attendees: true}

// EventRepository persists events and their resource links.
type EventRepository interface {
	FindAll(ctx context.Context, filter EventFilter, preload Preload) ([]*Event, error)
	FindByID(ctx context.Context, orgID, id string, preload Preload) (*Event, error)
	// Create inserts the event and one link per resource id atomically.
	Create(ctx context.Context, event *Event, resourceIDs []string) (*Event, error)
	// Update applies patch; a non-nil resourceIDs replaces every link, even with an empty set.
	Update(ctx context.Context, orgID, id string, patch EventPatch, resourceIDs *[]string) (*Event, error)
	Delete(ctx context.Context, orgID, id string) (bool, error)
}

// BookingScope exposes repositories bound to a single booking transaction.
type BookingScope interface {
	Events() EventRepository
	Conflicts() ConflictRepository
}

// BookingStore runs check-then-write sequences under advisory locks for the given keys.
type BookingStore interface {
	InBookingTx(ctx context.Context, lockKeys []string, fn func(ctx context.Context, scope BookingScope) error) error
}

// CreateEventInput is the command payload for creating an event.
type CreateEventInput struct {
	OrganizationID    string `validate:"required,uuid4"`
	Title             string `validate:"required"`
	Description       *string
	EventType         EventType `validate:"required"`
	Status            EventStatus
	StartTime         time.Time `validate:"required"`
	EndTime           time.Time `validate:"required"`
	AllDay            bool
	LocationID        *string  `validate:"omitempty,uuid4"`
	TeamIDs           []string `validate:"dive,uuid4"`
	ResourceIDs       []string `validate:"dive,uuid4"`
	Repetition        *Repetition
	TrainingSessionID *string `validate:"omitempty,uuid4"`
	GameID            *string `validate:"omitempty,uuid4"`
}

// UpdateEventInput is the command payload for a partial event update.
type UpdateEventInput struct {
	OrganizationID string `validate:"required,uuid4"`
	EventID        string `validate:"required,uuid4"`
	Patch          EventPatch
	ResourceIDs    *[]string
}

// EventService holds the event command handlers and queries.
type EventService interface {
	CreateEvent(ctx context.Context, in CreateEventInput) (*Event, error)
	GetEvent(ctx context.Context, orgID, eventID string) (*Event, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]*Event, error)
	UpdateEvent(ctx context.Context, in UpdateEventInput) (*Event, error)
	UpdateEventStatus(ctx context.Context, orgID, eventID string, status EventStatus) (*Event, error)
	DeleteEvent(ctx context.Context, orgID, eventID string) error
	ListParticipants(ctx context.Context, orgID, eventID string) ([]*EventAttendee, error)
	AddParticipant(ctx context.Context, in AddParticipantInput) (*EventAttendee, error)
	UpdateParticipant(ctx context.Context, in AddParticipantInput) (*EventAttendee, error)
	RemoveParticipant(ctx context.Context, orgID, eventID, userID string) error
}

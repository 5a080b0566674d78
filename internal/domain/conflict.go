package domain

import (
	"context"
	"time"
)

// ConflictReason names the dimension along which two events collide.
type ConflictReason string

const (
	ConflictReasonResource ConflictReason = "resource"
	ConflictReasonTeam     ConflictReason = "team"
	ConflictReasonLocation ConflictReason = "location"
)

// Conflict is one existing event overlapping a candidate window on one dimension.
// The same event may appear several times under different reasons or identifiers.
// swagger:model Conflict
type Conflict struct {
	ID                 string         `json:"id"`
	Title              string         `json:"title"`
	StartTime          time.Time      `json:"start_time"`
	EndTime            time.Time      `json:"end_time"`
	EventType          EventType      `json:"event_type"`
	ConflictReason     ConflictReason `json:"conflict_reason"`
	ConflictIdentifier string         `json:"conflict_identifier"`
}

// ConflictQuery describes a candidate booking. Empty dimensions are not checked.
type ConflictQuery struct {
	OrganizationID string
	StartTime      time.Time
	EndTime        time.Time
	ResourceIDs    []string
	TeamIDs        []string
	LocationID     *string
	ExcludeEventID *string
}

// ConflictRepository runs the per-dimension overlap queries. Every method returns only
// non-canceled events with existing.start < end AND existing.end > start.
type ConflictRepository interface {
	ByResources(ctx context.Context, q ConflictQuery) ([]Conflict, error)
	ByTeams(ctx context.Context, q ConflictQuery) ([]Conflict, error)
	ByLocation(ctx context.Context, q ConflictQuery) ([]Conflict, error)
}

// ConflictDetector unions the dimension queries into one flat list.
type ConflictDetector interface {
	Detect(ctx context.Context, q ConflictQuery) ([]Conflict, error)
	HasConflicts(ctx context.Context, q ConflictQuery) (bool, error)
}

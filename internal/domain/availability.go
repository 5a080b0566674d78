package domain

import (
	"context"
	"time"
)

// ResourceAvailability answers whether one resource is free in a window.
// swagger:model ResourceAvailability
type ResourceAvailability struct {
	Available bool       `json:"available"`
	Conflicts []Conflict `json:"conflicts"`
}

// ResourceAvailabilityEntry is one row of a bulk availability answer.
type ResourceAvailabilityEntry struct {
	ID        string `json:"id"`
	Available bool   `json:"available"`
}

// AvailabilitySlot lists the resources busy during [Start, End).
type AvailabilitySlot struct {
	Start                  time.Time `json:"start"`
	End                    time.Time `json:"end"`
	UnavailableResourceIDs []string  `json:"unavailable_resource_ids"`
}

// BulkAvailability is the answer for several resources, optionally split into slots.
// swagger:model BulkAvailability
type BulkAvailability struct {
	Resources []ResourceAvailabilityEntry `json:"resources"`
	Slots     []AvailabilitySlot          `json:"slots,omitempty"`
}

// AvailabilityService is the availability calculator.
type AvailabilityService interface {
	ResourceAvailability(ctx context.Context, orgID, resourceID string, start, end time.Time) (*ResourceAvailability, error)
	// BulkAvailability splits the window into slots when granularityMinutes > 0.
	BulkAvailability(ctx context.Context, orgID string, resourceIDs []string, start, end time.Time, granularityMinutes int) (*BulkAvailability, error)
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"teamcalendar/internal/domain"
	"teamcalendar/internal/scheduler"
)

const (
	// maxAvailabilitySlots bounds a slot-granular answer to one week at 5-minute steps.
	maxAvailabilitySlots = 2016
	// maxAvailabilityWindow bounds every availability query.
	maxAvailabilityWindow = 366 * 24 * time.Hour
	maxGranularityMinutes = int(maxAvailabilityWindow / time.Minute)
)

type availabilityService struct {
	resources      domain.ResourceRepository
	detector       domain.ConflictDetector
	contextTimeout time.Duration
}

func NewAvailabilityService(resources domain.ResourceRepository, detector domain.ConflictDetector, timeout time.Duration) domain.AvailabilityService {
	return &availabilityService{
		resources:      resources,
		detector:       detector,
		contextTimeout: timeout,
	}
}

func (s *availabilityService) ResourceAvailability(ctx context.Context, orgID, resourceID string, start, end time.Time) (*domain.ResourceAvailability, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	problems := append(checkID("organization_id", orgID), checkID("resource_id", resourceID)...)
	problems = append(problems, checkWindow(start, end)...)
	if err := domain.NewValidationError(problems...); err != nil {
		return nil, err
	}

	res, err := s.resources.GetByID(ctx, orgID, resourceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: resource %s", domain.ErrNotFound, resourceID)
		}
		return nil, fmt.Errorf("get resource: %w", err)
	}
	if !res.IsBookable {
		return nil, fmt.Errorf("%w: resource %s is not bookable", domain.ErrNotFound, resourceID)
	}

	conflicts, err := s.detector.Detect(ctx, domain.ConflictQuery{
		OrganizationID: orgID,
		StartTime:      start,
		EndTime:        end,
		ResourceIDs:    []string{resourceID},
	})
	if err != nil {
		return nil, fmt.Errorf("detect conflicts: %w", err)
	}
	return &domain.ResourceAvailability{
		Available: len(conflicts) == 0,
		Conflicts: conflicts,
	}, nil
}

func (s *availabilityService) BulkAvailability(ctx context.Context, orgID string, resourceIDs []string, start, end time.Time, granularityMinutes int) (*domain.BulkAvailability, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	problems := checkID("organization_id", orgID)
	if len(resourceIDs) == 0 {
		problems = append(problems, "resource_ids must contain at least one id")
	}
	problems = append(problems, checkIDs("resource_ids", resourceIDs)...)
	problems = append(problems, checkWindow(start, end)...)
	switch {
	case granularityMinutes < 0:
		problems = append(problems, "granularity must not be negative")
	case granularityMinutes > maxGranularityMinutes:
		problems = append(problems, fmt.Sprintf("granularity must not exceed %d minutes", maxGranularityMinutes))
	}
	if err := domain.NewValidationError(problems...); err != nil {
		return nil, err
	}
	window := scheduler.Interval{Start: start, End: end}
	step := time.Duration(granularityMinutes) * time.Minute
	if granularityMinutes > 0 && scheduler.SlotCount(window, step) > maxAvailabilitySlots {
		return nil, domain.NewValidationError(fmt.Sprintf("window splits into more than %d slots", maxAvailabilitySlots))
	}
	ids := uniqueIDs(resourceIDs)

	found, err := s.resources.GetByIDs(ctx, orgID, ids)
	if err != nil {
		return nil, fmt.Errorf("get resources: %w", err)
	}
	bookable := make(map[string]bool, len(found))
	for _, r := range found {
		bookable[r.ID] = r.IsBookable
	}
	var missing []string
	for _, id := range ids {
		if !bookable[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: resources not found or not bookable: %s", domain.ErrNotFound, strings.Join(missing, ", "))
	}

	conflicts, err := s.detector.Detect(ctx, domain.ConflictQuery{
		OrganizationID: orgID,
		StartTime:      start,
		EndTime:        end,
		ResourceIDs:    ids,
	})
	if err != nil {
		return nil, fmt.Errorf("detect conflicts: %w", err)
	}
	busy := make(map[string][]scheduler.Interval, len(ids))
	for _, c := range conflicts {
		if c.ConflictReason != domain.ConflictReasonResource {
			continue
		}
		busy[c.ConflictIdentifier] = append(busy[c.ConflictIdentifier], scheduler.Interval{Start: c.StartTime, End: c.EndTime})
	}

	out := &domain.BulkAvailability{Resources: make([]domain.ResourceAvailabilityEntry, 0, len(ids))}
	for _, id := range ids {
		out.Resources = append(out.Resources, domain.ResourceAvailabilityEntry{ID: id, Available: len(busy[id]) == 0})
	}
	if granularityMinutes == 0 {
		return out, nil
	}

	parts, err := scheduler.Partition(window, step)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	out.Slots = make([]domain.AvailabilitySlot, 0, len(parts))
	for _, part := range parts {
		slot := domain.AvailabilitySlot{Start: part.Start, End: part.End, UnavailableResourceIDs: []string{}}
		for _, id := range ids {
			for _, b := range busy[id] {
				if scheduler.Overlaps(part, b) {
					slot.UnavailableResourceIDs = append(slot.UnavailableResourceIDs, id)
					break
				}
			}
		}
		out.Slots = append(out.Slots, slot)
	}
	return out, nil
}

func checkWindow(start, end time.Time) []string {
	var problems []string
	if start.IsZero() {
		problems = append(problems, "start is required")
	}
	if end.IsZero() {
		problems = append(problems, "end is required")
	}
	if len(problems) > 0 {
		return problems
	}
	switch {
	case !end.After(start):
		problems = append(problems, "end must be after start")
	case end.Sub(start) > maxAvailabilityWindow:
		problems = append(problems, "window must not exceed 366 days")
	}
	return problems
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"teamcalendar/internal/domain"
	"teamcalendar/internal/lib/logger/sl"
)

// maxBookingAttempts bounds how often an update re-takes its locks after the
// stored event moved to keys that were not locked.
const maxBookingAttempts = 3

var errStaleBooking = errors.New("booking keys changed while waiting for locks")

type eventService struct {
	events         domain.EventRepository
	attendees      domain.AttendeeRepository
	resources      domain.ResourceRepository
	locations      domain.LocationRepository
	directory      domain.Directory
	store          domain.BookingStore
	publisher      domain.EventPublisher
	emailService   domain.EmailService
	log            *slog.Logger
	contextTimeout time.Duration
}

func NewEventService(events domain.EventRepository,
	attendees domain.AttendeeRepository,
	resources domain.ResourceRepository,
	locations domain.LocationRepository,
	directory domain.Directory,
	store domain.BookingStore,
	publisher domain.EventPublisher,
	emailService domain.EmailService,
	log *slog.Logger,
	timeout time.Duration,
) domain.EventService {
	return &eventService{
		events:         events,
		attendees:      attendees,
		resources:      resources,
		locations:      locations,
		directory:      directory,
		store:          store,
		publisher:      publisher,
		emailService:   emailService,
		log:            log,
		contextTimeout: timeout,
	}
}

// CreateEvent validates the command, checks every referenced entity, and books the
// event unless it collides with a live event on a resource, team or the location.
func (s *eventService) CreateEvent(ctx context.Context, in domain.CreateEventInput) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	problems := validateStruct(in)
	if in.Title != "" && strings.TrimSpace(in.Title) == "" {
		problems = append(problems, "title must not be blank")
	}
	if in.EventType != "" && !in.EventType.Valid() {
		problems = append(problems, fmt.Sprintf("event_type %q is not supported", in.EventType))
	}
	if in.Status != "" && !in.Status.Valid() {
		problems = append(problems, fmt.Sprintf("status %q is not supported", in.Status))
	}
	if in.EndTime.Before(in.StartTime) {
		problems = append(problems, "end_time must not be before start_time")
	}
	if err := domain.NewValidationError(problems...); err != nil {
		return nil, err
	}

	resourceIDs := uniqueIDs(in.ResourceIDs)
	teamIDs := uniqueIDs(in.TeamIDs)
	if teamIDs == nil {
		teamIDs = []string{}
	}
	if err := s.checkReferences(ctx, in.OrganizationID, in.LocationID, resourceIDs, teamIDs); err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = domain.EventStatusScheduled
	}
	now := time.Now().UTC()
	event := &domain.Event{
		OrganizationID:    in.OrganizationID,
		TeamIDs:           teamIDs,
		Title:             strings.TrimSpace(in.Title),
		Description:       in.Description,
		EventType:         in.EventType,
		Status:            status,
		StartTime:         in.StartTime,
		EndTime:           in.EndTime,
		AllDay:            in.AllDay,
		LocationID:        in.LocationID,
		Repetition:        in.Repetition,
		TrainingSessionID: in.TrainingSessionID,
		GameID:            in.GameID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	q := conflictQuery(event, resourceIDs)

	var created *domain.Event
	err := s.store.InBookingTx(ctx, bookingLockKeys(q), func(ctx context.Context, scope domain.BookingScope) error {
		conflicts, err := NewConflictDetector(scope.Conflicts()).Detect(ctx, q)
		if err != nil {
			return fmt.Errorf("detect conflicts: %w", err)
		}
		if len(conflicts) > 0 {
			return domain.NewEventConflict(conflicts)
		}
		created, err = scope.Events().Create(ctx, event, resourceIDs)
		if err != nil {
			return fmt.Errorf("create event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, bookingError(err)
	}
	s.notify(ctx, domain.EventCreated, created)
	return created, nil
}

func (s *eventService) GetEvent(ctx context.Context, orgID, eventID string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	problems := append(checkID("organization_id", orgID), checkID("event_id", eventID)...)
	if err := domain.NewValidationError(problems...); err != nil {
		return nil, err
	}
	event, err := s.events.FindByID(ctx, orgID, eventID, domain.PreloadAll)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: event %s", domain.ErrNotFound, eventID)
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	problems := checkID("organization_id", filter.OrganizationID)
	if filter.TeamID != "" {
		problems = append(problems, checkID("team_id", filter.TeamID)...)
	}
	if filter.LocationID != "" {
		problems = append(problems, checkID("location_id", filter.LocationID)...)
	}
	if filter.EventType != "" && !filter.EventType.Valid() {
		problems = append(problems, fmt.Sprintf("event_type %q is not supported", filter.EventType))
	}
	if filter.Start != nil && filter.End != nil && filter.End.Before(*filter.Start) {
		problems = append(problems, "end must not be before start")
	}
	if err := domain.NewValidationError(problems...); err != nil {
		return nil, err
	}
	events, err := s.events.FindAll(ctx, filter, domain.PreloadAll)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// UpdateEvent merges the patch over the stored event and re-runs detection for the
// final window, excluding the event itself.
func (s *eventService) UpdateEvent(ctx context.Context, in domain.UpdateEventInput) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := domain.NewValidationError(validatePatch(in)...); err != nil {
		return nil, err
	}
	var resourceIDs *[]string
	if in.ResourceIDs != nil {
		ids := uniqueIDs(*in.ResourceIDs)
		if ids == nil {
			ids = []string{}
		}
		resourceIDs = &ids
	}
	patch := in.Patch
	if patch.TeamIDs != nil {
		teamIDs := uniqueIDs(*patch.TeamIDs)
		if teamIDs == nil {
			teamIDs = []string{}
		}
		patch.TeamIDs = &teamIDs
	}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		patch.Title = &title
	}

	existing, err := s.events.FindByID(ctx, in.OrganizationID, in.EventID, domain.Preload{Resources: true})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: event %s", domain.ErrNotFound, in.EventID)
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	var newResources []string
	if resourceIDs != nil {
		newResources = *resourceIDs
	}
	var newTeams []string
	if patch.TeamIDs != nil {
		newTeams = *patch.TeamIDs
	}
	var newLocation *string
	if patch.LocationID != nil && *patch.LocationID != "" {
		newLocation = patch.LocationID
	}
	if err := s.checkReferences(ctx, in.OrganizationID, newLocation, newResources, newTeams); err != nil {
		return nil, err
	}

	var updated *domain.Event
	for attempt := 0; ; attempt++ {
		q, err := mergedQuery(existing, patch, resourceIDs)
		if err != nil {
			return nil, err
		}
		keys := append(bookingLockKeys(q), "event:"+in.EventID)
		err = s.store.InBookingTx(ctx, keys, func(ctx context.Context, scope domain.BookingScope) error {
			current, err := scope.Events().FindByID(ctx, in.OrganizationID, in.EventID, domain.Preload{Resources: true})
			if err != nil {
				return err
			}
			q, err := mergedQuery(current, patch, resourceIDs)
			if err != nil {
				return err
			}
			if !coversKeys(keys, bookingLockKeys(q)) {
				existing = current
				return errStaleBooking
			}
			conflicts, err := NewConflictDetector(scope.Conflicts()).Detect(ctx, q)
			if err != nil {
				return fmt.Errorf("detect conflicts: %w", err)
			}
			if len(conflicts) > 0 {
				return domain.NewEventConflict(conflicts)
			}
			updated, err = scope.Events().Update(ctx, in.OrganizationID, in.EventID, patch, resourceIDs)
			if err != nil {
				return fmt.Errorf("update event: %w", err)
			}
			return nil
		})
		if errors.Is(err, errStaleBooking) && attempt+1 < maxBookingAttempts {
			continue
		}
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: event %s", domain.ErrNotFound, in.EventID)
			}
			return nil, bookingError(err)
		}
		break
	}
	s.notify(ctx, domain.EventUpdated, updated)
	return updated, nil
}

// UpdateEventStatus changes only the status and never runs conflict detection.
func (s *eventService) UpdateEventStatus(ctx context.Context, orgID, eventID string, status domain.EventStatus) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	problems := append(checkID("organization_id", orgID), checkID("event_id", eventID)...)
	if !status.Valid() {
		problems = append(problems, fmt.Sprintf("status %q is not supported", status))
	}
	if err := domain.NewValidationError(problems...); err != nil {
		return nil, err
	}
	updated, err := s.events.Update(ctx, orgID, eventID, domain.EventPatch{Status: &status}, nil)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: event %s", domain.ErrNotFound, eventID)
		}
		return nil, fmt.Errorf("update event status: %w", err)
	}
	s.notify(ctx, domain.EventStatusChanged, updated)
	return updated, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, orgID, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	problems := append(checkID("organization_id", orgID), checkID("event_id", eventID)...)
	if err := domain.NewValidationError(problems...); err != nil {
		return err
	}
	event, err := s.events.FindByID(ctx, orgID, eventID, domain.Preload{Resources: true})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: event %s", domain.ErrNotFound, eventID)
		}
		return fmt.Errorf("get event: %w", err)
	}
	deleted, err := s.events.Delete(ctx, orgID, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrReferenced) {
			return &domain.ConflictError{
				Code:    domain.ConflictCodeEventReferenced,
				Message: "event is still referenced by other records",
			}
		}
		return fmt.Errorf("delete event: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: event %s", domain.ErrNotFound, eventID)
	}
	s.notify(ctx, domain.EventDeleted, event)
	return nil
}

func (s *eventService) ListParticipants(ctx context.Context, orgID, eventID string) ([]*domain.EventAttendee, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	problems := append(checkID("organization_id", orgID), checkID("event_id", eventID)...)
	if err := domain.NewValidationError(problems...); err != nil {
		return nil, err
	}
	if _, err := s.findEvent(ctx, orgID, eventID); err != nil {
		return nil, err
	}
	attendees, err := s.attendees.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return attendees, nil
}

// AddParticipant adds a user to an event once; a second add is a conflict.
func (s *eventService) AddParticipant(ctx context.Context, in domain.AddParticipantInput) (*domain.EventAttendee, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	problems := validateStruct(in)
	if in.Status != "" && !in.Status.Valid() {
		problems = append(problems, fmt.Sprintf("status %q is not supported", in.Status))
	}
	if err := domain.NewValidationError(problems...); err != nil {
		return nil, err
	}
	event, err := s.findEvent(ctx, in.OrganizationID, in.EventID)
	if err != nil {
		return nil, err
	}
	ok, err := s.directory.UserExists(ctx, in.OrganizationID, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, in.UserID)
	}

	status := in.Status
	if status == "" {
		status = domain.AttendanceInvited
	}
	now := time.Now().UTC()
	attendee := &domain.EventAttendee{
		EventID:       in.EventID,
		UserID:        in.UserID,
		Status:        status,
		AbsenceReason: in.AbsenceReason,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.attendees.Add(ctx, attendee); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, &domain.ConflictError{
				Code:    domain.ConflictCodeDuplicateAttendee,
				Message: fmt.Sprintf("user %s is already a participant of event %s", in.UserID, in.EventID),
			}
		}
		if errors.Is(err, domain.ErrReferenced) {
			return nil, fmt.Errorf("%w: event %s", domain.ErrNotFound, in.EventID)
		}
		return nil, fmt.Errorf("add participant: %w", err)
	}
	s.invite(ctx, event, in.UserID)
	return attendee, nil
}

// UpdateParticipant changes the attendance status and absence reason of an existing participant.
func (s *eventService) UpdateParticipant(ctx context.Context, in domain.AddParticipantInput) (*domain.EventAttendee, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	problems := validateStruct(in)
	if !in.Status.Valid() {
		problems = append(problems, fmt.Sprintf("status %q is not supported", in.Status))
	}
	if err := domain.NewValidationError(problems...); err != nil {
		return nil, err
	}
	if _, err := s.findEvent(ctx, in.OrganizationID, in.EventID); err != nil {
		return nil, err
	}
	attendee := &domain.EventAttendee{
		EventID:       in.EventID,
		UserID:        in.UserID,
		Status:        in.Status,
		AbsenceReason: in.AbsenceReason,
		UpdatedAt:     time.Now().UTC(),
	}
	if err := s.attendees.UpdateStatus(ctx, attendee); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: participant %s", domain.ErrNotFound, in.UserID)
		}
		return nil, fmt.Errorf("update participant: %w", err)
	}
	return attendee, nil
}

func (s *eventService) RemoveParticipant(ctx context.Context, orgID, eventID, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	problems := append(checkID("organization_id", orgID), checkID("event_id", eventID)...)
	problems = append(problems, checkID("user_id", userID)...)
	if err := domain.NewValidationError(problems...); err != nil {
		return err
	}
	if _, err := s.findEvent(ctx, orgID, eventID); err != nil {
		return err
	}
	removed, err := s.attendees.Remove(ctx, eventID, userID)
	if err != nil {
		return fmt.Errorf("remove participant: %w", err)
	}
	if !removed {
		return fmt.Errorf("%w: participant %s", domain.ErrNotFound, userID)
	}
	return nil
}

func (s *eventService) findEvent(ctx context.Context, orgID, eventID string) (*domain.Event, error) {
	event, err := s.events.FindByID(ctx, orgID, eventID, domain.Preload{})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: event %s", domain.ErrNotFound, eventID)
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}

// checkReferences reports the first missing location, resources or team as not found.
func (s *eventService) checkReferences(ctx context.Context, orgID string, locationID *string, resourceIDs, teamIDs []string) error {
	if locationID != nil {
		if _, err := s.locations.GetByID(ctx, orgID, *locationID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("%w: location %s", domain.ErrNotFound, *locationID)
			}
			return fmt.Errorf("get location: %w", err)
		}
	}
	if len(resourceIDs) > 0 {
		found, err := s.resources.GetByIDs(ctx, orgID, resourceIDs)
		if err != nil {
			return fmt.Errorf("get resources: %w", err)
		}
		known := make(map[string]struct{}, len(found))
		for _, r := range found {
			known[r.ID] = struct{}{}
		}
		var missing []string
		for _, id := range resourceIDs {
			if _, ok := known[id]; !ok {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: resources %s", domain.ErrNotFound, strings.Join(missing, ", "))
		}
	}
	for _, teamID := range teamIDs {
		ok, err := s.directory.TeamExists(ctx, orgID, teamID)
		if err != nil {
			return fmt.Errorf("check team: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: team %s", domain.ErrNotFound, teamID)
		}
	}
	return nil
}

func (s *eventService) notify(ctx context.Context, kind string, e *domain.Event) {
	if s.publisher == nil || e == nil {
		return
	}
	start, end := e.StartTime, e.EndTime
	n := domain.EventNotification{
		Kind:           kind,
		EventID:        e.ID,
		OrganizationID: e.OrganizationID,
		Status:         e.Status,
		StartTime:      &start,
		EndTime:        &end,
		ResourceIDs:    e.ResourceIDs(),
		OccurredAt:     time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, n); err != nil {
		s.log.Warn("publish event notification failed", slog.String("kind", kind), slog.String("event_id", e.ID), sl.Err(err))
	}
}

// invite emails a new participant. Failures are logged and never undo the add.
func (s *eventService) invite(ctx context.Context, e *domain.Event, userID string) {
	if s.emailService == nil {
		return
	}
	email, err := s.directory.UserEmail(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.Warn("lookup participant email failed", slog.String("user_id", userID), sl.Err(err))
		}
		return
	}
	data := &domain.ParticipantInvitationData{
		Email:     email,
		Title:     e.Title,
		EventType: e.EventType,
		StartTime: e.StartTime,
		EndTime:   e.EndTime,
	}
	if err := s.emailService.SendParticipantInvitation(ctx, data); err != nil {
		s.log.Warn("send participant invitation failed", slog.String("user_id", userID), slog.String("event_id", e.ID), sl.Err(err))
	}
}

func validatePatch(in domain.UpdateEventInput) []string {
	problems := validateStruct(in)
	p := in.Patch
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		problems = append(problems, "title must not be blank")
	}
	if p.EventType != nil && !p.EventType.Valid() {
		problems = append(problems, fmt.Sprintf("event_type %q is not supported", *p.EventType))
	}
	if p.Status != nil && !p.Status.Valid() {
		problems = append(problems, fmt.Sprintf("status %q is not supported", *p.Status))
	}
	if p.StartTime != nil && p.StartTime.IsZero() {
		problems = append(problems, "start_time must not be empty")
	}
	if p.EndTime != nil && p.EndTime.IsZero() {
		problems = append(problems, "end_time must not be empty")
	}
	if p.LocationID != nil && *p.LocationID != "" && !domain.IsUUID(*p.LocationID) {
		problems = append(problems, fieldProblem("location_id", "uuid4"))
	}
	if p.TrainingSessionID != nil && !domain.IsUUID(*p.TrainingSessionID) {
		problems = append(problems, fieldProblem("training_session_id", "uuid4"))
	}
	if p.GameID != nil && !domain.IsUUID(*p.GameID) {
		problems = append(problems, fieldProblem("game_id", "uuid4"))
	}
	if p.TeamIDs != nil {
		problems = append(problems, checkIDs("team_ids", *p.TeamIDs)...)
	}
	if in.ResourceIDs != nil {
		problems = append(problems, checkIDs("resource_ids", *in.ResourceIDs)...)
	}
	return problems
}

// mergedQuery resolves the final window and constraints of an update: patch fields
// win, everything else keeps its stored value.
func mergedQuery(stored *domain.Event, patch domain.EventPatch, resourceIDs *[]string) (domain.ConflictQuery, error) {
	final := *stored
	patch.Apply(&final)
	if final.EndTime.Before(final.StartTime) {
		return domain.ConflictQuery{}, domain.NewValidationError("end_time must not be before start_time")
	}
	resources := stored.ResourceIDs()
	if resourceIDs != nil {
		resources = *resourceIDs
	}
	q := conflictQuery(&final, resources)
	id := stored.ID
	q.ExcludeEventID = &id
	return q, nil
}

func conflictQuery(e *domain.Event, resourceIDs []string) domain.ConflictQuery {
	return domain.ConflictQuery{
		OrganizationID: e.OrganizationID,
		StartTime:      e.StartTime,
		EndTime:        e.EndTime,
		ResourceIDs:    resourceIDs,
		TeamIDs:        e.TeamIDs,
		LocationID:     e.LocationID,
	}
}

// bookingLockKeys names the advisory locks guarding every dimension q books.
func bookingLockKeys(q domain.ConflictQuery) []string {
	keys := make([]string, 0, len(q.ResourceIDs)+len(q.TeamIDs)+1)
	for _, id := range q.ResourceIDs {
		keys = append(keys, "resource:"+id)
	}
	for _, id := range q.TeamIDs {
		keys = append(keys, "team:"+id)
	}
	if q.LocationID != nil && *q.LocationID != "" {
		keys = append(keys, "location:"+*q.LocationID)
	}
	return keys
}

func coversKeys(held, needed []string) bool {
	for _, k := range needed {
		if !slices.Contains(held, k) {
			return false
		}
	}
	return true
}

// bookingError keeps conflict and validation errors as they are and maps store
// failures raised inside a booking transaction.
func bookingError(err error) error {
	var conflict *domain.ConflictError
	if errors.As(err, &conflict) {
		return conflict
	}
	if errors.Is(err, domain.ErrInvalidInput) {
		return err
	}
	if errors.Is(err, errStaleBooking) {
		return &domain.ConflictError{
			Code:    domain.ConflictCodeConcurrentUpdate,
			Message: "the event kept changing while it was being updated; retry the request",
		}
	}
	if errors.Is(err, domain.ErrReferenced) {
		return fmt.Errorf("%w: a referenced location or resource no longer exists", domain.ErrNotFound)
	}
	if errors.Is(err, domain.ErrDuplicate) {
		return domain.NewValidationError("resource_ids must not repeat a resource")
	}
	return fmt.Errorf("book event: %w", err)
}

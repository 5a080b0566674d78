package controllers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"teamcalendar/internal/delivery/http/middleware"
	"teamcalendar/internal/domain"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const (
	testOrgID      = "6f1c2a8e-1b7d-4b7e-8f0a-2f5e9d6c3a10"
	testUserID     = "0b3f7f5e-3c8e-4d0b-9a55-5d1c9bfa1c01"
	testEventID    = "9d8e7f6a-5b4c-4d3e-8f2a-1b0c9d8e7f6a"
	testResourceID = "3a2b1c0d-9e8f-4a7b-b6c5-d4e3f2a1b0c9"
	testOtherID    = "7c6d5e4f-3a2b-4c1d-8e9f-0a1b2c3d4e5f"
)

// withPrincipal attaches the authenticated caller the way RequireAuth would.
func withPrincipal(r *http.Request) *http.Request {
	return r.WithContext(middleware.SetPrincipal(r.Context(), domain.Principal{
		UserID:         testUserID,
		OrganizationID: testOrgID,
	}))
}

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	err error

	event     *domain.Event
	events    []*domain.Event
	attendee  *domain.EventAttendee
	attendees []*domain.EventAttendee

	lastCreate      domain.CreateEventInput
	lastUpdate      domain.UpdateEventInput
	lastFilter      domain.EventFilter
	lastStatus      domain.EventStatus
	lastParticipant domain.AddParticipantInput
	lastOrgID       string
	lastEventID     string
	lastUserID      string
	calls           int
}

func (f *fakeEventService) CreateEvent(_ context.Context, in domain.CreateEventInput) (*domain.Event, error) {
	f.calls++
	f.lastCreate = in
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Event{ID: testEventID, OrganizationID: in.OrganizationID, Title: in.Title, EventType: in.EventType,
		StartTime: in.StartTime, EndTime: in.EndTime, TeamIDs: in.TeamIDs}, nil
}

func (f *fakeEventService) GetEvent(_ context.Context, orgID, eventID string) (*domain.Event, error) {
	f.calls++
	f.lastOrgID, f.lastEventID = orgID, eventID
	if f.err != nil {
		return nil, f.err
	}
	return f.event, nil
}

func (f *fakeEventService) ListEvents(_ context.Context, filter domain.EventFilter) ([]*domain.Event, error) {
	f.calls++
	f.lastFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

func (f *fakeEventService) UpdateEvent(_ context.Context, in domain.UpdateEventInput) (*domain.Event, error) {
	f.calls++
	f.lastUpdate = in
	if f.err != nil {
		return nil, f.err
	}
	return f.event, nil
}

func (f *fakeEventService) UpdateEventStatus(_ context.Context, orgID, eventID string, status domain.EventStatus) (*domain.Event, error) {
	f.calls++
	f.lastOrgID, f.lastEventID, f.lastStatus = orgID, eventID, status
	if f.err != nil {
		return nil, f.err
	}
	return f.event, nil
}

func (f *fakeEventService) DeleteEvent(_ context.Context, orgID, eventID string) error {
	f.calls++
	f.lastOrgID, f.lastEventID = orgID, eventID
	return f.err
}

func (f *fakeEventService) ListParticipants(_ context.Context, orgID, eventID string) ([]*domain.EventAttendee, error) {
	f.calls++
	f.lastOrgID, f.lastEventID = orgID, eventID
	if f.err != nil {
		return nil, f.err
	}
	return f.attendees, nil
}

func (f *fakeEventService) AddParticipant(_ context.Context, in domain.AddParticipantInput) (*domain.EventAttendee, error) {
	f.calls++
	f.lastParticipant = in
	if f.err != nil {
		return nil, f.err
	}
	return f.attendee, nil
}

func (f *fakeEventService) UpdateParticipant(_ context.Context, in domain.AddParticipantInput) (*domain.EventAttendee, error) {
	f.calls++
	f.lastParticipant = in
	if f.err != nil {
		return nil, f.err
	}
	return f.attendee, nil
}

func (f *fakeEventService) RemoveParticipant(_ context.Context, orgID, eventID, userID string) error {
	f.calls++
	f.lastOrgID, f.lastEventID, f.lastUserID = orgID, eventID, userID
	return f.err
}

// fakeAvailabilityService implements domain.AvailabilityService for handler tests.
type fakeAvailabilityService struct {
	err    error
	single *domain.ResourceAvailability
	bulk   *domain.BulkAvailability

	lastResourceID  string
	lastIDs         []string
	lastStart       time.Time
	lastEnd         time.Time
	lastGranularity int
	calls           int
}

func (f *fakeAvailabilityService) ResourceAvailability(_ context.Context, _, resourceID string, start, end time.Time) (*domain.ResourceAvailability, error) {
	f.calls++
	f.lastResourceID, f.lastStart, f.lastEnd = resourceID, start, end
	if f.err != nil {
		return nil, f.err
	}
	return f.single, nil
}

func (f *fakeAvailabilityService) BulkAvailability(_ context.Context, _ string, ids []string, start, end time.Time, granularity int) (*domain.BulkAvailability, error) {
	f.calls++
	f.lastIDs, f.lastStart, f.lastEnd, f.lastGranularity = ids, start, end, granularity
	if f.err != nil {
		return nil, f.err
	}
	return f.bulk, nil
}

// fakeResourceService implements domain.ResourceService for handler tests.
type fakeResourceService struct {
	err       error
	resource  *domain.Resource
	resources []*domain.Resource
	total     int

	lastLocation     *domain.Location
	lastResourceType *domain.ResourceType
	lastResource     *domain.Resource
	lastParams       domain.PaginationParams
	lastID           string
	lastBookable     bool
	calls            int
}

func (f *fakeResourceService) CreateLocation(_ context.Context, loc *domain.Location) error {
	f.calls++
	f.lastLocation = loc
	if f.err == nil {
		loc.ID = testOtherID
	}
	return f.err
}

func (f *fakeResourceService) ListLocations(_ context.Context, _ string, params domain.PaginationParams) ([]*domain.Location, int, error) {
	f.calls++
	f.lastParams = params
	if f.err != nil {
		return nil, 0, f.err
	}
	return []*domain.Location{}, f.total, nil
}

func (f *fakeResourceService) DeleteLocation(_ context.Context, _, id string) error {
	f.calls++
	f.lastID = id
	return f.err
}

func (f *fakeResourceService) CreateResourceType(_ context.Context, rt *domain.ResourceType) error {
	f.calls++
	f.lastResourceType = rt
	return f.err
}

func (f *fakeResourceService) ListResourceTypes(_ context.Context, _ string) ([]*domain.ResourceType, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []*domain.ResourceType{}, nil
}

func (f *fakeResourceService) CreateResource(_ context.Context, res *domain.Resource) error {
	f.calls++
	f.lastResource = res
	return f.err
}

func (f *fakeResourceService) GetResource(_ context.Context, _, id string) (*domain.Resource, error) {
	f.calls++
	f.lastID = id
	if f.err != nil {
		return nil, f.err
	}
	return f.resource, nil
}

func (f *fakeResourceService) ListResources(_ context.Context, _ string, params domain.PaginationParams) ([]*domain.Resource, int, error) {
	f.calls++
	f.lastParams = params
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.resources, f.total, nil
}

func (f *fakeResourceService) SetResourceBookable(_ context.Context, _, id string, bookable bool) (*domain.Resource, error) {
	f.calls++
	f.lastID, f.lastBookable = id, bookable
	if f.err != nil {
		return nil, f.err
	}
	return f.resource, nil
}

func (f *fakeResourceService) DeleteResource(_ context.Context, _, id string) error {
	f.calls++
	f.lastID = id
	return f.err
}

package services

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"teamcalendar/internal/domain"
	"teamcalendar/internal/scheduler"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeCalendar is an in-memory event store. It serves as EventRepository,
// ConflictRepository and BookingStore so detection sees exactly what was written.
type fakeCalendar struct {
	mu        sync.Mutex
	events    map[string]*domain.Event
	locks     [][]string
	createErr error
	deleteErr error
	txCalls   int
	// beforeTx runs after the locks are recorded, standing in for a writer that got there first.
	beforeTx func()
}

func newFakeCalendar() *fakeCalendar {
	return &fakeCalendar{events: make(map[string]*domain.Event)}
}

func cloneEvent(e *domain.Event) *domain.Event {
	c := *e
	c.TeamIDs = slices.Clone(e.TeamIDs)
	c.Resources = slices.Clone(e.Resources)
	c.Attendees = slices.Clone(e.Attendees)
	return &c
}

// seed stores an event directly, bypassing detection.
func (f *fakeCalendar) seed(e *domain.Event, resourceIDs ...string) *domain.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	if e.ID == "" {
		e.ID = domain.NewID()
	}
	if e.Status == "" {
		e.Status = domain.EventStatusScheduled
	}
	if e.TeamIDs == nil {
		e.TeamIDs = []string{}
	}
	e.Resources = nil
	for _, id := range resourceIDs {
		e.Resources = append(e.Resources, domain.EventResource{EventID: e.ID, ResourceID: id})
	}
	f.events[e.ID] = cloneEvent(e)
	return e
}

// moveTo relinks a stored event to a single resource.
func (f *fakeCalendar) moveTo(eventID, resourceID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[eventID].Resources = []domain.EventResource{{EventID: eventID, ResourceID: resourceID}}
}

func (f *fakeCalendar) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}

func (f *fakeCalendar) FindAll(ctx context.Context, filter domain.EventFilter, preload domain.Preload) ([]*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Event, 0)
	for _, e := range f.events {
		if e.OrganizationID != filter.OrganizationID {
			continue
		}
		if filter.End != nil && !e.StartTime.Before(*filter.End) {
			continue
		}
		if filter.Start != nil && !e.EndTime.After(*filter.Start) {
			continue
		}
		if filter.TeamID != "" && !slices.Contains(e.TeamIDs, filter.TeamID) {
			continue
		}
		if filter.EventType != "" && e.EventType != filter.EventType {
			continue
		}
		if filter.LocationID != "" && (e.LocationID == nil || *e.LocationID != filter.LocationID) {
			continue
		}
		out = append(out, cloneEvent(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (f *fakeCalendar) FindByID(ctx context.Context, orgID, id string, preload domain.Preload) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok || e.OrganizationID != orgID {
		return nil, domain.ErrNotFound
	}
	return cloneEvent(e), nil
}

func (f *fakeCalendar) Create(ctx context.Context, e *domain.Event, resourceIDs []string) (*domain.Event, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = domain.NewID()
	e.Resources = []domain.EventResource{}
	for _, id := range resourceIDs {
		e.Resources = append(e.Resources, domain.EventResource{EventID: e.ID, ResourceID: id, CreatedAt: e.CreatedAt})
	}
	e.Attendees = []domain.EventAttendee{}
	f.events[e.ID] = cloneEvent(e)
	return e, nil
}

func (f *fakeCalendar) Update(ctx context.Context, orgID, id string, patch domain.EventPatch, resourceIDs *[]string) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok || e.OrganizationID != orgID {
		return nil, domain.ErrNotFound
	}
	patch.Apply(e)
	e.UpdatedAt = time.Now().UTC()
	if resourceIDs != nil {
		e.Resources = []domain.EventResource{}
		for _, rid := range *resourceIDs {
			e.Resources = append(e.Resources, domain.EventResource{EventID: id, ResourceID: rid})
		}
	}
	return cloneEvent(e), nil
}

func (f *fakeCalendar) Delete(ctx context.Context, orgID, id string) (bool, error) {
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok || e.OrganizationID != orgID {
		return false, nil
	}
	delete(f.events, id)
	return true, nil
}

func (f *fakeCalendar) overlapping(q domain.ConflictQuery) []*domain.Event {
	candidate := scheduler.Interval{Start: q.StartTime, End: q.EndTime}
	var out []*domain.Event
	for _, e := range f.events {
		if e.OrganizationID != q.OrganizationID || e.Status == domain.EventStatusCanceled {
			continue
		}
		if q.ExcludeEventID != nil && e.ID == *q.ExcludeEventID {
			continue
		}
		if scheduler.Overlaps(scheduler.Interval{Start: e.StartTime, End: e.EndTime}, candidate) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

func conflictFor(e *domain.Event, reason domain.ConflictReason, identifier string) domain.Conflict {
	return domain.Conflict{
		ID:                 e.ID,
		Title:              e.Title,
		StartTime:          e.StartTime,
		EndTime:            e.EndTime,
		EventType:          e.EventType,
		ConflictReason:     reason,
		ConflictIdentifier: identifier,
	}
}

func (f *fakeCalendar) ByResources(ctx context.Context, q domain.ConflictQuery) ([]domain.Conflict, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Conflict
	for _, e := range f.overlapping(q) {
		for _, link := range e.Resources {
			if slices.Contains(q.ResourceIDs, link.ResourceID) {
				out = append(out, conflictFor(e, domain.ConflictReasonResource, link.ResourceID))
			}
		}
	}
	return out, nil
}

func (f *fakeCalendar) ByTeams(ctx context.Context, q domain.ConflictQuery) ([]domain.Conflict, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Conflict
	for _, e := range f.overlapping(q) {
		for _, team := range e.TeamIDs {
			if slices.Contains(q.TeamIDs, team) {
				out = append(out, conflictFor(e, domain.ConflictReasonTeam, team))
			}
		}
	}
	return out, nil
}

func (f *fakeCalendar) ByLocation(ctx context.Context, q domain.ConflictQuery) ([]domain.Conflict, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Conflict
	for _, e := range f.overlapping(q) {
		if e.LocationID != nil && q.LocationID != nil && *e.LocationID == *q.LocationID {
			out = append(out, conflictFor(e, domain.ConflictReasonLocation, *e.LocationID))
		}
	}
	return out, nil
}

func (f *fakeCalendar) Events() domain.EventRepository       { return f }
func (f *fakeCalendar) Conflicts() domain.ConflictRepository { return f }

func (f *fakeCalendar) InBookingTx(ctx context.Context, lockKeys []string, fn func(ctx context.Context, scope domain.BookingScope) error) error {
	f.mu.Lock()
	keys := slices.Clone(lockKeys)
	slices.Sort(keys)
	f.locks = append(f.locks, slices.Compact(keys))
	f.txCalls++
	f.mu.Unlock()
	if f.beforeTx != nil {
		f.beforeTx()
	}
	return fn(ctx, f)
}

// fakeResourceRepo is an in-memory ResourceRepository for tests.
type fakeResourceRepo struct {
	byID      map[string]*domain.Resource
	deleteErr error
}

func newFakeResourceRepo(resources ...*domain.Resource) *fakeResourceRepo {
	f := &fakeResourceRepo{byID: make(map[string]*domain.Resource)}
	for _, r := range resources {
		f.byID[r.ID] = r
	}
	return f
}

func (f *fakeResourceRepo) Create(ctx context.Context, res *domain.Resource) error {
	res.ID = domain.NewID()
	f.byID[res.ID] = res
	return nil
}

func (f *fakeResourceRepo) GetByID(ctx context.Context, orgID, id string) (*domain.Resource, error) {
	if r, ok := f.byID[id]; ok && r.OrganizationID == orgID {
		return r, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeResourceRepo) GetByIDs(ctx context.Context, orgID string, ids []string) ([]*domain.Resource, error) {
	var out []*domain.Resource
	for _, id := range ids {
		if r, ok := f.byID[id]; ok && r.OrganizationID == orgID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeResourceRepo) List(ctx context.Context, orgID string, params domain.PaginationParams) ([]*domain.Resource, int, error) {
	var out []*domain.Resource
	for _, r := range f.byID {
		if r.OrganizationID == orgID {
			out = append(out, r)
		}
	}
	return out, len(out), nil
}

func (f *fakeResourceRepo) SetBookable(ctx context.Context, orgID, id string, bookable bool) (*domain.Resource, error) {
	r, err := f.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	r.IsBookable = bookable
	return r, nil
}

func (f *fakeResourceRepo) Delete(ctx context.Context, orgID, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, err := f.GetByID(ctx, orgID, id); err != nil {
		return err
	}
	delete(f.byID, id)
	return nil
}

// fakeLocationRepo is an in-memory LocationRepository for tests.
type fakeLocationRepo struct {
	byID      map[string]*domain.Location
	deleteErr error
}

func newFakeLocationRepo(locs ...*domain.Location) *fakeLocationRepo {
	f := &fakeLocationRepo{byID: make(map[string]*domain.Location)}
	for _, l := range locs {
		f.byID[l.ID] = l
	}
	return f
}

func (f *fakeLocationRepo) Create(ctx context.Context, loc *domain.Location) error {
	loc.ID = domain.NewID()
	f.byID[loc.ID] = loc
	return nil
}

func (f *fakeLocationRepo) GetByID(ctx context.Context, orgID, id string) (*domain.Location, error) {
	if l, ok := f.byID[id]; ok && l.OrganizationID == orgID {
		return l, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeLocationRepo) List(ctx context.Context, orgID string, params domain.PaginationParams) ([]*domain.Location, int, error) {
	var out []*domain.Location
	for _, l := range f.byID {
		if l.OrganizationID == orgID {
			out = append(out, l)
		}
	}
	return out, len(out), nil
}

func (f *fakeLocationRepo) Delete(ctx context.Context, orgID, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, err := f.GetByID(ctx, orgID, id); err != nil {
		return err
	}
	delete(f.byID, id)
	return nil
}

// fakeResourceTypeRepo is an in-memory ResourceTypeRepository for tests.
type fakeResourceTypeRepo struct {
	byID map[string]*domain.ResourceType
}

func newFakeResourceTypeRepo(types ...*domain.ResourceType) *fakeResourceTypeRepo {
	f := &fakeResourceTypeRepo{byID: make(map[string]*domain.ResourceType)}
	for _, t := range types {
		f.byID[t.ID] = t
	}
	return f
}

func (f *fakeResourceTypeRepo) Create(ctx context.Context, rt *domain.ResourceType) error {
	for _, t := range f.byID {
		if t.OrganizationID == rt.OrganizationID && t.Name == rt.Name {
			return domain.ErrDuplicate
		}
	}
	rt.ID = domain.NewID()
	f.byID[rt.ID] = rt
	return nil
}

func (f *fakeResourceTypeRepo) EnsureByName(ctx context.Context, orgID, name string) (*domain.ResourceType, error) {
	for _, t := range f.byID {
		if t.OrganizationID == orgID && t.Name == name {
			return t, nil
		}
	}
	rt := &domain.ResourceType{OrganizationID: orgID, Name: name}
	return rt, f.Create(ctx, rt)
}

func (f *fakeResourceTypeRepo) GetByID(ctx context.Context, orgID, id string) (*domain.ResourceType, error) {
	if t, ok := f.byID[id]; ok && t.OrganizationID == orgID {
		return t, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeResourceTypeRepo) List(ctx context.Context, orgID string) ([]*domain.ResourceType, error) {
	var out []*domain.ResourceType
	for _, t := range f.byID {
		if t.OrganizationID == orgID {
			out = append(out, t)
		}
	}
	return out, nil
}

// fakeAttendeeRepo is an in-memory AttendeeRepository keyed by event and user.
type fakeAttendeeRepo struct {
	rows map[[2]string]*domain.EventAttendee
}

func newFakeAttendeeRepo() *fakeAttendeeRepo {
	return &fakeAttendeeRepo{rows: make(map[[2]string]*domain.EventAttendee)}
}

func (f *fakeAttendeeRepo) Add(ctx context.Context, a *domain.EventAttendee) error {
	key := [2]string{a.EventID, a.UserID}
	if _, ok := f.rows[key]; ok {
		return domain.ErrDuplicate
	}
	c := *a
	f.rows[key] = &c
	return nil
}

func (f *fakeAttendeeRepo) UpdateStatus(ctx context.Context, a *domain.EventAttendee) error {
	row, ok := f.rows[[2]string{a.EventID, a.UserID}]
	if !ok {
		return domain.ErrNotFound
	}
	row.Status = a.Status
	row.AbsenceReason = a.AbsenceReason
	row.UpdatedAt = a.UpdatedAt
	a.CreatedAt = row.CreatedAt
	return nil
}

func (f *fakeAttendeeRepo) Remove(ctx context.Context, eventID, userID string) (bool, error) {
	key := [2]string{eventID, userID}
	if _, ok := f.rows[key]; !ok {
		return false, nil
	}
	delete(f.rows, key)
	return true, nil
}

func (f *fakeAttendeeRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.EventAttendee, error) {
	out := make([]*domain.EventAttendee, 0)
	for key, row := range f.rows {
		if key[0] == eventID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// fakeDirectory knows a fixed set of users and teams.
type fakeDirectory struct {
	users  map[string]string
	teams  map[string]bool
	lookup error
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{users: make(map[string]string), teams: make(map[string]bool)}
}

func (f *fakeDirectory) UserExists(ctx context.Context, orgID, userID string) (bool, error) {
	if f.lookup != nil {
		return false, f.lookup
	}
	_, ok := f.users[userID]
	return ok, nil
}

func (f *fakeDirectory) TeamExists(ctx context.Context, orgID, teamID string) (bool, error) {
	if f.lookup != nil {
		return false, f.lookup
	}
	return f.teams[teamID], nil
}

func (f *fakeDirectory) UserEmail(ctx context.Context, userID string) (string, error) {
	email, ok := f.users[userID]
	if !ok || email == "" {
		return "", domain.ErrNotFound
	}
	return email, nil
}

// fakePublisher records notifications.
type fakePublisher struct {
	published []domain.EventNotification
	err       error
}

func (f *fakePublisher) Publish(ctx context.Context, n domain.EventNotification) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, n)
	return nil
}

func (f *fakePublisher) kinds() []string {
	out := make([]string, 0, len(f.published))
	for _, n := range f.published {
		out = append(out, n.Kind)
	}
	return out
}

// fakeEmailService records invitations.
type fakeEmailService struct {
	sent []*domain.ParticipantInvitationData
	err  error
}

func (f *fakeEmailService) SendParticipantInvitation(ctx context.Context, data *domain.ParticipantInvitationData) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, data)
	return nil
}

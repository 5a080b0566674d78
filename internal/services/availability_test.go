package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamcalendar/internal/domain"
)

type availabilityFixture struct {
	svc      domain.AvailabilityService
	cal      *fakeCalendar
	orgID    string
	rinkA    string
	rinkB    string
	disabled string
}

func newAvailabilityFixture(t *testing.T) *availabilityFixture {
	t.Helper()
	f := &availabilityFixture{
		cal:      newFakeCalendar(),
		orgID:    domain.NewID(),
		rinkA:    domain.NewID(),
		rinkB:    domain.NewID(),
		disabled: domain.NewID(),
	}
	resources := newFakeResourceRepo(
		&domain.Resource{ID: f.rinkA, OrganizationID: f.orgID, Name: "Rink A", IsBookable: true},
		&domain.Resource{ID: f.rinkB, OrganizationID: f.orgID, Name: "Rink B", IsBookable: true},
		&domain.Resource{ID: f.disabled, OrganizationID: f.orgID, Name: "Closed rink", IsBookable: false},
	)
	f.svc = NewAvailabilityService(resources, NewConflictDetector(f.cal), 5*time.Second)
	return f
}

func (f *availabilityFixture) book(start, end time.Time, resourceIDs ...string) *domain.Event {
	return f.cal.seed(&domain.Event{
		OrganizationID: f.orgID,
		Title:          "booking",
		EventType:      domain.EventTypeIceTraining,
		StartTime:      start,
		EndTime:        end,
	}, resourceIDs...)
}

func TestAvailabilityService_ResourceAvailability(t *testing.T) {
	f := newAvailabilityFixture(t)
	ctx := context.Background()
	booked := f.book(at(10, 0), at(11, 0), f.rinkA)

	got, err := f.svc.ResourceAvailability(ctx, f.orgID, f.rinkA, at(10, 30), at(12, 0))
	require.NoError(t, err)
	assert.False(t, got.Available)
	require.Len(t, got.Conflicts, 1)
	assert.Equal(t, booked.ID, got.Conflicts[0].ID)

	got, err = f.svc.ResourceAvailability(ctx, f.orgID, f.rinkA, at(11, 0), at(12, 0))
	require.NoError(t, err)
	assert.True(t, got.Available)
	assert.Empty(t, got.Conflicts)

	got, err = f.svc.ResourceAvailability(ctx, f.orgID, f.rinkB, at(10, 0), at(11, 0))
	require.NoError(t, err)
	assert.True(t, got.Available)
}

func TestAvailabilityService_ResourceAvailability_Errors(t *testing.T) {
	f := newAvailabilityFixture(t)
	ctx := context.Background()

	_, err := f.svc.ResourceAvailability(ctx, f.orgID, f.disabled, at(10, 0), at(11, 0))
	assert.True(t, errors.Is(err, domain.ErrNotFound), "non-bookable resources are hidden")

	_, err = f.svc.ResourceAvailability(ctx, f.orgID, domain.NewID(), at(10, 0), at(11, 0))
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = f.svc.ResourceAvailability(ctx, f.orgID, f.rinkA, at(11, 0), at(10, 0))
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = f.svc.ResourceAvailability(ctx, f.orgID, "rink-a", at(10, 0), at(11, 0))
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestAvailabilityService_BulkAvailability(t *testing.T) {
	f := newAvailabilityFixture(t)
	f.book(at(10, 0), at(11, 0), f.rinkA)

	got, err := f.svc.BulkAvailability(context.Background(), f.orgID, []string{f.rinkA, f.rinkB}, at(10, 0), at(11, 0), 0)
	require.NoError(t, err)
	assert.Equal(t, []domain.ResourceAvailabilityEntry{
		{ID: f.rinkA, Available: false},
		{ID: f.rinkB, Available: true},
	}, got.Resources)
	assert.Nil(t, got.Slots)
}

func TestAvailabilityService_BulkAvailability_Slots(t *testing.T) {
	f := newAvailabilityFixture(t)
	f.book(at(10, 20), at(10, 40), f.rinkA)

	got, err := f.svc.BulkAvailability(context.Background(), f.orgID, []string{f.rinkA, f.rinkB}, at(10, 0), at(11, 0), 20)
	require.NoError(t, err)
	require.Len(t, got.Slots, 3)

	assert.Equal(t, at(10, 0), got.Slots[0].Start)
	assert.Equal(t, at(10, 20), got.Slots[0].End)
	assert.Empty(t, got.Slots[0].UnavailableResourceIDs, "booking starts exactly at the slot end")
	assert.Equal(t, []string{f.rinkA}, got.Slots[1].UnavailableResourceIDs)
	assert.Empty(t, got.Slots[2].UnavailableResourceIDs, "booking ends exactly at the slot start")
	assert.NotNil(t, got.Slots[2].UnavailableResourceIDs)
}

func TestAvailabilityService_BulkAvailability_LastSlotIsClipped(t *testing.T) {
	f := newAvailabilityFixture(t)

	got, err := f.svc.BulkAvailability(context.Background(), f.orgID, []string{f.rinkA}, at(10, 0), at(10, 50), 20)
	require.NoError(t, err)
	require.Len(t, got.Slots, 3)
	assert.Equal(t, at(10, 40), got.Slots[2].Start)
	assert.Equal(t, at(10, 50), got.Slots[2].End)
}

func TestAvailabilityService_BulkAvailability_Errors(t *testing.T) {
	f := newAvailabilityFixture(t)
	ctx := context.Background()
	missing := domain.NewID()

	_, err := f.svc.BulkAvailability(ctx, f.orgID, []string{f.rinkA, missing, f.disabled}, at(10, 0), at(11, 0), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.Contains(t, err.Error(), missing)
	assert.Contains(t, err.Error(), f.disabled)
	assert.NotContains(t, err.Error(), f.rinkA)

	tests := []struct {
		name        string
		ids         []string
		start, end  time.Time
		granularity int
	}{
		{name: "no ids", ids: nil, start: at(10, 0), end: at(11, 0)},
		{name: "negative granularity", ids: []string{f.rinkA}, start: at(10, 0), end: at(11, 0), granularity: -5},
		{name: "empty window", ids: []string{f.rinkA}, start: at(10, 0), end: at(10, 0)},
		{name: "too many slots", ids: []string{f.rinkA}, start: at(0, 0), end: at(0, 0).Add(8 * 24 * time.Hour), granularity: 5},
		{name: "bad id", ids: []string{"rink"}, start: at(10, 0), end: at(11, 0)},
		{name: "window beyond a year", ids: []string{f.rinkA}, start: at(0, 0), end: at(0, 0).Add(367 * 24 * time.Hour)},
		{name: "granularity beyond a year", ids: []string{f.rinkA}, start: at(10, 0), end: at(11, 0), granularity: 9007199254741012},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.BulkAvailability(ctx, f.orgID, tt.ids, tt.start, tt.end, tt.granularity)
			assert.True(t, errors.Is(err, domain.ErrInvalidInput))
		})
	}
}

func TestAvailabilityService_RejectsUnmeasurableWindow(t *testing.T) {
	f := newAvailabilityFixture(t)
	ctx := context.Background()
	first := time.Date(1, 1, 1, 0, 0, 1, 0, time.UTC)
	last := time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)

	_, err := f.svc.BulkAvailability(ctx, f.orgID, []string{f.rinkA}, first, last, 1)
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.ResourceAvailability(ctx, f.orgID, f.rinkA, first, last)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAvailabilityService_BulkAvailability_StepLongerThanWindow(t *testing.T) {
	f := newAvailabilityFixture(t)

	got, err := f.svc.BulkAvailability(context.Background(), f.orgID, []string{f.rinkA}, at(10, 0), at(11, 0), 120)
	require.NoError(t, err)
	require.Len(t, got.Slots, 1)
	assert.Equal(t, at(10, 0), got.Slots[0].Start)
	assert.Equal(t, at(11, 0), got.Slots[0].End)
}

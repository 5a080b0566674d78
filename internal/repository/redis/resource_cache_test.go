package redis

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teamcalendar/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

const (
	orgID  = "5d3c8f7e-2b1a-4c9d-8e6f-1a2b3c4d5e6f"
	rinkA  = "1c2d3e4f-5a6b-4c7d-8e9f-0a1b2c3d4e5f"
	rinkB  = "2d3e4f5a-6b7c-4d8e-9f0a-1b2c3d4e5f60"
	arena  = "3e4f5a6b-7c8d-4e9f-8a1b-2c3d4e5f6071"
	ttl    = 5 * time.Minute
	byIDOp = "GetByID"
)

// stubRepo counts calls that reach the database layer.
type stubRepo struct {
	byID  map[string]*domain.Resource
	calls map[string]int
}

func newStubRepo(resources ...*domain.Resource) *stubRepo {
	s := &stubRepo{byID: make(map[string]*domain.Resource), calls: make(map[string]int)}
	for _, r := range resources {
		s.byID[r.ID] = r
	}
	return s
}

func (s *stubRepo) Create(ctx context.Context, res *domain.Resource) error {
	s.calls["Create"]++
	return nil
}

func (s *stubRepo) GetByID(ctx context.Context, orgID, id string) (*domain.Resource, error) {
	s.calls[byIDOp]++
	if r, ok := s.byID[id]; ok {
		return r, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubRepo) GetByIDs(ctx context.Context, orgID string, ids []string) ([]*domain.Resource, error) {
	s.calls["GetByIDs"]++
	var out []*domain.Resource
	for _, id := range ids {
		if r, ok := s.byID[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubRepo) List(ctx context.Context, orgID string, params domain.PaginationParams) ([]*domain.Resource, int, error) {
	return nil, 0, nil
}

func (s *stubRepo) SetBookable(ctx context.Context, orgID, id string, bookable bool) (*domain.Resource, error) {
	r, err := s.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	r.IsBookable = bookable
	return r, nil
}

func (s *stubRepo) Delete(ctx context.Context, orgID, id string) error {
	s.calls["Delete"]++
	return nil
}

func resource(id, name string) *domain.Resource {
	return &domain.Resource{
		ID:             id,
		OrganizationID: orgID,
		LocationID:     arena,
		Name:           name,
		IsBookable:     true,
		CreatedAt:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func encode(t *testing.T, r *domain.Resource) []byte {
	t.Helper()
	data, err := json.Marshal(r)
	require.NoError(t, err)
	return data
}

func TestResourceCache_GetByID_ReadThrough(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	res := resource(rinkA, "Rink A")
	repo := newStubRepo(res)
	cache := NewResourceCache(repo, client, ttl, testLogger)
	key := resourceKey(orgID, rinkA)
	data := encode(t, res)

	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, data, ttl).SetVal("OK")
	mock.ExpectSAdd(locationKey(orgID, arena), rinkA).SetVal(1)
	mock.ExpectExpire(locationKey(orgID, arena), ttl).SetVal(true)
	mock.ExpectGet(key).SetVal(string(data))

	first, err := cache.GetByID(ctx, orgID, rinkA)
	require.NoError(t, err)
	second, err := cache.GetByID(ctx, orgID, rinkA)
	require.NoError(t, err)

	assert.Equal(t, res, first)
	assert.Equal(t, res.Name, second.Name)
	assert.Equal(t, 1, repo.calls[byIDOp])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceCache_GetByID_RedisDownFallsBack(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	res := resource(rinkA, "Rink A")
	repo := newStubRepo(res)
	cache := NewResourceCache(repo, client, ttl, testLogger)
	key := resourceKey(orgID, rinkA)

	mock.ExpectGet(key).SetErr(errors.New("connection refused"))
	mock.ExpectSet(key, encode(t, res), ttl).SetErr(errors.New("connection refused"))

	got, err := cache.GetByID(ctx, orgID, rinkA)
	require.NoError(t, err)
	assert.Equal(t, rinkA, got.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceCache_GetByID_NotFoundIsNotCached(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	cache := NewResourceCache(newStubRepo(), client, ttl, testLogger)

	mock.ExpectGet(resourceKey(orgID, rinkB)).RedisNil()

	_, err := cache.GetByID(ctx, orgID, rinkB)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceCache_GetByIDs_LoadsOnlyMisses(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	a, b := resource(rinkA, "Rink A"), resource(rinkB, "Rink B")
	repo := newStubRepo(a, b)
	cache := NewResourceCache(repo, client, ttl, testLogger)

	mock.ExpectMGet(resourceKey(orgID, rinkA), resourceKey(orgID, rinkB)).
		SetVal([]interface{}{string(encode(t, a)), nil})
	mock.ExpectSet(resourceKey(orgID, rinkB), encode(t, b), ttl).SetVal("OK")
	mock.ExpectSAdd(locationKey(orgID, arena), rinkB).SetVal(1)
	mock.ExpectExpire(locationKey(orgID, arena), ttl).SetVal(true)

	got, err := cache.GetByIDs(ctx, orgID, []string{rinkA, rinkB})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, rinkA, got[0].ID)
	assert.Equal(t, rinkB, got[1].ID)
	assert.Equal(t, 1, repo.calls["GetByIDs"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceCache_WritesInvalidate(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	repo := newStubRepo(resource(rinkA, "Rink A"))
	cache := NewResourceCache(repo, client, ttl, testLogger)
	key := resourceKey(orgID, rinkA)

	mock.ExpectDel(key).SetVal(1)
	mock.ExpectDel(key).SetVal(0)

	res, err := cache.SetBookable(ctx, orgID, rinkA, false)
	require.NoError(t, err)
	assert.False(t, res.IsBookable)
	require.NoError(t, cache.Delete(ctx, orgID, rinkA))
	assert.Equal(t, 1, repo.calls["Delete"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceCache_EvictLocation(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	cache := NewResourceCache(newStubRepo(), client, ttl, testLogger)
	idx := locationKey(orgID, arena)

	mock.ExpectSMembers(idx).SetVal([]string{rinkA, rinkB})
	mock.ExpectDel(resourceKey(orgID, rinkA), resourceKey(orgID, rinkB), idx).SetVal(3)

	cache.EvictLocation(ctx, orgID, arena)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceCache_EvictedResourceIsReloaded(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	// The database no longer has the resource: the location delete cascaded to it.
	cache := NewResourceCache(newStubRepo(), client, ttl, testLogger)
	idx := locationKey(orgID, arena)
	key := resourceKey(orgID, rinkA)

	mock.ExpectSMembers(idx).SetVal([]string{rinkA})
	mock.ExpectDel(key, idx).SetVal(2)
	mock.ExpectGet(key).RedisNil()

	cache.EvictLocation(ctx, orgID, arena)
	_, err := cache.GetByID(ctx, orgID, rinkA)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceCache_EvictLocation_IndexReadFails(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewResourceCache(newStubRepo(), client, ttl, testLogger)

	mock.ExpectSMembers(locationKey(orgID, arena)).SetErr(errors.New("connection refused"))

	cache.EvictLocation(context.Background(), orgID, arena)
	require.NoError(t, mock.ExpectationsWereMet())
}

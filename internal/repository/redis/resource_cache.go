package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"teamcalendar/internal/domain"
	"teamcalendar/internal/lib/logger/sl"
)

// ResourceCache is a read-through cache in front of a ResourceRepository. Availability checks
// look resources up on every request; writes through this type invalidate the cached copy.
type ResourceCache struct {
	next   domain.ResourceRepository
	client redis.Cmdable
	ttl    time.Duration
	log    *slog.Logger
}

var _ domain.LocationEvictor = (*ResourceCache)(nil)

// NewResourceCache wraps next. Cache failures are logged and fall back to next.
func NewResourceCache(next domain.ResourceRepository, client redis.Cmdable, ttl time.Duration, log *slog.Logger) *ResourceCache {
	return &ResourceCache{next: next, client: client, ttl: ttl, log: log}
}

// NewClient builds the go-redis client used by the cache.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func resourceKey(orgID, id string) string {
	return fmt.Sprintf("resource:%s:%s", orgID, id)
}

// locationKey indexes the cached resource ids of one location.
func locationKey(orgID, locationID string) string {
	return fmt.Sprintf("location:%s:%s:resources", orgID, locationID)
}

func (c *ResourceCache) Create(ctx context.Context, res *domain.Resource) error {
	return c.next.Create(ctx, res)
}

func (c *ResourceCache) GetByID(ctx context.Context, orgID, id string) (*domain.Resource, error) {
	const op = "redis.ResourceCache.GetByID"

	data, err := c.client.Get(ctx, resourceKey(orgID, id)).Bytes()
	if err == nil {
		var res domain.Resource
		if err := json.Unmarshal(data, &res); err == nil {
			return &res, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		c.log.Warn("resource cache read failed", slog.String("op", op), sl.Err(err))
	}

	res, err := c.next.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, res)
	return res, nil
}

func (c *ResourceCache) GetByIDs(ctx context.Context, orgID string, ids []string) ([]*domain.Resource, error) {
	const op = "redis.ResourceCache.GetByIDs"

	if len(ids) == 0 {
		return []*domain.Resource{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = resourceKey(orgID, id)
	}
	found := make([]*domain.Resource, 0, len(ids))
	var missing []string
	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		c.log.Warn("resource cache read failed", slog.String("op", op), sl.Err(err))
		missing = ids
	} else {
		for i, v := range values {
			s, ok := v.(string)
			if !ok {
				missing = append(missing, ids[i])
				continue
			}
			var res domain.Resource
			if err := json.Unmarshal([]byte(s), &res); err != nil {
				missing = append(missing, ids[i])
				continue
			}
			found = append(found, &res)
		}
	}
	if len(missing) == 0 {
		return found, nil
	}
	loaded, err := c.next.GetByIDs(ctx, orgID, missing)
	if err != nil {
		return nil, err
	}
	for _, res := range loaded {
		c.store(ctx, res)
	}
	return append(found, loaded...), nil
}

func (c *ResourceCache) List(ctx context.Context, orgID string, params domain.PaginationParams) ([]*domain.Resource, int, error) {
	return c.next.List(ctx, orgID, params)
}

func (c *ResourceCache) SetBookable(ctx context.Context, orgID, id string, bookable bool) (*domain.Resource, error) {
	res, err := c.next.SetBookable(ctx, orgID, id, bookable)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, orgID, id)
	return res, nil
}

func (c *ResourceCache) Delete(ctx context.Context, orgID, id string) error {
	if err := c.next.Delete(ctx, orgID, id); err != nil {
		return err
	}
	c.invalidate(ctx, orgID, id)
	return nil
}

func (c *ResourceCache) store(ctx context.Context, res *domain.Resource) {
	data, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, resourceKey(res.OrganizationID, res.ID), data, c.ttl).Err(); err != nil {
		c.log.Warn("resource cache write failed", slog.String("resource_id", res.ID), sl.Err(err))
		return
	}
	if res.LocationID == "" {
		return
	}
	// Refreshed with the entry's ttl, so the index never expires before one of its members.
	idx := locationKey(res.OrganizationID, res.LocationID)
	if err := c.client.SAdd(ctx, idx, res.ID).Err(); err != nil {
		c.log.Warn("resource cache index write failed", slog.String("location_id", res.LocationID), sl.Err(err))
		return
	}
	if err := c.client.Expire(ctx, idx, c.ttl).Err(); err != nil {
		c.log.Warn("resource cache index write failed", slog.String("location_id", res.LocationID), sl.Err(err))
	}
}

// EvictLocation drops every cached resource of the location along with its index.
func (c *ResourceCache) EvictLocation(ctx context.Context, orgID, locationID string) {
	idx := locationKey(orgID, locationID)
	ids, err := c.client.SMembers(ctx, idx).Result()
	if err != nil {
		c.log.Warn("resource cache index read failed", slog.String("location_id", locationID), sl.Err(err))
		return
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, resourceKey(orgID, id))
	}
	keys = append(keys, idx)
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn("resource cache invalidation failed", slog.String("location_id", locationID), sl.Err(err))
	}
}

func (c *ResourceCache) invalidate(ctx context.Context, orgID, id string) {
	if err := c.client.Del(ctx, resourceKey(orgID, id)).Err(); err != nil {
		c.log.Warn("resource cache invalidation failed", slog.String("resource_id", id), sl.Err(err))
	}
}

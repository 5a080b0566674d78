package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"teamcalendar/internal/domain"
)

type resourceService struct {
	locations      domain.LocationRepository
	resourceTypes  domain.ResourceTypeRepository
	resources      domain.ResourceRepository
	contextTimeout time.Duration
}

func NewResourceService(locations domain.LocationRepository,
	resourceTypes domain.ResourceTypeRepository,
	resources domain.ResourceRepository,
	timeout time.Duration,
) domain.ResourceService {
	return &resourceService{
		locations:      locations,
		resourceTypes:  resourceTypes,
		resources:      resources,
		contextTimeout: timeout,
	}
}

func (s *resourceService) CreateLocation(ctx context.Context, loc *domain.Location) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	loc.Name = strings.TrimSpace(loc.Name)
	problems := checkID("organization_id", loc.OrganizationID)
	if loc.Name == "" {
		problems = append(problems, "name is required")
	}
	if err := domain.NewValidationError(problems...); err != nil {
		return err
	}
	now := time.Now().UTC()
	loc.CreatedAt, loc.UpdatedAt = now, now
	if err := s.locations.Create(ctx, loc); err != nil {
		return fmt.Errorf("create location: %w", err)
	}
	return nil
}

func (s *resourceService) ListLocations(ctx context.Context, orgID string, params domain.PaginationParams) ([]*domain.Location, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := domain.NewValidationError(checkID("organization_id", orgID)...); err != nil {
		return nil, 0, err
	}
	locs, total, err := s.locations.List(ctx, orgID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list locations: %w", err)
	}
	return locs, total, nil
}

// DeleteLocation removes the location and its resources unless an event still points at it.
func (s *resourceService) DeleteLocation(ctx context.Context, orgID, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	problems := append(checkID("organization_id", orgID), checkID("location_id", id)...)
	if err := domain.NewValidationError(problems...); err != nil {
		return err
	}
	if err := s.locations.Delete(ctx, orgID, id); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return fmt.Errorf("%w: location %s", domain.ErrNotFound, id)
		case errors.Is(err, domain.ErrReferenced):
			return &domain.ConflictError{
				Code:    domain.ConflictCodeResourceInUse,
				Message: fmt.Sprintf("location %s is still used by events", id),
			}
		}
		return fmt.Errorf("delete location: %w", err)
	}
	if evictor, ok := s.resources.(domain.LocationEvictor); ok {
		evictor.EvictLocation(ctx, orgID, id)
	}
	return nil
}

func (s *resourceService) CreateResourceType(ctx context.Context, rt *domain.ResourceType) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	rt.Name = strings.TrimSpace(rt.Name)
	problems := checkID("organization_id", rt.OrganizationID)
	if rt.Name == "" {
		problems = append(problems, "name is required")
	}
	if err := domain.NewValidationError(problems...); err != nil {
		return err
	}
	now := time.Now().UTC()
	rt.CreatedAt, rt.UpdatedAt = now, now
	if err := s.resourceTypes.Create(ctx, rt); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return &domain.ConflictError{
				Code:    domain.ConflictCodeDuplicateResourceType,
				Message: fmt.Sprintf("resource type %q already exists", rt.Name),
			}
		}
		return fmt.Errorf("create resource type: %w", err)
	}
	return nil
}

func (s *resourceService) ListResourceTypes(ctx context.Context, orgID string) ([]*domain.ResourceType, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := domain.NewValidationError(checkID("organization_id", orgID)...); err != nil {
		return nil, err
	}
	types, err := s.resourceTypes.List(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list resource types: %w", err)
	}
	return types, nil
}

func (s *resourceService) CreateResource(ctx context.Context, res *domain.Resource) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	res.Name = strings.TrimSpace(res.Name)
	problems := checkID("organization_id", res.OrganizationID)
	problems = append(problems, checkID("resource_type_id", res.ResourceTypeID)...)
	problems = append(problems, checkID("location_id", res.LocationID)...)
	if res.Name == "" {
		problems = append(problems, "name is required")
	}
	if res.Capacity < 0 {
		problems = append(problems, "capacity must not be negative")
	}
	if err := domain.NewValidationError(problems...); err != nil {
		return err
	}
	if _, err := s.resourceTypes.GetByID(ctx, res.OrganizationID, res.ResourceTypeID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: resource type %s", domain.ErrNotFound, res.ResourceTypeID)
		}
		return fmt.Errorf("get resource type: %w", err)
	}
	if _, err := s.locations.GetByID(ctx, res.OrganizationID, res.LocationID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: location %s", domain.ErrNotFound, res.LocationID)
		}
		return fmt.Errorf("get location: %w", err)
	}
	now := time.Now().UTC()
	res.CreatedAt, res.UpdatedAt = now, now
	if err := s.resources.Create(ctx, res); err != nil {
		return fmt.Errorf("create resource: %w", err)
	}
	return nil
}

func (s *resourceService) GetResource(ctx context.Context, orgID, id string) (*domain.Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	problems := append(checkID("organization_id", orgID), checkID("resource_id", id)...)
	if err := domain.NewValidationError(problems...); err != nil {
		return nil, err
	}
	res, err := s.resources.GetByID(ctx, orgID, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: resource %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("get resource: %w", err)
	}
	return res, nil
}

func (s *resourceService) ListResources(ctx context.Context, orgID string, params domain.PaginationParams) ([]*domain.Resource, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := domain.NewValidationError(checkID("organization_id", orgID)...); err != nil {
		return nil, 0, err
	}
	list, total, err := s.resources.List(ctx, orgID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list resources: %w", err)
	}
	return list, total, nil
}

func (s *resourceService) SetResourceBookable(ctx context.Context, orgID, id string, bookable bool) (*domain.Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	problems := append(checkID("organization_id", orgID), checkID("resource_id", id)...)
	if err := domain.NewValidationError(problems...); err != nil {
		return nil, err
	}
	res, err := s.resources.SetBookable(ctx, orgID, id, bookable)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: resource %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("set resource bookable: %w", err)
	}
	return res, nil
}

// DeleteResource refuses to remove a resource that an event still books.
func (s *resourceService) DeleteResource(ctx context.Context, orgID, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	problems := append(checkID("organization_id", orgID), checkID("resource_id", id)...)
	if err := domain.NewValidationError(problems...); err != nil {
		return err
	}
	if err := s.resources.Delete(ctx, orgID, id); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return fmt.Errorf("%w: resource %s", domain.ErrNotFound, id)
		case errors.Is(err, domain.ErrReferenced):
			return &domain.ConflictError{
				Code:    domain.ConflictCodeResourceInUse,
				Message: fmt.Sprintf("resource %s is still booked by events", id),
			}
		}
		return fmt.Errorf("delete resource: %w", err)
	}
	return nil
}

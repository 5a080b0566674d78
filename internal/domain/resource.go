package domain

import (
	"context"
	"time"
)

// Location is a physical place events and resources refer to by id.
// swagger:model Location
type Location struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	Address        *string   `json:"address"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ResourceType is a category of bookable resource, unique per organization by name.
// swagger:model ResourceType
type ResourceType struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Resource is a bookable asset such as an ice rink.
// swagger:model Resource
type Resource struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	ResourceTypeID string    `json:"resource_type_id"`
	LocationID     string    `json:"location_id"`
	Name           string    `json:"name"`
	Capacity       int       `json:"capacity"`
	IsBookable     bool      `json:"is_bookable"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// LocationRepository stores locations.
type LocationRepository interface {
	Create(ctx context.Context, loc *Location) error
	GetByID(ctx context.Context, orgID, id string) (*Location, error)
	List(ctx context.Context, orgID string, params PaginationParams) ([]*Location, int, error)
	// Delete returns ErrReferenced when an event still points at the location.
	Delete(ctx context.Context, orgID, id string) error
}

// ResourceTypeRepository stores resource types.
type ResourceTypeRepository interface {
	// Create returns ErrDuplicate when the name is taken within the organization.
	Create(ctx context.Context, rt *ResourceType) error
	// EnsureByName creates the type if it does not exist yet and returns it either way.
	EnsureByName(ctx context.Context, orgID, name string) (*ResourceType, error)
	GetByID(ctx context.Context, orgID, id string) (*ResourceType, error)
	List(ctx context.Context, orgID string) ([]*ResourceType, error)
}

// ResourceRepository stores resources.
type ResourceRepository interface {
	Create(ctx context.Context, res *Resource) error
	GetByID(ctx context.Context, orgID, id string) (*Resource, error)
	// GetByIDs returns the resources found; missing ids are simply absent from the result.
	GetByIDs(ctx context.Context, orgID string, ids []string) ([]*Resource, error)
	List(ctx context.Context, orgID string, params PaginationParams) ([]*Resource, int, error)
	SetBookable(ctx context.Context, orgID, id string, bookable bool) (*Resource, error)
	// Delete returns ErrReferenced when an event still links the resource.
	Delete(ctx context.Context, orgID, id string) error
}

// LocationEvictor is implemented by resource caches. Deleting a location cascades to its
// resources in the database, so cached copies of those resources must be dropped as well.
type LocationEvictor interface {
	EvictLocation(ctx context.Context, orgID, locationID string)
}

// ResourceService administers locations, resource types and resources.
type ResourceService interface {
	CreateLocation(ctx context.Context, loc *Location) error
	ListLocations(ctx context.Context, orgID string, params PaginationParams) ([]*Location, int, error)
	DeleteLocation(ctx context.Context, orgID, id string) error
	CreateResourceType(ctx context.Context, rt *ResourceType) error
	ListResourceTypes(ctx context.Context, orgID string) ([]*ResourceType, error)
	CreateResource(ctx context.Context, res *Resource) error
	GetResource(ctx context.Context, orgID, id string) (*Resource, error)
	ListResources(ctx context.Context, orgID string, params PaginationParams) ([]*Resource, int, error)
	SetResourceBookable(ctx context.Context, orgID, id string, bookable bool) (*Resource, error)
	DeleteResource(ctx context.Context, orgID, id string) error
}

// Provisioner prepares calendar data for a newly created organization. It must be idempotent.
type Provisioner interface {
	ProvisionOrganization(ctx context.Context, orgID string) error
}

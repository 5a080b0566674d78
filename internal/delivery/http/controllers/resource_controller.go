package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"teamcalendar/internal/delivery/http/helpers"
	"teamcalendar/internal/domain"
)

// CreateLocationRequest is the request body for POST /locations.
type CreateLocationRequest struct {
	Name    string  `json:"name"`
	Address *string `json:"address"`
}

// Validate implements Validator.
func (c CreateLocationRequest) Validate() []string {
	if strings.TrimSpace(c.Name) == "" {
		return []string{"name is required"}
	}
	return nil
}

// CreateResourceTypeRequest is the request body for POST /resource-types.
type CreateResourceTypeRequest struct {
	Name string `json:"name"`
}

// Validate implements Validator.
func (c CreateResourceTypeRequest) Validate() []string {
	if strings.TrimSpace(c.Name) == "" {
		return []string{"name is required"}
	}
	return nil
}

// CreateResourceRequest is the request body for POST /resources. is_bookable defaults to true.
type CreateResourceRequest struct {
	Name           string `json:"name"`
	ResourceTypeID string `json:"resource_type_id"`
	LocationID     string `json:"location_id"`
	Capacity       int    `json:"capacity"`
	IsBookable     *bool  `json:"is_bookable"`
}

// Validate implements Validator.
func (c CreateResourceRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, "name is required")
	}
	if !domain.IsUUID(c.ResourceTypeID) {
		errs = append(errs, "resource_type_id must be a UUID v4")
	}
	if !domain.IsUUID(c.LocationID) {
		errs = append(errs, "location_id must be a UUID v4")
	}
	if c.Capacity < 0 {
		errs = append(errs, "capacity must not be negative")
	}
	return errs
}

// SetBookableRequest is the request body for PATCH /resources/{id}/bookable.
type SetBookableRequest struct {
	IsBookable *bool `json:"is_bookable"`
}

// Validate implements Validator.
func (s SetBookableRequest) Validate() []string {
	if s.IsBookable == nil {
		return []string{"is_bookable is required"}
	}
	return nil
}

// PaginatedResponse is the data object of paginated list endpoints.
type PaginatedResponse struct {
	Items      any                    `json:"items"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

type ResourceController struct {
	Logger  *slog.Logger
	Service domain.ResourceService
}

func NewResourceController(logger *slog.Logger, svc domain.ResourceService) *ResourceController {
	return &ResourceController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateLocation godoc
// @Summary Create a location
// @Tags locations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateLocationRequest true "Location"
// @Success 201 {object} helpers.APIResponse "data contains the location"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /locations [post]
func (c *ResourceController) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var req CreateLocationRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	orgID, ok := organizationID(w, r)
	if !ok {
		return
	}
	loc := &domain.Location{OrganizationID: orgID, Name: req.Name, Address: req.Address}
	if err := c.Service.CreateLocation(r.Context(), loc); err != nil {
		helpers.WriteError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, loc)
}

// ListLocations godoc
// @Summary List locations
// @Tags locations
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains items and pagination"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /locations [get]
func (c *ResourceController) ListLocations(w http.ResponseWriter, r *http.Request) {
	orgID, ok := organizationID(w, r)
	if !ok {
		return
	}
	params := helpers.ParsePagination(r)
	locs, total, err := c.Service.ListLocations(r.Context(), orgID, params)
	if err != nil {
		helpers.WriteError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, PaginatedResponse{
		Items:      locs,
		Pagination: helpers.NewPaginationMeta(params, total),
	})
}

// DeleteLocation godoc
// @Summary Delete a location
// @Description Rejected with 409 while an event or resource still refers to the location.
// @Tags locations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Location ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.ConflictResponse "code: RESOURCE_IN_USE"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /locations/{id} [delete]
func (c *ResourceController) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := helpers.PathUUID(w, r, "id")
	if !ok {
		return
	}
	orgID, ok := organizationID(w, r)
	if !ok {
		return
	}
	if err := c.Service.DeleteLocation(r.Context(), orgID, id); err != nil {
		helpers.WriteError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"id": id})
}

// CreateResourceType godoc
// @Summary Create a resource type
// @Tags resources
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateResourceTypeRequest true "Resource type"
// @Success 201 {object} helpers.APIResponse "data contains the resource type"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.ConflictResponse "code: DUPLICATE_RESOURCE_TYPE"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /resource-types [post]
func (c *ResourceController) CreateResourceType(w http.ResponseWriter, r *http.Request) {
	var req CreateResourceTypeRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	orgID, ok := organizationID(w, r)
	if !ok {
		return
	}
	rt := &domain.ResourceType{OrganizationID: orgID, Name: req.Name}
	if err := c.Service.CreateResourceType(r.Context(), rt); err != nil {
		helpers.WriteError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, rt)
}

// ListResourceTypes godoc
// @Summary List resource types
// @Tags resources
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse "data is an array of resource types"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /resource-types [get]
func (c *ResourceController) ListResourceTypes(w http.ResponseWriter, r *http.Request) {
	orgID, ok := organizationID(w, r)
	if !ok {
		return
	}
	types, err := c.Service.ListResourceTypes(r.Context(), orgID)
	if err != nil {
		helpers.WriteError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, types)
}

// CreateResource godoc
// @Summary Create a resource
// @Tags resources
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateResourceRequest true "Resource"
// @Success 201 {object} helpers.APIResponse "data contains the resource"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (resource type or location)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /resources [post]
func (c *ResourceController) CreateResource(w http.ResponseWriter, r *http.Request) {
	var req CreateResourceRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	orgID, ok := organizationID(w, r)
	if !ok {
		return
	}
	res := &domain.Resource{
		OrganizationID: orgID,
		ResourceTypeID: req.ResourceTypeID,
		LocationID:     req.LocationID,
		Name:           req.Name,
		Capacity:       req.Capacity,
		IsBookable:     req.IsBookable == nil || *req.IsBookable,
	}
	if err := c.Service.CreateResource(r.Context(), res); err != nil {
		helpers.WriteError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, res)
}

// GetResource godoc
// @Summary Get a resource by ID
// @Tags resources
// @Produce json
// @Security BearerAuth
// @Param id path string true "Resource ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains the resource"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /resources/{id} [get]
func (c *ResourceController) GetResource(w http.ResponseWriter, r *http.Request) {
	id, ok := helpers.PathUUID(w, r, "id")
	if !ok {
		return
	}
	orgID, ok := organizationID(w, r)
	if !ok {
		return
	}
	res, err := c.Service.GetResource(r.Context(), orgID, id)
	if err != nil {
		helpers.WriteError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, res)
}

// ListResources godoc
// @Summary List resources
// @Tags resources
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data contains items and pagination"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /resources [get]
func (c *ResourceController) ListResources(w http.ResponseWriter, r *http.Request) {
	orgID, ok := organizationID(w, r)
	if !ok {
		return
	}
	params := helpers.ParsePagination(r)
	resources, total, err := c.Service.ListResources(r.Context(), orgID, params)
	if err != nil {
		helpers.WriteError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, PaginatedResponse{
		Items:      resources,
		Pagination: helpers.NewPaginationMeta(params, total),
	})
}

// SetResourceBookable godoc
// @Summary Toggle whether a resource can be booked
// @Description Non-bookable resources are reported as not found by availability queries.
// @Tags resources
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Resource ID (UUID)"
// @Param body body SetBookableRequest true "Bookable flag"
// @Success 200 {object} helpers.APIResponse "data contains the resource"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /resources/{id}/bookable [patch]
func (c *ResourceController) SetResourceBookable(w http.ResponseWriter, r *http.Request) {
	id, ok := helpers.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var req SetBookableRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	orgID, ok := organizationID(w, r)
	if !ok {
		return
	}
	res, err := c.Service.SetResourceBookable(r.Context(), orgID, id, *req.IsBookable)
	if err != nil {
		helpers.WriteError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, res)
}

// DeleteResource godoc
// @Summary Delete a resource
// @Description Rejected with 409 while an event still books the resource.
// @Tags resources
// @Produce json
// @Security BearerAuth
// @Param id path string true "Resource ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.ConflictResponse "code: RESOURCE_IN_USE"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /resources/{id} [delete]
func (c *ResourceController) DeleteResource(w http.ResponseWriter, r *http.Request) {
	id, ok := helpers.PathUUID(w, r, "id")
	if !ok {
		return
	}
	orgID, ok := organizationID(w, r)
	if !ok {
		return
	}
	if err := c.Service.DeleteResource(r.Context(), orgID, id); err != nil {
		helpers.WriteError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"id": id})
}

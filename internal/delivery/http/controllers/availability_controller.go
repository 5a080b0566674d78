package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	"teamcalendar/internal/delivery/http/helpers"
	"teamcalendar/internal/domain"
)

type AvailabilityController struct {
	Logger  *slog.Logger
	Service domain.AvailabilityService
}

func NewAvailabilityController(logger *slog.Logger, svc domain.AvailabilityService) *AvailabilityController {
	return &AvailabilityController{
		Logger:  logger,
		Service: svc,
	}
}

// ResourceAvailability godoc
// @Summary Check one resource's availability
// @Description Reports whether the resource is free over [start, end) and lists the bookings in the way.
// @Tags availability
// @Produce json
// @Security BearerAuth
// @Param id path string true "Resource ID (UUID)"
// @Param start query string true "Window start (RFC 3339)"
// @Param end query string true "Window end (RFC 3339)"
// @Success 200 {object} domain.ResourceAvailability
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (missing or not bookable)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /resources/{id}/availability [get]
func (c *AvailabilityController) ResourceAvailability(w http.ResponseWriter, r *http.Request) {
	resourceID, ok := helpers.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var errs []string
	start, err := helpers.RequiredQueryTime(r, "start")
	if err != nil {
		errs = append(errs, err.Error())
	}
	end, err := helpers.RequiredQueryTime(r, "end")
	if err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, strings.Join(errs, "; "))
		return
	}
	orgID, ok := organizationID(w, r)
	if !ok {
		return
	}
	result, err := c.Service.ResourceAvailability(r.Context(), orgID, resourceID, start, end)
	if err != nil {
		helpers.WriteError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, result)
}

// BulkAvailability godoc
// @Summary Check several resources at once
// @Description Reports per-resource availability over [start, end). With granularityMinutes the window is also split into consecutive slots, the last one clipped to end, each listing the resources busy in it.
// @Tags availability
// @Produce json
// @Security BearerAuth
// @Param ids query string true "Comma separated resource IDs (UUID)"
// @Param start query string true "Window start (RFC 3339)"
// @Param end query string true "Window end (RFC 3339)"
// @Param granularityMinutes query int false "Slot length in minutes"
// @Success 200 {object} domain.BulkAvailability
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (lists every missing or non-bookable id)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /resources/availability [get]
func (c *AvailabilityController) BulkAvailability(w http.ResponseWriter, r *http.Request) {
	var errs []string
	ids := helpers.QueryList(r, "ids")
	if len(ids) == 0 {
		errs = append(errs, "ids is required")
	}
	for _, id := range ids {
		if !domain.IsUUID(id) {
			errs = append(errs, "ids must contain UUID v4 values only")
			break
		}
	}
	start, err := helpers.RequiredQueryTime(r, "start")
	if err != nil {
		errs = append(errs, err.Error())
	}
	end, err := helpers.RequiredQueryTime(r, "end")
	if err != nil {
		errs = append(errs, err.Error())
	}
	granularity, err := helpers.QueryInt(r, "granularityMinutes", 0)
	if err != nil {
		errs = append(errs, err.Error())
	}
	if len(errs) > 0 {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, strings.Join(errs, "; "))
		return
	}
	orgID, ok := organizationID(w, r)
	if !ok {
		return
	}
	result, err := c.Service.BulkAvailability(r.Context(), orgID, ids, start, end, granularity)
	if err != nil {
		helpers.WriteError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, result)
}

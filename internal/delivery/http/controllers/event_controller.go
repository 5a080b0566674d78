package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"teamcalendar/internal/delivery/http/helpers"
	"teamcalendar/internal/delivery/http/middleware"
	"teamcalendar/internal/domain"
)

// CreateEventRequest is the request body for POST /events.
type CreateEventRequest struct {
	Title             string             `json:"title"`
	Description       *string            `json:"description"`
	EventType         string             `json:"event_type"`
	Status            string             `json:"status"`
	StartTime         *time.Time         `json:"start_time"`
	EndTime           *time.Time         `json:"end_time"`
	AllDay            bool               `json:"all_day"`
	LocationID        *string            `json:"location_id"`
	TeamIDs           []string           `json:"team_ids"`
	ResourceIDs       []string           `json:"resource_ids"`
	Repetition        *domain.Repetition `json:"repetition"`
	TrainingSessionID *string            `json:"training_session_id"`
	GameID            *string            `json:"game_id"`
}

// Validate implements Validator. Format rules for ids and enums are checked by the service.
func (c CreateEventRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Title) == "" {
		errs = append(errs, "title is required")
	}
	if c.EventType == "" {
		errs = append(errs, "event_type is required")
	}
	if c.StartTime == nil {
		errs = append(errs, "start_time is required")
	}
	if c.EndTime == nil {
		errs = append(errs, "end_time is required")
	}
	return errs
}

func (c CreateEventRequest) input(orgID string) domain.CreateEventInput {
	in := domain.CreateEventInput{
		OrganizationID:    orgID,
		Title:             c.Title,
		Description:       c.Description,
		EventType:         domain.EventType(c.EventType),
		Status:            domain.EventStatus(c.Status),
		AllDay:            c.AllDay,
		LocationID:        c.LocationID,
		TeamIDs:           c.TeamIDs,
		ResourceIDs:       c.ResourceIDs,
		Repetition:        c.Repetition,
		TrainingSessionID: c.TrainingSessionID,
		GameID:            c.GameID,
	}
	if c.StartTime != nil {
		in.StartTime = *c.StartTime
	}
	if c.EndTime != nil {
		in.EndTime = *c.EndTime
	}
	return in
}

// UpdateEventRequest is the request body for PUT /events/{id}. Omitted fields are unchanged;
// an empty location_id clears the location and an empty resource_ids array removes every link.
type UpdateEventRequest struct {
	Title             *string            `json:"title"`
	Description       *string            `json:"description"`
	EventType         *string            `json:"event_type"`
	Status            *string            `json:"status"`
	StartTime         *time.Time         `json:"start_time"`
	EndTime           *time.Time         `json:"end_time"`
	AllDay            *bool              `json:"all_day"`
	LocationID        *string            `json:"location_id"`
	TeamIDs           *[]string          `json:"team_ids"`
	ResourceIDs       *[]string          `json:"resource_ids"`
	Repetition        *domain.Repetition `json:"repetition"`
	TrainingSessionID *string            `json:"training_session_id"`
	GameID            *string            `json:"game_id"`
}

func (u UpdateEventRequest) input(orgID, eventID string) domain.UpdateEventInput {
	patch := domain.EventPatch{
		Title:             u.Title,
		Description:       u.Description,
		StartTime:         u.StartTime,
		EndTime:           u.EndTime,
		AllDay:            u.AllDay,
		LocationID:        u.LocationID,
		TeamIDs:           u.TeamIDs,
		Repetition:        u.Repetition,
		TrainingSessionID: u.TrainingSessionID,
		GameID:            u.GameID,
	}
	if u.EventType != nil {
		t := domain.EventType(*u.EventType)
		patch.EventType = &t
	}
	if u.Status != nil {
		s := domain.EventStatus(*u.Status)
		patch.Status = &s
	}
	return domain.UpdateEventInput{
		OrganizationID: orgID,
		EventID:        eventID,
		Patch:          patch,
		ResourceIDs:    u.ResourceIDs,
	}
}

// UpdateEventStatusRequest is the request body for PATCH /events/{id}/status.
type UpdateEventStatusRequest struct {
	Status string `json:"status"`
}

// Validate implements Validator.
func (u UpdateEventStatusRequest) Validate() []string {
	if u.Status == "" {
		return []string{"status is required"}
	}
	return nil
}

// EventSuccessResponse is the success envelope for endpoints returning one event.
type EventSuccessResponse struct {
	Success bool          `json:"success"`
	Data    *domain.Event `json:"data"`
}

// EventListSuccessResponse is the success envelope for GET /events.
type EventListSuccessResponse struct {
	Success bool            `json:"success"`
	Data    []*domain.Event `json:"data"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// organizationID reads the caller's organization set by RequireAuth.
func organizationID(w http.ResponseWriter, r *http.Request) (string, bool) {
	orgID, ok := middleware.OrganizationIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return "", false
	}
	return orgID, true
}

// eventFilter builds the list filter shared by GET /events and GET /events.ics.
func eventFilter(r *http.Request, orgID string) (domain.EventFilter, []string) {
	filter := domain.EventFilter{
		OrganizationID: orgID,
		TeamID:         r.URL.Query().Get("teamId"),
		EventType:      domain.EventType(r.URL.Query().Get("eventType")),
		LocationID:     r.URL.Query().Get("locationId"),
	}
	var errs []string
	start, err := helpers.QueryTime(r, "start")
	if err != nil {
		errs = append(errs, err.Error())
	}
	end, err := helpers.QueryTime(r, "end")
	if err != nil {
		errs = append(errs, err.Error())
	}
	filter.Start, filter.End = start, end
	if filter.TeamID != "" && !domain.IsUUID(filter.TeamID) {
		errs = append(errs, "teamId must be a UUID v4")
	}
	if filter.LocationID != "" && !domain.IsUUID(filter.LocationID) {
		errs = append(errs, "locationId must be a UUID v4")
	}
	return filter, errs
}

// ListEvents godoc
// @Summary List events
// @Description Lists the organization's events ordered by start time. start/end select events overlapping the window; either side may be omitted.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param start query string false "Window start (RFC 3339)"
// @Param end query string false "Window end (RFC 3339)"
// @Param teamId query string false "Team ID (UUID)"
// @Param eventType query string false "Event type"
// @Param locationId query string false "Location ID (UUID)"
// @Success 200 {object} controllers.EventListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	orgID, ok := organizationID(w, r)
	if !ok {
		return
	}
	filter, errs := eventFilter(r, orgID)
	if len(errs) > 0 {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, strings.Join(errs, "; "))
		return
	}
	events, err := c.Service.ListEvents(r.Context(), filter)
	if err != nil {
		helpers.WriteError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, events)
}

// GetEvent godoc
// @Summary Get an event by ID
// @Description Returns the event with its resource links and participants.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID (UUID)"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{id} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "id")
	if !ok {
		return
	}
	orgID, ok := organizationID(w, r)
	if !ok {
		return
	}
	event, err := c.Service.GetEvent(r.Context(), orgID, eventID)
	if err != nil {
		helpers.WriteError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// CreateEvent godoc
// @Summary Create an event
// @Description Books an event against its resources, teams and location. Nothing is written when any of them is already booked in an overlapping window.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body CreateEventRequest true "Event data"
// @Success 201 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (location, resource or team)"
// @Failure 409 {object} helpers.ConflictResponse "code: EVENT_CONFLICT"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	orgID, ok := organizationID(w, r)
	if !ok {
		return
	}
	event, err := c.Service.CreateEvent(r.Context(), req.input(orgID))
	if err != nil {
		helpers.WriteError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Merges the body over the stored event and re-checks conflicts for the merged window, ignoring the event itself.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID (UUID)"
// @Param body body UpdateEventRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.ConflictResponse "code: EVENT_CONFLICT"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{id} [put]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateEventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	orgID, ok := organizationID(w, r)
	if !ok {
		return
	}
	event, err := c.Service.UpdateEvent(r.Context(), req.input(orgID, eventID))
	if err != nil {
		helpers.WriteError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// UpdateEventStatus godoc
// @Summary Change an event's status
// @Description Sets scheduled, canceled or completed. No conflict check is made.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID (UUID)"
// @Param body body UpdateEventStatusRequest true "New status"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{id}/status [patch]
func (c *EventController) UpdateEventStatus(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateEventStatusRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	orgID, ok := organizationID(w, r)
	if !ok {
		return
	}
	event, err := c.Service.UpdateEventStatus(r.Context(), orgID, eventID, domain.EventStatus(req.Status))
	if err != nil {
		helpers.WriteError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// DeleteEvent godoc
// @Summary Delete an event
// @Description Deletes the event together with its resource links and participants.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.ConflictResponse "code: EVENT_REFERENCED"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{id} [delete]
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "id")
	if !ok {
		return
	}
	orgID, ok := organizationID(w, r)
	if !ok {
		return
	}
	if err := c.Service.DeleteEvent(r.Context(), orgID, eventID); err != nil {
		helpers.WriteError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"id": eventID})
}

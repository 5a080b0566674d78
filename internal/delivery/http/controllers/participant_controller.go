package controllers

import (
	"net/http"

	"teamcalendar/internal/delivery/http/helpers"
	"teamcalendar/internal/domain"
)

// AddParticipantRequest is the request body for POST /events/{id}/participants.
type AddParticipantRequest struct {
	UserID        string  `json:"user_id"`
	Status        string  `json:"status"`
	AbsenceReason *string `json:"absence_reason"`
}

// Validate implements Validator.
func (a AddParticipantRequest) Validate() []string {
	var errs []string
	if a.UserID == "" {
		errs = append(errs, "user_id is required")
	} else if !domain.IsUUID(a.UserID) {
		errs = append(errs, "user_id must be a UUID v4")
	}
	return errs
}

// UpdateParticipantRequest is the request body for PUT /events/{id}/participants/{userId}.
type UpdateParticipantRequest struct {
	Status        string  `json:"status"`
	AbsenceReason *string `json:"absence_reason"`
}

// Validate implements Validator.
func (u UpdateParticipantRequest) Validate() []string {
	if u.Status == "" {
		return []string{"status is required"}
	}
	return nil
}

// ParticipantSuccessResponse is the success envelope for endpoints returning one participant.
type ParticipantSuccessResponse struct {
	Success bool                  `json:"success"`
	Data    *domain.EventAttendee `json:"data"`
}

// ParticipantListSuccessResponse is the success envelope for GET /events/{id}/participants.
type ParticipantListSuccessResponse struct {
	Success bool                    `json:"success"`
	Data    []*domain.EventAttendee `json:"data"`
}

// ListParticipants godoc
// @Summary List an event's participants
// @Tags participants
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID (UUID)"
// @Success 200 {object} controllers.ParticipantListSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{id}/participants [get]
func (c *EventController) ListParticipants(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "id")
	if !ok {
		return
	}
	orgID, ok := organizationID(w, r)
	if !ok {
		return
	}
	attendees, err := c.Service.ListParticipants(r.Context(), orgID, eventID)
	if err != nil {
		helpers.WriteError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, attendees)
}

// AddParticipant godoc
// @Summary Add a participant to an event
// @Description Adds a user to the event. Status defaults to invited; the user is emailed an invitation.
// @Tags participants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID (UUID)"
// @Param body body AddParticipantRequest true "Participant"
// @Success 201 {object} controllers.ParticipantSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.ConflictResponse "code: DUPLICATE_PARTICIPANT"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{id}/participants [post]
func (c *EventController) AddParticipant(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var req AddParticipantRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	orgID, ok := organizationID(w, r)
	if !ok {
		return
	}
	attendee, err := c.Service.AddParticipant(r.Context(), domain.AddParticipantInput{
		OrganizationID: orgID,
		EventID:        eventID,
		UserID:         req.UserID,
		Status:         domain.AttendanceStatus(req.Status),
		AbsenceReason:  req.AbsenceReason,
	})
	if err != nil {
		helpers.WriteError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, attendee)
}

// UpdateParticipant godoc
// @Summary Change a participant's attendance
// @Tags participants
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID (UUID)"
// @Param userId path string true "User ID (UUID)"
// @Param body body UpdateParticipantRequest true "Attendance"
// @Success 200 {object} controllers.ParticipantSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{id}/participants/{userId} [put]
func (c *EventController) UpdateParticipant(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := helpers.PathUUID(w, r, "userId")
	if !ok {
		return
	}
	var req UpdateParticipantRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	orgID, ok := organizationID(w, r)
	if !ok {
		return
	}
	attendee, err := c.Service.UpdateParticipant(r.Context(), domain.AddParticipantInput{
		OrganizationID: orgID,
		EventID:        eventID,
		UserID:         userID,
		Status:         domain.AttendanceStatus(req.Status),
		AbsenceReason:  req.AbsenceReason,
	})
	if err != nil {
		helpers.WriteError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, attendee)
}

// RemoveParticipant godoc
// @Summary Remove a participant from an event
// @Tags participants
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID (UUID)"
// @Param userId path string true "User ID (UUID)"
// @Success 200 {object} helpers.APIResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{id}/participants/{userId} [delete]
func (c *EventController) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	eventID, ok := helpers.PathUUID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := helpers.PathUUID(w, r, "userId")
	if !ok {
		return
	}
	orgID, ok := organizationID(w, r)
	if !ok {
		return
	}
	if err := c.Service.RemoveParticipant(r.Context(), orgID, eventID, userID); err != nil {
		helpers.WriteError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, map[string]string{"event_id": eventID, "user_id": userID})
}

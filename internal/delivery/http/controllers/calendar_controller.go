package controllers

import (
	"bytes"
	"net/http"
	"strings"

	"teamcalendar/internal/adapters/ical"
	"teamcalendar/internal/delivery/http/helpers"
)

// ExportCalendar godoc
// @Summary Export events as iCalendar
// @Description Same filters as GET /events, rendered as a text/calendar feed. Repetition rules are emitted as RRULE and not expanded.
// @Tags events
// @Produce text/calendar
// @Security BearerAuth
// @Param start query string false "Window start (RFC 3339)"
// @Param end query string false "Window end (RFC 3339)"
// @Param teamId query string false "Team ID (UUID)"
// @Param eventType query string false "Event type"
// @Param locationId query string false "Location ID (UUID)"
// @Success 200 {string} string "iCalendar feed"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events.ics [get]
func (c *EventController) ExportCalendar(w http.ResponseWriter, r *http.Request) {
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
	var buf bytes.Buffer
	if err := ical.Encode(&buf, events); err != nil {
		helpers.WriteError(w, r, c.Logger, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="events.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

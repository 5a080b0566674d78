package ical

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"

	"teamcalendar/internal/domain"
)

const productID = "-//teamcalendar//EN"

// Encode writes events as one VCALENDAR with a VEVENT per event. Repetition is exported
// as an RRULE frequency only; occurrences are never expanded here.
func Encode(w io.Writer, events []*domain.Event) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)
	stamp := time.Now().UTC()
	for _, e := range events {
		cal.Children = append(cal.Children, toVEvent(e, stamp))
	}
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	return nil
}

func toVEvent(e *domain.Event, stamp time.Time) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, e.ID)
	ve.Props.SetText(ical.PropSummary, e.Title)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
	if e.AllDay {
		ve.Props.SetDate(ical.PropDateTimeStart, e.StartTime)
		ve.Props.SetDate(ical.PropDateTimeEnd, e.EndTime.AddDate(0, 0, 1))
	} else {
		ve.Props.SetDateTime(ical.PropDateTimeStart, e.StartTime.UTC())
		ve.Props.SetDateTime(ical.PropDateTimeEnd, e.EndTime.UTC())
	}
	ve.Props.SetText(ical.PropStatus, statusText(e.Status))
	ve.Props.SetText(ical.PropCategories, string(e.EventType))
	if e.Description != nil && *e.Description != "" {
		ve.Props.SetText(ical.PropDescription, *e.Description)
	}
	if e.LocationID != nil {
		ve.Props.SetText(ical.PropLocation, *e.LocationID)
	}
	if rule := recurrenceRule(e.Repetition); rule != "" {
		p := ical.NewProp(ical.PropRecurrenceRule)
		p.Value = rule
		ve.Props.Set(p)
	}
	return ve
}

func statusText(s domain.EventStatus) string {
	if s == domain.EventStatusCanceled {
		return "CANCELLED"
	}
	return "CONFIRMED"
}

// recurrenceRule maps the opaque repetition kind onto an RRULE when it names a known frequency.
func recurrenceRule(r *domain.Repetition) string {
	if r == nil {
		return ""
	}
	var freq string
	switch strings.ToLower(r.Kind) {
	case "daily":
		freq = "DAILY"
	case "weekly":
		freq = "WEEKLY"
	case "monthly":
		freq = "MONTHLY"
	case "yearly":
		freq = "YEARLY"
	default:
		return ""
	}
	rule := "FREQ=" + freq
	if r.EndDate != nil {
		rule += ";UNTIL=" + r.EndDate.UTC().Format("20060102T150405Z")
	}
	return rule
}

package domain

import (
	"context"
	"time"
)

// Event lifecycle notification kinds.
const (
	EventCreated       = "event.created"
	EventUpdated       = "event.updated"
	EventDeleted       = "event.deleted"
	EventStatusChanged = "event.status_changed"
)

// EventNotification is published after a committed change to an event.
type EventNotification struct {
	Kind           string      `json:"kind"`
	EventID        string      `json:"event_id"`
	OrganizationID string      `json:"organization_id"`
	Status         EventStatus `json:"status,omitempty"`
	StartTime      *time.Time  `json:"start_time,omitempty"`
	EndTime        *time.Time  `json:"end_time,omitempty"`
	ResourceIDs    []string    `json:"resource_ids,omitempty"`
	OccurredAt     time.Time   `json:"occurred_at"`
}

// EventPublisher delivers lifecycle notifications to other services.
type EventPublisher interface {
	Publish(ctx context.Context, n EventNotification) error
}

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(to, subject, html, text string) error
}

// ParticipantInvitationData holds what the invitation email needs.
type ParticipantInvitationData struct {
	Email     string
	Title     string
	EventType EventType
	StartTime time.Time
	EndTime   time.Time
}

// EmailService sends domain-level emails.
type EmailService interface {
	SendParticipantInvitation(ctx context.Context, data *ParticipantInvitationData) error
}

// EmailTemplateRenderer renders a named email template into subject, HTML and text bodies.
type EmailTemplateRenderer interface {
	Render(templateName string, data interface{}) (subject, htmlBody, textBody string, err error)
}

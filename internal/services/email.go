package services

import (
	"context"
	"fmt"
	"log/slog"

	"teamcalendar/internal/domain"
)

const templateParticipantInvitation = "participant_invitation"

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	log      *slog.Logger
}

// NewEmailService renders named templates and hands the result to mailer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, log *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, log: log}
}

func (s *emailService) SendParticipantInvitation(ctx context.Context, data *domain.ParticipantInvitationData) error {
	if data == nil || data.Email == "" {
		return fmt.Errorf("%w: invitation needs a recipient", domain.ErrInvalidInput)
	}
	return s.send(ctx, templateParticipantInvitation, data.Email, data)
}

// send gives up before rendering when ctx is already done; Mailer.Send is not cancellable.
func (s *emailService) send(ctx context.Context, template, to string, data any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("send %s: %w", template, err)
	}
	subject, html, text, err := s.renderer.Render(template, data)
	if err != nil {
		return fmt.Errorf("render %s: %w", template, err)
	}
	if err := s.mailer.Send(to, subject, html, text); err != nil {
		return fmt.Errorf("send %s: %w", template, err)
	}
	s.log.InfoContext(ctx, "email sent", slog.String("template", template), slog.String("to", to))
	return nil
}

package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/plan8/plan8-contacts/internal/domain"
)

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendPartyInvitation sends the "party_invitation" template to data.Email.
func (s *emailService) SendPartyInvitation(ctx context.Context, data *domain.PartyInvitationEmailData) error {
	if data == nil {
		return fmt.Errorf("party invitation data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render("party_invitation", data)
	if err != nil {
		return fmt.Errorf("render party_invitation template: %w", err)
	}
	if err := s.mailer.Send(ctx, data.Email, subject, htmlBody, textBody); err != nil {
		return fmt.Errorf("send party invitation email: %w", err)
	}
	s.logger.InfoContext(ctx, "party invitation sent", "to", data.Email, "party", data.PartyName)
	return nil
}

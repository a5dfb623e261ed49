package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// PartyInvitationEmailData holds data for the party invitation email.
type PartyInvitationEmailData struct {
	Email       string
	FirstName   string
	InviterName string
	PartyName   string
	PartyDate   string
	Location    string
	AttendURL   string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendPartyInvitation(ctx context.Context, data *PartyInvitationEmailData) error
}

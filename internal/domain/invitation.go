package domain

import (
	"context"
	"time"
)

// InvitationStatus is the RSVP or attendance state of an invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationSent     InvitationStatus = "sent"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
	InvitationMaybe    InvitationStatus = "maybe"
	InvitationAttended InvitationStatus = "attended"
)

// InvitationStatuses lists every status in lifecycle order.
var InvitationStatuses = []InvitationStatus{
	InvitationPending,
	InvitationSent,
	InvitationAccepted,
	InvitationDeclined,
	InvitationMaybe,
	InvitationAttended,
}

// ParseInvitationStatus rejects values outside the known set.
func ParseInvitationStatus(s string) (InvitationStatus, error) {
	for _, st := range InvitationStatuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", InvalidInputf("unknown invitation status %q", s)
}

// IsResponse reports whether the status counts as a response from the guest.
func (s InvitationStatus) IsResponse() bool {
	switch s {
	case InvitationAccepted, InvitationDeclined, InvitationMaybe, InvitationAttended:
		return true
	}
	return false
}

// Invitation binds one contact to one party.
// swagger:model Invitation
type Invitation struct {
	ID          string           `json:"id"`
	PartyID     string           `json:"party_id"`
	ContactID   string           `json:"contact_id"`
	InvitedBy   string           `json:"invited_by"`
	Status      InvitationStatus `json:"status"`
	SentAt      *time.Time       `json:"sent_at"`
	RespondedAt *time.Time       `json:"responded_at"`
	Notes       string           `json:"notes"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// InvitationWithParty is an invitation joined with its party.
type InvitationWithParty struct {
	Invitation *Invitation `json:"invitation"`
	Party      *Party      `json:"party"`
}

// PublicAttendInput is the self-registration form submitted from the public party page.
type PublicAttendInput struct {
	PartyID   string
	FirstName string
	LastName  string
	Email     string
}

// PublicAttendResult identifies the contact and invitation a registration resolved to.
type PublicAttendResult struct {
	ContactID      string `json:"contact_id"`
	InvitationID   string `json:"invitation_id"`
	ContactCreated bool   `json:"contact_created"`
}

// SendResult is the outcome of emailing invitations.
type SendResult struct {
	Sent   int      `json:"sent"`
	Failed []string `json:"failed"`
}

// InvitationRepository defines storage operations for invitations.
// Create returns ErrDuplicateInvitation when the (party, contact) pair already exists.
type InvitationRepository interface {
	Create(ctx context.Context, inv *Invitation) error
	GetByID(ctx context.Context, id string) (*Invitation, error)
	GetByPartyAndContact(ctx context.Context, partyID, contactID string) (*Invitation, error)
	ListByParty(ctx context.Context, partyID string) ([]*Invitation, error)
	ListByContact(ctx context.Context, contactID string) ([]*Invitation, error)
	// UpdateStatus persists status, timestamps and notes of inv.
	UpdateStatus(ctx context.Context, inv *Invitation) error
	Delete(ctx context.Context, id string) error
	DeleteByContact(ctx context.Context, contactID string) (int, error)
	DeleteByParty(ctx context.Context, partyID string) (int, error)
}

// InvitationService defines the invitation lifecycle.
type InvitationService interface {
	Create(ctx context.Context, callerID, partyID, contactID, notes string) (*Invitation, error)
	BulkInvite(ctx context.Context, callerID, partyID string, contactIDs []string) ([]string, error)
	UpdateStatus(ctx context.Context, callerID, id string, status InvitationStatus, notes *string) (*Invitation, error)
	BatchUpdateStatus(ctx context.Context, callerID string, ids []string, status InvitationStatus) (int, error)
	Remove(ctx context.Context, callerID, id string) error
	BatchDelete(ctx context.Context, callerID string, ids []string) (int, error)
	GetByContact(ctx context.Context, callerID, contactID string) ([]*InvitationWithParty, error)
	GetByParty(ctx context.Context, callerID, partyID string, status *InvitationStatus, search string) ([]*InvitationWithContact, error)
	PublicAttend(ctx context.Context, in PublicAttendInput) (*PublicAttendResult, error)
	UndoCheckIn(ctx context.Context, callerID, id string) (*Invitation, error)
	SendInvitations(ctx context.Context, callerID, partyID string, invitationIDs []string) (*SendResult, error)
}

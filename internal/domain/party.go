package domain

import (
	"context"
	"time"
)

// PartyStatus is the lifecycle state of a party.
type PartyStatus string

const (
	PartyPlanning  PartyStatus = "planning"
	PartyActive    PartyStatus = "active"
	PartyCompleted PartyStatus = "completed"
	PartyCancelled PartyStatus = "cancelled"
)

// ParsePartyStatus rejects values outside the known set.
func ParsePartyStatus(s string) (PartyStatus, error) {
	switch PartyStatus(s) {
	case PartyPlanning, PartyActive, PartyCompleted, PartyCancelled:
		return PartyStatus(s), nil
	}
	return "", InvalidInputf("unknown party status %q", s)
}

// Party is an event contacts can be invited to.
// swagger:model Party
type Party struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Date        *time.Time  `json:"date"`
	Location    string      `json:"location"`
	Status      PartyStatus `json:"status"`
	CreatedBy   string      `json:"created_by"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// PartyPatch is a partial update; nil fields are left unchanged.
type PartyPatch struct {
	Name        *string      `json:"name"`
	Description *string      `json:"description"`
	Date        *time.Time   `json:"date"`
	Location    *string      `json:"location"`
	Status      *PartyStatus `json:"status"`
}

// PublicParty is the unauthenticated view of a party.
// swagger:model PublicParty
type PublicParty struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Date        *time.Time  `json:"date"`
	Location    string      `json:"location"`
	Status      PartyStatus `json:"status"`
}

// NewPublicParty projects p without internal references.
func NewPublicParty(p *Party) *PublicParty {
	return &PublicParty{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Date:        p.Date,
		Location:    p.Location,
		Status:      p.Status,
	}
}

// UserSummary is the inviting user as shown next to an invitation.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// InvitationWithContact is an invitation joined with its contact and inviter.
type InvitationWithContact struct {
	Invitation *Invitation  `json:"invitation"`
	Contact    *Contact     `json:"contact"`
	InvitedBy  *UserSummary `json:"invited_by"`
}

// PartyWithInvitations is a party with every invitation to it.
type PartyWithInvitations struct {
	Party       *Party                   `json:"party"`
	Invitations []*InvitationWithContact `json:"invitations"`
}

// AttendanceStats counts a party's invitations by status.
type AttendanceStats struct {
	PartyID  string                   `json:"party_id"`
	Total    int                      `json:"total"`
	ByStatus map[InvitationStatus]int `json:"by_status"`
}

// PartyRepository defines storage operations for parties.
type PartyRepository interface {
	Create(ctx context.Context, p *Party) error
	GetByID(ctx context.Context, id string) (*Party, error)
	List(ctx context.Context) ([]*Party, error)
	Update(ctx context.Context, id string, patch PartyPatch) (*Party, error)
	Delete(ctx context.Context, id string) error
}

// PartyService defines party management operations.
type PartyService interface {
	List(ctx context.Context, callerID string) ([]*Party, error)
	Create(ctx context.Context, callerID string, p *Party) error
	Update(ctx context.Context, callerID, id string, patch PartyPatch) (*Party, error)
	Remove(ctx context.Context, callerID, id string) error
	BatchUpdateStatus(ctx context.Context, callerID string, ids []string, status PartyStatus) (int, error)
	GetWithInvitations(ctx context.Context, callerID, id string) (*PartyWithInvitations, error)
	GetPublic(ctx context.Context, id string) (*PublicParty, error)
	GetAttendanceStats(ctx context.Context, callerID, id string) (*AttendanceStats, error)
}

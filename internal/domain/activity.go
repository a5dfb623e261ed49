package domain

import (
	"context"
	"time"
)

// ActivityType names an invitation lifecycle event.
type ActivityType string

const (
	ActivityInvited       ActivityType = "invitation.created"
	ActivityStatusChanged ActivityType = "invitation.status_changed"
	ActivityCheckedIn     ActivityType = "invitation.checked_in"
	ActivityCheckInUndone ActivityType = "invitation.check_in_undone"
)

// ActivityEvent is published after an invitation changes.
type ActivityEvent struct {
	Type         ActivityType     `json:"type"`
	PartyID      string           `json:"party_id"`
	InvitationID string           `json:"invitation_id"`
	ContactID    string           `json:"contact_id"`
	Status       InvitationStatus `json:"status"`
	ActorID      string           `json:"actor_id"`
	OccurredAt   time.Time        `json:"occurred_at"`
}

// ActivityPublisher fans invitation activity out to listeners such as a door check-in screen.
type ActivityPublisher interface {
	Publish(ctx context.Context, ev ActivityEvent) error
}

package services

import (
	"strings"
	"time"

	"github.com/plan8/plan8-contacts/internal/domain"
)

func requireCaller(callerID string) error {
	if strings.TrimSpace(callerID) == "" {
		return domain.ErrUnauthenticated
	}
	return nil
}

// applyStatusTransition moves inv to status. SentAt and RespondedAt are set
// the first time the status enters their class and are never overwritten.
func applyStatusTransition(inv *domain.Invitation, status domain.InvitationStatus, now time.Time) {
	inv.Status = status
	if status == domain.InvitationSent && inv.SentAt == nil {
		t := now
		inv.SentAt = &t
	}
	if status.IsResponse() && inv.RespondedAt == nil {
		t := now
		inv.RespondedAt = &t
	}
	inv.UpdatedAt = now
}

// authorizePartyWrite is the single ownership rule for mutating a party.
func authorizePartyWrite(p *domain.Party, callerID string) error {
	if p.CreatedBy != callerID {
		return domain.ErrForbidden
	}
	return nil
}

func normalizePagination(p domain.PaginationParams) domain.PaginationParams {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = defaultPageSize
	}
	return p
}

const defaultPageSize = 20

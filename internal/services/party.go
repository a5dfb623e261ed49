package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/plan8/plan8-contacts/internal/domain"
)

type partyService struct {
	partyRepo      domain.PartyRepository
	invitationRepo domain.InvitationRepository
	contactRepo    domain.ContactRepository
	userRepo       domain.UserRepository
	contextTimeout time.Duration
}

func NewPartyService(
	partyRepo domain.PartyRepository,
	invitationRepo domain.InvitationRepository,
	contactRepo domain.ContactRepository,
	userRepo domain.UserRepository,
	timeout time.Duration,
) domain.PartyService {
	return &partyService{
		partyRepo:      partyRepo,
		invitationRepo: invitationRepo,
		contactRepo:    contactRepo,
		userRepo:       userRepo,
		contextTimeout: timeout,
	}
}

func (s *partyService) List(ctx context.Context, callerID string) ([]*domain.Party, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	parties, err := s.partyRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list parties: %w", err)
	}
	if parties == nil {
		parties = []*domain.Party{}
	}
	return parties, nil
}

func (s *partyService) Create(ctx context.Context, callerID string, p *domain.Party) error {
	if err := requireCaller(callerID); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if strings.TrimSpace(p.Name) == "" {
		return domain.InvalidInputf("name is required")
	}
	if p.Status == "" {
		p.Status = domain.PartyPlanning
	}
	if _, err := domain.ParsePartyStatus(string(p.Status)); err != nil {
		return err
	}
	now := time.Now()
	p.CreatedBy = callerID
	p.CreatedAt = now
	p.UpdatedAt = now
	if err := s.partyRepo.Create(ctx, p); err != nil {
		return fmt.Errorf("create party: %w", err)
	}
	return nil
}

// getForWrite loads a party and applies the ownership rule.
func (s *partyService) getForWrite(ctx context.Context, callerID, id string) (*domain.Party, error) {
	p, err := s.partyRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get party: %w", err)
	}
	if err := authorizePartyWrite(p, callerID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *partyService) Update(ctx context.Context, callerID, id string, patch domain.PartyPatch) (*domain.Party, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, domain.InvalidInputf("name cannot be empty")
	}
	if patch.Status != nil {
		if _, err := domain.ParsePartyStatus(string(*patch.Status)); err != nil {
			return nil, err
		}
	}
	if _, err := s.getForWrite(ctx, callerID, id); err != nil {
		return nil, err
	}
	updated, err := s.partyRepo.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update party: %w", err)
	}
	return updated, nil
}

func (s *partyService) Remove(ctx context.Context, callerID, id string) error {
	if err := requireCaller(callerID); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.getForWrite(ctx, callerID, id); err != nil {
		return err
	}
	if _, err := s.invitationRepo.DeleteByParty(ctx, id); err != nil {
		return fmt.Errorf("delete party invitations: %w", err)
	}
	if err := s.partyRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete party: %w", err)
	}
	return nil
}

func (s *partyService) BatchUpdateStatus(ctx context.Context, callerID string, ids []string, status domain.PartyStatus) (int, error) {
	if err := requireCaller(callerID); err != nil {
		return 0, err
	}
	if _, err := domain.ParsePartyStatus(string(status)); err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	updated := 0
	var failed []string
	var errs []error
	patch := domain.PartyPatch{Status: &status}
	for _, id := range ids {
		if _, err := s.getForWrite(ctx, callerID, id); err != nil {
			failed = append(failed, id)
			errs = append(errs, fmt.Errorf("party %s: %w", id, err))
			continue
		}
		if _, err := s.partyRepo.Update(ctx, id, patch); err != nil {
			failed = append(failed, id)
			errs = append(errs, fmt.Errorf("party %s: %w", id, err))
			continue
		}
		updated++
	}
	if len(failed) > 0 {
		return updated, &domain.BatchError{Applied: updated, Failed: failed, Err: errors.Join(errs...)}
	}
	return updated, nil
}

func (s *partyService) GetWithInvitations(ctx context.Context, callerID, id string) (*domain.PartyWithInvitations, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	p, err := s.partyRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get party: %w", err)
	}
	invs, err := s.invitationRepo.ListByParty(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	joined, err := joinContacts(ctx, s.contactRepo, invs)
	if err != nil {
		return nil, err
	}
	if err := s.attachInviters(ctx, joined); err != nil {
		return nil, err
	}
	return &domain.PartyWithInvitations{Party: p, Invitations: joined}, nil
}

func (s *partyService) attachInviters(ctx context.Context, joined []*domain.InvitationWithContact) error {
	ids := make([]string, 0, len(joined))
	seen := make(map[string]struct{}, len(joined))
	for _, j := range joined {
		if _, ok := seen[j.Invitation.InvitedBy]; ok {
			continue
		}
		seen[j.Invitation.InvitedBy] = struct{}{}
		ids = append(ids, j.Invitation.InvitedBy)
	}
	if len(ids) == 0 {
		return nil
	}
	users, err := s.userRepo.ListByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("list inviters: %w", err)
	}
	byID := make(map[string]*domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for _, j := range joined {
		if u, ok := byID[j.Invitation.InvitedBy]; ok {
			j.InvitedBy = &domain.UserSummary{ID: u.ID, Name: u.DisplayName(), Email: u.Email}
		}
	}
	return nil
}

// joinContacts pairs each invitation with its contact. Invitations whose
// contact no longer exists are dropped.
func joinContacts(ctx context.Context, contactRepo domain.ContactRepository, invs []*domain.Invitation) ([]*domain.InvitationWithContact, error) {
	out := make([]*domain.InvitationWithContact, 0, len(invs))
	cache := make(map[string]*domain.Contact)
	for _, inv := range invs {
		c, ok := cache[inv.ContactID]
		if !ok {
			var err error
			c, err = contactRepo.GetByID(ctx, inv.ContactID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("get contact: %w", err)
			}
			cache[inv.ContactID] = c
		}
		if c == nil {
			continue
		}
		out = append(out, &domain.InvitationWithContact{Invitation: inv, Contact: c})
	}
	return out, nil
}

func (s *partyService) GetPublic(ctx context.Context, id string) (*domain.PublicParty, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	p, err := s.partyRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get party: %w", err)
	}
	return domain.NewPublicParty(p), nil
}

func (s *partyService) GetAttendanceStats(ctx context.Context, callerID, id string) (*domain.AttendanceStats, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.partyRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get party: %w", err)
	}
	invs, err := s.invitationRepo.ListByParty(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	stats := &domain.AttendanceStats{
		PartyID:  id,
		Total:    len(invs),
		ByStatus: make(map[domain.InvitationStatus]int, len(domain.InvitationStatuses)),
	}
	for _, st := range domain.InvitationStatuses {
		stats.ByStatus[st] = 0
	}
	for _, inv := range invs {
		stats.ByStatus[inv.Status]++
	}
	return stats, nil
}

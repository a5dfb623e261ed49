package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/plan8/plan8-contacts/internal/domain"
)

type invitationService struct {
	invitationRepo domain.InvitationRepository
	partyRepo      domain.PartyRepository
	contactRepo    domain.ContactRepository
	userRepo       domain.UserRepository
	emailService   domain.EmailService
	publisher      domain.ActivityPublisher
	guesser        *CompanyGuesser
	logger         *slog.Logger
	publicBaseURL  string
	contextTimeout time.Duration
}

func NewInvitationService(
	invitationRepo domain.InvitationRepository,
	partyRepo domain.PartyRepository,
	contactRepo domain.ContactRepository,
	userRepo domain.UserRepository,
	emailService domain.EmailService,
	publisher domain.ActivityPublisher,
	guesser *CompanyGuesser,
	logger *slog.Logger,
	publicBaseURL string,
	timeout time.Duration,
) domain.InvitationService {
	return &invitationService{
		invitationRepo: invitationRepo,
		partyRepo:      partyRepo,
		contactRepo:    contactRepo,
		userRepo:       userRepo,
		emailService:   emailService,
		publisher:      publisher,
		guesser:        guesser,
		logger:         logger,
		publicBaseURL:  strings.TrimSuffix(publicBaseURL, "/"),
		contextTimeout: timeout,
	}
}

// publish is best effort; failures are logged and never returned.
func (s *invitationService) publish(ctx context.Context, typ domain.ActivityType, inv *domain.Invitation, actorID string) {
	if s.publisher == nil {
		return
	}
	ev := domain.ActivityEvent{
		Type:         typ,
		PartyID:      inv.PartyID,
		InvitationID: inv.ID,
		ContactID:    inv.ContactID,
		Status:       inv.Status,
		ActorID:      actorID,
		OccurredAt:   time.Now(),
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "publish activity failed", "type", typ, "invitation_id", inv.ID, "err", err)
	}
}

func (s *invitationService) getParty(ctx context.Context, id string) (*domain.Party, error) {
	p, err := s.partyRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get party: %w", err)
	}
	return p, nil
}

func (s *invitationService) getContact(ctx context.Context, id string) (*domain.Contact, error) {
	c, err := s.contactRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get contact: %w", err)
	}
	return c, nil
}

func (s *invitationService) getInvitation(ctx context.Context, id string) (*domain.Invitation, error) {
	inv, err := s.invitationRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	return inv, nil
}

// insert runs the pre-check and stores inv. The repository's unique
// constraint has the final word on duplicates.
func (s *invitationService) insert(ctx context.Context, inv *domain.Invitation) error {
	_, err := s.invitationRepo.GetByPartyAndContact(ctx, inv.PartyID, inv.ContactID)
	if err == nil {
		return domain.ErrDuplicateInvitation
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("get invitation: %w", err)
	}
	now := time.Now()
	inv.CreatedAt = now
	inv.UpdatedAt = now
	if err := s.invitationRepo.Create(ctx, inv); err != nil {
		if errors.Is(err, domain.ErrDuplicateInvitation) {
			return domain.ErrDuplicateInvitation
		}
		return fmt.Errorf("create invitation: %w", err)
	}
	return nil
}

func (s *invitationService) Create(ctx context.Context, callerID, partyID, contactID, notes string) (*domain.Invitation, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.getParty(ctx, partyID); err != nil {
		return nil, err
	}
	if _, err := s.getContact(ctx, contactID); err != nil {
		return nil, err
	}
	inv := &domain.Invitation{
		PartyID:   partyID,
		ContactID: contactID,
		InvitedBy: callerID,
		Status:    domain.InvitationPending,
		Notes:     notes,
	}
	if err := s.insert(ctx, inv); err != nil {
		return nil, err
	}
	s.publish(ctx, domain.ActivityInvited, inv, callerID)
	return inv, nil
}

func (s *invitationService) BulkInvite(ctx context.Context, callerID, partyID string, contactIDs []string) ([]string, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.getParty(ctx, partyID); err != nil {
		return nil, err
	}
	for _, id := range contactIDs {
		if _, err := s.getContact(ctx, id); err != nil {
			return nil, fmt.Errorf("contact %s: %w", id, err)
		}
	}

	created := make([]string, 0, len(contactIDs))
	for _, contactID := range contactIDs {
		inv := &domain.Invitation{
			PartyID:   partyID,
			ContactID: contactID,
			InvitedBy: callerID,
			Status:    domain.InvitationPending,
		}
		err := s.insert(ctx, inv)
		if errors.Is(err, domain.ErrDuplicateInvitation) {
			continue
		}
		if err != nil {
			return created, err
		}
		created = append(created, inv.ID)
		s.publish(ctx, domain.ActivityInvited, inv, callerID)
	}
	return created, nil
}

func activityFor(status domain.InvitationStatus) domain.ActivityType {
	if status == domain.InvitationAttended {
		return domain.ActivityCheckedIn
	}
	return domain.ActivityStatusChanged
}

func (s *invitationService) UpdateStatus(ctx context.Context, callerID, id string, status domain.InvitationStatus, notes *string) (*domain.Invitation, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	if _, err := domain.ParseInvitationStatus(string(status)); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	inv, err := s.getInvitation(ctx, id)
	if err != nil {
		return nil, err
	}
	applyStatusTransition(inv, status, time.Now())
	if notes != nil {
		inv.Notes = *notes
	}
	if err := s.invitationRepo.UpdateStatus(ctx, inv); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update invitation: %w", err)
	}
	s.publish(ctx, activityFor(status), inv, callerID)
	return inv, nil
}

func (s *invitationService) BatchUpdateStatus(ctx context.Context, callerID string, ids []string, status domain.InvitationStatus) (int, error) {
	if err := requireCaller(callerID); err != nil {
		return 0, err
	}
	if _, err := domain.ParseInvitationStatus(string(status)); err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	updated := 0
	var failed []string
	var errs []error
	for _, id := range ids {
		inv, err := s.getInvitation(ctx, id)
		if err == nil {
			applyStatusTransition(inv, status, time.Now())
			err = s.invitationRepo.UpdateStatus(ctx, inv)
		}
		if err != nil {
			failed = append(failed, id)
			errs = append(errs, fmt.Errorf("invitation %s: %w", id, err))
			continue
		}
		updated++
		s.publish(ctx, activityFor(status), inv, callerID)
	}
	if len(failed) > 0 {
		return updated, &domain.BatchError{Applied: updated, Failed: failed, Err: errors.Join(errs...)}
	}
	return updated, nil
}

func (s *invitationService) Remove(ctx context.Context, callerID, id string) error {
	if err := requireCaller(callerID); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if err := s.invitationRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete invitation: %w", err)
	}
	return nil
}

func (s *invitationService) BatchDelete(ctx context.Context, callerID string, ids []string) (int, error) {
	if err := requireCaller(callerID); err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	deleted := 0
	var failed []string
	var errs []error
	for _, id := range ids {
		if err := s.invitationRepo.Delete(ctx, id); err != nil {
			failed = append(failed, id)
			errs = append(errs, fmt.Errorf("invitation %s: %w", id, err))
			continue
		}
		deleted++
	}
	if len(failed) > 0 {
		return deleted, &domain.BatchError{Applied: deleted, Failed: failed, Err: errors.Join(errs...)}
	}
	return deleted, nil
}

func (s *invitationService) GetByContact(ctx context.Context, callerID, contactID string) ([]*domain.InvitationWithParty, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	invs, err := s.invitationRepo.ListByContact(ctx, contactID)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	out := make([]*domain.InvitationWithParty, 0, len(invs))
	cache := make(map[string]*domain.Party)
	for _, inv := range invs {
		p, ok := cache[inv.PartyID]
		if !ok {
			p, err = s.partyRepo.GetByID(ctx, inv.PartyID)
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("get party: %w", err)
			}
			cache[inv.PartyID] = p
		}
		if p == nil {
			continue
		}
		out = append(out, &domain.InvitationWithParty{Invitation: inv, Party: p})
	}
	return out, nil
}

func (s *invitationService) GetByParty(ctx context.Context, callerID, partyID string, status *domain.InvitationStatus, search string) ([]*domain.InvitationWithContact, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	if status != nil {
		if _, err := domain.ParseInvitationStatus(string(*status)); err != nil {
			return nil, err
		}
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if _, err := s.getParty(ctx, partyID); err != nil {
		return nil, err
	}
	invs, err := s.invitationRepo.ListByParty(ctx, partyID)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	joined, err := joinContacts(ctx, s.contactRepo, invs)
	if err != nil {
		return nil, err
	}
	term := strings.ToLower(strings.TrimSpace(search))
	out := make([]*domain.InvitationWithContact, 0, len(joined))
	for _, j := range joined {
		if status != nil && j.Invitation.Status != *status {
			continue
		}
		if term != "" && !contactMatches(j.Contact, term) {
			continue
		}
		out = append(out, j)
	}
	return out, nil
}

func contactMatches(c *domain.Contact, term string) bool {
	return strings.Contains(strings.ToLower(c.FullName()), term) ||
		strings.Contains(strings.ToLower(c.Email), term) ||
		strings.Contains(strings.ToLower(c.Company), term)
}

func (s *invitationService) PublicAttend(ctx context.Context, in domain.PublicAttendInput) (*domain.PublicAttendResult, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	if in.FirstName == "" {
		return nil, domain.InvalidInputf("first name is required")
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	party, err := s.getParty(ctx, in.PartyID)
	if err != nil {
		return nil, err
	}
	contact, created, err := s.resolvePublicContact(ctx, party, in)
	if err != nil {
		return nil, err
	}

	inv, err := s.invitationRepo.GetByPartyAndContact(ctx, party.ID, contact.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	if inv == nil {
		inv = &domain.Invitation{
			PartyID:   party.ID,
			ContactID: contact.ID,
			InvitedBy: party.CreatedBy,
		}
		applyStatusTransition(inv, domain.InvitationAttended, time.Now())
		err = s.insert(ctx, inv)
		if err == nil {
			s.publish(ctx, domain.ActivityCheckedIn, inv, "")
			return &domain.PublicAttendResult{ContactID: contact.ID, InvitationID: inv.ID, ContactCreated: created}, nil
		}
		if !errors.Is(err, domain.ErrDuplicateInvitation) {
			return nil, err
		}
		// Lost the insert race; check in the row that won.
		inv, err = s.invitationRepo.GetByPartyAndContact(ctx, party.ID, contact.ID)
		if err != nil {
			return nil, fmt.Errorf("get invitation: %w", err)
		}
	}

	applyStatusTransition(inv, domain.InvitationAttended, time.Now())
	if err := s.invitationRepo.UpdateStatus(ctx, inv); err != nil {
		return nil, fmt.Errorf("update invitation: %w", err)
	}
	s.publish(ctx, domain.ActivityCheckedIn, inv, "")
	return &domain.PublicAttendResult{ContactID: contact.ID, InvitationID: inv.ID, ContactCreated: created}, nil
}

// resolvePublicContact reuses the contact with the given email or creates one owned by the party creator.
func (s *invitationService) resolvePublicContact(ctx context.Context, party *domain.Party, in domain.PublicAttendInput) (*domain.Contact, bool, error) {
	if in.Email != "" {
		c, err := s.contactRepo.GetByEmail(ctx, in.Email)
		if err == nil {
			return c, false, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, false, fmt.Errorf("get contact by email: %w", err)
		}
	}
	now := time.Now()
	c := &domain.Contact{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Tags:      []string{},
		Source:    domain.SourcePublic,
		CreatedBy: party.CreatedBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Email != "" && s.guesser != nil {
		if company, ok := s.guesser.Guess(in.Email); ok {
			c.Company = company
		}
	}
	if err := s.contactRepo.Create(ctx, c); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			existing, gerr := s.contactRepo.GetByEmail(ctx, in.Email)
			if gerr != nil {
				return nil, false, fmt.Errorf("get contact by email: %w", gerr)
			}
			return existing, false, nil
		}
		return nil, false, fmt.Errorf("create contact: %w", err)
	}
	return c, true, nil
}

func (s *invitationService) UndoCheckIn(ctx context.Context, callerID, id string) (*domain.Invitation, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	inv, err := s.getInvitation(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != domain.InvitationAttended {
		return nil, domain.InvalidInputf("invitation is %s, not attended", inv.Status)
	}
	inv.Status = domain.InvitationPending
	if inv.SentAt != nil {
		inv.Status = domain.InvitationSent
	}
	inv.UpdatedAt = time.Now()
	if err := s.invitationRepo.UpdateStatus(ctx, inv); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update invitation: %w", err)
	}
	s.publish(ctx, domain.ActivityCheckInUndone, inv, callerID)
	return inv, nil
}

func (s *invitationService) SendInvitations(ctx context.Context, callerID, partyID string, invitationIDs []string) (*domain.SendResult, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	party, err := s.getParty(ctx, partyID)
	if err != nil {
		return nil, err
	}
	if err := authorizePartyWrite(party, callerID); err != nil {
		return nil, err
	}

	inviterName := "Your host"
	if u, err := s.userRepo.GetByID(ctx, callerID); err == nil {
		inviterName = u.DisplayName()
	}
	partyDate := ""
	if party.Date != nil {
		partyDate = party.Date.Format("Monday 2 January 2006, 15:04")
	}

	res := &domain.SendResult{Failed: []string{}}
	for _, id := range invitationIDs {
		inv, err := s.invitationRepo.GetByID(ctx, id)
		if err != nil || inv.PartyID != partyID {
			res.Failed = append(res.Failed, id)
			continue
		}
		contact, err := s.contactRepo.GetByID(ctx, inv.ContactID)
		if err != nil || contact.Email == "" {
			res.Failed = append(res.Failed, id)
			continue
		}
		data := &domain.PartyInvitationEmailData{
			Email:       contact.Email,
			FirstName:   contact.FirstName,
			InviterName: inviterName,
			PartyName:   party.Name,
			PartyDate:   partyDate,
			Location:    party.Location,
			AttendURL:   fmt.Sprintf("%s/attend/%s", s.publicBaseURL, party.ID),
		}
		if err := s.emailService.SendPartyInvitation(ctx, data); err != nil {
			s.logger.WarnContext(ctx, "send invitation failed", "invitation_id", id, "err", err)
			res.Failed = append(res.Failed, id)
			continue
		}
		if inv.Status == domain.InvitationPending {
			applyStatusTransition(inv, domain.InvitationSent, time.Now())
			if err := s.invitationRepo.UpdateStatus(ctx, inv); err != nil {
				return nil, fmt.Errorf("update invitation: %w", err)
			}
			s.publish(ctx, domain.ActivityStatusChanged, inv, callerID)
		}
		res.Sent++
	}
	return res, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/plan8/plan8-contacts/internal/domain"
)

const (
	duplicateEmailReason = "Email already exists"
	missingNameReason    = "First or last name is required"
)

type contactService struct {
	contactRepo    domain.ContactRepository
	invitationRepo domain.InvitationRepository
	userRepo       domain.UserRepository
	searcher       domain.ContactSearcher
	guesser        *CompanyGuesser
	contextTimeout time.Duration
}

// NewContactService wires the contact service. searcher is the fallback used
// when the first-name search finds nothing.
func NewContactService(
	contactRepo domain.ContactRepository,
	invitationRepo domain.InvitationRepository,
	userRepo domain.UserRepository,
	searcher domain.ContactSearcher,
	guesser *CompanyGuesser,
	timeout time.Duration,
) domain.ContactService {
	return &contactService{
		contactRepo:    contactRepo,
		invitationRepo: invitationRepo,
		userRepo:       userRepo,
		searcher:       searcher,
		guesser:        guesser,
		contextTimeout: timeout,
	}
}

func (s *contactService) Get(ctx context.Context, callerID, id string) (*domain.Contact, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	c, err := s.contactRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get contact: %w", err)
	}
	return c, nil
}

func (s *contactService) List(ctx context.Context, callerID string, params domain.ContactListParams) (*domain.ContactPage, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	sortBy, err := domain.ParseContactSortField(string(params.SortBy))
	if err != nil {
		return nil, err
	}
	order, err := domain.ParseSortOrder(string(params.Order))
	if err != nil {
		return nil, err
	}
	pg := normalizePagination(params.Pagination)

	if term := strings.TrimSpace(params.Search); term != "" {
		return s.search(ctx, term, params.Company, sortBy, order, pg)
	}

	q := domain.ContactQuery{SortBy: sortBy, Order: order, Pagination: pg}
	switch {
	case params.Company != "":
		q.Company = params.Company
	case params.CreatedBy != "":
		q.CreatedBy = params.CreatedBy
	}
	items, total, err := s.contactRepo.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return newContactPage(items, total, pg), nil
}

func (s *contactService) search(ctx context.Context, term, company string, sortBy domain.ContactSortField, order domain.SortOrder, pg domain.PaginationParams) (*domain.ContactPage, error) {
	items, total, err := s.contactRepo.SearchByFirstName(ctx, term, company, pg)
	if err != nil {
		return nil, fmt.Errorf("search contacts: %w", err)
	}
	if total > 0 || len([]rune(term)) < minFuzzyTermLen || s.searcher == nil {
		SortContacts(items, sortBy, order)
		return newContactPage(items, total, pg), nil
	}

	matches, err := s.searcher.Search(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("fuzzy search contacts: %w", err)
	}
	filtered := make([]*domain.Contact, 0, len(matches))
	for _, c := range matches {
		if company != "" && c.Company != company {
			continue
		}
		filtered = append(filtered, c)
	}
	SortContacts(filtered, sortBy, order)

	start := min(pg.Offset(), len(filtered))
	end := min(start+pg.PageSize, len(filtered))
	return newContactPage(filtered[start:end], len(filtered), pg), nil
}

func newContactPage(items []*domain.Contact, total int, pg domain.PaginationParams) *domain.ContactPage {
	if items == nil {
		items = []*domain.Contact{}
	}
	return &domain.ContactPage{
		Items:    items,
		Total:    total,
		Page:     pg.Page,
		PageSize: pg.PageSize,
		IsDone:   pg.IsDone(len(items), total),
	}
}

func (s *contactService) Create(ctx context.Context, callerID string, c *domain.Contact) error {
	if err := requireCaller(callerID); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if strings.TrimSpace(c.FirstName) == "" {
		return domain.InvalidInputf("first name is required")
	}
	if c.Source == "" {
		c.Source = domain.SourceManual
	}
	c.CreatedBy = callerID
	return s.insert(ctx, c)
}

// insert checks email uniqueness, derives the company and stores c.
func (s *contactService) insert(ctx context.Context, c *domain.Contact) error {
	c.Email = strings.TrimSpace(c.Email)
	if c.Email != "" {
		exists, err := s.emailExists(ctx, c.Email)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrDuplicateEmail
		}
		if c.Company == "" {
			if company, ok := s.guesser.Guess(c.Email); ok {
				c.Company = company
			}
		}
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	if err := s.contactRepo.Create(ctx, c); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("create contact: %w", err)
	}
	return nil
}

func (s *contactService) emailExists(ctx context.Context, email string) (bool, error) {
	_, err := s.contactRepo.GetByEmail(ctx, email)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("get contact by email: %w", err)
}

func (s *contactService) Update(ctx context.Context, callerID, id string, patch domain.ContactPatch) (*domain.Contact, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	current, err := s.contactRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get contact: %w", err)
	}
	if patch.FirstName != nil && strings.TrimSpace(*patch.FirstName) == "" {
		return nil, domain.InvalidInputf("first name cannot be empty")
	}
	if patch.Email != nil {
		email := strings.TrimSpace(*patch.Email)
		patch.Email = &email
		if email != "" && !strings.EqualFold(email, current.Email) {
			exists, err := s.emailExists(ctx, email)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, domain.ErrDuplicateEmail
			}
		}
	}
	if patch.Empty() {
		return current, nil
	}
	updated, err := s.contactRepo.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("update contact: %w", err)
	}
	return updated, nil
}

func (s *contactService) Remove(ctx context.Context, callerID, id string) error {
	if err := requireCaller(callerID); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	return s.remove(ctx, id)
}

// remove deletes the contact's invitations before the contact itself.
func (s *contactService) remove(ctx context.Context, id string) error {
	if _, err := s.contactRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get contact: %w", err)
	}
	if _, err := s.invitationRepo.DeleteByContact(ctx, id); err != nil {
		return fmt.Errorf("delete contact invitations: %w", err)
	}
	if err := s.contactRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete contact: %w", err)
	}
	return nil
}

func (s *contactService) BatchDelete(ctx context.Context, callerID string, ids []string) (int, error) {
	if err := requireCaller(callerID); err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	deleted := 0
	var failed []string
	var errs []error
	for _, id := range ids {
		if err := s.remove(ctx, id); err != nil {
			failed = append(failed, id)
			errs = append(errs, fmt.Errorf("contact %s: %w", id, err))
			continue
		}
		deleted++
	}
	if len(failed) > 0 {
		return deleted, &domain.BatchError{Applied: deleted, Failed: failed, Err: errors.Join(errs...)}
	}
	return deleted, nil
}

func (s *contactService) ImportFromCSV(ctx context.Context, callerID string, rows []domain.ImportRow) (*domain.ImportResult, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	contacts := make([]*domain.Contact, 0, len(rows))
	for _, row := range rows {
		contacts = append(contacts, &domain.Contact{
			FirstName: row.FirstName,
			LastName:  row.LastName,
			Email:     row.Email,
			Company:   row.Company,
			Source:    domain.SourceCSV,
		})
	}
	return s.importContacts(ctx, callerID, contacts)
}

func (s *contactService) ImportFromLinkedIn(ctx context.Context, callerID string, rows []domain.LinkedInRow) (*domain.ImportResult, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	contacts := make([]*domain.Contact, 0, len(rows))
	for _, row := range rows {
		contacts = append(contacts, &domain.Contact{
			FirstName: row.FirstName,
			LastName:  row.LastName,
			Email:     row.Email,
			Company:   row.Company,
			Position:  row.Position,
			Notes:     linkedInNotes(row.URL, row.ConnectedOn),
			Source:    domain.SourceLinkedIn,
		})
	}
	return s.importContacts(ctx, callerID, contacts)
}

func linkedInNotes(url, connectedOn string) string {
	var b strings.Builder
	if url != "" {
		b.WriteString("LinkedIn: " + url)
	}
	if connectedOn != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Connected: " + connectedOn)
	}
	return b.String()
}

func (s *contactService) importContacts(ctx context.Context, callerID string, contacts []*domain.Contact) (*domain.ImportResult, error) {
	res := &domain.ImportResult{
		Imported:   []string{},
		Duplicates: []domain.ImportDuplicate{},
		Summary:    domain.ImportSummary{Total: len(contacts)},
	}
	for _, c := range contacts {
		c.CreatedBy = callerID
		if strings.TrimSpace(c.FirstName) == "" {
			c.FirstName = c.LastName
			c.LastName = ""
		}
		if strings.TrimSpace(c.FirstName) == "" {
			res.Duplicates = append(res.Duplicates, domain.ImportDuplicate{
				Email:  c.Email,
				Reason: missingNameReason,
			})
			continue
		}
		err := s.insert(ctx, c)
		if errors.Is(err, domain.ErrDuplicateEmail) {
			res.Duplicates = append(res.Duplicates, domain.ImportDuplicate{
				Name:   c.FullName(),
				Email:  c.Email,
				Reason: duplicateEmailReason,
			})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("import contact %q: %w", c.Email, err)
		}
		res.Imported = append(res.Imported, c.ID)
	}
	res.Summary.Imported = len(res.Imported)
	res.Summary.Skipped = len(res.Duplicates)
	return res, nil
}

func (s *contactService) GetCompanies(ctx context.Context, callerID string) ([]string, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	companies, err := s.contactRepo.ListCompanies(ctx)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	out := make([]string, 0, len(companies))
	seen := make(map[string]struct{}, len(companies))
	for _, c := range companies {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

func (s *contactService) GetCreatedByUsers(ctx context.Context, callerID string) ([]domain.UserOption, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	ids, err := s.contactRepo.ListCreatorIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contact creators: %w", err)
	}
	users, err := s.userRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	byID := make(map[string]*domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	out := make([]domain.UserOption, 0, len(ids))
	for _, id := range ids {
		u, ok := byID[id]
		if !ok {
			u = &domain.User{ID: id}
		}
		out = append(out, domain.UserOption{ID: id, Name: u.DisplayName()})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *contactService) SuggestCompanyFromEmail(_ context.Context, callerID, email string) (string, bool, error) {
	if err := requireCaller(callerID); err != nil {
		return "", false, err
	}
	company, ok := s.guesser.Guess(email)
	return company, ok, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/plan8/plan8-contacts/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const testTimeout = 5 * time.Second

// fakeContactRepo is an in-memory ContactRepository for tests.
type fakeContactRepo struct {
	all     []*domain.Contact
	nextID  int
	err     error
	missing map[string]bool // ids whose Delete fails with ErrNotFound after GetByID succeeds
}

func newFakeContactRepo() *fakeContactRepo {
	return &fakeContactRepo{nextID: 1}
}

func (f *fakeContactRepo) add(c *domain.Contact) *domain.Contact {
	c.ID = fmt.Sprintf("c-%d", f.nextID)
	f.nextID++
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Date(2025, 1, 1, 0, 0, f.nextID, 0, time.UTC)
	}
	if c.Tags == nil {
		c.Tags = []string{}
	}
	f.all = append(f.all, c)
	return c
}

func (f *fakeContactRepo) find(id string) (int, *domain.Contact) {
	for i, c := range f.all {
		if c.ID == id {
			return i, c
		}
	}
	return -1, nil
}

func copyContact(c *domain.Contact) *domain.Contact {
	cp := *c
	cp.Tags = append([]string{}, c.Tags...)
	return &cp
}

func (f *fakeContactRepo) Create(_ context.Context, c *domain.Contact) error {
	if f.err != nil {
		return f.err
	}
	if c.Email != "" {
		for _, existing := range f.all {
			if strings.EqualFold(existing.Email, c.Email) {
				return domain.ErrDuplicateEmail
			}
		}
	}
	stored := copyContact(c)
	f.add(stored)
	c.ID = stored.ID
	return nil
}

func (f *fakeContactRepo) GetByID(_ context.Context, id string) (*domain.Contact, error) {
	if f.err != nil {
		return nil, f.err
	}
	_, c := f.find(id)
	if c == nil {
		return nil, domain.ErrNotFound
	}
	return copyContact(c), nil
}

func (f *fakeContactRepo) GetByEmail(_ context.Context, email string) (*domain.Contact, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, c := range f.all {
		if c.Email != "" && strings.EqualFold(c.Email, email) {
			return copyContact(c), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeContactRepo) Update(_ context.Context, id string, p domain.ContactPatch) (*domain.Contact, error) {
	if f.err != nil {
		return nil, f.err
	}
	_, c := f.find(id)
	if c == nil {
		return nil, domain.ErrNotFound
	}
	if p.FirstName != nil {
		c.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		c.LastName = *p.LastName
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Position != nil {
		c.Position = *p.Position
	}
	if p.Company != nil {
		c.Company = *p.Company
	}
	if p.Tags != nil {
		c.Tags = *p.Tags
	}
	if p.Notes != nil {
		c.Notes = *p.Notes
	}
	return copyContact(c), nil
}

func (f *fakeContactRepo) Delete(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	if f.missing[id] {
		return domain.ErrNotFound
	}
	i, c := f.find(id)
	if c == nil {
		return domain.ErrNotFound
	}
	f.all = append(f.all[:i], f.all[i+1:]...)
	return nil
}

func page(items []*domain.Contact, p domain.PaginationParams) []*domain.Contact {
	start := min(p.Offset(), len(items))
	end := min(start+p.PageSize, len(items))
	out := make([]*domain.Contact, 0, end-start)
	for _, c := range items[start:end] {
		out = append(out, copyContact(c))
	}
	return out
}

func (f *fakeContactRepo) SearchByFirstName(_ context.Context, term, company string, p domain.PaginationParams) ([]*domain.Contact, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	term = strings.ToLower(term)
	var hits []*domain.Contact
	for _, c := range f.all {
		if company != "" && c.Company != company {
			continue
		}
		for _, w := range strings.Fields(strings.ToLower(c.FirstName)) {
			if strings.HasPrefix(w, term) {
				hits = append(hits, c)
				break
			}
		}
	}
	return page(hits, p), len(hits), nil
}

func (f *fakeContactRepo) List(_ context.Context, q domain.ContactQuery) ([]*domain.Contact, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	var hits []*domain.Contact
	for _, c := range f.all {
		if q.Company != "" && c.Company != q.Company {
			continue
		}
		if q.CreatedBy != "" && c.CreatedBy != q.CreatedBy {
			continue
		}
		hits = append(hits, c)
	}
	SortContacts(hits, q.SortBy, q.Order)
	return page(hits, q.Pagination), len(hits), nil
}

func (f *fakeContactRepo) ListWithEmail(_ context.Context) ([]*domain.Contact, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.Contact
	for _, c := range f.all {
		if c.Email != "" {
			out = append(out, copyContact(c))
		}
	}
	return out, nil
}

func (f *fakeContactRepo) ListCompanies(_ context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []string
	for _, c := range f.all {
		out = append(out, c.Company)
	}
	return out, nil
}

func (f *fakeContactRepo) ListCreatorIDs(_ context.Context) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	seen := map[string]bool{}
	var out []string
	for _, c := range f.all {
		if !seen[c.CreatedBy] {
			seen[c.CreatedBy] = true
			out = append(out, c.CreatedBy)
		}
	}
	return out, nil
}

// fakePartyRepo is an in-memory PartyRepository for tests.
type fakePartyRepo struct {
	byID   map[string]*domain.Party
	nextID int
	err    error
}

func newFakePartyRepo() *fakePartyRepo {
	return &fakePartyRepo{byID: make(map[string]*domain.Party), nextID: 1}
}

func (f *fakePartyRepo) Create(_ context.Context, p *domain.Party) error {
	if f.err != nil {
		return f.err
	}
	p.ID = fmt.Sprintf("p-%d", f.nextID)
	f.nextID++
	cp := *p
	f.byID[p.ID] = &cp
	return nil
}

func (f *fakePartyRepo) GetByID(_ context.Context, id string) (*domain.Party, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePartyRepo) List(_ context.Context) ([]*domain.Party, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*domain.Party, 0, len(f.byID))
	for _, p := range f.byID {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakePartyRepo) Update(_ context.Context, id string, patch domain.PartyPatch) (*domain.Party, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Date != nil {
		p.Date = patch.Date
	}
	if patch.Location != nil {
		p.Location = *patch.Location
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	cp := *p
	return &cp, nil
}

func (f *fakePartyRepo) Delete(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

// fakeInvitationRepo is an in-memory InvitationRepository for tests.
// With hidePairs set, GetByPartyAndContact always misses, as a concurrent
// insert would look to the pre-check.
type fakeInvitationRepo struct {
	all       []*domain.Invitation
	nextID    int
	err       error
	updateErr error
	hidePairs bool
}

func newFakeInvitationRepo() *fakeInvitationRepo {
	return &fakeInvitationRepo{nextID: 1}
}

func copyInvitation(inv *domain.Invitation) *domain.Invitation {
	cp := *inv
	return &cp
}

func (f *fakeInvitationRepo) find(id string) (int, *domain.Invitation) {
	for i, inv := range f.all {
		if inv.ID == id {
			return i, inv
		}
	}
	return -1, nil
}

func (f *fakeInvitationRepo) Create(_ context.Context, inv *domain.Invitation) error {
	if f.err != nil {
		return f.err
	}
	for _, existing := range f.all {
		if existing.PartyID == inv.PartyID && existing.ContactID == inv.ContactID {
			return domain.ErrDuplicateInvitation
		}
	}
	inv.ID = fmt.Sprintf("inv-%d", f.nextID)
	f.nextID++
	f.all = append(f.all, copyInvitation(inv))
	return nil
}

func (f *fakeInvitationRepo) GetByID(_ context.Context, id string) (*domain.Invitation, error) {
	if f.err != nil {
		return nil, f.err
	}
	_, inv := f.find(id)
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	return copyInvitation(inv), nil
}

func (f *fakeInvitationRepo) GetByPartyAndContact(_ context.Context, partyID, contactID string) (*domain.Invitation, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.hidePairs {
		f.hidePairs = false
		return nil, domain.ErrNotFound
	}
	for _, inv := range f.all {
		if inv.PartyID == partyID && inv.ContactID == contactID {
			return copyInvitation(inv), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeInvitationRepo) ListByParty(_ context.Context, partyID string) ([]*domain.Invitation, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []*domain.Invitation{}
	for _, inv := range f.all {
		if inv.PartyID == partyID {
			out = append(out, copyInvitation(inv))
		}
	}
	return out, nil
}

func (f *fakeInvitationRepo) ListByContact(_ context.Context, contactID string) ([]*domain.Invitation, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []*domain.Invitation{}
	for _, inv := range f.all {
		if inv.ContactID == contactID {
			out = append(out, copyInvitation(inv))
		}
	}
	return out, nil
}

func (f *fakeInvitationRepo) UpdateStatus(_ context.Context, inv *domain.Invitation) error {
	if f.err != nil {
		return f.err
	}
	if f.updateErr != nil {
		return f.updateErr
	}
	i, existing := f.find(inv.ID)
	if existing == nil {
		return domain.ErrNotFound
	}
	f.all[i] = copyInvitation(inv)
	return nil
}

func (f *fakeInvitationRepo) Delete(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	i, inv := f.find(id)
	if inv == nil {
		return domain.ErrNotFound
	}
	f.all = append(f.all[:i], f.all[i+1:]...)
	return nil
}

func (f *fakeInvitationRepo) deleteWhere(match func(*domain.Invitation) bool) int {
	kept := f.all[:0]
	n := 0
	for _, inv := range f.all {
		if match(inv) {
			n++
			continue
		}
		kept = append(kept, inv)
	}
	f.all = kept
	return n
}

func (f *fakeInvitationRepo) DeleteByContact(_ context.Context, contactID string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.deleteWhere(func(inv *domain.Invitation) bool { return inv.ContactID == contactID }), nil
}

func (f *fakeInvitationRepo) DeleteByParty(_ context.Context, partyID string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.deleteWhere(func(inv *domain.Invitation) bool { return inv.PartyID == partyID }), nil
}

// fakeUserRepo is an in-memory UserRepository for tests.
type fakeUserRepo struct {
	byID   map[string]*domain.User
	nextID int
	err    error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[string]*domain.User), nextID: 1}
}

func (f *fakeUserRepo) addUser(id, email, name string) {
	f.byID[id] = &domain.User{ID: id, Email: email, Name: name}
}

func (f *fakeUserRepo) Create(_ context.Context, u *domain.User) error {
	if f.err != nil {
		return f.err
	}
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return domain.ErrDuplicateEmail
		}
	}
	u.ID = fmt.Sprintf("u-%d", f.nextID)
	f.nextID++
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) ListByIDs(_ context.Context, ids []string) ([]*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.User
	for _, id := range ids {
		if u, ok := f.byID[id]; ok {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeUserRepo) SetCredentials(_ context.Context, id, hash, salt, name string) error {
	if f.err != nil {
		return f.err
	}
	u, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.PasswordHash = hash
	u.Salt = salt
	u.Name = name
	return nil
}

// fakeEmailService records sent invitations.
type fakeEmailService struct {
	err  error
	sent []*domain.PartyInvitationEmailData
}

func (f *fakeEmailService) SendPartyInvitation(_ context.Context, data *domain.PartyInvitationEmailData) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, data)
	return nil
}

// fakePublisher records published activity.
type fakePublisher struct {
	err    error
	events []domain.ActivityEvent
}

func (f *fakePublisher) Publish(_ context.Context, ev domain.ActivityEvent) error {
	f.events = append(f.events, ev)
	return f.err
}

func (f *fakePublisher) types() []domain.ActivityType {
	out := make([]domain.ActivityType, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.Type)
	}
	return out
}

var errDB = errors.New("db error")

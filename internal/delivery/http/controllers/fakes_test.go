package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/plan8/plan8-contacts/internal/delivery/http/helpers"
	"github.com/plan8/plan8-contacts/internal/delivery/http/middleware"
	"github.com/plan8/plan8-contacts/internal/domain"

	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const (
	testUserID    = "user-123"
	testContactID = "0b9a3f7e-1c2d-4e5f-8a9b-0c1d2e3f4a5b"
	testPartyID   = "5d6e7f80-9a0b-4c1d-8e2f-3a4b5c6d7e8f"
	testInviteID  = "c4d5e6f7-0819-4a2b-9c3d-4e5f60718293"
)

// serve routes req through a mux so path values resolve, with the test user
// in context unless anonymous is set.
func serve(t *testing.T, pattern string, handler http.HandlerFunc, method, target, body string, anonymous bool) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, handler)
	var rdr io.Reader
	if body != "" {
		rdr = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	req.Header.Set("Content-Type", "application/json")
	if !anonymous {
		req = req.WithContext(middleware.SetUserID(req.Context(), testUserID))
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

// decodeData decodes the envelope and, when out is non-nil, its data.
func decodeData(t *testing.T, rr *httptest.ResponseRecorder, out any) *helpers.APIError {
	t.Helper()
	var env struct {
		Data  json.RawMessage   `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env), "response must be valid JSON envelope")
	if out != nil && env.Error == nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env.Error
}

// fakeContactService implements domain.ContactService for handler tests.
type fakeContactService struct {
	err           error
	contact       *domain.Contact
	page          *domain.ContactPage
	importResult  *domain.ImportResult
	companies     []string
	users         []domain.UserOption
	suggestion    string
	suggestionOK  bool
	batchCount    int
	lastCallerID  string
	lastID        string
	lastParams    domain.ContactListParams
	lastCreate    *domain.Contact
	lastPatch     domain.ContactPatch
	lastIDs       []string
	lastCSVRows   []domain.ImportRow
	lastLinkedIn  []domain.LinkedInRow
	lastSuggested string
}

func (f *fakeContactService) Get(_ context.Context, callerID, id string) (*domain.Contact, error) {
	f.lastCallerID, f.lastID = callerID, id
	return f.contact, f.err
}

func (f *fakeContactService) List(_ context.Context, callerID string, params domain.ContactListParams) (*domain.ContactPage, error) {
	f.lastCallerID, f.lastParams = callerID, params
	return f.page, f.err
}

func (f *fakeContactService) Create(_ context.Context, callerID string, c *domain.Contact) error {
	f.lastCallerID, f.lastCreate = callerID, c
	if f.err != nil {
		return f.err
	}
	c.ID = testContactID
	c.CreatedBy = callerID
	return nil
}

func (f *fakeContactService) Update(_ context.Context, callerID, id string, patch domain.ContactPatch) (*domain.Contact, error) {
	f.lastCallerID, f.lastID, f.lastPatch = callerID, id, patch
	return f.contact, f.err
}

func (f *fakeContactService) Remove(_ context.Context, callerID, id string) error {
	f.lastCallerID, f.lastID = callerID, id
	return f.err
}

func (f *fakeContactService) BatchDelete(_ context.Context, callerID string, ids []string) (int, error) {
	f.lastCallerID, f.lastIDs = callerID, ids
	return f.batchCount, f.err
}

func (f *fakeContactService) ImportFromCSV(_ context.Context, callerID string, rows []domain.ImportRow) (*domain.ImportResult, error) {
	f.lastCallerID, f.lastCSVRows = callerID, rows
	return f.importResult, f.err
}

func (f *fakeContactService) ImportFromLinkedIn(_ context.Context, callerID string, rows []domain.LinkedInRow) (*domain.ImportResult, error) {
	f.lastCallerID, f.lastLinkedIn = callerID, rows
	return f.importResult, f.err
}

func (f *fakeContactService) GetCompanies(_ context.Context, callerID string) ([]string, error) {
	f.lastCallerID = callerID
	return f.companies, f.err
}

func (f *fakeContactService) GetCreatedByUsers(_ context.Context, callerID string) ([]domain.UserOption, error) {
	f.lastCallerID = callerID
	return f.users, f.err
}

func (f *fakeContactService) SuggestCompanyFromEmail(_ context.Context, callerID, email string) (string, bool, error) {
	f.lastCallerID, f.lastSuggested = callerID, email
	return f.suggestion, f.suggestionOK, f.err
}

// fakePartyService implements domain.PartyService for handler tests.
type fakePartyService struct {
	err          error
	party        *domain.Party
	parties      []*domain.Party
	withInvites  *domain.PartyWithInvitations
	public       *domain.PublicParty
	stats        *domain.AttendanceStats
	batchCount   int
	lastCallerID string
	lastID       string
	lastCreate   *domain.Party
	lastPatch    domain.PartyPatch
	lastIDs      []string
	lastStatus   domain.PartyStatus
}

func (f *fakePartyService) List(_ context.Context, callerID string) ([]*domain.Party, error) {
	f.lastCallerID = callerID
	return f.parties, f.err
}

func (f *fakePartyService) Create(_ context.Context, callerID string, p *domain.Party) error {
	f.lastCallerID, f.lastCreate = callerID, p
	if f.err != nil {
		return f.err
	}
	p.ID = testPartyID
	p.CreatedBy = callerID
	if p.Status == "" {
		p.Status = domain.PartyPlanning
	}
	return nil
}

func (f *fakePartyService) Update(_ context.Context, callerID, id string, patch domain.PartyPatch) (*domain.Party, error) {
	f.lastCallerID, f.lastID, f.lastPatch = callerID, id, patch
	return f.party, f.err
}

func (f *fakePartyService) Remove(_ context.Context, callerID, id string) error {
	f.lastCallerID, f.lastID = callerID, id
	return f.err
}

func (f *fakePartyService) BatchUpdateStatus(_ context.Context, callerID string, ids []string, status domain.PartyStatus) (int, error) {
	f.lastCallerID, f.lastIDs, f.lastStatus = callerID, ids, status
	return f.batchCount, f.err
}

func (f *fakePartyService) GetWithInvitations(_ context.Context, callerID, id string) (*domain.PartyWithInvitations, error) {
	f.lastCallerID, f.lastID = callerID, id
	return f.withInvites, f.err
}

func (f *fakePartyService) GetPublic(_ context.Context, id string) (*domain.PublicParty, error) {
	f.lastID = id
	return f.public, f.err
}

func (f *fakePartyService) GetAttendanceStats(_ context.Context, callerID, id string) (*domain.AttendanceStats, error) {
	f.lastCallerID, f.lastID = callerID, id
	return f.stats, f.err
}

// fakeInvitationService implements domain.InvitationService for handler tests.
type fakeInvitationService struct {
	err            error
	invitation     *domain.Invitation
	byContact      []*domain.InvitationWithParty
	byParty        []*domain.InvitationWithContact
	created        []string
	attendResult   *domain.PublicAttendResult
	sendResult     *domain.SendResult
	batchCount     int
	lastCallerID   string
	lastID         string
	lastPartyID    string
	lastContactID  string
	lastNotes      *string
	lastStatus     domain.InvitationStatus
	lastFilter     *domain.InvitationStatus
	lastSearch     string
	lastIDs        []string
	lastAttend     domain.PublicAttendInput
	publicAttended bool
}

func (f *fakeInvitationService) Create(_ context.Context, callerID, partyID, contactID, notes string) (*domain.Invitation, error) {
	f.lastCallerID, f.lastPartyID, f.lastContactID, f.lastNotes = callerID, partyID, contactID, &notes
	return f.invitation, f.err
}

func (f *fakeInvitationService) BulkInvite(_ context.Context, callerID, partyID string, contactIDs []string) ([]string, error) {
	f.lastCallerID, f.lastPartyID, f.lastIDs = callerID, partyID, contactIDs
	return f.created, f.err
}

func (f *fakeInvitationService) UpdateStatus(_ context.Context, callerID, id string, status domain.InvitationStatus, notes *string) (*domain.Invitation, error) {
	f.lastCallerID, f.lastID, f.lastStatus, f.lastNotes = callerID, id, status, notes
	return f.invitation, f.err
}

func (f *fakeInvitationService) BatchUpdateStatus(_ context.Context, callerID string, ids []string, status domain.InvitationStatus) (int, error) {
	f.lastCallerID, f.lastIDs, f.lastStatus = callerID, ids, status
	return f.batchCount, f.err
}

func (f *fakeInvitationService) Remove(_ context.Context, callerID, id string) error {
	f.lastCallerID, f.lastID = callerID, id
	return f.err
}

func (f *fakeInvitationService) BatchDelete(_ context.Context, callerID string, ids []string) (int, error) {
	f.lastCallerID, f.lastIDs = callerID, ids
	return f.batchCount, f.err
}

func (f *fakeInvitationService) GetByContact(_ context.Context, callerID, contactID string) ([]*domain.InvitationWithParty, error) {
	f.lastCallerID, f.lastContactID = callerID, contactID
	return f.byContact, f.err
}

func (f *fakeInvitationService) GetByParty(_ context.Context, callerID, partyID string, status *domain.InvitationStatus, search string) ([]*domain.InvitationWithContact, error) {
	f.lastCallerID, f.lastPartyID, f.lastFilter, f.lastSearch = callerID, partyID, status, search
	return f.byParty, f.err
}

func (f *fakeInvitationService) PublicAttend(_ context.Context, in domain.PublicAttendInput) (*domain.PublicAttendResult, error) {
	f.lastAttend, f.publicAttended = in, true
	return f.attendResult, f.err
}

func (f *fakeInvitationService) UndoCheckIn(_ context.Context, callerID, id string) (*domain.Invitation, error) {
	f.lastCallerID, f.lastID = callerID, id
	return f.invitation, f.err
}

func (f *fakeInvitationService) SendInvitations(_ context.Context, callerID, partyID string, invitationIDs []string) (*domain.SendResult, error) {
	f.lastCallerID, f.lastPartyID, f.lastIDs = callerID, partyID, invitationIDs
	return f.sendResult, f.err
}

// fakeAuthService implements domain.AuthService for handler tests.
type fakeAuthService struct {
	err          error
	user         *domain.User
	token        string
	lastEmail    string
	lastPassword string
	lastName     string
}

func (f *fakeAuthService) SignUp(_ context.Context, email, password, name string) (*domain.User, error) {
	f.lastEmail, f.lastPassword, f.lastName = email, password, name
	return f.user, f.err
}

func (f *fakeAuthService) Login(_ context.Context, email, password string) (string, error) {
	f.lastEmail, f.lastPassword = email, password
	return f.token, f.err
}

func (f *fakeAuthService) EnsureUser(_ context.Context, email, name string) (*domain.User, error) {
	f.lastEmail, f.lastName = email, name
	return f.user, f.err
}

package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/plan8/plan8-contacts/internal/delivery/http/helpers"
	"github.com/plan8/plan8-contacts/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartyController_Create(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		fakeErr    error
		anonymous  bool
		wantStatus int
		wantSubstr string
	}{
		{"success with defaults", `{"name":"Midsummer","date":"2025-06-06T19:30:00Z","location":"Rooftop"}`, nil, false, http.StatusCreated, `"status":"planning"`},
		{"explicit status", `{"name":"Midsummer","status":"active"}`, nil, false, http.StatusCreated, `"status":"active"`},
		{"missing name", `{"name":"  "}`, nil, false, http.StatusBadRequest, "name is required"},
		{"bad status", `{"name":"Midsummer","status":"done"}`, nil, false, http.StatusBadRequest, "status must be"},
		{"bad date", `{"name":"Midsummer","date":"tomorrow"}`, nil, false, http.StatusBadRequest, helpers.ErrCodeBadRequest},
		{"no user in context", `{"name":"Midsummer"}`, nil, true, http.StatusUnauthorized, helpers.ErrCodeUnauthorized},
		{"service error", `{"name":"Midsummer"}`, errors.New("db error"), false, http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakePartyService{err: tt.fakeErr}
			ctrl := NewPartyController(testLogger, fake)

			rr := serve(t, "POST /parties", ctrl.Create, http.MethodPost, "/parties", tt.body, tt.anonymous)

			require.Equal(t, tt.wantStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.wantSubstr)
			if tt.wantStatus == http.StatusCreated {
				assert.Equal(t, testUserID, fake.lastCreate.CreatedBy)
				assert.Equal(t, "Midsummer", fake.lastCreate.Name)
			}
		})
	}

	fake := &fakePartyService{}
	rr := serve(t, "POST /parties", NewPartyController(testLogger, fake).Create, http.MethodPost, "/parties",
		`{"name":"Midsummer","date":"2025-06-06T19:30:00Z"}`, false)
	require.Equal(t, http.StatusCreated, rr.Code)
	require.NotNil(t, fake.lastCreate.Date)
	assert.True(t, fake.lastCreate.Date.Equal(time.Date(2025, 6, 6, 19, 30, 0, 0, time.UTC)))
}

func TestPartyController_Update(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		body       string
		fakeErr    error
		wantStatus int
		wantCode   string
	}{
		{"success", "/parties/" + testPartyID, `{"status":"completed","location":"Garden"}`, nil, http.StatusOK, ""},
		{"invalid id", "/parties/p-1", `{"name":"x"}`, nil, http.StatusBadRequest, helpers.ErrCodeBadRequest},
		{"empty patch", "/parties/" + testPartyID, `{}`, nil, http.StatusBadRequest, helpers.ErrCodeBadRequest},
		{"bad status", "/parties/" + testPartyID, `{"status":"done"}`, nil, http.StatusBadRequest, helpers.ErrCodeBadRequest},
		{"not owner", "/parties/" + testPartyID, `{"name":"x"}`, fmt.Errorf("update party: %w", domain.ErrForbidden), http.StatusForbidden, helpers.ErrCodeForbidden},
		{"not found", "/parties/" + testPartyID, `{"name":"x"}`, domain.ErrNotFound, http.StatusNotFound, helpers.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakePartyService{err: tt.fakeErr, party: &domain.Party{ID: testPartyID, Status: domain.PartyCompleted}}
			ctrl := NewPartyController(testLogger, fake)

			rr := serve(t, "PATCH /parties/{id}", ctrl.Update, http.MethodPatch, tt.target, tt.body, false)

			require.Equal(t, tt.wantStatus, rr.Code)
			var got domain.Party
			apiErr := decodeData(t, rr, &got)
			if tt.wantCode != "" {
				require.NotNil(t, apiErr)
				assert.Equal(t, tt.wantCode, apiErr.Code)
				return
			}
			assert.Equal(t, domain.PartyCompleted, got.Status)
			require.NotNil(t, fake.lastPatch.Status)
			assert.Equal(t, domain.PartyCompleted, *fake.lastPatch.Status)
			require.NotNil(t, fake.lastPatch.Location)
			assert.Equal(t, "Garden", *fake.lastPatch.Location)
			assert.Nil(t, fake.lastPatch.Name)
		})
	}
}

func TestPartyController_DeleteAndBatch(t *testing.T) {
	fake := &fakePartyService{batchCount: 1}
	ctrl := NewPartyController(testLogger, fake)

	rr := serve(t, "DELETE /parties/{id}", ctrl.Delete, http.MethodDelete, "/parties/"+testPartyID, "", false)
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, testPartyID, fake.lastID)

	body := `{"ids":["` + testPartyID + `"],"status":"cancelled"}`
	rr = serve(t, "POST /parties/batch-status", ctrl.BatchStatus, http.MethodPost, "/parties/batch-status", body, false)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, domain.PartyCancelled, fake.lastStatus)
	assert.Equal(t, []string{testPartyID}, fake.lastIDs)

	rr = serve(t, "POST /parties/batch-status", ctrl.BatchStatus, http.MethodPost, "/parties/batch-status",
		`{"ids":["`+testPartyID+`"],"status":"archived"}`, false)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	fake.err = &domain.BatchError{Applied: 0, Failed: []string{testPartyID}, Err: domain.ErrForbidden}
	rr = serve(t, "POST /parties/batch-status", ctrl.BatchStatus, http.MethodPost, "/parties/batch-status", body, false)
	require.Equal(t, http.StatusMultiStatus, rr.Code)
	apiErr := decodeData(t, rr, nil)
	require.NotNil(t, apiErr)
	assert.Equal(t, helpers.ErrCodePartialFailure, apiErr.Code)
	assert.Contains(t, apiErr.Message, "forbidden")
}

func TestPartyController_Reads(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	fake := &fakePartyService{
		parties: []*domain.Party{{ID: testPartyID, Name: "Midsummer", CreatedAt: now}},
		withInvites: &domain.PartyWithInvitations{
			Party: &domain.Party{ID: testPartyID},
			Invitations: []*domain.InvitationWithContact{{
				Invitation: &domain.Invitation{ID: testInviteID, Status: domain.InvitationAttended},
				Contact:    &domain.Contact{ID: testContactID, FirstName: "Ada"},
				InvitedBy:  &domain.UserSummary{ID: testUserID, Name: "Hosty"},
			}},
		},
		stats: &domain.AttendanceStats{PartyID: testPartyID, Total: 1, ByStatus: map[domain.InvitationStatus]int{domain.InvitationAttended: 1}},
	}
	ctrl := NewPartyController(testLogger, fake)

	rr := serve(t, "GET /parties", ctrl.List, http.MethodGet, "/parties", "", false)
	require.Equal(t, http.StatusOK, rr.Code)
	var parties []domain.Party
	require.Nil(t, decodeData(t, rr, &parties))
	require.Len(t, parties, 1)

	rr = serve(t, "GET /parties/{id}/invitations", ctrl.GetWithInvitations, http.MethodGet, "/parties/"+testPartyID+"/invitations", "", false)
	require.Equal(t, http.StatusOK, rr.Code)
	var joined domain.PartyWithInvitations
	require.Nil(t, decodeData(t, rr, &joined))
	require.Len(t, joined.Invitations, 1)
	assert.Equal(t, "Hosty", joined.Invitations[0].InvitedBy.Name)
	assert.Equal(t, "Ada", joined.Invitations[0].Contact.FirstName)

	rr = serve(t, "GET /parties/{id}/stats", ctrl.Stats, http.MethodGet, "/parties/"+testPartyID+"/stats", "", false)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"by_status":{"attended":1}`)

	fake.err = domain.ErrNotFound
	rr = serve(t, "GET /parties/{id}/stats", ctrl.Stats, http.MethodGet, "/parties/"+testPartyID+"/stats", "", false)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

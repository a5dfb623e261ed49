package controllers

import (
	"net/http"
	"testing"

	"github.com/plan8/plan8-contacts/internal/delivery/http/helpers"
	"github.com/plan8/plan8-contacts/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicController_GetParty(t *testing.T) {
	parties := &fakePartyService{public: &domain.PublicParty{ID: testPartyID, Name: "Midsummer", Status: domain.PartyActive}}
	ctrl := NewPublicController(testLogger, parties, &fakeInvitationService{})

	rr := serve(t, "GET /public/parties/{partyID}", ctrl.GetParty, http.MethodGet, "/public/parties/"+testPartyID, "", true)
	require.Equal(t, http.StatusOK, rr.Code)
	var got domain.PublicParty
	require.Nil(t, decodeData(t, rr, &got))
	assert.Equal(t, "Midsummer", got.Name)
	assert.NotContains(t, rr.Body.String(), "created_by")

	parties.err = domain.ErrNotFound
	rr = serve(t, "GET /public/parties/{partyID}", ctrl.GetParty, http.MethodGet, "/public/parties/"+testPartyID, "", true)
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = serve(t, "GET /public/parties/{partyID}", ctrl.GetParty, http.MethodGet, "/public/parties/nope", "", true)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPublicController_Attend(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		fakeErr    error
		wantStatus int
		wantCode   string
		wantCalled bool
	}{
		{"success", `{"first_name":" Grace ","last_name":"Hopper","email":" grace@navy.mil "}`, nil, http.StatusOK, "", true},
		{"no email", `{"first_name":"Walk","last_name":"In"}`, nil, http.StatusOK, "", true},
		{"missing first name", `{"email":"grace@navy.mil"}`, nil, http.StatusBadRequest, helpers.ErrCodeBadRequest, false},
		{"bad email", `{"first_name":"Grace","email":"grace"}`, nil, http.StatusBadRequest, helpers.ErrCodeBadRequest, false},
		{"unknown party", `{"first_name":"Grace"}`, domain.ErrNotFound, http.StatusNotFound, helpers.ErrCodeNotFound, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			invs := &fakeInvitationService{
				err:          tt.fakeErr,
				attendResult: &domain.PublicAttendResult{ContactID: testContactID, InvitationID: testInviteID, ContactCreated: true},
			}
			ctrl := NewPublicController(testLogger, &fakePartyService{}, invs)

			rr := serve(t, "POST /public/parties/{partyID}/attend", ctrl.Attend, http.MethodPost,
				"/public/parties/"+testPartyID+"/attend", tt.body, true)

			require.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantCalled, invs.publicAttended)
			var got domain.PublicAttendResult
			apiErr := decodeData(t, rr, &got)
			if tt.wantCode != "" {
				require.NotNil(t, apiErr)
				assert.Equal(t, tt.wantCode, apiErr.Code)
				return
			}
			assert.Equal(t, testInviteID, got.InvitationID)
			assert.Equal(t, testPartyID, invs.lastAttend.PartyID)
			if tt.name == "success" {
				assert.Equal(t, domain.PublicAttendInput{
					PartyID:   testPartyID,
					FirstName: "Grace",
					LastName:  "Hopper",
					Email:     "grace@navy.mil",
				}, invs.lastAttend)
			}
		})
	}
}

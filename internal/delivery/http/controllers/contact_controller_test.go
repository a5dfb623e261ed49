package controllers

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/plan8/plan8-contacts/internal/delivery/http/helpers"
	"github.com/plan8/plan8-contacts/internal/delivery/http/middleware"
	"github.com/plan8/plan8-contacts/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactController_Create(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		fakeErr        error
		anonymous      bool
		wantStatus     int
		wantCode       string
		wantBodySubstr string
		check          func(t *testing.T, fake *fakeContactService, got domain.Contact)
	}{
		{
			name:       "success",
			body:       `{"first_name":" Ada ","last_name":"Lovelace","email":"ada@acme.io","tags":["vip"]}`,
			wantStatus: http.StatusCreated,
			check: func(t *testing.T, fake *fakeContactService, got domain.Contact) {
				assert.Equal(t, testContactID, got.ID)
				assert.Equal(t, "Ada", got.FirstName)
				assert.Equal(t, domain.SourceManual, fake.lastCreate.Source)
				assert.Equal(t, []string{"vip"}, fake.lastCreate.Tags)
				assert.Equal(t, testUserID, fake.lastCallerID)
			},
		},
		{
			name:           "missing first name",
			body:           `{"email":"ada@acme.io"}`,
			wantStatus:     http.StatusBadRequest,
			wantCode:       helpers.ErrCodeBadRequest,
			wantBodySubstr: "first_name is required",
		},
		{
			name:           "bad email",
			body:           `{"first_name":"Ada","email":"ada-at-acme"}`,
			wantStatus:     http.StatusBadRequest,
			wantCode:       helpers.ErrCodeBadRequest,
			wantBodySubstr: "invalid email format",
		},
		{
			name:           "unknown field rejected",
			body:           `{"first_name":"Ada","id":"custom"}`,
			wantStatus:     http.StatusBadRequest,
			wantCode:       helpers.ErrCodeBadRequest,
			wantBodySubstr: "unknown field",
		},
		{
			name:       "duplicate email",
			body:       `{"first_name":"Ada","email":"ada@acme.io"}`,
			fakeErr:    domain.ErrDuplicateEmail,
			wantStatus: http.StatusConflict,
			wantCode:   helpers.ErrCodeConflict,
		},
		{
			name:       "no user in context",
			body:       `{"first_name":"Ada"}`,
			anonymous:  true,
			wantStatus: http.StatusUnauthorized,
			wantCode:   helpers.ErrCodeUnauthorized,
		},
		{
			name:           "service error",
			body:           `{"first_name":"Ada"}`,
			fakeErr:        errors.New("db error"),
			wantStatus:     http.StatusInternalServerError,
			wantCode:       helpers.ErrCodeInternalError,
			wantBodySubstr: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeContactService{err: tt.fakeErr}
			ctrl := NewContactController(testLogger, fake)

			rr := serve(t, "POST /contacts", ctrl.Create, http.MethodPost, "/contacts", tt.body, tt.anonymous)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			if tt.wantBodySubstr != "" {
				assert.Contains(t, rr.Body.String(), tt.wantBodySubstr)
			}
			var got domain.Contact
			apiErr := decodeData(t, rr, &got)
			if tt.wantCode != "" {
				require.NotNil(t, apiErr)
				assert.Equal(t, tt.wantCode, apiErr.Code)
				return
			}
			require.Nil(t, apiErr)
			tt.check(t, fake, got)
		})
	}
}

func TestContactController_List(t *testing.T) {
	fake := &fakeContactService{page: &domain.ContactPage{
		Items:    []*domain.Contact{{ID: testContactID, FirstName: "Ada"}},
		Total:    21,
		Page:     3,
		PageSize: 10,
		IsDone:   true,
	}}
	ctrl := NewContactController(testLogger, fake)

	rr := serve(t, "GET /contacts", ctrl.List, http.MethodGet,
		"/contacts?search=relay&company=Acme&sort_by=email&order=asc&page=3&page_size=10", "", false)

	require.Equal(t, http.StatusOK, rr.Code)
	var got ListContactsResponse
	require.Nil(t, decodeData(t, rr, &got))
	require.Len(t, got.Items, 1)
	assert.Equal(t, helpers.PaginationMeta{Page: 3, PageSize: 10, Total: 21, TotalPages: 3}, got.Pagination)
	assert.True(t, got.IsDone)
	assert.Equal(t, domain.ContactListParams{
		Pagination: domain.PaginationParams{Page: 3, PageSize: 10},
		Search:     "relay",
		Company:    "Acme",
		SortBy:     domain.SortByEmail,
		Order:      domain.OrderAsc,
	}, fake.lastParams)

	rr = serve(t, "GET /contacts", ctrl.List, http.MethodGet, "/contacts?sort_by=age", "", false)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "unknown sort field")
}

func TestContactController_PathValidation(t *testing.T) {
	fake := &fakeContactService{contact: &domain.Contact{ID: testContactID}}
	ctrl := NewContactController(testLogger, fake)

	rr := serve(t, "GET /contacts/{id}", ctrl.Get, http.MethodGet, "/contacts/not-a-uuid", "", false)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, fake.lastID, "service must not be called")

	rr = serve(t, "GET /contacts/{id}", ctrl.Get, http.MethodGet, "/contacts/"+testContactID, "", false)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, testContactID, fake.lastID)

	fake.err = domain.ErrNotFound
	rr = serve(t, "GET /contacts/{id}", ctrl.Get, http.MethodGet, "/contacts/"+testContactID, "", false)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestContactController_Update(t *testing.T) {
	fake := &fakeContactService{contact: &domain.Contact{ID: testContactID, FirstName: "Grace"}}
	ctrl := NewContactController(testLogger, fake)

	rr := serve(t, "PATCH /contacts/{id}", ctrl.Update, http.MethodPatch, "/contacts/"+testContactID,
		`{"first_name":"Grace","tags":[]}`, false)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, fake.lastPatch.FirstName)
	assert.Equal(t, "Grace", *fake.lastPatch.FirstName)
	require.NotNil(t, fake.lastPatch.Tags)
	assert.Empty(t, *fake.lastPatch.Tags)
	assert.Nil(t, fake.lastPatch.Email)

	for name, body := range map[string]string{
		"empty patch":      `{}`,
		"blank first name": `{"first_name":"  "}`,
		"bad email":        `{"email":"nope"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rr := serve(t, "PATCH /contacts/{id}", ctrl.Update, http.MethodPatch, "/contacts/"+testContactID, body, false)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestContactController_Delete(t *testing.T) {
	fake := &fakeContactService{}
	ctrl := NewContactController(testLogger, fake)

	rr := serve(t, "DELETE /contacts/{id}", ctrl.Delete, http.MethodDelete, "/contacts/"+testContactID, "", false)
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, testContactID, fake.lastID)

	fake.err = domain.ErrNotFound
	rr = serve(t, "DELETE /contacts/{id}", ctrl.Delete, http.MethodDelete, "/contacts/"+testContactID, "", false)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestContactController_BatchDelete(t *testing.T) {
	fake := &fakeContactService{batchCount: 2}
	ctrl := NewContactController(testLogger, fake)
	body := `{"ids":["` + testContactID + `","` + testPartyID + `"]}`

	rr := serve(t, "POST /contacts/batch-delete", ctrl.BatchDelete, http.MethodPost, "/contacts/batch-delete", body, false)
	require.Equal(t, http.StatusOK, rr.Code)
	var count CountResponse
	require.Nil(t, decodeData(t, rr, &count))
	assert.Equal(t, 2, count.Count)
	assert.Equal(t, []string{testContactID, testPartyID}, fake.lastIDs)

	fake.err = &domain.BatchError{Applied: 1, Failed: []string{testPartyID}, Err: domain.ErrNotFound}
	rr = serve(t, "POST /contacts/batch-delete", ctrl.BatchDelete, http.MethodPost, "/contacts/batch-delete", body, false)
	require.Equal(t, http.StatusMultiStatus, rr.Code)
	assert.Contains(t, rr.Body.String(), helpers.ErrCodePartialFailure)
	assert.Contains(t, rr.Body.String(), `"failed":["`+testPartyID+`"]`)

	rr = serve(t, "POST /contacts/batch-delete", ctrl.BatchDelete, http.MethodPost, "/contacts/batch-delete", `{"ids":["x"]}`, false)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid ids: x")

	rr = serve(t, "POST /contacts/batch-delete", ctrl.BatchDelete, http.MethodPost, "/contacts/batch-delete", `{"ids":[]}`, false)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func importRequest(contentType, target, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", contentType)
	return req.WithContext(middleware.SetUserID(req.Context(), testUserID))
}

func TestContactController_ImportCSV(t *testing.T) {
	result := &domain.ImportResult{Imported: []string{"c-1"}, Summary: domain.ImportSummary{Total: 2, Imported: 1, Skipped: 1}}

	t.Run("csv body with auto mapping", func(t *testing.T) {
		fake := &fakeContactService{importResult: result}
		ctrl := NewContactController(testLogger, fake)
		csv := "First Name,Last Name,Email,Company\nAda,Lovelace,ada@acme.io,Acme\n,,grace.hopper@navy.mil,\n"
		rr := httptest.NewRecorder()

		ctrl.ImportCSV(rr, importRequest("text/csv; charset=utf-8", "/contacts/import/csv", csv))

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, []domain.ImportRow{
			{FirstName: "Ada", LastName: "Lovelace", Email: "ada@acme.io", Company: "Acme"},
			{FirstName: "Grace", LastName: "Hopper", Email: "grace.hopper@navy.mil"},
		}, fake.lastCSVRows)
		var got domain.ImportResult
		require.Nil(t, decodeData(t, rr, &got))
		assert.Equal(t, *result, got)
	})

	t.Run("csv body with query mapping", func(t *testing.T) {
		fake := &fakeContactService{importResult: result}
		ctrl := NewContactController(testLogger, fake)
		csv := "Namn,E-post\nAda,ada@acme.io\n"
		rr := httptest.NewRecorder()

		ctrl.ImportCSV(rr, importRequest("text/csv", "/contacts/import/csv?map.firstName=Namn&map.email=E-post", csv))

		require.Equal(t, http.StatusOK, rr.Code)
		require.Len(t, fake.lastCSVRows, 1)
		assert.Equal(t, "ada@acme.io", fake.lastCSVRows[0].Email)
	})

	t.Run("csv without email column", func(t *testing.T) {
		ctrl := NewContactController(testLogger, &fakeContactService{})
		rr := httptest.NewRecorder()
		ctrl.ImportCSV(rr, importRequest("text/csv", "/contacts/import/csv", "Name\nAda\n"))
		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "no email column found")
	})

	t.Run("csv with nothing importable", func(t *testing.T) {
		ctrl := NewContactController(testLogger, &fakeContactService{})
		rr := httptest.NewRecorder()
		ctrl.ImportCSV(rr, importRequest("text/csv", "/contacts/import/csv", "Email\n\n"))
		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "no importable rows")
	})

	t.Run("csv over the size limit is rejected, not truncated", func(t *testing.T) {
		fake := &fakeContactService{importResult: result}
		ctrl := NewContactController(testLogger, fake)
		var body strings.Builder
		body.WriteString("First Name,Email\n")
		for body.Len() < maxImportBytes {
			body.WriteString("Ada,ada@acme.io\n")
		}
		body.WriteString("Grace,grace.hopper@navy.mil\n")

		rr := httptest.NewRecorder()
		ctrl.ImportCSV(rr, importRequest("text/csv", "/contacts/import/csv", body.String()))

		require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
		assert.Contains(t, rr.Body.String(), helpers.ErrCodeTooLarge)
		assert.Nil(t, fake.lastCSVRows)
	})

	t.Run("json rows", func(t *testing.T) {
		fake := &fakeContactService{importResult: result}
		ctrl := NewContactController(testLogger, fake)
		rr := httptest.NewRecorder()
		ctrl.ImportCSV(rr, importRequest("application/json", "/contacts/import/csv",
			`{"rows":[{"first_name":"Ada","email":"ada@acme.io"}]}`))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, []domain.ImportRow{{FirstName: "Ada", Email: "ada@acme.io"}}, fake.lastCSVRows)
	})

	t.Run("json without rows", func(t *testing.T) {
		ctrl := NewContactController(testLogger, &fakeContactService{})
		rr := httptest.NewRecorder()
		ctrl.ImportCSV(rr, importRequest("application/json", "/contacts/import/csv", `{"rows":[]}`))
		require.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestContactController_ImportLinkedIn(t *testing.T) {
	fake := &fakeContactService{importResult: &domain.ImportResult{}}
	ctrl := NewContactController(testLogger, fake)
	csv := "First Name,Last Name,URL,Email Address,Company,Position,Connected On\n" +
		"María,García,https://www.linkedin.com/in/mgarcia,maria@acme.io,Acme,\"Head of Sales, EMEA\",01 Mar 2024\n"
	rr := httptest.NewRecorder()

	ctrl.ImportLinkedIn(rr, importRequest("text/csv", "/contacts/import/linkedin", csv))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []domain.LinkedInRow{{
		FirstName:   "María",
		LastName:    "García",
		Email:       "maria@acme.io",
		Company:     "Acme",
		Position:    "Head of Sales, EMEA",
		URL:         "https://www.linkedin.com/in/mgarcia",
		ConnectedOn: "01 Mar 2024",
	}}, fake.lastLinkedIn)
}

func TestContactController_Lookups(t *testing.T) {
	fake := &fakeContactService{
		companies:    []string{"Acme", "Navy"},
		users:        []domain.UserOption{{ID: testUserID, Name: "Hosty"}},
		suggestion:   "Relaystudio",
		suggestionOK: true,
	}
	ctrl := NewContactController(testLogger, fake)

	rr := serve(t, "GET /contacts/companies", ctrl.Companies, http.MethodGet, "/contacts/companies", "", false)
	require.Equal(t, http.StatusOK, rr.Code)
	var companies []string
	require.Nil(t, decodeData(t, rr, &companies))
	assert.Equal(t, []string{"Acme", "Navy"}, companies)

	rr = serve(t, "GET /contacts/created-by", ctrl.CreatedBy, http.MethodGet, "/contacts/created-by", "", false)
	require.Equal(t, http.StatusOK, rr.Code)
	var users []domain.UserOption
	require.Nil(t, decodeData(t, rr, &users))
	assert.Equal(t, fake.users, users)

	rr = serve(t, "GET /contacts/suggest-company", ctrl.SuggestCompany, http.MethodGet,
		"/contacts/suggest-company?email=jo@relaystudio.co", "", false)
	require.Equal(t, http.StatusOK, rr.Code)
	var suggestion SuggestCompanyResponse
	require.Nil(t, decodeData(t, rr, &suggestion))
	assert.Equal(t, SuggestCompanyResponse{Company: "Relaystudio", Found: true}, suggestion)
	assert.Equal(t, "jo@relaystudio.co", fake.lastSuggested)

	rr = serve(t, "GET /contacts/suggest-company", ctrl.SuggestCompany, http.MethodGet, "/contacts/suggest-company", "", false)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(t, "GET /contacts/companies", ctrl.Companies, http.MethodGet, "/contacts/companies", "", true)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

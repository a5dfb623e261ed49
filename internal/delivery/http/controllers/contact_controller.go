package controllers

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	h "github.com/plan8/plan8-contacts/internal/delivery/http/helpers"
	"github.com/plan8/plan8-contacts/internal/domain"
	"github.com/plan8/plan8-contacts/internal/importer"
)

// maxImportBytes caps CSV uploads.
const maxImportBytes = 5 << 20

// CreateContactRequest is the request body for POST /contacts.
type CreateContactRequest struct {
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone"`
	Position  string   `json:"position"`
	Company   string   `json:"company"`
	Tags      []string `json:"tags"`
	Notes     string   `json:"notes"`
}

// Validate implements Validator.
func (c CreateContactRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.FirstName) == "" {
		errs = append(errs, "first_name is required")
	}
	if c.Email != "" && !validEmail(c.Email) {
		errs = append(errs, "invalid email format")
	}
	return errs
}

// UpdateContactRequest is the request body for PATCH /contacts/{id}. Omitted fields are unchanged.
type UpdateContactRequest struct {
	domain.ContactPatch
}

// Validate implements Validator.
func (u UpdateContactRequest) Validate() []string {
	var errs []string
	if u.Empty() {
		errs = append(errs, "no fields to update")
	}
	if u.FirstName != nil && strings.TrimSpace(*u.FirstName) == "" {
		errs = append(errs, "first_name cannot be empty")
	}
	if u.Email != nil && *u.Email != "" && !validEmail(*u.Email) {
		errs = append(errs, "invalid email format")
	}
	return errs
}

// ImportContactsRequest is the JSON body of the import endpoints.
type ImportContactsRequest struct {
	Rows []importer.Record `json:"rows"`
}

// Validate implements Validator.
func (req ImportContactsRequest) Validate() []string {
	if len(req.Rows) == 0 {
		return []string{"rows must not be empty"}
	}
	return nil
}

// ListContactsResponse is the data of GET /contacts.
type ListContactsResponse struct {
	Items      []*domain.Contact `json:"items"`
	Pagination h.PaginationMeta  `json:"pagination"`
	IsDone     bool              `json:"is_done"`
}

// SuggestCompanyResponse is the data of GET /contacts/suggest-company.
type SuggestCompanyResponse struct {
	Company string `json:"company"`
	Found   bool   `json:"found"`
}

// ContactSuccessResponse is the success envelope for endpoints returning one contact.
type ContactSuccessResponse struct {
	Data  *domain.Contact `json:"data"`
	Error *h.APIError     `json:"error"`
}

// ImportSuccessResponse is the success envelope of the import endpoints.
type ImportSuccessResponse struct {
	Data  *domain.ImportResult `json:"data"`
	Error *h.APIError          `json:"error"`
}

type ContactController struct {
	Logger  *slog.Logger
	Service domain.ContactService
}

func NewContactController(logger *slog.Logger, svc domain.ContactService) *ContactController {
	return &ContactController{
		Logger:  logger,
		Service: svc,
	}
}

// List godoc
// @Summary List contacts
// @Description Paginated contacts. With search, first names are matched by word prefix and, when nothing matches, email domains are searched. Without search, company takes precedence over created_by.
// @Tags contacts
// @Produce json
// @Security BearerAuth
// @Param search query string false "Search term"
// @Param company query string false "Company filter"
// @Param created_by query string false "Creator user ID"
// @Param sort_by query string false "firstName, lastName, email, company or createdTime"
// @Param order query string false "asc or desc"
// @Param page query int false "Page (1-based)"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} helpers.APIResponse{data=controllers.ListContactsResponse}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /contacts [get]
func (c *ContactController) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	params, err := h.ParseContactList(r)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	page, err := c.Service.List(r.Context(), userID, params)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, ListContactsResponse{
		Items:      page.Items,
		Pagination: h.NewPaginationMeta(page.Page, page.PageSize, page.Total),
		IsDone:     page.IsDone,
	})
}

// Get godoc
// @Summary Get a contact
// @Tags contacts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Contact ID (UUID)"
// @Success 200 {object} controllers.ContactSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /contacts/{id} [get]
func (c *ContactController) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	contact, err := c.Service.Get(r.Context(), userID, id)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, contact)
}

// Create godoc
// @Summary Create a contact
// @Description The company is derived from the email domain when omitted. Emails are unique.
// @Tags contacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateContactRequest true "Contact"
// @Success 201 {object} controllers.ContactSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /contacts [post]
func (c *ContactController) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateContactRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	contact := &domain.Contact{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.TrimSpace(req.Email),
		Phone:     req.Phone,
		Position:  req.Position,
		Company:   strings.TrimSpace(req.Company),
		Tags:      req.Tags,
		Notes:     req.Notes,
		Source:    domain.SourceManual,
	}
	if err := c.Service.Create(r.Context(), userID, contact); err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, contact)
}

// Update godoc
// @Summary Update a contact
// @Tags contacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Contact ID (UUID)"
// @Param body body UpdateContactRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.ContactSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /contacts/{id} [patch]
func (c *ContactController) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateContactRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	contact, err := c.Service.Update(r.Context(), userID, id, req.ContactPatch)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, contact)
}

// Delete godoc
// @Summary Delete a contact
// @Description Deletes the contact and every invitation of it.
// @Tags contacts
// @Security BearerAuth
// @Param id path string true "Contact ID (UUID)"
// @Success 204
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /contacts/{id} [delete]
func (c *ContactController) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	if err := c.Service.Remove(r.Context(), userID, id); err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BatchDelete godoc
// @Summary Delete several contacts
// @Description Each id is deleted independently. When some fail the response is 207 with the applied count and failed ids.
// @Tags contacts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body IDsRequest true "Contact IDs"
// @Success 200 {object} helpers.APIResponse{data=controllers.CountResponse}
// @Success 207 {object} helpers.APIResponse{data=helpers.BatchFailure} "error.code: partial_failure"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /contacts/batch-delete [post]
func (c *ContactController) BatchDelete(w http.ResponseWriter, r *http.Request) {
	var req IDsRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	n, err := c.Service.BatchDelete(r.Context(), userID, req.IDs)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, CountResponse{Count: n})
}

// ImportCSV godoc
// @Summary Import contacts from CSV
// @Description Accepts text/csv (header row, columns detected automatically or mapped with map.<field>=<header> query parameters) or JSON rows. Existing emails are reported as duplicates.
// @Tags contacts
// @Accept json
// @Accept text/csv
// @Produce json
// @Security BearerAuth
// @Param body body ImportContactsRequest false "Rows (JSON form)"
// @Success 200 {object} controllers.ImportSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /contacts/import/csv [post]
func (c *ContactController) ImportCSV(w http.ResponseWriter, r *http.Request) {
	records, ok := c.readImport(w, r)
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	result, err := c.Service.ImportFromCSV(r.Context(), userID, importer.ToImportRows(records))
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, result)
}

// ImportLinkedIn godoc
// @Summary Import a LinkedIn connections export
// @Description Same input forms as the CSV import. Profile URL and connection date are kept in the notes.
// @Tags contacts
// @Accept json
// @Accept text/csv
// @Produce json
// @Security BearerAuth
// @Param body body ImportContactsRequest false "Rows (JSON form)"
// @Success 200 {object} controllers.ImportSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /contacts/import/linkedin [post]
func (c *ContactController) ImportLinkedIn(w http.ResponseWriter, r *http.Request) {
	records, ok := c.readImport(w, r)
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	result, err := c.Service.ImportFromLinkedIn(r.Context(), userID, importer.ToLinkedInRows(records))
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, result)
}

// readImport parses a text/csv body with the importer, or JSON rows otherwise.
func (c *ContactController) readImport(w http.ResponseWriter, r *http.Request) ([]importer.Record, bool) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "text/csv" {
		var req ImportContactsRequest
		if !h.DecodeAndValidate(w, r, &req) {
			return nil, false
		}
		return req.Rows, true
	}

	records, err := importer.Parse(http.MaxBytesReader(w, r.Body, maxImportBytes), queryMapping(r))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.WriteJSONError(w, http.StatusRequestEntityTooLarge, h.ErrCodeTooLarge, "csv upload exceeds 5 MiB")
			return nil, false
		}
		msg := err.Error()
		if errors.Is(err, importer.ErrNoEmailColumn) {
			msg = "no email column found"
		}
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, msg)
		return nil, false
	}
	if len(records) == 0 {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "no importable rows")
		return nil, false
	}
	return records, true
}

// queryMapping reads map.<field>=<header> parameters; nil means auto-detect.
func queryMapping(r *http.Request) importer.Mapping {
	fields := []importer.Field{
		importer.FieldFirstName, importer.FieldLastName, importer.FieldEmail, importer.FieldCompany,
		importer.FieldPosition, importer.FieldURL, importer.FieldConnectedOn,
	}
	var m importer.Mapping
	for _, f := range fields {
		header := r.URL.Query().Get("map." + string(f))
		if header == "" {
			continue
		}
		if m == nil {
			m = importer.Mapping{}
		}
		m[f] = header
	}
	return m
}

// Companies godoc
// @Summary List distinct companies
// @Tags contacts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse{data=[]string}
// @Router /contacts/companies [get]
func (c *ContactController) Companies(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	companies, err := c.Service.GetCompanies(r.Context(), userID)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, companies)
}

// CreatedBy godoc
// @Summary List users who created contacts
// @Tags contacts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse{data=[]domain.UserOption}
// @Router /contacts/created-by [get]
func (c *ContactController) CreatedBy(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	users, err := c.Service.GetCreatedByUsers(r.Context(), userID)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, users)
}

// SuggestCompany godoc
// @Summary Suggest a company from an email address
// @Tags contacts
// @Produce json
// @Security BearerAuth
// @Param email query string true "Email address"
// @Success 200 {object} helpers.APIResponse{data=controllers.SuggestCompanyResponse}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /contacts/suggest-company [get]
func (c *ContactController) SuggestCompany(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, "email is required")
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	company, found, err := c.Service.SuggestCompanyFromEmail(r.Context(), userID, email)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, SuggestCompanyResponse{Company: company, Found: found})
}

package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	h "github.com/plan8/plan8-contacts/internal/delivery/http/helpers"
	"github.com/plan8/plan8-contacts/internal/domain"
)

const invitationStatusHint = "status must be pending, sent, accepted, declined, maybe or attended"

// CreateInvitationRequest is the request body for POST /invitations.
type CreateInvitationRequest struct {
	PartyID   string `json:"party_id"`
	ContactID string `json:"contact_id"`
	Notes     string `json:"notes"`
}

// Validate implements Validator.
func (c CreateInvitationRequest) Validate() []string {
	var errs []string
	if c.PartyID == "" {
		errs = append(errs, "party_id is required")
	}
	if c.ContactID == "" {
		errs = append(errs, "contact_id is required")
	}
	if bad := h.InvalidUUIDs(nonEmpty(c.PartyID, c.ContactID)); len(bad) > 0 {
		errs = append(errs, "invalid ids: "+strings.Join(bad, ", "))
	}
	return errs
}

func nonEmpty(ss ...string) []string {
	var out []string
	for _, s := range ss {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// UpdateInvitationStatusRequest is the request body for PATCH /invitations/{id}/status.
type UpdateInvitationStatusRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

// Validate implements Validator.
func (u UpdateInvitationStatusRequest) Validate() []string {
	if _, err := domain.ParseInvitationStatus(u.Status); err != nil {
		return []string{invitationStatusHint}
	}
	return nil
}

// BatchInvitationStatusRequest is the request body for POST /invitations/batch-status.
type BatchInvitationStatusRequest struct {
	IDs    []string `json:"ids"`
	Status string   `json:"status"`
}

// Validate implements Validator.
func (b BatchInvitationStatusRequest) Validate() []string {
	errs := validateIDs("ids", b.IDs)
	if _, err := domain.ParseInvitationStatus(b.Status); err != nil {
		errs = append(errs, invitationStatusHint)
	}
	return errs
}

// BulkInviteRequest is the request body for POST /parties/{id}/bulk-invite.
type BulkInviteRequest struct {
	ContactIDs []string `json:"contact_ids"`
}

// Validate implements Validator.
func (b BulkInviteRequest) Validate() []string {
	return validateIDs("contact_ids", b.ContactIDs)
}

// SendInvitationsRequest is the request body for POST /parties/{id}/send-invitations.
type SendInvitationsRequest struct {
	InvitationIDs []string `json:"invitation_ids"`
}

// Validate implements Validator.
func (s SendInvitationsRequest) Validate() []string {
	return validateIDs("invitation_ids", s.InvitationIDs)
}

// BulkInviteResponse is the data of POST /parties/{id}/bulk-invite.
type BulkInviteResponse struct {
	Created []string `json:"created"`
}

// InvitationSuccessResponse is the success envelope for endpoints returning one invitation.
type InvitationSuccessResponse struct {
	Data  *domain.Invitation `json:"data"`
	Error *h.APIError        `json:"error"`
}

type InvitationController struct {
	Logger  *slog.Logger
	Service domain.InvitationService
}

func NewInvitationController(logger *slog.Logger, svc domain.InvitationService) *InvitationController {
	return &InvitationController{
		Logger:  logger,
		Service: svc,
	}
}

// ByContact godoc
// @Summary Invitations of a contact
// @Description Each invitation is joined with its party.
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Contact ID (UUID)"
// @Success 200 {object} helpers.APIResponse{data=[]domain.InvitationWithParty}
// @Router /contacts/{id}/invitations [get]
func (c *InvitationController) ByContact(w http.ResponseWriter, r *http.Request) {
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	invs, err := c.Service.GetByContact(r.Context(), userID, id)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, invs)
}

// Guests godoc
// @Summary Guest list of a party
// @Description Invitations joined with their contacts, optionally filtered by status and by a search over name, email and company.
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Party ID (UUID)"
// @Param status query string false "Invitation status"
// @Param search query string false "Search term"
// @Success 200 {object} helpers.APIResponse{data=[]domain.InvitationWithContact}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /parties/{id}/guests [get]
func (c *InvitationController) Guests(w http.ResponseWriter, r *http.Request) {
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var status *domain.InvitationStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, err := domain.ParseInvitationStatus(raw)
		if err != nil {
			h.WriteJSONError(w, http.StatusBadRequest, h.ErrCodeBadRequest, invitationStatusHint)
			return
		}
		status = &st
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	guests, err := c.Service.GetByParty(r.Context(), userID, id, status, strings.TrimSpace(r.URL.Query().Get("search")))
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, guests)
}

// Create godoc
// @Summary Invite a contact to a party
// @Tags invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateInvitationRequest true "Party and contact"
// @Success 201 {object} controllers.InvitationSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict (already invited)"
// @Router /invitations [post]
func (c *InvitationController) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateInvitationRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	inv, err := c.Service.Create(r.Context(), userID, req.PartyID, req.ContactID, req.Notes)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, inv)
}

// UpdateStatus godoc
// @Summary Set the status of an invitation
// @Description sent_at and responded_at are stamped once and never cleared.
// @Tags invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invitation ID (UUID)"
// @Param body body UpdateInvitationStatusRequest true "Status and optional notes"
// @Success 200 {object} controllers.InvitationSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /invitations/{id}/status [patch]
func (c *InvitationController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var req UpdateInvitationStatusRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	inv, err := c.Service.UpdateStatus(r.Context(), userID, id, domain.InvitationStatus(req.Status), req.Notes)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, inv)
}

// Delete godoc
// @Summary Delete an invitation
// @Tags invitations
// @Security BearerAuth
// @Param id path string true "Invitation ID (UUID)"
// @Success 204
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /invitations/{id} [delete]
func (c *InvitationController) Delete(w http.ResponseWriter, r *http.Request) {
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

// BatchStatus godoc
// @Summary Set the status of several invitations
// @Tags invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body BatchInvitationStatusRequest true "Invitation IDs and status"
// @Success 200 {object} helpers.APIResponse{data=controllers.CountResponse}
// @Success 207 {object} helpers.APIResponse{data=helpers.BatchFailure} "error.code: partial_failure"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /invitations/batch-status [post]
func (c *InvitationController) BatchStatus(w http.ResponseWriter, r *http.Request) {
	var req BatchInvitationStatusRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	n, err := c.Service.BatchUpdateStatus(r.Context(), userID, req.IDs, domain.InvitationStatus(req.Status))
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, CountResponse{Count: n})
}

// BatchDelete godoc
// @Summary Delete several invitations
// @Tags invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body IDsRequest true "Invitation IDs"
// @Success 200 {object} helpers.APIResponse{data=controllers.CountResponse}
// @Success 207 {object} helpers.APIResponse{data=helpers.BatchFailure} "error.code: partial_failure"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /invitations/batch-delete [post]
func (c *InvitationController) BatchDelete(w http.ResponseWriter, r *http.Request) {
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

// BulkInvite godoc
// @Summary Invite several contacts to a party
// @Description Contacts already invited are skipped. Returns the ids of the created invitations.
// @Tags invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Party ID (UUID)"
// @Param body body BulkInviteRequest true "Contact IDs"
// @Success 201 {object} helpers.APIResponse{data=controllers.BulkInviteResponse}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /parties/{id}/bulk-invite [post]
func (c *InvitationController) BulkInvite(w http.ResponseWriter, r *http.Request) {
	partyID, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var req BulkInviteRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	created, err := c.Service.BulkInvite(r.Context(), userID, partyID, req.ContactIDs)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	if created == nil {
		created = []string{}
	}
	h.WriteJSONSuccess(w, http.StatusCreated, BulkInviteResponse{Created: created})
}

// UndoCheckIn godoc
// @Summary Undo a check-in
// @Description Reverts an attended invitation to sent, or to pending when it was never sent.
// @Tags invitations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Invitation ID (UUID)"
// @Success 200 {object} controllers.InvitationSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request (not attended)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /invitations/{id}/undo-check-in [post]
func (c *InvitationController) UndoCheckIn(w http.ResponseWriter, r *http.Request) {
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	inv, err := c.Service.UndoCheckIn(r.Context(), userID, id)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, inv)
}

// SendInvitations godoc
// @Summary Email invitations
// @Description Sends the invitation email to each contact with an email address and marks pending invitations as sent. Only the party owner can send.
// @Tags invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Party ID (UUID)"
// @Param body body SendInvitationsRequest true "Invitation IDs"
// @Success 200 {object} helpers.APIResponse{data=domain.SendResult}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /parties/{id}/send-invitations [post]
func (c *InvitationController) SendInvitations(w http.ResponseWriter, r *http.Request) {
	partyID, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var req SendInvitationsRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	result, err := c.Service.SendInvitations(r.Context(), userID, partyID, req.InvitationIDs)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, result)
}

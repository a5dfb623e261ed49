package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	h "github.com/plan8/plan8-contacts/internal/delivery/http/helpers"
	"github.com/plan8/plan8-contacts/internal/domain"
)

// CreatePartyRequest is the request body for POST /parties.
type CreatePartyRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Date        *time.Time `json:"date"`
	Location    string     `json:"location"`
	Status      string     `json:"status"`
}

// Validate implements Validator.
func (c CreatePartyRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, "name is required")
	}
	if c.Status != "" {
		if _, err := domain.ParsePartyStatus(c.Status); err != nil {
			errs = append(errs, "status must be planning, active, completed or cancelled")
		}
	}
	return errs
}

// UpdatePartyRequest is the request body for PATCH /parties/{id}. Omitted fields are unchanged.
type UpdatePartyRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Date        *time.Time `json:"date"`
	Location    *string    `json:"location"`
	Status      *string    `json:"status"`
}

// Validate implements Validator.
func (u UpdatePartyRequest) Validate() []string {
	var errs []string
	if u.Name == nil && u.Description == nil && u.Date == nil && u.Location == nil && u.Status == nil {
		errs = append(errs, "no fields to update")
	}
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		errs = append(errs, "name cannot be empty")
	}
	if u.Status != nil {
		if _, err := domain.ParsePartyStatus(*u.Status); err != nil {
			errs = append(errs, "status must be planning, active, completed or cancelled")
		}
	}
	return errs
}

func (u UpdatePartyRequest) patch() domain.PartyPatch {
	p := domain.PartyPatch{
		Name:        u.Name,
		Description: u.Description,
		Date:        u.Date,
		Location:    u.Location,
	}
	if u.Status != nil {
		st := domain.PartyStatus(*u.Status)
		p.Status = &st
	}
	return p
}

// BatchPartyStatusRequest is the request body for POST /parties/batch-status.
type BatchPartyStatusRequest struct {
	IDs    []string `json:"ids"`
	Status string   `json:"status"`
}

// Validate implements Validator.
func (b BatchPartyStatusRequest) Validate() []string {
	errs := validateIDs("ids", b.IDs)
	if _, err := domain.ParsePartyStatus(b.Status); err != nil {
		errs = append(errs, "status must be planning, active, completed or cancelled")
	}
	return errs
}

// PartySuccessResponse is the success envelope for endpoints returning one party.
type PartySuccessResponse struct {
	Data  *domain.Party `json:"data"`
	Error *h.APIError   `json:"error"`
}

type PartyController struct {
	Logger  *slog.Logger
	Service domain.PartyService
}

func NewPartyController(logger *slog.Logger, svc domain.PartyService) *PartyController {
	return &PartyController{
		Logger:  logger,
		Service: svc,
	}
}

// List godoc
// @Summary List parties
// @Description All parties, newest first.
// @Tags parties
// @Produce json
// @Security BearerAuth
// @Success 200 {object} helpers.APIResponse{data=[]domain.Party}
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /parties [get]
func (c *PartyController) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	parties, err := c.Service.List(r.Context(), userID)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, parties)
}

// Create godoc
// @Summary Create a party
// @Description The caller becomes the owner. Status defaults to planning.
// @Tags parties
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreatePartyRequest true "Party"
// @Success 201 {object} controllers.PartySuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /parties [post]
func (c *PartyController) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePartyRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	party := &domain.Party{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Date:        req.Date,
		Location:    req.Location,
		Status:      domain.PartyStatus(req.Status),
	}
	if err := c.Service.Create(r.Context(), userID, party); err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusCreated, party)
}

// Update godoc
// @Summary Update a party
// @Description Only the owner can update.
// @Tags parties
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Party ID (UUID)"
// @Param body body UpdatePartyRequest true "Fields to update (all optional)"
// @Success 200 {object} controllers.PartySuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /parties/{id} [patch]
func (c *PartyController) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	var req UpdatePartyRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	party, err := c.Service.Update(r.Context(), userID, id, req.patch())
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, party)
}

// Delete godoc
// @Summary Delete a party
// @Description Only the owner can delete. Invitations to the party are deleted too.
// @Tags parties
// @Security BearerAuth
// @Param id path string true "Party ID (UUID)"
// @Success 204
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /parties/{id} [delete]
func (c *PartyController) Delete(w http.ResponseWriter, r *http.Request) {
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
// @Summary Set the status of several parties
// @Description Each party is updated independently under the owner rule. Partial failures return 207.
// @Tags parties
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body BatchPartyStatusRequest true "Party IDs and status"
// @Success 200 {object} helpers.APIResponse{data=controllers.CountResponse}
// @Success 207 {object} helpers.APIResponse{data=helpers.BatchFailure} "error.code: partial_failure"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /parties/batch-status [post]
func (c *PartyController) BatchStatus(w http.ResponseWriter, r *http.Request) {
	var req BatchPartyStatusRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	n, err := c.Service.BatchUpdateStatus(r.Context(), userID, req.IDs, domain.PartyStatus(req.Status))
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, CountResponse{Count: n})
}

// GetWithInvitations godoc
// @Summary Get a party with its invitations
// @Description Every invitation is joined with its contact and inviting user.
// @Tags parties
// @Produce json
// @Security BearerAuth
// @Param id path string true "Party ID (UUID)"
// @Success 200 {object} helpers.APIResponse{data=domain.PartyWithInvitations}
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /parties/{id}/invitations [get]
func (c *PartyController) GetWithInvitations(w http.ResponseWriter, r *http.Request) {
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	party, err := c.Service.GetWithInvitations(r.Context(), userID, id)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, party)
}

// Stats godoc
// @Summary Attendance statistics of a party
// @Tags parties
// @Produce json
// @Security BearerAuth
// @Param id path string true "Party ID (UUID)"
// @Success 200 {object} helpers.APIResponse{data=domain.AttendanceStats}
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /parties/{id}/stats [get]
func (c *PartyController) Stats(w http.ResponseWriter, r *http.Request) {
	id, ok := h.PathUUID(w, r, "id")
	if !ok {
		return
	}
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	stats, err := c.Service.GetAttendanceStats(r.Context(), userID, id)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, stats)
}

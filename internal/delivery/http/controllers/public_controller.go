package controllers

import (
	"log/slog"
	"net/http"
	"strings"

	h "github.com/plan8/plan8-contacts/internal/delivery/http/helpers"
	"github.com/plan8/plan8-contacts/internal/domain"
)

// AttendRequest is the request body for POST /public/parties/{partyID}/attend.
type AttendRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// Validate implements Validator.
func (a AttendRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(a.FirstName) == "" {
		errs = append(errs, "first_name is required")
	}
	if a.Email != "" && !validEmail(a.Email) {
		errs = append(errs, "invalid email format")
	}
	return errs
}

// PublicController serves the unauthenticated party page and self check-in.
type PublicController struct {
	Logger      *slog.Logger
	Parties     domain.PartyService
	Invitations domain.InvitationService
}

func NewPublicController(logger *slog.Logger, parties domain.PartyService, invitations domain.InvitationService) *PublicController {
	return &PublicController{
		Logger:      logger,
		Parties:     parties,
		Invitations: invitations,
	}
}

// GetParty godoc
// @Summary Public view of a party
// @Tags public
// @Produce json
// @Param partyID path string true "Party ID (UUID)"
// @Success 200 {object} helpers.APIResponse{data=domain.PublicParty}
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /public/parties/{partyID} [get]
func (c *PublicController) GetParty(w http.ResponseWriter, r *http.Request) {
	partyID, ok := h.PathUUID(w, r, "partyID")
	if !ok {
		return
	}
	party, err := c.Parties.GetPublic(r.Context(), partyID)
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, party)
}

// Attend godoc
// @Summary Register attendance at a party
// @Description Finds or creates the contact by email and marks their invitation as attended. Repeating the call is harmless.
// @Tags public
// @Accept json
// @Produce json
// @Param partyID path string true "Party ID (UUID)"
// @Param body body AttendRequest true "Guest details"
// @Success 200 {object} helpers.APIResponse{data=domain.PublicAttendResult}
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /public/parties/{partyID}/attend [post]
func (c *PublicController) Attend(w http.ResponseWriter, r *http.Request) {
	partyID, ok := h.PathUUID(w, r, "partyID")
	if !ok {
		return
	}
	var req AttendRequest
	if !h.DecodeAndValidate(w, r, &req) {
		return
	}
	result, err := c.Invitations.PublicAttend(r.Context(), domain.PublicAttendInput{
		PartyID:   partyID,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.TrimSpace(req.Email),
	})
	if err != nil {
		h.WriteServiceError(w, r, c.Logger, err)
		return
	}
	h.WriteJSONSuccess(w, http.StatusOK, result)
}

package controllers

import (
	"net/http"
	"regexp"
	"strings"

	h "github.com/plan8/plan8-contacts/internal/delivery/http/helpers"
	"github.com/plan8/plan8-contacts/internal/delivery/http/middleware"
)

// emailRegexp matches a simple email format (local@domain with at least one dot in domain).
var emailRegexp = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// maxBatchSize bounds the ids accepted by batch endpoints.
const maxBatchSize = 500

func validEmail(email string) bool {
	return emailRegexp.MatchString(strings.TrimSpace(email))
}

// callerID returns the authenticated user or writes a 401.
func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "unauthorized")
	}
	return id, ok
}

// IDsRequest is the body of the batch endpoints.
type IDsRequest struct {
	IDs []string `json:"ids"`
}

// Validate implements Validator.
func (req IDsRequest) Validate() []string {
	return validateIDs("ids", req.IDs)
}

func validateIDs(field string, ids []string) []string {
	var errs []string
	if len(ids) == 0 {
		errs = append(errs, field+" must not be empty")
	}
	if len(ids) > maxBatchSize {
		errs = append(errs, field+" exceeds the batch limit")
	}
	if bad := h.InvalidUUIDs(ids); len(bad) > 0 {
		errs = append(errs, field+" contains invalid ids: "+strings.Join(bad, ", "))
	}
	return errs
}

// CountResponse is the data of endpoints that report how many rows they changed.
type CountResponse struct {
	Count int `json:"count"`
}

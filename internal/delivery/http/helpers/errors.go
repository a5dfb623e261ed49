package helpers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/plan8/plan8-contacts/internal/domain"
)

// internalErrorMessage replaces the cause of a 500, which is only logged.
const internalErrorMessage = "internal server error"

// BatchFailure is the data of a partial_failure response.
// swagger:model BatchFailure
type BatchFailure struct {
	Applied int      `json:"applied"`
	Failed  []string `json:"failed"`
}

// WriteServiceError maps a service error onto the response envelope.
// Errors outside the domain sentinels are logged and returned as 500.
func WriteServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var batchErr *domain.BatchError
	switch {
	case errors.As(err, &batchErr):
		writeJSON(w, http.StatusMultiStatus, APIResponse{
			Data:  BatchFailure{Applied: batchErr.Applied, Failed: batchErr.Failed},
			Error: &APIError{Code: ErrCodePartialFailure, Message: err.Error()},
		})
	case errors.Is(err, domain.ErrInvalidInput):
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrInvalidCredentials):
		WriteJSONError(w, http.StatusUnauthorized, ErrCodeUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		WriteJSONError(w, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		WriteJSONError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, domain.ErrDuplicateEmail), errors.Is(err, domain.ErrDuplicateInvitation):
		WriteJSONError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		WriteJSONError(w, http.StatusInternalServerError, ErrCodeInternalError, internalErrorMessage)
	}
}

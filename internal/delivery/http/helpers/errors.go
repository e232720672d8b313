package helpers

import (
	"errors"
	"log/slog"
	"net/http"

	"eventticketing/internal/domain"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// errorMappings is checked in order; the first errors.Is match wins.
var errorMappings = []errorMapping{
	{domain.ErrValidation, http.StatusBadRequest, ErrCodeBadRequest},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, ErrCodeUnauthorized},
	{domain.ErrForbidden, http.StatusForbidden, ErrCodeForbidden},
	{domain.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
	{domain.ErrAlreadyRegistered, http.StatusConflict, ErrCodeAlreadyRegistered},
	{domain.ErrDuplicateEmail, http.StatusConflict, ErrCodeConflict},
	{domain.ErrSoldOut, http.StatusConflict, ErrCodeSoldOut},
	{domain.ErrEventHasTickets, http.StatusConflict, ErrCodeEventHasTickets},
	{domain.ErrPaymentFailed, http.StatusBadRequest, ErrCodePaymentFailed},
	{domain.ErrTicketMismatch, http.StatusBadRequest, ErrCodeTicketMismatch},
	{domain.ErrTicketAlreadyUsed, http.StatusBadRequest, ErrCodeTicketAlreadyUsed},
}

// StatusForError returns the HTTP status and error code for a service error.
// Errors that match no domain sentinel are internal.
func StatusForError(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, ErrCodeInternalError
}

// WriteServiceError writes the envelope for err. Internal failures are logged and
// their details are kept out of the response body.
func WriteServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, code := StatusForError(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		WriteJSONError(w, status, code, "internal server error")
		return
	}
	WriteJSONError(w, status, code, err.Error())
}

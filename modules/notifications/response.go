package notifications

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fieldops/notify/pkg/binder"
	"github.com/fieldops/notify/pkg/directory"
	"github.com/fieldops/notify/pkg/jwt"
	"github.com/fieldops/notify/pkg/notifications"
)

// errInvalidQuery marks malformed or missing query parameters.
var errInvalidQuery = errors.New("invalid query parameter")

// envelope is the uniform response body for every endpoint.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: status < 400, Data: data})
}

func respondError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Success: false, Message: err.Error()})
}

// statusForError maps domain sentinels onto HTTP statuses. Anything
// unrecognized is an internal error.
func statusForError(err error) int {
	switch {
	case errors.Is(err, notifications.ErrNotificationNotFound),
		errors.Is(err, notifications.ErrTemplateNotFound),
		errors.Is(err, directory.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, errInvalidQuery),
		errors.Is(err, notifications.ErrNoRecipients),
		errors.Is(err, notifications.ErrInvalidChannel),
		errors.Is(err, notifications.ErrMissingID),
		errors.Is(err, binder.ErrInvalidJSON),
		errors.Is(err, binder.ErrUnsupportedMediaType),
		errors.Is(err, binder.ErrBodyTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, jwt.ErrInvalidToken),
		errors.Is(err, jwt.ErrExpiredToken),
		errors.Is(err, jwt.ErrInvalidSignature),
		errors.Is(err, jwt.ErrUnexpectedSigningMethod),
		errors.Is(err, jwt.ErrMissingToken):
		return http.StatusUnauthorized
	case errors.Is(err, notifications.ErrFanoutUnavailable),
		errors.Is(err, directory.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

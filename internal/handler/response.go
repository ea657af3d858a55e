// Package handler provides HTTP handlers for the Stockroom API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/stockroom-io/stockroom/internal/domain"
)

// MessageResponse is the {message} envelope used for every non-collection
// response: creation confirmations, update confirmations and errors alike.
type MessageResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, MessageResponse{Message: message})
}

// respondError maps a domain error to its HTTP status and client-facing
// message. Validation failures, missing records and empty collections all
// surface as 400 with the operation's exact message; uniqueness conflicts
// are 409.
func respondError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrUsernameTaken), errors.Is(err, domain.ErrTitleTaken):
		respondMessage(w, http.StatusConflict, err.Error())

	case errors.Is(err, domain.ErrMissingFields),
		errors.Is(err, domain.ErrInvalidData):
		respondMessage(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, domain.ErrUserNotFound):
		respondMessage(w, http.StatusBadRequest, "User not found")

	case errors.Is(err, domain.ErrProductNotFound):
		respondMessage(w, http.StatusBadRequest, "Product not found")

	case errors.Is(err, domain.ErrNoUsers):
		respondMessage(w, http.StatusBadRequest, "No users found")

	case errors.Is(err, domain.ErrNoProducts):
		respondMessage(w, http.StatusBadRequest, "No products found")

	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrUserInactive):
		respondMessage(w, http.StatusUnauthorized, "Unauthorized")

	default:
		logger.Error().Err(err).Msg("request failed")
		respondMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON decodes a request body into dst. Callers report a decode
// failure with their operation's required-fields message, since a malformed
// body and missing fields are indistinguishable to the client.
func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

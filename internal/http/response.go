package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fjod/go_grocery/internal/checkout"
	"github.com/fjod/go_grocery/internal/domain"
	"github.com/fjod/go_grocery/internal/repository"
	"github.com/fjod/go_grocery/pkg/logger"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Base().Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError maps service errors to HTTP responses. Only validation
// messages reach the client verbatim.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation):
		respondError(w, http.StatusUnprocessableEntity, "validation_failed", validation.Msg)
	case domain.IsGateway(err):
		logger.FromCtx(r.Context()).WarnContext(r.Context(), "payment gateway error", "error", err)
		respondError(w, http.StatusBadGateway, "payment_gateway_error", "payment gateway unavailable, please try again")
	case errors.Is(err, domain.ErrSignatureMismatch):
		respondError(w, http.StatusBadRequest, "payment_verification_failed", "payment verification failed")
	case errors.Is(err, checkout.ErrConfirmationInProgress):
		respondError(w, http.StatusConflict, "confirmation_in_progress", "payment confirmation already in progress")
	case errors.Is(err, repository.ErrCartConflict):
		respondError(w, http.StatusConflict, "cart_conflict", "cart changed concurrently, please retry")
	case errors.Is(err, repository.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "not_found", "order not found")
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		logger.FromCtx(r.Context()).ErrorContext(r.Context(), "request failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

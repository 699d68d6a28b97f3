package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/ruelux/pos/internal/cart"
	"github.com/ruelux/pos/internal/catalog"
	"github.com/ruelux/pos/internal/erp"
	"github.com/ruelux/pos/internal/middleware"
	"github.com/ruelux/pos/internal/service"
	"github.com/ruelux/pos/internal/workflow"
)

// errorStatus maps a domain or backend error onto an HTTP status.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, erp.ErrUnauthorized), errors.Is(err, erp.ErrNoSession):
		return http.StatusUnauthorized
	case errors.Is(err, workflow.ErrRoleNotPermitted), errors.Is(err, workflow.ErrCannotApprove):
		return http.StatusForbidden
	case errors.Is(err, workflow.ErrInvalidTransition),
		errors.Is(err, workflow.ErrUnknownState),
		errors.Is(err, workflow.ErrStateChanged),
		errors.Is(err, erp.ErrConflict),
		errors.Is(err, erp.ErrApprovalContention),
		errors.Is(err, cart.ErrCheckoutPending):
		return http.StatusConflict
	case errors.Is(err, erp.ErrNotFound), errors.Is(err, catalog.ErrItemNotFound):
		return http.StatusNotFound
	case isValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

// isValidationError checks if the error is a known validation error that
// should result in 400 Bad Request.
func isValidationError(err error) bool {
	return service.IsValidationError(err) ||
		errors.Is(err, cart.ErrInvalidItem) ||
		errors.Is(err, cart.ErrIndexOutOfRange)
}

// errorBody builds the response body for err. Backend failures are logged
// here and reported generically.
func errorBody(err error, op string) (int, map[string]interface{}) {
	status := errorStatus(err)
	body := map[string]interface{}{}
	switch status {
	case http.StatusBadGateway:
		log.Error().Err(err).Str("op", op).Msg("backend request failed")
		body["error"] = "backend request failed"
	case http.StatusGatewayTimeout:
		log.Warn().Err(err).Str("op", op).Msg("backend request timed out")
		body["error"] = "backend request timed out"
	case http.StatusUnauthorized:
		body["error"] = "session expired"
		body["login"] = middleware.LoginPath
	default:
		body["error"] = err.Error()
	}
	return status, body
}

func writeError(w http.ResponseWriter, err error, op string) {
	status, body := errorBody(err, op)
	writeJSON(w, status, body)
}

func writeUnauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated", "login": middleware.LoginPath})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"eventbooking/internal/delivery/http/helpers"
	"eventbooking/internal/delivery/http/middleware"
	"eventbooking/internal/domain"
)

// writeError maps a service error to its HTTP status and error code. Unknown errors
// are logged and reported as a generic 500 so internals never reach the client.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var derr *domain.Error
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "Invalid credentials")
	case errors.Is(err, domain.ErrAccountInactive):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "Account is not active. Please verify your email.")
	case errors.As(err, &derr) && errors.Is(derr.Kind, domain.ErrUnauthenticated):
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, derr.Message)
	case errors.Is(err, domain.ErrUnauthenticated):
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "authentication required")
	case errors.Is(err, domain.ErrForbidden):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "you do not have permission to perform this action")
	case errors.Is(err, domain.ErrNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "not found")
	case errors.As(err, &derr) && errors.Is(derr.Kind, domain.ErrConflict):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, derr.Message)
	case errors.As(err, &derr) && errors.Is(derr.Kind, domain.ErrInvalidInput):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, derr.Message)
	case errors.Is(err, domain.ErrUpstream):
		logger.ErrorContext(r.Context(), "upstream provider failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeUpstream, "external provider request failed")
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "internal server error")
	}
}

// currentUser returns the authenticated user. Routes behind RequireAuth always have one.
func currentUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	u := middleware.UserFromContext(r.Context())
	if u == nil {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return nil, false
	}
	return u, true
}

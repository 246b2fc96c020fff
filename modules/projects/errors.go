package projects

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrymomot/projectquota/handler"
	"github.com/dmitrymomot/projectquota/pkg/entitlement"
	"github.com/dmitrymomot/projectquota/pkg/jwt"
)

// Error codes returned in the "error" field of failed responses.
var (
	ErrLimitReached        = handler.NewHTTPError(http.StatusForbidden, "LIMIT_REACHED")
	ErrInvalidProject      = handler.NewHTTPError(http.StatusUnprocessableEntity, "PROJECT_CREATE_FAILED")
	ErrProjectCreateFailed = handler.NewHTTPError(http.StatusInternalServerError, "PROJECT_CREATE_FAILED")
	ErrLedgerFailed        = handler.NewHTTPError(http.StatusInternalServerError, "LEDGER_FAILED")
	ErrPlanNotFound        = handler.NewHTTPError(http.StatusInternalServerError, "PLAN_NOT_FOUND")
	ErrStorageUnavailable  = handler.NewHTTPError(http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE")
	ErrLimitsUnavailable   = handler.NewHTTPError(http.StatusInternalServerError, "LIMITS_UNAVAILABLE")
)

// MapError translates entitlement and authentication errors into HTTP
// errors. Transient storage failures are checked before the operation
// errors they are joined with, so a retryable failure is always a 503.
func MapError(err error) (handler.HTTPError, bool) {
	switch {
	case isAuthError(err):
		return handler.ErrUnauthorized, true
	case errors.Is(err, entitlement.ErrLimitReached):
		return ErrLimitReached, true
	case errors.Is(err, entitlement.ErrPlanNotFound):
		return ErrPlanNotFound, true
	case errors.Is(err, entitlement.ErrStorageUnavailable), errors.Is(err, context.DeadlineExceeded):
		return ErrStorageUnavailable, true
	case errors.Is(err, entitlement.ErrInvalidPayload):
		return ErrInvalidProject, true
	case errors.Is(err, entitlement.ErrLedgerFailed):
		return ErrLedgerFailed, true
	case errors.Is(err, entitlement.ErrProjectCreateFailed):
		return ErrProjectCreateFailed, true
	case errors.Is(err, entitlement.ErrFailedToComputeLimits):
		return ErrLimitsUnavailable, true
	}
	return handler.HTTPError{}, false
}

func isAuthError(err error) bool {
	return errors.Is(err, jwt.ErrMissingToken) ||
		errors.Is(err, jwt.ErrInvalidToken) ||
		errors.Is(err, jwt.ErrExpiredToken) ||
		errors.Is(err, jwt.ErrInvalidSignature) ||
		errors.Is(err, jwt.ErrInvalidSubject)
}

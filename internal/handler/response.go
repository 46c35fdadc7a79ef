package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dispatch/internal/repository"
	"dispatch/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidPassengerID),
		errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidDriverName),
		errors.Is(err, service.ErrInvalidTripID),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrInvalidDistance),
		errors.Is(err, service.ErrInvalidFareRange),
		errors.Is(err, service.ErrInvalidPaymentAmount),
		errors.Is(err, service.ErrInvalidPeriod):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrActiveTripExists),
		errors.Is(err, service.ErrFareRangeOverlap),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrTripAlreadyAccepted),
		errors.Is(err, service.ErrTripNoLongerPending):
		return http.StatusConflict

	// Forbidden/Business rule errors
	case errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, service.ErrAccountLocked):
		return http.StatusForbidden

	// Preconditions missing
	case errors.Is(err, service.ErrNoDriverLocation),
		errors.Is(err, service.ErrNoPricingData):
		return http.StatusUnprocessableEntity

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}

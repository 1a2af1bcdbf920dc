// Package errors writes JSON error responses.
package errors

import (
	"errors"
	"net/http"

	sentryecho "github.com/getsentry/sentry-go/echo"
	"github.com/labstack/echo/v4"

	"github.com/jordanlanch/recoverydesk/pkg/domain"
	"github.com/jordanlanch/recoverydesk/pkg/logger"
	"github.com/jordanlanch/recoverydesk/pkg/models"
)

var log = logger.Nop()

// SetLogger sets the logger used for errors that are not shown to clients.
func SetLogger(l logger.Logger) {
	log = l
}

// ValidationError returns 400 with the validation message. Validation
// messages are written by this service and are safe to expose.
func ValidationError(c echo.Context, message string) error {
	return ValidationFieldsError(c, message, nil)
}

// ValidationFieldsError is ValidationError plus the failed rule per field.
func ValidationFieldsError(c echo.Context, message string, fields map[string]string) error {
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "validation_error",
		Message: message,
		Fields:  fields,
	})
}

// InternalError returns a generic internal server error
func InternalError(c echo.Context, err error) error {
	log.Error("internal error", "path", c.Request().URL.Path, "method", c.Request().Method, "error", err)
	if hub := sentryecho.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}

	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred. Please try again later.",
	})
}

// UnauthorizedError returns a generic unauthorized error
func UnauthorizedError(c echo.Context, code, message string) error {
	if code == "" {
		code = "unauthorized"
	}
	if message == "" {
		message = "You are not authorized to access this resource."
	}
	return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: code, Message: message})
}

// ForbiddenError returns a generic forbidden error
func ForbiddenError(c echo.Context) error {
	return c.JSON(http.StatusForbidden, models.ErrorResponse{
		Error:   "forbidden",
		Message: "You do not have permission to access this resource.",
	})
}

// NotFoundError returns 404 naming the missing resource.
func NotFoundError(c echo.Context, message string) error {
	if message == "" {
		message = "The requested resource was not found."
	}
	return c.JSON(http.StatusNotFound, models.ErrorResponse{
		Error:   "not_found",
		Message: message,
	})
}

// ConflictError returns a conflict error
func ConflictError(c echo.Context, message string) error {
	return c.JSON(http.StatusConflict, models.ErrorResponse{
		Error:   "conflict",
		Message: message,
	})
}

// Respond maps a service error to its HTTP response. Errors that are not
// domain errors are treated as internal.
func Respond(c echo.Context, err error) error {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		return InternalError(c, err)
	}
	switch de.Code {
	case domain.ErrCodeValidation:
		return ValidationFieldsError(c, de.Message, de.Fields)
	case domain.ErrCodeNotFound:
		return NotFoundError(c, de.Message)
	case domain.ErrCodeConflict:
		return ConflictError(c, de.Message)
	case domain.ErrCodeForbidden:
		return ForbiddenError(c)
	case domain.ErrCodeUnauthorized:
		return UnauthorizedError(c, "", "")
	default:
		return InternalError(c, err)
	}
}

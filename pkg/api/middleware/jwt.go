// Package middleware holds the echo middleware of the API.
package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apierrors "github.com/jordanlanch/recoverydesk/pkg/api/errors"
	"github.com/jordanlanch/recoverydesk/pkg/auth"
	"github.com/jordanlanch/recoverydesk/pkg/models"
)

const callerKey = "caller"

// JWTMiddleware authenticates the bearer token and stores the caller on the
// request context.
func JWTMiddleware(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return apierrors.UnauthorizedError(c, "missing_token", "Authorization header is required")
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return apierrors.UnauthorizedError(c, "invalid_token_format", "Authorization header must be 'Bearer {token}'")
			}

			claims, err := auth.ValidateJWT(parts[1], secret)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "invalid_token",
					Message: err.Error(),
				})
			}

			SetCaller(c, claims.Caller())
			return next(c)
		}
	}
}

// SetCaller stores caller on the context.
func SetCaller(c echo.Context, caller models.Caller) {
	c.Set(callerKey, caller)
}

// CallerFrom returns the authenticated caller.
func CallerFrom(c echo.Context) (models.Caller, bool) {
	caller, ok := c.Get(callerKey).(models.Caller)
	return caller, ok
}

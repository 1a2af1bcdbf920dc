package middleware

import (
	"github.com/labstack/echo/v4"

	apierrors "github.com/jordanlanch/recoverydesk/pkg/api/errors"
	"github.com/jordanlanch/recoverydesk/pkg/models"
)

// RequireRole lets the request through only when the caller holds one of roles.
// Apply it after JWTMiddleware.
func RequireRole(roles ...models.Role) echo.MiddlewareFunc {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller, ok := CallerFrom(c)
			if !ok {
				return apierrors.UnauthorizedError(c, "", "Authentication required")
			}
			if _, ok := allowed[caller.Role]; !ok {
				return apierrors.ForbiddenError(c)
			}
			return next(c)
		}
	}
}

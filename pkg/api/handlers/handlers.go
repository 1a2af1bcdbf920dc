// Package handlers implements the HTTP endpoints of the API.
package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/jordanlanch/recoverydesk/pkg/api/middleware"
	"github.com/jordanlanch/recoverydesk/pkg/models"
)

// requestTimeout bounds the store work of a single request.
const requestTimeout = 30 * time.Second

// caller returns the authenticated caller. Routes are registered behind
// JWTMiddleware so a missing caller is a wiring bug and answered with 401.
func caller(c echo.Context) (models.Caller, error) {
	cl, ok := middleware.CallerFrom(c)
	if !ok {
		return models.Caller{}, c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "unauthorized",
			Message: "Authentication required",
		})
	}
	return cl, nil
}

// parsePeriod reads the optional RFC3339 "from" and "to" query parameters.
func parsePeriod(c echo.Context) (models.Period, error) {
	var p models.Period
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return p, err
		}
		p.From = t.UTC()
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return p, err
		}
		p.To = t.UTC()
	}
	return p, nil
}

func invalidPeriod(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "invalid_period",
		Message: "from and to must be RFC3339 timestamps",
	})
}

func invalidRequest(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "invalid_request",
		Message: "Invalid request body",
	})
}

// partialHeader marks responses built from incomplete source data.
const partialHeader = "X-Partial-Data"

func markPartial(c echo.Context, partial bool) {
	if partial {
		c.Response().Header().Set(partialHeader, "true")
	}
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	apierrors "github.com/jordanlanch/recoverydesk/pkg/api/errors"
	"github.com/jordanlanch/recoverydesk/pkg/models"
	"github.com/jordanlanch/recoverydesk/pkg/teammetrics"
	"github.com/jordanlanch/recoverydesk/pkg/telecaller"
)

// MetricsHandler serves team and telecaller dashboards.
type MetricsHandler struct {
	teams       *teammetrics.Service
	telecallers *telecaller.Service
}

// NewMetricsHandler creates a new metrics handler.
func NewMetricsHandler(teams *teammetrics.Service, telecallers *telecaller.Service) *MetricsHandler {
	return &MetricsHandler{teams: teams, telecallers: telecallers}
}

// AllTeams godoc
// @Summary Metrics for every team of the tenant
// @Tags Metrics
// @Produce json
// @Param from query string false "RFC3339 lower bound (inclusive)"
// @Param to query string false "RFC3339 upper bound (exclusive)"
// @Success 200 {array} models.TeamMetrics
// @Security BearerAuth
// @Router /api/v1/teams/metrics [get]
func (h *MetricsHandler) AllTeams(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}
	period, err := parsePeriod(c)
	if err != nil {
		return invalidPeriod(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	metrics := h.teams.ComputeAllTeams(ctx, cl.TenantID, period)
	for _, m := range metrics {
		markPartial(c, m.Partial)
	}
	return c.JSON(http.StatusOK, map[string]any{"teams": metrics})
}

// Team godoc
// @Summary Metrics for one team
// @Tags Metrics
// @Produce json
// @Param id path string true "Team ID"
// @Param from query string false "RFC3339 lower bound (inclusive)"
// @Param to query string false "RFC3339 upper bound (exclusive)"
// @Success 200 {object} models.TeamMetrics
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/teams/{id}/metrics [get]
func (h *MetricsHandler) Team(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}
	period, err := parsePeriod(c)
	if err != nil {
		return invalidPeriod(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	m, err := h.teams.ComputeTeamMetricsByID(ctx, cl.TenantID, c.Param("id"), period)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	markPartial(c, m.Partial)
	return c.JSON(http.StatusOK, m)
}

// Telecaller returns a telecaller's metrics. Telecallers may only read their own.
func (h *MetricsHandler) Telecaller(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}
	id := c.Param("id")
	if cl.Role == models.RoleTelecaller && cl.EmployeeID != id {
		return apierrors.ForbiddenError(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	m, err := h.telecallers.ComputeTelecallerMetrics(ctx, cl.TenantID, id, time.Time{})
	if err != nil {
		return apierrors.Respond(c, err)
	}
	markPartial(c, m.Partial)
	return c.JSON(http.StatusOK, m)
}

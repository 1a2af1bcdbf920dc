package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	apierrors "github.com/jordanlanch/recoverydesk/pkg/api/errors"
	"github.com/jordanlanch/recoverydesk/pkg/reports"
)

// ReportHandler serves file downloads.
type ReportHandler struct {
	reports *reports.Service
}

// NewReportHandler creates a new report handler.
func NewReportHandler(svc *reports.Service) *ReportHandler {
	return &ReportHandler{reports: svc}
}

func sendFile(c echo.Context, f reports.File) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", f.Name))
	markPartial(c, f.Partial)
	return c.Blob(http.StatusOK, f.ContentType, f.Data)
}

// TeamCases godoc
// @Summary Download the case report of a team
// @Tags Reports
// @Produce octet-stream
// @Param id path string true "Team ID"
// @Param format query string false "csv (default) or excel"
// @Success 200 {file} file
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/reports/teams/{id}/cases [get]
func (h *ReportHandler) TeamCases(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}
	format, err := reports.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return apierrors.Respond(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	file, err := h.reports.ExportTeamCases(ctx, cl.TenantID, c.Param("id"), format)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return sendFile(c, file)
}

// Payments downloads every payment recorded in the optional from/to period.
func (h *ReportHandler) Payments(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}
	format, err := reports.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return apierrors.Respond(c, err)
	}
	period, err := parsePeriod(c)
	if err != nil {
		return invalidPeriod(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	file, err := h.reports.ExportPayments(ctx, cl.TenantID, period, format)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return sendFile(c, file)
}

// TeamPerformance downloads the metrics of every team.
func (h *ReportHandler) TeamPerformance(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}
	format, err := reports.ParseFormat(c.QueryParam("format"))
	if err != nil {
		return apierrors.Respond(c, err)
	}
	period, err := parsePeriod(c)
	if err != nil {
		return invalidPeriod(c)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	file, err := h.reports.ExportTeamPerformance(ctx, cl.TenantID, period, format)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return sendFile(c, file)
}

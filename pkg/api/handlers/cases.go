package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	apierrors "github.com/jordanlanch/recoverydesk/pkg/api/errors"
	"github.com/jordanlanch/recoverydesk/pkg/assignment"
	"github.com/jordanlanch/recoverydesk/pkg/caseagg"
	"github.com/jordanlanch/recoverydesk/pkg/domain"
	"github.com/jordanlanch/recoverydesk/pkg/models"
	"github.com/jordanlanch/recoverydesk/pkg/progress"
)

// ProgressReader reads bulk operation progress.
type ProgressReader interface {
	Get(ctx context.Context, tenantID, operationID string) (models.OperationReport, error)
	List(ctx context.Context, tenantID string) ([]models.OperationReport, error)
}

// CaseHandler serves case listings, bulk operations and payments.
type CaseHandler struct {
	cases    *caseagg.Service
	operator *assignment.Operator
	progress ProgressReader
}

// NewCaseHandler creates a new case handler.
func NewCaseHandler(cases *caseagg.Service, operator *assignment.Operator, progress ProgressReader) *CaseHandler {
	return &CaseHandler{cases: cases, operator: operator, progress: progress}
}

// TeamCases godoc
// @Summary List the enriched cases of a team
// @Tags Cases
// @Produce json
// @Param id path string true "Team ID"
// @Success 200 {object} caseagg.CaseList
// @Security BearerAuth
// @Router /api/v1/teams/{id}/cases [get]
func (h *CaseHandler) TeamCases(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	list := h.cases.CasesForTeam(ctx, cl.TenantID, c.Param("id"))
	markPartial(c, list.Partial)
	return c.JSON(http.StatusOK, list)
}

// TelecallerCases godoc
// @Summary List the enriched cases of a telecaller by employee code
// @Tags Cases
// @Produce json
// @Param code path string true "Employee code"
// @Success 200 {object} caseagg.CaseList
// @Security BearerAuth
// @Router /api/v1/telecallers/{code}/cases [get]
func (h *CaseHandler) TelecallerCases(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	code := c.Param("code")
	if err := h.cases.AuthorizeTelecallerCases(ctx, cl, code); err != nil {
		return apierrors.Respond(c, err)
	}
	list := h.cases.CasesForTelecaller(ctx, cl.TenantID, code)
	markPartial(c, list.Partial)
	return c.JSON(http.StatusOK, list)
}

// Reconciliation compares a case's stored collected total with its payment logs.
func (h *CaseHandler) Reconciliation(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	rec, err := h.cases.Reconcile(ctx, cl.TenantID, c.Param("id"))
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

// BulkRequest is the body of POST /cases/bulk.
type BulkRequest struct {
	CaseIDs      []string `json:"case_ids" validate:"max=10000"`
	Operation    string   `json:"operation" validate:"required"`
	TelecallerID string   `json:"telecaller_id,omitempty"`
	TeamID       string   `json:"team_id,omitempty"`
	// Wait runs the operation inside the request and returns the final report.
	Wait bool `json:"wait,omitempty"`
}

// BulkAccepted is returned when an operation was started in the background.
type BulkAccepted struct {
	OperationID string               `json:"operation_id"`
	Operation   models.BulkOperation `json:"operation"`
	Total       int                  `json:"total"`
	StatusURL   string               `json:"status_url"`
}

// BulkOperation godoc
// @Summary Assign, unassign, reassign or delete cases in bulk
// @Description Validates the request, then processes the cases one at a time. The operation runs in
// @Description the background unless wait is set; progress is available under status_url.
// @Tags Cases
// @Accept json
// @Produce json
// @Param request body BulkRequest true "Bulk operation"
// @Success 200 {object} models.OperationReport
// @Success 202 {object} BulkAccepted
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/cases/bulk [post]
func (h *CaseHandler) BulkOperation(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}

	var req BulkRequest
	if err := c.Bind(&req); err != nil {
		return invalidRequest(c)
	}
	if err := domain.Validate(req); err != nil {
		return apierrors.Respond(c, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	plan, err := h.operator.Prepare(ctx, cl.TenantID, req.CaseIDs, models.BulkOperation(req.Operation), models.BulkParams{
		TelecallerID: req.TelecallerID,
		TeamID:       req.TeamID,
	})
	if err != nil {
		return apierrors.Respond(c, err)
	}

	if req.Wait {
		return c.JSON(http.StatusOK, h.operator.Run(c.Request().Context(), plan))
	}

	accepted := BulkAccepted{
		OperationID: plan.Report.OperationID,
		Operation:   plan.Report.Operation,
		Total:       plan.Report.Total,
		StatusURL:   "/api/v1/bulk-operations/" + plan.Report.OperationID,
	}
	h.operator.Start(plan)
	return c.JSON(http.StatusAccepted, accepted)
}

// BulkOperationStatus returns the progress report of one operation.
func (h *CaseHandler) BulkOperationStatus(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}
	report, err := h.progress.Get(c.Request().Context(), cl.TenantID, c.Param("id"))
	if errors.Is(err, progress.ErrNotFound) {
		return apierrors.NotFoundError(c, "bulk operation not found")
	}
	if err != nil {
		return apierrors.InternalError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

// ListBulkOperations returns the tenant's recent operations, newest first.
func (h *CaseHandler) ListBulkOperations(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}
	reports, err := h.progress.List(c.Request().Context(), cl.TenantID)
	if err != nil {
		return apierrors.InternalError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"operations": reports})
}

// CancelBulkOperation stops a running background operation.
func (h *CaseHandler) CancelBulkOperation(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}
	if !h.operator.Cancel(cl.TenantID, c.Param("id")) {
		return apierrors.NotFoundError(c, "no running bulk operation with this id")
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "cancelling"})
}

// RecordPayment godoc
// @Summary Record a payment against a case
// @Tags Cases
// @Accept json
// @Produce json
// @Param id path string true "Case ID"
// @Param request body models.PaymentRequest true "Payment"
// @Success 201 {object} models.PaymentResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /api/v1/cases/{id}/payments [post]
func (h *CaseHandler) RecordPayment(c echo.Context) error {
	cl, err := caller(c)
	if err != nil {
		return err
	}

	var req models.PaymentRequest
	if err := c.Bind(&req); err != nil {
		return invalidRequest(c)
	}
	req.CaseID = c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	result, err := h.operator.RecordPayment(ctx, cl.TenantID, cl, req)
	if err != nil {
		return apierrors.Respond(c, err)
	}
	return c.JSON(http.StatusCreated, result)
}

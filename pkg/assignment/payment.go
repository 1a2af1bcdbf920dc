package assignment

import (
	"context"
	"errors"
	"math"

	"github.com/shopspring/decimal"

	"github.com/jordanlanch/recoverydesk/pkg/casefields"
	"github.com/jordanlanch/recoverydesk/pkg/domain"
	"github.com/jordanlanch/recoverydesk/pkg/models"
	"github.com/jordanlanch/recoverydesk/pkg/store"
)

// RecordPayment appends a PAYMENT_RECEIVED call log and bumps the case's
// collected total in one transaction. The case is closed when the new total
// covers the outstanding amount. A case without a resolvable outstanding
// amount is never closed automatically.
//
// The log is attributed to the case's telecaller when it has one, otherwise
// to the caller.
func (o *Operator) RecordPayment(ctx context.Context, tenantID string, caller models.Caller, req models.PaymentRequest) (models.PaymentResult, error) {
	if math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) || req.Amount <= 0 {
		return models.PaymentResult{}, domain.NewValidationError("amount must be greater than 0")
	}
	if err := domain.Validate(req); err != nil {
		return models.PaymentResult{}, err
	}

	var result models.PaymentResult
	err := o.store.WithTx(ctx, func(tx *store.Store) error {
		c, err := tx.GetCase(ctx, tenantID, req.CaseID)
		if err != nil {
			return err
		}

		total := decimal.NewFromFloat(c.TotalCollectedAmount).Add(decimal.NewFromFloat(req.Amount))
		status := c.CaseStatus
		outstanding, known := casefields.Amount(c, casefields.Outstanding)
		closes := known && outstanding.Sub(total).LessThanOrEqual(decimal.Zero)
		if closes {
			status = models.CaseStatusClosed
		}

		employeeID := caller.EmployeeID
		if c.TelecallerID != nil {
			employeeID = *c.TelecallerID
		}
		amount := req.Amount
		log := &models.CallLog{
			TenantID:        tenantID,
			CaseID:          c.ID,
			EmployeeID:      employeeID,
			CallStatus:      models.CallStatusPaymentReceived,
			AmountCollected: &amount,
			Notes:           req.Notes,
		}
		if err := tx.InsertCallLog(ctx, log); err != nil {
			return err
		}
		if err := tx.UpdateCaseCollection(ctx, tenantID, c.ID, c.Version, total.InexactFloat64(), status); err != nil {
			return err
		}

		result = models.PaymentResult{
			CaseID:         c.ID,
			CallLogID:      log.ID,
			Amount:         req.Amount,
			TotalCollected: total.InexactFloat64(),
			CaseStatus:     status,
			AutoClosed:     closes && c.CaseStatus != models.CaseStatusClosed,
		}
		if known {
			out := outstanding.InexactFloat64()
			result.Outstanding = &out
		}
		return nil
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		return models.PaymentResult{}, domain.NewNotFoundError("case")
	case errors.Is(err, store.ErrVersionConflict):
		return models.PaymentResult{}, domain.NewConflictError("case was modified concurrently, retry the payment", err)
	case err != nil:
		return models.PaymentResult{}, domain.NewInternalError(err)
	}

	if o.recorder != nil {
		o.recorder.RecordPayment(result.AutoClosed)
	}
	o.log.Info("payment recorded", "tenant_id", tenantID, "case_id", result.CaseID,
		"amount", result.Amount, "total_collected", result.TotalCollected, "auto_closed", result.AutoClosed)
	return result, nil
}

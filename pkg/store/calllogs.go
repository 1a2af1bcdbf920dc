package store

import (
	"context"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/jordanlanch/recoverydesk/pkg/database"
	"github.com/jordanlanch/recoverydesk/pkg/models"
)

var callLogColumns = []string{
	"id", "tenant_id", "case_id", "employee_id", "call_status",
	"ptp_date", "amount_collected", "call_duration", "notes", "created_at",
}

func scanCallLog(rows *entsql.Rows) (models.CallLog, error) {
	var (
		l       models.CallLog
		ptpDate entsql.NullTime
		amount  entsql.NullFloat64
	)
	err := rows.Scan(
		&l.ID, &l.TenantID, &l.CaseID, &l.EmployeeID, &l.CallStatus,
		&ptpDate, &amount, &l.CallDuration, &l.Notes, &l.CreatedAt,
	)
	if err != nil {
		return l, fmt.Errorf("failed scanning call log: %w", err)
	}
	l.PTPDate = nullTime(ptpDate)
	l.AmountCollected = nullFloat(amount)
	return l, nil
}

// periodPreds restricts created_at to the period. Zero bounds add nothing.
func periodPreds(period models.Period) []func() *entsql.Predicate {
	var preds []func() *entsql.Predicate
	if !period.From.IsZero() {
		from := period.From.UTC()
		preds = append(preds, func() *entsql.Predicate { return entsql.GTE("created_at", from) })
	}
	if !period.To.IsZero() {
		to := period.To.UTC()
		preds = append(preds, func() *entsql.Predicate { return entsql.LT("created_at", to) })
	}
	return preds
}

func (s *Store) selectCallLogs(preds ...func() *entsql.Predicate) *entsql.Selector {
	b := s.builder()
	ps := make([]*entsql.Predicate, len(preds))
	for i, p := range preds {
		ps[i] = p()
	}
	return b.Select(callLogColumns...).From(b.Table(database.TableCallLogs)).Where(entsql.And(ps...))
}

// FetchCallLogsForCases returns the call logs of the given cases within period.
func (s *Store) FetchCallLogsForCases(ctx context.Context, tenantID string, caseIDs []string, period models.Period) ([]models.CallLog, error) {
	logs, err := fetchChunked(ctx, s, database.TableCallLogs, caseIDs, func(args []any) *entsql.Selector {
		preds := append([]func() *entsql.Predicate{eq("tenant_id", tenantID), in("case_id", args)}, periodPreds(period)...)
		return s.selectCallLogs(preds...)
	}, scanCallLog)
	if err != nil {
		return logs, fmt.Errorf("failed fetching call logs for cases: %w", err)
	}
	return logs, nil
}

// FetchCallLogsForEmployees returns the call logs made by the given internal
// telecaller ids within period.
func (s *Store) FetchCallLogsForEmployees(ctx context.Context, tenantID string, employeeIDs []string, period models.Period) ([]models.CallLog, error) {
	logs, err := fetchChunked(ctx, s, database.TableCallLogs, employeeIDs, func(args []any) *entsql.Selector {
		preds := append([]func() *entsql.Predicate{eq("tenant_id", tenantID), in("employee_id", args)}, periodPreds(period)...)
		return s.selectCallLogs(preds...)
	}, scanCallLog)
	if err != nil {
		return logs, fmt.Errorf("failed fetching call logs for employees: %w", err)
	}
	return logs, nil
}

// FetchPayments returns every PAYMENT_RECEIVED log of the tenant within period.
func (s *Store) FetchPayments(ctx context.Context, tenantID string, period models.Period) ([]models.CallLog, error) {
	preds := append([]func() *entsql.Predicate{eq("tenant_id", tenantID), eq("call_status", models.CallStatusPaymentReceived)}, periodPreds(period)...)
	logs, err := fetchAll(ctx, s, database.TableCallLogs, func() *entsql.Selector { return s.selectCallLogs(preds...) }, scanCallLog)
	if err != nil {
		return logs, fmt.Errorf("failed fetching payments: %w", err)
	}
	return logs, nil
}

// InsertCallLog appends a call log. Call logs are never updated.
func (s *Store) InsertCallLog(ctx context.Context, l *models.CallLog) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = s.timestamp()
	}
	q, args := s.builder().Insert(database.TableCallLogs).
		Columns(callLogColumns...).
		Values(
			l.ID, l.TenantID, l.CaseID, l.EmployeeID, l.CallStatus,
			utcPtr(l.PTPDate), optFloat(l.AmountCollected), l.CallDuration, l.Notes, l.CreatedAt.UTC(),
		).Query()
	if _, err := s.exec(ctx, q, args); err != nil {
		return fmt.Errorf("failed inserting call log: %w", err)
	}
	return nil
}

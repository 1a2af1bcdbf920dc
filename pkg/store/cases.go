package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/jordanlanch/recoverydesk/pkg/database"
	"github.com/jordanlanch/recoverydesk/pkg/models"
)

var caseColumns = []string{
	"id", "tenant_id", "team_id", "telecaller_id", "assigned_employee_id",
	"loan_id", "customer_name", "mobile_no", "loan_amount", "outstanding_amount",
	"dpd", "case_status", "priority", "total_collected_amount", "case_data",
	"version", "created_at", "updated_at",
}

func scanCase(rows *entsql.Rows) (models.Case, error) {
	var (
		c                       models.Case
		teamID, telecallerID    entsql.NullString
		assigned                entsql.NullString
		loanAmount, outstanding entsql.NullFloat64
		status, priority        string
		data                    []byte
	)
	err := rows.Scan(
		&c.ID, &c.TenantID, &teamID, &telecallerID, &assigned,
		&c.LoanID, &c.CustomerName, &c.MobileNo, &loanAmount, &outstanding,
		&c.DPD, &status, &priority, &c.TotalCollectedAmount, &data,
		&c.Version, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return c, fmt.Errorf("failed scanning case: %w", err)
	}
	c.TeamID = nullString(teamID)
	c.TelecallerID = nullString(telecallerID)
	c.AssignedEmployeeID = nullString(assigned)
	c.LoanAmount = nullFloat(loanAmount)
	c.OutstandingAmount = nullFloat(outstanding)
	c.CaseStatus = models.CaseStatus(status)
	c.Priority = models.Priority(priority)
	if len(data) > 0 && string(data) != "null" {
		if err := json.Unmarshal(data, &c.CaseData); err != nil {
			return c, fmt.Errorf("failed decoding case_data of case %s: %w", c.ID, err)
		}
	}
	return c, nil
}

func (s *Store) selectCases(preds ...func() *entsql.Predicate) func() *entsql.Selector {
	return func() *entsql.Selector {
		b := s.builder()
		ps := make([]*entsql.Predicate, len(preds))
		for i, p := range preds {
			ps[i] = p()
		}
		return b.Select(caseColumns...).From(b.Table(database.TableCases)).Where(entsql.And(ps...))
	}
}

func eq(col string, v any) func() *entsql.Predicate {
	return func() *entsql.Predicate { return entsql.EQ(col, v) }
}

func in(col string, args []any) func() *entsql.Predicate {
	return func() *entsql.Predicate { return entsql.In(col, args...) }
}

// GetCase returns one case of the tenant.
func (s *Store) GetCase(ctx context.Context, tenantID, caseID string) (models.Case, error) {
	c, err := getOne(ctx, s, s.selectCases(eq("tenant_id", tenantID), eq("id", caseID))(), scanCase)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return c, fmt.Errorf("failed getting case %s: %w", caseID, err)
	}
	return c, err
}

// FetchCasesForTeam returns every case of the team, across all pages.
func (s *Store) FetchCasesForTeam(ctx context.Context, tenantID, teamID string) ([]models.Case, error) {
	cases, err := fetchAll(ctx, s, database.TableCases, s.selectCases(eq("tenant_id", tenantID), eq("team_id", teamID)), scanCase)
	if err != nil {
		return cases, fmt.Errorf("failed fetching cases for team %s: %w", teamID, err)
	}
	return cases, nil
}

// FetchCasesForTelecallerID returns every case assigned to an internal telecaller id.
func (s *Store) FetchCasesForTelecallerID(ctx context.Context, tenantID, telecallerID string) ([]models.Case, error) {
	cases, err := fetchAll(ctx, s, database.TableCases, s.selectCases(eq("tenant_id", tenantID), eq("telecaller_id", telecallerID)), scanCase)
	if err != nil {
		return cases, fmt.Errorf("failed fetching cases for telecaller %s: %w", telecallerID, err)
	}
	return cases, nil
}

// FetchCasesForTelecaller resolves an external employee code to an active
// telecaller and returns that telecaller's cases. An unknown or inactive code,
// or a failed lookup, yields an empty slice and no error.
func (s *Store) FetchCasesForTelecaller(ctx context.Context, tenantID, empCode string) ([]models.Case, error) {
	emp, err := s.ResolveTelecaller(ctx, tenantID, empCode)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.Warn("telecaller lookup failed", "tenant_id", tenantID, "emp_code", empCode, "error", err)
		}
		return []models.Case{}, nil
	}
	return s.FetchCasesForTelecallerID(ctx, tenantID, emp.ID)
}

// FetchCasesByIDs returns the tenant's cases among ids.
func (s *Store) FetchCasesByIDs(ctx context.Context, tenantID string, ids []string) ([]models.Case, error) {
	cases, err := fetchChunked(ctx, s, database.TableCases, ids, func(args []any) *entsql.Selector {
		return s.selectCases(eq("tenant_id", tenantID), in("id", args))()
	}, scanCase)
	if err != nil {
		return cases, fmt.Errorf("failed fetching cases by id: %w", err)
	}
	return cases, nil
}

// InsertCase stores a new case. Missing id, timestamps, status, priority and
// version are filled in.
func (s *Store) InsertCase(ctx context.Context, c *models.Case) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := s.timestamp()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	if c.CaseStatus == "" {
		c.CaseStatus = models.CaseStatusPending
	}
	if c.Priority == "" {
		c.Priority = models.PriorityMedium
	}
	if c.Version == 0 {
		c.Version = 1
	}
	var data any
	if c.CaseData != nil {
		raw, err := json.Marshal(c.CaseData)
		if err != nil {
			return fmt.Errorf("failed encoding case_data: %w", err)
		}
		data = string(raw)
	}

	q, args := s.builder().Insert(database.TableCases).
		Columns(caseColumns...).
		Values(
			c.ID, c.TenantID, optString(c.TeamID), optString(c.TelecallerID), optString(c.AssignedEmployeeID),
			c.LoanID, c.CustomerName, c.MobileNo, optFloat(c.LoanAmount), optFloat(c.OutstandingAmount),
			c.DPD, string(c.CaseStatus), string(c.Priority), c.TotalCollectedAmount, data,
			c.Version, c.CreatedAt.UTC(), c.UpdatedAt.UTC(),
		).Query()
	if _, err := s.exec(ctx, q, args); err != nil {
		return fmt.Errorf("failed inserting case: %w", err)
	}
	return nil
}

// updateCase applies set to the case only if its version still equals
// expectedVersion, bumping the version on success.
func (s *Store) updateCase(ctx context.Context, tenantID, caseID string, expectedVersion int, set func(u *entsql.UpdateBuilder)) error {
	u := s.builder().Update(database.TableCases)
	set(u)
	u.Set("updated_at", s.timestamp()).
		Add("version", 1).
		Where(entsql.And(
			entsql.EQ("id", caseID),
			entsql.EQ("tenant_id", tenantID),
			entsql.EQ("version", expectedVersion),
		))
	q, args := u.Query()
	n, err := s.exec(ctx, q, args)
	if err != nil {
		return fmt.Errorf("failed updating case %s: %w", caseID, err)
	}
	if n == 0 {
		return ErrVersionConflict
	}
	return nil
}

// UpdateCaseAssignment assigns the case to telecaller, or clears the
// assignment when telecaller is nil.
func (s *Store) UpdateCaseAssignment(ctx context.Context, tenantID, caseID string, expectedVersion int, telecaller *models.Employee) error {
	return s.updateCase(ctx, tenantID, caseID, expectedVersion, func(u *entsql.UpdateBuilder) {
		if telecaller == nil {
			u.SetNull("telecaller_id").SetNull("assigned_employee_id")
			return
		}
		u.Set("telecaller_id", telecaller.ID).Set("assigned_employee_id", telecaller.EmpCode)
	})
}

// UpdateCaseTeam moves the case to another team and clears its telecaller.
func (s *Store) UpdateCaseTeam(ctx context.Context, tenantID, caseID string, expectedVersion int, teamID string) error {
	return s.updateCase(ctx, tenantID, caseID, expectedVersion, func(u *entsql.UpdateBuilder) {
		u.Set("team_id", teamID).SetNull("telecaller_id").SetNull("assigned_employee_id")
	})
}

// UpdateCaseCollection sets the collected total and status of the case.
func (s *Store) UpdateCaseCollection(ctx context.Context, tenantID, caseID string, expectedVersion int, total float64, status models.CaseStatus) error {
	return s.updateCase(ctx, tenantID, caseID, expectedVersion, func(u *entsql.UpdateBuilder) {
		u.Set("total_collected_amount", total).Set("case_status", string(status))
	})
}

// DeleteCase removes the case if its version still equals expectedVersion.
func (s *Store) DeleteCase(ctx context.Context, tenantID, caseID string, expectedVersion int) error {
	q, args := s.builder().Delete(database.TableCases).
		Where(entsql.And(
			entsql.EQ("id", caseID),
			entsql.EQ("tenant_id", tenantID),
			entsql.EQ("version", expectedVersion),
		)).Query()
	n, err := s.exec(ctx, q, args)
	if err != nil {
		return fmt.Errorf("failed deleting case %s: %w", caseID, err)
	}
	if n == 0 {
		return ErrVersionConflict
	}
	return nil
}

package store

import (
	"context"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/jordanlanch/recoverydesk/pkg/database"
	"github.com/jordanlanch/recoverydesk/pkg/models"
)

var employeeColumns = []string{
	"id", "tenant_id", "emp_code", "name", "mobile", "role", "status", "team_id", "created_at",
}

func scanEmployee(rows *entsql.Rows) (models.Employee, error) {
	var (
		e      models.Employee
		role   string
		teamID entsql.NullString
	)
	if err := rows.Scan(&e.ID, &e.TenantID, &e.EmpCode, &e.Name, &e.Mobile, &role, &e.Status, &teamID, &e.CreatedAt); err != nil {
		return e, fmt.Errorf("failed scanning employee: %w", err)
	}
	e.Role = models.Role(role)
	e.TeamID = nullString(teamID)
	return e, nil
}

func (s *Store) selectEmployees(preds ...*entsql.Predicate) *entsql.Selector {
	b := s.builder()
	return b.Select(employeeColumns...).From(b.Table(database.TableEmployees)).Where(entsql.And(preds...))
}

// ResolveTelecaller maps an external employee code to the active telecaller
// holding it. The code must match exactly. ErrNotFound means no such active telecaller.
func (s *Store) ResolveTelecaller(ctx context.Context, tenantID, empCode string) (models.Employee, error) {
	if empCode == "" {
		return models.Employee{}, ErrNotFound
	}
	e, err := getOne(ctx, s, s.selectEmployees(
		entsql.EQ("tenant_id", tenantID),
		entsql.EQ("emp_code", empCode),
		entsql.EQ("role", string(models.RoleTelecaller)),
		entsql.EQ("status", models.StatusActive),
	), scanEmployee)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return e, fmt.Errorf("failed resolving telecaller %s: %w", empCode, err)
	}
	return e, err
}

// GetEmployee returns one employee of the tenant.
func (s *Store) GetEmployee(ctx context.Context, tenantID, employeeID string) (models.Employee, error) {
	e, err := getOne(ctx, s, s.selectEmployees(entsql.EQ("tenant_id", tenantID), entsql.EQ("id", employeeID)), scanEmployee)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return e, fmt.Errorf("failed getting employee %s: %w", employeeID, err)
	}
	return e, err
}

// ActiveTelecallers returns the active telecallers of a team.
func (s *Store) ActiveTelecallers(ctx context.Context, tenantID, teamID string) ([]models.Employee, error) {
	emps, err := fetchAll(ctx, s, database.TableEmployees, func() *entsql.Selector {
		return s.selectEmployees(
			entsql.EQ("tenant_id", tenantID),
			entsql.EQ("team_id", teamID),
			entsql.EQ("role", string(models.RoleTelecaller)),
			entsql.EQ("status", models.StatusActive),
		)
	}, scanEmployee)
	if err != nil {
		return emps, fmt.Errorf("failed fetching telecallers for team %s: %w", teamID, err)
	}
	return emps, nil
}

// FetchEmployeesByIDs returns the tenant's employees among ids.
func (s *Store) FetchEmployeesByIDs(ctx context.Context, tenantID string, ids []string) ([]models.Employee, error) {
	emps, err := fetchChunked(ctx, s, database.TableEmployees, ids, func(args []any) *entsql.Selector {
		return s.selectEmployees(entsql.EQ("tenant_id", tenantID), entsql.In("id", args...))
	}, scanEmployee)
	if err != nil {
		return emps, fmt.Errorf("failed fetching employees by id: %w", err)
	}
	return emps, nil
}

// InsertEmployee stores a new employee.
func (s *Store) InsertEmployee(ctx context.Context, e *models.Employee) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = models.StatusActive
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.timestamp()
	}
	q, args := s.builder().Insert(database.TableEmployees).
		Columns(employeeColumns...).
		Values(e.ID, e.TenantID, e.EmpCode, e.Name, e.Mobile, string(e.Role), e.Status, optString(e.TeamID), e.CreatedAt.UTC()).
		Query()
	if _, err := s.exec(ctx, q, args); err != nil {
		return fmt.Errorf("failed inserting employee: %w", err)
	}
	return nil
}

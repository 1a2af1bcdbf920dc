package database

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

// Table and column names shared with the store.
const (
	TableTeams     = "teams"
	TableEmployees = "employees"
	TableCases     = "cases"
	TableCallLogs  = "call_logs"
	TableTargets   = "telecaller_targets"
)

var (
	teamColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "tenant_id", Type: field.TypeString, Size: 36},
		{Name: "name", Type: field.TypeString},
		{Name: "product_name", Type: field.TypeString, Default: ""},
		{Name: "team_incharge_id", Type: field.TypeString, Size: 36, Nullable: true},
		{Name: "status", Type: field.TypeEnum, Enums: []string{"active", "inactive"}, Default: "active"},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// TeamsTable holds the schema information for the "teams" table.
	TeamsTable = &schema.Table{
		Name:       TableTeams,
		Columns:    teamColumns,
		PrimaryKey: []*schema.Column{teamColumns[0]},
		Indexes: []*schema.Index{
			{Name: "team_tenant_id", Columns: []*schema.Column{teamColumns[1]}},
		},
	}

	employeeColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "tenant_id", Type: field.TypeString, Size: 36},
		{Name: "emp_code", Type: field.TypeString},
		{Name: "name", Type: field.TypeString},
		{Name: "mobile", Type: field.TypeString, Default: ""},
		{Name: "role", Type: field.TypeEnum, Enums: []string{"CompanyAdmin", "TeamIncharge", "Telecaller"}},
		{Name: "status", Type: field.TypeEnum, Enums: []string{"active", "inactive"}, Default: "active"},
		{Name: "team_id", Type: field.TypeString, Size: 36, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
	}
	// EmployeesTable holds the schema information for the "employees" table.
	EmployeesTable = &schema.Table{
		Name:       TableEmployees,
		Columns:    employeeColumns,
		PrimaryKey: []*schema.Column{employeeColumns[0]},
		Indexes: []*schema.Index{
			{Name: "employee_tenant_id_emp_code", Columns: []*schema.Column{employeeColumns[1], employeeColumns[2]}},
			{Name: "employee_team_id", Columns: []*schema.Column{employeeColumns[7]}},
		},
	}

	caseColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "tenant_id", Type: field.TypeString, Size: 36},
		{Name: "team_id", Type: field.TypeString, Size: 36, Nullable: true},
		{Name: "telecaller_id", Type: field.TypeString, Size: 36, Nullable: true},
		{Name: "assigned_employee_id", Type: field.TypeString, Nullable: true},
		{Name: "loan_id", Type: field.TypeString},
		{Name: "customer_name", Type: field.TypeString, Default: ""},
		{Name: "mobile_no", Type: field.TypeString, Default: ""},
		{Name: "loan_amount", Type: field.TypeFloat64, Nullable: true},
		{Name: "outstanding_amount", Type: field.TypeFloat64, Nullable: true},
		{Name: "dpd", Type: field.TypeInt, Default: 0},
		{Name: "case_status", Type: field.TypeEnum, Enums: []string{"pending", "in_progress", "resolved", "closed"}, Default: "pending"},
		{Name: "priority", Type: field.TypeEnum, Enums: []string{"low", "medium", "high", "urgent"}, Default: "medium"},
		{Name: "total_collected_amount", Type: field.TypeFloat64, Default: 0},
		{Name: "case_data", Type: field.TypeJSON, Nullable: true},
		{Name: "version", Type: field.TypeInt, Default: 1},
		{Name: "created_at", Type: field.TypeTime},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// CasesTable holds the schema information for the "cases" table.
	CasesTable = &schema.Table{
		Name:       TableCases,
		Columns:    caseColumns,
		PrimaryKey: []*schema.Column{caseColumns[0]},
		Indexes: []*schema.Index{
			{Name: "case_tenant_id_team_id", Columns: []*schema.Column{caseColumns[1], caseColumns[2]}},
			{Name: "case_tenant_id_telecaller_id", Columns: []*schema.Column{caseColumns[1], caseColumns[3]}},
			{Name: "case_created_at_id", Columns: []*schema.Column{caseColumns[16], caseColumns[0]}},
		},
	}

	callLogColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "tenant_id", Type: field.TypeString, Size: 36},
		{Name: "case_id", Type: field.TypeString, Size: 36},
		{Name: "employee_id", Type: field.TypeString, Size: 36},
		{Name: "call_status", Type: field.TypeString},
		{Name: "ptp_date", Type: field.TypeTime, Nullable: true},
		{Name: "amount_collected", Type: field.TypeFloat64, Nullable: true},
		{Name: "call_duration", Type: field.TypeInt, Default: 0},
		{Name: "notes", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "created_at", Type: field.TypeTime},
	}
	// CallLogsTable holds the schema information for the "call_logs" table.
	CallLogsTable = &schema.Table{
		Name:       TableCallLogs,
		Columns:    callLogColumns,
		PrimaryKey: []*schema.Column{callLogColumns[0]},
		Indexes: []*schema.Index{
			{Name: "calllog_case_id", Columns: []*schema.Column{callLogColumns[2]}},
			{Name: "calllog_employee_id_created_at", Columns: []*schema.Column{callLogColumns[3], callLogColumns[9]}},
			{Name: "calllog_tenant_id_created_at", Columns: []*schema.Column{callLogColumns[1], callLogColumns[9]}},
		},
	}

	targetColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "tenant_id", Type: field.TypeString, Size: 36},
		{Name: "telecaller_id", Type: field.TypeString, Size: 36},
		{Name: "daily_calls_target", Type: field.TypeInt, Default: 0},
		{Name: "weekly_calls_target", Type: field.TypeInt, Default: 0},
		{Name: "monthly_calls_target", Type: field.TypeInt, Default: 0},
		{Name: "monthly_collections_target", Type: field.TypeFloat64, Nullable: true},
		{Name: "created_at", Type: field.TypeTime},
	}
	// TargetsTable holds the schema information for the "telecaller_targets" table.
	TargetsTable = &schema.Table{
		Name:       TableTargets,
		Columns:    targetColumns,
		PrimaryKey: []*schema.Column{targetColumns[0]},
		Indexes: []*schema.Index{
			{Name: "target_telecaller_id", Columns: []*schema.Column{targetColumns[2]}},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		TeamsTable,
		EmployeesTable,
		CasesTable,
		CallLogsTable,
		TargetsTable,
	}
)

// Migrate creates or updates all tables on the given driver.
func Migrate(ctx context.Context, drv dialect.Driver) error {
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("failed creating migrator: %w", err)
	}
	if err := m.Create(ctx, Tables...); err != nil {
		return fmt.Errorf("failed creating schema resources: %w", err)
	}
	return nil
}

package models

import "time"

// Role of an employee inside a tenant.
type Role string

const (
	RoleCompanyAdmin Role = "CompanyAdmin"
	RoleTeamIncharge Role = "TeamIncharge"
	RoleTelecaller   Role = "Telecaller"
)

// Active / inactive flag shared by teams and employees.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Team groups telecallers under a team-in-charge.
type Team struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenant_id"`
	Name           string    `json:"name"`
	ProductName    string    `json:"product_name"`
	TeamInchargeID *string   `json:"team_incharge_id,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Employee is a tenant staff member. Telecallers have Role == RoleTelecaller.
type Employee struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	EmpCode   string    `json:"emp_code"`
	Name      string    `json:"name"`
	Mobile    string    `json:"mobile,omitempty"`
	Role      Role      `json:"role"`
	Status    string    `json:"status"`
	TeamID    *string   `json:"team_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// IsActiveTelecaller reports whether the employee can own cases.
func (e Employee) IsActiveTelecaller() bool {
	return e.Role == RoleTelecaller && e.Status == StatusActive
}

// Target is a per-telecaller goal. MonthlyCollectionsTarget is nil when unset.
type Target struct {
	ID                       string    `json:"id"`
	TenantID                 string    `json:"tenant_id"`
	TelecallerID             string    `json:"telecaller_id"`
	DailyCallsTarget         int       `json:"daily_calls_target"`
	WeeklyCallsTarget        int       `json:"weekly_calls_target"`
	MonthlyCallsTarget       int       `json:"monthly_calls_target"`
	MonthlyCollectionsTarget *float64  `json:"monthly_collections_target,omitempty"`
	CreatedAt                time.Time `json:"created_at"`
}

// CollectionsTarget returns the monthly collections target, 0 when unset or negative.
func (t Target) CollectionsTarget() float64 {
	if t.MonthlyCollectionsTarget == nil || *t.MonthlyCollectionsTarget < 0 {
		return 0
	}
	return *t.MonthlyCollectionsTarget
}

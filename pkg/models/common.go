package models

import "time"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Caller identifies who is asking. It is passed explicitly to every service call.
type Caller struct {
	TenantID   string `json:"tenant_id"`
	EmployeeID string `json:"employee_id"`
	Role       Role   `json:"role"`
}

// CanManageCases reports whether the caller may run bulk operations.
func (c Caller) CanManageCases() bool {
	return c.Role == RoleCompanyAdmin || c.Role == RoleTeamIncharge
}

// Period is a half-open [From, To) created_at range. A zero bound is unbounded.
type Period struct {
	From time.Time `json:"from,omitzero"`
	To   time.Time `json:"to,omitzero"`
}

// IsZero reports whether the period is unbounded on both sides.
func (p Period) IsZero() bool {
	return p.From.IsZero() && p.To.IsZero()
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	if !p.From.IsZero() && t.Before(p.From) {
		return false
	}
	if !p.To.IsZero() && !t.Before(p.To) {
		return false
	}
	return true
}

package models

import "time"

// CaseStatus is the lifecycle state of a recovery case.
type CaseStatus string

const (
	CaseStatusPending    CaseStatus = "pending"
	CaseStatusInProgress CaseStatus = "in_progress"
	CaseStatusResolved   CaseStatus = "resolved"
	CaseStatusClosed     CaseStatus = "closed"
)

// Valid reports whether s is one of the four known statuses.
func (s CaseStatus) Valid() bool {
	switch s {
	case CaseStatusPending, CaseStatusInProgress, CaseStatusResolved, CaseStatusClosed:
		return true
	}
	return false
}

// Priority of a case.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Case is a loan-recovery record owned by a tenant.
type Case struct {
	ID                   string         `json:"id"`
	TenantID             string         `json:"tenant_id"`
	TeamID               *string        `json:"team_id,omitempty"`
	TelecallerID         *string        `json:"telecaller_id,omitempty"`
	AssignedEmployeeID   *string        `json:"assigned_employee_id,omitempty"`
	LoanID               string         `json:"loan_id"`
	CustomerName         string         `json:"customer_name"`
	MobileNo             string         `json:"mobile_no,omitempty"`
	LoanAmount           *float64       `json:"loan_amount,omitempty"`
	OutstandingAmount    *float64       `json:"outstanding_amount,omitempty"`
	DPD                  int            `json:"dpd"`
	CaseStatus           CaseStatus     `json:"case_status"`
	Priority             Priority       `json:"priority"`
	TotalCollectedAmount float64        `json:"total_collected_amount"`
	CaseData             map[string]any `json:"case_data,omitempty"`
	Version              int            `json:"version"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
}

// IsAssigned reports whether a telecaller currently owns the case.
func (c Case) IsAssigned() bool {
	return c.TelecallerID != nil && *c.TelecallerID != ""
}

// IsDeletable reports whether an admin may delete the case:
// it must be unassigned or closed.
func (c Case) IsDeletable() bool {
	return !c.IsAssigned() || c.CaseStatus == CaseStatusClosed
}

// DisplayName is used in per-item operation reports.
func (c Case) DisplayName() string {
	if c.CustomerName != "" {
		return c.CustomerName
	}
	return c.LoanID
}

// EnrichedCase is a case plus values derived from its call history.
type EnrichedCase struct {
	Case
	LatestCallStatus     string     `json:"latest_call_status,omitempty"`
	LatestCallDate       *time.Time `json:"latest_call_date,omitempty"`
	LatestPTPDate        *time.Time `json:"latest_ptp_date,omitempty"`
	CallCount            int        `json:"call_count"`
	ResolvedCustomerName string     `json:"resolved_customer_name"`
	ResolvedMobile       string     `json:"resolved_mobile,omitempty"`
	ResolvedOutstanding  float64    `json:"resolved_outstanding"`
	DPDBucket            string     `json:"dpd_bucket"`
}

// Reconciliation compares the stored collected total of a case with the
// sum of its payment call logs.
type Reconciliation struct {
	CaseID          string  `json:"case_id"`
	StoredCollected float64 `json:"stored_collected"`
	LoggedCollected float64 `json:"logged_collected"`
	Difference      float64 `json:"difference"`
	PaymentCount    int     `json:"payment_count"`
	Matches         bool    `json:"matches"`
}

package models

import "time"

// BulkOperation names one of the supported bulk case operations.
type BulkOperation string

const (
	BulkAssign   BulkOperation = "assign"
	BulkUnassign BulkOperation = "unassign"
	BulkReassign BulkOperation = "reassign"
	BulkDelete   BulkOperation = "delete"
)

func (o BulkOperation) Valid() bool {
	switch o {
	case BulkAssign, BulkUnassign, BulkReassign, BulkDelete:
		return true
	}
	return false
}

// ItemState is the per-case state inside a bulk operation.
type ItemState string

const (
	ItemPending   ItemState = "pending"
	ItemInFlight  ItemState = "in_flight"
	ItemSucceeded ItemState = "succeeded"
	ItemFailed    ItemState = "failed"
)

// Terminal reports whether the item can no longer change state.
func (s ItemState) Terminal() bool {
	return s == ItemSucceeded || s == ItemFailed
}

// BulkParams carries the targets of a bulk operation.
type BulkParams struct {
	TelecallerID string `json:"telecaller_id,omitempty"`
	TeamID       string `json:"team_id,omitempty"`
}

// BulkItem is one case inside an operation report.
type BulkItem struct {
	CaseID string    `json:"case_id"`
	Name   string    `json:"name,omitempty"`
	State  ItemState `json:"state"`
	Error  string    `json:"error,omitempty"`
}

// OperationError describes one failed item.
type OperationError struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Error string `json:"error"`
}

// OperationReport summarises a bulk operation. Total == SuccessCount + ErrorCount
// once IsComplete is true.
type OperationReport struct {
	OperationID  string           `json:"operation_id"`
	Operation    BulkOperation    `json:"operation"`
	Total        int              `json:"total"`
	SuccessCount int              `json:"success_count"`
	ErrorCount   int              `json:"error_count"`
	Errors       []OperationError `json:"errors"`
	Items        []BulkItem       `json:"items"`
	IsComplete   bool             `json:"is_complete"`
	StartedAt    time.Time        `json:"started_at"`
	FinishedAt   time.Time        `json:"finished_at,omitzero"`
}

// PaymentRequest records a payment against a case.
type PaymentRequest struct {
	CaseID string  `json:"case_id" validate:"required"`
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Notes  string  `json:"notes,omitempty" validate:"max=1000"`
}

// PaymentResult is returned after a payment has been recorded.
type PaymentResult struct {
	CaseID         string     `json:"case_id"`
	CallLogID      string     `json:"call_log_id"`
	Amount         float64    `json:"amount"`
	TotalCollected float64    `json:"total_collected"`
	Outstanding    *float64   `json:"outstanding_amount,omitempty"`
	CaseStatus     CaseStatus `json:"case_status"`
	AutoClosed     bool       `json:"auto_closed"`
}

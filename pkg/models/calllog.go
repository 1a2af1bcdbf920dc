package models

import "time"

// Call status codes with special meaning. Any other code is stored as-is.
const (
	CallStatusPTP             = "PTP"
	CallStatusFuturePTP       = "FUTURE_PTP"
	CallStatusRNR             = "RNR"
	CallStatusNC              = "NC"
	CallStatusWN              = "WN"
	CallStatusPaymentReceived = "PAYMENT_RECEIVED"
)

// successfulCallStatuses is the closed list of outcomes counted as a successful call.
var successfulCallStatuses = map[string]struct{}{
	CallStatusPTP:       {},
	CallStatusFuturePTP: {},
}

// CallLog is an immutable record of one contact attempt against a case.
type CallLog struct {
	ID              string     `json:"id"`
	TenantID        string     `json:"tenant_id"`
	CaseID          string     `json:"case_id"`
	EmployeeID      string     `json:"employee_id"`
	CallStatus      string     `json:"call_status"`
	PTPDate         *time.Time `json:"ptp_date,omitempty"`
	AmountCollected *float64   `json:"amount_collected,omitempty"`
	CallDuration    int        `json:"call_duration"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// IsPayment reports whether the log records a received payment.
func (l CallLog) IsPayment() bool {
	return l.CallStatus == CallStatusPaymentReceived
}

// IsSuccessful reports whether the outcome is PTP or FUTURE_PTP.
func (l CallLog) IsSuccessful() bool {
	_, ok := successfulCallStatuses[l.CallStatus]
	return ok
}

// Collected returns the amount collected on this log, 0 when absent.
func (l CallLog) Collected() float64 {
	if l.AmountCollected == nil {
		return 0
	}
	return *l.AmountCollected
}

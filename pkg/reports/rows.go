// Package reports flattens aggregates into tabular rows and renders them as
// CSV or Excel files.
package reports

import (
	"sort"
	"time"

	"github.com/jordanlanch/recoverydesk/pkg/models"
	"github.com/jordanlanch/recoverydesk/pkg/phone"
)

// CaseReportData is one row of the team case report.
type CaseReportData struct {
	CaseID           string
	LoanID           string
	CustomerName     string
	Mobile           string
	AssignedTo       string
	DPD              int
	DPDBucket        string
	Status           string
	Priority         string
	Outstanding      float64
	Collected        float64
	LatestCallStatus string
	LatestCallDate   string
	LatestPTPDate    string
	CallCount        int
}

// PaymentReportData is one row of the payment report.
type PaymentReportData struct {
	CallLogID      string
	PaidAt         string
	CaseID         string
	LoanID         string
	CustomerName   string
	EmpCode        string
	TelecallerName string
	Amount         float64
	Notes          string
}

// TeamReportData is one row of the team performance report. Achievement is
// nil when the team has no target.
type TeamReportData struct {
	TeamID         string
	TeamName       string
	ProductName    string
	Telecallers    int
	TotalCases     int
	Pending        int
	InProgress     int
	Resolved       int
	Closed         int
	TotalCalls     int
	TotalCollected float64
	TeamTarget     float64
	Achievement    *int
}

// Formatter builds report rows.
type Formatter struct {
	phones *phone.Normalizer
}

func NewFormatter(phones *phone.Normalizer) *Formatter {
	return &Formatter{phones: phones}
}

// CaseReportRows flattens enriched cases in their given order.
func (f *Formatter) CaseReportRows(cases []models.EnrichedCase) []CaseReportData {
	rows := make([]CaseReportData, 0, len(cases))
	for _, c := range cases {
		row := CaseReportData{
			CaseID:           c.ID,
			LoanID:           c.LoanID,
			CustomerName:     c.ResolvedCustomerName,
			Mobile:           f.phones.Display(c.ResolvedMobile),
			DPD:              c.DPD,
			DPDBucket:        c.DPDBucket,
			Status:           string(c.CaseStatus),
			Priority:         string(c.Priority),
			Outstanding:      c.ResolvedOutstanding,
			Collected:        c.TotalCollectedAmount,
			LatestCallStatus: c.LatestCallStatus,
			LatestCallDate:   formatTime(c.LatestCallDate),
			LatestPTPDate:    formatTime(c.LatestPTPDate),
			CallCount:        c.CallCount,
		}
		if c.AssignedEmployeeID != nil {
			row.AssignedTo = *c.AssignedEmployeeID
		}
		rows = append(rows, row)
	}
	return rows
}

// PaymentReportRows joins payment logs with their cases and employees,
// oldest payment first. Missing cases or employees leave their columns blank.
func (f *Formatter) PaymentReportRows(logs []models.CallLog, cases []models.Case, employees []models.Employee) []PaymentReportData {
	caseByID := make(map[string]models.Case, len(cases))
	for _, c := range cases {
		caseByID[c.ID] = c
	}
	empByID := make(map[string]models.Employee, len(employees))
	for _, e := range employees {
		empByID[e.ID] = e
	}

	payments := make([]models.CallLog, 0, len(logs))
	for _, l := range logs {
		if l.IsPayment() {
			payments = append(payments, l)
		}
	}
	sort.SliceStable(payments, func(i, j int) bool {
		if payments[i].CreatedAt.Equal(payments[j].CreatedAt) {
			return payments[i].ID < payments[j].ID
		}
		return payments[i].CreatedAt.Before(payments[j].CreatedAt)
	})

	rows := make([]PaymentReportData, 0, len(payments))
	for _, l := range payments {
		created := l.CreatedAt
		row := PaymentReportData{
			CallLogID: l.ID,
			PaidAt:    formatTime(&created),
			CaseID:    l.CaseID,
			Amount:    l.Collected(),
			Notes:     l.Notes,
		}
		if c, ok := caseByID[l.CaseID]; ok {
			row.LoanID = c.LoanID
			row.CustomerName = c.DisplayName()
		}
		if e, ok := empByID[l.EmployeeID]; ok {
			row.EmpCode = e.EmpCode
			row.TelecallerName = e.Name
		}
		rows = append(rows, row)
	}
	return rows
}

// TeamReportRows flattens team metrics.
func (f *Formatter) TeamReportRows(metrics []models.TeamMetrics) []TeamReportData {
	rows := make([]TeamReportData, 0, len(metrics))
	for _, m := range metrics {
		row := TeamReportData{
			TeamID:         m.TeamID,
			TeamName:       m.TeamName,
			ProductName:    m.ProductName,
			Telecallers:    m.TelecallerCount,
			TotalCases:     m.TotalCases,
			Pending:        m.Status.Pending,
			InProgress:     m.Status.InProgress,
			Resolved:       m.Status.Resolved,
			Closed:         m.Status.Closed,
			TotalCalls:     m.TotalCalls,
			TotalCollected: m.TotalCollected,
			TeamTarget:     m.TeamTarget,
		}
		if m.AchievementPercentage.Set {
			v := m.AchievementPercentage.Value
			row.Achievement = &v
		}
		rows = append(rows, row)
	}
	return rows
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

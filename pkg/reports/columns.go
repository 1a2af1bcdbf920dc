package reports

// Column describes one report column: its header and how to read the cell
// value from a row. Values are strings, ints, float64s or nil.
type Column[T any] struct {
	Header string
	Width  float64
	Value  func(T) any
}

var CaseColumns = []Column[CaseReportData]{
	{Header: "Case ID", Width: 38, Value: func(r CaseReportData) any { return r.CaseID }},
	{Header: "Loan ID", Width: 16, Value: func(r CaseReportData) any { return r.LoanID }},
	{Header: "Customer Name", Width: 24, Value: func(r CaseReportData) any { return r.CustomerName }},
	{Header: "Mobile", Width: 16, Value: func(r CaseReportData) any { return r.Mobile }},
	{Header: "Assigned To", Width: 12, Value: func(r CaseReportData) any { return r.AssignedTo }},
	{Header: "DPD", Width: 8, Value: func(r CaseReportData) any { return r.DPD }},
	{Header: "DPD Bucket", Width: 10, Value: func(r CaseReportData) any { return r.DPDBucket }},
	{Header: "Status", Width: 12, Value: func(r CaseReportData) any { return r.Status }},
	{Header: "Priority", Width: 10, Value: func(r CaseReportData) any { return r.Priority }},
	{Header: "Outstanding", Width: 14, Value: func(r CaseReportData) any { return r.Outstanding }},
	{Header: "Collected", Width: 14, Value: func(r CaseReportData) any { return r.Collected }},
	{Header: "Latest Call Status", Width: 18, Value: func(r CaseReportData) any { return r.LatestCallStatus }},
	{Header: "Latest Call Date", Width: 22, Value: func(r CaseReportData) any { return r.LatestCallDate }},
	{Header: "Latest PTP Date", Width: 22, Value: func(r CaseReportData) any { return r.LatestPTPDate }},
	{Header: "Calls", Width: 8, Value: func(r CaseReportData) any { return r.CallCount }},
}

var PaymentColumns = []Column[PaymentReportData]{
	{Header: "Payment ID", Width: 38, Value: func(r PaymentReportData) any { return r.CallLogID }},
	{Header: "Paid At", Width: 22, Value: func(r PaymentReportData) any { return r.PaidAt }},
	{Header: "Case ID", Width: 38, Value: func(r PaymentReportData) any { return r.CaseID }},
	{Header: "Loan ID", Width: 16, Value: func(r PaymentReportData) any { return r.LoanID }},
	{Header: "Customer Name", Width: 24, Value: func(r PaymentReportData) any { return r.CustomerName }},
	{Header: "Emp Code", Width: 12, Value: func(r PaymentReportData) any { return r.EmpCode }},
	{Header: "Telecaller", Width: 20, Value: func(r PaymentReportData) any { return r.TelecallerName }},
	{Header: "Amount", Width: 14, Value: func(r PaymentReportData) any { return r.Amount }},
	{Header: "Notes", Width: 30, Value: func(r PaymentReportData) any { return r.Notes }},
}

var TeamColumns = []Column[TeamReportData]{
	{Header: "Team ID", Width: 38, Value: func(r TeamReportData) any { return r.TeamID }},
	{Header: "Team", Width: 20, Value: func(r TeamReportData) any { return r.TeamName }},
	{Header: "Product", Width: 18, Value: func(r TeamReportData) any { return r.ProductName }},
	{Header: "Telecallers", Width: 12, Value: func(r TeamReportData) any { return r.Telecallers }},
	{Header: "Total Cases", Width: 12, Value: func(r TeamReportData) any { return r.TotalCases }},
	{Header: "Pending", Width: 10, Value: func(r TeamReportData) any { return r.Pending }},
	{Header: "In Progress", Width: 12, Value: func(r TeamReportData) any { return r.InProgress }},
	{Header: "Resolved", Width: 10, Value: func(r TeamReportData) any { return r.Resolved }},
	{Header: "Closed", Width: 10, Value: func(r TeamReportData) any { return r.Closed }},
	{Header: "Total Calls", Width: 12, Value: func(r TeamReportData) any { return r.TotalCalls }},
	{Header: "Total Collected", Width: 16, Value: func(r TeamReportData) any { return r.TotalCollected }},
	{Header: "Team Target", Width: 14, Value: func(r TeamReportData) any { return r.TeamTarget }},
	{Header: "Achievement %", Width: 14, Value: func(r TeamReportData) any {
		if r.Achievement == nil {
			return nil
		}
		return *r.Achievement
	}},
}

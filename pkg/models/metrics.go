package models

import "time"

// DPD bucket labels.
const (
	DPDBucket0To30  = "0-30"
	DPDBucket31To60 = "31-60"
	DPDBucket61To90 = "61-90"
	DPDBucketOver90 = "90+"
)

// StatusCounts counts cases per status. The four fields always sum to the
// number of cases counted.
type StatusCounts struct {
	Pending    int `json:"pending_cases"`
	InProgress int `json:"in_progress_cases"`
	Resolved   int `json:"resolved_cases"`
	Closed     int `json:"closed_cases"`
}

// Add counts one case. Unknown or empty statuses count as pending.
func (s *StatusCounts) Add(status CaseStatus) {
	switch status {
	case CaseStatusInProgress:
		s.InProgress++
	case CaseStatusResolved:
		s.Resolved++
	case CaseStatusClosed:
		s.Closed++
	default:
		s.Pending++
	}
}

func (s StatusCounts) Total() int {
	return s.Pending + s.InProgress + s.Resolved + s.Closed
}

// DPDCounts counts cases per days-past-due bucket.
type DPDCounts struct {
	Bucket0To30  int `json:"dpd_0_30"`
	Bucket31To60 int `json:"dpd_31_60"`
	Bucket61To90 int `json:"dpd_61_90"`
	BucketOver90 int `json:"dpd_90_plus"`
}

// Add counts one case under the given bucket label.
func (d *DPDCounts) Add(bucket string) {
	switch bucket {
	case DPDBucket0To30:
		d.Bucket0To30++
	case DPDBucket31To60:
		d.Bucket31To60++
	case DPDBucket61To90:
		d.Bucket61To90++
	default:
		d.BucketOver90++
	}
}

// TelecallerSummary is a per-telecaller row inside TeamMetrics.
type TelecallerSummary struct {
	TelecallerID string     `json:"telecaller_id"`
	EmpCode      string     `json:"emp_code"`
	Name         string     `json:"name"`
	Calls        int        `json:"calls"`
	Collected    float64    `json:"collected"`
	Target       float64    `json:"target"`
	Achievement  Percentage `json:"achievement_percentage"`
}

// TeamMetrics is the dashboard record for one team.
type TeamMetrics struct {
	TeamID                string              `json:"team_id"`
	TeamName              string              `json:"team_name"`
	ProductName           string              `json:"product_name"`
	TelecallerCount       int                 `json:"telecaller_count"`
	TotalCases            int                 `json:"total_cases"`
	Status                StatusCounts        `json:"status"`
	DPD                   DPDCounts           `json:"dpd"`
	TotalCalls            int                 `json:"total_calls"`
	TotalCollected        float64             `json:"total_collected"`
	TeamTarget            float64             `json:"team_target"`
	AchievementPercentage Percentage          `json:"achievement_percentage"`
	Telecallers           []TelecallerSummary `json:"telecallers"`
	Period                Period              `json:"period"`
	Partial               bool                `json:"partial"`
	GeneratedAt           time.Time           `json:"generated_at"`
}

// WindowStats is call activity for one time window.
type WindowStats struct {
	From            time.Time `json:"from"`
	To              time.Time `json:"to"`
	Calls           int       `json:"calls"`
	SuccessfulCalls int       `json:"successful_calls"`
	PTPCount        int       `json:"ptp_count"`
	Collected       float64   `json:"collected"`
}

// TelecallerMetrics is the performance record for one telecaller.
type TelecallerMetrics struct {
	TelecallerID                string       `json:"telecaller_id"`
	EmpCode                     string       `json:"emp_code"`
	Name                        string       `json:"name"`
	TeamID                      string       `json:"team_id,omitempty"`
	TotalCases                  int          `json:"total_cases"`
	Status                      StatusCounts `json:"status"`
	TotalCallsMade              int          `json:"total_calls_made"`
	SuccessfulCalls             int          `json:"successful_calls"`
	TotalCollected              float64      `json:"total_collected"`
	TotalCallDuration           int          `json:"total_call_duration"`
	AverageCallDuration         float64      `json:"average_call_duration"`
	CallSuccessRate             float64      `json:"call_success_rate"`
	Daily                       WindowStats  `json:"daily"`
	Weekly                      WindowStats  `json:"weekly"`
	Monthly                     WindowStats  `json:"monthly"`
	DailyCallsTarget            int          `json:"daily_calls_target"`
	WeeklyCallsTarget           int          `json:"weekly_calls_target"`
	MonthlyCallsTarget          int          `json:"monthly_calls_target"`
	MonthlyCollectionsTarget    float64      `json:"monthly_collections_target"`
	CallTargetAchievement       Percentage   `json:"call_target_achievement"`
	CollectionTargetAchievement Percentage   `json:"collection_target_achievement"`
	Partial                     bool         `json:"partial"`
	GeneratedAt                 time.Time    `json:"generated_at"`
}

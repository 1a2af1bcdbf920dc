// Package telecaller computes performance metrics for a single telecaller.
package telecaller

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jordanlanch/recoverydesk/pkg/domain"
	"github.com/jordanlanch/recoverydesk/pkg/logger"
	"github.com/jordanlanch/recoverydesk/pkg/models"
	"github.com/jordanlanch/recoverydesk/pkg/store"
)

// Source is the subset of the store read by the telecaller aggregator.
type Source interface {
	GetEmployee(ctx context.Context, tenantID, employeeID string) (models.Employee, error)
	FetchCasesForTelecallerID(ctx context.Context, tenantID, telecallerID string) ([]models.Case, error)
	FetchCallLogsForEmployees(ctx context.Context, tenantID string, employeeIDs []string, period models.Period) ([]models.CallLog, error)
	FetchTargets(ctx context.Context, tenantID string, telecallerIDs []string) ([]models.Target, error)
}

// Inputs is everything Compute needs for one telecaller.
type Inputs struct {
	Telecaller models.Employee
	Cases      []models.Case
	CallLogs   []models.CallLog
	Target     *models.Target
}

type windowTally struct {
	stats     models.WindowStats
	collected decimal.Decimal
}

func newTally(w Window) *windowTally {
	return &windowTally{
		stats:     models.WindowStats{From: w.From, To: w.To},
		collected: decimal.Zero,
	}
}

func (t *windowTally) add(l models.CallLog) {
	t.stats.Calls++
	if l.IsSuccessful() {
		t.stats.SuccessfulCalls++
	}
	if l.PTPDate != nil {
		t.stats.PTPCount++
	}
	if l.AmountCollected != nil {
		t.collected = t.collected.Add(decimal.NewFromFloat(*l.AmountCollected))
	}
}

func (t *windowTally) result() models.WindowStats {
	s := t.stats
	s.Collected = t.collected.InexactFloat64()
	return s
}

// Compute builds telecaller metrics at instant now, with calendar windows
// evaluated in loc.
func Compute(in Inputs, now time.Time, loc *time.Location) models.TelecallerMetrics {
	if loc == nil {
		loc = time.UTC
	}
	m := models.TelecallerMetrics{
		TelecallerID: in.Telecaller.ID,
		EmpCode:      in.Telecaller.EmpCode,
		Name:         in.Telecaller.Name,
		TotalCases:   len(in.Cases),
	}
	if in.Telecaller.TeamID != nil {
		m.TeamID = *in.Telecaller.TeamID
	}
	for _, c := range in.Cases {
		m.Status.Add(c.CaseStatus)
	}

	dailyW, weeklyW, monthlyW := Daily(now, loc), Weekly(now), Monthly(now, loc)
	daily, weekly, monthly := newTally(dailyW), newTally(weeklyW), newTally(monthlyW)
	windows := []struct {
		w Window
		t *windowTally
	}{
		{dailyW, daily},
		{weeklyW, weekly},
		{monthlyW, monthly},
	}

	collected := decimal.Zero
	for _, l := range in.CallLogs {
		if l.EmployeeID != in.Telecaller.ID {
			continue
		}
		m.TotalCallsMade++
		m.TotalCallDuration += l.CallDuration
		if l.IsSuccessful() {
			m.SuccessfulCalls++
		}
		if l.AmountCollected != nil {
			collected = collected.Add(decimal.NewFromFloat(*l.AmountCollected))
		}
		for _, w := range windows {
			if w.w.Contains(l.CreatedAt) {
				w.t.add(l)
			}
		}
	}
	m.TotalCollected = collected.InexactFloat64()

	if m.TotalCallsMade > 0 {
		calls := decimal.NewFromInt(int64(m.TotalCallsMade))
		m.AverageCallDuration = decimal.NewFromInt(int64(m.TotalCallDuration)).Div(calls).Round(2).InexactFloat64()
		m.CallSuccessRate = decimal.NewFromInt(int64(m.SuccessfulCalls)).Mul(decimal.NewFromInt(100)).Div(calls).Round(2).InexactFloat64()
	}

	m.Daily = daily.result()
	m.Weekly = weekly.result()
	m.Monthly = monthly.result()

	if in.Target != nil {
		m.DailyCallsTarget = in.Target.DailyCallsTarget
		m.WeeklyCallsTarget = in.Target.WeeklyCallsTarget
		m.MonthlyCallsTarget = in.Target.MonthlyCallsTarget
		m.MonthlyCollectionsTarget = in.Target.CollectionsTarget()
	}
	m.CallTargetAchievement = models.NewPercentage(
		decimal.NewFromInt(int64(m.Monthly.Calls)),
		decimal.NewFromInt(int64(m.MonthlyCallsTarget)),
	)
	m.CollectionTargetAchievement = models.NewPercentage(
		monthly.collected,
		decimal.NewFromFloat(m.MonthlyCollectionsTarget),
	)
	return m
}

// Service fetches a telecaller's data and computes metrics.
type Service struct {
	source Source
	log    logger.Logger
	loc    *time.Location
	now    func() time.Time
}

// NewService creates a new telecaller metrics service. loc is the tenant's
// local time zone used for daily and monthly windows.
func NewService(source Source, log logger.Logger, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{source: source, log: log, loc: loc, now: time.Now}
}

// ComputeTelecallerMetrics computes metrics for the telecaller at instant now.
// A zero now means the current time. Fetch failures after the telecaller
// lookup are logged and mark the result Partial.
func (s *Service) ComputeTelecallerMetrics(ctx context.Context, tenantID, telecallerID string, now time.Time) (models.TelecallerMetrics, error) {
	if now.IsZero() {
		now = s.now()
	}
	emp, err := s.source.GetEmployee(ctx, tenantID, telecallerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.TelecallerMetrics{}, domain.NewNotFoundError("telecaller")
		}
		return models.TelecallerMetrics{}, domain.NewInternalError(err)
	}
	if emp.Role != models.RoleTelecaller {
		return models.TelecallerMetrics{}, domain.NewNotFoundError("telecaller")
	}

	in := Inputs{Telecaller: emp}
	partial := false
	fail := func(step string, err error) {
		partial = true
		s.log.Error("telecaller metrics fetch failed", "tenant_id", tenantID, "telecaller_id", telecallerID, "step", step, "error", err)
	}

	if in.Cases, err = s.source.FetchCasesForTelecallerID(ctx, tenantID, emp.ID); err != nil {
		fail("cases", err)
	}
	if in.CallLogs, err = s.source.FetchCallLogsForEmployees(ctx, tenantID, []string{emp.ID}, models.Period{}); err != nil {
		fail("call_logs", err)
	}
	targets, err := s.source.FetchTargets(ctx, tenantID, []string{emp.ID})
	if err != nil {
		fail("targets", err)
	}
	if t, ok := store.LatestTargets(targets)[emp.ID]; ok {
		in.Target = &t
	}

	m := Compute(in, now, s.loc)
	m.Partial = partial
	m.GeneratedAt = s.now().UTC()
	return m, nil
}

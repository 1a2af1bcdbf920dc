// Package teammetrics computes per-team dashboard metrics.
package teammetrics

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jordanlanch/recoverydesk/pkg/caseagg"
	"github.com/jordanlanch/recoverydesk/pkg/domain"
	"github.com/jordanlanch/recoverydesk/pkg/logger"
	"github.com/jordanlanch/recoverydesk/pkg/models"
	"github.com/jordanlanch/recoverydesk/pkg/store"
)

// Source is the subset of the store read by the team aggregator.
type Source interface {
	GetTeam(ctx context.Context, tenantID, teamID string) (models.Team, error)
	ListTeams(ctx context.Context, tenantID string) ([]models.Team, error)
	ActiveTelecallers(ctx context.Context, tenantID, teamID string) ([]models.Employee, error)
	FetchCasesForTeam(ctx context.Context, tenantID, teamID string) ([]models.Case, error)
	FetchCallLogsForEmployees(ctx context.Context, tenantID string, employeeIDs []string, period models.Period) ([]models.CallLog, error)
	FetchTargets(ctx context.Context, tenantID string, telecallerIDs []string) ([]models.Target, error)
}

// Inputs is everything Compute needs for one team.
type Inputs struct {
	Team        models.Team
	Telecallers []models.Employee
	Cases       []models.Case
	CallLogs    []models.CallLog
	Targets     []models.Target
	Period      models.Period
}

// Compute builds team metrics from already fetched rows. Call logs and
// targets of employees outside Telecallers are ignored.
func Compute(in Inputs) models.TeamMetrics {
	m := models.TeamMetrics{
		TeamID:          in.Team.ID,
		TeamName:        in.Team.Name,
		ProductName:     in.Team.ProductName,
		TelecallerCount: len(in.Telecallers),
		TotalCases:      len(in.Cases),
		DPD:             caseagg.BucketCounts(in.Cases),
		Period:          in.Period,
		Telecallers:     make([]models.TelecallerSummary, 0, len(in.Telecallers)),
	}
	for _, c := range in.Cases {
		m.Status.Add(c.CaseStatus)
	}

	type tally struct {
		calls     int
		collected decimal.Decimal
	}
	perCaller := make(map[string]*tally, len(in.Telecallers))
	for _, tc := range in.Telecallers {
		perCaller[tc.ID] = &tally{collected: decimal.Zero}
	}

	totalCollected := decimal.Zero
	for _, l := range in.CallLogs {
		t, ok := perCaller[l.EmployeeID]
		if !ok {
			continue
		}
		m.TotalCalls++
		t.calls++
		if l.AmountCollected != nil {
			amt := decimal.NewFromFloat(*l.AmountCollected)
			totalCollected = totalCollected.Add(amt)
			t.collected = t.collected.Add(amt)
		}
	}

	latest := store.LatestTargets(in.Targets)
	teamTarget := decimal.Zero
	for _, tc := range in.Telecallers {
		target := decimal.Zero
		if tg, ok := latest[tc.ID]; ok {
			target = decimal.NewFromFloat(tg.CollectionsTarget())
		}
		teamTarget = teamTarget.Add(target)

		t := perCaller[tc.ID]
		m.Telecallers = append(m.Telecallers, models.TelecallerSummary{
			TelecallerID: tc.ID,
			EmpCode:      tc.EmpCode,
			Name:         tc.Name,
			Calls:        t.calls,
			Collected:    t.collected.InexactFloat64(),
			Target:       target.InexactFloat64(),
			Achievement:  models.NewPercentage(t.collected, target),
		})
	}

	m.TotalCollected = totalCollected.InexactFloat64()
	m.TeamTarget = teamTarget.InexactFloat64()
	m.AchievementPercentage = models.NewPercentage(totalCollected, teamTarget)
	return m
}

// Service fetches team data and computes metrics.
type Service struct {
	source Source
	log    logger.Logger
	now    func() time.Time
}

// NewService creates a new team metrics service
func NewService(source Source, log logger.Logger) *Service {
	return &Service{source: source, log: log, now: time.Now}
}

// ComputeTeamMetrics fetches the team's telecallers, cases, call logs and
// targets and computes its metrics. A team with no active telecallers gets
// zero counts without reading its cases. Fetch failures are logged and the
// affected part is computed from whatever was read; Partial is then set.
func (s *Service) ComputeTeamMetrics(ctx context.Context, tenantID string, team models.Team, period models.Period) models.TeamMetrics {
	in := Inputs{Team: team, Period: period}
	partial := false
	fail := func(step string, err error) {
		partial = true
		s.log.Error("team metrics fetch failed", "tenant_id", tenantID, "team_id", team.ID, "step", step, "error", err)
	}

	var err error
	if in.Telecallers, err = s.source.ActiveTelecallers(ctx, tenantID, team.ID); err != nil {
		fail("telecallers", err)
	} else if len(in.Telecallers) == 0 {
		// a team without active telecallers reports all-zero metrics
		m := Compute(in)
		m.GeneratedAt = s.now().UTC()
		return m
	}
	if in.Cases, err = s.source.FetchCasesForTeam(ctx, tenantID, team.ID); err != nil {
		fail("cases", err)
	}

	ids := make([]string, len(in.Telecallers))
	for i, tc := range in.Telecallers {
		ids[i] = tc.ID
	}
	if len(ids) > 0 {
		if in.CallLogs, err = s.source.FetchCallLogsForEmployees(ctx, tenantID, ids, period); err != nil {
			fail("call_logs", err)
		}
		if in.Targets, err = s.source.FetchTargets(ctx, tenantID, ids); err != nil {
			fail("targets", err)
		}
	}

	m := Compute(in)
	m.Partial = partial
	m.GeneratedAt = s.now().UTC()
	return m
}

// ComputeTeamMetricsByID looks the team up first.
func (s *Service) ComputeTeamMetricsByID(ctx context.Context, tenantID, teamID string, period models.Period) (models.TeamMetrics, error) {
	team, err := s.source.GetTeam(ctx, tenantID, teamID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.TeamMetrics{}, domain.NewNotFoundError("team")
		}
		return models.TeamMetrics{}, domain.NewInternalError(err)
	}
	return s.ComputeTeamMetrics(ctx, tenantID, team, period), nil
}

// ComputeAllTeams computes metrics for every team of the tenant, one team at
// a time. A failing team yields zero or partial metrics for that team only.
func (s *Service) ComputeAllTeams(ctx context.Context, tenantID string, period models.Period) []models.TeamMetrics {
	teams, err := s.source.ListTeams(ctx, tenantID)
	if err != nil {
		s.log.Error("team list fetch failed", "tenant_id", tenantID, "fetched", len(teams), "error", err)
	}
	out := make([]models.TeamMetrics, 0, len(teams))
	for _, team := range teams {
		out = append(out, s.ComputeTeamMetrics(ctx, tenantID, team, period))
	}
	return out
}

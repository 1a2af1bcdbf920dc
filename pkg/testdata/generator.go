// Package testdata generates realistic recovery desk data for local
// development and tests.
package testdata

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/jordanlanch/recoverydesk/pkg/models"
	"github.com/jordanlanch/recoverydesk/pkg/store"
)

// CaseGeneratorConfig configures case generation parameters
type CaseGeneratorConfig struct {
	MinDPD            int
	MaxDPD            int
	MinLoanAmount     float64
	MaxLoanAmount     float64
	OutstandingChance float64 // 0.0-1.0 (probability of a typed outstanding amount)
	CaseDataChance    float64 // probability of carrying name and mobile in case_data only
}

// DefaultCaseConfig spreads DPD over every bucket.
var DefaultCaseConfig = CaseGeneratorConfig{
	MinDPD:            0,
	MaxDPD:            240,
	MinLoanAmount:     5000,
	MaxLoanAmount:     500000,
	OutstandingChance: 0.8,
	CaseDataChance:    0.2,
}

// Products assigned to generated teams.
var Products = []string{"Personal Loan", "Two Wheeler Loan", "Credit Card", "Consumer Durable", "Gold Loan", "Business Loan"}

// callOutcomes weights the non-payment outcomes of generated calls.
var callOutcomes = []struct {
	status string
	weight float32
}{
	{models.CallStatusRNR, 35},
	{models.CallStatusPTP, 20},
	{models.CallStatusFuturePTP, 10},
	{models.CallStatusNC, 15},
	{models.CallStatusWN, 5},
	{"CALLBACK", 10},
	{"DISPUTE", 5},
}

// Generator produces fake rows. A fixed seed yields the same rows every run.
type Generator struct {
	faker *gofakeit.Faker
}

// New returns a generator. Seed 0 picks a random seed.
func New(seed int64) *Generator {
	return &Generator{faker: gofakeit.New(seed)}
}

// Mobile returns a 10 digit Indian mobile number without country code.
func (g *Generator) Mobile() string {
	return g.faker.RandomString([]string{"9", "8", "7"}) + g.faker.Numerify("#########")
}

// Team generates a team for the tenant.
func (g *Generator) Team(tenantID string) models.Team {
	product := g.faker.RandomString(Products)
	return models.Team{
		TenantID:    tenantID,
		Name:        fmt.Sprintf("%s %s", g.faker.City(), product),
		ProductName: product,
		Status:      models.StatusActive,
	}
}

// Employee generates an employee of the given role.
func (g *Generator) Employee(tenantID string, role models.Role, teamID *string) models.Employee {
	prefix := "EMP"
	if role == models.RoleTelecaller {
		prefix = "TC"
	}
	return models.Employee{
		TenantID: tenantID,
		EmpCode:  prefix + g.faker.Numerify("####"),
		Name:     g.faker.Name(),
		Mobile:   g.Mobile(),
		Role:     role,
		Status:   models.StatusActive,
		TeamID:   teamID,
	}
}

// Target generates a monthly target for the telecaller.
func (g *Generator) Target(tenantID, telecallerID string) models.Target {
	daily := g.faker.Number(40, 120)
	collections := float64(g.faker.Number(5, 50) * 10000)
	return models.Target{
		TenantID:                 tenantID,
		TelecallerID:             telecallerID,
		DailyCallsTarget:         daily,
		WeeklyCallsTarget:        daily * 6,
		MonthlyCallsTarget:       daily * 26,
		MonthlyCollectionsTarget: &collections,
	}
}

// Case generates a single pending case. The caller sets team and telecaller.
func (g *Generator) Case(tenantID string, cfg CaseGeneratorConfig) models.Case {
	loan := g.roundAmount(g.faker.Float64Range(cfg.MinLoanAmount, cfg.MaxLoanAmount))
	outstanding := g.roundAmount(loan * g.faker.Float64Range(0.1, 1))

	c := models.Case{
		TenantID:   tenantID,
		LoanID:     "LN" + g.faker.Numerify("##########"),
		LoanAmount: &loan,
		DPD:        g.faker.Number(cfg.MinDPD, cfg.MaxDPD),
		CaseStatus: models.CaseStatusPending,
		Priority:   g.priority(),
	}

	name, mobile := g.faker.Name(), g.Mobile()
	if g.faker.Float64() < cfg.CaseDataChance {
		c.CaseData = map[string]any{
			"customer_name":      name,
			"mobile_no":          mobile,
			"outstanding_amount": fmt.Sprintf("%.2f", outstanding),
			"branch":             g.faker.City(),
		}
		return c
	}
	c.CustomerName = name
	c.MobileNo = mobile
	if g.faker.Float64() < cfg.OutstandingChance {
		c.OutstandingAmount = &outstanding
	}
	return c
}

// Cases generates count cases.
func (g *Generator) Cases(tenantID string, count int, cfg CaseGeneratorConfig) []models.Case {
	cases := make([]models.Case, 0, count)
	for i := 0; i < count; i++ {
		cases = append(cases, g.Case(tenantID, cfg))
	}
	return cases
}

// CallLog generates one non-payment call outcome made between from and to.
func (g *Generator) CallLog(c models.Case, employeeID string, from, to time.Time) models.CallLog {
	created := g.faker.DateRange(from, to).UTC()
	l := models.CallLog{
		TenantID:     c.TenantID,
		CaseID:       c.ID,
		EmployeeID:   employeeID,
		CallStatus:   g.outcome(),
		CallDuration: g.faker.Number(0, 600),
		CreatedAt:    created,
	}
	switch l.CallStatus {
	case models.CallStatusPTP:
		ptp := created.AddDate(0, 0, g.faker.Number(1, 3))
		l.PTPDate = &ptp
	case models.CallStatusFuturePTP:
		ptp := created.AddDate(0, 0, g.faker.Number(7, 30))
		l.PTPDate = &ptp
	case models.CallStatusRNR, models.CallStatusNC:
		l.CallDuration = 0
	}
	if g.faker.Bool() {
		l.Notes = g.faker.Sentence(g.faker.Number(3, 10))
	}
	return l
}

// Payment generates a payment log of at most max.
func (g *Generator) Payment(c models.Case, employeeID string, max float64, at time.Time) models.CallLog {
	amount := g.roundAmount(g.faker.Float64Range(max*0.1, max))
	return models.CallLog{
		TenantID:        c.TenantID,
		CaseID:          c.ID,
		EmployeeID:      employeeID,
		CallStatus:      models.CallStatusPaymentReceived,
		AmountCollected: &amount,
		CallDuration:    g.faker.Number(60, 600),
		Notes:           "Payment received via " + g.faker.RandomString([]string{"UPI", "NEFT", "cash", "cheque"}),
		CreatedAt:       at.UTC(),
	}
}

func (g *Generator) outcome() string {
	options := make([]any, len(callOutcomes))
	weights := make([]float32, len(callOutcomes))
	for i, o := range callOutcomes {
		options[i] = o.status
		weights[i] = o.weight
	}
	picked, err := g.faker.Weighted(options, weights)
	if err != nil {
		return models.CallStatusRNR
	}
	return picked.(string)
}

func (g *Generator) priority() models.Priority {
	return models.Priority(g.faker.RandomString([]string{
		string(models.PriorityLow), string(models.PriorityMedium), string(models.PriorityMedium),
		string(models.PriorityHigh), string(models.PriorityUrgent),
	}))
}

func (g *Generator) roundAmount(v float64) float64 {
	return float64(int64(v/100)) * 100
}

// SeedConfig sizes a seeded tenant.
type SeedConfig struct {
	TenantID           string
	Teams              int
	TelecallersPerTeam int
	CasesPerTeam       int
	CallsPerCase       int
	PaymentChance      float64
	Cases              CaseGeneratorConfig
	From, To           time.Time
}

// SeedResult counts the rows written by Seed.
type SeedResult struct {
	Teams       int `json:"teams"`
	Employees   int `json:"employees"`
	Cases       int `json:"cases"`
	CallLogs    int `json:"call_logs"`
	Payments    int `json:"payments"`
	Unassigned  int `json:"unassigned"`
	TargetsSet  int `json:"targets_set"`
	ClosedCases int `json:"closed_cases"`
}

// Seed writes a full tenant (teams, a team-in-charge per team, telecallers
// with targets, cases and call history) in a single transaction.
func (g *Generator) Seed(ctx context.Context, st *store.Store, cfg SeedConfig) (SeedResult, error) {
	var res SeedResult
	if cfg.TenantID == "" {
		return res, fmt.Errorf("tenant id is required")
	}
	if !cfg.To.After(cfg.From) {
		cfg.To = time.Now().UTC()
		cfg.From = cfg.To.AddDate(0, -1, 0)
	}

	err := st.WithTx(ctx, func(tx *store.Store) error {
		for i := 0; i < cfg.Teams; i++ {
			team := g.Team(cfg.TenantID)
			if err := tx.InsertTeam(ctx, &team); err != nil {
				return err
			}
			res.Teams++

			incharge := g.Employee(cfg.TenantID, models.RoleTeamIncharge, &team.ID)
			if err := tx.InsertEmployee(ctx, &incharge); err != nil {
				return err
			}
			res.Employees++

			callers := make([]models.Employee, 0, cfg.TelecallersPerTeam)
			for j := 0; j < cfg.TelecallersPerTeam; j++ {
				tc := g.Employee(cfg.TenantID, models.RoleTelecaller, &team.ID)
				if err := tx.InsertEmployee(ctx, &tc); err != nil {
					return err
				}
				target := g.Target(cfg.TenantID, tc.ID)
				if err := tx.InsertTarget(ctx, &target); err != nil {
					return err
				}
				callers = append(callers, tc)
				res.Employees++
				res.TargetsSet++
			}

			for _, c := range g.Cases(cfg.TenantID, cfg.CasesPerTeam, cfg.Cases) {
				c.TeamID = &team.ID
				if len(callers) == 0 || g.faker.Float64() < 0.1 {
					res.Unassigned++
				} else {
					tc := callers[g.faker.Number(0, len(callers)-1)]
					c.TelecallerID = &tc.ID
					c.AssignedEmployeeID = &tc.ID
					c.CaseStatus = models.CaseStatusInProgress
				}
				if err := g.seedHistory(ctx, tx, &c, cfg, &res); err != nil {
					return err
				}
				res.Cases++
			}
		}
		return nil
	})
	return res, err
}

// seedHistory inserts the case with its call logs. Payments are summed into
// the case so stored totals reconcile with the logs.
func (g *Generator) seedHistory(ctx context.Context, tx *store.Store, c *models.Case, cfg SeedConfig, res *SeedResult) error {
	var logs []models.CallLog
	if c.TelecallerID != nil {
		for k := 0; k < cfg.CallsPerCase; k++ {
			logs = append(logs, g.CallLog(*c, *c.TelecallerID, cfg.From, cfg.To))
		}
		if c.OutstandingAmount != nil && g.faker.Float64() < cfg.PaymentChance {
			p := g.Payment(*c, *c.TelecallerID, *c.OutstandingAmount, g.faker.DateRange(cfg.From, cfg.To))
			c.TotalCollectedAmount = *p.AmountCollected
			if c.TotalCollectedAmount >= *c.OutstandingAmount {
				c.CaseStatus = models.CaseStatusClosed
				res.ClosedCases++
			}
			logs = append(logs, p)
			res.Payments++
		}
	}
	if err := tx.InsertCase(ctx, c); err != nil {
		return err
	}
	for i := range logs {
		logs[i].CaseID = c.ID
		if err := tx.InsertCallLog(ctx, &logs[i]); err != nil {
			return err
		}
		res.CallLogs++
	}
	return nil
}

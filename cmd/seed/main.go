// Command seed fills a development database with a generated tenant and
// prints bearer tokens for its admin.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/jordanlanch/recoverydesk/config"
	"github.com/jordanlanch/recoverydesk/pkg/auth"
	"github.com/jordanlanch/recoverydesk/pkg/database"
	"github.com/jordanlanch/recoverydesk/pkg/logger"
	"github.com/jordanlanch/recoverydesk/pkg/models"
	"github.com/jordanlanch/recoverydesk/pkg/store"
	"github.com/jordanlanch/recoverydesk/pkg/testdata"
)

func main() {
	tenant := flag.String("tenant", "demo-tenant", "tenant id to seed")
	teams := flag.Int("teams", 3, "number of teams")
	callers := flag.Int("telecallers", 5, "telecallers per team")
	cases := flag.Int("cases", 200, "cases per team")
	calls := flag.Int("calls", 3, "call logs per assigned case")
	payments := flag.Float64("payment-chance", 0.3, "probability of a payment per case")
	seed := flag.Int64("seed", 0, "generator seed, 0 for random")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()
	db, err := database.NewClient(ctx, cfg.DatabaseURL, database.DefaultPoolConfig(), nil, log)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	st := store.New(db.Driver, store.WithLogger(log))
	gen := testdata.New(*seed)

	admin := gen.Employee(*tenant, models.RoleCompanyAdmin, nil)
	admin.EmpCode = "ADMIN"
	if err := st.InsertEmployee(ctx, &admin); err != nil {
		log.Error("failed to create admin", "error", err)
		os.Exit(1)
	}

	now := time.Now().UTC()
	res, err := gen.Seed(ctx, st, testdata.SeedConfig{
		TenantID:           *tenant,
		Teams:              *teams,
		TelecallersPerTeam: *callers,
		CasesPerTeam:       *cases,
		CallsPerCase:       *calls,
		PaymentChance:      *payments,
		Cases:              testdata.DefaultCaseConfig,
		From:               now.AddDate(0, -1, 0),
		To:                 now,
	})
	if err != nil {
		log.Error("seed failed", "tenant_id", *tenant, "error", err)
		os.Exit(1)
	}
	log.Info("tenant seeded",
		"tenant_id", *tenant,
		"teams", res.Teams,
		"employees", res.Employees+1,
		"cases", res.Cases,
		"call_logs", res.CallLogs,
		"payments", res.Payments,
		"closed", res.ClosedCases,
	)

	token, err := auth.GenerateJWT(models.Caller{TenantID: admin.TenantID, EmployeeID: admin.ID, Role: admin.Role}, cfg.JWTSecret, time.Duration(cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		log.Error("failed to sign admin token", "error", err)
		os.Exit(1)
	}
	fmt.Printf("admin token (%s):\n%s\n", admin.ID, token)
}

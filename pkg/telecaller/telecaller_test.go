package telecaller

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordanlanch/recoverydesk/pkg/database/dbtest"
	"github.com/jordanlanch/recoverydesk/pkg/domain"
	"github.com/jordanlanch/recoverydesk/pkg/logger"
	"github.com/jordanlanch/recoverydesk/pkg/models"
	"github.com/jordanlanch/recoverydesk/pkg/store"
)

func ptr[T any](v T) *T { return &v }

// 2024-06-15 14:00 UTC
var now = time.Date(2024, 6, 15, 14, 0, 0, 0, time.UTC)

func TestWindows(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)

	d := Daily(now, loc)
	assert.True(t, d.From.Equal(time.Date(2024, 6, 15, 0, 0, 0, 0, loc)))
	assert.True(t, d.To.Equal(now))

	// 19:00 UTC on the 14th is already 00:30 on the 15th in IST
	assert.True(t, d.Contains(time.Date(2024, 6, 14, 19, 0, 0, 0, time.UTC)))
	assert.False(t, d.Contains(time.Date(2024, 6, 14, 18, 0, 0, 0, time.UTC)))
	assert.False(t, d.Contains(now.Add(time.Second)))

	w := Weekly(now)
	assert.True(t, w.From.Equal(now.AddDate(0, 0, -7)))

	m := Monthly(now, loc)
	assert.True(t, m.From.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, loc)))
}

func TestCompute(t *testing.T) {
	tc := models.Employee{ID: "tc-1", EmpCode: "TC001", Name: "Ravi", TeamID: ptr("team-1")}
	logs := []models.CallLog{
		{EmployeeID: "tc-1", CallStatus: models.CallStatusPTP, PTPDate: ptr(now.AddDate(0, 0, 2)), CallDuration: 120, CreatedAt: now.Add(-time.Hour)},
		{EmployeeID: "tc-1", CallStatus: models.CallStatusFuturePTP, CallDuration: 60, CreatedAt: now.AddDate(0, 0, -3)},
		{EmployeeID: "tc-1", CallStatus: models.CallStatusRNR, CallDuration: 0, CreatedAt: now.AddDate(0, 0, -10)},
		{EmployeeID: "tc-1", CallStatus: models.CallStatusPaymentReceived, AmountCollected: ptr(2500.0), CallDuration: 300, CreatedAt: now.Add(-2 * time.Hour)},
		{EmployeeID: "tc-1", CallStatus: models.CallStatusPaymentReceived, AmountCollected: ptr(1000.0), CallDuration: 20, CreatedAt: now.AddDate(0, -1, 0)},
		{EmployeeID: "other", CallStatus: models.CallStatusPTP, CreatedAt: now},
	}
	cases := []models.Case{
		{CaseStatus: models.CaseStatusPending},
		{CaseStatus: models.CaseStatusClosed},
		{CaseStatus: models.CaseStatusInProgress},
	}
	target := &models.Target{MonthlyCallsTarget: 8, MonthlyCollectionsTarget: ptr(10000.0), DailyCallsTarget: 5}

	m := Compute(Inputs{Telecaller: tc, Cases: cases, CallLogs: logs, Target: target}, now, time.UTC)

	assert.Equal(t, "team-1", m.TeamID)
	assert.Equal(t, 3, m.TotalCases)
	assert.Equal(t, 3, m.Status.Total())
	assert.Equal(t, 5, m.TotalCallsMade)
	assert.Equal(t, 2, m.SuccessfulCalls)
	assert.Equal(t, 3500.0, m.TotalCollected)
	assert.Equal(t, 500, m.TotalCallDuration)
	assert.Equal(t, 100.0, m.AverageCallDuration)
	assert.Equal(t, 40.0, m.CallSuccessRate)

	assert.Equal(t, 2, m.Daily.Calls)
	assert.Equal(t, 1, m.Daily.PTPCount)
	assert.Equal(t, 2500.0, m.Daily.Collected)
	assert.Equal(t, 3, m.Weekly.Calls)
	assert.Equal(t, 2, m.Weekly.SuccessfulCalls)
	assert.Equal(t, 4, m.Monthly.Calls)
	assert.Equal(t, 2500.0, m.Monthly.Collected)

	assert.Equal(t, models.Percentage{Value: 50, Set: true}, m.CallTargetAchievement)
	assert.Equal(t, models.Percentage{Value: 25, Set: true}, m.CollectionTargetAchievement)
	assert.Equal(t, 5, m.DailyCallsTarget)
}

func TestComputeNoCallsNoTarget(t *testing.T) {
	m := Compute(Inputs{Telecaller: models.Employee{ID: "tc-1"}}, now, nil)
	assert.Equal(t, 0.0, m.AverageCallDuration)
	assert.Equal(t, 0.0, m.CallSuccessRate)
	assert.False(t, m.CallTargetAchievement.Set)
	assert.False(t, m.CollectionTargetAchievement.Set)
}

func TestServiceAgainstStore(t *testing.T) {
	ctx := context.Background()
	st := store.New(dbtest.Open(t).Driver)

	tc := models.Employee{TenantID: "t1", EmpCode: "TC001", Name: "Ravi", Role: models.RoleTelecaller}
	require.NoError(t, st.InsertEmployee(ctx, &tc))
	admin := models.Employee{TenantID: "t1", EmpCode: "AD001", Name: "Admin", Role: models.RoleCompanyAdmin}
	require.NoError(t, st.InsertEmployee(ctx, &admin))

	c := models.Case{TenantID: "t1", TelecallerID: &tc.ID, LoanID: "LN-1"}
	require.NoError(t, st.InsertCase(ctx, &c))
	require.NoError(t, st.InsertCallLog(ctx, &models.CallLog{TenantID: "t1", CaseID: c.ID, EmployeeID: tc.ID, CallStatus: models.CallStatusPTP, CallDuration: 90, CreatedAt: now.Add(-time.Hour)}))
	require.NoError(t, st.InsertTarget(ctx, &models.Target{TenantID: "t1", TelecallerID: tc.ID, MonthlyCallsTarget: 4}))

	svc := NewService(st, logger.Nop(), time.UTC)
	m, err := svc.ComputeTelecallerMetrics(ctx, "t1", tc.ID, now)
	require.NoError(t, err)
	assert.False(t, m.Partial)
	assert.Equal(t, 1, m.TotalCases)
	assert.Equal(t, 1, m.Daily.Calls)
	assert.Equal(t, 100.0, m.CallSuccessRate)
	assert.Equal(t, models.Percentage{Value: 25, Set: true}, m.CallTargetAchievement)

	_, err = svc.ComputeTelecallerMetrics(ctx, "t1", admin.ID, now)
	assert.True(t, domain.IsNotFound(err))

	_, err = svc.ComputeTelecallerMetrics(ctx, "t1", "missing", now)
	assert.True(t, domain.IsNotFound(err))
}

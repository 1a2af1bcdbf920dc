package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordanlanch/recoverydesk/pkg/api/middleware"
	"github.com/jordanlanch/recoverydesk/pkg/assignment"
	"github.com/jordanlanch/recoverydesk/pkg/auth"
	"github.com/jordanlanch/recoverydesk/pkg/cache"
	"github.com/jordanlanch/recoverydesk/pkg/caseagg"
	"github.com/jordanlanch/recoverydesk/pkg/database/dbtest"
	"github.com/jordanlanch/recoverydesk/pkg/logger"
	"github.com/jordanlanch/recoverydesk/pkg/models"
	"github.com/jordanlanch/recoverydesk/pkg/phone"
	"github.com/jordanlanch/recoverydesk/pkg/progress"
	"github.com/jordanlanch/recoverydesk/pkg/reports"
	"github.com/jordanlanch/recoverydesk/pkg/store"
	"github.com/jordanlanch/recoverydesk/pkg/teammetrics"
	"github.com/jordanlanch/recoverydesk/pkg/telecaller"
)

const (
	tenant = "tenant-1"
	secret = "test-secret-key-minimum-32-characters-long"
)

func ptr[T any](v T) *T { return &v }

type apiFixture struct {
	e          *echo.Echo
	store      *store.Store
	team       models.Team
	telecaller models.Employee
	other      models.Employee
	caseID     string
	admin      string
	caller     string
}

func setupAPI(t *testing.T) apiFixture {
	t.Helper()
	ctx := context.Background()
	log := logger.Nop()
	st := store.New(dbtest.Open(t).Driver)

	mr := miniredis.RunT(t)
	rc := &cache.Client{Redis: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	t.Cleanup(func() { rc.Close() })
	tracker := progress.NewTracker(rc, progress.DefaultTTL)

	f := apiFixture{store: st}
	f.team = models.Team{TenantID: tenant, Name: "North", ProductName: "Personal Loan"}
	require.NoError(t, st.InsertTeam(ctx, &f.team))
	f.telecaller = models.Employee{TenantID: tenant, EmpCode: "TC001", Name: "Asha", Role: models.RoleTelecaller, Status: models.StatusActive, TeamID: &f.team.ID}
	require.NoError(t, st.InsertEmployee(ctx, &f.telecaller))
	f.other = models.Employee{TenantID: tenant, EmpCode: "TC002", Name: "Ravi", Role: models.RoleTelecaller, Status: models.StatusActive, TeamID: &f.team.ID}
	require.NoError(t, st.InsertEmployee(ctx, &f.other))
	require.NoError(t, st.InsertTarget(ctx, &models.Target{TenantID: tenant, TelecallerID: f.telecaller.ID, MonthlyCollectionsTarget: ptr(1000.0)}))

	c := models.Case{
		TenantID: tenant, TeamID: &f.team.ID, TelecallerID: &f.telecaller.ID, AssignedEmployeeID: &f.telecaller.EmpCode,
		LoanID: "LN-1", CustomerName: "Meera", MobileNo: "9876543210", OutstandingAmount: ptr(800.0), DPD: 40,
	}
	require.NoError(t, st.InsertCase(ctx, &c))
	f.caseID = c.ID

	cases := caseagg.NewService(st, log)
	teams := teammetrics.NewService(st, log)
	operator := assignment.NewOperator(st, log, assignment.WithProgress(tracker))
	reportSvc := reports.NewService(st, cases, teams, reports.NewFormatter(phone.NewNormalizer("IN")), nil, nil, log)

	f.e = echo.New()
	api := f.e.Group("/api/v1", middleware.JWTMiddleware(secret))
	Register(api, Handlers{
		Cases:   NewCaseHandler(cases, operator, tracker),
		Metrics: NewMetricsHandler(teams, telecaller.NewService(st, log, time.UTC)),
		Reports: NewReportHandler(reportSvc),
	})

	f.admin = bearer(t, models.Caller{TenantID: tenant, EmployeeID: "admin-1", Role: models.RoleCompanyAdmin})
	f.caller = bearer(t, models.Caller{TenantID: tenant, EmployeeID: f.telecaller.ID, Role: models.RoleTelecaller})
	return f
}

func bearer(t *testing.T, caller models.Caller) string {
	t.Helper()
	tok, err := auth.GenerateJWT(caller, secret, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func (f apiFixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", token)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestTeamCasesAndTelecallerCases(t *testing.T) {
	f := setupAPI(t)

	rec := f.do(http.MethodGet, "/api/v1/teams/"+f.team.ID+"/cases", f.admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[caseagg.CaseList](t, rec)
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, 1, list.Buckets.Bucket31To60)
	assert.Empty(t, rec.Header().Get(partialHeader))

	rec = f.do(http.MethodGet, "/api/v1/telecallers/TC001/cases", f.caller, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[caseagg.CaseList](t, rec).Total)

	rec = f.do(http.MethodGet, "/api/v1/telecallers/NOPE/cases", f.admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[caseagg.CaseList](t, rec).Total)

	rec = f.do(http.MethodGet, "/api/v1/teams/"+f.team.ID+"/cases", f.caller, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestTelecallerCasesOnlyForSelf(t *testing.T) {
	f := setupAPI(t)

	rec := f.do(http.MethodGet, "/api/v1/telecallers/"+f.other.EmpCode+"/cases", f.caller, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/telecallers/"+f.other.EmpCode+"/cases", f.admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[caseagg.CaseList](t, rec).Total)
}

func TestPaymentThenMetricsAndReconciliation(t *testing.T) {
	f := setupAPI(t)

	rec := f.do(http.MethodPost, "/api/v1/cases/"+f.caseID+"/payments", f.caller, `{"amount":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/cases/missing/payments", f.caller, `{"amount":10}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/cases/"+f.caseID+"/payments", f.caller, `{"amount":800,"notes":"settled"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	result := decode[models.PaymentResult](t, rec)
	assert.True(t, result.AutoClosed)
	assert.Equal(t, models.CaseStatusClosed, result.CaseStatus)

	rec = f.do(http.MethodGet, "/api/v1/teams/"+f.team.ID+"/metrics", f.admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var metrics map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &metrics))
	assert.EqualValues(t, 80, metrics["achievement_percentage"])
	assert.EqualValues(t, 800, metrics["total_collected"])

	rec = f.do(http.MethodGet, "/api/v1/cases/"+f.caseID+"/reconciliation", f.admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	recon := decode[models.Reconciliation](t, rec)
	assert.True(t, recon.Matches)
	assert.Equal(t, 1, recon.PaymentCount)
}

func TestTeamMetricsErrors(t *testing.T) {
	f := setupAPI(t)

	rec := f.do(http.MethodGet, "/api/v1/teams/"+f.team.ID+"/metrics?from=yesterday", f.admin, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/teams/missing/metrics", f.admin, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/teams/metrics?from=2024-01-01T00:00:00Z", f.admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]models.TeamMetrics](t, rec)["teams"], 1)

	rec = f.do(http.MethodGet, "/api/v1/teams/metrics", "Bearer bad", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTelecallerMetricsOnlyForSelf(t *testing.T) {
	f := setupAPI(t)

	rec := f.do(http.MethodGet, "/api/v1/telecallers/"+f.telecaller.ID+"/metrics", f.caller, "")
	require.Equal(t, http.StatusOK, rec.Code)
	m := decode[models.TelecallerMetrics](t, rec)
	assert.Equal(t, "TC001", m.EmpCode)
	assert.Equal(t, 1, m.TotalCases)

	rec = f.do(http.MethodGet, "/api/v1/telecallers/"+f.other.ID+"/metrics", f.caller, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/telecallers/"+f.other.ID+"/metrics", f.admin, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBulkOperationSync(t *testing.T) {
	f := setupAPI(t)

	rec := f.do(http.MethodPost, "/api/v1/cases/bulk", f.admin, `{"operation":"assign","case_ids":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/api/v1/cases/bulk", f.admin, `{"case_ids":["x"]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var verr models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &verr))
	assert.Equal(t, map[string]string{"operation": "required"}, verr.Fields)

	rec = f.do(http.MethodPost, "/api/v1/cases/bulk", f.caller, `{"operation":"unassign","case_ids":["x"]}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	body := `{"operation":"assign","telecaller_id":"` + f.other.ID + `","case_ids":["` + f.caseID + `","missing"],"wait":true}`
	rec = f.do(http.MethodPost, "/api/v1/cases/bulk", f.admin, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	report := decode[models.OperationReport](t, rec)
	assert.True(t, report.IsComplete)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.SuccessCount)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "missing", report.Errors[0].ID)

	got, err := f.store.GetCase(context.Background(), tenant, f.caseID)
	require.NoError(t, err)
	assert.Equal(t, f.other.ID, *got.TelecallerID)

	rec = f.do(http.MethodGet, "/api/v1/bulk-operations/"+report.OperationID, f.admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[models.OperationReport](t, rec).IsComplete)
}

func TestBulkOperationBackground(t *testing.T) {
	f := setupAPI(t)

	rec := f.do(http.MethodPost, "/api/v1/cases/bulk", f.admin, `{"operation":"unassign","case_ids":["`+f.caseID+`"]}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	accepted := decode[BulkAccepted](t, rec)
	assert.Equal(t, 1, accepted.Total)
	assert.Equal(t, "/api/v1/bulk-operations/"+accepted.OperationID, accepted.StatusURL)

	var report models.OperationReport
	require.Eventually(t, func() bool {
		rec := f.do(http.MethodGet, accepted.StatusURL, f.admin, "")
		if rec.Code != http.StatusOK {
			return false
		}
		report = decode[models.OperationReport](t, rec)
		return report.IsComplete
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, 1, report.SuccessCount)

	rec = f.do(http.MethodGet, "/api/v1/bulk-operations", f.admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]models.OperationReport](t, rec)["operations"], 1)

	rec = f.do(http.MethodGet, "/api/v1/bulk-operations/unknown", f.admin, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodDelete, "/api/v1/bulk-operations/unknown", f.admin, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReportDownloads(t *testing.T) {
	f := setupAPI(t)

	rec := f.do(http.MethodGet, "/api/v1/reports/teams/"+f.team.ID+"/cases?format=csv", f.admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), `attachment; filename="cases-north-`)
	assert.Contains(t, rec.Body.String(), "+919876543210")

	rec = f.do(http.MethodGet, "/api/v1/reports/teams/performance?format=excel", f.admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "spreadsheetml")

	rec = f.do(http.MethodGet, "/api/v1/reports/payments?format=pdf", f.admin, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodGet, "/api/v1/reports/teams/missing/cases", f.admin, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		db, redis  Pinger
		wantStatus int
		wantBody   string
	}{
		{"all up", pinger{}, pinger{}, http.StatusOK, `"status":"ok"`},
		{"no redis configured", pinger{}, nil, http.StatusOK, `"database":"ok"`},
		{"redis down", pinger{}, pinger{errors.New("down")}, http.StatusServiceUnavailable, `"redis":"unavailable"`},
		{"db down", pinger{errors.New("down")}, pinger{}, http.StatusServiceUnavailable, `"database":"unavailable"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)
			require.NoError(t, NewHealthHandler(tt.db, tt.redis).Health(c))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}

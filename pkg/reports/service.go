package reports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jordanlanch/recoverydesk/pkg/caseagg"
	"github.com/jordanlanch/recoverydesk/pkg/domain"
	"github.com/jordanlanch/recoverydesk/pkg/logger"
	"github.com/jordanlanch/recoverydesk/pkg/models"
	"github.com/jordanlanch/recoverydesk/pkg/storage"
	"github.com/jordanlanch/recoverydesk/pkg/store"
	"github.com/jordanlanch/recoverydesk/pkg/teammetrics"
)

// Format is an export file format.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
)

// ParseFormat accepts "csv", "excel" and "xlsx". Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "excel", "xlsx":
		return FormatExcel, nil
	}
	return "", domain.NewValidationError("invalid format: must be csv or excel")
}

func (f Format) extension() string {
	if f == FormatExcel {
		return "xlsx"
	}
	return "csv"
}

// ContentType is the MIME type of files in this format.
func (f Format) ContentType() string {
	if f == FormatExcel {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// File is a rendered report. Partial is set when some source data could
// not be read.
type File struct {
	Name        string
	ContentType string
	Data        []byte
	Rows        int
	Partial     bool
}

// Source is the store subset reports read directly.
type Source interface {
	GetTeam(ctx context.Context, tenantID, teamID string) (models.Team, error)
	FetchPayments(ctx context.Context, tenantID string, period models.Period) ([]models.CallLog, error)
	FetchCasesByIDs(ctx context.Context, tenantID string, ids []string) ([]models.Case, error)
	FetchEmployeesByIDs(ctx context.Context, tenantID string, ids []string) ([]models.Employee, error)
}

// Recorder counts generated reports.
type Recorder interface {
	RecordReport(report, format string)
}

// Service renders the case, payment and team performance reports.
type Service struct {
	source    Source
	cases     *caseagg.Service
	teams     *teammetrics.Service
	formatter *Formatter
	storage   storage.Store
	recorder  Recorder
	log       logger.Logger
	now       func() time.Time
}

// NewService creates a new report service. store may be nil when reports are
// never published; recorder may be nil.
func NewService(source Source, cases *caseagg.Service, teams *teammetrics.Service, formatter *Formatter, st storage.Store, recorder Recorder, log logger.Logger) *Service {
	return &Service{
		source:    source,
		cases:     cases,
		teams:     teams,
		formatter: formatter,
		storage:   st,
		recorder:  recorder,
		log:       log,
		now:       time.Now,
	}
}

// ExportTeamCases renders every enriched case of a team.
func (s *Service) ExportTeamCases(ctx context.Context, tenantID, teamID string, format Format) (File, error) {
	team, err := s.source.GetTeam(ctx, tenantID, teamID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return File{}, domain.NewNotFoundError("team")
		}
		return File{}, domain.NewInternalError(err)
	}

	list := s.cases.CasesForTeam(ctx, tenantID, teamID)
	rows := s.formatter.CaseReportRows(list.Cases)
	name := fmt.Sprintf("cases-%s-%s", slug(team.Name), s.now().UTC().Format("20060102-150405"))
	file, err := render(name, "Cases", format, CaseColumns, rows)
	if err != nil {
		return File{}, domain.NewInternalError(err)
	}
	file.Partial = list.Partial
	s.generated("team_cases", format)
	return file, nil
}

// ExportPayments renders every payment recorded in period.
func (s *Service) ExportPayments(ctx context.Context, tenantID string, period models.Period, format Format) (File, error) {
	partial := false
	logs, err := s.source.FetchPayments(ctx, tenantID, period)
	if err != nil {
		s.log.Error("payment fetch failed", "tenant_id", tenantID, "fetched", len(logs), "error", err)
		partial = true
	}

	caseIDs := make([]string, 0, len(logs))
	empIDs := make([]string, 0, len(logs))
	for _, l := range logs {
		caseIDs = append(caseIDs, l.CaseID)
		empIDs = append(empIDs, l.EmployeeID)
	}
	var (
		cases     []models.Case
		employees []models.Employee
	)
	if len(logs) > 0 {
		if cases, err = s.source.FetchCasesByIDs(ctx, tenantID, caseIDs); err != nil {
			s.log.Error("case fetch failed", "tenant_id", tenantID, "fetched", len(cases), "error", err)
			partial = true
		}
		if employees, err = s.source.FetchEmployeesByIDs(ctx, tenantID, empIDs); err != nil {
			s.log.Error("employee fetch failed", "tenant_id", tenantID, "fetched", len(employees), "error", err)
			partial = true
		}
	}

	rows := s.formatter.PaymentReportRows(logs, cases, employees)
	file, err := render("payments-"+s.now().UTC().Format("20060102-150405"), "Payments", format, PaymentColumns, rows)
	if err != nil {
		return File{}, domain.NewInternalError(err)
	}
	file.Partial = partial
	s.generated("payments", format)
	return file, nil
}

// ExportTeamPerformance renders the metrics of every team of the tenant.
func (s *Service) ExportTeamPerformance(ctx context.Context, tenantID string, period models.Period, format Format) (File, error) {
	metrics := s.teams.ComputeAllTeams(ctx, tenantID, period)
	partial := false
	for _, m := range metrics {
		partial = partial || m.Partial
	}

	rows := s.formatter.TeamReportRows(metrics)
	file, err := render("team-performance-"+s.now().UTC().Format("20060102-150405"), "Team Performance", format, TeamColumns, rows)
	if err != nil {
		return File{}, domain.NewInternalError(err)
	}
	file.Partial = partial
	s.generated("team_performance", format)
	return file, nil
}

// PublishTeamPerformance renders the team performance workbook and saves it
// to the report store under the tenant's prefix. It returns the location.
func (s *Service) PublishTeamPerformance(ctx context.Context, tenantID string, period models.Period) (string, error) {
	if s.storage == nil {
		return "", errors.New("report storage is not configured")
	}
	file, err := s.ExportTeamPerformance(ctx, tenantID, period, FormatExcel)
	if err != nil {
		return "", err
	}
	loc, err := s.storage.Save(ctx, tenantID+"/"+file.Name, file.ContentType, file.Data)
	if err != nil {
		return "", fmt.Errorf("failed to publish team performance report: %w", err)
	}
	s.log.Info("team performance report published", "tenant_id", tenantID, "location", loc, "teams", file.Rows, "partial", file.Partial)
	return loc, nil
}

func (s *Service) generated(report string, format Format) {
	if s.recorder != nil {
		s.recorder.RecordReport(report, string(format))
	}
}

func render[T any](name, sheet string, format Format, cols []Column[T], rows []T) (File, error) {
	var buf bytes.Buffer
	var err error
	if format == FormatExcel {
		err = WriteExcel(&buf, sheet, cols, rows)
	} else {
		err = WriteCSV(&buf, cols, rows)
	}
	if err != nil {
		return File{}, err
	}
	return File{
		Name:        name + "." + format.extension(),
		ContentType: format.ContentType(),
		Data:        buf.Bytes(),
		Rows:        len(rows),
	}, nil
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "team"
	}
	return out
}

package caseagg

import (
	"context"
	"errors"

	"github.com/jordanlanch/recoverydesk/pkg/domain"
	"github.com/jordanlanch/recoverydesk/pkg/logger"
	"github.com/jordanlanch/recoverydesk/pkg/models"
	"github.com/jordanlanch/recoverydesk/pkg/store"
)

// CaseSource is the subset of the store the aggregator reads from.
type CaseSource interface {
	GetCase(ctx context.Context, tenantID, caseID string) (models.Case, error)
	FetchCasesForTeam(ctx context.Context, tenantID, teamID string) ([]models.Case, error)
	FetchCasesForTelecaller(ctx context.Context, tenantID, empCode string) ([]models.Case, error)
	FetchCallLogsForCases(ctx context.Context, tenantID string, caseIDs []string, period models.Period) ([]models.CallLog, error)
	GetEmployee(ctx context.Context, tenantID, employeeID string) (models.Employee, error)
}

// CaseList is an enriched case listing. Partial is set when a fetch failed and
// the list holds only what could be read.
type CaseList struct {
	Cases   []models.EnrichedCase `json:"cases"`
	Total   int                   `json:"total"`
	Buckets models.DPDCounts      `json:"dpd_buckets"`
	Partial bool                  `json:"partial"`
}

// Service builds enriched case listings.
type Service struct {
	source CaseSource
	log    logger.Logger
}

// NewService creates a new case aggregation service
func NewService(source CaseSource, log logger.Logger) *Service {
	return &Service{source: source, log: log}
}

// CasesForTeam returns the enriched cases of a team.
func (s *Service) CasesForTeam(ctx context.Context, tenantID, teamID string) CaseList {
	cases, err := s.source.FetchCasesForTeam(ctx, tenantID, teamID)
	partial := false
	if err != nil {
		s.log.Error("case fetch failed", "tenant_id", tenantID, "team_id", teamID, "fetched", len(cases), "error", err)
		partial = true
	}
	return s.enrich(ctx, tenantID, cases, partial)
}

// CasesForTelecaller returns the enriched cases of the active telecaller
// holding empCode. Unknown codes give an empty list.
func (s *Service) CasesForTelecaller(ctx context.Context, tenantID, empCode string) CaseList {
	cases, err := s.source.FetchCasesForTelecaller(ctx, tenantID, empCode)
	partial := false
	if err != nil {
		s.log.Error("case fetch failed", "tenant_id", tenantID, "emp_code", empCode, "fetched", len(cases), "error", err)
		partial = true
	}
	return s.enrich(ctx, tenantID, cases, partial)
}

// AuthorizeTelecallerCases checks that caller may list the cases held by
// empCode. Telecallers only see their own cases.
func (s *Service) AuthorizeTelecallerCases(ctx context.Context, caller models.Caller, empCode string) error {
	if caller.Role != models.RoleTelecaller {
		return nil
	}
	self, err := s.source.GetEmployee(ctx, caller.TenantID, caller.EmployeeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.NewForbiddenError("telecallers can only list their own cases")
		}
		return domain.NewInternalError(err)
	}
	if self.EmpCode != empCode {
		return domain.NewForbiddenError("telecallers can only list their own cases")
	}
	return nil
}

func (s *Service) enrich(ctx context.Context, tenantID string, cases []models.Case, partial bool) CaseList {
	ids := make([]string, len(cases))
	for i, c := range cases {
		ids[i] = c.ID
	}
	var logs []models.CallLog
	if len(ids) > 0 {
		var err error
		logs, err = s.source.FetchCallLogsForCases(ctx, tenantID, ids, models.Period{})
		if err != nil {
			s.log.Error("call log fetch failed", "tenant_id", tenantID, "cases", len(ids), "fetched", len(logs), "error", err)
			partial = true
		}
	}
	enriched := EnrichAll(cases, logs)
	return CaseList{
		Cases:   enriched,
		Total:   len(enriched),
		Buckets: BucketCounts(cases),
		Partial: partial,
	}
}

// Reconcile audits the stored collected total of one case against its payment logs.
func (s *Service) Reconcile(ctx context.Context, tenantID, caseID string) (models.Reconciliation, error) {
	c, err := s.source.GetCase(ctx, tenantID, caseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Reconciliation{}, domain.NewNotFoundError("case")
		}
		return models.Reconciliation{}, domain.NewInternalError(err)
	}
	logs, err := s.source.FetchCallLogsForCases(ctx, tenantID, []string{c.ID}, models.Period{})
	if err != nil {
		return models.Reconciliation{}, domain.NewInternalError(err)
	}
	return ReconcileCollected(c, logs), nil
}

// Package assignment runs bulk case operations and records payments.
package assignment

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jordanlanch/recoverydesk/pkg/domain"
	"github.com/jordanlanch/recoverydesk/pkg/logger"
	"github.com/jordanlanch/recoverydesk/pkg/models"
	"github.com/jordanlanch/recoverydesk/pkg/store"
)

// Per-item failure messages.
const (
	msgCancelled      = "operation cancelled"
	msgCaseNotFound   = "case not found"
	msgNotDeletable   = "case is assigned and not closed"
	msgConcurrentEdit = "case was modified concurrently"
)

// ProgressReporter receives every state transition of a bulk operation.
type ProgressReporter interface {
	Start(ctx context.Context, tenantID string, report models.OperationReport) error
	Update(ctx context.Context, tenantID, operationID string, index int, item models.BulkItem) error
	Finish(ctx context.Context, tenantID string, report models.OperationReport) error
}

// Recorder counts operation outcomes.
type Recorder interface {
	RecordBulkItem(operation string, succeeded bool)
	RecordPayment(autoClosed bool)
}

// Operator applies bulk operations one case at a time.
type Operator struct {
	store    *store.Store
	progress ProgressReporter
	recorder Recorder
	log      logger.Logger
	now      func() time.Time

	mu      sync.Mutex
	running map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// Option configures an Operator.
type Option func(*Operator)

// WithProgress reports transitions to p.
func WithProgress(p ProgressReporter) Option {
	return func(o *Operator) { o.progress = p }
}

// WithRecorder counts outcomes with r.
func WithRecorder(r Recorder) Option {
	return func(o *Operator) { o.recorder = r }
}

// NewOperator creates a new assignment operator
func NewOperator(st *store.Store, log logger.Logger, opts ...Option) *Operator {
	o := &Operator{
		store:   st,
		log:     log,
		now:     time.Now,
		running: make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Plan is a validated bulk operation ready to run.
type Plan struct {
	TenantID   string
	Report     models.OperationReport
	Params     models.BulkParams
	telecaller *models.Employee
}

// Prepare validates the request and builds a report with every item pending.
// It makes no writes. Validation problems are returned as domain validation errors.
func (o *Operator) Prepare(ctx context.Context, tenantID string, caseIDs []string, op models.BulkOperation, params models.BulkParams) (*Plan, error) {
	if !op.Valid() {
		return nil, domain.NewValidationError("unknown operation: " + string(op))
	}
	ids := uniqueIDs(caseIDs)
	if len(ids) == 0 {
		return nil, domain.NewValidationError("no cases selected")
	}

	plan := &Plan{TenantID: tenantID, Params: params}
	switch op {
	case models.BulkAssign:
		if params.TelecallerID == "" {
			return nil, domain.NewValidationError("telecaller_id is required for assign")
		}
		tc, err := o.store.GetEmployee(ctx, tenantID, params.TelecallerID)
		if errors.Is(err, store.ErrNotFound) || (err == nil && !tc.IsActiveTelecaller()) {
			return nil, domain.NewValidationError("telecaller not found or inactive")
		}
		if err != nil {
			return nil, domain.NewInternalError(err)
		}
		plan.telecaller = &tc
	case models.BulkReassign:
		if params.TeamID == "" {
			return nil, domain.NewValidationError("team_id is required for reassign")
		}
		if _, err := o.store.GetTeam(ctx, tenantID, params.TeamID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, domain.NewValidationError("team not found")
			}
			return nil, domain.NewInternalError(err)
		}
	}

	plan.Report = models.OperationReport{
		OperationID: uuid.NewString(),
		Operation:   op,
		Total:       len(ids),
		Errors:      []models.OperationError{},
		Items:       make([]models.BulkItem, len(ids)),
		StartedAt:   o.now().UTC(),
	}
	for i, id := range ids {
		plan.Report.Items[i] = models.BulkItem{CaseID: id, State: models.ItemPending}
	}
	return plan, nil
}

// ApplyBulkOperation validates and runs the operation synchronously.
func (o *Operator) ApplyBulkOperation(ctx context.Context, tenantID string, caseIDs []string, op models.BulkOperation, params models.BulkParams) (models.OperationReport, error) {
	plan, err := o.Prepare(ctx, tenantID, caseIDs, op, params)
	if err != nil {
		return models.OperationReport{}, err
	}
	return o.Run(ctx, plan), nil
}

// Start runs the plan in the background and returns immediately. The
// operation keeps running after the caller's request ends; Cancel stops it.
func (o *Operator) Start(plan *Plan) {
	ctx, cancel := context.WithCancel(context.Background())
	key := plan.TenantID + "/" + plan.Report.OperationID

	o.mu.Lock()
	o.running[key] = cancel
	o.mu.Unlock()

	o.begin(ctx, plan)
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer func() {
			o.mu.Lock()
			delete(o.running, key)
			o.mu.Unlock()
			cancel()
		}()
		o.process(ctx, plan)
	}()
}

// Cancel stops a running background operation of the tenant. Items not yet
// processed are marked failed. It reports whether the operation was running.
func (o *Operator) Cancel(tenantID, operationID string) bool {
	o.mu.Lock()
	cancel, ok := o.running[tenantID+"/"+operationID]
	o.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Shutdown cancels every background operation and waits until each has
// written its final report.
func (o *Operator) Shutdown() {
	o.mu.Lock()
	for _, cancel := range o.running {
		cancel()
	}
	o.mu.Unlock()
	o.wg.Wait()
}

// Run processes every item of the plan in input order and returns the final
// report. It never stops early on an item failure. When ctx is cancelled the
// remaining items fail with "operation cancelled".
func (o *Operator) Run(ctx context.Context, plan *Plan) models.OperationReport {
	o.begin(ctx, plan)
	return o.process(ctx, plan)
}

func (o *Operator) begin(ctx context.Context, plan *Plan) {
	if o.progress == nil {
		return
	}
	if err := o.progress.Start(ctx, plan.TenantID, plan.Report); err != nil {
		o.log.Warn("progress start failed", "operation_id", plan.Report.OperationID, "error", err)
	}
}

func (o *Operator) process(ctx context.Context, plan *Plan) models.OperationReport {
	report := &plan.Report
	log := o.log.With("operation_id", report.OperationID, "operation", string(report.Operation), "tenant_id", plan.TenantID)

	for i := range report.Items {
		item := &report.Items[i]
		if ctx.Err() != nil {
			o.finishItem(ctx, plan, i, msgCancelled)
			continue
		}

		item.State = models.ItemInFlight
		o.report(ctx, plan, i)

		name, err := o.apply(ctx, plan, item.CaseID)
		item.Name = name
		msg := ""
		if err != nil {
			msg = itemMessage(ctx, err)
			log.Warn("bulk item failed", "case_id", item.CaseID, "error", err)
		}
		o.finishItem(ctx, plan, i, msg)
	}

	report.IsComplete = true
	report.FinishedAt = o.now().UTC()
	if o.progress != nil {
		if err := o.progress.Finish(context.WithoutCancel(ctx), plan.TenantID, *report); err != nil {
			log.Warn("progress finish failed", "error", err)
		}
	}
	log.Info("bulk operation finished", "total", report.Total, "succeeded", report.SuccessCount, "failed", report.ErrorCount)
	return *report
}

// finishItem moves item i to Succeeded (empty msg) or Failed.
func (o *Operator) finishItem(ctx context.Context, plan *Plan, i int, msg string) {
	report := &plan.Report
	item := &report.Items[i]
	if msg == "" {
		item.State = models.ItemSucceeded
		report.SuccessCount++
	} else {
		item.State = models.ItemFailed
		item.Error = msg
		report.ErrorCount++
		report.Errors = append(report.Errors, models.OperationError{ID: item.CaseID, Name: item.Name, Error: msg})
	}
	if o.recorder != nil {
		o.recorder.RecordBulkItem(string(report.Operation), msg == "")
	}
	o.report(context.WithoutCancel(ctx), plan, i)
}

func (o *Operator) report(ctx context.Context, plan *Plan, i int) {
	if o.progress == nil {
		return
	}
	if err := o.progress.Update(ctx, plan.TenantID, plan.Report.OperationID, i, plan.Report.Items[i]); err != nil {
		o.log.Warn("progress update failed", "operation_id", plan.Report.OperationID, "index", i, "error", err)
	}
}

// apply performs the single-case write and returns the case display name.
func (o *Operator) apply(ctx context.Context, plan *Plan, caseID string) (string, error) {
	c, err := o.store.GetCase(ctx, plan.TenantID, caseID)
	if err != nil {
		return "", err
	}
	name := c.DisplayName()

	switch plan.Report.Operation {
	case models.BulkAssign:
		err = o.store.UpdateCaseAssignment(ctx, plan.TenantID, c.ID, c.Version, plan.telecaller)
	case models.BulkUnassign:
		err = o.store.UpdateCaseAssignment(ctx, plan.TenantID, c.ID, c.Version, nil)
	case models.BulkReassign:
		err = o.store.UpdateCaseTeam(ctx, plan.TenantID, c.ID, c.Version, plan.Params.TeamID)
	case models.BulkDelete:
		if !c.IsDeletable() {
			return name, errNotDeletable
		}
		err = o.store.DeleteCase(ctx, plan.TenantID, c.ID, c.Version)
	}
	return name, err
}

var errNotDeletable = errors.New(msgNotDeletable)

func itemMessage(ctx context.Context, err error) string {
	switch {
	case ctx.Err() != nil:
		return msgCancelled
	case errors.Is(err, store.ErrNotFound):
		return msgCaseNotFound
	case errors.Is(err, store.ErrVersionConflict):
		return msgConcurrentEdit
	default:
		return err.Error()
	}
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Package jobs runs the scheduled background work of the service.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jordanlanch/recoverydesk/pkg/logger"
	"github.com/jordanlanch/recoverydesk/pkg/models"
)

// DefaultReportSchedule publishes performance reports daily at 06:00.
const DefaultReportSchedule = "0 6 * * *"

// TenantLister lists tenants that own data.
type TenantLister interface {
	ListTenants(ctx context.Context) ([]string, error)
}

// ReportPublisher publishes a tenant's team performance report.
type ReportPublisher interface {
	PublishTeamPerformance(ctx context.Context, tenantID string, period models.Period) (string, error)
}

// Gauge receives the open connection count.
type Gauge interface {
	UpdateDBConnections(count int)
}

// CronManager manages scheduled jobs
type CronManager struct {
	cron      *cron.Cron
	tenants   TenantLister
	publisher ReportPublisher
	gauge     Gauge
	openConns func() int
	loc       *time.Location
	log       logger.Logger
	now       func() time.Time
}

// NewCronManager creates a new cron manager. Schedules are evaluated in loc.
func NewCronManager(tenants TenantLister, publisher ReportPublisher, loc *time.Location, log logger.Logger) *CronManager {
	if loc == nil {
		loc = time.UTC
	}
	return &CronManager{
		cron:      cron.New(cron.WithLocation(loc)),
		tenants:   tenants,
		publisher: publisher,
		loc:       loc,
		log:       log,
		now:       time.Now,
	}
}

// WatchDBConnections samples openConns every minute into gauge.
func (cm *CronManager) WatchDBConnections(gauge Gauge, openConns func() int) {
	cm.gauge = gauge
	cm.openConns = openConns
}

// SetupJobs configures all scheduled jobs
func (cm *CronManager) SetupJobs(reportSchedule string) error {
	if reportSchedule == "" {
		reportSchedule = DefaultReportSchedule
	}

	if _, err := cm.cron.AddFunc(reportSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		cm.RunPerformanceReports(ctx)
	}); err != nil {
		return err
	}

	if cm.gauge != nil && cm.openConns != nil {
		if _, err := cm.cron.AddFunc("@every 1m", func() {
			cm.gauge.UpdateDBConnections(cm.openConns())
		}); err != nil {
			return err
		}
	}

	cm.log.Info("cron jobs configured", "report_schedule", reportSchedule, "timezone", cm.loc.String())
	return nil
}

// RunPerformanceReports publishes the month-to-date team performance report of
// every tenant. A failing tenant is logged and skipped. It returns the number
// of reports published.
func (cm *CronManager) RunPerformanceReports(ctx context.Context) int {
	tenants, err := cm.tenants.ListTenants(ctx)
	if err != nil {
		cm.log.Error("tenant listing failed", "fetched", len(tenants), "error", err)
	}

	period := MonthToDate(cm.now(), cm.loc)
	published := 0
	for _, tenantID := range tenants {
		if ctx.Err() != nil {
			cm.log.Warn("performance report run interrupted", "published", published, "error", ctx.Err())
			break
		}
		loc, err := cm.publisher.PublishTeamPerformance(ctx, tenantID, period)
		if err != nil {
			cm.log.Error("performance report failed", "tenant_id", tenantID, "error", err)
			continue
		}
		published++
		cm.log.Debug("performance report stored", "tenant_id", tenantID, "location", loc)
	}
	cm.log.Info("performance report run finished", "tenants", len(tenants), "published", published)
	return published
}

// MonthToDate is [first day of now's month in loc, now).
func MonthToDate(now time.Time, loc *time.Location) models.Period {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	return models.Period{From: start.UTC(), To: now.UTC()}
}

// Start starts the cron scheduler
func (cm *CronManager) Start() {
	cm.log.Info("starting cron scheduler")
	cm.cron.Start()
}

// Stop stops the scheduler and waits for running jobs.
func (cm *CronManager) Stop() {
	cm.log.Info("stopping cron scheduler")
	<-cm.cron.Stop().Done()
}

package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/jordanlanch/recoverydesk/pkg/api/middleware"
	"github.com/jordanlanch/recoverydesk/pkg/models"
)

// Handlers groups everything Register mounts.
type Handlers struct {
	Cases   *CaseHandler
	Metrics *MetricsHandler
	Reports *ReportHandler
}

// Register mounts the API routes on g. g must already authenticate callers.
func Register(g *echo.Group, h Handlers) {
	managers := middleware.RequireRole(models.RoleCompanyAdmin, models.RoleTeamIncharge)

	g.GET("/teams/metrics", h.Metrics.AllTeams, managers)
	g.GET("/teams/:id/metrics", h.Metrics.Team, managers)
	g.GET("/teams/:id/cases", h.Cases.TeamCases, managers)
	g.GET("/telecallers/:code/cases", h.Cases.TelecallerCases)
	g.GET("/telecallers/:id/metrics", h.Metrics.Telecaller)

	g.POST("/cases/bulk", h.Cases.BulkOperation, managers)
	g.GET("/bulk-operations", h.Cases.ListBulkOperations, managers)
	g.GET("/bulk-operations/:id", h.Cases.BulkOperationStatus, managers)
	g.DELETE("/bulk-operations/:id", h.Cases.CancelBulkOperation, managers)
	g.POST("/cases/:id/payments", h.Cases.RecordPayment)
	g.GET("/cases/:id/reconciliation", h.Cases.Reconciliation, managers)

	g.GET("/reports/teams/performance", h.Reports.TeamPerformance, managers)
	g.GET("/reports/teams/:id/cases", h.Reports.TeamCases, managers)
	g.GET("/reports/payments", h.Reports.Payments, managers)
}

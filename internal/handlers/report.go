package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxcyking/ngo-library-sub001/internal/models"
)

// ReportService interface defines the methods for report operations
type ReportService interface {
	Dashboard(ctx context.Context) (*models.DashboardReport, error)
}

// OverdueLister lists the loans past their due date
type OverdueLister interface {
	ListOverdue(ctx context.Context) ([]models.OverdueLoanDetail, error)
}

// ReportHandler handles all report-related HTTP requests
type ReportHandler struct {
	reportService ReportService
	overdue       OverdueLister
}

// NewReportHandler creates a new report handler instance
func NewReportHandler(reportService ReportService, overdue OverdueLister) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		overdue:       overdue,
	}
}

// RegisterRoutes registers all report routes
func (rh *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	reports := router.Group("/reports")
	{
		reports.GET("/dashboard", rh.GetDashboard)
		reports.GET("/overdue", rh.GetOverdueBooks)
	}
}

// GetDashboard returns the headline figures for the admin dashboard
// @Summary Dashboard metrics
// @Tags reports
// @Produce json
// @Success 200 {object} SuccessResponse{data=models.DashboardReport}
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/admin/reports/dashboard [get]
func (rh *ReportHandler) GetDashboard(c *gin.Context) {
	report, err := rh.reportService.Dashboard(c.Request.Context())
	if err != nil {
		writeServiceError(c, err, "Failed to generate dashboard")
		return
	}

	respondSuccess(c, http.StatusOK, report, "")
}

// GetOverdueBooks lists every overdue loan with its accrued fine
func (rh *ReportHandler) GetOverdueBooks(c *gin.Context) {
	overdue, err := rh.overdue.ListOverdue(c.Request.Context())
	if err != nil {
		writeServiceError(c, err, "Failed to generate overdue report")
		return
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"count": len(overdue),
		"loans": overdue,
	}, "")
}

package delivery

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"marketingops/internal/domain"
	"marketingops/internal/usecase"
	"marketingops/pkg/logger"

	"github.com/gin-gonic/gin"
)

// HTTPHandlers exposes the use-case services over JSON.
type HTTPHandlers struct {
	crm        *usecase.CRMService
	campaigns  *usecase.CampaignService
	goals      *usecase.GoalService
	platforms  *usecase.PlatformService
	dashboards *usecase.DashboardService
	reports    *usecase.ReportService
	backend    string
	logger     *logger.Logger
}

// Services bundles what the handlers need.
type Services struct {
	CRM        *usecase.CRMService
	Campaigns  *usecase.CampaignService
	Goals      *usecase.GoalService
	Platforms  *usecase.PlatformService
	Dashboards *usecase.DashboardService
	Reports    *usecase.ReportService
}

// creates new HTTP handlers
func NewHTTPHandlers(services Services, backend string, logger *logger.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		crm:        services.CRM,
		campaigns:  services.Campaigns,
		goals:      services.Goals,
		platforms:  services.Platforms,
		dashboards: services.Dashboards,
		reports:    services.Reports,
		backend:    backend,
		logger:     logger,
	}
}

// HealthCheck returns the health status of the service
func (h *HTTPHandlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "healthy",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"service":    "marketingops",
		"version":    "1.0.0",
		"store":      h.backend,
		"request_id": c.GetString("request_id"),
	})
}

// GetAPIInfo lists the v1 resources.
func (h *HTTPHandlers) GetAPIInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"api_version": "v1",
		"service":     "Marketing Ops",
		"description": "CRM, campaign and goal tracking with funnel, channel and campaign-group rollups",
		"endpoints": gin.H{
			"leads":            "/api/v1/leads",
			"campaign_groups":  "/api/v1/campaign-groups",
			"campaigns":        "/api/v1/campaigns",
			"goals":            "/api/v1/goals",
			"platform_metrics": "/api/v1/platform-metrics",
			"dashboard":        "/api/v1/dashboard?from=YYYY-MM-DD&to=YYYY-MM-DD",
			"reports":          "/api/v1/reports",
			"export":           "/api/v1/export/run",
		},
		"business_metrics": gin.H{
			"roas": "Return on Ad Spend (revenue / cost), paid channels only",
			"cpl":  "Cost Per Lead (cost / leads), paid channels only",
			"cpa":  "Cost Per Acquisition (cost / conversions), paid channels only",
		},
		"request_id": c.GetString("request_id"),
	})
}

// respondError maps domain errors to HTTP statuses.
func (h *HTTPHandlers) respondError(c *gin.Context, err error) {
	status, label := http.StatusInternalServerError, "Internal server error"
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status, label = http.StatusNotFound, "Not found"
	case errors.Is(err, domain.ErrAlreadyExists):
		status, label = http.StatusConflict, "Already exists"
	case errors.Is(err, domain.ErrGroupInUse):
		status, label = http.StatusConflict, "Campaign group in use"
	case errors.Is(err, domain.ErrImmutableChannel):
		status, label = http.StatusConflict, "Channel cannot change"
	case errors.Is(err, domain.ErrValidation):
		status, label = http.StatusBadRequest, "Invalid request"
	case errors.Is(err, domain.ErrInvalidTransition):
		status, label = http.StatusUnprocessableEntity, "Transition not allowed"
	case errors.Is(err, domain.ErrReadOnlySeries):
		status, label = http.StatusUnprocessableEntity, "Series is read-only"
	case errors.Is(err, domain.ErrReportsDisabled):
		status, label = http.StatusServiceUnavailable, "Reports disabled"
	}

	if status >= http.StatusInternalServerError {
		h.logger.WithContext(c.Request.Context()).WithError(err).Error("Request failed")
	}
	_ = c.Error(err)

	c.JSON(status, gin.H{
		"error":      label,
		"message":    err.Error(),
		"request_id": c.GetString("request_id"),
	})
}

// bindJSON decodes the body into v, answering 400 on failure.
func (h *HTTPHandlers) bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		h.respondError(c, fmt.Errorf("%w: invalid request body: %v", domain.ErrValidation, err))
		return false
	}
	return true
}

// parseWindow reads the optional from/to query parameters (YYYY-MM-DD).
func parseWindow(c *gin.Context) (domain.Window, error) {
	var w domain.Window
	if s := c.Query("from"); s != "" {
		from, err := domain.ParseDate(s)
		if err != nil {
			return w, err
		}
		w.From = from
	}
	if s := c.Query("to"); s != "" {
		to, err := domain.ParseDate(s)
		if err != nil {
			return w, err
		}
		w.To = to
	}
	return w, w.Validate()
}

package delivery

import (
	"net/http"
	"time"

	"marketingops/internal/aggregation"
	"marketingops/internal/usecase"

	"github.com/gin-gonic/gin"
)

// dashboard loads the rollups for the window in the query string.
func (h *HTTPHandlers) dashboard(c *gin.Context) (*aggregation.Dashboard, bool) {
	w, err := parseWindow(c)
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	d, err := h.dashboards.Dashboard(c.Request.Context(), w)
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return d, true
}

func (h *HTTPHandlers) GetDashboard(c *gin.Context) {
	if d, ok := h.dashboard(c); ok {
		c.JSON(http.StatusOK, d)
	}
}

func (h *HTTPHandlers) GetFunnel(c *gin.Context) {
	if d, ok := h.dashboard(c); ok {
		c.JSON(http.StatusOK, gin.H{"window": d.Window, "data": d.Funnel})
	}
}

func (h *HTTPHandlers) GetChannels(c *gin.Context) {
	if d, ok := h.dashboard(c); ok {
		c.JSON(http.StatusOK, gin.H{"window": d.Window, "data": d.Channels})
	}
}

func (h *HTTPHandlers) GetSummary(c *gin.Context) {
	if d, ok := h.dashboard(c); ok {
		c.JSON(http.StatusOK, gin.H{"window": d.Window, "data": d.Summary})
	}
}

func (h *HTTPHandlers) GetGoalProgress(c *gin.Context) {
	if d, ok := h.dashboard(c); ok {
		c.JSON(http.StatusOK, gin.H{
			"window":   d.Window,
			"funnel":   nonNil(d.FunnelGoals),
			"channels": nonNil(d.ChannelGoals),
		})
	}
}

func (h *HTTPHandlers) GetPlan(c *gin.Context) {
	if d, ok := h.dashboard(c); ok {
		plan := aggregation.FunnelPlan{}
		if d.Plan != nil {
			plan = *d.Plan
		}
		c.JSON(http.StatusOK, plan)
	}
}

// GetGroups accepts sort (order, leads, opportunities, conversions, revenue,
// cost, budget, roas, cpl, cpa) and dir (asc, desc).
func (h *HTTPHandlers) GetGroups(c *gin.Context) {
	w, err := parseWindow(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	key, err := aggregation.ParseGroupSortKey(c.Query("sort"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	dir, err := aggregation.ParseSortDirection(c.Query("dir"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	rows, err := h.dashboards.Groups(c.Request.Context(), w, key, dir)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"window": w, "sort": key, "dir": dir, "data": rows})
}

func (h *HTTPHandlers) GetExpenses(c *gin.Context) {
	w, err := parseWindow(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	period, err := h.dashboards.Expenses(c.Request.Context(), w)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, period)
}

func (h *HTTPHandlers) ExportRun(c *gin.Context) {
	w, err := parseWindow(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	result, err := h.dashboards.Export(c.Request.Context(), w)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "Export completed successfully",
		"window":       result.Window,
		"bytes":        result.Bytes,
		"generated_at": result.GeneratedAt.Format(time.RFC3339),
		"request_id":   c.GetString("request_id"),
	})
}

func (h *HTTPHandlers) GenerateReport(c *gin.Context) {
	var req usecase.ReportRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := req.Window.Validate(); err != nil {
		h.respondError(c, err)
		return
	}
	report, err := h.reports.Generate(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

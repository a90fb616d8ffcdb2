package delivery

import (
	"net/http"

	"marketingops/internal/domain"

	"github.com/gin-gonic/gin"
)

func (h *HTTPHandlers) GetGoals(c *gin.Context) {
	goals, err := h.goals.Load(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, goals)
}

// SaveGoals replaces the whole goals document.
func (h *HTTPHandlers) SaveGoals(c *gin.Context) {
	var goals domain.GoalSettings
	if !h.bindJSON(c, &goals) {
		return
	}
	saved, err := h.goals.Save(c.Request.Context(), &goals)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *HTTPHandlers) SyncAdSpend(c *gin.Context) {
	goals, err := h.goals.SyncAdSpend(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, goals)
}

func (h *HTTPHandlers) ListPlatformMetrics(c *gin.Context) {
	platforms, err := h.platforms.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": platforms, "count": len(platforms)})
}

type addSeriesRequest struct {
	Platform string            `json:"platform"`
	Series   string            `json:"series"`
	Source   domain.SourceType `json:"source"`
}

func (h *HTTPHandlers) AddPlatformSeries(c *gin.Context) {
	var req addSeriesRequest
	if !h.bindJSON(c, &req) {
		return
	}
	platform, err := h.platforms.AddSeries(c.Request.Context(), req.Platform, req.Series, req.Source)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, platform)
}

type seriesValueRequest struct {
	Value string `json:"value"`
}

func (h *HTTPHandlers) SetPlatformValue(c *gin.Context) {
	var req seriesValueRequest
	if !h.bindJSON(c, &req) {
		return
	}
	platform, err := h.platforms.SetValue(c.Request.Context(), c.Param("platform"), c.Param("series"), c.Param("month"), req.Value)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, platform)
}

package delivery

import (
	"net/http"

	"marketingops/internal/domain"
	"marketingops/internal/usecase"

	"github.com/gin-gonic/gin"
)

func (h *HTTPHandlers) ListLeads(c *gin.Context) {
	w, err := parseWindow(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	leads, err := h.crm.ListLeads(c.Request.Context(), usecase.LeadFilter{
		Channel: domain.Channel(c.Query("channel")),
		Stage:   domain.Stage(c.Query("stage")),
		GroupID: c.Query("group_id"),
		Window:  w,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": leads, "count": len(leads)})
}

func (h *HTTPHandlers) GetLead(c *gin.Context) {
	lead, err := h.crm.GetLead(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

func (h *HTTPHandlers) CreateLead(c *gin.Context) {
	var in usecase.LeadInput
	if !h.bindJSON(c, &in) {
		return
	}
	lead, err := h.crm.CreateLead(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, lead)
}

func (h *HTTPHandlers) UpdateLead(c *gin.Context) {
	var in usecase.LeadInput
	if !h.bindJSON(c, &in) {
		return
	}
	lead, err := h.crm.UpdateLead(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

type stageChangeRequest struct {
	Stage     domain.Stage `json:"stage"`
	DealValue *float64     `json:"dealValue"`
}

func (h *HTTPHandlers) ChangeLeadStage(c *gin.Context) {
	var req stageChangeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	lead, err := h.crm.ChangeStage(c.Request.Context(), c.Param("id"), req.Stage, req.DealValue)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lead)
}

func (h *HTTPHandlers) DeleteLead(c *gin.Context) {
	if err := h.crm.DeleteLead(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

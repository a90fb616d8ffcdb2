package delivery

import (
	"net/http"

	"marketingops/internal/domain"
	"marketingops/internal/usecase"

	"github.com/gin-gonic/gin"
)

func (h *HTTPHandlers) ListGroups(c *gin.Context) {
	groups, err := h.campaigns.ListGroups(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": groups, "count": len(groups)})
}

func (h *HTTPHandlers) GetGroup(c *gin.Context) {
	group, err := h.campaigns.GetGroup(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

func (h *HTTPHandlers) CreateGroup(c *gin.Context) {
	var in usecase.GroupInput
	if !h.bindJSON(c, &in) {
		return
	}
	group, err := h.campaigns.CreateGroup(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, group)
}

func (h *HTTPHandlers) UpdateGroup(c *gin.Context) {
	var in usecase.GroupInput
	if !h.bindJSON(c, &in) {
		return
	}
	group, err := h.campaigns.UpdateGroup(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

type reorderRequest struct {
	IDs []string `json:"ids"`
}

func (h *HTTPHandlers) ReorderGroups(c *gin.Context) {
	var req reorderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	groups, err := h.campaigns.ReorderGroups(c.Request.Context(), req.IDs)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": groups, "count": len(groups)})
}

func (h *HTTPHandlers) DeleteGroup(c *gin.Context) {
	if err := h.campaigns.DeleteGroup(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandlers) ListCampaigns(c *gin.Context) {
	campaigns, err := h.campaigns.ListCampaigns(c.Request.Context(), c.Query("group_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": campaigns, "count": len(campaigns)})
}

func (h *HTTPHandlers) GetCampaign(c *gin.Context) {
	campaign, err := h.campaigns.GetCampaign(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

func (h *HTTPHandlers) CreateCampaign(c *gin.Context) {
	var in usecase.CampaignInput
	if !h.bindJSON(c, &in) {
		return
	}
	campaign, err := h.campaigns.CreateCampaign(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, campaign)
}

func (h *HTTPHandlers) UpdateCampaign(c *gin.Context) {
	var in usecase.CampaignInput
	if !h.bindJSON(c, &in) {
		return
	}
	campaign, err := h.campaigns.UpdateCampaign(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

type statusChangeRequest struct {
	Status  domain.CampaignStatus `json:"status"`
	EndDate *domain.Date          `json:"endDate"`
}

func (h *HTTPHandlers) ChangeCampaignStatus(c *gin.Context) {
	var req statusChangeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	campaign, err := h.campaigns.ChangeStatus(c.Request.Context(), c.Param("id"), req.Status, req.EndDate)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, campaign)
}

func (h *HTTPHandlers) DeleteCampaign(c *gin.Context) {
	if err := h.campaigns.DeleteCampaign(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

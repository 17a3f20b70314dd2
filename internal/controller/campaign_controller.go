// internal/controller/campaign_controller.go
package controller

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/unclebandit/voicecampaign-backend/internal/model"
	"github.com/unclebandit/voicecampaign-backend/internal/service"
	"github.com/unclebandit/voicecampaign-backend/internal/validation"
)

const (
	invalidCampaignID = "Invalid campaign ID"
	campaignNotFound  = "Campaign not found"
)

type CampaignController struct {
	CampaignService  *service.CampaignService
	ReportingService *service.ReportingService
	Logger           *zap.Logger
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := c.CampaignService.ListCampaigns(r.Context())
	if err != nil {
		fail(w, c.Logger, err, "", "Failed to fetch campaigns")
		return
	}
	writeJSON(w, http.StatusOK, campaigns)
}

func (c *CampaignController) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, invalidCampaignID)
		return
	}
	campaign, err := c.CampaignService.GetCampaign(r.Context(), id)
	if err != nil {
		fail(w, c.Logger, err, campaignNotFound, "Failed to fetch campaign")
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var in model.CampaignInput
	if err := validation.DecodeJSON(r.Body, &in, "Invalid campaign data"); err != nil {
		fail(w, c.Logger, err, "", "Failed to create campaign")
		return
	}
	campaign, err := c.CampaignService.CreateCampaign(r.Context(), in)
	if err != nil {
		fail(w, c.Logger, err, "", "Failed to create campaign")
		return
	}
	writeJSON(w, http.StatusCreated, campaign)
}

func (c *CampaignController) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, invalidCampaignID)
		return
	}
	var patch model.CampaignPatch
	if err := validation.DecodeJSON(r.Body, &patch, "Invalid campaign data"); err != nil {
		fail(w, c.Logger, err, "", "Failed to update campaign")
		return
	}
	campaign, err := c.CampaignService.UpdateCampaign(r.Context(), id, patch)
	if err != nil {
		fail(w, c.Logger, err, campaignNotFound, "Failed to update campaign")
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, invalidCampaignID)
		return
	}
	if err := c.CampaignService.DeleteCampaign(r.Context(), id); err != nil {
		fail(w, c.Logger, err, campaignNotFound, "Failed to delete campaign")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (c *CampaignController) ToggleCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, invalidCampaignID)
		return
	}
	campaign, err := c.CampaignService.ToggleCampaignStatus(r.Context(), id)
	if err != nil {
		fail(w, c.Logger, err, campaignNotFound, "Failed to toggle campaign status")
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) DuplicateCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, invalidCampaignID)
		return
	}
	campaign, err := c.CampaignService.DuplicateCampaign(r.Context(), id)
	if err != nil {
		fail(w, c.Logger, err, campaignNotFound, "Failed to duplicate campaign")
		return
	}
	writeJSON(w, http.StatusCreated, campaign)
}

func (c *CampaignController) PersonalizedPreview(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, invalidCampaignID)
		return
	}

	var body struct {
		ContactID      int     `json:"contactId" validate:"required,gte=1"`
		OverrideScript *string `json:"overrideScript"`
	}
	if err := validation.Decode(r.Body, &body, "Invalid preview request"); err != nil {
		fail(w, c.Logger, err, "", "Failed to render preview")
		return
	}

	rendered, err := c.CampaignService.RenderPreview(r.Context(), id, body.ContactID, body.OverrideScript)
	if err != nil {
		fail(w, c.Logger, err, "", "Failed to render preview")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"renderedScript": rendered,
		"overrideScript": body.OverrideScript,
		"contactId":      body.ContactID,
	})
}

func (c *CampaignController) GetCampaignStats(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, invalidCampaignID)
		return
	}
	details, err := c.ReportingService.GetCampaignDetailsWithStats(r.Context(), id)
	if err != nil {
		fail(w, c.Logger, err, campaignNotFound, "Failed to fetch campaign stats")
		return
	}
	writeJSON(w, http.StatusOK, details)
}

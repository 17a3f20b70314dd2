package controller

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/unclebandit/voicecampaign-backend/internal/model"
	"github.com/unclebandit/voicecampaign-backend/internal/service"
	"github.com/unclebandit/voicecampaign-backend/internal/validation"
)

const (
	invalidCallHistoryID = "Invalid call history ID"
	callHistoryNotFound  = "Call history item not found"
)

type CallHistoryController struct {
	CallHistoryService *service.CallHistoryService
	Logger             *zap.Logger
}

func (c *CallHistoryController) ListCallHistory(w http.ResponseWriter, r *http.Request) {
	calls, err := c.CallHistoryService.ListCallHistory(r.Context(), r.URL.Query().Get("contactEmail"))
	if err != nil {
		fail(w, c.Logger, err, "", "Failed to fetch call history")
		return
	}
	writeJSON(w, http.StatusOK, calls)
}

func (c *CallHistoryController) ListByCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, invalidCampaignID)
		return
	}
	calls, err := c.CallHistoryService.ListByCampaign(r.Context(), id)
	if err != nil {
		fail(w, c.Logger, err, "", "Failed to fetch call history")
		return
	}
	writeJSON(w, http.StatusOK, calls)
}

func (c *CallHistoryController) GetCallHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, invalidCallHistoryID)
		return
	}
	h, err := c.CallHistoryService.GetCallHistory(r.Context(), id)
	if err != nil {
		fail(w, c.Logger, err, callHistoryNotFound, "Failed to fetch call history item")
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (c *CallHistoryController) CreateCallHistory(w http.ResponseWriter, r *http.Request) {
	var in model.CallHistoryInput
	if err := validation.DecodeJSON(r.Body, &in, "Invalid call history data"); err != nil {
		fail(w, c.Logger, err, "", "Failed to create call history record")
		return
	}
	h, err := c.CallHistoryService.RecordCall(r.Context(), in, "api")
	if err != nil {
		fail(w, c.Logger, err, "", "Failed to create call history record")
		return
	}
	writeJSON(w, http.StatusCreated, h)
}

func (c *CallHistoryController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		writeMessage(w, http.StatusBadRequest, invalidCallHistoryID)
		return
	}
	var body model.CallStatusUpdate
	if err := validation.DecodeJSON(r.Body, &body, "Status is required"); err != nil {
		fail(w, c.Logger, err, "", "Failed to update call history status")
		return
	}
	h, err := c.CallHistoryService.UpdateStatus(r.Context(), id, body)
	if err != nil {
		fail(w, c.Logger, err, callHistoryNotFound, "Failed to update call history status")
		return
	}
	writeJSON(w, http.StatusOK, h)
}

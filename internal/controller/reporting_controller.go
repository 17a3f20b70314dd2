package controller

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/unclebandit/voicecampaign-backend/internal/audience"
	"github.com/unclebandit/voicecampaign-backend/internal/model"
	"github.com/unclebandit/voicecampaign-backend/internal/service"
)

// ReportingController serves the read-only views: dashboard, billing,
// voice labels and the audience directory.
type ReportingController struct {
	ReportingService *service.ReportingService
	Audience         audience.Directory
	Logger           *zap.Logger
}

func (c *ReportingController) Dashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, c.ReportingService.Dashboard(r.Context()))
}

func (c *ReportingController) Billing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, c.ReportingService.Billing(r.Context()))
}

func (c *ReportingController) Voices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.VoiceTypes)
}

func (c *ReportingController) SearchAudience(w http.ResponseWriter, r *http.Request) {
	contacts, err := c.Audience.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		fail(w, c.Logger, err, "", "Failed to fetch contacts")
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

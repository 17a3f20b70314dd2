// internal/model/call_history.go
package model

import "time"

// Outcome labels used by the UI. Status is an open set; these are not enforced.
const (
	CallStatusLeadInterested = "Lead Interested"
	CallStatusNotInterested  = "Not Interested"
	CallStatusFollowUp       = "Need to follow up"
)

type CallHistory struct {
	ID            int       `db:"id" json:"id"`
	CampaignID    *int      `db:"campaign_id" json:"campaignId"`
	ContactName   string    `db:"contact_name" json:"contactName"`
	ContactEmail  string    `db:"contact_email" json:"contactEmail"`
	ContactPhone  string    `db:"contact_phone" json:"contactPhone"`
	Status        string    `db:"status" json:"status"`
	CallDate      time.Time `db:"call_date" json:"callDate"`
	CallSummary   *string   `db:"call_summary" json:"callSummary"`
	RecordingURL  *string   `db:"recording_url" json:"recordingUrl"`
	TranscriptURL *string   `db:"transcript_url" json:"transcriptUrl"`
}

func (h *CallHistory) Clone() *CallHistory {
	if h == nil {
		return nil
	}
	cp := *h
	cp.CampaignID = cloneInt(h.CampaignID)
	cp.CallSummary = cloneString(h.CallSummary)
	cp.RecordingURL = cloneString(h.RecordingURL)
	cp.TranscriptURL = cloneString(h.TranscriptURL)
	return &cp
}

// CallHistoryInput is the create payload: every field except id and callDate.
type CallHistoryInput struct {
	CampaignID    *int    `json:"campaignId" validate:"omitempty,gte=1"`
	ContactName   string  `json:"contactName" validate:"required"`
	ContactEmail  string  `json:"contactEmail" validate:"required"`
	ContactPhone  string  `json:"contactPhone" validate:"required"`
	Status        string  `json:"status" validate:"required"`
	CallSummary   *string `json:"callSummary"`
	RecordingURL  *string `json:"recordingUrl"`
	TranscriptURL *string `json:"transcriptUrl"`
}

func (in CallHistoryInput) ToCallHistory() *CallHistory {
	return &CallHistory{
		CampaignID:    cloneInt(in.CampaignID),
		ContactName:   in.ContactName,
		ContactEmail:  in.ContactEmail,
		ContactPhone:  in.ContactPhone,
		Status:        in.Status,
		CallSummary:   cloneString(in.CallSummary),
		RecordingURL:  cloneString(in.RecordingURL),
		TranscriptURL: cloneString(in.TranscriptURL),
	}
}

// CallStatusUpdate is the body of PATCH /api/call-history/{id}/status.
type CallStatusUpdate struct {
	Status string `json:"status" validate:"required"`
}

package queue

import (
	"time"

	"go.uber.org/zap"
)

// Event types carried on TopicCampaignEvents and TopicCallHistoryEvents.
const (
	CampaignCreated    = "campaign.created"
	CampaignUpdated    = "campaign.updated"
	CampaignDeleted    = "campaign.deleted"
	CampaignToggled    = "campaign.toggled"
	CampaignDuplicated = "campaign.duplicated"

	CallRecorded      = "call.recorded"
	CallStatusChanged = "call.status_changed"
)

// Event is a change notification. EntityID names the campaign or call record.
type Event struct {
	Type     string    `json:"type"`
	EntityID int       `json:"entityId"`
	SourceID int       `json:"sourceId,omitempty"`
	Status   string    `json:"status,omitempty"`
	UserID   int       `json:"userId,omitempty"`
	At       time.Time `json:"at"`
}

// StartAuditSubscriber logs every change event.
func StartAuditSubscriber(q Queue, log *zap.Logger) error {
	handler := func(payload any) error {
		var ev Event
		if err := Decode(payload, &ev); err != nil {
			return err
		}
		log.Info("📝 audit",
			zap.String("event", ev.Type),
			zap.Int("entity_id", ev.EntityID),
			zap.Int("source_id", ev.SourceID),
			zap.String("status", ev.Status),
			zap.Int("user_id", ev.UserID),
			zap.Time("at", ev.At),
		)
		return nil
	}
	for _, topic := range []string{TopicCampaignEvents, TopicCallHistoryEvents} {
		if err := q.Subscribe(topic, handler); err != nil {
			return err
		}
	}
	return nil
}

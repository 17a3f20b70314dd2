package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/voicecampaign-backend/internal/errors"
	"github.com/unclebandit/voicecampaign-backend/internal/metrics"
	"github.com/unclebandit/voicecampaign-backend/internal/model"
	"github.com/unclebandit/voicecampaign-backend/internal/queue"
	"github.com/unclebandit/voicecampaign-backend/internal/repository"
	"github.com/unclebandit/voicecampaign-backend/internal/validation"
)

const invalidCallHistory = "Invalid call history data"

type CallHistoryService struct {
	CallHistoryRepo repository.CallHistoryRepositoryInterface
	CampaignRepo    repository.CampaignRepositoryInterface
	Queue           queue.Queue
	Logger          *zap.Logger
}

func NewCallHistoryService(calls repository.CallHistoryRepositoryInterface, campaigns repository.CampaignRepositoryInterface, q queue.Queue, log *zap.Logger) *CallHistoryService {
	return &CallHistoryService{CallHistoryRepo: calls, CampaignRepo: campaigns, Queue: q, Logger: nopIfNil(log)}
}

func (s *CallHistoryService) events() publisher {
	return publisher{q: s.Queue, log: nopIfNil(s.Logger)}
}

// ListCallHistory returns every record, or only those for contactEmail when it is set.
func (s *CallHistoryService) ListCallHistory(ctx context.Context, contactEmail string) ([]*model.CallHistory, error) {
	if contactEmail != "" {
		return s.CallHistoryRepo.ListByContact(ctx, contactEmail)
	}
	return s.CallHistoryRepo.List(ctx)
}

func (s *CallHistoryService) ListByCampaign(ctx context.Context, campaignID int) ([]*model.CallHistory, error) {
	return s.CallHistoryRepo.ListByCampaign(ctx, campaignID)
}

func (s *CallHistoryService) GetCallHistory(ctx context.Context, id int) (*model.CallHistory, error) {
	return s.CallHistoryRepo.GetByID(ctx, id)
}

// RecordCall validates and stores a call. A campaignId must reference an
// existing campaign at the time of the call; later deletes leave it dangling.
func (s *CallHistoryService) RecordCall(ctx context.Context, in model.CallHistoryInput, source string) (*model.CallHistory, error) {
	if err := validation.Struct(in, invalidCallHistory); err != nil {
		return nil, err
	}
	if in.CampaignID != nil && s.CampaignRepo != nil {
		if _, err := s.CampaignRepo.GetByID(ctx, *in.CampaignID); err != nil {
			if appErrors.IsNotFound(err) {
				return nil, appErrors.NewValidation(invalidCallHistory, appErrors.FieldError{
					Field:   "campaignId",
					Message: fmt.Sprintf("campaign %d does not exist", *in.CampaignID),
				})
			}
			return nil, err
		}
	}

	h := in.ToCallHistory()
	if err := s.CallHistoryRepo.Create(ctx, h); err != nil {
		return nil, err
	}

	metrics.CallsRecorded.WithLabelValues(source).Inc()
	ev := queue.Event{Type: queue.CallRecorded, EntityID: h.ID, Status: h.Status}
	if h.CampaignID != nil {
		ev.SourceID = *h.CampaignID
	}
	s.events().publish(ctx, queue.TopicCallHistoryEvents, ev)
	return h, nil
}

func (s *CallHistoryService) UpdateStatus(ctx context.Context, id int, update model.CallStatusUpdate) (*model.CallHistory, error) {
	if err := validation.Struct(update, "Status is required"); err != nil {
		return nil, err
	}
	h, err := s.CallHistoryRepo.UpdateStatus(ctx, id, update.Status)
	if err != nil {
		return nil, err
	}
	s.events().publish(ctx, queue.TopicCallHistoryEvents, queue.Event{Type: queue.CallStatusChanged, EntityID: id, Status: h.Status})
	return h, nil
}

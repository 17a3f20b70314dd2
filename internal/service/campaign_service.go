// internal/service/campaign_service.go
package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/unclebandit/voicecampaign-backend/internal/audience"
	"github.com/unclebandit/voicecampaign-backend/internal/auth"
	appErrors "github.com/unclebandit/voicecampaign-backend/internal/errors"
	"github.com/unclebandit/voicecampaign-backend/internal/metrics"
	"github.com/unclebandit/voicecampaign-backend/internal/model"
	"github.com/unclebandit/voicecampaign-backend/internal/queue"
	"github.com/unclebandit/voicecampaign-backend/internal/repository"
	"github.com/unclebandit/voicecampaign-backend/internal/validation"
)

const invalidCampaign = "Invalid campaign data"

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	Audience     audience.Directory
	Queue        queue.Queue
	Logger       *zap.Logger
}

func NewCampaignService(repo repository.CampaignRepositoryInterface, dir audience.Directory, q queue.Queue, log *zap.Logger) *CampaignService {
	return &CampaignService{CampaignRepo: repo, Audience: dir, Queue: q, Logger: nopIfNil(log)}
}

func (s *CampaignService) events() publisher {
	return publisher{q: s.Queue, log: nopIfNil(s.Logger)}
}

func (s *CampaignService) ListCampaigns(ctx context.Context) ([]*model.Campaign, error) {
	return s.CampaignRepo.List(ctx)
}

func (s *CampaignService) GetCampaign(ctx context.Context, id int) (*model.Campaign, error) {
	return s.CampaignRepo.GetByID(ctx, id)
}

// CreateCampaign validates in and stores it. When createdBy is absent the
// authenticated user, if any, becomes the owner.
func (s *CampaignService) CreateCampaign(ctx context.Context, in model.CampaignInput) (*model.Campaign, error) {
	if err := validation.Struct(in, invalidCampaign); err != nil {
		return nil, err
	}
	if in.CreatedBy == nil {
		if u, ok := auth.UserFromContext(ctx); ok {
			in.CreatedBy = model.IntPtr(u.UserID)
		}
	}

	c := in.ToCampaign()
	if err := s.CampaignRepo.Create(ctx, c); err != nil {
		return nil, err
	}

	metrics.CampaignMutations.WithLabelValues("create").Inc()
	s.events().publish(ctx, queue.TopicCampaignEvents, queue.Event{Type: queue.CampaignCreated, EntityID: c.ID})
	return c, nil
}

func (s *CampaignService) UpdateCampaign(ctx context.Context, id int, patch model.CampaignPatch) (*model.Campaign, error) {
	if err := validation.Struct(patch, invalidCampaign); err != nil {
		return nil, err
	}
	c, err := s.CampaignRepo.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if !patch.IsEmpty() {
		metrics.CampaignMutations.WithLabelValues("update").Inc()
		s.events().publish(ctx, queue.TopicCampaignEvents, queue.Event{Type: queue.CampaignUpdated, EntityID: id})
	}
	return c, nil
}

// DeleteCampaign removes the campaign. Call history pointing at it is kept.
func (s *CampaignService) DeleteCampaign(ctx context.Context, id int) error {
	existed, err := s.CampaignRepo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !existed {
		return appErrors.NewCampaignNotFound(id)
	}
	metrics.CampaignMutations.WithLabelValues("delete").Inc()
	s.events().publish(ctx, queue.TopicCampaignEvents, queue.Event{Type: queue.CampaignDeleted, EntityID: id})
	return nil
}

func (s *CampaignService) ToggleCampaignStatus(ctx context.Context, id int) (*model.Campaign, error) {
	c, err := s.CampaignRepo.ToggleStatus(ctx, id)
	if err != nil {
		return nil, err
	}
	status := "inactive"
	if c.Status {
		status = "active"
	}
	metrics.CampaignMutations.WithLabelValues("toggle").Inc()
	s.events().publish(ctx, queue.TopicCampaignEvents, queue.Event{Type: queue.CampaignToggled, EntityID: id, Status: status})
	return c, nil
}

func (s *CampaignService) DuplicateCampaign(ctx context.Context, id int) (*model.Campaign, error) {
	c, err := s.CampaignRepo.Duplicate(ctx, id)
	if err != nil {
		return nil, err
	}
	metrics.CampaignMutations.WithLabelValues("duplicate").Inc()
	s.events().publish(ctx, queue.TopicCampaignEvents, queue.Event{Type: queue.CampaignDuplicated, EntityID: c.ID, SourceID: id})
	return c, nil
}

// RenderPreview renders the campaign script, or overrideScript when it is
// non-blank, for one audience contact.
func (s *CampaignService) RenderPreview(ctx context.Context, campaignID, contactID int, overrideScript *string) (string, error) {
	campaign, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return "", err
	}

	if s.Audience == nil {
		return "", appErrors.NewNotFound("contact", contactID)
	}
	contact, err := s.Audience.Get(ctx, contactID)
	if err != nil {
		return "", err
	}

	script := campaign.Script
	if overrideScript != nil && strings.TrimSpace(*overrideScript) != "" {
		script = *overrideScript
	}

	return RenderTemplate(script, ContactPlaceholders(*contact)), nil
}

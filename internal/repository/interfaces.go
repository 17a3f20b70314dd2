package repository

import (
	"context"

	"github.com/unclebandit/voicecampaign-backend/internal/model"
)

// CampaignRepositoryInterface is the campaign storage contract shared by the
// in-memory, postgres and cached implementations. Missing rows are reported as
// *appErrors.NotFoundError.
type CampaignRepositoryInterface interface {
	List(ctx context.Context) ([]*model.Campaign, error)
	GetByID(ctx context.Context, id int) (*model.Campaign, error)
	// Create assigns c.ID and c.PublishedAt.
	Create(ctx context.Context, c *model.Campaign) error
	Update(ctx context.Context, id int, patch model.CampaignPatch) (*model.Campaign, error)
	// Delete reports whether a row existed.
	Delete(ctx context.Context, id int) (bool, error)
	ToggleStatus(ctx context.Context, id int) (*model.Campaign, error)
	Duplicate(ctx context.Context, id int) (*model.Campaign, error)
}

type CallHistoryRepositoryInterface interface {
	List(ctx context.Context) ([]*model.CallHistory, error)
	ListByCampaign(ctx context.Context, campaignID int) ([]*model.CallHistory, error)
	ListByContact(ctx context.Context, contactEmail string) ([]*model.CallHistory, error)
	GetByID(ctx context.Context, id int) (*model.CallHistory, error)
	// Create assigns h.ID and h.CallDate.
	Create(ctx context.Context, h *model.CallHistory) error
	UpdateStatus(ctx context.Context, id int, status string) (*model.CallHistory, error)
}

type UserRepositoryInterface interface {
	GetByID(ctx context.Context, id int) (*model.User, error)
	// GetByUsername returns nil, nil when no user has that name.
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	// Create assigns u.ID; a taken username is an *appErrors.ConflictError.
	Create(ctx context.Context, u *model.User) error
}

// Store bundles one repository per entity.
type Store struct {
	Campaigns   CampaignRepositoryInterface
	CallHistory CallHistoryRepositoryInterface
	Users       UserRepositoryInterface
}

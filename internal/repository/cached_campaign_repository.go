package repository

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/unclebandit/voicecampaign-backend/internal/cache"
	"github.com/unclebandit/voicecampaign-backend/internal/model"
)

const campaignGenerationKey = "campaigns:gen"

func campaignListKey(gen int64) string {
	return "campaigns:" + strconv.FormatInt(gen, 10) + ":list"
}

func campaignKey(gen int64, id int) string {
	return "campaigns:" + strconv.FormatInt(gen, 10) + ":" + strconv.Itoa(id)
}

// CachedCampaignRepository is a read-through cache in front of another
// campaign repository. Entry keys carry a generation that every write bumps,
// so a completed write is never hidden by an entry filled before it.
// Cache failures are logged and fall through to Inner.
type CachedCampaignRepository struct {
	Inner  CampaignRepositoryInterface
	Cache  cache.Cache
	TTL    time.Duration
	Logger *zap.Logger
}

func (r *CachedCampaignRepository) List(ctx context.Context) ([]*model.Campaign, error) {
	gen, cached := r.generation(ctx)
	if cached {
		var hit []*model.Campaign
		if r.load(ctx, campaignListKey(gen), &hit) {
			return hit, nil
		}
	}
	campaigns, err := r.Inner.List(ctx)
	if err != nil {
		return nil, err
	}
	if cached {
		r.store(ctx, campaignListKey(gen), campaigns)
	}
	return campaigns, nil
}

func (r *CachedCampaignRepository) GetByID(ctx context.Context, id int) (*model.Campaign, error) {
	gen, cached := r.generation(ctx)
	if cached {
		var hit model.Campaign
		if r.load(ctx, campaignKey(gen, id), &hit) {
			return &hit, nil
		}
	}
	c, err := r.Inner.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cached {
		r.store(ctx, campaignKey(gen, id), c)
	}
	return c, nil
}

func (r *CachedCampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	if err := r.Inner.Create(ctx, c); err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func (r *CachedCampaignRepository) Update(ctx context.Context, id int, patch model.CampaignPatch) (*model.Campaign, error) {
	c, err := r.Inner.Update(ctx, id, patch)
	r.invalidate(ctx)
	return c, err
}

func (r *CachedCampaignRepository) Delete(ctx context.Context, id int) (bool, error) {
	existed, err := r.Inner.Delete(ctx, id)
	r.invalidate(ctx)
	return existed, err
}

func (r *CachedCampaignRepository) ToggleStatus(ctx context.Context, id int) (*model.Campaign, error) {
	c, err := r.Inner.ToggleStatus(ctx, id)
	r.invalidate(ctx)
	return c, err
}

func (r *CachedCampaignRepository) Duplicate(ctx context.Context, id int) (*model.Campaign, error) {
	c, err := r.Inner.Duplicate(ctx, id)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx)
	return c, nil
}

func (r *CachedCampaignRepository) load(ctx context.Context, key string, dst any) bool {
	raw, ok, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.log().Warn("campaign cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		r.log().Warn("campaign cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (r *CachedCampaignRepository) store(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, raw, r.TTL); err != nil {
		r.log().Warn("campaign cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// generation returns the current key generation. false means the cache is
// unreachable and the call should go straight to Inner.
func (r *CachedCampaignRepository) generation(ctx context.Context) (int64, bool) {
	gen, err := cache.Generation(ctx, r.Cache, campaignGenerationKey)
	if err != nil {
		r.log().Warn("campaign cache generation read failed", zap.Error(err))
		return 0, false
	}
	return gen, true
}

// invalidate runs after the write reached Inner.
func (r *CachedCampaignRepository) invalidate(ctx context.Context) {
	if _, err := r.Cache.Incr(ctx, campaignGenerationKey); err != nil {
		r.log().Warn("campaign cache invalidation failed", zap.Error(err))
	}
}

func (r *CachedCampaignRepository) log() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}

var _ CampaignRepositoryInterface = (*CachedCampaignRepository)(nil)

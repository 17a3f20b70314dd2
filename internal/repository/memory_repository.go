package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	appErrors "github.com/unclebandit/voicecampaign-backend/internal/errors"
	"github.com/unclebandit/voicecampaign-backend/internal/model"
)

// NewMemoryStore returns an empty in-process store. Nothing is seeded here;
// see internal/seed.
func NewMemoryStore() *Store {
	return &Store{
		Campaigns:   NewMemoryCampaignRepository(),
		CallHistory: NewMemoryCallHistoryRepository(),
		Users:       NewMemoryUserRepository(),
	}
}

// ====================== Campaigns ======================

type MemoryCampaignRepository struct {
	mu     sync.RWMutex
	rows   map[int]*model.Campaign
	nextID int
	now    func() time.Time
}

func NewMemoryCampaignRepository() *MemoryCampaignRepository {
	return &MemoryCampaignRepository{
		rows:   make(map[int]*model.Campaign),
		nextID: 1,
		now:    time.Now,
	}
}

func (r *MemoryCampaignRepository) List(ctx context.Context) ([]*model.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Campaign, 0, len(r.rows))
	for _, c := range r.rows {
		out = append(out, c.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryCampaignRepository) GetByID(ctx context.Context, id int) (*model.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.rows[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	return c.Clone(), nil
}

func (r *MemoryCampaignRepository) Create(ctx context.Context, c *model.Campaign) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.insertLocked(c)
	return nil
}

// insertLocked assigns the next id and publishedAt. Ids are never reused.
func (r *MemoryCampaignRepository) insertLocked(c *model.Campaign) {
	c.ID = r.nextID
	r.nextID++
	c.PublishedAt = r.now()
	r.rows[c.ID] = c.Clone()
}

func (r *MemoryCampaignRepository) Update(ctx context.Context, id int, patch model.CampaignPatch) (*model.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.rows[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	updated := c.Clone()
	patch.Apply(updated)
	r.rows[id] = updated
	return updated.Clone(), nil
}

func (r *MemoryCampaignRepository) Delete(ctx context.Context, id int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[id]; !ok {
		return false, nil
	}
	delete(r.rows, id)
	return true, nil
}

func (r *MemoryCampaignRepository) ToggleStatus(ctx context.Context, id int) (*model.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.rows[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	c.Status = !c.Status
	return c.Clone(), nil
}

func (r *MemoryCampaignRepository) Duplicate(ctx context.Context, id int) (*model.Campaign, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	src, ok := r.rows[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	cp := src.Clone()
	cp.Name = model.DuplicateName(src.Name)
	cp.Status = false
	r.insertLocked(cp)
	return cp, nil
}

// ====================== Call history ======================

type MemoryCallHistoryRepository struct {
	mu     sync.RWMutex
	rows   map[int]*model.CallHistory
	nextID int
	now    func() time.Time
}

func NewMemoryCallHistoryRepository() *MemoryCallHistoryRepository {
	return &MemoryCallHistoryRepository{
		rows:   make(map[int]*model.CallHistory),
		nextID: 1,
		now:    time.Now,
	}
}

func (r *MemoryCallHistoryRepository) filter(keep func(*model.CallHistory) bool) []*model.CallHistory {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*model.CallHistory{}
	for _, h := range r.rows {
		if keep(h) {
			out = append(out, h.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *MemoryCallHistoryRepository) List(ctx context.Context) ([]*model.CallHistory, error) {
	return r.filter(func(*model.CallHistory) bool { return true }), nil
}

func (r *MemoryCallHistoryRepository) ListByCampaign(ctx context.Context, campaignID int) ([]*model.CallHistory, error) {
	return r.filter(func(h *model.CallHistory) bool {
		return h.CampaignID != nil && *h.CampaignID == campaignID
	}), nil
}

func (r *MemoryCallHistoryRepository) ListByContact(ctx context.Context, contactEmail string) ([]*model.CallHistory, error) {
	return r.filter(func(h *model.CallHistory) bool {
		return h.ContactEmail == contactEmail
	}), nil
}

func (r *MemoryCallHistoryRepository) GetByID(ctx context.Context, id int) (*model.CallHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.rows[id]
	if !ok {
		return nil, appErrors.NewCallHistoryNotFound(id)
	}
	return h.Clone(), nil
}

func (r *MemoryCallHistoryRepository) Create(ctx context.Context, h *model.CallHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h.ID = r.nextID
	r.nextID++
	h.CallDate = r.now()
	r.rows[h.ID] = h.Clone()
	return nil
}

func (r *MemoryCallHistoryRepository) UpdateStatus(ctx context.Context, id int, status string) (*model.CallHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.rows[id]
	if !ok {
		return nil, appErrors.NewCallHistoryNotFound(id)
	}
	h.Status = status
	return h.Clone(), nil
}

// ====================== Users ======================

type MemoryUserRepository struct {
	mu     sync.RWMutex
	rows   map[int]*model.User
	nextID int
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		rows:   make(map[int]*model.User),
		nextID: 1,
	}
}

func (r *MemoryUserRepository) GetByID(ctx context.Context, id int) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.rows[id]
	if !ok {
		return nil, appErrors.NewUserNotFound(id)
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.rows {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *MemoryUserRepository) Create(ctx context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.rows {
		if existing.Username == u.Username {
			return appErrors.NewConflict("user", "username", u.Username)
		}
	}
	u.ID = r.nextID
	r.nextID++
	cp := *u
	r.rows[u.ID] = &cp
	return nil
}

var (
	_ CampaignRepositoryInterface    = (*MemoryCampaignRepository)(nil)
	_ CallHistoryRepositoryInterface = (*MemoryCallHistoryRepository)(nil)
	_ UserRepositoryInterface        = (*MemoryUserRepository)(nil)
)

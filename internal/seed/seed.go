// Package seed loads the demo account, campaigns and call records into an
// empty store.
package seed

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/unclebandit/voicecampaign-backend/internal/audience"
	"github.com/unclebandit/voicecampaign-backend/internal/auth"
	"github.com/unclebandit/voicecampaign-backend/internal/model"
	"github.com/unclebandit/voicecampaign-backend/internal/repository"
)

// Result reports what Load inserted.
type Result struct {
	UserID      int
	Campaigns   int
	CallRecords int
	Skipped     bool
}

// Load seeds store when it holds no campaigns. Running it against a store
// that already has data is a no-op, so it is safe on every boot.
func Load(ctx context.Context, store *repository.Store, log *zap.Logger) (Result, error) {
	if log == nil {
		log = zap.NewNop()
	}

	existing, err := store.Campaigns.List(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("seed: list campaigns: %w", err)
	}
	if len(existing) > 0 {
		log.Info("store already populated, skipping seed", zap.Int("campaigns", len(existing)))
		return Result{Skipped: true}, nil
	}

	userID, err := ensureDemoUser(ctx, store.Users)
	if err != nil {
		return Result{}, err
	}
	res := Result{UserID: userID}

	var firstCampaign int
	for _, in := range demoCampaigns(userID) {
		c := in.ToCampaign()
		if err := store.Campaigns.Create(ctx, c); err != nil {
			return res, fmt.Errorf("seed: create campaign %q: %w", in.Name, err)
		}
		if firstCampaign == 0 {
			firstCampaign = c.ID
		}
		res.Campaigns++
	}

	for i, rec := range demoCallRecords {
		n := i + 1
		h := model.CallHistoryInput{
			CampaignID:    model.IntPtr(firstCampaign),
			ContactName:   rec.name,
			ContactEmail:  rec.email,
			ContactPhone:  rec.phone,
			Status:        rec.status,
			CallSummary:   model.StringPtr(rec.summary),
			RecordingURL:  model.StringPtr(fmt.Sprintf("/recordings/call-%d.mp3", n)),
			TranscriptURL: model.StringPtr(fmt.Sprintf("/transcripts/call-%d.txt", n)),
		}.ToCallHistory()
		if err := store.CallHistory.Create(ctx, h); err != nil {
			return res, fmt.Errorf("seed: create call record %d: %w", n, err)
		}
		res.CallRecords++
	}

	log.Info("🌱 demo data seeded",
		zap.Int("user_id", res.UserID),
		zap.Int("campaigns", res.Campaigns),
		zap.Int("call_records", res.CallRecords),
	)
	return res, nil
}

func ensureDemoUser(ctx context.Context, users repository.UserRepositoryInterface) (int, error) {
	u, err := users.GetByUsername(ctx, DemoUsername)
	if err != nil {
		return 0, fmt.Errorf("seed: lookup demo user: %w", err)
	}
	if u != nil {
		return u.ID, nil
	}

	hash, err := auth.HashPassword(DemoPassword)
	if err != nil {
		return 0, fmt.Errorf("seed: hash password: %w", err)
	}
	u = &model.User{Username: DemoUsername, PasswordHash: hash}
	if err := users.Create(ctx, u); err != nil {
		return 0, fmt.Errorf("seed: create demo user: %w", err)
	}
	return u.ID, nil
}

// ContactWriter is the part of a contact directory the seed needs.
type ContactWriter interface {
	Upsert(ctx context.Context, c *model.Contact) error
}

// LoadContacts writes the sample audience. Contacts are keyed by email, so
// repeated runs update rather than duplicate.
func LoadContacts(ctx context.Context, w ContactWriter, log *zap.Logger) (int, error) {
	contacts := audience.DemoContacts()
	for i := range contacts {
		c := contacts[i]
		if err := w.Upsert(ctx, &c); err != nil {
			return i, fmt.Errorf("seed: upsert contact %q: %w", c.Email, err)
		}
	}
	if log != nil {
		log.Info("🌱 audience contacts seeded", zap.Int("contacts", len(contacts)))
	}
	return len(contacts), nil
}

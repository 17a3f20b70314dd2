package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unclebandit/voicecampaign-backend/internal/audience"
	"github.com/unclebandit/voicecampaign-backend/internal/auth"
	"github.com/unclebandit/voicecampaign-backend/internal/cache"
	"github.com/unclebandit/voicecampaign-backend/internal/controller"
	"github.com/unclebandit/voicecampaign-backend/internal/handler"
	"github.com/unclebandit/voicecampaign-backend/internal/model"
	"github.com/unclebandit/voicecampaign-backend/internal/repository"
	"github.com/unclebandit/voicecampaign-backend/internal/seed"
	"github.com/unclebandit/voicecampaign-backend/internal/service"
	"github.com/unclebandit/voicecampaign-backend/pkg/client"
)

// hitCounter counts GET requests per path. When stall is set the next GET
// is answered from a snapshot taken before the test releases it.
type hitCounter struct {
	next http.Handler
	mu   sync.Mutex
	gets map[string]int

	stall   atomic.Bool
	fetched chan struct{}
	release chan struct{}
}

func (h *hitCounter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.next.ServeHTTP(w, r)
		return
	}
	h.mu.Lock()
	h.gets[r.URL.Path]++
	h.mu.Unlock()

	if !h.stall.CompareAndSwap(true, false) {
		h.next.ServeHTTP(w, r)
		return
	}
	rec := httptest.NewRecorder()
	h.next.ServeHTTP(rec, r)
	close(h.fetched)
	<-h.release
	for k, v := range rec.Header() {
		w.Header()[k] = v
	}
	w.WriteHeader(rec.Code)
	_, _ = w.Write(rec.Body.Bytes())
}

func (h *hitCounter) count(path string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.gets[path]
}

func newServer(t *testing.T) (*httptest.Server, *hitCounter) {
	t.Helper()
	log := zap.NewNop()
	store := repository.NewMemoryStore()
	_, err := seed.Load(context.Background(), store, log)
	require.NoError(t, err)

	dir := audience.NewDemoDirectory()
	issuer := auth.NewIssuer("test-secret", time.Hour)
	campaigns := service.NewCampaignService(store.Campaigns, dir, nil, log)
	calls := service.NewCallHistoryService(store.CallHistory, store.Campaigns, nil, log)
	reporting := &service.ReportingService{CampaignRepo: store.Campaigns, CallHistoryRepo: store.CallHistory}

	router := handler.NewRouter(handler.Controllers{
		Campaigns:   &controller.CampaignController{CampaignService: campaigns, ReportingService: reporting, Logger: log},
		CallHistory: &controller.CallHistoryController{CallHistoryService: calls, Logger: log},
		Auth:        &controller.AuthController{AuthService: &service.AuthService{UserRepo: store.Users, Issuer: issuer}, Logger: log},
		Reporting:   &controller.ReportingController{ReportingService: reporting, Audience: dir, Logger: log},
	}, issuer, log)

	counter := &hitCounter{
		next:    router,
		gets:    make(map[string]int),
		fetched: make(chan struct{}),
		release: make(chan struct{}),
	}
	srv := httptest.NewServer(counter)
	t.Cleanup(srv.Close)
	return srv, counter
}

func TestListIsCachedUntilMutation(t *testing.T) {
	srv, hits := newServer(t)
	ctx := context.Background()
	c := client.New(srv.URL)

	first, err := c.ListCampaigns(ctx)
	require.NoError(t, err)
	require.Len(t, first, 9)
	_, err = c.ListCampaigns(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, hits.count("/api/campaigns"))

	dup, err := c.DuplicateCampaign(ctx, first[0].ID)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(dup.Name, " (Copy)"))

	after, err := c.ListCampaigns(ctx)
	require.NoError(t, err)
	assert.Len(t, after, 10)
	assert.Equal(t, 2, hits.count("/api/campaigns"))
}

func TestListRacingMutationIsNotCached(t *testing.T) {
	srv, hits := newServer(t)
	ctx := context.Background()
	c := client.New(srv.URL)

	hits.stall.Store(true)
	stale := make(chan int, 1)
	go func() {
		list, err := c.ListCampaigns(ctx)
		assert.NoError(t, err)
		stale <- len(list)
	}()
	<-hits.fetched

	_, err := c.DuplicateCampaign(ctx, 1)
	require.NoError(t, err)
	close(hits.release)
	assert.Equal(t, 9, <-stale)

	list, err := c.ListCampaigns(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 10)
	assert.Equal(t, 2, hits.count("/api/campaigns"))
}

func TestClientsSharingACacheSeeEachOthersMutations(t *testing.T) {
	srv, hits := newServer(t)
	ctx := context.Background()
	shared := cache.NewMemoryCache()
	reader := client.New(srv.URL, client.WithCache(shared, time.Minute))
	writer := client.New(srv.URL, client.WithCache(shared, time.Minute))

	_, err := reader.ListCampaigns(ctx)
	require.NoError(t, err)
	_, err = writer.ListCampaigns(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, hits.count("/api/campaigns"))

	_, err = writer.ToggleCampaign(ctx, 1)
	require.NoError(t, err)

	list, err := reader.ListCampaigns(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, hits.count("/api/campaigns"))
	require.NotEmpty(t, list)
}

func TestCallHistoryMutationInvalidatesFilteredLists(t *testing.T) {
	srv, hits := newServer(t)
	ctx := context.Background()
	c := client.New(srv.URL)

	calls, err := c.ListCallHistoryByCampaign(ctx, 1)
	require.NoError(t, err)
	require.NotEmpty(t, calls)
	_, err = c.ListCallHistoryByCampaign(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, hits.count("/api/call-history/campaign/1"))

	_, err = c.UpdateCallStatus(ctx, calls[0].ID, model.CallStatusNotInterested)
	require.NoError(t, err)

	calls, err = c.ListCallHistoryByCampaign(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, model.CallStatusNotInterested, calls[0].Status)
	assert.Equal(t, 2, hits.count("/api/call-history/campaign/1"))
}

func TestAPIErrors(t *testing.T) {
	srv, _ := newServer(t)
	ctx := context.Background()
	c := client.New(srv.URL)

	_, err := c.ToggleCampaign(ctx, 9999)
	require.Error(t, err)
	assert.True(t, client.IsNotFound(err))

	_, err = c.CreateCampaign(ctx, model.CampaignInput{Script: "Hi", VoiceType: "Default", MaxCallCount: 5})
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	require.NotEmpty(t, apiErr.Errors)
	assert.Equal(t, "name", apiErr.Errors[0].Field)
	assert.Contains(t, err.Error(), "POST /api/campaigns returned 400")
}

func TestLoginStoresToken(t *testing.T) {
	srv, _ := newServer(t)
	ctx := context.Background()
	c := client.New(srv.URL)

	_, err := c.Login(ctx, seed.DemoUsername, "wrong")
	require.Error(t, err)

	session, err := c.Login(ctx, seed.DemoUsername, seed.DemoPassword)
	require.NoError(t, err)
	assert.Equal(t, seed.DemoUsername, session.User.Username)

	created, err := c.CreateCampaign(ctx, model.CampaignInput{Name: "Mine", Script: "Hi", VoiceType: "Default", MaxCallCount: 1})
	require.NoError(t, err)
	require.NotNil(t, created.CreatedBy)
	assert.Equal(t, session.User.ID, *created.CreatedBy)
}

func TestUpdateCampaignSendsOnlySuppliedFields(t *testing.T) {
	srv, _ := newServer(t)
	ctx := context.Background()
	c := client.New(srv.URL)

	before, err := c.GetCampaign(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, before.Objective)
	require.NotNil(t, before.Guidelines)

	after, err := c.UpdateCampaign(ctx, 1, model.CampaignPatch{Objective: model.ClearString()})
	require.NoError(t, err)
	assert.Nil(t, after.Objective)
	assert.Equal(t, before.Name, after.Name)
	assert.Equal(t, before.Guidelines, after.Guidelines)
}

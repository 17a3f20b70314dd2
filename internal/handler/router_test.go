package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/unclebandit/voicecampaign-backend/internal/audience"
	"github.com/unclebandit/voicecampaign-backend/internal/auth"
	"github.com/unclebandit/voicecampaign-backend/internal/controller"
	"github.com/unclebandit/voicecampaign-backend/internal/handler"
	"github.com/unclebandit/voicecampaign-backend/internal/harness"
	"github.com/unclebandit/voicecampaign-backend/internal/model"
	"github.com/unclebandit/voicecampaign-backend/internal/repository"
	"github.com/unclebandit/voicecampaign-backend/internal/service"
)

type echoModel struct{}

func (echoModel) StartChat(context.Context, string) (harness.Chat, error) { return echoChat{}, nil }

type echoChat struct{}

func (echoChat) Send(_ context.Context, text string) (string, error) {
	return "You said: " + text, nil
}

type testAPI struct {
	http.Handler
	store  *repository.Store
	issuer *auth.Issuer
}

func newTestAPI(t *testing.T, chat harness.ChatModel) *testAPI {
	t.Helper()
	log := zap.NewNop()
	store := repository.NewMemoryStore()
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
		Harness: &controller.HarnessController{
			CampaignService: campaigns,
			Audience:        dir,
			Model:           chat,
			SilenceDelay:    50 * time.Millisecond,
			ModelTimeout:    time.Second,
			Logger:          log,
		},
	}, issuer, log)

	return &testAPI{Handler: router, store: store, issuer: issuer}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	a.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

type errorResponse struct {
	Message string `json:"message"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

func validCampaign() map[string]any {
	return map[string]any{
		"name":         "Test",
		"script":       "Hi",
		"voiceType":    "Default",
		"maxCallCount": 5,
	}
}

func TestCreateCampaign(t *testing.T) {
	api := newTestAPI(t, nil)

	body := validCampaign()
	body["id"] = 4242
	body["publishedAt"] = "2001-01-01T00:00:00Z"
	before := time.Now()
	rr := api.do(t, http.MethodPost, "/api/campaigns", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	c := decode[model.Campaign](t, rr)
	assert.Positive(t, c.ID)
	assert.NotEqual(t, 4242, c.ID, "a client supplied id is ignored")
	assert.WithinDuration(t, before, c.PublishedAt, time.Second, "publishedAt is set by the server")
	assert.False(t, c.Status)
	assert.Nil(t, c.Objective)

	rr = api.do(t, http.MethodGet, "/api/campaigns", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]model.Campaign](t, rr), 1)
}

func TestCreateCampaignValidation(t *testing.T) {
	api := newTestAPI(t, nil)

	for _, tc := range []struct {
		name string
		edit func(map[string]any)
	}{
		{"missing name", func(b map[string]any) { delete(b, "name") }},
		{"empty name", func(b map[string]any) { b["name"] = "" }},
	} {
		body := validCampaign()
		tc.edit(body)
		rr := api.do(t, http.MethodPost, "/api/campaigns", body)
		require.Equal(t, http.StatusBadRequest, rr.Code, tc.name)
		resp := decode[errorResponse](t, rr)
		assert.Equal(t, "Invalid campaign data", resp.Message, tc.name)
		require.NotEmpty(t, resp.Errors, tc.name)
		assert.Equal(t, "name", resp.Errors[0].Field, tc.name)
	}

	body := validCampaign()
	body["maxCallCount"] = "five"
	rr := api.do(t, http.MethodPost, "/api/campaigns", body)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = api.do(t, http.MethodGet, "/api/campaigns", nil)
	assert.Empty(t, decode[[]model.Campaign](t, rr), "a rejected create must not be stored")
}

func TestCampaignNotFoundAndBadID(t *testing.T) {
	api := newTestAPI(t, nil)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/campaigns/9999"},
		{http.MethodPost, "/api/campaigns/9999/toggle"},
		{http.MethodPost, "/api/campaigns/9999/duplicate"},
		{http.MethodDelete, "/api/campaigns/9999"},
		{http.MethodPatch, "/api/campaigns/9999"},
		{http.MethodGet, "/api/campaigns/9999/stats"},
	} {
		rr := api.do(t, tc.method, tc.path, map[string]any{"name": "x"})
		assert.Equal(t, http.StatusNotFound, rr.Code, "%s %s", tc.method, tc.path)
		assert.Equal(t, "Campaign not found", decode[errorResponse](t, rr).Message)
	}

	rr := api.do(t, http.MethodGet, "/api/campaigns/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "Invalid campaign ID", decode[errorResponse](t, rr).Message)
}

func TestToggleDuplicateDelete(t *testing.T) {
	api := newTestAPI(t, nil)

	rr := api.do(t, http.MethodPost, "/api/campaigns", validCampaign())
	orig := decode[model.Campaign](t, rr)

	rr = api.do(t, http.MethodPost, "/api/campaigns/"+itoa(orig.ID)+"/toggle", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[model.Campaign](t, rr).Status)

	rr = api.do(t, http.MethodPost, "/api/campaigns/"+itoa(orig.ID)+"/duplicate", nil)
	require.Equal(t, http.StatusCreated, rr.Code)
	first := decode[model.Campaign](t, rr)
	rr = api.do(t, http.MethodPost, "/api/campaigns/"+itoa(orig.ID)+"/duplicate", nil)
	second := decode[model.Campaign](t, rr)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "Test (Copy)", first.Name)
	assert.Equal(t, "Test (Copy)", second.Name)
	assert.False(t, first.Status)

	rr = api.do(t, http.MethodDelete, "/api/campaigns/"+itoa(orig.ID), nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())

	rr = api.do(t, http.MethodGet, "/api/campaigns/"+itoa(orig.ID), nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPatchCampaign(t *testing.T) {
	api := newTestAPI(t, nil)
	orig := decode[model.Campaign](t, api.do(t, http.MethodPost, "/api/campaigns", validCampaign()))

	rr := api.do(t, http.MethodPatch, "/api/campaigns/"+itoa(orig.ID), map[string]any{"name": "Renamed"})
	require.Equal(t, http.StatusOK, rr.Code)
	got := decode[model.Campaign](t, rr)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, orig.Script, got.Script)

	rr = api.do(t, http.MethodPatch, "/api/campaigns/"+itoa(orig.ID), map[string]any{"maxCallCount": 0})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = api.do(t, http.MethodPatch, "/api/campaigns/"+itoa(orig.ID), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Renamed", decode[model.Campaign](t, rr).Name)
}

func TestPatchNullClearsOptionalText(t *testing.T) {
	api := newTestAPI(t, nil)
	body := validCampaign()
	body["objective"] = "Sell"
	body["guidelines"] = "Be brief"
	orig := decode[model.Campaign](t, api.do(t, http.MethodPost, "/api/campaigns", body))
	require.NotNil(t, orig.Objective)

	rr := api.do(t, http.MethodPatch, "/api/campaigns/"+itoa(orig.ID), map[string]any{"objective": nil})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	got := decode[model.Campaign](t, rr)
	assert.Nil(t, got.Objective)
	require.NotNil(t, got.Guidelines, "absent keys stay unchanged")
	assert.Equal(t, "Be brief", *got.Guidelines)

	rr = api.do(t, http.MethodPatch, "/api/campaigns/"+itoa(orig.ID), map[string]any{"guidelines": 7})
	require.Equal(t, http.StatusBadRequest, rr.Code)
	resp := decode[errorResponse](t, rr)
	require.NotEmpty(t, resp.Errors)
	assert.Equal(t, "guidelines", resp.Errors[0].Field)

	rr = api.do(t, http.MethodGet, "/api/campaigns/"+itoa(orig.ID), nil)
	got = decode[model.Campaign](t, rr)
	assert.Nil(t, got.Objective)
	assert.Equal(t, "Be brief", *got.Guidelines)
}

func TestCallHistoryEndpoints(t *testing.T) {
	api := newTestAPI(t, nil)
	campaign := decode[model.Campaign](t, api.do(t, http.MethodPost, "/api/campaigns", validCampaign()))

	record := map[string]any{
		"campaignId":   campaign.ID,
		"contactName":  "Rahul Sharma",
		"contactEmail": "rahul@example.com",
		"contactPhone": "+91 98765 43210",
		"status":       model.CallStatusFollowUp,
	}
	rr := api.do(t, http.MethodPost, "/api/call-history", record)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decode[model.CallHistory](t, rr)
	assert.WithinDuration(t, time.Now(), created.CallDate, 5*time.Second)

	record["campaignId"] = 9999
	rr = api.do(t, http.MethodPost, "/api/call-history", record)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = api.do(t, http.MethodGet, "/api/call-history/campaign/"+itoa(campaign.ID), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]model.CallHistory](t, rr), 1)

	rr = api.do(t, http.MethodGet, "/api/call-history?contactEmail=nobody@example.com", nil)
	assert.Empty(t, decode[[]model.CallHistory](t, rr))

	rr = api.do(t, http.MethodPatch, "/api/call-history/"+itoa(created.ID)+"/status", map[string]any{"status": model.CallStatusLeadInterested})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, model.CallStatusLeadInterested, decode[model.CallHistory](t, rr).Status)

	rr = api.do(t, http.MethodPatch, "/api/call-history/"+itoa(created.ID)+"/status", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = api.do(t, http.MethodGet, "/api/call-history/9999", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Call history item not found", decode[errorResponse](t, rr).Message)

	rr = api.do(t, http.MethodGet, "/api/campaigns/"+itoa(campaign.ID)+"/stats", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	stats := decode[service.CampaignDetails](t, rr)
	assert.Equal(t, 1, stats.Stats["total"])
	assert.Equal(t, 1, stats.Stats[model.CallStatusLeadInterested])
}

func TestAuthFlow(t *testing.T) {
	api := newTestAPI(t, nil)

	rr := api.do(t, http.MethodPost, "/api/auth/register", map[string]any{"username": "shiva", "password": "password123"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = api.do(t, http.MethodPost, "/api/auth/register", map[string]any{"username": "shiva", "password": "password123"})
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = api.do(t, http.MethodPost, "/api/auth/login", map[string]any{"username": "shiva", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = api.do(t, http.MethodPost, "/api/auth/login", map[string]any{"username": "shiva", "password": "password123"})
	require.Equal(t, http.StatusOK, rr.Code)
	session := decode[service.Session](t, rr)
	require.NotEmpty(t, session.Token)

	rr = api.do(t, http.MethodGet, "/api/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "shiva", decode[model.User](t, rec).Username)

	req = httptest.NewRequest(http.MethodGet, "/api/campaigns", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	api.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRegisterRejectsPasswordBcryptCannotHash(t *testing.T) {
	api := newTestAPI(t, nil)

	for _, password := range []string{strings.Repeat("a", 80), strings.Repeat("é", 40)} {
		rr := api.do(t, http.MethodPost, "/api/auth/register", map[string]any{"username": "shiva", "password": password})
		require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
		resp := decode[errorResponse](t, rr)
		require.NotEmpty(t, resp.Errors)
		assert.Equal(t, "password", resp.Errors[0].Field)
	}

	u, err := api.store.Users.GetByUsername(context.Background(), "shiva")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestCreatedByDefaultsToCaller(t *testing.T) {
	api := newTestAPI(t, nil)
	token, err := api.issuer.GenerateToken(7, "caller")
	require.NoError(t, err)

	raw, _ := json.Marshal(validCampaign())
	req := httptest.NewRequest(http.MethodPost, "/api/campaigns", bytes.NewReader(raw))
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	api.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	c := decode[model.Campaign](t, rec)
	require.NotNil(t, c.CreatedBy)
	assert.Equal(t, 7, *c.CreatedBy)
}

func TestReadOnlyViews(t *testing.T) {
	api := newTestAPI(t, nil)

	rr := api.do(t, http.MethodGet, "/api/voices", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, model.VoiceTypes, decode[[]string](t, rr))

	rr = api.do(t, http.MethodGet, "/api/audience?q=john", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	contacts := decode[[]model.Contact](t, rr)
	require.NotEmpty(t, contacts)
	for _, c := range contacts {
		assert.Contains(t, strings.ToLower(c.Name+c.Email), "john")
	}

	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/dashboard", nil).Code)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/api/billing", nil).Code)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/metrics", nil).Code)
}

func TestPreview(t *testing.T) {
	api := newTestAPI(t, nil)
	body := validCampaign()
	body["script"] = "Hello {first_name}, this is about {missing}"
	c := decode[model.Campaign](t, api.do(t, http.MethodPost, "/api/campaigns", body))

	rr := api.do(t, http.MethodPost, "/api/campaigns/"+itoa(c.ID)+"/preview", map[string]any{"contactId": 1})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	resp := decode[map[string]any](t, rr)
	assert.NotContains(t, resp["renderedScript"], "{first_name}")

	rr = api.do(t, http.MethodPost, "/api/campaigns/"+itoa(c.ID)+"/preview", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

type wsMessage struct {
	Type    string `json:"type"`
	State   string `json:"state"`
	Text    string `json:"text"`
	Role    string `json:"role"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Fatal   bool   `json:"fatal"`
}

// waitFor reads server messages until one matches.
func waitFor(t *testing.T, conn *websocket.Conn, match func(wsMessage) bool) wsMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg wsMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if match(msg) {
			return msg
		}
	}
}

func dialTestCall(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	resp.Body.Close()
	return conn
}

func TestTestCallConversation(t *testing.T) {
	api := newTestAPI(t, echoModel{})
	srv := httptest.NewServer(api)
	defer srv.Close()

	c := decode[model.Campaign](t, api.do(t, http.MethodPost, "/api/campaigns", validCampaign()))
	conn := dialTestCall(t, srv, "/api/campaigns/"+itoa(c.ID)+"/test-call")
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "start", "speechRecognition": true, "microphone": true}))
	opening := waitFor(t, conn, func(m wsMessage) bool { return m.Type == "say" })
	assert.Equal(t, harness.DefaultOpeningLine, opening.Text)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "speech_ended"}))
	waitFor(t, conn, func(m wsMessage) bool { return m.Type == "listen" })

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "text", "text": "Yes, speaking"}))
	user := waitFor(t, conn, func(m wsMessage) bool { return m.Type == "message" && m.Role == harness.RoleUser })
	assert.Equal(t, "Yes, speaking", user.Text)
	reply := waitFor(t, conn, func(m wsMessage) bool { return m.Type == "say" })
	assert.Equal(t, "You said: Yes, speaking", reply.Text)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "end"}))
	waitFor(t, conn, func(m wsMessage) bool { return m.Type == "state" && m.State == string(harness.StateIdle) })
}

func TestTestCallCapabilityErrors(t *testing.T) {
	api := newTestAPI(t, nil)
	srv := httptest.NewServer(api)
	defer srv.Close()
	c := decode[model.Campaign](t, api.do(t, http.MethodPost, "/api/campaigns", validCampaign()))

	conn := dialTestCall(t, srv, "/api/campaigns/"+itoa(c.ID)+"/test-call")
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "start", "speechRecognition": false}))
	msg := waitFor(t, conn, func(m wsMessage) bool { return m.Type == "error" })
	assert.Equal(t, "speech_unsupported", msg.Code)
	assert.True(t, msg.Fatal)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "start", "speechRecognition": true, "microphone": true}))
	msg = waitFor(t, conn, func(m wsMessage) bool { return m.Type == "error" })
	assert.Equal(t, "missing_credentials", msg.Code)
}

func TestTestCallUnknownCampaign(t *testing.T) {
	api := newTestAPI(t, echoModel{})
	rr := api.do(t, http.MethodGet, "/api/campaigns/9999/test-call", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func itoa(i int) string { return strconv.Itoa(i) }

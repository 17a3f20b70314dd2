// Package client is a typed HTTP client for the campaign API. GET responses
// for collections are cached and every mutation invalidates the collections
// it touches, so the next list call refetches.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/unclebandit/voicecampaign-backend/internal/cache"
	"github.com/unclebandit/voicecampaign-backend/internal/model"
)

const (
	campaignsKey   = "/api/campaigns"
	callHistoryKey = "/api/call-history"
)

// FieldError is one entry of a validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is returned for any non-2xx response.
type APIError struct {
	Status  int          `json:"-"`
	Method  string       `json:"-"`
	Path    string       `json:"-"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if len(e.Errors) > 0 {
		parts := make([]string, 0, len(e.Errors))
		for _, fe := range e.Errors {
			parts = append(parts, fe.Field+": "+fe.Message)
		}
		msg += " (" + strings.Join(parts, "; ") + ")"
	}
	return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.Path, e.Status, msg)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

type Client struct {
	baseURL string
	http    *http.Client
	cache   cache.Cache
	ttl     time.Duration

	mu    sync.Mutex
	token string
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithCache replaces the default in-process cache, for example with a shared
// redis cache.
func WithCache(store cache.Cache, ttl time.Duration) Option {
	return func(c *Client) { c.cache, c.ttl = store, ttl }
}

func WithToken(token string) Option { return func(c *Client) { c.token = token } }

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		cache:   cache.NewMemoryCache(),
		ttl:     5 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Invalidate drops every cached response under collection. Clients sharing a
// cache see each other's invalidations.
func (c *Client) Invalidate(ctx context.Context, collection string) {
	_, _ = c.cache.Incr(ctx, generationKey(collection))
}

func generationKey(collection string) string { return collection + "#gen" }

// Campaigns

func (c *Client) ListCampaigns(ctx context.Context) ([]model.Campaign, error) {
	var out []model.Campaign
	err := c.cachedGet(ctx, campaignsKey, campaignsKey, &out)
	return out, err
}

func (c *Client) GetCampaign(ctx context.Context, id int) (*model.Campaign, error) {
	var out model.Campaign
	if err := c.do(ctx, http.MethodGet, campaignPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateCampaign(ctx context.Context, in model.CampaignInput) (*model.Campaign, error) {
	return c.campaignMutation(ctx, http.MethodPost, campaignsKey, in)
}

func (c *Client) UpdateCampaign(ctx context.Context, id int, patch model.CampaignPatch) (*model.Campaign, error) {
	return c.campaignMutation(ctx, http.MethodPatch, campaignPath(id), patch)
}

func (c *Client) ToggleCampaign(ctx context.Context, id int) (*model.Campaign, error) {
	return c.campaignMutation(ctx, http.MethodPost, campaignPath(id)+"/toggle", nil)
}

func (c *Client) DuplicateCampaign(ctx context.Context, id int) (*model.Campaign, error) {
	return c.campaignMutation(ctx, http.MethodPost, campaignPath(id)+"/duplicate", nil)
}

func (c *Client) DeleteCampaign(ctx context.Context, id int) error {
	err := c.do(ctx, http.MethodDelete, campaignPath(id), nil, nil)
	if err == nil {
		c.Invalidate(ctx, campaignsKey)
	}
	return err
}

// Preview is the rendered script for one audience contact.
type Preview struct {
	RenderedScript string  `json:"renderedScript"`
	OverrideScript *string `json:"overrideScript"`
	ContactID      int     `json:"contactId"`
}

func (c *Client) PreviewCampaign(ctx context.Context, id, contactID int, overrideScript *string) (*Preview, error) {
	body := map[string]any{"contactId": contactID, "overrideScript": overrideScript}
	var out Preview
	if err := c.do(ctx, http.MethodPost, campaignPath(id)+"/preview", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CampaignStats is a campaign plus its call outcome counts.
type CampaignStats struct {
	model.Campaign
	Stats map[string]int `json:"stats"`
}

func (c *Client) CampaignStats(ctx context.Context, id int) (*CampaignStats, error) {
	var out CampaignStats
	if err := c.do(ctx, http.MethodGet, campaignPath(id)+"/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) campaignMutation(ctx context.Context, method, path string, body any) (*model.Campaign, error) {
	var out model.Campaign
	if err := c.do(ctx, method, path, body, &out); err != nil {
		return nil, err
	}
	c.Invalidate(ctx, campaignsKey)
	return &out, nil
}

// Call history

// ListCallHistory lists every record, or only those for contactEmail when it
// is non-empty.
func (c *Client) ListCallHistory(ctx context.Context, contactEmail string) ([]model.CallHistory, error) {
	path := callHistoryKey
	if contactEmail != "" {
		path += "?" + url.Values{"contactEmail": {contactEmail}}.Encode()
	}
	var out []model.CallHistory
	err := c.cachedGet(ctx, callHistoryKey, path, &out)
	return out, err
}

func (c *Client) ListCallHistoryByCampaign(ctx context.Context, campaignID int) ([]model.CallHistory, error) {
	var out []model.CallHistory
	err := c.cachedGet(ctx, callHistoryKey, callHistoryKey+"/campaign/"+strconv.Itoa(campaignID), &out)
	return out, err
}

func (c *Client) GetCallHistory(ctx context.Context, id int) (*model.CallHistory, error) {
	var out model.CallHistory
	if err := c.do(ctx, http.MethodGet, callHistoryKey+"/"+strconv.Itoa(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateCallHistory(ctx context.Context, in model.CallHistoryInput) (*model.CallHistory, error) {
	var out model.CallHistory
	if err := c.do(ctx, http.MethodPost, callHistoryKey, in, &out); err != nil {
		return nil, err
	}
	c.Invalidate(ctx, callHistoryKey)
	return &out, nil
}

func (c *Client) UpdateCallStatus(ctx context.Context, id int, status string) (*model.CallHistory, error) {
	var out model.CallHistory
	path := callHistoryKey + "/" + strconv.Itoa(id) + "/status"
	if err := c.do(ctx, http.MethodPatch, path, model.CallStatusUpdate{Status: status}, &out); err != nil {
		return nil, err
	}
	c.Invalidate(ctx, callHistoryKey)
	return &out, nil
}

// Auth and lookups

// Session is the login response. Login stores the token on the client.
type Session struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	var out Session
	body := model.LoginRequest{Username: username, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

func (c *Client) Voices(ctx context.Context) ([]string, error) {
	var out []string
	err := c.do(ctx, http.MethodGet, "/api/voices", nil, &out)
	return out, err
}

func (c *Client) SearchAudience(ctx context.Context, query string) ([]model.Contact, error) {
	var out []model.Contact
	path := "/api/audience?" + url.Values{"q": {query}}.Encode()
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// cachedGet keys entries by the collection's generation read before the
// request, so a response that raced with an Invalidate is never served.
func (c *Client) cachedGet(ctx context.Context, collection, path string, out any) error {
	gen, genErr := cache.Generation(ctx, c.cache, generationKey(collection))
	key := collection + "#" + strconv.FormatInt(gen, 10) + ":" + path
	if genErr == nil {
		if raw, ok, err := c.cache.Get(ctx, key); err == nil && ok {
			if json.Unmarshal(raw, out) == nil {
				return nil
			}
		}
	}

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if genErr == nil {
		_ = c.cache.Set(ctx, key, raw, c.ttl)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Method: method, Path: path}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(data, apiErr) != nil {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func campaignPath(id int) string { return campaignsKey + "/" + strconv.Itoa(id) }

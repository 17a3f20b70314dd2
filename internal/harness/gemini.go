package harness

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

const (
	DefaultGeminiModel = "gemini-2.0-flash"
	maxOutputTokens    = 100
	temperature        = 0.7
)

// GeminiModel is a ChatModel backed by the Gemini API.
type GeminiModel struct {
	client *genai.Client
	model  string
}

// NewGeminiModel returns ErrMissingCredentials when apiKey is empty.
func NewGeminiModel(ctx context.Context, apiKey, model string) (*GeminiModel, error) {
	if apiKey == "" {
		return nil, ErrMissingCredentials
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiModel{client: client, model: model}, nil
}

func (m *GeminiModel) StartChat(ctx context.Context, systemPrompt string) (Chat, error) {
	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: maxOutputTokens,
		Temperature:     genai.Ptr[float32](temperature),
	}
	if systemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}
	chat, err := m.client.Chats.Create(ctx, m.model, cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("start gemini chat: %w", err)
	}
	return &geminiChat{chat: chat}, nil
}

type geminiChat struct {
	chat *genai.Chat
}

func (c *geminiChat) Send(ctx context.Context, text string) (string, error) {
	resp, err := c.chat.SendMessage(ctx, genai.Part{Text: text})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

var _ ChatModel = (*GeminiModel)(nil)

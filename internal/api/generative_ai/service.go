package generativeAI

import (
	"context"
	"errors"
	"fmt"
	"os"

	"google.golang.org/genai"
)

const (
	defaultGeminiModel = "gemini-2.0-flash"
	defaultTopP        = float32(0.95)
)

// Generator is the reasoning component every pipeline stage depends on.
// The concrete model behind it is swappable through config (llm.provider).
type Generator interface {
	// GenerateResponse returns the model's free-text answer for one prompt.
	GenerateResponse(ctx context.Context, prompt string, temperature float32) (string, error)
	// GenerateJSONResponse asks the model for a JSON-only answer.
	GenerateJSONResponse(ctx context.Context, prompt string, temperature float32) (string, error)
	// StartSession opens a multi-turn exchange that keeps conversation
	// history, used by the plan/repair loop.
	StartSession(ctx context.Context, temperature float32) (Session, error)
}

// Session is one ongoing exchange with the reasoning component.
type Session interface {
	Send(ctx context.Context, message string) (string, error)
}

// AIClient talks to the Gemini API.
type AIClient struct {
	client *genai.Client
	model  string
}

var _ Generator = (*AIClient)(nil)

// NewAIClient builds the Gemini client from GOOGLE_GEMINI_API_KEY. An empty
// model selects the default.
func NewAIClient(ctx context.Context, model string) (*AIClient, error) {
	apiKey := os.Getenv("GOOGLE_GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("GOOGLE_GEMINI_API_KEY environment variable is not set")
	}
	if model == "" {
		model = defaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &AIClient{
		client: client,
		model:  model,
	}, nil
}

func (ai *AIClient) GenerateResponse(ctx context.Context, prompt string, temperature float32) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](temperature),
		TopP:        genai.Ptr[float32](defaultTopP),
	}
	return ai.generate(ctx, prompt, config)
}

func (ai *AIClient) GenerateJSONResponse(ctx context.Context, prompt string, temperature float32) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](temperature),
		TopP:             genai.Ptr[float32](defaultTopP),
		ResponseMIMEType: "application/json",
	}
	return ai.generate(ctx, prompt, config)
}

func (ai *AIClient) generate(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	result, err := ai.client.Models.GenerateContent(ctx, ai.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	text := result.Text()
	if text == "" {
		return "", errors.New("gemini returned no candidate text")
	}
	return text, nil
}

func (ai *AIClient) StartSession(ctx context.Context, temperature float32) (Session, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](temperature),
		TopP:        genai.Ptr[float32](defaultTopP),
	}
	chat, err := ai.client.Chats.Create(ctx, ai.model, config, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini chat: %w", err)
	}
	return &ChatSession{chat: chat}, nil
}

// ChatSession wraps a Gemini chat; history lives server-side in the SDK.
type ChatSession struct {
	chat *genai.Chat
}

func (cs *ChatSession) Send(ctx context.Context, message string) (string, error) {
	result, err := cs.chat.SendMessage(ctx, genai.Part{Text: message})
	if err != nil {
		return "", fmt.Errorf("gemini chat send: %w", err)
	}
	text := result.Text()
	if text == "" {
		return "", errors.New("gemini returned no candidate text")
	}
	return text, nil
}

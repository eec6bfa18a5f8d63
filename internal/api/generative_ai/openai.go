package generativeAI

import (
	"context"
	"errors"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = openai.GPT4oMini

// OpenAIClient is the alternative Generator, selected with
// llm.provider=openai. Same contract as the Gemini client.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

var _ Generator = (*OpenAIClient)(nil)

// NewOpenAIClient builds the OpenAI client from OPENAI_API_KEY.
func NewOpenAIClient(model string) (*OpenAIClient, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable is not set")
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIClient{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

func (oc *OpenAIClient) GenerateResponse(ctx context.Context, prompt string, temperature float32) (string, error) {
	return oc.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}, temperature, nil)
}

func (oc *OpenAIClient) GenerateJSONResponse(ctx context.Context, prompt string, temperature float32) (string, error) {
	format := &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONObject,
	}
	return oc.complete(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}, temperature, format)
}

func (oc *OpenAIClient) StartSession(_ context.Context, temperature float32) (Session, error) {
	return &openAISession{client: oc, temperature: temperature}, nil
}

func (oc *OpenAIClient) complete(ctx context.Context, messages []openai.ChatCompletionMessage, temperature float32, format *openai.ChatCompletionResponseFormat) (string, error) {
	resp, err := oc.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:          oc.model,
		Messages:       messages,
		Temperature:    temperature,
		ResponseFormat: format,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errors.New("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// openAISession keeps the running message history client-side; the chat
// completion API is stateless.
type openAISession struct {
	client      *OpenAIClient
	temperature float32
	messages    []openai.ChatCompletionMessage
}

func (s *openAISession) Send(ctx context.Context, message string) (string, error) {
	s.messages = append(s.messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})
	reply, err := s.client.complete(ctx, s.messages, s.temperature, nil)
	if err != nil {
		// Keep history consistent with what the model actually saw.
		s.messages = s.messages[:len(s.messages)-1]
		return "", err
	}
	s.messages = append(s.messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleAssistant,
		Content: reply,
	})
	return reply, nil
}

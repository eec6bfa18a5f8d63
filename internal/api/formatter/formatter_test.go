package formatter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	generativeAI "github.com/FACorreiaa/go-travel-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/go-travel-planner/internal/prompts"
	"github.com/FACorreiaa/go-travel-planner/internal/types"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) GenerateResponse(ctx context.Context, prompt string, temperature float32) (string, error) {
	args := m.Called(ctx, prompt, temperature)
	return args.String(0), args.Error(1)
}

func (m *mockGenerator) GenerateJSONResponse(ctx context.Context, prompt string, temperature float32) (string, error) {
	args := m.Called(ctx, prompt, temperature)
	return args.String(0), args.Error(1)
}

func (m *mockGenerator) StartSession(ctx context.Context, temperature float32) (generativeAI.Session, error) {
	args := m.Called(ctx, temperature)
	if s, ok := args.Get(0).(generativeAI.Session); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func setupNormalizerTest(t *testing.T, maxAttempts int) (*Normalizer, *mockGenerator) {
	t.Helper()
	store, err := prompts.Load()
	require.NoError(t, err)
	gen := new(mockGenerator)
	logger := slog.New(slog.NewTextHandler(&strings.Builder{}, nil))
	return New(gen, store, logger, maxAttempts, 0.2), gen
}

func greetingSchema() Schema {
	return Schema{
		Name:  "greeting",
		Shape: `{"greeting": "<text>"}`,
		Check: func(data []byte) error {
			var out struct {
				Greeting string `json:"greeting"`
			}
			if err := json.Unmarshal(data, &out); err != nil {
				return err
			}
			if out.Greeting == "" {
				return errors.New("greeting must not be empty")
			}
			return nil
		},
	}
}

func TestNormalizer_Normalize(t *testing.T) {
	ctx := context.Background()

	t.Run("already valid JSON is returned unchanged without a model call", func(t *testing.T) {
		normalizer, gen := setupNormalizerTest(t, 2)
		input := `{"greeting": "hello"}`

		out, err := normalizer.Normalize(ctx, input, greetingSchema())

		require.NoError(t, err)
		assert.Equal(t, input, string(out))
		gen.AssertNotCalled(t, "GenerateJSONResponse", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("fenced JSON is cleaned without a model call", func(t *testing.T) {
		normalizer, gen := setupNormalizerTest(t, 2)
		input := "```json\n{\"greeting\": \"hello\"}\n```"

		out, err := normalizer.Normalize(ctx, input, greetingSchema())

		require.NoError(t, err)
		assert.JSONEq(t, `{"greeting": "hello"}`, string(out))
		gen.AssertNotCalled(t, "GenerateJSONResponse", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("prose triggers one repair round", func(t *testing.T) {
		normalizer, gen := setupNormalizerTest(t, 2)
		gen.On("GenerateJSONResponse", mock.Anything, mock.MatchedBy(func(p string) bool {
			return strings.Contains(p, "JSON only") && strings.Contains(p, `{"greeting": "<text>"}`)
		}), float32(0.2)).Return(`{"greeting": "hi"}`, nil).Once()

		out, err := normalizer.Normalize(ctx, "Sure! The greeting you asked for is hi.", greetingSchema())

		require.NoError(t, err)
		assert.JSONEq(t, `{"greeting": "hi"}`, string(out))
		gen.AssertExpectations(t)
	})

	t.Run("constraint violation triggers repair", func(t *testing.T) {
		normalizer, gen := setupNormalizerTest(t, 2)
		gen.On("GenerateJSONResponse", mock.Anything, mock.Anything, mock.Anything).
			Return(`{"greeting": "fixed"}`, nil).Once()

		out, err := normalizer.Normalize(ctx, `{"greeting": ""}`, greetingSchema())

		require.NoError(t, err)
		assert.JSONEq(t, `{"greeting": "fixed"}`, string(out))
		gen.AssertExpectations(t)
	})

	t.Run("format error after attempts exhausted", func(t *testing.T) {
		normalizer, gen := setupNormalizerTest(t, 3)
		gen.On("GenerateJSONResponse", mock.Anything, mock.Anything, mock.Anything).
			Return("still not json", nil).Times(2)

		_, err := normalizer.Normalize(ctx, "nothing structured here", greetingSchema())

		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrFormat)
		gen.AssertExpectations(t)
	})

	t.Run("transport failure surfaces as provider error", func(t *testing.T) {
		normalizer, gen := setupNormalizerTest(t, 2)
		gen.On("GenerateJSONResponse", mock.Anything, mock.Anything, mock.Anything).
			Return("", fmt.Errorf("boom")).Once()

		_, err := normalizer.Normalize(ctx, "no json at all", greetingSchema())

		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrProvider)
		gen.AssertExpectations(t)
	})
}

func TestCleanJSON(t *testing.T) {
	t.Run("strips markdown fences", func(t *testing.T) {
		got := CleanJSON("```json\n{\"a\": 1}\n```")
		assert.Equal(t, `{"a": 1}`, got)
	})

	t.Run("extracts object from surrounding prose", func(t *testing.T) {
		got := CleanJSON(`Here you go: {"a": 1} hope that helps!`)
		assert.Equal(t, `{"a": 1}`, got)
	})

	t.Run("keeps nested braces intact", func(t *testing.T) {
		got := CleanJSON(`{"a": {"b": 2}}`)
		assert.Equal(t, `{"a": {"b": 2}}`, got)
	})

	t.Run("returns input when no object present", func(t *testing.T) {
		got := CleanJSON("no braces here")
		assert.Equal(t, "no braces here", got)
	})
}

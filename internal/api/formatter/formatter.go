// Package formatter turns free-text or semi-structured reasoning-component
// output into schema-conformant JSON, repairing through bounded re-asks.
package formatter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	generativeAI "github.com/FACorreiaa/go-travel-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/go-travel-planner/internal/prompts"
	"github.com/FACorreiaa/go-travel-planner/internal/types"
)

const defaultMaxAttempts = 2

// Schema describes one normalization target.
type Schema struct {
	// Name identifies the schema in logs and error messages.
	Name string
	// Shape is the JSON skeleton restated to the model on repair.
	Shape string
	// Check enforces structural constraints beyond "parses as JSON".
	// It receives the cleaned candidate document.
	Check func(data []byte) error
}

// Normalizer is shared by every pipeline stage that consumes model output.
type Normalizer struct {
	generator   generativeAI.Generator
	store       *prompts.Store
	logger      *slog.Logger
	maxAttempts int
	temperature float32
}

// New builds a Normalizer. maxAttempts counts total parse attempts: the
// initial one plus the bounded reasoning-component repair rounds; values
// below 1 fall back to the default of 2.
func New(generator generativeAI.Generator, store *prompts.Store, logger *slog.Logger, maxAttempts int, temperature float32) *Normalizer {
	if maxAttempts < 1 {
		maxAttempts = defaultMaxAttempts
	}
	return &Normalizer{
		generator:   generator,
		store:       store,
		logger:      logger,
		maxAttempts: maxAttempts,
		temperature: temperature,
	}
}

// Normalize returns content as schema-conformant JSON bytes. Content that
// already satisfies the schema is returned as-is without a model call.
// On parse or constraint failure the model is re-asked with the schema
// restated and a JSON-only instruction, up to the attempt cap; exhaustion
// yields types.ErrFormat, never a partial document.
func (n *Normalizer) Normalize(ctx context.Context, content string, schema Schema) ([]byte, error) {
	ctx, span := otel.Tracer("Normalizer").Start(ctx, "Normalize")
	defer span.End()
	span.SetAttributes(attribute.String("app.schema.name", schema.Name))

	l := n.logger.With(slog.String("schema", schema.Name))

	var lastErr error
	current := content
	for attempt := 1; attempt <= n.maxAttempts; attempt++ {
		cleaned := CleanJSON(current)
		err := checkCandidate(cleaned, schema)
		if err == nil {
			span.SetStatus(codes.Ok, "normalized")
			span.SetAttributes(attribute.Int("app.normalizer.attempts", attempt))
			return []byte(cleaned), nil
		}
		lastErr = err
		l.DebugContext(ctx, "Candidate rejected", slog.Int("attempt", attempt), slog.Any("error", err))

		if attempt == n.maxAttempts {
			break
		}

		prompt, err := n.store.Render(prompts.JSONReformat, map[string]string{
			"schema":   schema.Shape,
			"raw_data": current,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "prompt render failed")
			return nil, err
		}
		reply, err := n.generator.GenerateJSONResponse(ctx, prompt, n.temperature)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "reformat call failed")
			return nil, fmt.Errorf("%w: reformat of %s: %v", types.ErrProvider, schema.Name, err)
		}
		l.InfoContext(ctx, "Requested JSON repair from reasoning component", slog.Int("attempt", attempt))
		current = reply
	}

	span.SetStatus(codes.Error, "attempts exhausted")
	return nil, fmt.Errorf("%w: %s still invalid after %d attempts: %v", types.ErrFormat, schema.Name, n.maxAttempts, lastErr)
}

func checkCandidate(cleaned string, schema Schema) error {
	if !strings.HasPrefix(cleaned, "{") {
		return errors.New("no JSON object found in content")
	}
	data := []byte(cleaned)
	if !json.Valid(data) {
		return errors.New("content is not valid JSON")
	}
	if schema.Check != nil {
		return schema.Check(data)
	}
	return nil
}

// CleanJSON strips markdown fences and surrounding prose, keeping the first
// '{' through the matching last '}'.
func CleanJSON(response string) string {
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "```json") {
		response = strings.TrimPrefix(response, "```json")
	} else if strings.HasPrefix(response, "```") {
		response = strings.TrimPrefix(response, "```")
	}
	if strings.HasSuffix(response, "```") {
		response = strings.TrimSuffix(response, "```")
	}
	response = strings.TrimSpace(response)

	firstBrace := strings.Index(response, "{")
	if firstBrace == -1 {
		return response
	}
	lastBrace := strings.LastIndex(response, "}")
	if lastBrace == -1 || lastBrace <= firstBrace {
		return response
	}
	return response[firstBrace : lastBrace+1]
}

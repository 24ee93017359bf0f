// Package openai implements the LLM-backed feature extractor over the
// OpenAI-compatible chat API (works with Nebius and similar providers).
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/inferd/internal/domain"
)

// FieldSource exposes the feature names the extractor may emit. Read at
// call time so the prompt always reflects the live schema.
type FieldSource interface {
	FeatureNames() []string
}

// Extractor asks a chat model to turn free text into a feature map.
type Extractor struct {
	client *openai.Client
	model  string
	fields FieldSource
	logger *zap.Logger
}

// Config holds the extraction provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Fields  FieldSource
	Logger  *zap.Logger
}

// NewExtractor creates an OpenAI-compatible feature extractor.
func NewExtractor(cfg *Config) *Extractor {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &Extractor{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		fields: cfg.Fields,
		logger: cfg.Logger,
	}
}

const systemPrompt = `You extract structured features from a short description of a student.
Return a single JSON object. Use only these keys: %s.
Include a key only when the text states or clearly implies its value.
Numeric fields must be JSON numbers. Do not invent values.`

// Extract requests a feature map for the text. Keys outside the known
// schema are dropped; an empty text or empty extraction yields an empty row.
func (e *Extractor) Extract(ctx context.Context, text string) (domain.FeatureRow, error) {
	names := e.fields.FeatureNames()

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(systemPrompt, strings.Join(names, ", ")),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
	})
	if err != nil {
		return nil, parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("empty completion response")
	}

	var raw map[string]any
	content := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("decode extraction: %w", err)
	}

	known := make(map[string]struct{}, len(names))
	for _, name := range names {
		known[name] = struct{}{}
	}

	row := domain.FeatureRow{}
	for name, value := range raw {
		if _, ok := known[name]; !ok {
			e.logger.Debug("dropping unknown extracted field",
				zap.String("field", name),
			)
			continue
		}
		row[name] = value
	}
	return row, nil
}

// Ping verifies API availability via ListModels (free endpoint).
func (e *Extractor) Ping(ctx context.Context) error {
	if _, err := e.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// parseAPIError extracts a human-readable error from the API response.
func parseAPIError(err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("extraction API error %d: %s",
			reqErr.HTTPStatusCode, string(reqErr.Body))
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("extraction API error %d: %s",
			apiErr.HTTPStatusCode, apiErr.Message)
	}

	return fmt.Errorf("extraction request failed: %w", err)
}

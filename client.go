// Package inferd is a small HTTP client for the inferd prediction API.
package inferd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Client is the inferd SDK entry point.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for an inferd server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("inferd: base URL required")
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// Field describes one input column of the model.
type Field struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"` // "number" or "select"
	Options []string `json:"options,omitempty"`
}

// Schema is the model's input description.
type Schema struct {
	Fields []Field `json:"fields"`
	Note   string  `json:"note"`
}

// PredictResult is the outcome of a prediction request.
type PredictResult struct {
	Prediction   any                `json:"prediction"`
	Proba        map[string]float64 `json:"proba,omitempty"`
	UsedFeatures []string           `json:"used_features"`
	ModelName    string             `json:"model_name"`
	Message      string             `json:"message"`
}

// ParseResult is the outcome of a free-text parse request.
type ParseResult struct {
	Features map[string]any `json:"features"`
	Message  string         `json:"message"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("inferd: API error %d: %s", e.StatusCode, e.Detail)
}

// Schema fetches the model's input schema.
func (c *Client) Schema(ctx context.Context) (Schema, error) {
	var out Schema
	if err := c.do(ctx, http.MethodGet, "/api/schema", nil, &out); err != nil {
		return Schema{}, err
	}
	return out, nil
}

// Predict runs a single-row prediction over the given feature values.
func (c *Client) Predict(ctx context.Context, features map[string]any) (PredictResult, error) {
	body := map[string]any{"features": features}
	var out PredictResult
	if err := c.do(ctx, http.MethodPost, "/api/predict", body, &out); err != nil {
		return PredictResult{}, err
	}
	return out, nil
}

// ParseText extracts a feature map from a free-text description.
func (c *Client) ParseText(ctx context.Context, text string) (ParseResult, error) {
	body := map[string]string{"text": text}
	var out ParseResult
	if err := c.do(ctx, http.MethodPost, "/api/parse_text", body, &out); err != nil {
		return ParseResult{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("inferd: encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("inferd: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("inferd: %s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("inferd: decode response: %w", err)
	}
	return nil
}

func parseAPIError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(data, &parsed) == nil && parsed.Detail != "" {
		return &APIError{StatusCode: resp.StatusCode, Detail: parsed.Detail}
	}
	return &APIError{StatusCode: resp.StatusCode, Detail: strings.TrimSpace(string(data))}
}

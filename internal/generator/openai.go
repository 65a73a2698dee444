package generator

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

// ProviderConfig describes one OpenAI-compatible chat completions endpoint.
type ProviderConfig struct {
	Name    string
	APIURL  string // full chat completions URL
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Client calls one OpenAI-compatible provider.
type Client struct {
	name   string
	apiURL string
	apiKey string
	model  string
	client *http.Client
}

func NewClient(cfg ProviderConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		name:   cfg.Name,
		apiURL: strings.TrimSpace(cfg.APIURL),
		apiKey: strings.TrimSpace(cfg.APIKey),
		model:  strings.TrimSpace(cfg.Model),
		client: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Name() string {
	return c.name
}

// Generate asks the provider for req.Count hooks and normalizes the answer.
func (c *Client) Generate(ctx context.Context, req Request) ([]Hook, error) {
	content, err := c.complete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrGenerationFailed, c.name, err)
	}
	hooks, err := Normalize(content, req.Style, req.Count)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrGenerationFailed, c.name, err)
	}
	return hooks, nil
}

type llmMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type llmResponseFormat struct {
	Type string `json:"type"`
}

type llmRequest struct {
	Model          string             `json:"model"`
	Messages       []llmMessage       `json:"messages"`
	ResponseFormat *llmResponseFormat `json:"response_format,omitempty"`
	Temperature    float64            `json:"temperature"`
	MaxTokens      int                `json:"max_tokens"`
}

type llmResponse struct {
	Choices []struct {
		Message llmMessage `json:"message"`
	} `json:"choices"`
}

type llmErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) complete(ctx context.Context, req Request) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("API key not configured")
	}

	reqBody, err := json.Marshal(llmRequest{
		Model: c.model,
		Messages: []llmMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildUserPrompt(req)},
		},
		ResponseFormat: &llmResponseFormat{Type: "json_object"},
		Temperature:    0.9,
		MaxTokens:      1000,
	})
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(reqBody))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	if resp.StatusCode != http.StatusOK {
		var errResp llmErrorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
			return "", fmt.Errorf("API returned %d: %s", resp.StatusCode, errResp.Error.Message)
		}
		return "", fmt.Errorf("API returned %d", resp.StatusCode)
	}

	var llmResp llmResponse
	if err := json.Unmarshal(body, &llmResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(llmResp.Choices) == 0 {
		return "", fmt.Errorf("empty response from API")
	}
	return llmResp.Choices[0].Message.Content, nil
}

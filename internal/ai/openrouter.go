package ai

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

// OpenRouterConfig holds OpenRouter client settings.
type OpenRouterConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	SiteURL      string
	SiteName     string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// DefaultOpenRouterConfig returns defaults for everything but the key.
func DefaultOpenRouterConfig(apiKey string) OpenRouterConfig {
	return OpenRouterConfig{
		APIKey:       apiKey,
		BaseURL:      "https://openrouter.ai/api/v1",
		Model:        "meta-llama/llama-3.3-70b-instruct",
		SiteName:     "FitCoach",
		Timeout:      60 * time.Second,
		MaxRetries:   2,
		RetryBackoff: time.Second,
	}
}

type openRouterMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openRouterResponseFormat struct {
	Type string `json:"type"`
}

type openRouterRequest struct {
	Model          string                    `json:"model"`
	Messages       []openRouterMessage       `json:"messages"`
	Temperature    float64                   `json:"temperature"`
	MaxTokens      int                       `json:"max_tokens,omitempty"`
	ResponseFormat *openRouterResponseFormat `json:"response_format,omitempty"`
}

type openRouterResponse struct {
	Choices []struct {
		Message openRouterMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// OpenRouterClient generates JSON through OpenRouter's chat completions endpoint.
type OpenRouterClient struct {
	cfg        OpenRouterConfig
	httpClient *http.Client
}

// NewOpenRouterClient creates an OpenRouter generator. Zero config fields take defaults.
func NewOpenRouterClient(cfg OpenRouterConfig) (*OpenRouterClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	def := DefaultOpenRouterConfig(cfg.APIKey)
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.SiteName == "" {
		cfg.SiteName = def.SiteName
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = def.RetryBackoff
	}
	return &OpenRouterClient{cfg: cfg, httpClient: &http.Client{Timeout: cfg.Timeout}}, nil
}

func (c *OpenRouterClient) Name() string { return "openrouter" }

// GenerateJSON sends one chat completion request. 429 responses are retried with
// exponential backoff and reported as ErrQuotaExceeded once retries run out.
func (c *OpenRouterClient) GenerateJSON(ctx context.Context, system, prompt string) (string, error) {
	var messages []openRouterMessage
	if system != "" {
		messages = append(messages, openRouterMessage{Role: "system", Content: system})
	}
	messages = append(messages, openRouterMessage{Role: "user", Content: prompt})

	payload, err := json.Marshal(openRouterRequest{
		Model:          c.cfg.Model,
		Messages:       messages,
		Temperature:    0.4,
		MaxTokens:      4096,
		ResponseFormat: &openRouterResponseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(c.cfg.RetryBackoff * time.Duration(1<<uint(attempt-1))):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return "", fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		if c.cfg.SiteURL != "" {
			req.Header.Set("HTTP-Referer", c.cfg.SiteURL)
		}
		req.Header.Set("X-Title", c.cfg.SiteName)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return "", fmt.Errorf("openrouter request failed: %w", err)
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		resp.Body.Close()
		if err != nil {
			return "", fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("%w: openrouter: %s", ErrQuotaExceeded, strings.TrimSpace(string(body)))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("openrouter request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}

		var orResp openRouterResponse
		if err := json.Unmarshal(body, &orResp); err != nil {
			return "", fmt.Errorf("failed to parse response: %w", err)
		}
		if orResp.Error != nil {
			if orResp.Error.Code == http.StatusTooManyRequests {
				lastErr = fmt.Errorf("%w: openrouter: %s", ErrQuotaExceeded, orResp.Error.Message)
				continue
			}
			return "", fmt.Errorf("openrouter API error: %s", orResp.Error.Message)
		}
		if len(orResp.Choices) == 0 {
			return "", ErrEmptyResponse
		}

		content := strings.TrimSpace(orResp.Choices[0].Message.Content)
		if content == "" {
			return "", ErrEmptyResponse
		}
		return content, nil
	}

	return "", lastErr
}

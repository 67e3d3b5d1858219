package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultAPIURL = "https://openrouter.ai/api/v1/chat/completions"
	DefaultModel  = "meta-llama/llama-3.1-8b-instruct:free"

	defaultTemperature = 0.7
	defaultMaxTokens   = 800
	maxErrorBodyRunes  = 180
)

var (
	ErrMissingAPIKey = errors.New("summarization API key not configured")
	ErrQuotaExceeded = errors.New("summarization quota exceeded")
	ErrEmptyContent  = errors.New("summarization returned no content")
)

// StatusError is returned for non-success responses other than 402.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("summarization API status %d: %s", e.Status, e.Message)
}

// ClientConfig configures an OpenRouter-compatible chat-completions client.
type ClientConfig struct {
	APIURL      string
	APIKey      string
	Model       string
	Referer     string
	Title       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type errorBody struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaultTemperature
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaultMaxTokens
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Complete sends the system instruction and prompt and returns the trimmed
// text of the first choice.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return "", ErrMissingAPIKey
	}

	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if c.cfg.Referer != "" {
		req.Header.Set("HTTP-Referer", c.cfg.Referer)
	}
	if c.cfg.Title != "" {
		req.Header.Set("X-Title", c.cfg.Title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call summarization API: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusPaymentRequired {
		return "", ErrQuotaExceeded
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{Status: resp.StatusCode, Message: extractErrorMessage(raw)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", ErrEmptyContent
	}
	if len(parsed.Choices) == 0 {
		return "", ErrEmptyContent
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyContent
	}
	return content, nil
}

// extractErrorMessage prefers error.message from a JSON body and falls back
// to the raw body cut to maxErrorBodyRunes. It returns "" for an empty body.
func extractErrorMessage(raw []byte) string {
	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err == nil {
		if msg := strings.TrimSpace(eb.Error.Message); msg != "" {
			return msg
		}
	}
	text := []rune(strings.TrimSpace(string(raw)))
	if len(text) > maxErrorBodyRunes {
		text = text[:maxErrorBodyRunes]
	}
	return string(text)
}

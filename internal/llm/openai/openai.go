// Package openai implements the completion client against any
// OpenAI-compatible chat completions endpoint, including Ollama.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"brdgen/internal/llm"
)

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// Config configures the chat completions client. APIKeyEnv names the
// environment variable holding the key; local endpoints may leave it
// unset.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Timeout   time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 120 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  os.Getenv(cfg.APIKeyEnv),
		client:  &http.Client{Timeout: t},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model             string        `json:"model"`
	Messages          []chatMessage `json:"messages"`
	Temperature       float64       `json:"temperature"`
	TopK              int           `json:"top_k,omitempty"`
	RepetitionPenalty float64       `json:"repeat_penalty,omitempty"`
	MaxTokens         int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete submits the message sequence as one chat completion request
// and returns the response text.
func (c *Client) Complete(ctx context.Context, messages []llm.Message, cfg llm.SamplingConfig) (string, error) {
	if cfg.Model == "" {
		return "", errors.New("completion model is required")
	}
	body := chatRequest{
		Model:             cfg.Model,
		Temperature:       cfg.Temperature,
		TopK:              cfg.TopK,
		RepetitionPenalty: cfg.RepetitionPenalty,
		MaxTokens:         cfg.MaxNewTokens,
	}
	for _, m := range messages {
		body.Messages = append(body.Messages, chatMessage{Role: m.Role, Content: m.Content})
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("chat completion failed: %s: %s", resp.Status, truncate(string(payload), 200))
	}
	var out chatResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return "", fmt.Errorf("chat completion response unreadable: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("chat completion failed: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("chat completion returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Package gemini implements the Embedder interface on top of the
// Google GenAI API.
package gemini

import (
	"context"
	"errors"
	"os"

	"google.golang.org/genai"
)

// Client embeds text with a Gemini embedding model.
type Client struct {
	client *genai.Client
	model  string
}

// Config configures the Gemini embedder. APIKeyEnv names the
// environment variable holding the API key.
type Config struct {
	APIKeyEnv string
	Model     string
}

func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, errors.New("missing Gemini API key in env " + cfg.APIKeyEnv)
	}
	model := cfg.Model
	if model == "" {
		model = "gemini-embedding-001"
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &Client{client: client, model: model}, nil
}

func (c *Client) ModelName() string { return c.model }

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.Models.EmbedContent(
		ctx,
		c.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: text}}}},
		&genai.EmbedContentConfig{TaskType: "SEMANTIC_SIMILARITY"},
	)
	if err != nil {
		return nil, err
	}
	if len(resp.Embeddings) == 0 {
		return nil, errors.New("no embeddings returned")
	}
	return resp.Embeddings[0].Values, nil
}

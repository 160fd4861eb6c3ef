// Package gemini implements the completion client on top of the Google
// GenAI API.
package gemini

import (
	"context"
	"errors"
	"os"
	"strings"

	"google.golang.org/genai"

	"brdgen/internal/llm"
)

type Client struct {
	client *genai.Client
}

// Config configures the Gemini completion client. APIKeyEnv names the
// environment variable holding the API key.
type Config struct {
	APIKeyEnv string
}

func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, errors.New("missing Gemini API key in env " + cfg.APIKeyEnv)
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &Client{client: client}, nil
}

// Complete submits the message sequence as one generation request.
// System messages become the system instruction; repetition penalty has
// no Gemini equivalent and is ignored.
func (c *Client) Complete(ctx context.Context, messages []llm.Message, cfg llm.SamplingConfig) (string, error) {
	var system []string
	var contents []*genai.Content
	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			system = append(system, m.Content)
		case llm.RoleAssistant:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleModel,
				Parts: []*genai.Part{{Text: m.Content}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  genai.RoleUser,
				Parts: []*genai.Part{{Text: m.Content}},
			})
		}
	}

	config := &genai.GenerateContentConfig{}
	if cfg.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(cfg.Temperature))
	}
	if cfg.TopK > 0 {
		config.TopK = genai.Ptr(float32(cfg.TopK))
	}
	if cfg.MaxNewTokens > 0 {
		config.MaxOutputTokens = int32(cfg.MaxNewTokens)
	}
	if len(system) > 0 {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: strings.Join(system, "\n")}},
		}
	}

	resp, err := c.client.Models.GenerateContent(ctx, cfg.Model, contents, config)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}

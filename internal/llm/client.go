// Package llm abstracts the external text completion service behind a
// narrow interface consumed by the generation agents.
package llm

import (
	"context"
	"fmt"
	"time"

	"brdgen/internal/domain"
)

// Message roles mirror the chat completion convention.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a completion request.
type Message struct {
	Role    string
	Content string
}

// UserMessage builds a single-turn request from a prompt.
func UserMessage(prompt string) []Message {
	return []Message{{Role: RoleUser, Content: prompt}}
}

// SamplingConfig carries the generation parameters passed with every
// completion request. Backends ignore parameters they do not support.
type SamplingConfig struct {
	Model             string
	Temperature       float64
	TopK              int
	RepetitionPenalty float64
	MaxNewTokens      int
}

// Client is the completion service contract. Each call is a blocking
// network request; implementations honor ctx cancellation and apply a
// bounded timeout.
type Client interface {
	Complete(ctx context.Context, messages []Message, cfg SamplingConfig) (string, error)
}

// WithRetry wraps a client with bounded retries and exponential
// backoff. Exhausted retries wrap domain.ErrGenerationService.
func WithRetry(c Client, maxRetries int) Client {
	if maxRetries <= 0 {
		return c
	}
	return &retryClient{next: c, maxRetries: maxRetries}
}

type retryClient struct {
	next       Client
	maxRetries int
}

func (r *retryClient) Complete(ctx context.Context, messages []Message, cfg SamplingConfig) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(retryDelay(attempt - 1)):
			}
		}
		out, err := r.next.Complete(ctx, messages, cfg)
		if err == nil {
			return out, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("%w after %d attempts: %v", domain.ErrGenerationService, r.maxRetries+1, lastErr)
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 6 {
		attempt = 6
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 5s
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

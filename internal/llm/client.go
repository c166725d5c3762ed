// ABOUTME: OpenAI-backed oracle client for SQL generation, healing, and summarization
// ABOUTME: Wraps chat completions with bounded retries and sentinel errors
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"sqlpilot/internal/util"
)

// DefaultChatModel is the default model for chat completions
const DefaultChatModel = "gpt-4o-mini"

var (
	// ErrUnavailable means the oracle could not be reached after all retries.
	// Callers degrade: keep the old summary, report the failure as the answer.
	ErrUnavailable = errors.New("oracle unavailable")

	// ErrMalformed means the oracle answered but the response was unusable
	ErrMalformed = errors.New("oracle response malformed")
)

// Request is a single oracle call. Temperature overrides the client
// default when positive.
type Request struct {
	System      string
	User        string
	Temperature float32
}

// Client is the oracle surface the orchestrator, memory manager, and
// refinement pipeline depend on.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	APIKey      string
	ChatModel   string
	Temperature float32
	Timeout     time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
}

// DefaultConfig returns the default client configuration
func DefaultConfig(apiKey string) *ClientConfig {
	return &ClientConfig{
		APIKey:      apiKey,
		ChatModel:   DefaultChatModel,
		Temperature: 0.2,
		Timeout:     60 * time.Second,
		MaxRetries:  3,
		RetryDelay:  2 * time.Second,
	}
}

// OpenAIClient implements Client against the OpenAI chat API with retry logic
type OpenAIClient struct {
	client      *openai.Client
	chatModel   string
	temperature float32
	timeout     time.Duration
	maxRetries  int
	retryDelay  time.Duration
}

// NewOpenAIClient creates a client with the given API key and default configuration
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	return NewOpenAIClientWithConfig(DefaultConfig(apiKey))
}

// NewOpenAIClientWithConfig creates a client with custom configuration
func NewOpenAIClientWithConfig(config *ClientConfig) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	c := &OpenAIClient{
		client:      openai.NewClient(config.APIKey),
		chatModel:   config.ChatModel,
		temperature: config.Temperature,
		timeout:     config.Timeout,
		maxRetries:  config.MaxRetries,
		retryDelay:  config.RetryDelay,
	}
	if c.chatModel == "" {
		c.chatModel = DefaultChatModel
	}
	if c.timeout <= 0 {
		c.timeout = 60 * time.Second
	}
	return c, nil
}

// Complete sends one chat completion and returns the trimmed message text.
// Transport failures and empty responses are retried up to MaxRetries
// times with exponential backoff.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	temperature := c.temperature
	if req.Temperature > 0 {
		temperature = req.Temperature
	}

	messages := []openai.ChatCompletionMessage{}
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.User,
	})

	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
			case <-time.After(util.Backoff(c.retryDelay, attempt)):
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model:       c.chatModel,
			Messages:    messages,
			Temperature: temperature,
		})
		cancel()

		if err != nil {
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
			continue
		}

		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("attempt %d: no completion choices returned", attempt+1)
			continue
		}

		content := strings.TrimSpace(resp.Choices[0].Message.Content)
		if content == "" {
			lastErr = fmt.Errorf("attempt %d: empty completion", attempt+1)
			continue
		}

		return content, nil
	}

	return "", fmt.Errorf("%w: after %d attempts: %v", ErrUnavailable, c.maxRetries+1, lastErr)
}

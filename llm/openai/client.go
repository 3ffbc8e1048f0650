package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/rs/zerolog"

	"github.com/tomatyss/mailos/llm"
)

// defaultRetryAfter is used when the API rate-limits us without a usable
// retry-after hint.
const defaultRetryAfter = 60 * time.Second

// Client implements llm.Provider against the OpenAI chat completions API.
// All fields are set at construction and never mutated, so one Client may
// serve concurrent generate calls.
type Client struct {
	api    *openai.Client
	model  string
	config llm.ModelConfig
	logger zerolog.Logger
}

// New creates an OpenAI provider for the given model.
func New(apiKey, model string, config llm.ModelConfig, logger zerolog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, llm.NewConfigurationError("OpenAI API key is required")
	}
	if model == "" {
		return nil, llm.NewConfigurationError("OpenAI model is required")
	}

	return &Client{
		api:    openai.NewClient(apiKey),
		model:  model,
		config: config,
		logger: logger.With().Str("provider", "openai").Str("model", model).Logger(),
	}, nil
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return "openai"
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// MakeRequest issues one chat completion request. Rate limits are retried
// internally with bounded backoff.
func (c *Client) MakeRequest(ctx context.Context, fragment llm.RequestFragment, tools any, stream bool) (llm.RawResponse, error) {
	messages, ok := fragment.([]openai.ChatCompletionMessage)
	if !ok {
		return nil, llm.NewInvalidRequestError(fmt.Sprintf("unexpected fragment type %T", fragment), nil)
	}

	req := openai.ChatCompletionRequest{
		Model:            c.model,
		Messages:         messages,
		Temperature:      float32(c.config.Temperature),
		TopP:             float32(c.config.TopP),
		FrequencyPenalty: float32(c.config.FrequencyPenalty),
		PresencePenalty:  float32(c.config.PresencePenalty),
		Stop:             c.config.StopSequences,
	}
	if c.config.MaxTokens > 0 {
		req.MaxTokens = int(c.config.MaxTokens)
	}
	if tools != nil {
		formatted, ok := tools.([]openai.Tool)
		if !ok {
			return nil, llm.NewInvalidRequestError(fmt.Sprintf("unexpected tools type %T", tools), nil)
		}
		if len(formatted) > 0 {
			req.Tools = formatted
			req.ToolChoice = "auto"
		}
	}

	if stream {
		req.Stream = true
		return llm.WithRateLimitRetry(ctx, c.logger, func() (*openai.ChatCompletionStream, error) {
			s, err := c.api.CreateChatCompletionStream(ctx, req)
			if err != nil {
				return nil, c.convertError(err)
			}
			return s, nil
		})
	}

	return llm.WithRateLimitRetry(ctx, c.logger, func() (*openai.ChatCompletionResponse, error) {
		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err != nil {
			return nil, c.convertError(err)
		}
		return &resp, nil
	})
}

// StreamResponse wraps a streaming raw response.
func (c *Client) StreamResponse(ctx context.Context, raw llm.RawResponse) (llm.Stream, error) {
	s, ok := raw.(*openai.ChatCompletionStream)
	if !ok {
		return nil, llm.NewProviderError(fmt.Sprintf("unexpected stream type %T", raw), nil)
	}
	return newStream(s, c.model), nil
}

// convertError maps OpenAI API errors onto the unified error taxonomy.
func (c *Client) convertError(err error) error {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		if errors.Is(err, context.DeadlineExceeded) {
			return &llm.Error{
				Type:        llm.ErrorTypeTimeout,
				Message:     "request timed out",
				Retryable:   true,
				ProviderErr: err,
			}
		}
		return llm.NewProviderError("OpenAI request failed", err)
	}

	switch apiErr.HTTPStatusCode {
	case 429:
		retryAfter := defaultRetryAfter
		return llm.NewRateLimitError("OpenAI rate limit exceeded", &retryAfter, err)
	case 413:
		return llm.NewRequestTooLargeError("request exceeds OpenAI size limits", err)
	case 400:
		return llm.NewInvalidRequestError("invalid request: "+apiErr.Message, err)
	case 401, 403:
		return llm.NewConfigurationError("OpenAI authentication failed: " + apiErr.Message)
	}
	if apiErr.HTTPStatusCode >= 500 {
		return &llm.Error{
			Type:        llm.ErrorTypeProvider,
			Message:     "OpenAI server error",
			Retryable:   true,
			StatusCode:  apiErr.HTTPStatusCode,
			ProviderErr: err,
		}
	}
	return llm.NewProviderError("OpenAI request failed", err)
}

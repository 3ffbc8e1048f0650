package anthropic

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/rs/zerolog"

	"github.com/tomatyss/mailos/llm"
)

// defaultMaxTokens is used when the caller's config leaves MaxTokens unset;
// the messages API requires an explicit value.
const defaultMaxTokens = 4096

// Client implements llm.Provider against Anthropic's messages API. All
// fields are set at construction and never mutated.
type Client struct {
	client *anthropic.Client
	model  string
	config llm.ModelConfig
	logger zerolog.Logger
}

// New creates an Anthropic provider for the given model.
func New(apiKey, model string, config llm.ModelConfig, logger zerolog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, llm.NewConfigurationError("Anthropic API key is required")
	}
	if model == "" {
		return nil, llm.NewConfigurationError("Anthropic model is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Client{
		client: &client,
		model:  model,
		config: config,
		logger: logger.With().Str("provider", "anthropic").Str("model", model).Logger(),
	}, nil
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return "anthropic"
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// FormatMessages converts unified messages into the Anthropic fragment.
// The first system message's text is lifted into the dedicated system slot.
func (c *Client) FormatMessages(messages []llm.Message, _ []llm.Tool) (llm.RequestFragment, error) {
	return BuildFragment(messages, rawImageBlock)
}

// rawImageBlock base64-encodes an image content item as-is. Size and
// format constraints are left to the API.
func rawImageBlock(content llm.Content) (anthropic.ContentBlockParamUnion, error) {
	mime := content.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	encoded := base64.StdEncoding.EncodeToString(content.Data)
	return anthropic.NewImageBlockBase64(mime, encoded), nil
}

// FormatTools converts tool declarations into Anthropic tool params.
func (c *Client) FormatTools(tools []llm.Tool) any {
	return ConvertTools(tools)
}

// MakeRequest issues one messages API call. Rate limits are retried
// internally with bounded backoff.
func (c *Client) MakeRequest(ctx context.Context, fragment llm.RequestFragment, tools any, stream bool) (llm.RawResponse, error) {
	frag, ok := fragment.(*Fragment)
	if !ok {
		return nil, llm.NewInvalidRequestError(fmt.Sprintf("unexpected fragment type %T", fragment), nil)
	}

	params := c.buildParams(frag, tools)

	if stream {
		// The request is issued at construction; a failure to open the
		// stream is retried like any other request.
		return llm.WithRateLimitRetry(ctx, c.logger, func() (*ssestream.Stream[anthropic.MessageStreamEventUnion], error) {
			s := c.client.Messages.NewStreaming(ctx, params)
			if err := s.Err(); err != nil {
				return nil, ConvertError(err)
			}
			return s, nil
		})
	}

	return llm.WithRateLimitRetry(ctx, c.logger, func() (*anthropic.Message, error) {
		msg, err := c.client.Messages.New(ctx, params)
		if err != nil {
			return nil, ConvertError(err)
		}
		return msg, nil
	})
}

func (c *Client) buildParams(frag *Fragment, tools any) anthropic.MessageNewParams {
	maxTokens := c.config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: maxTokens,
		Messages:  frag.Messages,
		System:    frag.System,
	}
	if c.config.Temperature > 0 {
		params.Temperature = anthropic.Float(c.config.Temperature)
	}
	if c.config.TopP > 0 && c.config.TopP < 1.0 {
		params.TopP = anthropic.Float(c.config.TopP)
	}
	if len(c.config.StopSequences) > 0 {
		params.StopSequences = c.config.StopSequences
	}
	if tools != nil {
		if formatted, ok := tools.([]anthropic.ToolUnionParam); ok {
			params.Tools = formatted
		}
	}
	return params
}

// HasToolCalls reports whether the message requested tool execution.
func (c *Client) HasToolCalls(raw llm.RawResponse) bool {
	return HasToolUse(raw)
}

// ExtractToolCalls extracts tool invocations from the message.
func (c *Client) ExtractToolCalls(raw llm.RawResponse) []llm.ToolCall {
	return ExtractToolUse(raw)
}

// FormatToolResults extends the fragment with the assistant's turn and a
// user turn carrying the tool results.
func (c *Client) FormatToolResults(fragment llm.RequestFragment, raw llm.RawResponse, results []llm.ToolResult) (llm.RequestFragment, error) {
	return AppendToolResults(fragment, raw, results)
}

// CreateResponse converts the message into the unified response.
func (c *Client) CreateResponse(raw llm.RawResponse, toolCalls []llm.ToolCall) (*llm.Response, error) {
	return BuildResponse(raw, toolCalls)
}

// StreamResponse wraps a streaming raw response.
func (c *Client) StreamResponse(ctx context.Context, raw llm.RawResponse) (llm.Stream, error) {
	return WrapStream(ctx, raw, c.model)
}

// ConvertError maps Anthropic API errors onto the unified error taxonomy.
func ConvertError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		if errors.Is(err, context.DeadlineExceeded) {
			return &llm.Error{
				Type:        llm.ErrorTypeTimeout,
				Message:     "request timed out",
				Retryable:   true,
				ProviderErr: err,
			}
		}
		return llm.NewProviderError("Anthropic request failed", err)
	}

	switch apiErr.StatusCode {
	case 429:
		retryAfter := retryAfterFromHeader(apiErr)
		return llm.NewRateLimitError("Anthropic rate limit exceeded", retryAfter, err)
	case 413:
		return llm.NewRequestTooLargeError("request exceeds Anthropic size limits", err)
	case 400:
		return llm.NewInvalidRequestError("invalid request", err)
	case 401, 403:
		return llm.NewConfigurationError("Anthropic authentication failed")
	}
	if apiErr.StatusCode >= 500 {
		return &llm.Error{
			Type:        llm.ErrorTypeProvider,
			Message:     "Anthropic server error",
			Retryable:   true,
			StatusCode:  apiErr.StatusCode,
			ProviderErr: err,
		}
	}
	return llm.NewProviderError("Anthropic request failed", err)
}

func retryAfterFromHeader(apiErr *anthropic.Error) *time.Duration {
	if apiErr.Response == nil {
		return nil
	}
	header := apiErr.Response.Header.Get("retry-after")
	if header == "" {
		return nil
	}
	seconds, err := time.ParseDuration(header + "s")
	if err != nil || seconds <= 0 {
		return nil
	}
	return &seconds
}

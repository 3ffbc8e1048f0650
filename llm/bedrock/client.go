package bedrock

import (
	"context"
	"fmt"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/rs/zerolog"

	"github.com/tomatyss/mailos/llm"
	anthropicllm "github.com/tomatyss/mailos/llm/anthropic"
)

// DefaultRegion is used when the caller supplies no AWS region.
const DefaultRegion = "us-east-1"

const defaultMaxTokens = 4096

// Credentials holds the AWS credentials and region for Bedrock access.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	Region          string
}

// Client implements llm.Provider for Anthropic models hosted on AWS
// Bedrock. It shares the Anthropic wire conversion and adds Bedrock's
// image constraints on the input side.
type Client struct {
	client *anthropic.Client
	model  string
	config llm.ModelConfig
	logger zerolog.Logger
}

// New creates a Bedrock provider for the given model.
func New(ctx context.Context, creds Credentials, model string, config llm.ModelConfig, logger zerolog.Logger) (*Client, error) {
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return nil, llm.NewConfigurationError("AWS access key ID and secret access key are required")
	}
	if model == "" {
		return nil, llm.NewConfigurationError("Bedrock model is required")
	}

	awsCfg, err := loadAWSConfig(ctx, creds)
	if err != nil {
		return nil, llm.NewConfigurationError("failed to load AWS configuration: " + err.Error())
	}

	client := anthropic.NewClient(bedrock.WithConfig(awsCfg))
	return &Client{
		client: &client,
		model:  model,
		config: config,
		logger: logger.With().Str("provider", "bedrock-anthropic").Str("model", model).Logger(),
	}, nil
}

func loadAWSConfig(ctx context.Context, creds Credentials) (aws.Config, error) {
	region := creds.Region
	if region == "" {
		region = DefaultRegion
	}
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken)),
	)
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return "bedrock-anthropic"
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// FormatMessages converts unified messages into the Anthropic fragment,
// validating and downscaling images to Bedrock's limits.
func (c *Client) FormatMessages(messages []llm.Message, _ []llm.Tool) (llm.RequestFragment, error) {
	return anthropicllm.BuildFragment(messages, c.imageBlock)
}

// FormatTools converts tool declarations into Anthropic tool params.
func (c *Client) FormatTools(tools []llm.Tool) any {
	return anthropicllm.ConvertTools(tools)
}

// MakeRequest issues one messages API call against Bedrock.
func (c *Client) MakeRequest(ctx context.Context, fragment llm.RequestFragment, tools any, stream bool) (llm.RawResponse, error) {
	frag, ok := fragment.(*anthropicllm.Fragment)
	if !ok {
		return nil, llm.NewInvalidRequestError(fmt.Sprintf("unexpected fragment type %T", fragment), nil)
	}

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

	if stream {
		// The request is issued at construction; a failure to open the
		// stream is retried like any other request.
		return llm.WithRateLimitRetry(ctx, c.logger, func() (*ssestream.Stream[anthropic.MessageStreamEventUnion], error) {
			s := c.client.Messages.NewStreaming(ctx, params)
			if err := s.Err(); err != nil {
				return nil, anthropicllm.ConvertError(err)
			}
			return s, nil
		})
	}

	return llm.WithRateLimitRetry(ctx, c.logger, func() (*anthropic.Message, error) {
		msg, err := c.client.Messages.New(ctx, params)
		if err != nil {
			return nil, anthropicllm.ConvertError(err)
		}
		return msg, nil
	})
}

// HasToolCalls reports whether the message requested tool execution.
func (c *Client) HasToolCalls(raw llm.RawResponse) bool {
	return anthropicllm.HasToolUse(raw)
}

// ExtractToolCalls extracts tool invocations from the message.
func (c *Client) ExtractToolCalls(raw llm.RawResponse) []llm.ToolCall {
	return anthropicllm.ExtractToolUse(raw)
}

// FormatToolResults extends the fragment with the assistant's turn and a
// user turn carrying the tool results.
func (c *Client) FormatToolResults(fragment llm.RequestFragment, raw llm.RawResponse, results []llm.ToolResult) (llm.RequestFragment, error) {
	return anthropicllm.AppendToolResults(fragment, raw, results)
}

// CreateResponse converts the message into the unified response.
func (c *Client) CreateResponse(raw llm.RawResponse, toolCalls []llm.ToolCall) (*llm.Response, error) {
	return anthropicllm.BuildResponse(raw, toolCalls)
}

// StreamResponse wraps a streaming raw response.
func (c *Client) StreamResponse(ctx context.Context, raw llm.RawResponse) (llm.Stream, error) {
	return anthropicllm.WrapStream(ctx, raw, c.model)
}

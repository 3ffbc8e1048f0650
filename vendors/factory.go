// Package vendors constructs a ready-to-use generation engine for a
// configured provider. It lives outside the llm package so the adapters can
// import llm without a cycle.
package vendors

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomatyss/mailos/config"
	"github.com/tomatyss/mailos/llm"
	"github.com/tomatyss/mailos/llm/anthropic"
	"github.com/tomatyss/mailos/llm/bedrock"
	"github.com/tomatyss/mailos/llm/openai"
	"github.com/tomatyss/mailos/tools"
)

// NewProvider constructs the provider selected by the settings. Settings
// must have been validated first.
func NewProvider(ctx context.Context, settings *config.Settings, logger zerolog.Logger) (llm.Provider, error) {
	switch settings.Provider {
	case "anthropic":
		return anthropic.New(settings.Anthropic.APIKey, settings.Model, settings.ModelConfig, logger)
	case "openai":
		return openai.New(settings.OpenAI.APIKey, settings.Model, settings.ModelConfig, logger)
	case "bedrock-anthropic":
		creds := bedrock.Credentials{
			AccessKeyID:     settings.Bedrock.AccessKeyID,
			SecretAccessKey: settings.Bedrock.SecretAccessKey,
			SessionToken:    settings.Bedrock.SessionToken,
			Region:          settings.Bedrock.Region,
		}
		return bedrock.New(ctx, creds, settings.Model, settings.ModelConfig, logger)
	default:
		return nil, llm.NewConfigurationError(fmt.Sprintf("unknown provider %q", settings.Provider))
	}
}

// NewEngine constructs a generation engine wired to the configured provider
// and a shared tool executor.
func NewEngine(ctx context.Context, settings *config.Settings, logger zerolog.Logger) (*llm.Engine, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	provider, err := NewProvider(ctx, settings, logger)
	if err != nil {
		return nil, err
	}

	executor := tools.NewExecutor(logger)

	var opts []llm.EngineOption
	if settings.MaxToolIterations > 0 {
		opts = append(opts, llm.WithMaxToolIterations(settings.MaxToolIterations))
	}

	return llm.NewEngine(provider, executor, logger, opts...)
}

// Package config loads and validates the application settings: which LLM
// vendor to use, its credentials and model, and the generation parameters.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/tomatyss/mailos/llm"
)

// AnthropicConfig holds credentials for the Anthropic API.
type AnthropicConfig struct {
	APIKey string `yaml:"api_key,omitempty"`
}

// OpenAIConfig holds credentials for the OpenAI API.
type OpenAIConfig struct {
	APIKey string `yaml:"api_key,omitempty"`
}

// BedrockConfig holds AWS credentials for Anthropic models on Bedrock.
type BedrockConfig struct {
	AccessKeyID     string `yaml:"aws_access_key_id,omitempty"`
	SecretAccessKey string `yaml:"aws_secret_access_key,omitempty"`
	SessionToken    string `yaml:"aws_session_token,omitempty"`
	Region          string `yaml:"aws_region,omitempty"`
}

// Settings is the application configuration.
type Settings struct {
	// Provider selects the vendor: "anthropic", "openai" or
	// "bedrock-anthropic".
	Provider string `yaml:"provider,omitempty"`
	// Model overrides the vendor's default model.
	Model string `yaml:"model,omitempty"`

	Anthropic AnthropicConfig `yaml:"anthropic,omitempty"`
	OpenAI    OpenAIConfig    `yaml:"openai,omitempty"`
	Bedrock   BedrockConfig   `yaml:"bedrock,omitempty"`

	ModelConfig llm.ModelConfig `yaml:"model_config,omitempty"`

	// MaxToolIterations overrides the engine's tool-loop ceiling.
	MaxToolIterations int `yaml:"max_tool_iterations,omitempty"`
}

// GetConfigPath returns the default config file path. Can be overridden via
// MAILOS_CONFIG_PATH.
func GetConfigPath() string {
	if envPath := os.Getenv("MAILOS_CONFIG_PATH"); envPath != "" {
		return expandPath(envPath)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./.mailos/config.yaml"
	}
	return filepath.Join(homeDir, ".mailos", "config.yaml")
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

// Load reads settings from path, merging them onto the defaults. A missing
// file returns the defaults unchanged; any other stat failure is an error
// so an unreadable config is never silently ignored.
func Load(path string) (*Settings, error) {
	defaults := Settings{
		Provider:    "anthropic",
		ModelConfig: llm.DefaultModelConfig(),
	}

	expandedPath := expandPath(path)
	if _, err := os.Stat(expandedPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &defaults, nil
		}
		return nil, fmt.Errorf("failed to stat config file %q: %w", expandedPath, err)
	}

	data, err := os.ReadFile(expandedPath) //#nosec 304 -- intentional file read for config
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", expandedPath, err)
	}

	var loaded Settings
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := mergo.Merge(&defaults, loaded, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("failed to merge config: %w", err)
	}

	return &defaults, nil
}

// Save writes settings to path, creating the directory if needed.
func Save(s *Settings, path string) error {
	expandedPath := expandPath(path)

	if err := os.MkdirAll(filepath.Dir(expandedPath), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(expandedPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the selected provider's credentials, falling back to the
// conventional environment variables for anything the file leaves blank.
func (s *Settings) Validate() error {
	vendor, ok := Vendors()[s.Provider]
	if !ok {
		return llm.NewConfigurationError(fmt.Sprintf("unknown provider %q", s.Provider))
	}

	if s.Model == "" {
		s.Model = vendor.DefaultModel
	}

	switch s.Provider {
	case "anthropic":
		if s.Anthropic.APIKey == "" {
			s.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if s.Anthropic.APIKey == "" {
			return llm.NewConfigurationError("anthropic: api_key is required (or set ANTHROPIC_API_KEY)")
		}
	case "openai":
		if s.OpenAI.APIKey == "" {
			s.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if s.OpenAI.APIKey == "" {
			return llm.NewConfigurationError("openai: api_key is required (or set OPENAI_API_KEY)")
		}
	case "bedrock-anthropic":
		if s.Bedrock.AccessKeyID == "" {
			s.Bedrock.AccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
		}
		if s.Bedrock.SecretAccessKey == "" {
			s.Bedrock.SecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
		}
		if s.Bedrock.SessionToken == "" {
			s.Bedrock.SessionToken = os.Getenv("AWS_SESSION_TOKEN")
		}
		if s.Bedrock.Region == "" {
			s.Bedrock.Region = os.Getenv("AWS_REGION")
		}
		if s.Bedrock.AccessKeyID == "" || s.Bedrock.SecretAccessKey == "" {
			return llm.NewConfigurationError("bedrock-anthropic: AWS credentials are required")
		}
	}

	return nil
}

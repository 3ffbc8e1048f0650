package config

// Field describes one configurable credential or setting a vendor needs.
type Field struct {
	Name        string
	Description string
	Required    bool
	Secret      bool
}

// Vendor describes one supported LLM vendor: its models and the fields a
// user must supply to use it.
type Vendor struct {
	Name            string
	DefaultModel    string
	SupportedModels []string
	Fields          []Field
}

// Vendors returns the supported vendor registry, keyed by provider name.
func Vendors() map[string]Vendor {
	return map[string]Vendor{
		"anthropic": {
			Name:         "Anthropic",
			DefaultModel: "claude-3-5-sonnet-20241022",
			SupportedModels: []string{
				"claude-3-5-sonnet-20241022",
				"claude-3-5-haiku-20241022",
				"claude-3-opus-20240229",
			},
			Fields: []Field{
				{Name: "api_key", Description: "Anthropic API key", Required: true, Secret: true},
			},
		},
		"openai": {
			Name:         "OpenAI",
			DefaultModel: "gpt-4o",
			SupportedModels: []string{
				"gpt-4o",
				"gpt-4o-mini",
				"gpt-4-turbo",
				"gpt-3.5-turbo",
			},
			Fields: []Field{
				{Name: "api_key", Description: "OpenAI API key", Required: true, Secret: true},
			},
		},
		"bedrock-anthropic": {
			Name:         "Anthropic on AWS Bedrock",
			DefaultModel: "anthropic.claude-3-5-sonnet-20241022-v2:0",
			SupportedModels: []string{
				"anthropic.claude-3-5-sonnet-20241022-v2:0",
				"anthropic.claude-3-5-haiku-20241022-v1:0",
				"anthropic.claude-3-opus-20240229-v1:0",
			},
			Fields: []Field{
				{Name: "aws_access_key_id", Description: "AWS access key ID", Required: true, Secret: true},
				{Name: "aws_secret_access_key", Description: "AWS secret access key", Required: true, Secret: true},
				{Name: "aws_session_token", Description: "AWS session token", Required: false, Secret: true},
				{Name: "aws_region", Description: "AWS region (default: us-east-1)", Required: false, Secret: false},
			},
		},
	}
}

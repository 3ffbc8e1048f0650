package llm

import (
	"encoding/json"
	"time"
)

// RoleType represents the role of a message in a conversation.
type RoleType string

const (
	RoleSystem    RoleType = "system"
	RoleUser      RoleType = "user"
	RoleAssistant RoleType = "assistant"
	RoleFunction  RoleType = "function"
)

// ContentType represents the kind of payload a Content item carries.
type ContentType string

const (
	ContentTypeText      ContentType = "text"
	ContentTypeImage     ContentType = "image"
	ContentTypeAudio     ContentType = "audio"
	ContentTypeFile      ContentType = "file"
	ContentTypeEmbedding ContentType = "embedding"
)

// Content is a single piece of message payload. Text carries UTF-8 text,
// Data carries raw bytes for image/audio/file content. Values are treated
// as immutable once constructed.
type Content struct {
	Type     ContentType `json:"type"`
	Text     string      `json:"text,omitempty"`
	Data     []byte      `json:"data,omitempty"`
	MIMEType string      `json:"mime_type,omitempty"`
}

// Message represents a single message in a conversation. Role ordering is
// caller-defined; the engine does not enforce alternation.
type Message struct {
	Role         RoleType  `json:"role"`
	Content      []Content `json:"content"`
	Name         string    `json:"name,omitempty"`
	FunctionCall *ToolCall `json:"function_call,omitempty"`
}

// ToolFunc is a synchronous tool implementation. The call's structured
// input arrives as keyword-style arguments; the returned value is
// stringified before being handed back to the model.
type ToolFunc func(args map[string]any) (any, error)

// ToolSchema is the JSON-schema-like shape describing a tool's input.
type ToolSchema struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
}

// Tool is a host-provided function the model may invoke. Tools are owned by
// the caller; the engine holds a reference only for the duration of one
// generate call.
type Tool struct {
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Parameters     ToolSchema `json:"parameters"`
	RequiredParams []string   `json:"required"`
	Function       ToolFunc   `json:"-"`
}

// ToolCall is a model-issued request to invoke a named tool.
type ToolCall struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// ToolResult is the executor's output for one tool call, fed back into the
// conversation for the next request.
type ToolResult struct {
	ToolUseID string `json:"tool_use_id"`
	Content   string `json:"content"`
	IsError   bool   `json:"is_error,omitempty"`
}

// ModelConfig holds sampling parameters. It is immutable per adapter
// instance, supplied at construction.
type ModelConfig struct {
	Temperature      float64  `json:"temperature" yaml:"temperature"`
	MaxTokens        int64    `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	TopP             float64  `json:"top_p" yaml:"top_p"`
	FrequencyPenalty float64  `json:"frequency_penalty,omitempty" yaml:"frequency_penalty,omitempty"`
	PresencePenalty  float64  `json:"presence_penalty,omitempty" yaml:"presence_penalty,omitempty"`
	StopSequences    []string `json:"stop_sequences,omitempty" yaml:"stop_sequences,omitempty"`
}

// DefaultModelConfig returns the sampling defaults used when the caller
// supplies nothing.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		Temperature: 0.7,
		TopP:        1.0,
	}
}

// Usage represents token usage reported by a provider.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// FinishReasonMaxToolsExceeded is set by the engine when the tool-loop
// bound is hit. All other finish reasons come from the provider.
const FinishReasonMaxToolsExceeded = "max_tools_exceeded"

// Response is the unified model response. It is produced fresh per
// generation and never mutated after construction.
type Response struct {
	Content           []Content  `json:"content"`
	Role              RoleType   `json:"role"`
	FinishReason      string     `json:"finish_reason,omitempty"`
	ToolCalls         []ToolCall `json:"tool_calls,omitempty"`
	Usage             *Usage     `json:"usage,omitempty"`
	Model             string     `json:"model,omitempty"`
	SystemFingerprint string     `json:"system_fingerprint,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// Text concatenates the response's text content items.
func (r *Response) Text() string {
	var out string
	for _, c := range r.Content {
		if c.Type == ContentTypeText {
			out += c.Text
		}
	}
	return out
}

// ToMessage converts a response into an assistant message so it can be
// appended to a conversation.
func (r *Response) ToMessage() Message {
	msg := Message{
		Role:    r.Role,
		Content: r.Content,
	}
	if len(r.ToolCalls) > 0 {
		call := r.ToolCalls[0]
		msg.FunctionCall = &call
	}
	return msg
}

// NewTextContent creates a text content item.
func NewTextContent(text string) Content {
	return Content{Type: ContentTypeText, Text: text}
}

// NewImageContent creates an image content item from raw bytes.
func NewImageContent(data []byte, mimeType string) Content {
	return Content{Type: ContentTypeImage, Data: data, MIMEType: mimeType}
}

// NewTextMessage creates a message with a single text content item.
func NewTextMessage(role RoleType, text string) Message {
	return Message{
		Role:    role,
		Content: []Content{NewTextContent(text)},
	}
}

// ToJSON marshals a message to JSON for debugging/logging purposes.
func (m Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

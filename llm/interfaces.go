package llm

import (
	"context"
)

// RequestFragment is an opaque, provider-native request body. Each provider
// produces its own concrete type from FormatMessages and consumes it in
// MakeRequest and FormatToolResults; the engine only passes it through.
type RequestFragment = any

// RawResponse is an opaque, provider-native response. The engine inspects it
// only through the Provider methods.
type RawResponse = any

// Provider translates between the unified message/tool model and one
// vendor's wire format. Implementations hold only immutable configuration
// (credentials, model name, sampling parameters) as instance state, so a
// single Provider may serve concurrent generate calls.
type Provider interface {
	// Name returns the provider identifier (e.g. "openai", "anthropic").
	Name() string

	// Model returns the model identifier requests are issued against.
	Model() string

	// FormatMessages converts unified messages into the provider request
	// fragment. The System message's first text content is lifted into the
	// vendor's system slot where the vendor requires it; messages left with
	// zero valid content parts are dropped. Formatting is pure: calling it
	// twice on the same input yields structurally equal fragments.
	FormatMessages(messages []Message, tools []Tool) (RequestFragment, error)

	// FormatTools converts tool declarations into the provider's tool
	// schema shape. Returns nil when tools is empty.
	FormatTools(tools []Tool) any

	// MakeRequest issues the network call. Provider rate-limit signals are
	// handled internally with bounded backoff and retry; they are never
	// surfaced to the caller unless retries are exhausted.
	MakeRequest(ctx context.Context, fragment RequestFragment, tools any, stream bool) (RawResponse, error)

	// HasToolCalls reports whether the raw response requests tool execution.
	HasToolCalls(raw RawResponse) bool

	// ExtractToolCalls extracts tool invocation requests from a raw response.
	ExtractToolCalls(raw RawResponse) []ToolCall

	// FormatToolResults returns a new fragment extending the prior one with
	// the assistant's returned turn and one new turn carrying the tool
	// outputs, in the vendor's required envelope. The prior fragment is not
	// mutated.
	FormatToolResults(fragment RequestFragment, raw RawResponse, results []ToolResult) (RequestFragment, error)

	// CreateResponse converts a raw response into the unified Response.
	// toolCalls, when non-nil, echoes the calls executed during the loop.
	CreateResponse(raw RawResponse, toolCalls []ToolCall) (*Response, error)

	// StreamResponse wraps a raw streaming response into a lazy Stream.
	// Only valid for raw responses produced by MakeRequest with stream=true.
	StreamResponse(ctx context.Context, raw RawResponse) (Stream, error)
}

// Stream is a lazy, single-pass sequence of partial responses. It ends when
// the vendor closes the stream; it is restartable only by issuing a new
// request.
type Stream interface {
	// Next advances to the next chunk. It returns false when the stream is
	// complete or an error occurred.
	Next() bool

	// Current returns the chunk produced by the last successful Next call.
	Current() *Response

	// Err returns any error that occurred during streaming.
	Err() error

	// Close closes the stream and releases resources.
	Close() error
}

// ToolExecutor resolves and runs one tool call. Implementations never return
// an error for tool-level failures; those are folded into an error-flagged
// ToolResult so the model can react.
type ToolExecutor interface {
	Execute(ctx context.Context, call ToolCall, available []Tool) ToolResult
}

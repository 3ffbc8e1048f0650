package llm

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultMaxToolIterations bounds the tool loop per generate call. The
	// bound is owned by the engine, not the adapters.
	DefaultMaxToolIterations = 20
	// DefaultRequestTimeout bounds one provider request, including any
	// rate-limit backoff spent inside it.
	DefaultRequestTimeout = 2 * time.Minute
	// DefaultMaxConcurrent bounds how many generate calls the engine's
	// worker pool runs at once.
	DefaultMaxConcurrent = 8
)

// Engine orchestrates one provider: it formats requests, detects tool
// calls, runs them through the executor, folds results back into the
// conversation and re-requests until the model produces a final answer or
// the iteration bound is hit. Engine state is read-only after construction;
// all per-call state lives on the stack of each generate call, so a single
// Engine serves concurrent callers.
type Engine struct {
	provider          Provider
	executor          ToolExecutor
	maxToolIterations int
	requestTimeout    time.Duration
	slots             chan struct{}
	logger            zerolog.Logger
}

// EngineOption configures an Engine at construction.
type EngineOption func(*Engine)

// WithMaxToolIterations overrides the tool-loop ceiling.
func WithMaxToolIterations(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.maxToolIterations = n
		}
	}
}

// WithRequestTimeout overrides the per-request timeout. Timeouts are fixed
// per engine instance.
func WithRequestTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.requestTimeout = d
		}
	}
}

// WithMaxConcurrent overrides the async worker-pool size.
func WithMaxConcurrent(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.slots = make(chan struct{}, n)
		}
	}
}

// NewEngine creates an Engine for the given provider and tool executor.
func NewEngine(provider Provider, executor ToolExecutor, logger zerolog.Logger, opts ...EngineOption) (*Engine, error) {
	if provider == nil {
		return nil, NewConfigurationError("provider is required")
	}
	if executor == nil {
		return nil, NewConfigurationError("tool executor is required")
	}

	e := &Engine{
		provider:          provider,
		executor:          executor,
		maxToolIterations: DefaultMaxToolIterations,
		requestTimeout:    DefaultRequestTimeout,
		slots:             make(chan struct{}, DefaultMaxConcurrent),
		logger:            logger.With().Str("component", "engine").Str("provider", provider.Name()).Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Generate runs one complete generation, driving the tool loop to a final
// response. It blocks until the model produces an answer without tool
// calls, the iteration bound is hit, or an error occurs. Calls share the
// engine's bounded worker pool; a call waiting for a slot fails as soon as
// its context is cancelled.
func (e *Engine) Generate(ctx context.Context, messages []Message, tools []Tool) (*Response, error) {
	select {
	case e.slots <- struct{}{}:
		defer func() { <-e.slots }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	fragment, err := e.provider.FormatMessages(messages, tools)
	if err != nil {
		return nil, fmt.Errorf("failed to format messages: %w", err)
	}
	formattedTools := e.provider.FormatTools(tools)

	raw, err := e.makeRequest(ctx, fragment, formattedTools)
	if err != nil {
		return nil, err
	}

	var executed []ToolCall
	for iteration := 0; ; iteration++ {
		if !e.provider.HasToolCalls(raw) {
			return e.provider.CreateResponse(raw, executed)
		}

		if iteration >= e.maxToolIterations {
			e.logger.Warn().
				Int("max_tool_iterations", e.maxToolIterations).
				Msg("Exceeded maximum tool calls")
			return &Response{
				Content: []Content{NewTextContent(fmt.Sprintf(
					"Error: Exceeded maximum number of tool calls (%d)", e.maxToolIterations))},
				Role:         RoleAssistant,
				FinishReason: FinishReasonMaxToolsExceeded,
				Model:        e.provider.Model(),
				CreatedAt:    time.Now(),
			}, nil
		}

		calls := e.provider.ExtractToolCalls(raw)
		if len(calls) == 0 {
			return e.provider.CreateResponse(raw, executed)
		}

		e.logger.Debug().
			Int("iteration", iteration+1).
			Int("tool_calls", len(calls)).
			Msg("Executing tool calls")

		results := e.runTools(ctx, calls, tools)
		executed = calls

		fragment, err = e.provider.FormatToolResults(fragment, raw, results)
		if err != nil {
			return nil, fmt.Errorf("failed to format tool results: %w", err)
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err = e.makeRequest(ctx, fragment, formattedTools)
		if err != nil {
			return nil, err
		}
	}
}

// GenerateStream runs one streaming generation. Streaming is mutually
// exclusive with the tool loop: a non-empty tool list is rejected before
// any network call.
func (e *Engine) GenerateStream(ctx context.Context, messages []Message, tools []Tool) (Stream, error) {
	if len(tools) > 0 {
		return nil, NewConfigurationError("streaming cannot be combined with tool execution")
	}

	fragment, err := e.provider.FormatMessages(messages, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to format messages: %w", err)
	}

	raw, err := e.provider.MakeRequest(ctx, fragment, nil, true)
	if err != nil {
		return nil, err
	}

	return e.provider.StreamResponse(ctx, raw)
}

// GenerateResult carries the outcome of an asynchronous generation.
type GenerateResult struct {
	Response *Response
	Err      error
}

// GenerateAsync submits a generation and returns a channel delivering
// exactly one result. It shares Generate's worker pool, so Generate and
// GenerateAsync produce the same result for the same inputs.
func (e *Engine) GenerateAsync(ctx context.Context, messages []Message, tools []Tool) <-chan GenerateResult {
	out := make(chan GenerateResult, 1)
	go func() {
		resp, err := e.Generate(ctx, messages, tools)
		out <- GenerateResult{Response: resp, Err: err}
	}()
	return out
}

// makeRequest issues one non-streaming provider request under the engine's
// request timeout.
func (e *Engine) makeRequest(ctx context.Context, fragment RequestFragment, tools any) (RawResponse, error) {
	reqCtx, cancel := context.WithTimeout(ctx, e.requestTimeout)
	defer cancel()
	return e.provider.MakeRequest(reqCtx, fragment, tools, false)
}

// runTools executes every tool call of one turn. Calls run concurrently
// with no defined relative order; all complete before the method returns.
func (e *Engine) runTools(ctx context.Context, calls []ToolCall, available []Tool) []ToolResult {
	results := make([]ToolResult, len(calls))
	var wg sync.WaitGroup
	for i := range calls {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.executor.Execute(ctx, calls[i], available)
			if results[i].IsError {
				e.logger.Error().
					Str("tool", calls[i].Name).
					Str("content", results[i].Content).
					Msg("Tool execution error")
			}
		}(i)
	}
	wg.Wait()
	return results
}

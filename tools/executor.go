package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomatyss/mailos/llm"
)

// DefaultToolTimeout bounds one tool invocation.
const DefaultToolTimeout = 60 * time.Second

// Executor implements llm.ToolExecutor. Tool failures never surface as
// errors; they become error-flagged results so the model can react.
type Executor struct {
	timeout time.Duration
	logger  zerolog.Logger
}

// ExecutorOption configures an Executor at construction.
type ExecutorOption func(*Executor)

// WithToolTimeout overrides the per-invocation timeout. The timeout is
// fixed per executor instance.
func WithToolTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewExecutor creates a tool executor.
func NewExecutor(logger zerolog.Logger, opts ...ExecutorOption) *Executor {
	e := &Executor{
		timeout: DefaultToolTimeout,
		logger:  logger.With().Str("component", "tools").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute resolves the named tool from the available set and runs it. An
// unknown tool name, a tool error, a panic, or a timeout all produce an
// error-flagged result carrying a human-readable description.
func (e *Executor) Execute(ctx context.Context, call llm.ToolCall, available []llm.Tool) llm.ToolResult {
	var tool *llm.Tool
	for i := range available {
		if available[i].Name == call.Name {
			tool = &available[i]
			break
		}
	}
	if tool == nil || tool.Function == nil {
		return llm.ToolResult{
			ToolUseID: call.ID,
			Content:   fmt.Sprintf("Error: Tool %s not found", call.Name),
			IsError:   true,
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type outcome struct {
		value any
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("tool panicked: %v", r)}
			}
		}()
		value, err := tool.Function(call.Input)
		done <- outcome{value: value, err: err}
	}()

	select {
	case <-runCtx.Done():
		e.logger.Warn().
			Str("tool", call.Name).
			Dur("timeout", e.timeout).
			Msg("Tool execution cancelled")
		return llm.ToolResult{
			ToolUseID: call.ID,
			Content:   fmt.Sprintf("Error executing tool %s: %v", call.Name, runCtx.Err()),
			IsError:   true,
		}
	case out := <-done:
		if out.err != nil {
			return llm.ToolResult{
				ToolUseID: call.ID,
				Content:   fmt.Sprintf("Error executing tool %s: %v", call.Name, out.err),
				IsError:   true,
			}
		}
		return llm.ToolResult{
			ToolUseID: call.ID,
			Content:   Stringify(out.value),
		}
	}
}

// Stringify converts a tool's return value into the text handed back to
// the model. Strings pass through; everything else is JSON-encoded when
// possible.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case error:
		return v.Error()
	}
	if data, err := json.Marshal(value); err == nil {
		return string(data)
	}
	return fmt.Sprintf("%v", value)
}

package anthropic

import (
	"context"
	"fmt"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/tomatyss/mailos/llm"
)

// stream adapts an Anthropic SSE stream to the unified Stream interface.
// Text deltas become chunks; the message_delta event becomes a final chunk
// carrying the finish reason and usage.
type stream struct {
	ctx     context.Context
	inner   *ssestream.Stream[anthropic.MessageStreamEventUnion]
	model   string
	current *llm.Response
	err     error
	done    bool
}

// WrapStream wraps a raw streaming response produced by MakeRequest with
// stream=true.
func WrapStream(ctx context.Context, raw llm.RawResponse, model string) (llm.Stream, error) {
	inner, ok := raw.(*ssestream.Stream[anthropic.MessageStreamEventUnion])
	if !ok {
		return nil, llm.NewProviderError(fmt.Sprintf("unexpected stream type %T", raw), nil)
	}
	return &stream{ctx: ctx, inner: inner, model: model}, nil
}

func (s *stream) Next() bool {
	if s.done {
		return false
	}

	for s.inner.Next() {
		if err := s.ctx.Err(); err != nil {
			s.err = err
			s.done = true
			return false
		}

		event := s.inner.Current()
		switch evt := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			delta, isText := evt.Delta.AsAny().(anthropic.TextDelta)
			if !isText || delta.Text == "" {
				continue
			}
			s.current = &llm.Response{
				Content: []llm.Content{llm.NewTextContent(delta.Text)},
				Role:    llm.RoleAssistant,
				Model:   s.model,
			}
			return true

		case anthropic.MessageDeltaEvent:
			s.current = &llm.Response{
				Role:         llm.RoleAssistant,
				FinishReason: string(evt.Delta.StopReason),
				Model:        s.model,
				Usage:        &llm.Usage{OutputTokens: evt.Usage.OutputTokens},
			}
			return true

		case anthropic.MessageStopEvent:
			s.done = true
			return false
		}
	}

	s.done = true
	if err := s.inner.Err(); err != nil {
		s.err = ConvertError(err)
	}
	return false
}

func (s *stream) Current() *llm.Response {
	return s.current
}

func (s *stream) Err() error {
	return s.err
}

func (s *stream) Close() error {
	return s.inner.Close()
}

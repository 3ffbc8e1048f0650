package openai

import (
	"errors"
	"io"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tomatyss/mailos/llm"
)

// stream adapts an OpenAI completion stream to the unified Stream
// interface. Empty deltas (role-only chunks) are skipped so every yielded
// response carries text.
type stream struct {
	inner   *openai.ChatCompletionStream
	model   string
	current *llm.Response
	err     error
}

func newStream(inner *openai.ChatCompletionStream, model string) *stream {
	return &stream{inner: inner, model: model}
}

func (s *stream) Next() bool {
	for {
		chunk, err := s.inner.Recv()
		if errors.Is(err, io.EOF) {
			return false
		}
		if err != nil {
			s.err = llm.NewProviderError("stream receive failed", err)
			return false
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		delta := chunk.Choices[0].Delta
		if delta.Content == "" && chunk.Choices[0].FinishReason == "" {
			continue
		}

		resp := &llm.Response{
			Role:         llm.RoleAssistant,
			FinishReason: string(chunk.Choices[0].FinishReason),
			Model:        s.model,
			CreatedAt:    createdAt(chunk.Created),
		}
		if delta.Content != "" {
			resp.Content = []llm.Content{llm.NewTextContent(delta.Content)}
		}
		s.current = resp
		return true
	}
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

func createdAt(unix int64) time.Time {
	if unix == 0 {
		return time.Now()
	}
	return time.Unix(unix, 0)
}

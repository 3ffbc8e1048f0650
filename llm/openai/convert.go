package openai

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/tomatyss/mailos/llm"
)

// FormatMessages converts unified messages into the OpenAI chat shape.
// Plain single-text messages use the Content string form; anything with
// images uses the multi-part form with data URLs. Messages that end up with
// no usable parts are dropped.
func (c *Client) FormatMessages(messages []llm.Message, _ []llm.Tool) (llm.RequestFragment, error) {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))

	for _, msg := range messages {
		converted, ok := convertMessage(msg)
		if !ok {
			continue
		}
		out = append(out, converted)
	}

	return out, nil
}

func convertMessage(msg llm.Message) (openai.ChatCompletionMessage, bool) {
	cm := openai.ChatCompletionMessage{
		Role: string(msg.Role),
		Name: msg.Name,
	}

	var texts []string
	var parts []openai.ChatMessagePart
	hasImage := false

	for _, content := range msg.Content {
		switch content.Type {
		case llm.ContentTypeText:
			texts = append(texts, content.Text)
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: content.Text,
			})
		case llm.ContentTypeImage:
			hasImage = true
			parts = append(parts, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL: dataURL(content),
				},
			})
		}
	}

	if len(parts) == 0 {
		return cm, false
	}

	if hasImage {
		cm.MultiContent = parts
	} else {
		var joined string
		for i, t := range texts {
			if i > 0 {
				joined += "\n"
			}
			joined += t
		}
		cm.Content = joined
	}

	return cm, true
}

func dataURL(content llm.Content) string {
	mime := content.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(content.Data)
}

// FormatTools converts tool declarations into OpenAI function tools.
// Returns nil when there are no tools.
func (c *Client) FormatTools(tools []llm.Tool) any {
	if len(tools) == 0 {
		return nil
	}

	out := make([]openai.Tool, 0, len(tools))
	for _, tool := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters: map[string]any{
					"type":       "object",
					"properties": tool.Parameters.Properties,
					"required":   tool.RequiredParams,
				},
			},
		})
	}
	return out
}

// HasToolCalls reports whether the response's first choice requested tools.
func (c *Client) HasToolCalls(raw llm.RawResponse) bool {
	resp, ok := raw.(*openai.ChatCompletionResponse)
	if !ok || len(resp.Choices) == 0 {
		return false
	}
	return len(resp.Choices[0].Message.ToolCalls) > 0
}

// ExtractToolCalls extracts tool invocations from the first choice.
// Arguments that fail to parse as JSON become empty inputs; the tool
// executor reports the missing arguments to the model.
func (c *Client) ExtractToolCalls(raw llm.RawResponse) []llm.ToolCall {
	resp, ok := raw.(*openai.ChatCompletionResponse)
	if !ok || len(resp.Choices) == 0 {
		return nil
	}

	var calls []llm.ToolCall
	for _, tc := range resp.Choices[0].Message.ToolCalls {
		input := map[string]any{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &input); err != nil {
				c.logger.Warn().
					Str("tool", tc.Function.Name).
					Err(err).
					Msg("Failed to parse tool arguments")
				input = map[string]any{}
			}
		}
		calls = append(calls, llm.ToolCall{
			ID:    tc.ID,
			Name:  tc.Function.Name,
			Input: input,
		})
	}
	return calls
}

// FormatToolResults extends the fragment with the assistant's tool-call
// turn and one tool message per result. The prior fragment is not mutated.
func (c *Client) FormatToolResults(fragment llm.RequestFragment, raw llm.RawResponse, results []llm.ToolResult) (llm.RequestFragment, error) {
	prior, ok := fragment.([]openai.ChatCompletionMessage)
	if !ok {
		return nil, llm.NewInvalidRequestError(fmt.Sprintf("unexpected fragment type %T", fragment), nil)
	}
	resp, ok := raw.(*openai.ChatCompletionResponse)
	if !ok || len(resp.Choices) == 0 {
		return nil, llm.NewProviderError("response carries no choices", nil)
	}

	out := make([]openai.ChatCompletionMessage, 0, len(prior)+1+len(results))
	out = append(out, prior...)
	out = append(out, resp.Choices[0].Message)

	for _, result := range results {
		out = append(out, openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			Content:    result.Content,
			ToolCallID: result.ToolUseID,
		})
	}

	return out, nil
}

// CreateResponse converts a chat completion into the unified response.
func (c *Client) CreateResponse(raw llm.RawResponse, toolCalls []llm.ToolCall) (*llm.Response, error) {
	resp, ok := raw.(*openai.ChatCompletionResponse)
	if !ok {
		return nil, llm.NewProviderError(fmt.Sprintf("unexpected response type %T", raw), nil)
	}
	if len(resp.Choices) == 0 {
		return nil, llm.NewProviderError("response carries no choices", nil)
	}

	choice := resp.Choices[0]
	out := &llm.Response{
		Role:              llm.RoleAssistant,
		FinishReason:      string(choice.FinishReason),
		ToolCalls:         toolCalls,
		Model:             resp.Model,
		SystemFingerprint: resp.SystemFingerprint,
		CreatedAt:         createdAt(resp.Created),
	}
	if choice.Message.Content != "" {
		out.Content = []llm.Content{llm.NewTextContent(choice.Message.Content)}
	}
	if resp.Usage.PromptTokens > 0 || resp.Usage.CompletionTokens > 0 {
		out.Usage = &llm.Usage{
			InputTokens:  int64(resp.Usage.PromptTokens),
			OutputTokens: int64(resp.Usage.CompletionTokens),
		}
	}
	return out, nil
}

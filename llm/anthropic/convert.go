package anthropic

import (
	"encoding/json"
	"fmt"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/samber/lo"

	"github.com/tomatyss/mailos/llm"
)

// Fragment is the Anthropic-native request body: the lifted system blocks
// plus the conversation turns. The Bedrock provider shares this shape.
type Fragment struct {
	System   []anthropic.TextBlockParam
	Messages []anthropic.MessageParam
}

// ImageBlockFunc converts one image content item into an Anthropic content
// block. The direct API provider passes images through untouched; Bedrock
// substitutes a validating, resizing variant.
type ImageBlockFunc func(content llm.Content) (anthropic.ContentBlockParamUnion, error)

// BuildFragment converts unified messages into a Fragment. The first
// system message's text content is lifted into the system slot; messages
// left with zero usable content blocks are dropped.
func BuildFragment(messages []llm.Message, imageBlock ImageBlockFunc) (*Fragment, error) {
	frag := &Fragment{}

	for _, msg := range messages {
		if msg.Role == llm.RoleSystem {
			if frag.System == nil {
				for _, content := range msg.Content {
					if content.Type == llm.ContentTypeText && content.Text != "" {
						frag.System = []anthropic.TextBlockParam{{Text: content.Text}}
						break
					}
				}
			}
			continue
		}

		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.Content))
		for _, content := range msg.Content {
			switch content.Type {
			case llm.ContentTypeText:
				if content.Text == "" {
					continue
				}
				blocks = append(blocks, anthropic.NewTextBlock(content.Text))
			case llm.ContentTypeImage:
				block, err := imageBlock(content)
				if err != nil {
					return nil, err
				}
				blocks = append(blocks, block)
			}
		}
		if len(blocks) == 0 {
			continue
		}

		switch msg.Role {
		case llm.RoleAssistant:
			frag.Messages = append(frag.Messages, anthropic.NewAssistantMessage(blocks...))
		default:
			frag.Messages = append(frag.Messages, anthropic.NewUserMessage(blocks...))
		}
	}

	return frag, nil
}

// ConvertTools converts tool declarations into Anthropic tool params.
// Returns nil when there are no tools.
func ConvertTools(tools []llm.Tool) any {
	if len(tools) == 0 {
		return nil
	}
	return lo.Map(tools, func(tool llm.Tool, _ int) anthropic.ToolUnionParam {
		return anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        tool.Name,
			Description: anthropic.String(tool.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Type:       "object",
				Properties: tool.Parameters.Properties,
				Required:   tool.RequiredParams,
			},
		}}
	})
}

// HasToolUse reports whether the message stopped for tool execution.
func HasToolUse(raw llm.RawResponse) bool {
	msg, ok := raw.(*anthropic.Message)
	if !ok {
		return false
	}
	if msg.StopReason == anthropic.StopReasonToolUse {
		return true
	}
	for _, block := range msg.Content {
		if _, isToolUse := block.AsAny().(anthropic.ToolUseBlock); isToolUse {
			return true
		}
	}
	return false
}

// ExtractToolUse extracts tool invocations from the message's tool_use
// blocks.
func ExtractToolUse(raw llm.RawResponse) []llm.ToolCall {
	msg, ok := raw.(*anthropic.Message)
	if !ok {
		return nil
	}

	var calls []llm.ToolCall
	for _, blockUnion := range msg.Content {
		block, isToolUse := blockUnion.AsAny().(anthropic.ToolUseBlock)
		if !isToolUse {
			continue
		}
		input := decodeToolInput(block.Input)
		calls = append(calls, llm.ToolCall{
			ID:    block.ID,
			Name:  block.Name,
			Input: input,
		})
	}
	return calls
}

// decodeToolInput round-trips the SDK's tool input value into a plain map.
// Malformed input decodes to an empty map; the executor reports missing
// arguments back to the model.
func decodeToolInput(raw any) map[string]any {
	input := map[string]any{}
	if raw == nil {
		return input
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return map[string]any{}
	}
	if err := json.Unmarshal(data, &input); err != nil {
		return map[string]any{}
	}
	return input
}

// AppendToolResults returns a new fragment extending the prior one with the
// assistant's returned turn and a user turn carrying one tool_result block
// per result. The prior fragment is not mutated.
func AppendToolResults(fragment llm.RequestFragment, raw llm.RawResponse, results []llm.ToolResult) (llm.RequestFragment, error) {
	prior, ok := fragment.(*Fragment)
	if !ok {
		return nil, llm.NewInvalidRequestError(fmt.Sprintf("unexpected fragment type %T", fragment), nil)
	}
	msg, ok := raw.(*anthropic.Message)
	if !ok {
		return nil, llm.NewProviderError(fmt.Sprintf("unexpected response type %T", raw), nil)
	}

	resultBlocks := lo.Map(results, func(result llm.ToolResult, _ int) anthropic.ContentBlockParamUnion {
		return anthropic.NewToolResultBlock(result.ToolUseID, result.Content, result.IsError)
	})

	messages := make([]anthropic.MessageParam, 0, len(prior.Messages)+2)
	messages = append(messages, prior.Messages...)
	messages = append(messages, msg.ToParam())
	messages = append(messages, anthropic.NewUserMessage(resultBlocks...))

	return &Fragment{System: prior.System, Messages: messages}, nil
}

// BuildResponse converts the message into the unified response.
func BuildResponse(raw llm.RawResponse, toolCalls []llm.ToolCall) (*llm.Response, error) {
	msg, ok := raw.(*anthropic.Message)
	if !ok {
		return nil, llm.NewProviderError(fmt.Sprintf("unexpected response type %T", raw), nil)
	}

	var content []llm.Content
	for _, blockUnion := range msg.Content {
		if block, isText := blockUnion.AsAny().(anthropic.TextBlock); isText {
			content = append(content, llm.NewTextContent(block.Text))
		}
	}

	return &llm.Response{
		Content:      content,
		Role:         llm.RoleAssistant,
		FinishReason: string(msg.StopReason),
		ToolCalls:    toolCalls,
		Usage: &llm.Usage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
		Model:             string(msg.Model),
		SystemFingerprint: msg.ID,
		CreatedAt:         time.Now(),
	}, nil
}

package openai

import (
	"reflect"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/rs/zerolog"

	"github.com/tomatyss/mailos/llm"
)

func testClient(t *testing.T) *Client {
	t.Helper()
	client, err := New("test-key", "gpt-4o", llm.DefaultModelConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return client
}

func TestNewValidation(t *testing.T) {
	if _, err := New("", "gpt-4o", llm.DefaultModelConfig(), zerolog.Nop()); err == nil {
		t.Error("Expected error for missing API key")
	}
	if _, err := New("key", "", llm.DefaultModelConfig(), zerolog.Nop()); err == nil {
		t.Error("Expected error for missing model")
	}
}

func TestFormatMessagesText(t *testing.T) {
	client := testClient(t)

	fragment, err := client.FormatMessages([]llm.Message{
		llm.NewTextMessage(llm.RoleSystem, "be brief"),
		llm.NewTextMessage(llm.RoleUser, "hello"),
	}, nil)
	if err != nil {
		t.Fatalf("FormatMessages failed: %v", err)
	}

	messages := fragment.([]openai.ChatCompletionMessage)
	if len(messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != "system" || messages[0].Content != "be brief" {
		t.Errorf("Unexpected system message: %+v", messages[0])
	}
	if messages[1].Role != "user" || messages[1].Content != "hello" {
		t.Errorf("Unexpected user message: %+v", messages[1])
	}
}

func TestFormatMessagesDropsEmpty(t *testing.T) {
	client := testClient(t)

	fragment, err := client.FormatMessages([]llm.Message{
		{Role: llm.RoleUser},
		llm.NewTextMessage(llm.RoleUser, "kept"),
	}, nil)
	if err != nil {
		t.Fatalf("FormatMessages failed: %v", err)
	}

	messages := fragment.([]openai.ChatCompletionMessage)
	if len(messages) != 1 {
		t.Fatalf("Expected empty message to be dropped, got %d messages", len(messages))
	}
	if messages[0].Content != "kept" {
		t.Errorf("Unexpected surviving message: %+v", messages[0])
	}
}

func TestFormatMessagesImages(t *testing.T) {
	client := testClient(t)

	fragment, err := client.FormatMessages([]llm.Message{
		{
			Role: llm.RoleUser,
			Content: []llm.Content{
				llm.NewTextContent("what is this?"),
				llm.NewImageContent([]byte{0x1, 0x2}, "image/png"),
			},
		},
	}, nil)
	if err != nil {
		t.Fatalf("FormatMessages failed: %v", err)
	}

	messages := fragment.([]openai.ChatCompletionMessage)
	if len(messages) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(messages))
	}
	parts := messages[0].MultiContent
	if len(parts) != 2 {
		t.Fatalf("Expected 2 content parts, got %d", len(parts))
	}
	if parts[0].Type != openai.ChatMessagePartTypeText {
		t.Errorf("Expected first part to be text, got %s", parts[0].Type)
	}
	if parts[1].Type != openai.ChatMessagePartTypeImageURL {
		t.Fatalf("Expected second part to be an image, got %s", parts[1].Type)
	}
	if !strings.HasPrefix(parts[1].ImageURL.URL, "data:image/png;base64,") {
		t.Errorf("Expected data URL, got %q", parts[1].ImageURL.URL)
	}
}

func TestFormatMessagesIdempotent(t *testing.T) {
	client := testClient(t)
	messages := []llm.Message{
		llm.NewTextMessage(llm.RoleSystem, "sys"),
		llm.NewTextMessage(llm.RoleUser, "hi"),
	}

	first, err := client.FormatMessages(messages, nil)
	if err != nil {
		t.Fatalf("FormatMessages failed: %v", err)
	}
	second, err := client.FormatMessages(messages, nil)
	if err != nil {
		t.Fatalf("FormatMessages failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("Expected repeated formatting to yield identical fragments")
	}
}

func TestFormatTools(t *testing.T) {
	client := testClient(t)

	if client.FormatTools(nil) != nil {
		t.Error("Expected nil for empty tool list")
	}

	formatted := client.FormatTools([]llm.Tool{{
		Name:        "get_weather",
		Description: "Get the weather",
		Parameters: llm.ToolSchema{
			Type:       "object",
			Properties: map[string]any{"city": map[string]any{"type": "string"}},
		},
		RequiredParams: []string{"city"},
	}})

	tools := formatted.([]openai.Tool)
	if len(tools) != 1 {
		t.Fatalf("Expected 1 tool, got %d", len(tools))
	}
	if tools[0].Type != openai.ToolTypeFunction {
		t.Errorf("Expected function tool type, got %s", tools[0].Type)
	}
	if tools[0].Function.Name != "get_weather" {
		t.Errorf("Unexpected tool name %q", tools[0].Function.Name)
	}
	params := tools[0].Function.Parameters.(map[string]any)
	if !reflect.DeepEqual(params["required"], []string{"city"}) {
		t.Errorf("Unexpected required params: %v", params["required"])
	}
}

func toolCallResponse() *openai.ChatCompletionResponse {
	return &openai.ChatCompletionResponse{
		Model: "gpt-4o",
		Choices: []openai.ChatCompletionChoice{{
			FinishReason: openai.FinishReasonToolCalls,
			Message: openai.ChatCompletionMessage{
				Role: "assistant",
				ToolCalls: []openai.ToolCall{{
					ID:   "call_abc",
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      "get_weather",
						Arguments: `{"city":"Paris"}`,
					},
				}},
			},
		}},
	}
}

func TestHasToolCalls(t *testing.T) {
	client := testClient(t)

	if !client.HasToolCalls(toolCallResponse()) {
		t.Error("Expected tool calls to be detected")
	}

	plain := &openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Role: "assistant", Content: "hi"},
		}},
	}
	if client.HasToolCalls(plain) {
		t.Error("Expected no tool calls for a plain text response")
	}
}

func TestExtractToolCalls(t *testing.T) {
	client := testClient(t)

	calls := client.ExtractToolCalls(toolCallResponse())
	if len(calls) != 1 {
		t.Fatalf("Expected 1 tool call, got %d", len(calls))
	}
	if calls[0].ID != "call_abc" || calls[0].Name != "get_weather" {
		t.Errorf("Unexpected call: %+v", calls[0])
	}
	if calls[0].Input["city"] != "Paris" {
		t.Errorf("Expected parsed arguments, got %v", calls[0].Input)
	}
}

func TestExtractToolCallsBadArguments(t *testing.T) {
	client := testClient(t)

	resp := toolCallResponse()
	resp.Choices[0].Message.ToolCalls[0].Function.Arguments = "{not json"

	calls := client.ExtractToolCalls(resp)
	if len(calls) != 1 {
		t.Fatalf("Expected the call to survive bad arguments, got %d", len(calls))
	}
	if len(calls[0].Input) != 0 {
		t.Errorf("Expected empty input for unparseable arguments, got %v", calls[0].Input)
	}
}

func TestFormatToolResults(t *testing.T) {
	client := testClient(t)

	prior := []openai.ChatCompletionMessage{
		{Role: "user", Content: "weather in Paris?"},
	}
	resp := toolCallResponse()

	fragment, err := client.FormatToolResults(prior, resp, []llm.ToolResult{
		{ToolUseID: "call_abc", Content: "sunny, 21C"},
	})
	if err != nil {
		t.Fatalf("FormatToolResults failed: %v", err)
	}

	messages := fragment.([]openai.ChatCompletionMessage)
	if len(messages) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(messages))
	}
	if len(prior) != 1 {
		t.Error("Expected the prior fragment to remain unchanged")
	}
	if messages[1].Role != "assistant" || len(messages[1].ToolCalls) != 1 {
		t.Errorf("Expected the assistant tool-call turn, got %+v", messages[1])
	}
	if messages[2].Role != openai.ChatMessageRoleTool {
		t.Errorf("Expected a tool message, got role %q", messages[2].Role)
	}
	if messages[2].ToolCallID != "call_abc" || messages[2].Content != "sunny, 21C" {
		t.Errorf("Unexpected tool message: %+v", messages[2])
	}
}

func TestCreateResponse(t *testing.T) {
	client := testClient(t)

	resp := &openai.ChatCompletionResponse{
		Model:             "gpt-4o",
		SystemFingerprint: "fp_123",
		Created:           1700000000,
		Choices: []openai.ChatCompletionChoice{{
			FinishReason: openai.FinishReasonStop,
			Message:      openai.ChatCompletionMessage{Role: "assistant", Content: "bonjour"},
		}},
		Usage: openai.Usage{PromptTokens: 10, CompletionTokens: 5},
	}

	out, err := client.CreateResponse(resp, nil)
	if err != nil {
		t.Fatalf("CreateResponse failed: %v", err)
	}
	if out.Text() != "bonjour" {
		t.Errorf("Unexpected text %q", out.Text())
	}
	if out.FinishReason != string(openai.FinishReasonStop) {
		t.Errorf("Unexpected finish reason %q", out.FinishReason)
	}
	if out.Usage == nil || out.Usage.InputTokens != 10 || out.Usage.OutputTokens != 5 {
		t.Errorf("Unexpected usage: %+v", out.Usage)
	}
	if out.SystemFingerprint != "fp_123" {
		t.Errorf("Unexpected fingerprint %q", out.SystemFingerprint)
	}
}

func TestCreateResponseNoChoices(t *testing.T) {
	client := testClient(t)
	if _, err := client.CreateResponse(&openai.ChatCompletionResponse{}, nil); err == nil {
		t.Error("Expected error for a response without choices")
	}
}

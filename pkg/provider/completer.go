package provider

import (
	"context"
	"encoding/json"
)

// Completer hides one backend's request/response shape behind three
// operations. Implementations are not safe for concurrent use: the
// continuation path carries conversation state between calls, so use one
// instance per conversation.
type Completer interface {
	Generate(ctx context.Context, prompt string, options *GenerateOptions) (string, error)
	GenerateWithTools(ctx context.Context, messages []Message, tools []Tool, options *GenerateOptions) (*Outcome, error)
	ContinueWithToolResult(ctx context.Context, messages []Message, tools []Tool, results []ToolResult, options *GenerateOptions) (*Outcome, error)
}

type MessageRole string

const (
	MessageRoleSystem    MessageRole = "system"
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleTool      MessageRole = "tool"
)

type Message struct {
	Role MessageRole

	Content string
}

func SystemMessage(content string) Message {
	return Message{
		Role: MessageRoleSystem,

		Content: content,
	}
}

func UserMessage(content string) Message {
	return Message{
		Role: MessageRoleUser,

		Content: content,
	}
}

func AssistantMessage(content string) Message {
	return Message{
		Role: MessageRoleAssistant,

		Content: content,
	}
}

func ToolMessage(content string) Message {
	return Message{
		Role: MessageRoleTool,

		Content: content,
	}
}

type ToolCall struct {
	ID string

	Name      string
	Arguments map[string]any
}

// Outcome is the result of one tool-capable backend call: either a final
// textual response or a set of tool calls the backend wants executed, never
// both. When a raw payload carries both, adapters prefer the tool calls.
type Outcome struct {
	Response string

	ToolCalls []ToolCall
}

func TextOutcome(text string) *Outcome {
	return &Outcome{
		Response: text,
	}
}

func ToolCallOutcome(calls ...ToolCall) *Outcome {
	return &Outcome{
		ToolCalls: calls,
	}
}

func (o *Outcome) HasToolCalls() bool {
	return o != nil && len(o.ToolCalls) > 0
}

// PlaceholderResponse stands in for textual content when a backend signalled
// a tool invocation but every call was filtered as unusable.
const PlaceholderResponse = "(tool call expected)"

type GenerateOptions struct {
	MaxTokens   *int
	Temperature *float32
	TopP        *float32

	Stop []string
}

// Backend defaults applied when options omit a field. Plain generation gets
// more headroom than tool-augmented calls.
const (
	DefaultMaxTokens     = 4096
	DefaultToolMaxTokens = 1024

	DefaultTemperature float32 = 0.7
	DefaultTopP        float32 = 1.0
)

func (o *GenerateOptions) MaxTokensOr(fallback int) int {
	if o == nil || o.MaxTokens == nil {
		return fallback
	}

	return *o.MaxTokens
}

func (o *GenerateOptions) TemperatureOr(fallback float32) float32 {
	if o == nil || o.Temperature == nil {
		return fallback
	}

	return *o.Temperature
}

func (o *GenerateOptions) TopPOr(fallback float32) float32 {
	if o == nil || o.TopP == nil {
		return fallback
	}

	return *o.TopP
}

func (o *GenerateOptions) StopSequences() []string {
	if o == nil {
		return nil
	}

	return o.Stop
}

// ParseArguments decodes a raw tool-call argument payload. Backends
// occasionally emit malformed JSON; a decode failure yields an empty mapping
// so orchestration can proceed.
func ParseArguments(data string) map[string]any {
	var args map[string]any

	if err := json.Unmarshal([]byte(data), &args); err != nil || args == nil {
		args = map[string]any{}
	}

	return args
}

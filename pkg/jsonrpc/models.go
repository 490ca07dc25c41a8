package jsonrpc

import (
	"encoding/json"

	"github.com/nappernick/mcp-wrapper/pkg/provider"
	"github.com/nappernick/mcp-wrapper/pkg/resource"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema"`
}

type ToolCall struct {
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type ToolResult struct {
	ID     string          `json:"id,omitempty"`
	Name   string          `json:"name"`
	Result json.RawMessage `json:"result"`
}

type Options struct {
	MaxTokens     *int     `json:"max_tokens,omitempty"`
	Temperature   *float32 `json:"temperature,omitempty"`
	TopP          *float32 `json:"top_p,omitempty"`
	StopSequences []string `json:"stop_sequences,omitempty"`
}

func (o *Options) convert() *provider.GenerateOptions {
	if o == nil {
		return nil
	}

	return &provider.GenerateOptions{
		MaxTokens:   o.MaxTokens,
		Temperature: o.Temperature,
		TopP:        o.TopP,

		Stop: o.StopSequences,
	}
}

type GenerateParams struct {
	Prompt  string   `json:"prompt"`
	Options *Options `json:"options,omitempty"`
}

type GenerateResult struct {
	Content string `json:"content"`
}

type GenerateWithToolsParams struct {
	Messages []Message `json:"messages"`
	Tools    []Tool    `json:"tools,omitempty"`
	Options  *Options  `json:"options,omitempty"`
}

type ContinueParams struct {
	Messages    []Message    `json:"messages"`
	Tools       []Tool       `json:"tools,omitempty"`
	ToolResults []ToolResult `json:"toolResults"`
	Options     *Options     `json:"options,omitempty"`
}

// OutcomeResult carries exactly one of Response or ToolCalls, mirroring the
// adapter outcome.
type OutcomeResult struct {
	Response  *string    `json:"response,omitempty"`
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`
}

type ResolveResult struct {
	Response string `json:"response"`
}

type CallToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type CallToolResult struct {
	Result any `json:"result"`
}

type ReadResourceParams struct {
	URI string `json:"uri"`
}

type ReadResourceResult struct {
	Contents []resource.Content `json:"contents"`
}

func convertMessages(input []Message) []provider.Message {
	var result []provider.Message

	for _, m := range input {
		result = append(result, provider.Message{
			Role: provider.MessageRole(m.Role),

			Content: m.Content,
		})
	}

	return result
}

func convertTools(input []Tool) []provider.Tool {
	var result []provider.Tool

	for _, t := range input {
		result = append(result, provider.Tool{
			Name:        t.Name,
			Description: t.Description,

			Parameters: t.InputSchema,
		})
	}

	return result
}

func convertToolResults(input []ToolResult) []provider.ToolResult {
	var result []provider.ToolResult

	for _, r := range input {
		result = append(result, provider.ToolResult{
			ID: r.ID,

			Name: r.Name,
			Data: string(r.Result),
		})
	}

	return result
}

func toOutcomeResult(outcome *provider.Outcome) OutcomeResult {
	if outcome.HasToolCalls() {
		var calls []ToolCall

		for _, c := range outcome.ToolCalls {
			calls = append(calls, ToolCall{
				ID: c.ID,

				Name:      c.Name,
				Arguments: c.Arguments,
			})
		}

		return OutcomeResult{ToolCalls: calls}
	}

	response := outcome.Response

	return OutcomeResult{Response: &response}
}

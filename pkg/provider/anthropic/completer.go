package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/nappernick/mcp-wrapper/pkg/provider"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/google/uuid"
)

var _ provider.Completer = (*Completer)(nil)

// Completer adapts the Anthropic Messages API. Tool results are sent back as
// structured tool_result blocks correlated by the originating tool_use ID, so
// the pending assistant turn is retained between GenerateWithTools and
// ContinueWithToolResult. Not safe for concurrent use; one instance per
// conversation.
type Completer struct {
	*Config
	messages anthropic.MessageService

	// assistant turn carrying the tool_use blocks awaiting results
	pending *anthropic.MessageParam
}

func NewCompleter(model string, options ...Option) (*Completer, error) {
	cfg := &Config{
		model: model,
	}

	for _, option := range options {
		option(cfg)
	}

	return &Completer{
		Config:   cfg,
		messages: anthropic.NewMessageService(cfg.Options()...),
	}, nil
}

func (c *Completer) Generate(ctx context.Context, prompt string, options *provider.GenerateOptions) (string, error) {
	req := c.newRequest(options, provider.DefaultMaxTokens)

	req.Messages = []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
	}

	message, err := c.messages.New(ctx, *req)

	if err != nil {
		return "", convertError(err)
	}

	return messageText(message), nil
}

func (c *Completer) GenerateWithTools(ctx context.Context, messages []provider.Message, tools []provider.Tool, options *provider.GenerateOptions) (*provider.Outcome, error) {
	req, err := c.convertRequest(messages, tools, options)

	if err != nil {
		return nil, err
	}

	message, err := c.messages.New(ctx, *req)

	if err != nil {
		return nil, convertError(err)
	}

	return c.toOutcome(message), nil
}

func (c *Completer) ContinueWithToolResult(ctx context.Context, messages []provider.Message, tools []provider.Tool, results []provider.ToolResult, options *provider.GenerateOptions) (*provider.Outcome, error) {
	req, err := c.convertRequest(messages, tools, options)

	if err != nil {
		return nil, err
	}

	assistant := c.pending

	if assistant == nil {
		// The triggering call was issued elsewhere. Reconstruct a minimal
		// assistant turn so the protocol's tool_use/tool_result pairing holds,
		// correlating by name where no ID was supplied.
		assistant = pendingFromResults(results)
	}

	var blocks []anthropic.ContentBlockParamUnion

	for _, r := range results {
		id := r.ID

		if id == "" {
			id = pendingID(assistant, r.Name)
		}

		blocks = append(blocks, anthropic.ContentBlockParamUnion{
			OfToolResult: &anthropic.ToolResultBlockParam{
				ToolUseID: id,

				Content: []anthropic.ToolResultBlockParamContentUnion{
					{
						OfText: &anthropic.TextBlockParam{
							Text: r.Data,
						},
					},
				},
			},
		})
	}

	req.Messages = append(req.Messages, *assistant)
	req.Messages = append(req.Messages, anthropic.NewUserMessage(blocks...))

	c.pending = nil

	message, err := c.messages.New(ctx, *req)

	if err != nil {
		return nil, convertError(err)
	}

	return c.toOutcome(message), nil
}

func (c *Completer) newRequest(options *provider.GenerateOptions, maxTokens int) *anthropic.MessageNewParams {
	req := &anthropic.MessageNewParams{
		Model: anthropic.Model(c.model),

		MaxTokens: int64(options.MaxTokensOr(maxTokens)),

		Temperature: anthropic.Float(float64(options.TemperatureOr(provider.DefaultTemperature))),
		TopP:        anthropic.Float(float64(options.TopPOr(provider.DefaultTopP))),
	}

	if stop := options.StopSequences(); stop != nil {
		req.StopSequences = stop
	}

	return req
}

func (c *Completer) convertRequest(input []provider.Message, tools []provider.Tool, options *provider.GenerateOptions) (*anthropic.MessageNewParams, error) {
	req := c.newRequest(options, provider.DefaultToolMaxTokens)

	var system []anthropic.TextBlockParam
	var messages []anthropic.MessageParam

	for _, m := range input {
		switch m.Role {
		case provider.MessageRoleSystem:
			if m.Content != "" {
				system = append(system, anthropic.TextBlockParam{Text: m.Content})
			}

		case provider.MessageRoleUser, provider.MessageRoleTool:
			// Re-injected tool output without correlation rides as a plain
			// user turn.
			if text := strings.TrimRight(m.Content, " \t\n\r"); text != "" {
				messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(text)))
			}

		case provider.MessageRoleAssistant:
			if text := strings.TrimRight(m.Content, " \t\n\r"); text != "" {
				messages = append(messages, anthropic.MessageParam{
					Role:    anthropic.MessageParamRoleAssistant,
					Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(text)},
				})
			}
		}
	}

	converted, err := convertTools(tools)

	if err != nil {
		return nil, err
	}

	if len(system) > 0 {
		req.System = system
	}

	if len(converted) > 0 {
		req.Tools = converted
	}

	req.Messages = messages

	return req, nil
}

func convertTools(tools []provider.Tool) ([]anthropic.ToolUnionParam, error) {
	var result []anthropic.ToolUnionParam

	for _, t := range tools {
		if t.Name == "" {
			continue
		}

		var schema anthropic.ToolInputSchemaParam

		schemaData, _ := json.Marshal(t.Parameters)

		if err := json.Unmarshal(schemaData, &schema); err != nil {
			return nil, errors.New("invalid tool parameters schema")
		}

		tool := anthropic.ToolParam{
			Name: t.Name,

			InputSchema: schema,
		}

		if t.Description != "" {
			tool.Description = anthropic.String(t.Description)
		}

		result = append(result, anthropic.ToolUnionParam{OfTool: &tool})
	}

	return result, nil
}

// toOutcome inspects a response message. Tool invocations lacking a usable
// name are dropped; if none survive, the textual content wins.
func (c *Completer) toOutcome(message *anthropic.Message) *provider.Outcome {
	var parts []string
	var calls []provider.ToolCall

	var blocks []anthropic.ContentBlockParamUnion

	sawToolUse := false

	for _, block := range message.Content {
		switch block := block.AsAny().(type) {
		case anthropic.TextBlock:
			if text := strings.TrimSpace(block.Text); text != "" {
				parts = append(parts, text)
				blocks = append(blocks, anthropic.NewTextBlock(block.Text))
			}

		case anthropic.ToolUseBlock:
			sawToolUse = true

			if block.Name == "" {
				continue
			}

			calls = append(calls, provider.ToolCall{
				ID: block.ID,

				Name:      block.Name,
				Arguments: provider.ParseArguments(string(block.Input)),
			})

			blocks = append(blocks, anthropic.ContentBlockParamUnion{
				OfToolUse: &anthropic.ToolUseBlockParam{
					ID:    block.ID,
					Name:  block.Name,
					Input: provider.ParseArguments(string(block.Input)),
				},
			})
		}
	}

	if len(calls) > 0 {
		c.pending = &anthropic.MessageParam{
			Role:    anthropic.MessageParamRoleAssistant,
			Content: blocks,
		}

		return provider.ToolCallOutcome(calls...)
	}

	text := strings.Join(parts, " ")

	if text == "" && sawToolUse {
		text = provider.PlaceholderResponse
	}

	return provider.TextOutcome(text)
}

func messageText(message *anthropic.Message) string {
	var parts []string

	for _, block := range message.Content {
		if block, ok := block.AsAny().(anthropic.TextBlock); ok {
			if text := strings.TrimSpace(block.Text); text != "" {
				parts = append(parts, text)
			}
		}
	}

	return strings.Join(parts, " ")
}

func pendingFromResults(results []provider.ToolResult) *anthropic.MessageParam {
	var blocks []anthropic.ContentBlockParamUnion

	for _, r := range results {
		id := r.ID

		if id == "" {
			id = uuid.NewString()
		}

		blocks = append(blocks, anthropic.ContentBlockParamUnion{
			OfToolUse: &anthropic.ToolUseBlockParam{
				ID:    id,
				Name:  r.Name,
				Input: map[string]any{},
			},
		})
	}

	return &anthropic.MessageParam{
		Role:    anthropic.MessageParamRoleAssistant,
		Content: blocks,
	}
}

func pendingID(assistant *anthropic.MessageParam, name string) string {
	for _, block := range assistant.Content {
		if block.OfToolUse != nil && block.OfToolUse.Name == name {
			return block.OfToolUse.ID
		}
	}

	return uuid.NewString()
}

func convertError(err error) error {
	return &provider.UpstreamError{
		Provider: provider.ProviderAnthropic,

		Err: err,
	}
}

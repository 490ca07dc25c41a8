package openai

import (
	"context"
	"strings"

	"github.com/nappernick/mcp-wrapper/pkg/provider"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"
)

var _ provider.Completer = (*Completer)(nil)

// Completer adapts the OpenAI Chat Completions API. The protocol requires
// the full prior exchange on every continuation turn, so the adapter
// accumulates the native chat history across GenerateWithTools and
// ContinueWithToolResult calls. Not safe for concurrent use; one instance
// per conversation.
type Completer struct {
	*Config
	completions openai.ChatCompletionService

	history []openai.ChatCompletionMessageParamUnion

	// tool calls of the last assistant turn, for name-based correlation
	// when a result arrives without an ID
	calls []provider.ToolCall
}

func NewCompleter(model string, options ...Option) (*Completer, error) {
	cfg := &Config{
		model: model,
	}

	for _, option := range options {
		option(cfg)
	}

	return &Completer{
		Config:      cfg,
		completions: openai.NewChatCompletionService(cfg.Options()...),
	}, nil
}

func (c *Completer) Generate(ctx context.Context, prompt string, options *provider.GenerateOptions) (string, error) {
	req := c.newRequest(options, provider.DefaultMaxTokens)

	req.Messages = []openai.ChatCompletionMessageParamUnion{
		openai.UserMessage(prompt),
	}

	completion, err := c.completions.New(ctx, *req)

	if err != nil {
		return "", convertError(err)
	}

	if len(completion.Choices) == 0 {
		return "", nil
	}

	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}

func (c *Completer) GenerateWithTools(ctx context.Context, messages []provider.Message, tools []provider.Tool, options *provider.GenerateOptions) (*provider.Outcome, error) {
	req := c.newRequest(options, provider.DefaultToolMaxTokens)

	c.history = convertMessages(messages)

	req.Messages = c.history
	req.Tools = convertTools(tools)

	return c.complete(ctx, req)
}

func (c *Completer) ContinueWithToolResult(ctx context.Context, messages []provider.Message, tools []provider.Tool, results []provider.ToolResult, options *provider.GenerateOptions) (*provider.Outcome, error) {
	req := c.newRequest(options, provider.DefaultToolMaxTokens)

	if len(c.history) == 0 {
		c.history = convertMessages(messages)
	}

	for _, r := range results {
		id := r.ID

		if id == "" {
			id = c.callID(r.Name)
		}

		c.history = append(c.history, openai.ToolMessage(r.Data, id))
	}

	req.Messages = c.history
	req.Tools = convertTools(tools)

	return c.complete(ctx, req)
}

func (c *Completer) complete(ctx context.Context, req *openai.ChatCompletionNewParams) (*provider.Outcome, error) {
	completion, err := c.completions.New(ctx, *req)

	if err != nil {
		return nil, convertError(err)
	}

	return c.toOutcome(completion), nil
}

// toOutcome inspects a response. Tool invocations lacking a usable name are
// dropped; if none survive, the textual content wins.
func (c *Completer) toOutcome(completion *openai.ChatCompletion) *provider.Outcome {
	if len(completion.Choices) == 0 {
		return provider.TextOutcome("")
	}

	choice := completion.Choices[0]

	if len(choice.Message.ToolCalls) > 0 {
		var calls []provider.ToolCall

		for _, call := range choice.Message.ToolCalls {
			// drop invocations without a usable name
			if call.Function.Name == "" {
				continue
			}

			calls = append(calls, provider.ToolCall{
				ID: call.ID,

				Name:      call.Function.Name,
				Arguments: provider.ParseArguments(call.Function.Arguments),
			})
		}

		if len(calls) > 0 {
			c.history = append(c.history, choice.Message.ToParam())
			c.calls = calls

			return provider.ToolCallOutcome(calls...)
		}

		if strings.TrimSpace(choice.Message.Content) == "" {
			return provider.TextOutcome(provider.PlaceholderResponse)
		}
	}

	c.history = append(c.history, choice.Message.ToParam())

	return provider.TextOutcome(strings.TrimSpace(choice.Message.Content))
}

func (c *Completer) callID(name string) string {
	for _, call := range c.calls {
		if call.Name == name {
			return call.ID
		}
	}

	return name
}

func (c *Completer) newRequest(options *provider.GenerateOptions, maxTokens int) *openai.ChatCompletionNewParams {
	req := &openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),

		MaxTokens: openai.Int(int64(options.MaxTokensOr(maxTokens))),

		Temperature: openai.Float(float64(options.TemperatureOr(provider.DefaultTemperature))),
		TopP:        openai.Float(float64(options.TopPOr(provider.DefaultTopP))),
	}

	if stop := options.StopSequences(); stop != nil {
		req.Stop = openai.ChatCompletionNewParamsStopUnion{
			OfStringArray: stop,
		}
	}

	return req
}

// convertMessages maps the shared model onto chat messages. System turns are
// remapped to user role: the tool continuation path has no stable system slot
// mid-conversation, a lossy but necessary normalization.
func convertMessages(input []provider.Message) []openai.ChatCompletionMessageParamUnion {
	var result []openai.ChatCompletionMessageParamUnion

	for _, m := range input {
		if m.Content == "" {
			continue
		}

		switch m.Role {
		case provider.MessageRoleSystem, provider.MessageRoleUser, provider.MessageRoleTool:
			result = append(result, openai.UserMessage(m.Content))

		case provider.MessageRoleAssistant:
			result = append(result, openai.AssistantMessage(m.Content))
		}
	}

	return result
}

func convertTools(tools []provider.Tool) []openai.ChatCompletionToolUnionParam {
	var result []openai.ChatCompletionToolUnionParam

	for _, t := range tools {
		if t.Name == "" {
			continue
		}

		function := shared.FunctionDefinitionParam{
			Name: t.Name,

			Parameters: convertParameters(t.Parameters),
		}

		if t.Description != "" {
			function.Description = openai.String(t.Description)
		}

		result = append(result, openai.ChatCompletionFunctionTool(function))
	}

	return result
}

// convertParameters defaults "required" to an empty list; the backend
// rejects a null there.
func convertParameters(parameters map[string]any) openai.FunctionParameters {
	params := openai.FunctionParameters{}

	for k, v := range parameters {
		params[k] = v
	}

	if params["required"] == nil {
		params["required"] = []string{}
	}

	return params
}

func convertError(err error) error {
	return &provider.UpstreamError{
		Provider: provider.ProviderOpenAI,

		Err: err,
	}
}

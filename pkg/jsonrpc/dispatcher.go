package jsonrpc

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/nappernick/mcp-wrapper/pkg/chain/agent"
	"github.com/nappernick/mcp-wrapper/pkg/provider"
	"github.com/nappernick/mcp-wrapper/pkg/resource"
	"github.com/nappernick/mcp-wrapper/pkg/tool"
)

// ResourceReader resolves a resource URI to its content. The plain file
// reader satisfies it, as does the cache-backed tool provider.
type ResourceReader interface {
	Read(ctx context.Context, uri string) (*resource.Content, error)
}

type plainReader struct {
	reader *resource.Reader
}

func (r plainReader) Read(ctx context.Context, uri string) (*resource.Content, error) {
	return r.reader.Read(uri)
}

// Dispatcher routes JSON-RPC requests to the provider adapter, the
// orchestration loop, registered tools and the resource reader. The bound
// completer carries conversation state across continuation turns, so a
// dispatcher serves one conversation at a time.
type Dispatcher struct {
	completer provider.Completer

	tools []tool.Provider

	resources ResourceReader

	maxRounds int

	logger *slog.Logger
}

type Option func(*Dispatcher)

func New(completer provider.Completer, options ...Option) (*Dispatcher, error) {
	d := &Dispatcher{
		completer: completer,

		resources: plainReader{reader: resource.NewReader()},

		maxRounds: agent.DefaultMaxRounds,

		logger: slog.Default(),
	}

	for _, option := range options {
		option(d)
	}

	if d.completer == nil {
		return nil, errors.New("missing completer provider")
	}

	return d, nil
}

func WithTools(tools ...tool.Provider) Option {
	return func(d *Dispatcher) {
		d.tools = tools
	}
}

func WithResources(resources ResourceReader) Option {
	return func(d *Dispatcher) {
		d.resources = resources
	}
}

func WithMaxRounds(rounds int) Option {
	return func(d *Dispatcher) {
		d.maxRounds = rounds
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// Dispatch resolves one request to exactly one response: a result or an
// error envelope, never both, never a panic.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.ErrorContext(ctx, "handler panic", "method", req.Method, "panic", r)

			resp = NewErrorResponse(req.ID, CodeInternalError, "internal error")
		}
	}()

	d.logger.DebugContext(ctx, "dispatch", "method", req.Method)

	switch req.Method {
	case "generate":
		return d.handleGenerate(ctx, req)

	case "generate_with_tools":
		return d.handleGenerateWithTools(ctx, req)

	case "resolve_with_tools":
		return d.handleResolveWithTools(ctx, req)

	case "continue_with_tool_result":
		return d.handleContinueWithToolResult(ctx, req)

	case "call_tool":
		return d.handleCallTool(ctx, req)

	case "resources/read":
		return d.handleResourcesRead(ctx, req)

	default:
		return NewErrorResponse(req.ID, CodeMethodNotFound, "method not found: "+req.Method)
	}
}

func (d *Dispatcher) handleGenerate(ctx context.Context, req Request) Response {
	var params GenerateParams

	if err := unmarshalParams(req.Params, &params); err != nil {
		return NewErrorResponse(req.ID, CodeInvalidParams, err.Error())
	}

	content, err := d.completer.Generate(ctx, params.Prompt, params.Options.convert())

	if err != nil {
		return NewErrorResponse(req.ID, CodeHandlerError, err.Error())
	}

	return NewResponse(req.ID, GenerateResult{Content: content})
}

func (d *Dispatcher) handleGenerateWithTools(ctx context.Context, req Request) Response {
	var params GenerateWithToolsParams

	if err := unmarshalParams(req.Params, &params); err != nil {
		return NewErrorResponse(req.ID, CodeInvalidParams, err.Error())
	}

	outcome, err := d.completer.GenerateWithTools(ctx, convertMessages(params.Messages), convertTools(params.Tools), params.Options.convert())

	if err != nil {
		return NewErrorResponse(req.ID, CodeHandlerError, err.Error())
	}

	return NewResponse(req.ID, toOutcomeResult(outcome))
}

func (d *Dispatcher) handleResolveWithTools(ctx context.Context, req Request) Response {
	var params GenerateWithToolsParams

	if err := unmarshalParams(req.Params, &params); err != nil {
		return NewErrorResponse(req.ID, CodeInvalidParams, err.Error())
	}

	chain, err := agent.New(
		agent.WithCompleter(d.completer),
		agent.WithTools(d.tools...),
		agent.WithMaxRounds(d.maxRounds),
		agent.WithLogger(d.logger),
	)

	if err != nil {
		return NewErrorResponse(req.ID, CodeInternalError, err.Error())
	}

	response, err := chain.Run(ctx, convertMessages(params.Messages), params.Options.convert())

	if err != nil {
		return NewErrorResponse(req.ID, CodeInternalError, err.Error())
	}

	return NewResponse(req.ID, ResolveResult{Response: response})
}

func (d *Dispatcher) handleContinueWithToolResult(ctx context.Context, req Request) Response {
	var params ContinueParams

	if err := unmarshalParams(req.Params, &params); err != nil {
		return NewErrorResponse(req.ID, CodeInvalidParams, err.Error())
	}

	outcome, err := d.completer.ContinueWithToolResult(ctx, convertMessages(params.Messages), convertTools(params.Tools), convertToolResults(params.ToolResults), params.Options.convert())

	if err != nil {
		return NewErrorResponse(req.ID, CodeHandlerError, err.Error())
	}

	return NewResponse(req.ID, toOutcomeResult(outcome))
}

func (d *Dispatcher) handleCallTool(ctx context.Context, req Request) Response {
	var params CallToolParams

	if err := unmarshalParams(req.Params, &params); err != nil {
		return NewErrorResponse(req.ID, CodeInvalidParams, err.Error())
	}

	for _, p := range d.tools {
		tools, err := p.Tools(ctx)

		if err != nil {
			return NewErrorResponse(req.ID, CodeHandlerError, err.Error())
		}

		for _, t := range tools {
			if t.Name != params.Name {
				continue
			}

			value, err := p.Execute(ctx, params.Name, params.Arguments)

			if err != nil {
				return NewErrorResponse(req.ID, CodeHandlerError, err.Error())
			}

			return NewResponse(req.ID, CallToolResult{Result: value})
		}
	}

	return NewErrorResponse(req.ID, CodeHandlerError, "unknown tool: "+params.Name)
}

func (d *Dispatcher) handleResourcesRead(ctx context.Context, req Request) Response {
	var params ReadResourceParams

	if err := unmarshalParams(req.Params, &params); err != nil {
		return NewErrorResponse(req.ID, CodeInvalidParams, err.Error())
	}

	content, err := d.resources.Read(ctx, params.URI)

	if err != nil {
		return NewErrorResponse(req.ID, CodeHandlerError, err.Error())
	}

	return NewResponse(req.ID, ReadResourceResult{Contents: []resource.Content{*content}})
}

func unmarshalParams(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return errors.New("missing params")
	}

	return json.Unmarshal(data, v)
}

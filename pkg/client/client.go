package client

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/nappernick/mcp-wrapper/pkg/jsonrpc"
)

type Message = jsonrpc.Message
type Tool = jsonrpc.Tool
type ToolCall = jsonrpc.ToolCall
type ToolResult = jsonrpc.ToolResult
type Options = jsonrpc.Options
type Outcome = jsonrpc.OutcomeResult

// Client issues JSON-RPC requests over a pluggable transport: in-process,
// HTTP, or a stdio subprocess.
type Client struct {
	transport Transport

	seq atomic.Int64
}

type Option func(*config)

type config struct {
	client *http.Client
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *config) {
		c.client = client
	}
}

func New(url string, options ...Option) *Client {
	cfg := &config{}

	for _, option := range options {
		option(cfg)
	}

	return &Client{
		transport: newHTTPTransport(url, cfg.client),
	}
}

func NewLocal(dispatcher *jsonrpc.Dispatcher) *Client {
	return &Client{
		transport: localTransport{dispatcher: dispatcher},
	}
}

func NewCommand(command string, args ...string) (*Client, error) {
	transport, err := newStdioTransport(command, args...)

	if err != nil {
		return nil, err
	}

	return &Client{
		transport: transport,
	}, nil
}

func (c *Client) Close() error {
	return c.transport.Close()
}

// Call sends one request and decodes its result into v. An error envelope
// comes back as *jsonrpc.Error.
func (c *Client) Call(ctx context.Context, method string, params any, v any) error {
	data, err := json.Marshal(params)

	if err != nil {
		return err
	}

	req := jsonrpc.Request{
		JSONRPC: jsonrpc.Version,

		Method: method,
		Params: data,

		ID: json.RawMessage(strconv.FormatInt(c.seq.Add(1), 10)),
	}

	resp, err := c.transport.Call(ctx, req)

	if err != nil {
		return err
	}

	if resp.Error != nil {
		return resp.Error
	}

	if v == nil {
		return nil
	}

	result, err := json.Marshal(resp.Result)

	if err != nil {
		return err
	}

	return json.Unmarshal(result, v)
}

func (c *Client) Generate(ctx context.Context, prompt string, options *Options) (string, error) {
	var result jsonrpc.GenerateResult

	params := jsonrpc.GenerateParams{
		Prompt:  prompt,
		Options: options,
	}

	if err := c.Call(ctx, "generate", params, &result); err != nil {
		return "", err
	}

	return result.Content, nil
}

func (c *Client) GenerateWithTools(ctx context.Context, messages []Message, tools []Tool, options *Options) (*Outcome, error) {
	var result Outcome

	params := jsonrpc.GenerateWithToolsParams{
		Messages: messages,
		Tools:    tools,
		Options:  options,
	}

	if err := c.Call(ctx, "generate_with_tools", params, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *Client) ResolveWithTools(ctx context.Context, messages []Message, tools []Tool, options *Options) (string, error) {
	var result jsonrpc.ResolveResult

	params := jsonrpc.GenerateWithToolsParams{
		Messages: messages,
		Tools:    tools,
		Options:  options,
	}

	if err := c.Call(ctx, "resolve_with_tools", params, &result); err != nil {
		return "", err
	}

	return result.Response, nil
}

func (c *Client) ContinueWithToolResult(ctx context.Context, messages []Message, tools []Tool, results []ToolResult, options *Options) (*Outcome, error) {
	var result Outcome

	params := jsonrpc.ContinueParams{
		Messages:    messages,
		Tools:       tools,
		ToolResults: results,
		Options:     options,
	}

	if err := c.Call(ctx, "continue_with_tool_result", params, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *Client) CallTool(ctx context.Context, name string, arguments map[string]any) (any, error) {
	var result jsonrpc.CallToolResult

	params := jsonrpc.CallToolParams{
		Name:      name,
		Arguments: arguments,
	}

	if err := c.Call(ctx, "call_tool", params, &result); err != nil {
		return nil, err
	}

	return result.Result, nil
}

func (c *Client) ReadResource(ctx context.Context, uri string) (*jsonrpc.ReadResourceResult, error) {
	var result jsonrpc.ReadResourceResult

	params := jsonrpc.ReadResourceParams{
		URI: uri,
	}

	if err := c.Call(ctx, "resources/read", params, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

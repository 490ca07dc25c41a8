package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nappernick/mcp-wrapper/pkg/provider"
	"github.com/nappernick/mcp-wrapper/pkg/tool"

	"golang.org/x/sync/errgroup"
)

// DefaultMaxRounds bounds the generate/execute/continue cycle. A tool that
// always triggers another call would otherwise loop forever.
const DefaultMaxRounds = 8

// ToolNotFoundError reports a tool call with no registered implementation.
// Skipping the call would desynchronize the conversation state the backend
// expects, so the run aborts instead.
type ToolNotFoundError struct {
	Name string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("no handler for tool %q", e.Name)
}

// ToolError reports a tool handler failure. Results from tools that
// succeeded earlier in the same round are discarded.
type ToolError struct {
	Name string

	Err error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %q failed: %v", e.Name, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// LoopLimitError reports that the round cap was reached with the backend
// still requesting tools.
type LoopLimitError struct {
	Rounds int
}

func (e *LoopLimitError) Error() string {
	return fmt.Sprintf("tool loop exceeded %d rounds", e.Rounds)
}

// Chain drives a completer's generate → execute → continue cycle until the
// backend yields a final textual answer.
type Chain struct {
	completer provider.Completer

	tools []tool.Provider

	maxRounds int

	logger *slog.Logger
}

type Option func(*Chain)

func New(options ...Option) (*Chain, error) {
	c := &Chain{
		maxRounds: DefaultMaxRounds,

		logger: slog.Default(),
	}

	for _, option := range options {
		option(c)
	}

	if c.completer == nil {
		return nil, errors.New("missing completer provider")
	}

	if c.maxRounds < 1 {
		return nil, errors.New("invalid round limit")
	}

	return c, nil
}

func WithCompleter(completer provider.Completer) Option {
	return func(c *Chain) {
		c.completer = completer
	}
}

func WithTools(tools ...tool.Provider) Option {
	return func(c *Chain) {
		c.tools = tools
	}
}

func WithMaxRounds(rounds int) Option {
	return func(c *Chain) {
		c.maxRounds = rounds
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Chain) {
		c.logger = logger
	}
}

// Run resolves a conversation to a final answer, executing tools between
// provider calls as needed.
func (c *Chain) Run(ctx context.Context, messages []provider.Message, options *provider.GenerateOptions) (string, error) {
	handlers := make(map[string]tool.Provider)

	var tools []tool.Tool

	for _, p := range c.tools {
		items, err := p.Tools(ctx)

		if err != nil {
			return "", err
		}

		for _, t := range items {
			handlers[t.Name] = p
			tools = append(tools, t)
		}
	}

	if len(tools) == 0 {
		return "", errors.New("missing tools")
	}

	outcome, err := c.completer.GenerateWithTools(ctx, messages, tools, options)

	if err != nil {
		return "", err
	}

	for round := 0; ; round++ {
		if !outcome.HasToolCalls() {
			return outcome.Response, nil
		}

		if round >= c.maxRounds {
			return "", &LoopLimitError{Rounds: round}
		}

		results, err := c.execute(ctx, handlers, outcome.ToolCalls)

		if err != nil {
			return "", err
		}

		c.logger.DebugContext(ctx, "tool round resolved", "round", round, "calls", len(results))

		outcome, err = c.completer.ContinueWithToolResult(ctx, messages, tools, results, options)

		if err != nil {
			return "", err
		}
	}
}

// execute runs one round of tool calls. Calls are independent by
// construction, so they run concurrently; results keep the call order
// because some backends correlate by position.
func (c *Chain) execute(ctx context.Context, handlers map[string]tool.Provider, calls []provider.ToolCall) ([]provider.ToolResult, error) {
	for _, call := range calls {
		if _, ok := handlers[call.Name]; !ok {
			return nil, &ToolNotFoundError{Name: call.Name}
		}
	}

	results := make([]provider.ToolResult, len(calls))

	g, ctx := errgroup.WithContext(ctx)

	for i, call := range calls {
		g.Go(func() error {
			value, err := handlers[call.Name].Execute(ctx, call.Name, call.Arguments)

			if err != nil {
				return &ToolError{Name: call.Name, Err: err}
			}

			data, err := json.Marshal(value)

			if err != nil {
				return &ToolError{Name: call.Name, Err: err}
			}

			results[i] = provider.ToolResult{
				ID: call.ID,

				Name: call.Name,
				Data: string(data),
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

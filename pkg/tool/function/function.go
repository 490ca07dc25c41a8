package function

import (
	"context"
	"fmt"

	"github.com/nappernick/mcp-wrapper/pkg/tool"
)

var _ tool.Provider = (*Provider)(nil)

// Handler executes one tool call. Handlers may block; cancellation arrives
// through the context.
type Handler func(ctx context.Context, parameters map[string]any) (any, error)

// Provider exposes tools backed by plain Go functions registered by name.
type Provider struct {
	tools    []tool.Tool
	handlers map[string]Handler
}

func New() *Provider {
	return &Provider{
		handlers: map[string]Handler{},
	}
}

func (p *Provider) Register(t tool.Tool, handler Handler) error {
	if err := tool.Validate(t); err != nil {
		return err
	}

	if handler == nil {
		return fmt.Errorf("%w: %s: missing handler", tool.ErrInvalidTool, t.Name)
	}

	if _, ok := p.handlers[t.Name]; ok {
		return fmt.Errorf("%w: %s: already registered", tool.ErrInvalidTool, t.Name)
	}

	t.Parameters = tool.NormalizeSchema(t.Parameters)

	p.tools = append(p.tools, t)
	p.handlers[t.Name] = handler

	return nil
}

func (p *Provider) Tools(ctx context.Context) ([]tool.Tool, error) {
	return p.tools, nil
}

func (p *Provider) Execute(ctx context.Context, name string, parameters map[string]any) (any, error) {
	handler, ok := p.handlers[name]

	if !ok {
		return nil, fmt.Errorf("%w: %s: unknown tool", tool.ErrInvalidTool, name)
	}

	return handler(ctx, parameters)
}

package resource

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nappernick/mcp-wrapper/pkg/cache"
	"github.com/nappernick/mcp-wrapper/pkg/resource"
	"github.com/nappernick/mcp-wrapper/pkg/tool"
)

var _ tool.Provider = (*Provider)(nil)

// Provider exposes local file resources as a callable tool. Reads are
// memoized through the cache, keyed by URI.
type Provider struct {
	reader *resource.Reader

	cache cache.Provider
}

type Option func(*Provider)

func WithCache(cache cache.Provider) Option {
	return func(p *Provider) {
		p.cache = cache
	}
}

func New(options ...Option) *Provider {
	p := &Provider{
		reader: resource.NewReader(),
	}

	for _, option := range options {
		option(p)
	}

	return p
}

func (p *Provider) Tools(ctx context.Context) ([]tool.Tool, error) {
	return []tool.Tool{
		{
			Name:        "read_file",
			Description: "Read the content of a local file:// resource",

			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"uri": map[string]any{
						"type":        "string",
						"description": "file:// URI of the resource to read",
					},
				},
				"required": []string{"uri"},
			},
		},
	}, nil
}

func (p *Provider) Execute(ctx context.Context, name string, parameters map[string]any) (any, error) {
	if name != "read_file" {
		return nil, fmt.Errorf("%w: %s: unknown tool", tool.ErrInvalidTool, name)
	}

	uri, _ := parameters["uri"].(string)

	return p.Read(ctx, uri)
}

func (p *Provider) Read(ctx context.Context, uri string) (*resource.Content, error) {
	if p.cache != nil {
		if data, ok, err := p.cache.Get(ctx, uri); err == nil && ok {
			var content resource.Content

			if err := json.Unmarshal(data, &content); err == nil {
				return &content, nil
			}
		}
	}

	content, err := p.reader.Read(uri)

	if err != nil {
		return nil, err
	}

	if p.cache != nil {
		if data, err := json.Marshal(content); err == nil {
			p.cache.Set(ctx, uri, data)
		}
	}

	return content, nil
}

package config

import (
	"fmt"

	"github.com/nappernick/mcp-wrapper/pkg/provider"
	"github.com/nappernick/mcp-wrapper/pkg/provider/anthropic"
	"github.com/nappernick/mcp-wrapper/pkg/provider/openai"
)

type CompleterOption func(*completerConfig)

type completerConfig struct {
	url   string
	model string
}

func WithModel(model string) CompleterOption {
	return func(c *completerConfig) {
		c.model = model
	}
}

func WithURL(url string) CompleterOption {
	return func(c *completerConfig) {
		c.url = url
	}
}

// NewCompleter selects an adapter from the closed provider set. Construction
// has no side effects; credentials are validated lazily on the first real
// call.
func NewCompleter(name provider.Provider, token string, options ...CompleterOption) (provider.Completer, error) {
	cfg := &completerConfig{}

	for _, option := range options {
		option(cfg)
	}

	switch name {
	case provider.ProviderAnthropic:
		return anthropic.NewCompleter(cfg.model,
			anthropic.WithToken(token),
			anthropic.WithURL(cfg.url),
		)

	case provider.ProviderOpenAI:
		return openai.NewCompleter(cfg.model,
			openai.WithToken(token),
			openai.WithURL(cfg.url),
		)

	default:
		return nil, fmt.Errorf("%w: %q", provider.ErrUnsupportedProvider, name)
	}
}

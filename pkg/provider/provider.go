package provider

import (
	"errors"
	"fmt"
)

// Provider names the closed set of supported backends.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
)

var ErrUnsupportedProvider = errors.New("unsupported provider")

type Tool struct {
	Name        string
	Description string

	Parameters map[string]any
}

type ToolResult struct {
	// ID correlates the result with the tool call that produced it. May be
	// empty, in which case adapters fall back to name-based association.
	ID string

	Name string
	Data string
}

// UpstreamError wraps a failed backend API call. It is surfaced unmodified
// and never retried at this layer.
type UpstreamError struct {
	Provider Provider

	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: upstream call failed: %v", e.Provider, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

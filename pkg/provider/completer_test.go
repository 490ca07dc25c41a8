package provider

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseArguments(t *testing.T) {
	t.Run("valid object", func(t *testing.T) {
		args := ParseArguments(`{"location":"San Francisco","unit":"celsius"}`)
		require.Equal(t, map[string]any{"location": "San Francisco", "unit": "celsius"}, args)
	})

	t.Run("malformed payload yields empty mapping", func(t *testing.T) {
		for _, data := range []string{"", "{", `{"location":`, "not json", "null"} {
			args := ParseArguments(data)
			require.NotNil(t, args)
			require.Empty(t, args)
		}
	})
}

func TestOutcome(t *testing.T) {
	t.Run("text outcome has no tool calls", func(t *testing.T) {
		outcome := TextOutcome("Paris is the capital of France.")
		require.False(t, outcome.HasToolCalls())
		require.Equal(t, "Paris is the capital of France.", outcome.Response)
	})

	t.Run("tool call outcome", func(t *testing.T) {
		outcome := ToolCallOutcome(ToolCall{Name: "get_weather"})
		require.True(t, outcome.HasToolCalls())
		require.Empty(t, outcome.Response)
	})

	t.Run("nil outcome has no tool calls", func(t *testing.T) {
		var outcome *Outcome
		require.False(t, outcome.HasToolCalls())
	})
}

func TestGenerateOptionsDefaults(t *testing.T) {
	t.Run("nil options fall back", func(t *testing.T) {
		var options *GenerateOptions

		require.Equal(t, DefaultMaxTokens, options.MaxTokensOr(DefaultMaxTokens))
		require.Equal(t, DefaultTemperature, options.TemperatureOr(DefaultTemperature))
		require.Equal(t, DefaultTopP, options.TopPOr(DefaultTopP))
		require.Nil(t, options.StopSequences())
	})

	t.Run("explicit values win", func(t *testing.T) {
		maxTokens := 42
		temperature := float32(0.1)

		options := &GenerateOptions{
			MaxTokens:   &maxTokens,
			Temperature: &temperature,

			Stop: []string{"STOP"},
		}

		require.Equal(t, 42, options.MaxTokensOr(DefaultMaxTokens))
		require.Equal(t, float32(0.1), options.TemperatureOr(DefaultTemperature))
		require.Equal(t, []string{"STOP"}, options.StopSequences())
	})
}

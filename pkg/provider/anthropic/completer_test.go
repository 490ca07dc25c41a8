package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nappernick/mcp-wrapper/pkg/provider"

	"github.com/stretchr/testify/require"
)

// stubBackend queues canned Messages API responses and records request
// bodies.
type stubBackend struct {
	responses []string

	requests []map[string]any
}

func (b *stubBackend) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)

		var body map[string]any
		json.Unmarshal(data, &body)

		b.requests = append(b.requests, body)

		if len(b.responses) == 0 {
			http.Error(w, `{"type":"error","error":{"type":"api_error","message":"no responses queued"}}`, http.StatusInternalServerError)
			return
		}

		resp := b.responses[0]
		b.responses = b.responses[1:]

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(resp))
	})
}

func textResponse(text string) string {
	return `{
		"id": "msg_01",
		"type": "message",
		"role": "assistant",
		"model": "claude-sonnet-4-5",
		"content": [{"type": "text", "text": ` + mustJSON(text) + `}],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 10, "output_tokens": 5}
	}`
}

func mustJSON(v any) string {
	data, _ := json.Marshal(v)
	return string(data)
}

func newTestCompleter(t *testing.T, backend *stubBackend) *Completer {
	t.Helper()

	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)

	completer, err := NewCompleter("claude-sonnet-4-5",
		WithURL(server.URL),
		WithToken("test-key"),
		WithClient(server.Client()),
	)

	require.NoError(t, err)

	return completer
}

var weatherTool = provider.Tool{
	Name:        "get_weather",
	Description: "Get the current weather for a location",

	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"location": map[string]any{"type": "string"},
			"unit":     map[string]any{"type": "string"},
		},
		"required": []string{"location"},
	},
}

func TestGenerate(t *testing.T) {
	t.Run("returns trimmed text", func(t *testing.T) {
		backend := &stubBackend{responses: []string{textResponse("  Paris is the capital of France.  ")}}
		completer := newTestCompleter(t, backend)

		text, err := completer.Generate(context.Background(), "What is the capital of France?", nil)
		require.NoError(t, err)
		require.Equal(t, "Paris is the capital of France.", text)
	})

	t.Run("applies plain generation defaults", func(t *testing.T) {
		backend := &stubBackend{responses: []string{textResponse("ok")}}
		completer := newTestCompleter(t, backend)

		_, err := completer.Generate(context.Background(), "hi", nil)
		require.NoError(t, err)

		require.Len(t, backend.requests, 1)
		req := backend.requests[0]

		require.Equal(t, float64(provider.DefaultMaxTokens), req["max_tokens"])
		require.InDelta(t, float64(provider.DefaultTemperature), req["temperature"], 0.001)
		require.InDelta(t, float64(provider.DefaultTopP), req["top_p"], 0.001)
	})

	t.Run("upstream failure surfaces as UpstreamError", func(t *testing.T) {
		backend := &stubBackend{}
		completer := newTestCompleter(t, backend)

		_, err := completer.Generate(context.Background(), "hi", nil)
		require.Error(t, err)

		var upstream *provider.UpstreamError
		require.True(t, errors.As(err, &upstream))
		require.Equal(t, provider.ProviderAnthropic, upstream.Provider)
	})
}

func TestGenerateWithTools(t *testing.T) {
	messages := []provider.Message{
		provider.SystemMessage("You are a weather assistant."),
		provider.UserMessage("What is the weather in San Francisco?"),
	}

	t.Run("translates tools onto the wire", func(t *testing.T) {
		backend := &stubBackend{responses: []string{textResponse("ok")}}
		completer := newTestCompleter(t, backend)

		_, err := completer.GenerateWithTools(context.Background(), messages, []provider.Tool{weatherTool}, nil)
		require.NoError(t, err)

		req := backend.requests[0]

		tools := req["tools"].([]any)
		require.Len(t, tools, 1)

		tool := tools[0].(map[string]any)
		require.Equal(t, "get_weather", tool["name"])
		require.Equal(t, "Get the current weather for a location", tool["description"])

		schema := tool["input_schema"].(map[string]any)
		require.Equal(t, "object", schema["type"])
		require.Contains(t, schema["properties"], "location")
		require.Equal(t, []any{"location"}, schema["required"])

		// tool-augmented calls get the lower token ceiling
		require.Equal(t, float64(provider.DefaultToolMaxTokens), req["max_tokens"])
	})

	t.Run("nameless tools are skipped in translation", func(t *testing.T) {
		backend := &stubBackend{responses: []string{textResponse("ok")}}
		completer := newTestCompleter(t, backend)

		_, err := completer.GenerateWithTools(context.Background(), messages, []provider.Tool{{Name: ""}, weatherTool}, nil)
		require.NoError(t, err)

		tools := backend.requests[0]["tools"].([]any)
		require.Len(t, tools, 1)
	})

	t.Run("maps tool use blocks to tool calls", func(t *testing.T) {
		backend := &stubBackend{responses: []string{`{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-5",
			"content": [
				{"type": "tool_use", "id": "toolu_01", "name": "get_weather", "input": {"location": "San Francisco", "unit": "celsius"}}
			],
			"stop_reason": "tool_use",
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`}}
		completer := newTestCompleter(t, backend)

		outcome, err := completer.GenerateWithTools(context.Background(), messages, []provider.Tool{weatherTool}, nil)
		require.NoError(t, err)

		require.True(t, outcome.HasToolCalls())
		require.Empty(t, outcome.Response)
		require.Len(t, outcome.ToolCalls, 1)

		call := outcome.ToolCalls[0]
		require.Equal(t, "toolu_01", call.ID)
		require.Equal(t, "get_weather", call.Name)
		require.Equal(t, map[string]any{"location": "San Francisco", "unit": "celsius"}, call.Arguments)
	})

	t.Run("drops invocations without a name", func(t *testing.T) {
		backend := &stubBackend{responses: []string{`{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-5",
			"content": [
				{"type": "tool_use", "id": "toolu_01", "name": "", "input": {}},
				{"type": "tool_use", "id": "toolu_02", "name": "get_weather", "input": {"location": "SF"}}
			],
			"stop_reason": "tool_use",
			"usage": {"input_tokens": 1, "output_tokens": 1}
		}`}}
		completer := newTestCompleter(t, backend)

		outcome, err := completer.GenerateWithTools(context.Background(), messages, []provider.Tool{weatherTool}, nil)
		require.NoError(t, err)

		require.Len(t, outcome.ToolCalls, 1)
		require.Equal(t, "get_weather", outcome.ToolCalls[0].Name)
	})

	t.Run("falls back to placeholder when every invocation is unusable", func(t *testing.T) {
		backend := &stubBackend{responses: []string{`{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-5",
			"content": [
				{"type": "tool_use", "id": "toolu_01", "name": "", "input": {}}
			],
			"stop_reason": "tool_use",
			"usage": {"input_tokens": 1, "output_tokens": 1}
		}`}}
		completer := newTestCompleter(t, backend)

		outcome, err := completer.GenerateWithTools(context.Background(), messages, []provider.Tool{weatherTool}, nil)
		require.NoError(t, err)

		require.False(t, outcome.HasToolCalls())
		require.Equal(t, provider.PlaceholderResponse, outcome.Response)
	})

	t.Run("malformed arguments decode to empty mapping", func(t *testing.T) {
		backend := &stubBackend{responses: []string{`{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-5",
			"content": [
				{"type": "tool_use", "id": "toolu_01", "name": "get_weather", "input": "{broken"}
			],
			"stop_reason": "tool_use",
			"usage": {"input_tokens": 1, "output_tokens": 1}
		}`}}
		completer := newTestCompleter(t, backend)

		outcome, err := completer.GenerateWithTools(context.Background(), messages, []provider.Tool{weatherTool}, nil)
		require.NoError(t, err)

		require.Len(t, outcome.ToolCalls, 1)
		require.NotNil(t, outcome.ToolCalls[0].Arguments)
		require.Empty(t, outcome.ToolCalls[0].Arguments)
	})

	t.Run("joins text fragments with a single space", func(t *testing.T) {
		backend := &stubBackend{responses: []string{`{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-5",
			"content": [
				{"type": "text", "text": "It is 20C"},
				{"type": "text", "text": "in San Francisco."}
			],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 1, "output_tokens": 1}
		}`}}
		completer := newTestCompleter(t, backend)

		outcome, err := completer.GenerateWithTools(context.Background(), messages, []provider.Tool{weatherTool}, nil)
		require.NoError(t, err)

		require.Equal(t, "It is 20C in San Francisco.", outcome.Response)
	})
}

func TestContinueWithToolResult(t *testing.T) {
	messages := []provider.Message{
		provider.UserMessage("What is the weather in San Francisco?"),
	}

	t.Run("replays the pending turn with real correlation ids", func(t *testing.T) {
		backend := &stubBackend{responses: []string{
			`{
				"id": "msg_01",
				"type": "message",
				"role": "assistant",
				"model": "claude-sonnet-4-5",
				"content": [{"type": "tool_use", "id": "toolu_42", "name": "get_weather", "input": {"location": "SF"}}],
				"stop_reason": "tool_use",
				"usage": {"input_tokens": 1, "output_tokens": 1}
			}`,
			textResponse("It is 20C in San Francisco."),
		}}
		completer := newTestCompleter(t, backend)

		outcome, err := completer.GenerateWithTools(context.Background(), messages, []provider.Tool{weatherTool}, nil)
		require.NoError(t, err)
		require.True(t, outcome.HasToolCalls())

		results := []provider.ToolResult{
			{ID: "toolu_42", Name: "get_weather", Data: `{"temperature":"20C"}`},
		}

		outcome, err = completer.ContinueWithToolResult(context.Background(), messages, []provider.Tool{weatherTool}, results, nil)
		require.NoError(t, err)
		require.Equal(t, "It is 20C in San Francisco.", outcome.Response)

		require.Len(t, backend.requests, 2)

		wire := backend.requests[1]["messages"].([]any)
		require.Len(t, wire, 3)

		assistant := wire[1].(map[string]any)
		require.Equal(t, "assistant", assistant["role"])

		use := assistant["content"].([]any)[0].(map[string]any)
		require.Equal(t, "tool_use", use["type"])
		require.Equal(t, "toolu_42", use["id"])
		require.Equal(t, "get_weather", use["name"])

		user := wire[2].(map[string]any)
		require.Equal(t, "user", user["role"])

		result := user["content"].([]any)[0].(map[string]any)
		require.Equal(t, "tool_result", result["type"])
		require.Equal(t, "toolu_42", result["tool_use_id"])
	})

	t.Run("associates by name when no pending turn exists", func(t *testing.T) {
		backend := &stubBackend{responses: []string{textResponse("It is 20C in San Francisco.")}}
		completer := newTestCompleter(t, backend)

		results := []provider.ToolResult{
			{Name: "get_weather", Data: `{"temperature":"20C"}`},
		}

		outcome, err := completer.ContinueWithToolResult(context.Background(), messages, []provider.Tool{weatherTool}, results, nil)
		require.NoError(t, err)
		require.Equal(t, "It is 20C in San Francisco.", outcome.Response)

		wire := backend.requests[0]["messages"].([]any)
		require.Len(t, wire, 3)

		use := wire[1].(map[string]any)["content"].([]any)[0].(map[string]any)
		result := wire[2].(map[string]any)["content"].([]any)[0].(map[string]any)

		// reconstructed pairing still correlates
		require.Equal(t, use["id"], result["tool_use_id"])
		require.NotEmpty(t, use["id"])
	})
}

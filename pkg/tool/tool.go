package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nappernick/mcp-wrapper/pkg/provider"

	"github.com/google/jsonschema-go/jsonschema"
)

type Tool = provider.Tool

var (
	ErrInvalidTool = errors.New("invalid tool")
)

// Provider exposes a set of executable tools.
type Provider interface {
	Tools(ctx context.Context) ([]Tool, error)
	Execute(ctx context.Context, name string, parameters map[string]any) (any, error)
}

// Validate checks the contract the adapters rely on: a non-empty name and an
// object-typed, well-formed JSON schema.
func Validate(t Tool) error {
	if t.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidTool)
	}

	parameters := NormalizeSchema(t.Parameters)

	if parameters["type"] != "object" {
		return fmt.Errorf("%w: %s: parameters must describe an object", ErrInvalidTool, t.Name)
	}

	data, _ := json.Marshal(parameters)

	schema := new(jsonschema.Schema)

	if err := schema.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidTool, t.Name, err)
	}

	return nil
}

func NormalizeSchema(schema map[string]any) map[string]any {
	if len(schema) == 0 {
		return map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		}
	}

	if schema["type"] == nil {
		if schema["properties"] != nil {
			schema["type"] = "object"
		} else if schema["items"] != nil {
			schema["type"] = "array"
		} else {
			schema["type"] = "object"
		}
	}

	schemaType, _ := schema["type"].(string)

	switch schemaType {
	case "object":
		if schema["properties"] == nil {
			schema["properties"] = map[string]any{}
		}
	case "array":
		if schema["items"] == nil {
			schema["items"] = map[string]any{"type": "string"}
		}
	}

	return schema
}

// Package tools defines the callable tool contract and the enabled-tool
// registry handed to a model session at construction time.
package tools

import (
	"context"
	"fmt"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// Tool is a named, schema-described callable the model may invoke mid-turn.
// Call returns plain text; a returned error is converted to a textual result
// at the dispatch boundary, never used to abort the stream.
type Tool interface {
	Definition() mcptypes.Tool
	Call(ctx context.Context, args map[string]any) (string, error)
}

// Registry is the enabled tool set for a session. It is built once and
// frozen: enabling or disabling tools is a configuration change that only
// takes effect when the next session is constructed.
type Registry struct {
	order  []string
	byName map[string]Tool
}

// NewRegistry builds a registry from the enabled tools. Tool names must be
// unique within the set.
func NewRegistry(enabled ...Tool) (*Registry, error) {
	r := &Registry{byName: make(map[string]Tool, len(enabled))}

	for _, tool := range enabled {
		name := tool.Definition().Name
		if _, exists := r.byName[name]; exists {
			return nil, fmt.Errorf("duplicate tool name: %s", name)
		}
		r.byName[name] = tool
		r.order = append(r.order, name)
	}

	return r, nil
}

// Definitions returns the tool descriptors in registration order.
func (r *Registry) Definitions() []mcptypes.Tool {
	defs := make([]mcptypes.Tool, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.byName[name].Definition())
	}
	return defs
}

// Len returns the number of enabled tools.
func (r *Registry) Len() int {
	return len(r.order)
}

// Call dispatches to a tool by name.
func (r *Registry) Call(ctx context.Context, name string, args map[string]any) (string, error) {
	tool, ok := r.byName[name]
	if !ok {
		return "", fmt.Errorf("unknown tool: %s", name)
	}
	return tool.Call(ctx, args)
}

// stringArg extracts an optional string argument.
func stringArg(args map[string]any, name string) string {
	if v, ok := args[name].(string); ok {
		return v
	}
	return ""
}

package registry

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/modelctx/mcp-engine-go/mcp"
	"github.com/modelctx/mcp-engine-go/schema"
)

// ToolRequest carries the validated invocation input for a tool handler.
// Args has already passed schema validation: defaults are applied and
// unknown keys are stripped.
type ToolRequest struct {
	Name string
	Args map[string]any
}

// String returns the named string argument, or "" when absent.
func (r *ToolRequest) String(name string) string {
	s, _ := r.Args[name].(string)
	return s
}

// Number returns the named numeric argument, or 0 when absent.
func (r *ToolRequest) Number(name string) float64 {
	switch n := r.Args[name].(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// Bool returns the named boolean argument, or false when absent.
func (r *ToolRequest) Bool(name string) bool {
	b, _ := r.Args[name].(bool)
	return b
}

// ToolHandler executes a tool invocation. It is bound at registration time
// and owned exclusively by the Registry. A returned error is converted to an
// error envelope at the dispatch boundary; it never escapes further.
type ToolHandler func(ctx context.Context, req *ToolRequest) (*mcp.CallToolResult, error)

// Tool pairs a tool descriptor with its handler.
type Tool struct {
	Name        string
	Description string
	InputSchema schema.Schema
	Handler     ToolHandler
}

func (t Tool) descriptor() mcp.Tool {
	return mcp.Tool{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema}
}

// ToolOption configures NewTool.
type ToolOption func(*toolConfig)

type toolConfig struct {
	description string
}

// WithToolDescription sets the tool description used in listings.
func WithToolDescription(desc string) ToolOption {
	return func(c *toolConfig) { c.description = desc }
}

// NewTool builds a Tool from a typed argument struct A. The input schema is
// reflected from A's fields (json and jsonschema struct tags apply) and the
// handler decodes the sanitized argument object into A before invoking fn.
func NewTool[A any](name string, fn func(ctx context.Context, args A) (*mcp.CallToolResult, error), opts ...ToolOption) Tool {
	cfg := toolConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return Tool{
		Name:        name,
		Description: cfg.description,
		InputSchema: reflectSchema[A](),
		Handler: func(ctx context.Context, req *ToolRequest) (*mcp.CallToolResult, error) {
			var a A
			if len(req.Args) > 0 {
				b, err := json.Marshal(req.Args)
				if err != nil {
					return nil, fmt.Errorf("encode arguments: %w", err)
				}
				if err := json.Unmarshal(b, &a); err != nil {
					return nil, fmt.Errorf("decode arguments: %w", err)
				}
			}
			return fn(ctx, a)
		},
	}
}

// reflectSchema reflects a Go struct type into the ordered parameter model.
// Only object schemas map cleanly; any other shape reflects as an empty
// schema.
func reflectSchema[A any]() schema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference:            true, // inline defs
		ExpandedStruct:            true, // put struct at root
		AllowAdditionalProperties: true, // unknown keys are stripped, not rejected
	}
	s := r.Reflect(new(A))
	if s == nil || s.Type != "object" || s.Properties == nil {
		return schema.Schema{}
	}

	required := make(map[string]bool, len(s.Required))
	for _, name := range s.Required {
		required[name] = true
	}

	var params []schema.Param
	for el := s.Properties.Oldest(); el != nil; el = el.Next() {
		p := schema.Param{
			Name:     el.Key,
			Type:     schema.Type(el.Value.Type),
			Required: required[el.Key],
		}
		if el.Value.Description != "" {
			p.Description = el.Value.Description
		}
		if el.Value.Default != nil {
			p.Default = el.Value.Default
		}
		params = append(params, p)
	}
	return schema.Schema{Params: params}
}

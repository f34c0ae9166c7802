// Package registry holds the mapping from capability name to handler and
// schema for both tools (actions) and resource templates (addressable data).
//
// A Registry is populated once at server startup and shared by reference
// across every session; it is never mutated per-request. Duplicate names
// within a kind are configuration errors surfaced at registration time, not
// at request time. Re-registration after serving begins is unsupported —
// build a fresh Registry instead.
package registry

import (
	"fmt"
	"sync"

	"github.com/modelctx/mcp-engine-go/mcp"
	"github.com/yosida95/uritemplate/v3"
)

// DuplicateCapabilityError reports a name registered twice within a kind.
type DuplicateCapabilityError struct {
	Kind string
	Name string
}

func (e *DuplicateCapabilityError) Error() string {
	return fmt.Sprintf("duplicate %s registration: %s", e.Kind, e.Name)
}

// NotFoundError reports a lookup miss for a tool name or resource URI.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Name)
}

type compiledTemplate struct {
	descriptor mcp.ResourceTemplate
	handler    ResourceHandler
	matcher    *uritemplate.Template
}

// Registry owns the capability set of one server. The container is guarded
// for safety, but by convention all writes happen before serving begins so
// concurrent readers never contend.
type Registry struct {
	mu        sync.RWMutex
	tools     []Tool
	toolIndex map[string]int
	templates []compiledTemplate
	tplNames  map[string]struct{}
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{
		toolIndex: make(map[string]int),
		tplNames:  make(map[string]struct{}),
	}
}

// RegisterTool adds a tool. The name must be non-empty and unique among
// tools, and the handler must be non-nil.
func (r *Registry) RegisterTool(t Tool) error {
	if t.Name == "" {
		return fmt.Errorf("tool registration requires a name")
	}
	if t.Handler == nil {
		return fmt.Errorf("tool %q registration requires a handler", t.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.toolIndex[t.Name]; exists {
		return &DuplicateCapabilityError{Kind: "tool", Name: t.Name}
	}
	r.toolIndex[t.Name] = len(r.tools)
	r.tools = append(r.tools, t)
	return nil
}

// RegisterResourceTemplate adds a resource template. The URI template is
// compiled here so that a malformed pattern fails at startup.
func (r *Registry) RegisterResourceTemplate(t ResourceTemplate) error {
	if t.Name == "" {
		return fmt.Errorf("resource template registration requires a name")
	}
	if t.Handler == nil {
		return fmt.Errorf("resource template %q registration requires a handler", t.Name)
	}
	matcher, err := uritemplate.New(t.URITemplate)
	if err != nil {
		return fmt.Errorf("resource template %q has an invalid URI template %q: %w", t.Name, t.URITemplate, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tplNames[t.Name]; exists {
		return &DuplicateCapabilityError{Kind: "resource template", Name: t.Name}
	}
	r.tplNames[t.Name] = struct{}{}
	r.templates = append(r.templates, compiledTemplate{
		descriptor: mcp.ResourceTemplate{
			Name:        t.Name,
			URITemplate: t.URITemplate,
			Description: t.Description,
			MimeType:    t.MimeType,
		},
		handler: t.Handler,
		matcher: matcher,
	})
	return nil
}

// Tools returns the registered tool descriptors in insertion order.
func (r *Registry) Tools() []mcp.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]mcp.Tool, len(r.tools))
	for i, t := range r.tools {
		out[i] = t.descriptor()
	}
	return out
}

// ResourceTemplates returns the registered template descriptors in insertion
// order.
func (r *Registry) ResourceTemplates() []mcp.ResourceTemplate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]mcp.ResourceTemplate, len(r.templates))
	for i, t := range r.templates {
		out[i] = t.descriptor
	}
	return out
}

// Tool looks up a tool by name.
func (r *Registry) Tool(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.toolIndex[name]
	if !ok {
		return Tool{}, false
	}
	return r.tools[i], true
}

// ResolveResource matches uri against each registered template in
// registration order and returns the first match along with its extracted
// variables. First-match-wins is the documented ambiguity policy; there is no
// best-match search. A miss yields a *NotFoundError.
func (r *Registry) ResolveResource(uri string) (ResourceTemplate, map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ct := range r.templates {
		values := ct.matcher.Match(uri)
		if values == nil {
			continue
		}
		vars := make(map[string]string, len(values))
		for _, name := range ct.matcher.Varnames() {
			vars[name] = values.Get(name).String()
		}
		return ResourceTemplate{
			Name:        ct.descriptor.Name,
			URITemplate: ct.descriptor.URITemplate,
			Description: ct.descriptor.Description,
			MimeType:    ct.descriptor.MimeType,
			Handler:     ct.handler,
		}, vars, nil
	}
	return ResourceTemplate{}, nil, &NotFoundError{Kind: "resource", Name: uri}
}

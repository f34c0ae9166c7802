package registry

import (
	"context"

	"github.com/modelctx/mcp-engine-go/mcp"
)

// ResourceRequest carries a resolved resource read: the requested URI and the
// variables extracted from the matching template.
type ResourceRequest struct {
	URI  string
	Vars map[string]string
}

// Var returns the named template variable, or "" when absent.
func (r *ResourceRequest) Var(name string) string {
	return r.Vars[name]
}

// ResourceHandler produces the contents for a resolved resource URI. Like
// tool handlers, failures are converted to error envelopes at the dispatch
// boundary.
type ResourceHandler func(ctx context.Context, req *ResourceRequest) ([]mcp.ResourceContents, error)

// ResourceTemplate pairs a URI pattern with the handler that serves matching
// reads. The pattern uses named placeholders, e.g. "greeting://{name}";
// matching is anchored to the whole URI and each variable captures up to the
// next literal delimiter.
type ResourceTemplate struct {
	Name        string
	URITemplate string
	Description string
	MimeType    string
	Handler     ResourceHandler
}

// TextResource is a convenience for handlers that serve a single text value
// for the requested URI.
func TextResource(uri, text string) []mcp.ResourceContents {
	return []mcp.ResourceContents{{URI: uri, MimeType: "text/plain", Text: text}}
}

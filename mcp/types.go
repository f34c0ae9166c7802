package mcp

import (
	"github.com/modelctx/mcp-engine-go/schema"
)

// LatestProtocolVersion is the protocol generation this runtime targets.
// Version negotiation beyond echoing a mutually supported value is an
// extension point, not implemented here.
const LatestProtocolVersion = "2025-06-18"

// ImplementationInfo describes the implementation name and version surfaced
// during initialize.
type ImplementationInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Title   string `json:"title,omitzero"`
}

// ServerCapabilities is the capability summary advertised in the initialize
// result. A non-nil member means the capability is present.
type ServerCapabilities struct {
	Tools     *ToolsCapabilityInfo     `json:"tools,omitempty"`
	Resources *ResourcesCapabilityInfo `json:"resources,omitempty"`
}

// ToolsCapabilityInfo advertises tool support.
type ToolsCapabilityInfo struct {
	ListChanged bool `json:"listChanged,omitzero"`
}

// ResourcesCapabilityInfo advertises resource support.
type ResourcesCapabilityInfo struct {
	ListChanged bool `json:"listChanged,omitzero"`
	Subscribe   bool `json:"subscribe,omitzero"`
}

// ClientCapabilities mirrors the capability summary a client declares during
// initialize. The runtime records it but does not act on it.
type ClientCapabilities struct {
	Roots    *struct{} `json:"roots,omitempty"`
	Sampling *struct{} `json:"sampling,omitempty"`
}

// Tool describes a callable tool and its declared input schema.
type Tool struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	InputSchema schema.Schema `json:"inputSchema"`
}

// ResourceTemplate describes addressable data located via a URI pattern with
// named variables, e.g. "greeting://{name}".
type ResourceTemplate struct {
	Name        string `json:"name"`
	URITemplate string `json:"uriTemplate"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitzero"`
}

// ContentBlock is one typed content part of a tool result.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitzero"`
	// For image/audio blocks.
	Data     string `json:"data,omitzero"`
	MimeType string `json:"mimeType,omitzero"`
}

// TextContent builds a text content block.
func TextContent(text string) ContentBlock {
	return ContentBlock{Type: "text", Text: text}
}

// ResourceContents is one value of a resource read.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitzero"`
	Text     string `json:"text,omitzero"`
	Blob     string `json:"blob,omitzero"`
}

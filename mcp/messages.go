package mcp

import "encoding/json"

// Method identifies a protocol operation selected by a request envelope.
type Method string

const (
	InitializeMethod            Method = "initialize"
	ListToolsMethod             Method = "tools/list"
	CallToolMethod              Method = "tools/call"
	ListResourceTemplatesMethod Method = "resources/templates/list"
	// ReadResourceMethod is the default resource-access method name. Deployed
	// clients disagree on the exact spelling, so the dispatcher treats it as
	// a configuration constant rather than a hardcoded literal.
	ReadResourceMethod Method = "resources/read"
	ShutdownMethod     Method = "shutdown"

	InitializedNotificationMethod Method = "notifications/initialized"
)

// InitializeRequest carries the client's half of capability negotiation.
type InitializeRequest struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities,omitzero"`
	ClientInfo      ImplementationInfo `json:"clientInfo,omitzero"`
}

// InitializeResult carries the server's half of capability negotiation.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      ImplementationInfo `json:"serverInfo"`
	Instructions    string             `json:"instructions,omitzero"`
}

// ListToolsResult is the result payload of tools/list.
type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

// ListResourceTemplatesResult is the result payload of resources/templates/list.
type ListResourceTemplatesResult struct {
	ResourceTemplates []ResourceTemplate `json:"resourceTemplates"`
}

// CallToolParams is the params payload of tools/call. Arguments stays raw so
// the dispatcher can decode and validate it against the tool's declared
// schema.
type CallToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// CallToolResult is the result payload of tools/call.
type CallToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitzero"`
}

// NewToolResultText builds a CallToolResult with a single text block.
func NewToolResultText(text string) *CallToolResult {
	return &CallToolResult{Content: []ContentBlock{TextContent(text)}}
}

// ReadResourceParams is the params payload of the resource-access method.
type ReadResourceParams struct {
	URI string `json:"uri"`
}

// ReadResourceResult is the result payload of the resource-access method.
type ReadResourceResult struct {
	Contents []ResourceContents `json:"contents"`
}

// Package engine implements the request dispatcher and its protocol state
// machine. A Session owns exactly one dispatcher + registry pairing: it is
// created when a transport connection or request begins, tracks the
// negotiated protocol version, and is destroyed when the transport closes.
//
// Sessions never share mutable state with one another; the only shared
// structure is the read-mostly capability registry, passed by reference.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/modelctx/mcp-engine-go/internal/logctx"
	"github.com/modelctx/mcp-engine-go/internal/wire"
	"github.com/modelctx/mcp-engine-go/mcp"
	"github.com/modelctx/mcp-engine-go/registry"
	"github.com/modelctx/mcp-engine-go/schema"
)

// State is the lifecycle position of a Session.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateReady         State = "ready"
	StateClosed        State = "closed"
)

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the slog logger. Logs are attributed with rpc context via
// logctx.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// WithServerInfo sets the implementation info surfaced during initialize.
func WithServerInfo(info mcp.ImplementationInfo) Option {
	return func(s *Session) { s.info = info }
}

// WithInstructions sets optional human-readable instructions included in the
// initialize result.
func WithInstructions(instructions string) Option {
	return func(s *Session) { s.instructions = instructions }
}

// WithResourceReadMethod overrides the resource-access method name. Deployed
// clients disagree on the exact spelling (resources/read vs
// resources/retrieve vs resources/resolve), so it is configuration rather
// than a hardcoded literal.
func WithResourceReadMethod(method string) Option {
	return func(s *Session) {
		if method != "" {
			s.readMethod = method
		}
	}
}

// WithLegacyToolCalls enables the legacy-compatibility adapter stage: a bare
// {"method": "<toolName>"} request whose method matches a registered tool is
// rewritten into canonical tools/call form before dispatch.
func WithLegacyToolCalls() Option {
	return func(s *Session) { s.legacyCalls = true }
}

// WithoutHandshake creates the session already in the Ready state. Stateless
// request/response transports use this: no handshake state can persist
// across requests, so each request begins Ready and initialize is still
// answered normally for client compatibility.
func WithoutHandshake() Option {
	return func(s *Session) { s.state = StateReady }
}

// Session dispatches decoded request envelopes against a capability
// registry, enforcing protocol sequencing. Handle is safe for concurrent use
// although transports that require ordering (stdio) call it serially.
type Session struct {
	reg          *registry.Registry
	log          *slog.Logger
	info         mcp.ImplementationInfo
	instructions string
	readMethod   string
	legacyCalls  bool

	mu              sync.Mutex
	state           State
	protocolVersion string
}

// NewSession builds a Session over the shared registry. The registry is
// borrowed, never owned: many concurrent sessions may reference it.
func NewSession(reg *registry.Registry, opts ...Option) *Session {
	s := &Session{
		reg:        reg,
		log:        slog.Default(),
		readMethod: string(mcp.ReadResourceMethod),
		state:      StateUninitialized,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ProtocolVersion returns the version negotiated during initialize, or ""
// before the handshake.
func (s *Session) ProtocolVersion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.protocolVersion
}

// Close transitions the session to Closed. Subsequent requests are rejected;
// the transport is expected to release the session afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	s.state = StateClosed
	s.mu.Unlock()
}

// Handle processes one request envelope and returns the response envelope,
// or nil when the request is a notification. Every failure mode — sequencing
// violations, unknown methods, validation errors, handler failures, handler
// panics — is converted into a well-formed error response; Handle never
// terminates the session except through an explicit shutdown request.
func (s *Session) Handle(ctx context.Context, req *wire.Request) *wire.Response {
	ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{Method: req.Method, ID: req.ID.String()})

	if s.legacyCalls {
		req = s.normalizeLegacy(req)
	}

	if req.IsNotification() {
		s.handleNotification(ctx, req)
		return nil
	}

	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	switch state {
	case StateClosed:
		return wire.NewErrorResponse(req.ID, wire.CodeInvalidRequest, "session is closed")
	case StateUninitialized:
		if req.Method != string(mcp.InitializeMethod) {
			s.log.WarnContext(ctx, "rpc.sequence.violation", slog.String("state", string(state)))
			return wire.NewErrorResponse(req.ID, wire.CodeNotInitialized,
				fmt.Sprintf("received %q before initialize", req.Method))
		}
		return s.handleInitialize(ctx, req)
	}

	switch req.Method {
	case string(mcp.InitializeMethod):
		return wire.NewErrorResponse(req.ID, wire.CodeInvalidRequest, "session already initialized")
	case string(mcp.ListToolsMethod):
		return s.handleListTools(ctx, req)
	case string(mcp.ListResourceTemplatesMethod):
		return s.handleListResourceTemplates(ctx, req)
	case string(mcp.CallToolMethod):
		return s.handleCallTool(ctx, req)
	case s.readMethod:
		return s.handleReadResource(ctx, req)
	case string(mcp.ShutdownMethod):
		s.Close()
		return mustResult(req.ID, struct{}{})
	default:
		s.log.WarnContext(ctx, "rpc.method.unknown")
		return wire.NewErrorResponse(req.ID, wire.CodeMethodNotFound, "method not found: "+req.Method)
	}
}

// normalizeLegacy rewrites a bare {"method":"<toolName>"} request into
// canonical tools/call form when the method names a registered tool. The
// rewrite happens ahead of sequencing and dispatch so both canonical and
// legacy shapes follow the same path afterwards.
func (s *Session) normalizeLegacy(req *wire.Request) *wire.Request {
	switch req.Method {
	case string(mcp.InitializeMethod), string(mcp.ListToolsMethod), string(mcp.CallToolMethod),
		string(mcp.ListResourceTemplatesMethod), s.readMethod, string(mcp.ShutdownMethod):
		return req
	}
	if _, ok := s.reg.Tool(req.Method); !ok {
		return req
	}
	params, err := json.Marshal(mcp.CallToolParams{Name: req.Method, Arguments: req.Params})
	if err != nil {
		return req
	}
	return &wire.Request{ID: req.ID, Method: string(mcp.CallToolMethod), Params: params}
}

func (s *Session) handleNotification(ctx context.Context, req *wire.Request) {
	switch req.Method {
	case string(mcp.InitializedNotificationMethod):
		s.log.DebugContext(ctx, "rpc.notification.initialized")
	default:
		// Unknown notifications are ignored for forward compatibility.
		s.log.DebugContext(ctx, "rpc.notification.ignored")
	}
}

func (s *Session) handleInitialize(ctx context.Context, req *wire.Request) *wire.Response {
	var initReq mcp.InitializeRequest
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &initReq); err != nil {
			return wire.NewErrorResponse(req.ID, wire.CodeInvalidParams, "invalid initialize params")
		}
	}

	version := initReq.ProtocolVersion
	if version == "" {
		version = mcp.LatestProtocolVersion
	}

	s.mu.Lock()
	s.state = StateReady
	s.protocolVersion = version
	s.mu.Unlock()

	caps := mcp.ServerCapabilities{}
	if len(s.reg.Tools()) > 0 {
		caps.Tools = &mcp.ToolsCapabilityInfo{}
	}
	if len(s.reg.ResourceTemplates()) > 0 {
		caps.Resources = &mcp.ResourcesCapabilityInfo{}
	}

	s.log.InfoContext(ctx, "session.initialize.ok",
		slog.String("protocol_version", version),
		slog.String("client", initReq.ClientInfo.Name))

	return mustResult(req.ID, mcp.InitializeResult{
		ProtocolVersion: version,
		Capabilities:    caps,
		ServerInfo:      s.info,
		Instructions:    s.instructions,
	})
}

func (s *Session) handleListTools(ctx context.Context, req *wire.Request) *wire.Response {
	tools := s.reg.Tools()
	if tools == nil {
		tools = []mcp.Tool{}
	}
	return mustResult(req.ID, mcp.ListToolsResult{Tools: tools})
}

func (s *Session) handleListResourceTemplates(ctx context.Context, req *wire.Request) *wire.Response {
	templates := s.reg.ResourceTemplates()
	if templates == nil {
		templates = []mcp.ResourceTemplate{}
	}
	return mustResult(req.ID, mcp.ListResourceTemplatesResult{ResourceTemplates: templates})
}

func (s *Session) handleCallTool(ctx context.Context, req *wire.Request) *wire.Response {
	var params mcp.CallToolParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return wire.NewErrorResponse(req.ID, wire.CodeInvalidParams, "invalid tools/call params")
	}
	if params.Name == "" {
		return wire.NewErrorResponse(req.ID, wire.CodeInvalidParams, "tools/call requires a tool name")
	}

	ctx = logctx.WithToolCallData(ctx, &logctx.ToolCallData{ToolName: params.Name})

	tool, ok := s.reg.Tool(params.Name)
	if !ok {
		s.log.WarnContext(ctx, "tool.call.miss")
		return wire.NewErrorResponse(req.ID, wire.CodeInvalidParams, "Unknown tool: "+params.Name)
	}

	args := map[string]any{}
	if len(params.Arguments) > 0 {
		if err := json.Unmarshal(params.Arguments, &args); err != nil {
			return wire.NewErrorResponse(req.ID, wire.CodeInvalidParams, "tool arguments must be an object")
		}
	}

	sanitized, err := schema.Validate(tool.InputSchema, args)
	if err != nil {
		s.log.WarnContext(ctx, "tool.call.invalid_args", slog.String("err", err.Error()))
		return wire.NewErrorResponse(req.ID, wire.CodeInvalidParams, err.Error())
	}

	result, err := s.invokeTool(ctx, tool, &registry.ToolRequest{Name: params.Name, Args: sanitized})
	if err != nil {
		return s.handlerErrorResponse(ctx, req.ID, err)
	}
	if result == nil {
		result = &mcp.CallToolResult{Content: []mcp.ContentBlock{}}
	}
	s.log.InfoContext(ctx, "tool.call.ok")
	return mustResult(req.ID, result)
}

func (s *Session) handleReadResource(ctx context.Context, req *wire.Request) *wire.Response {
	var params mcp.ReadResourceParams
	if err := json.Unmarshal(req.Params, &params); err != nil || params.URI == "" {
		return wire.NewErrorResponse(req.ID, wire.CodeInvalidParams, "resource read requires a uri")
	}

	tpl, vars, err := s.reg.ResolveResource(params.URI)
	if err != nil {
		s.log.WarnContext(ctx, "resource.read.miss", slog.String("uri", params.URI))
		return wire.NewErrorResponse(req.ID, wire.CodeResourceNotFound, "Resource not found: "+params.URI)
	}

	contents, err := s.invokeResource(ctx, tpl, &registry.ResourceRequest{URI: params.URI, Vars: vars})
	if err != nil {
		return s.handlerErrorResponse(ctx, req.ID, err)
	}
	if contents == nil {
		contents = []mcp.ResourceContents{}
	}
	s.log.InfoContext(ctx, "resource.read.ok", slog.String("uri", params.URI))
	return mustResult(req.ID, mcp.ReadResourceResult{Contents: contents})
}

// invokeTool wraps a tool handler invocation so that neither an error nor a
// panic can escape past the dispatch boundary.
func (s *Session) invokeTool(ctx context.Context, tool registry.Tool, req *registry.ToolRequest) (result *mcp.CallToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return tool.Handler(ctx, req)
}

// invokeResource mirrors invokeTool for resource handlers.
func (s *Session) invokeResource(ctx context.Context, tpl registry.ResourceTemplate, req *registry.ResourceRequest) (contents []mcp.ResourceContents, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return tpl.Handler(ctx, req)
}

// handlerErrorResponse converts a handler failure into an error envelope.
// Known error kinds keep their classification; anything else maps to a
// generic internal error so no raw failure detail leaks to the client.
func (s *Session) handlerErrorResponse(ctx context.Context, id *wire.RequestID, err error) *wire.Response {
	s.log.ErrorContext(ctx, "handler.fail", slog.String("err", err.Error()))

	var wireErr *wire.Error
	if errors.As(err, &wireErr) {
		return &wire.Response{ID: id, Error: wireErr}
	}
	var notFound *registry.NotFoundError
	if errors.As(err, &notFound) {
		return wire.NewErrorResponse(id, wire.CodeResourceNotFound, notFound.Error())
	}
	var invalid *schema.ValidationError
	if errors.As(err, &invalid) {
		return wire.NewErrorResponse(id, wire.CodeInvalidParams, invalid.Error())
	}
	return wire.NewErrorResponse(id, wire.CodeInternalError, "internal error")
}

// mustResult marshals a result payload that is known to be serializable.
func mustResult(id *wire.RequestID, result any) *wire.Response {
	resp, err := wire.NewResultResponse(id, result)
	if err != nil {
		return wire.NewErrorResponse(id, wire.CodeInternalError, "failed to encode response")
	}
	return resp
}

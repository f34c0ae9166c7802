package streamhttp

import (
	"log/slog"

	"github.com/modelctx/mcp-engine-go/internal/engine"
	"github.com/modelctx/mcp-engine-go/mcp"
)

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the slog logger used by the handler. If not provided, the
// default logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// WithServerInfo sets the implementation info surfaced during initialize.
func WithServerInfo(info mcp.ImplementationInfo) Option {
	return func(h *Handler) {
		h.sessionOpts = append(h.sessionOpts, engine.WithServerInfo(info))
	}
}

// WithInstructions sets the instructions included in the initialize result.
func WithInstructions(instructions string) Option {
	return func(h *Handler) {
		h.sessionOpts = append(h.sessionOpts, engine.WithInstructions(instructions))
	}
}

// WithResourceReadMethod overrides the resource-access method name.
func WithResourceReadMethod(method string) Option {
	return func(h *Handler) {
		h.sessionOpts = append(h.sessionOpts, engine.WithResourceReadMethod(method))
	}
}

// WithLegacyToolCalls enables rewriting bare {"method":"<toolName>"}
// requests into canonical tools/call form.
func WithLegacyToolCalls() Option {
	return func(h *Handler) {
		h.sessionOpts = append(h.sessionOpts, engine.WithLegacyToolCalls())
	}
}

package stdio

import (
	"io"
	"log/slog"

	"github.com/modelctx/mcp-engine-go/internal/engine"
	"github.com/modelctx/mcp-engine-go/mcp"
)

// Option customizes a Handler.
type Option func(*Handler)

// WithIO sets the reader and writer for the handler.
func WithIO(r io.Reader, w io.Writer) Option {
	return func(h *Handler) {
		if r != nil {
			h.r = r
		}
		if w != nil {
			h.w = w
		}
	}
}

// WithReader overrides the input stream.
func WithReader(r io.Reader) Option {
	return func(h *Handler) {
		if r != nil {
			h.r = r
		}
	}
}

// WithWriter overrides the output stream.
func WithWriter(w io.Writer) Option {
	return func(h *Handler) {
		if w != nil {
			h.w = w
		}
	}
}

// WithLogger overrides the logger.
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

// WithMaxLineBytes bounds the size of one inbound envelope line. Values < 1
// are ignored.
func WithMaxLineBytes(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxLineBytes = n
		}
	}
}

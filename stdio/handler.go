package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/modelctx/mcp-engine-go/internal/engine"
	"github.com/modelctx/mcp-engine-go/internal/logctx"
	"github.com/modelctx/mcp-engine-go/internal/wire"
	"github.com/modelctx/mcp-engine-go/registry"
)

const defaultMaxLineBytes = 4 << 20

// Handler is a single-connection stream transport that reads envelopes from
// an io.Reader and writes responses to an io.Writer, newline-delimited. By
// default it uses os.Stdin and os.Stdout.
//
// The handler is transport-only; all protocol semantics live in the session
// dispatcher it owns for the duration of Serve.
type Handler struct {
	reg          *registry.Registry
	r            io.Reader
	w            io.Writer
	log          *slog.Logger
	sessionOpts  []engine.Option
	maxLineBytes int
}

// NewHandler constructs a stdio Handler with defaults and applies options.
func NewHandler(reg *registry.Registry, opts ...Option) *Handler {
	h := &Handler{
		reg:          reg,
		r:            os.Stdin,
		w:            os.Stdout,
		log:          slog.Default(),
		maxLineBytes: defaultMaxLineBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Serve runs the stream loop until EOF, a transport write failure, a
// shutdown request, or context cancellation. It owns exactly one session for
// the lifetime of the stream and dispatches messages in decode order.
//
// A nil return means the stream ended cleanly (EOF or shutdown). A non-nil
// return is the fatal-transport signal: the embedding shell should exit
// non-zero.
func (h *Handler) Serve(ctx context.Context) error {
	log := slog.New(logctx.Handler{Handler: h.log.Handler()})
	sess := engine.NewSession(h.reg, append(h.sessionOpts, engine.WithLogger(log))...)
	defer sess.Close()

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(h.r)
		scanner.Buffer(make([]byte, 64<<10), h.maxLineBytes)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			// Copy: the scanner reuses its buffer across Scan calls. The
			// done branch releases the reader when Serve returns early
			// (shutdown, write failure, cancellation) with input pending.
			select {
			case lines <- append([]byte(nil), line...):
			case <-done:
				return
			}
		}
		readErr <- scanner.Err()
	}()

	log.InfoContext(ctx, "stdio.serve.start")
	for {
		select {
		case <-ctx.Done():
			log.InfoContext(ctx, "stdio.serve.cancel")
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				if err := <-readErr; err != nil {
					log.ErrorContext(ctx, "stdio.read.fail", slog.String("err", err.Error()))
					return fmt.Errorf("read stream: %w", err)
				}
				log.InfoContext(ctx, "stdio.serve.eof")
				return nil
			}

			req, decErr := wire.DecodeRequest(line)
			if decErr != nil {
				log.WarnContext(ctx, "stdio.decode.fail", slog.String("err", decErr.Message))
				if err := h.write(&wire.Response{Error: decErr}); err != nil {
					return err
				}
				continue
			}

			resp := sess.Handle(ctx, req)
			if resp == nil {
				continue
			}
			if err := h.write(resp); err != nil {
				log.ErrorContext(ctx, "stdio.write.fail", slog.String("err", err.Error()))
				return err
			}
			if sess.State() == engine.StateClosed {
				log.InfoContext(ctx, "stdio.serve.shutdown")
				return nil
			}
		}
	}
}

// write emits one newline-delimited response envelope. A failure here is a
// transport error: not reportable to the client, fatal for this session
// only.
func (h *Handler) write(resp *wire.Response) error {
	b, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	if _, err := h.w.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("write stream: %w", err)
	}
	return nil
}

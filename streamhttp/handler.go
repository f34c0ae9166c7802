package streamhttp

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/elnormous/contenttype"
	"github.com/google/uuid"
	"github.com/modelctx/mcp-engine-go/internal/engine"
	"github.com/modelctx/mcp-engine-go/internal/logctx"
	"github.com/modelctx/mcp-engine-go/internal/wire"
	"github.com/modelctx/mcp-engine-go/mcp"
	"github.com/modelctx/mcp-engine-go/registry"
)

var _ http.Handler = (*Handler)(nil)

var (
	jsonMediaType        = contenttype.NewMediaType("application/json")
	eventStreamMediaType = contenttype.NewMediaType("text/event-stream")
	availableMediaTypes  = []contenttype.MediaType{jsonMediaType, eventStreamMediaType}
)

// writeJSONError emits a minimal JSON body for HTTP-layer rejections that
// happen before an envelope exchange is possible. This is transport-level,
// not an envelope. Shape: {"error":{"code":<httpStatus>,"message":"<reason>"}}
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", jsonMediaType.String())
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": status, "message": msg}})
}

// Handler serves the protocol over stateless HTTP. Every POST builds a fresh
// session over the shared registry; concurrent requests are fully
// independent.
type Handler struct {
	mux         *http.ServeMux
	log         *slog.Logger
	reg         *registry.Registry
	sessionOpts []engine.Option
}

// New constructs a Handler serving the protocol at endpoint (a rooted path
// such as "/mcp") plus a GET /health liveness endpoint.
func New(endpoint string, reg *registry.Registry, opts ...Option) (*Handler, error) {
	if reg == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if endpoint == "" || !strings.HasPrefix(endpoint, "/") {
		return nil, fmt.Errorf("endpoint must be a rooted path, got %q", endpoint)
	}

	h := &Handler{reg: reg, log: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	h.log = slog.New(logctx.Handler{Handler: h.log.Handler()})

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+endpoint, h.handlePost)
	mux.HandleFunc("GET "+endpoint, h.handleMethodNotAllowed)
	mux.HandleFunc("DELETE "+endpoint, h.handleMethodNotAllowed)
	mux.HandleFunc("GET /health", h.handleHealth)
	h.mux = mux
	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r.WithContext(logctx.WithRequestData(r.Context(), &logctx.RequestData{
		RequestID:  uuid.NewString(),
		Method:     r.Method,
		RemoteAddr: r.RemoteAddr,
		Path:       r.URL.Path,
	})))
}

// handlePost serves one envelope: decode, dispatch on a request-scoped
// session, encode per the negotiated framing, discard the session.
func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	h.log.InfoContext(ctx, "http.post.start")

	ctype, err := contenttype.GetMediaType(r)
	if err != nil || !ctype.Matches(jsonMediaType) {
		writeJSONError(w, http.StatusUnsupportedMediaType, "content-type must be application/json")
		h.log.WarnContext(ctx, "content_type.unsupported")
		return
	}

	useEventStream := false
	if acc := r.Header.Get("Accept"); acc != "" {
		accepted, _, err := contenttype.GetAcceptableMediaType(r, availableMediaTypes)
		if err != nil {
			writeJSONError(w, http.StatusNotAcceptable, "acceptable media types are application/json and text/event-stream")
			h.log.WarnContext(ctx, "accept.unsupported", slog.String("accept", acc))
			return
		}
		useEventStream = accepted.Matches(eventStreamMediaType)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		h.log.WarnContext(ctx, "json.decode.fail", slog.String("err", err.Error()))
		return
	}
	if len(raw) > 0 && raw[0] == '[' {
		writeJSONError(w, http.StatusBadRequest, "batch arrays are not supported")
		h.log.WarnContext(ctx, "envelope.batch.forbidden")
		return
	}

	req, decErr := wire.DecodeRequest(raw)
	if decErr != nil {
		h.log.WarnContext(ctx, "envelope.decode.fail", slog.String("err", decErr.Message))
		h.writeResponse(w, r, &wire.Response{Error: decErr}, useEventStream, http.StatusBadRequest)
		return
	}

	// Fresh session per request: nothing leaks between requests. A
	// non-initialize envelope starts Ready because no handshake state can
	// persist in the stateless model.
	opts := make([]engine.Option, 0, len(h.sessionOpts)+2)
	opts = append(opts, h.sessionOpts...)
	if req.Method != string(mcp.InitializeMethod) {
		opts = append(opts, engine.WithoutHandshake())
	}
	opts = append(opts, engine.WithLogger(h.log))
	sess := engine.NewSession(h.reg, opts...)
	defer sess.Close()

	resp := sess.Handle(ctx, req)
	if resp == nil {
		// Notification: accepted, nothing to return.
		w.WriteHeader(http.StatusAccepted)
		h.log.InfoContext(ctx, "notification.inbound.ok", slog.Duration("dur", time.Since(start)))
		return
	}

	h.writeResponse(w, r, resp, useEventStream, http.StatusOK)
	h.log.InfoContext(ctx, "rpc.inbound.ok", slog.Duration("dur", time.Since(start)))
}

// writeResponse emits the envelope in the negotiated framing. The framing
// changes only the wire shape, never the logical result.
func (h *Handler) writeResponse(w http.ResponseWriter, r *http.Request, resp *wire.Response, useEventStream bool, status int) {
	b, err := json.Marshal(resp)
	if err != nil {
		h.log.ErrorContext(r.Context(), "response.marshal.fail", slog.String("err", err.Error()))
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
		return
	}

	if useEventStream {
		w.Header().Set("Content-Type", eventStreamMediaType.String())
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(status)
		if err := writeSSEEvent(w, uuid.NewString(), b); err != nil {
			// Channel is gone; nothing further may be written.
			h.log.ErrorContext(r.Context(), "sse.write.fail", slog.String("err", err.Error()))
		}
		return
	}

	w.Header().Set("Content-Type", jsonMediaType.String())
	w.WriteHeader(status)
	if _, err := w.Write(b); err != nil {
		h.log.ErrorContext(r.Context(), "response.write.fail", slog.String("err", err.Error()))
	}
}

func (h *Handler) handleMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", http.MethodPost)
	writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	h.log.InfoContext(r.Context(), "http.method.rejected", slog.String("method", r.Method))
}

// handleHealth serves the deployment liveness probe. It is independent of
// the protocol and never touches the dispatcher.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", jsonMediaType.String())
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

// writeSSEEvent frames one envelope as a single Server-Sent Event and
// flushes it.
func writeSSEEvent(w http.ResponseWriter, eventID string, payload []byte) error {
	if eventID != "" {
		if _, err := fmt.Fprintf(w, "id: %s\n", eventID); err != nil {
			return fmt.Errorf("failed to write SSE event id: %w", err)
		}
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("failed to write SSE payload: %w", err)
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

// Package stdio implements the line-delimited stream transport: one JSON
// envelope per line on an input stream, one JSON envelope per line on an
// output stream. A single long-lived session serves the whole stream, so the
// initialize handshake is mandatory before any other request.
//
// Characteristics
//
//	Connection model : 1 process <-> 1 client
//	Sessions         : one per Serve call, ephemeral
//	Ordering         : requests are dispatched in decode order
//
// Options allow supplying alternate io.Reader / io.Writer or a custom
// logger. Logs must never go to the output stream; route them to stderr or a
// file.
//
// Example:
//
//	reg := registry.New()
//	// registry.RegisterTool(...), etc.
//	h := stdio.NewHandler(reg, stdio.WithServerInfo(mcp.ImplementationInfo{Name: "hello", Version: "0.1.0"}))
//	if err := h.Serve(context.Background()); err != nil {
//		os.Exit(1)
//	}
package stdio

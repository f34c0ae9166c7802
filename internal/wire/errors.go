package wire

// ErrorCode classifies a protocol error in a response envelope.
type ErrorCode int

const (
	// CodeParseError indicates the inbound bytes were not valid JSON.
	CodeParseError ErrorCode = -32700
	// CodeInvalidRequest indicates a structurally invalid envelope.
	CodeInvalidRequest ErrorCode = -32600
	// CodeMethodNotFound indicates an unrecognized method string.
	CodeMethodNotFound ErrorCode = -32601
	// CodeInvalidParams indicates params that fail validation, including
	// unknown tool names and schema violations.
	CodeInvalidParams ErrorCode = -32602
	// CodeInternalError indicates a handler failure of unknown kind.
	CodeInternalError ErrorCode = -32603
	// CodeNotInitialized indicates a request received before the initialize
	// handshake completed (a sequencing error, recoverable).
	CodeNotInitialized ErrorCode = -32002
	// CodeResourceNotFound indicates no resource template matched the
	// requested URI.
	CodeResourceNotFound ErrorCode = -32004
)

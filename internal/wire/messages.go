// Package wire implements the envelope layer: one correlation-bearing
// message per line or HTTP body, decoded into a Request and answered with a
// Response that carries exactly one of result or error.
//
// The envelope is intentionally minimal:
//
//	Request:  { "id"?: string|number, "method": string, "params"?: object }
//	Response: { "id": string|number, "result"?: object } |
//	          { "id": string|number, "error": { "code": int, "message": string } }
//
// A "jsonrpc" version field sent by richer clients is tolerated and ignored.
package wire

import (
	"encoding/json"
	"fmt"
)

// Request is one decoded client envelope. A nil or absent ID marks a
// fire-and-forget notification.
type Request struct {
	ID     *RequestID      `json:"id,omitempty"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the request expects no response.
func (r *Request) IsNotification() bool {
	return r.ID.IsNil()
}

// Response is one outbound envelope. Exactly one of Result and Error is
// populated; constructors below enforce this.
type Response struct {
	ID     *RequestID      `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *Error          `json:"error,omitempty"`
}

// Error is the failure half of a response envelope.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Data    any       `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("protocol error %d: %s", e.Code, e.Message)
}

// NewResultResponse builds a success response carrying the marshaled result.
func NewResultResponse(id *RequestID, result any) (*Response, error) {
	b, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return &Response{ID: id, Result: b}, nil
}

// NewErrorResponse builds an error response with the given code and message.
func NewErrorResponse(id *RequestID, code ErrorCode, message string) *Response {
	return &Response{ID: id, Error: &Error{Code: code, Message: message}}
}

// DecodeRequest parses and structurally validates one request envelope.
// Malformed JSON maps to CodeParseError; a missing method or a message that
// carries result/error fields maps to CodeInvalidRequest. The returned *Error
// is nil on success.
func DecodeRequest(data []byte) (*Request, *Error) {
	var raw struct {
		// The version field is accepted for compatibility and discarded.
		JSONRPCVersion string          `json:"jsonrpc"`
		ID             *RequestID      `json:"id,omitempty"`
		Method         string          `json:"method"`
		Params         json.RawMessage `json:"params,omitempty"`
		Result         json.RawMessage `json:"result,omitempty"`
		Error          *Error          `json:"error,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &Error{Code: CodeParseError, Message: "invalid JSON: " + err.Error()}
	}
	if raw.Method == "" {
		return nil, &Error{Code: CodeInvalidRequest, Message: "request envelope requires a method"}
	}
	if len(raw.Result) > 0 || raw.Error != nil {
		return nil, &Error{Code: CodeInvalidRequest, Message: "request envelope cannot carry result or error fields"}
	}
	return &Request{ID: raw.ID, Method: raw.Method, Params: raw.Params}, nil
}

package jsonrpc

import "encoding/json"

const Version = "2.0"

// Reserved error codes. Callers branch on these to tell a missing method
// from a failing handler.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	CodeHandlerError = -32000
)

type Request struct {
	JSONRPC string `json:"jsonrpc"`

	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`

	ID json.RawMessage `json:"id"`
}

type Response struct {
	JSONRPC string `json:"jsonrpc"`

	Result any    `json:"result,omitempty"`
	Error  *Error `json:"error,omitempty"`

	ID json.RawMessage `json:"id"`
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

func NewResponse(id json.RawMessage, result any) Response {
	return Response{
		JSONRPC: Version,

		Result: result,

		ID: normalizeID(id),
	}
}

func NewErrorResponse(id json.RawMessage, code int, message string) Response {
	return Response{
		JSONRPC: Version,

		Error: &Error{
			Code:    code,
			Message: message,
		},

		ID: normalizeID(id),
	}
}

func normalizeID(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}

	return id
}

// Package message defines the JSON-RPC 2.0 messages exchanged between a client and a server.
//
// Four shapes exist on the wire:
//
//	request       {"jsonrpc":"2.0","method":"m","params":[...],"id":1}
//	notification  {"jsonrpc":"2.0","method":"m","params":{...}}
//	cancellation  {"jsonrpc":"2.0","method":"$/cancelRequest","params":{"id":1}}
//	response      {"jsonrpc":"2.0","result":...,"id":1} or {"jsonrpc":"2.0","error":{...},"id":1}
//
// Builders in this package reject malformed values before they reach a transport,
// and ParseResponse validates replies coming back from one.
package message

import (
	"encoding/json"
	"fmt"
)

// Version is the only protocol version supported.
const Version = "2.0"

// CancelMethod is the method name of a cancellation notification.
const CancelMethod = "$/cancelRequest"

// ReservedPrefix marks method names reserved for protocol-internal use.
const ReservedPrefix = "rpc."

// Request is a call (ID set) or a notification (ID nil).
//
// ID is a pointer so that 0 remains a usable id.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"` // JSON array (positional) or object (named)
	ID      *int64          `json:"id,omitempty"`
}

// IsNotification reports whether the request expects no response.
func (r Request) IsNotification() bool {
	return r.ID == nil
}

// CancelParams identifies the call being cancelled.
type CancelParams struct {
	ID int64 `json:"id"`
}

// CancelRequest asks the server to abandon a pending call. It is notification-shaped.
type CancelRequest struct {
	JSONRPC string       `json:"jsonrpc"`
	Method  string       `json:"method"`
	Params  CancelParams `json:"params"`
}

// Response carries exactly one of Result or Error.
//
// A JSON null result is kept as the raw bytes "null" and still counts as a result.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      *int64          `json:"id"`
}

// Error is a JSON-RPC error object. It satisfies the error interface so a failed
// response can be returned directly to callers.
type Error struct {
	Code    ErrorCode       `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d (%s): %s", int64(e.Code), e.Code, e.Message)
}

// NewError creates an error object with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// ErrorCode is the closed set of error classifications understood by this package.
type ErrorCode int64

const (
	CodeParseError     ErrorCode = -32700
	CodeInvalidRequest ErrorCode = -32600
	CodeMethodNotFound ErrorCode = -32601
	CodeInvalidParams  ErrorCode = -32602
	CodeInternalError  ErrorCode = -32603

	// CodeRequestCancelled is not part of JSON-RPC 2.0. It uses the value the
	// Language Server Protocol assigns to a cancelled request.
	CodeRequestCancelled ErrorCode = -32800

	// CodeServerError stands for every code in the implementation-defined
	// server-error range.
	CodeServerError ErrorCode = -32000
)

// Bounds of the implementation-defined server-error range, inclusive.
const (
	ServerErrorMin int64 = -32099
	ServerErrorMax int64 = -32000
)

func (c ErrorCode) String() string {
	switch c {
	case CodeParseError:
		return "parse error"
	case CodeInvalidRequest:
		return "invalid request"
	case CodeMethodNotFound:
		return "method not found"
	case CodeInvalidParams:
		return "invalid params"
	case CodeInternalError:
		return "internal error"
	case CodeRequestCancelled:
		return "request cancelled"
	case CodeServerError:
		return "server error"
	default:
		return "unknown error"
	}
}

// IsRecognizedCode reports whether code is one of the enumerated codes or lies in
// the server-error range. Anything else is rejected by BuildError.
func IsRecognizedCode(code int64) bool {
	switch ErrorCode(code) {
	case CodeParseError, CodeInvalidRequest, CodeMethodNotFound, CodeInvalidParams,
		CodeInternalError, CodeRequestCancelled:
		return true
	}
	return code >= ServerErrorMin && code <= ServerErrorMax
}

// NormalizeCode maps a recognized code onto the ErrorCode enumeration.
// Codes from the server-error range collapse to CodeServerError.
func NormalizeCode(code int64) ErrorCode {
	switch c := ErrorCode(code); c {
	case CodeParseError, CodeInvalidRequest, CodeMethodNotFound, CodeInvalidParams,
		CodeInternalError, CodeRequestCancelled:
		return c
	default:
		return CodeServerError
	}
}

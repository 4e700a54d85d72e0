package message

import "fmt"

// RequestError reports an outbound message that is malformed. It is always raised
// before anything is handed to a transport.
type RequestError struct {
	Msg string
	Err error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *RequestError) Unwrap() error { return e.Err }

// NewRequestError formats a RequestError.
func NewRequestError(format string, args ...any) *RequestError {
	return &RequestError{Msg: fmt.Sprintf(format, args...)}
}

// ResponseError reports a reply that violates the protocol: bad shape, wrong
// cardinality, result and error together, or an unusable error object.
type ResponseError struct {
	Msg string
	Err error
}

func (e *ResponseError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *ResponseError) Unwrap() error { return e.Err }

// NewResponseError formats a ResponseError.
func NewResponseError(format string, args ...any) *ResponseError {
	return &ResponseError{Msg: fmt.Sprintf(format, args...)}
}

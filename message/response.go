package message

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// ErrorFields holds the members of a reply's error object as they were found on
// the wire. A nil field was absent.
type ErrorFields struct {
	Code    *int64
	Message *string
	Data    json.RawMessage
}

func (f ErrorFields) empty() bool {
	return f.Code == nil && f.Message == nil && len(f.Data) == 0
}

type wireError struct {
	Code    json.RawMessage `json:"code"`
	Message *string         `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type wireResponse struct {
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *wireError      `json:"error"`
}

// ParseResponse decodes and validates one response object.
func ParseResponse(data []byte) (Response, error) {
	if err := validateEnvelope(data); err != nil {
		return Response{}, err
	}

	var w wireResponse
	if err := json.Unmarshal(data, &w); err != nil {
		return Response{}, &ResponseError{Msg: "response can't be decoded", Err: err}
	}

	var id *int64
	if len(w.ID) > 0 && !bytes.Equal(w.ID, []byte("null")) {
		n, ok := parseInteger(w.ID)
		if !ok {
			return Response{}, NewResponseError("response id has to be an integer")
		}
		id = &n
	}

	var fields ErrorFields
	if w.Error != nil {
		if len(w.Error.Code) > 0 {
			code, ok := parseInteger(w.Error.Code)
			if !ok {
				return Response{}, NewResponseError("error code has to be an integer")
			}
			fields.Code = &code
		}
		fields.Message = w.Error.Message
		fields.Data = w.Error.Data
	}

	return BuildResponse(id, w.Result, fields)
}

// BuildResponse assembles a response from its decoded parts. A response carries
// exactly one of a result or an error.
func BuildResponse(id *int64, result json.RawMessage, fields ErrorFields) (Response, error) {
	rpcErr, err := BuildError(fields)
	if err != nil {
		return Response{}, err
	}

	if result != nil && rpcErr != nil {
		return Response{}, NewResponseError("a successful response can't contain an error and a failed response can't contain a result")
	}

	res := Response{JSONRPC: Version, ID: id}
	switch {
	case result != nil:
		res.Result = result
	case rpcErr != nil:
		res.Error = rpcErr
	default:
		return Response{}, NewResponseError("response has to contain either a result or an error")
	}
	return res, nil
}

// BuildError assembles an error object. It returns nil, nil when no error member
// is present at all.
func BuildError(fields ErrorFields) (*Error, error) {
	if fields.empty() {
		return nil, nil
	}
	if fields.Code == nil || fields.Message == nil {
		return nil, NewResponseError("error code and error message must be properly defined, got %s %s",
			describe(fields.Code), describeString(fields.Message))
	}
	if !IsRecognizedCode(*fields.Code) {
		return nil, NewResponseError("unrecognized error code, got %d", *fields.Code)
	}

	return &Error{
		Code:    NormalizeCode(*fields.Code),
		Message: *fields.Message,
		Data:    fields.Data,
	}, nil
}

// DecodeResult unmarshals the result of resp into out. A failed response yields
// its *Error instead.
func DecodeResult(resp Response, out any) error {
	if resp.Error != nil {
		return resp.Error
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Result, out); err != nil {
		return &ResponseError{Msg: "result can't be decoded", Err: err}
	}
	return nil
}

func describe(code *int64) string {
	if code == nil {
		return "<missing>"
	}
	return strconv.FormatInt(*code, 10)
}

func describeString(s *string) string {
	if s == nil {
		return "<missing>"
	}
	return *s
}

package message

import (
	"bytes"
	"encoding/json"
	"strings"
)

// NewNotification builds a request without an id. Params are omitted when nil.
func NewNotification(method string, params any) (Request, error) {
	raw, err := encodeParams(params)
	if err != nil {
		return Request{}, err
	}
	return Request{JSONRPC: Version, Method: method, Params: raw}, nil
}

// NewRequest builds a call. The id is always emitted, including 0.
//
//	NewRequest("myMethod", 2, nil) → {"jsonrpc":"2.0","method":"myMethod","id":2}
func NewRequest(method string, id int64, params any) (Request, error) {
	req, err := NewNotification(method, params)
	if err != nil {
		return Request{}, err
	}
	req.ID = &id
	return req, nil
}

// NewCancelRequest builds the cancellation notification for the call with the given id.
func NewCancelRequest(id int64) CancelRequest {
	return CancelRequest{
		JSONRPC: Version,
		Method:  CancelMethod,
		Params:  CancelParams{ID: id},
	}
}

// CheckMethod rejects method names in the reserved "rpc." namespace.
func CheckMethod(method string) error {
	if strings.HasPrefix(method, ReservedPrefix) {
		return NewRequestError("method names starting with %q are reserved for internal use, got %s", ReservedPrefix, method)
	}
	return nil
}

// ParseRequest decodes a single request object, applying the type rules that the
// builders get for free from Go's type system: method must be a string, id must
// be an integer, params must be an array or an object.
func ParseRequest(data []byte) (Request, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Request{}, &RequestError{Msg: "request has to be a json object", Err: err}
	}

	var version string
	if err := json.Unmarshal(fields["jsonrpc"], &version); err != nil || version != Version {
		return Request{}, NewRequestError("jsonrpc has to be %q", Version)
	}

	var method string
	rawMethod, ok := fields["method"]
	if !ok || !isString(rawMethod) || json.Unmarshal(rawMethod, &method) != nil {
		return Request{}, NewRequestError("method has to be a string")
	}

	req := Request{JSONRPC: Version, Method: method}

	if rawID, ok := fields["id"]; ok {
		id, ok := parseInteger(rawID)
		if !ok {
			return Request{}, NewRequestError("id has to be an integer")
		}
		req.ID = &id
	}

	if rawParams, ok := fields["params"]; ok {
		if !isStructured(rawParams) {
			return Request{}, NewRequestError("params has to be an array or an object")
		}
		req.Params = rawParams
	}

	return req, nil
}

func encodeParams(params any) (json.RawMessage, error) {
	if params == nil {
		return nil, nil
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, &RequestError{Msg: "params can't be encoded", Err: err}
	}
	raw = bytes.TrimSpace(raw)
	if bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if !isStructured(raw) {
		return nil, NewRequestError("params has to be an array or an object")
	}
	return raw, nil
}

func isString(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '"'
}

func isStructured(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && (raw[0] == '[' || raw[0] == '{')
}

// parseInteger accepts JSON numbers with an integral value, e.g. 2 or 2.0.
func parseInteger(raw json.RawMessage) (int64, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, false
	}
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	if i, err := n.Int64(); err == nil {
		return i, true
	}
	f, err := n.Float64()
	if err != nil || f != float64(int64(f)) {
		return 0, false
	}
	return int64(f), true
}

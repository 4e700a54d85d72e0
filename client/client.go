// Package client implements the JSON-RPC 2.0 connection: it sends single
// requests or batches through a transport.Transport and turns the reply into
// validated responses.
//
// One call goes through
//
//	Validating → Sending → AwaitingReply → Resolved | Rejected
//
// Validating rejects reserved method names before the transport is touched.
// AwaitingReply is the only point where the caller blocks; it ends when the
// transport calls back or the caller's context is done. There is no timeout of
// its own and no retry.
//
// Responses are returned in the order the transport delivered them. They are not
// matched to requests by id.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"mini-jsonrpc/codec"
	"mini-jsonrpc/message"
	"mini-jsonrpc/transport"
)

// Connection correlates requests with replies over a caller-owned transport.
// It is safe for concurrent use; every call keeps its own pending state.
type Connection struct {
	transport transport.Transport // not owned, never closed here
	codec     codec.Codec
	logger    *zap.Logger
	nextID    atomic.Int64
}

type Option func(*Connection)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Connection) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCodec replaces the JSON codec used for outgoing payloads.
func WithCodec(cdc codec.Codec) Option {
	return func(c *Connection) {
		if cdc != nil {
			c.codec = cdc
		}
	}
}

func NewConnection(t transport.Transport, opts ...Option) *Connection {
	c := &Connection{
		transport: t,
		codec:     codec.Default(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NextID returns a fresh request id. Ids start at 1.
func (c *Connection) NextID() int64 {
	return c.nextID.Add(1)
}

// SendRPC sends requests as one exchange and waits for the reply.
//
// A single request goes out as a bare object, two or more as an array. The reply
// must hold one response per request that has an id; notifications get none.
// A batch made only of notifications returns an empty slice once it is sent.
func (c *Connection) SendRPC(ctx context.Context, requests []message.Request) ([]message.Response, error) {
	batch, err := c.validate(requests)
	if err != nil {
		return nil, err
	}

	payload, err := c.encode(batch)
	if err != nil {
		return nil, err
	}

	expected := countCalls(batch)
	replies := make(chan string, 1)
	onResult := transport.Once(func(reply string) {
		replies <- reply
	})

	c.logger.Debug("sending rpc", zap.Int("batch_size", len(batch)), zap.Int("calls", expected))
	if err := c.transport.Send(string(payload), onResult); err != nil {
		return nil, fmt.Errorf("send rpc: %w", err)
	}

	if expected == 0 {
		return []message.Response{}, nil
	}

	select {
	case reply := <-replies:
		responses, err := c.decode(reply, expected)
		if err != nil {
			c.logger.Debug("rejecting reply", zap.Error(err))
			return nil, err
		}
		return responses, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// CancelRequest tells the peer to abandon a call. It is best effort: it does not
// wait, it never fails, and the pending SendRPC for that call keeps waiting.
func (c *Connection) CancelRequest(cancel message.CancelRequest) {
	payload, err := c.codec.Encode(cancel)
	if err != nil {
		c.logger.Warn("failed to encode cancellation", zap.Int64("id", cancel.Params.ID), zap.Error(err))
		return
	}

	err = c.transport.Send(string(payload), transport.Once(func(string) {
		c.logger.Info("cancellation request sent",
			zap.Int64("id", cancel.Params.ID),
			zap.String("method", cancel.Method))
	}))
	if err != nil {
		c.logger.Warn("failed to send cancellation", zap.Int64("id", cancel.Params.ID), zap.Error(err))
	}
}

// Cancel is CancelRequest for the call with the given id.
func (c *Connection) Cancel(id int64) {
	c.CancelRequest(message.NewCancelRequest(id))
}

// Call sends one request with a fresh id and decodes its result into out.
// A JSON-RPC error from the peer is returned as *message.Error.
func (c *Connection) Call(ctx context.Context, method string, params any, out any) error {
	req, err := message.NewRequest(method, c.NextID(), params)
	if err != nil {
		return err
	}
	responses, err := c.SendRPC(ctx, []message.Request{req})
	if err != nil {
		return err
	}
	return message.DecodeResult(responses[0], out)
}

// Notify sends a notification. It returns once the transport accepted it.
func (c *Connection) Notify(ctx context.Context, method string, params any) error {
	n, err := message.NewNotification(method, params)
	if err != nil {
		return err
	}
	_, err = c.SendRPC(ctx, []message.Request{n})
	return err
}

// validate checks every request before anything is sent and fills in the
// protocol version where the caller left it empty.
func (c *Connection) validate(requests []message.Request) ([]message.Request, error) {
	if len(requests) == 0 {
		return nil, message.NewRequestError("batch has to contain at least one request")
	}

	batch := make([]message.Request, len(requests))
	for i, req := range requests {
		if err := message.CheckMethod(req.Method); err != nil {
			return nil, err
		}
		switch req.JSONRPC {
		case "":
			req.JSONRPC = message.Version
		case message.Version:
		default:
			return nil, message.NewRequestError("jsonrpc has to be %q, got %q", message.Version, req.JSONRPC)
		}
		batch[i] = req
	}
	return batch, nil
}

// encode keeps a lone request as a bare object; many servers do not accept a
// one-element batch.
func (c *Connection) encode(batch []message.Request) ([]byte, error) {
	var v any = batch
	if len(batch) == 1 {
		v = batch[0]
	}
	payload, err := c.codec.Encode(v)
	if err != nil {
		return nil, &message.RequestError{Msg: "requests can't be encoded", Err: err}
	}
	return payload, nil
}

// decode treats a bare object reply as a one-element batch, checks the count and
// validates each response. Any failure rejects the whole call.
func (c *Connection) decode(reply string, expected int) ([]message.Response, error) {
	data := bytes.TrimSpace([]byte(reply))
	if len(data) == 0 {
		return nil, message.NewResponseError("empty reply")
	}

	var raws []json.RawMessage
	if data[0] == '[' {
		if err := c.codec.Decode(data, &raws); err != nil {
			return nil, &message.ResponseError{Msg: "reply is not valid json", Err: err}
		}
	} else {
		if !json.Valid(data) {
			return nil, message.NewResponseError("reply is not valid json")
		}
		raws = []json.RawMessage{data}
	}

	if len(raws) != expected {
		return nil, message.NewResponseError("number of responses must match number of requests, got %d responses for %d requests",
			len(raws), expected)
	}

	responses := make([]message.Response, 0, len(raws))
	for _, raw := range raws {
		res, err := message.ParseResponse(raw)
		if err != nil {
			return nil, err
		}
		responses = append(responses, res)
	}
	return responses, nil
}

func countCalls(requests []message.Request) int {
	n := 0
	for _, req := range requests {
		if !req.IsNotification() {
			n++
		}
	}
	return n
}

package rpctest

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mini-jsonrpc/message"
)

type Args struct {
	A int `json:"a"`
	B int `json:"b"`
}

type Reply struct {
	Result int `json:"result"`
}

type Arith struct{}

func (a *Arith) Add(args *Args, reply *Reply) error {
	reply.Result = args.A + args.B
	return nil
}

func (a *Arith) Divide(args *Args, reply *Reply) error {
	if args.B == 0 {
		return message.NewError(message.CodeInvalidParams, "division by zero")
	}
	reply.Result = args.A / args.B
	return nil
}

func (a *Arith) Fail(args *Args, reply *Reply) error {
	return errors.New("boom")
}

func newArithServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	svr := NewServer(opts...)
	require.NoError(t, svr.Register(&Arith{}))
	return svr
}

func TestServerHandle(t *testing.T) {
	svr := newArithServer(t)

	tests := []struct {
		name    string
		payload string
		expect  string
	}{
		{
			name:    "named params",
			payload: `{"jsonrpc":"2.0","method":"Arith.Add","params":{"a":1,"b":2},"id":1}`,
			expect:  `{"jsonrpc":"2.0","result":{"result":3},"id":1}`,
		},
		{
			name:    "positional params",
			payload: `{"jsonrpc":"2.0","method":"Arith.Add","params":[10,20],"id":2}`,
			expect:  `{"jsonrpc":"2.0","result":{"result":30},"id":2}`,
		},
		{
			name:    "wrong number of positional params",
			payload: `{"jsonrpc":"2.0","method":"Arith.Add","params":[10],"id":3}`,
			expect:  `{"jsonrpc":"2.0","error":{"code":-32602,"message":"invalid number of params, got 1 want 2"},"id":3}`,
		},
		{
			name:    "method error object",
			payload: `{"jsonrpc":"2.0","method":"Arith.Divide","params":{"a":1,"b":0},"id":4}`,
			expect:  `{"jsonrpc":"2.0","error":{"code":-32602,"message":"division by zero"},"id":4}`,
		},
		{
			name:    "plain method error",
			payload: `{"jsonrpc":"2.0","method":"Arith.Fail","params":{},"id":5}`,
			expect:  `{"jsonrpc":"2.0","error":{"code":-32603,"message":"boom"},"id":5}`,
		},
		{
			name:    "unknown method",
			payload: `{"jsonrpc":"2.0","method":"Arith.Pow","id":6}`,
			expect:  `{"jsonrpc":"2.0","error":{"code":-32601,"message":"method not found: Arith.Pow"},"id":6}`,
		},
		{
			name:    "parse error",
			payload: `{"jsonrpc":`,
			expect:  `{"jsonrpc":"2.0","error":{"code":-32700,"message":"parse error"},"id":null}`,
		},
		{
			name:    "empty batch",
			payload: `[]`,
			expect:  `{"jsonrpc":"2.0","error":{"code":-32600,"message":"invalid request"},"id":null}`,
		},
		{
			name:    "batch skips notifications",
			payload: `[{"jsonrpc":"2.0","method":"Arith.Add","params":[1,1],"id":1},{"jsonrpc":"2.0","method":"Arith.Add","params":[2,2]},{"jsonrpc":"2.0","method":"Arith.Add","params":[3,3],"id":3}]`,
			expect:  `[{"jsonrpc":"2.0","result":{"result":2},"id":1},{"jsonrpc":"2.0","result":{"result":6},"id":3}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, ok := svr.Handle(tt.payload)
			require.True(t, ok)
			assert.JSONEq(t, tt.expect, reply)
		})
	}
}

func TestServerNotificationsGetNoReply(t *testing.T) {
	svr := newArithServer(t)

	_, ok := svr.Handle(`{"jsonrpc":"2.0","method":"Arith.Add","params":[1,2]}`)
	assert.False(t, ok)

	_, ok = svr.Handle(`[{"jsonrpc":"2.0","method":"Arith.Add","params":[1,2]},{"jsonrpc":"2.0","method":"Arith.Fail","params":{}}]`)
	assert.False(t, ok)
}

func TestServerInvalidRequest(t *testing.T) {
	svr := newArithServer(t)

	reply, ok := svr.Handle(`{"jsonrpc":"2.0","method":2,"id":2}`)
	require.True(t, ok)

	var res message.Response
	require.NoError(t, json.Unmarshal([]byte(reply), &res))
	require.NotNil(t, res.Error)
	assert.Equal(t, message.CodeInvalidRequest, res.Error.Code)
	assert.Contains(t, res.Error.Message, "method has to be a string")
}

func TestServerSendIsAsynchronous(t *testing.T) {
	svr := newArithServer(t, WithDelay(20*time.Millisecond))

	replies := make(chan string, 1)
	payload := `{"jsonrpc":"2.0","method":"Arith.Add","params":[1,2],"id":1}`
	require.NoError(t, svr.Send(payload, func(reply string) { replies <- reply }))

	select {
	case <-replies:
		t.Fatal("reply delivered before the delay elapsed")
	default:
	}

	select {
	case reply := <-replies:
		assert.JSONEq(t, `{"jsonrpc":"2.0","result":{"result":3},"id":1}`, reply)
	case <-time.After(time.Second):
		t.Fatal("no reply")
	}
	assert.Equal(t, []string{payload}, svr.Received())
}

func TestServerRecordsCancellation(t *testing.T) {
	svr := newArithServer(t)

	require.NoError(t, svr.Send(`{"jsonrpc":"2.0","method":"$/cancelRequest","params":{"id":7}}`, func(string) {
		t.Error("cancellation must not be answered")
	}))
	svr.Wait()

	assert.Equal(t, []int64{7}, svr.Cancelled())
}

func TestServerRegister(t *testing.T) {
	svr := NewServer()
	require.NoError(t, svr.Register(&Arith{}))
	assert.Error(t, svr.Register(&Arith{}), "duplicate service")
	assert.Error(t, svr.Register(Arith{}), "non-pointer receiver")

	type Empty struct{}
	assert.Error(t, svr.Register(&Empty{}), "no rpc methods")
}

package middleware

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"mini-jsonrpc/transport"
)

// echoTransport answers every payload with "ok".
var echoTransport = transport.Func(func(payload string, onResult func(string)) error {
	onResult("ok")
	return nil
})

var brokenTransport = transport.Func(func(payload string, onResult func(string)) error {
	return errors.New("connection refused")
})

func TestLogging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	tr := LoggingMiddleware(zap.New(core))(echoTransport)

	var reply string
	require.NoError(t, tr.Send("payload", func(r string) { reply = r }))
	assert.Equal(t, "ok", reply)

	assert.Equal(t, 1, logs.FilterMessage("sending payload").Len())
	received := logs.FilterMessage("received reply").All()
	require.Len(t, received, 1)
	assert.Equal(t, int64(2), received[0].ContextMap()["bytes"])
}

func TestLoggingSendError(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	tr := LoggingMiddleware(zap.New(core))(brokenTransport)

	err := tr.Send("payload", func(string) { t.Fatal("unexpected reply") })
	require.Error(t, err)
	assert.Equal(t, 1, logs.FilterMessage("send failed").Len())
}

func TestRateLimit(t *testing.T) {
	// rate=1 per second, burst=2: the first 2 pass, the third is rejected
	tr := RateLimitMiddleware(1, 2)(echoTransport)

	for i := 0; i < 2; i++ {
		require.NoError(t, tr.Send("payload", func(string) {}), "request %d should pass", i)
	}

	err := tr.Send("payload", func(string) { t.Fatal("rate limited send must not reply") })
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestChain(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next transport.Transport) transport.Transport {
			return transport.Func(func(payload string, onResult func(string)) error {
				order = append(order, name)
				return next.Send(payload, onResult)
			})
		}
	}

	tr := Chain(mark("a"), LoggingMiddleware(nil), mark("b"), RateLimitMiddleware(100, 10))(echoTransport)

	var reply string
	require.NoError(t, tr.Send("payload", func(r string) { reply = r }))
	assert.Equal(t, "ok", reply)
	assert.Equal(t, []string{"a", "b"}, order)
}

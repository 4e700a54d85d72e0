package transport

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFunc(t *testing.T) {
	var sent string
	var tr Transport = Func(func(payload string, onResult func(string)) error {
		sent = payload
		onResult(`{"jsonrpc":"2.0","result":1,"id":1}`)
		return nil
	})

	var got string
	require.NoError(t, tr.Send(`{"jsonrpc":"2.0","method":"m","id":1}`, func(reply string) { got = reply }))
	assert.Equal(t, `{"jsonrpc":"2.0","method":"m","id":1}`, sent)
	assert.Equal(t, `{"jsonrpc":"2.0","result":1,"id":1}`, got)
}

// Concurrent invocations of a Once-wrapped callback deliver exactly one reply.
func TestOnceConcurrent(t *testing.T) {
	var calls atomic.Int32
	var first atomic.Value
	onResult := Once(func(reply string) {
		calls.Add(1)
		first.Store(reply)
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			onResult("reply")
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "reply", first.Load())
}

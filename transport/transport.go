// Package transport defines the channel a connection talks through.
//
// A Transport moves one serialized request (or batch) to the peer and, when the
// peer answers, calls onResult with the raw reply. Sockets, child processes and
// websockets all fit behind it; none is provided here.
//
//	caller ──Send(payload, onResult)──→ Transport ──→ peer
//	                                       │
//	caller ←── onResult(reply) ←───────────┘   (any goroutine, at most once)
package transport

import "sync"

// Transport delivers payloads and reports replies.
//
// Send returns an error only when the payload could not be handed off. onResult
// may run on any goroutine, must be called at most once and is never called for
// payloads that contain only notifications. The transport decides whether
// concurrent Sends are serialized or interleaved.
type Transport interface {
	Send(payload string, onResult func(reply string)) error
}

// Func adapts an ordinary function to the Transport interface.
type Func func(payload string, onResult func(reply string)) error

func (f Func) Send(payload string, onResult func(reply string)) error {
	return f(payload, onResult)
}

// Once wraps onResult so that only its first invocation is delivered. Later
// invocations from a misbehaving transport are dropped.
func Once(onResult func(reply string)) func(reply string) {
	var once sync.Once
	return func(reply string) {
		once.Do(func() { onResult(reply) })
	}
}

// Package middleware decorates a transport.Transport with cross-cutting behavior.
package middleware

import "mini-jsonrpc/transport"

type Middleware func(next transport.Transport) transport.Transport

// Chain combines several middlewares into one.
// Chain(A, B)(t) sends through A first, then B, then t.
func Chain(middlewares ...Middleware) Middleware {
	return func(next transport.Transport) transport.Transport {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

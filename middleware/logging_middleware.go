package middleware

import (
	"time"

	"go.uber.org/zap"

	"mini-jsonrpc/transport"
)

// LoggingMiddleware logs every payload handed to the transport and the round trip
// of its reply.
func LoggingMiddleware(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next transport.Transport) transport.Transport {
		return transport.Func(func(payload string, onResult func(string)) error {
			start := time.Now()
			logger.Debug("sending payload", zap.Int("bytes", len(payload)))

			err := next.Send(payload, func(reply string) {
				logger.Debug("received reply",
					zap.Int("bytes", len(reply)),
					zap.Duration("duration", time.Since(start)))
				onResult(reply)
			})
			if err != nil {
				logger.Warn("send failed", zap.Error(err))
			}
			return err
		})
	}
}

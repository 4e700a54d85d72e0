// Package rpctest provides an in-process JSON-RPC 2.0 peer for tests.
//
// A Server implements transport.Transport, so a client.Connection can talk to it
// directly. Replies are produced on a separate goroutine, like a real transport
// would deliver them.
//
// Request processing:
//
//	Send → record payload → go: Handle
//	  → single object or batch → ParseRequest → service lookup → reflect.Call
//	  → collect responses (none for notifications) → onResult(reply)
package rpctest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"mini-jsonrpc/message"
)

// Server is a JSON-RPC peer with reflection-registered services.
type Server struct {
	mu         sync.Mutex
	serviceMap map[string]*service // "Arith" → *service
	received   []string
	cancelled  []int64
	delay      time.Duration
	logger     *zap.Logger
	wg         sync.WaitGroup // tracks replies still being produced
}

type Option func(*Server)

// WithDelay holds every reply back for d.
func WithDelay(d time.Duration) Option {
	return func(s *Server) { s.delay = d }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewServer(opts ...Option) *Server {
	s := &Server{
		serviceMap: make(map[string]*service),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register exposes the exported methods of rcvr (e.g. &Arith{}) as "Arith.Method".
func (s *Server) Register(rcvr any) error {
	svc, err := newService(rcvr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.serviceMap[svc.name]; dup {
		return fmt.Errorf("rpctest: service already defined: %s", svc.name)
	}
	s.serviceMap[svc.name] = svc
	return nil
}

// Send implements transport.Transport. It records the payload and answers
// asynchronously; payloads made only of notifications get no answer.
func (s *Server) Send(payload string, onResult func(reply string)) error {
	s.mu.Lock()
	s.received = append(s.received, payload)
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if s.delay > 0 {
			time.Sleep(s.delay)
		}
		if reply, ok := s.Handle(payload); ok {
			onResult(reply)
		}
	}()
	return nil
}

// Wait blocks until every reply that was started has been delivered.
func (s *Server) Wait() {
	s.wg.Wait()
}

// Received returns the payloads passed to Send, in arrival order.
func (s *Server) Received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.received...)
}

// Cancelled returns the ids named by $/cancelRequest notifications seen so far.
func (s *Server) Cancelled() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int64(nil), s.cancelled...)
}

// Handle processes one payload synchronously. ok is false when nothing has to
// be sent back.
func (s *Server) Handle(payload string) (reply string, ok bool) {
	body := bytes.TrimSpace([]byte(payload))

	if len(body) > 0 && body[0] == '[' {
		var reqs []json.RawMessage
		if err := json.Unmarshal(body, &reqs); err != nil {
			return s.encode(errorResponse(nil, message.NewError(message.CodeParseError, "parse error")))
		}
		if len(reqs) == 0 {
			return s.encode(errorResponse(nil, message.NewError(message.CodeInvalidRequest, "invalid request")))
		}

		responses := make([]message.Response, 0, len(reqs))
		for _, raw := range reqs {
			if res, ok := s.handleOne(raw); ok {
				responses = append(responses, res)
			}
		}
		// No responses means all requests were notifications.
		if len(responses) == 0 {
			return "", false
		}
		return s.encode(responses)
	}

	res, ok := s.handleOne(body)
	if !ok {
		return "", false
	}
	return s.encode(res)
}

func (s *Server) handleOne(raw json.RawMessage) (message.Response, bool) {
	req, err := message.ParseRequest(raw)
	if err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return errorResponse(nil, message.NewError(message.CodeParseError, "parse error")), true
		}
		return errorResponse(nil, message.NewError(message.CodeInvalidRequest, err.Error())), true
	}

	if req.Method == message.CancelMethod {
		s.recordCancel(req)
		return message.Response{}, false
	}

	result, rpcErr := s.invoke(req)
	if req.IsNotification() {
		return message.Response{}, false
	}
	if rpcErr != nil {
		return errorResponse(req.ID, rpcErr), true
	}
	return message.Response{JSONRPC: message.Version, Result: result, ID: req.ID}, true
}

func (s *Server) invoke(req message.Request) (json.RawMessage, *message.Error) {
	serviceName, methodName, found := strings.Cut(req.Method, ".")
	if !found {
		return nil, message.NewError(message.CodeMethodNotFound, "method not found: "+req.Method)
	}

	s.mu.Lock()
	svc := s.serviceMap[serviceName]
	s.mu.Unlock()
	if svc == nil {
		return nil, message.NewError(message.CodeMethodNotFound, "method not found: "+req.Method)
	}
	mType := svc.method[methodName]
	if mType == nil {
		return nil, message.NewError(message.CodeMethodNotFound, "method not found: "+req.Method)
	}

	s.logger.Debug("invoking method", zap.String("method", req.Method))
	return svc.call(mType, req.Params)
}

func (s *Server) recordCancel(req message.Request) {
	var params message.CancelParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.logger.Warn("malformed cancellation", zap.Error(err))
		return
	}
	s.mu.Lock()
	s.cancelled = append(s.cancelled, params.ID)
	s.mu.Unlock()
}

func (s *Server) encode(v any) (string, bool) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("failed to encode reply", zap.Error(err))
		return "", false
	}
	return string(data), true
}

func errorResponse(id *int64, rpcErr *message.Error) message.Response {
	return message.Response{JSONRPC: message.Version, Error: rpcErr, ID: id}
}

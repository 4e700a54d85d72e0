package rpctest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"mini-jsonrpc/message"
)

type methodType struct {
	method    reflect.Method
	ArgType   reflect.Type
	ReplyType reflect.Type
}

type service struct {
	name   string
	rcvr   reflect.Value
	typ    reflect.Type
	method map[string]*methodType
}

// newService scans rcvr for methods of the form
//
//	func (t *T) Name(args *Args, reply *Reply) error
//
// and exposes them as "T.Name".
func newService(rcvr any) (*service, error) {
	typ := reflect.TypeOf(rcvr)
	if typ == nil || typ.Kind() != reflect.Ptr {
		return nil, fmt.Errorf("rpctest: rcvr must be a pointer, got %T", rcvr)
	}
	if typ.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("rpctest: rcvr must point to a struct, got %s", typ.Elem().Kind())
	}
	svc := &service{
		name:   typ.Elem().Name(),
		rcvr:   reflect.ValueOf(rcvr),
		typ:    typ,
		method: make(map[string]*methodType),
	}
	svc.registerMethods()
	if len(svc.method) == 0 {
		return nil, fmt.Errorf("rpctest: %s has no exported methods of the form func(*Args, *Reply) error", svc.name)
	}
	return svc, nil
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func (s *service) registerMethods() {
	for i := 0; i < s.typ.NumMethod(); i++ {
		method := s.typ.Method(i)
		if method.Type.NumIn() != 3 || method.Type.NumOut() != 1 || method.Type.Out(0) != errorType ||
			method.Type.In(1).Kind() != reflect.Ptr || method.Type.In(2).Kind() != reflect.Ptr {
			continue
		}

		s.method[method.Name] = &methodType{
			method:    method,
			ArgType:   method.Type.In(1).Elem(),
			ReplyType: method.Type.In(2).Elem(),
		}
	}
}

// call decodes params into a new Args value, invokes the method and encodes the
// Reply. Failures come back as JSON-RPC error objects.
func (s *service) call(mType *methodType, params json.RawMessage) (json.RawMessage, *message.Error) {
	argv := reflect.New(mType.ArgType)
	replyv := reflect.New(mType.ReplyType)

	if err := decodeParams(params, argv); err != nil {
		return nil, message.NewError(message.CodeInvalidParams, err.Error())
	}

	results := mType.method.Func.Call([]reflect.Value{s.rcvr, argv, replyv})
	if errInter := results[0].Interface(); errInter != nil {
		err := errInter.(error)
		var rpcErr *message.Error
		if errors.As(err, &rpcErr) {
			return nil, rpcErr
		}
		return nil, message.NewError(message.CodeInternalError, err.Error())
	}

	result, err := json.Marshal(replyv.Interface())
	if err != nil {
		return nil, message.NewError(message.CodeInternalError, err.Error())
	}
	return result, nil
}

// decodeParams fills argv from named params (object keys by json tag) or
// positional params (array elements by exported field order).
func decodeParams(params json.RawMessage, argv reflect.Value) error {
	params = bytes.TrimSpace(params)
	if len(params) == 0 {
		return nil
	}

	elem := argv.Elem()
	if params[0] != '[' || elem.Kind() != reflect.Struct {
		return json.Unmarshal(params, argv.Interface())
	}

	var list []json.RawMessage
	if err := json.Unmarshal(params, &list); err != nil {
		return err
	}
	var fields []int
	for i := 0; i < elem.NumField(); i++ {
		if elem.Type().Field(i).IsExported() {
			fields = append(fields, i)
		}
	}
	if len(list) != len(fields) {
		return fmt.Errorf("invalid number of params, got %d want %d", len(list), len(fields))
	}
	for i, raw := range list {
		if err := json.Unmarshal(raw, elem.Field(fields[i]).Addr().Interface()); err != nil {
			return err
		}
	}
	return nil
}

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"omegga-rpc/message"
	"omegga-rpc/middleware"
	"reflect"
)

// typedHandler adapts a function of one of these shapes into a HandlerFunc:
//
//	func(ctx context.Context, args *Args) (Reply, error)
//	func(ctx context.Context, args *Args) error
//
// Params are decoded into a fresh *Args for every call; absent params leave it zero.
type typedHandler struct {
	fn        reflect.Value
	ArgType   reflect.Type
	ReplyType reflect.Type // nil for the error-only shape
}

var (
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
)

func newTypedHandler(fn any) (*typedHandler, error) {
	val := reflect.ValueOf(fn)
	typ := val.Type()
	if typ.Kind() != reflect.Func {
		return nil, fmt.Errorf("server: handler must be a func, got %s", typ)
	}
	if typ.NumIn() != 2 || typ.In(0) != contextType || typ.In(1).Kind() != reflect.Ptr {
		return nil, fmt.Errorf("server: handler must take (context.Context, *Args), got %s", typ)
	}

	h := &typedHandler{fn: val, ArgType: typ.In(1).Elem()}
	switch {
	case typ.NumOut() == 1 && typ.Out(0) == errorType:
	case typ.NumOut() == 2 && typ.Out(1) == errorType:
		h.ReplyType = typ.Out(0)
	default:
		return nil, fmt.Errorf("server: handler must return (Reply, error) or error, got %s", typ)
	}
	return h, nil
}

func (h *typedHandler) call(ctx context.Context, params json.RawMessage) (any, error) {
	argv := reflect.New(h.ArgType)
	if params != nil {
		if err := json.Unmarshal(params, argv.Interface()); err != nil {
			return nil, message.NewError(message.InvalidParams, err.Error(), nil)
		}
	}

	results := h.fn.Call([]reflect.Value{reflect.ValueOf(ctx), argv})
	errv := results[len(results)-1]
	if !errv.IsNil() {
		return nil, errv.Interface().(error)
	}
	if h.ReplyType == nil {
		return nil, nil
	}
	return results[0].Interface(), nil
}

func (h *typedHandler) HandlerFunc() middleware.HandlerFunc {
	return func(ctx context.Context, req *message.RPCMessage) *message.RPCMessage {
		result, err := h.call(ctx, req.Params)
		return message.Reply(req, result, err)
	}
}

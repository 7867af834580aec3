package message

import "errors"

// Reply builds the response to req. It returns nil when req is a notification,
// since notifications are never answered.
//
// A non-nil err wins over result. An *RPCError anywhere in err's chain is sent as is;
// any other error becomes an InternalError carrying err's text.
func Reply(req *RPCMessage, result any, err error) *RPCMessage {
	if req == nil || !req.IsRequest() {
		return nil
	}
	if err != nil {
		return NewErrorResponse(req.ID, AsRPCError(err))
	}
	resp, encErr := NewResult(req.ID, result)
	if encErr != nil {
		return NewErrorResponse(req.ID, NewError(InternalError, encErr.Error(), nil))
	}
	return resp
}

// AsRPCError extracts the *RPCError from err's chain, or wraps err as an InternalError.
func AsRPCError(err error) *RPCError {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	return NewError(InternalError, err.Error(), nil)
}

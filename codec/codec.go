// Package codec converts between message.RPCMessage and one line of wire text.
package codec

import (
	"errors"
	"omegga-rpc/message"
)

// Decode failures. Both are recoverable: the dispatcher skips the line and keeps reading.
var (
	ErrInvalidJSON  = errors.New("codec: line is not a JSON object")
	ErrUnrecognized = errors.New("codec: unrecognized message shape")
)

type Codec interface {
	// Encode returns a single line without the trailing newline.
	Encode(msg *message.RPCMessage) ([]byte, error)
	// Decode parses one line. Errors wrap ErrInvalidJSON or ErrUnrecognized.
	Decode(line []byte) (*message.RPCMessage, error)
}

// Default is the codec used when none is configured.
func Default() Codec {
	return &JSONCodec{}
}

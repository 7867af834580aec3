package transport

import (
	"io"
	"omegga-rpc/codec"
	"omegga-rpc/message"
	"omegga-rpc/protocol"
	"sync"
)

type flusher interface {
	Flush() error
}

// Writer emits messages on the output stream, one line per message.
//
// Many goroutines send through one Writer (requests, notifications, handler replies),
// so the whole line is written under a mutex. Without it two concurrent sends could
// interleave partial lines and corrupt both frames.
type Writer struct {
	mu    sync.Mutex
	w     io.Writer
	codec codec.Codec
}

func NewWriter(w io.Writer, c codec.Codec) *Writer {
	return &Writer{w: w, codec: c}
}

// Send encodes msg and writes it synchronously. If the underlying writer buffers
// (for example a *bufio.Writer), it is flushed before Send returns.
func (w *Writer) Send(msg *message.RPCMessage) error {
	line, err := w.codec.Encode(msg)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := protocol.Encode(w.w, line); err != nil {
		return err
	}
	if f, ok := w.w.(flusher); ok {
		return f.Flush()
	}
	return nil
}

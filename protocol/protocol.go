// Package protocol implements newline-delimited framing for the plugin's stdio stream.
//
// Each frame is exactly one line of text terminated by '\n'. There is no length prefix:
// the codec guarantees an encoded message never contains a raw newline, so the newline
// alone marks the frame boundary.
//
//	{"jsonrpc":"2.0","id":-1,"method":"getPlayers","params":null}\n
//	{"jsonrpc":"2.0","id":-1,"result":[]}\n
//
// A "\r\n" terminator is accepted on read so that hosts on Windows work unchanged.
package protocol

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// DefaultMaxLineSize bounds a single inbound frame. Larger lines are skipped, not buffered.
const DefaultMaxLineSize = 16 << 20

var (
	// ErrLineTooLong is returned for a frame above the reader's limit. The oversized
	// line has already been drained, so the next ReadLine starts on a fresh frame.
	ErrLineTooLong = errors.New("protocol: line exceeds maximum size")
	// ErrEmbeddedNewline is returned by Encode for a payload that would split into two frames.
	ErrEmbeddedNewline = errors.New("protocol: frame contains a newline")
)

// Reader splits an input stream into frames. It must be used by a single goroutine.
type Reader struct {
	br      *bufio.Reader
	maxLine int
}

// NewReader returns a Reader that rejects lines longer than maxLine bytes.
// A non-positive maxLine selects DefaultMaxLineSize.
func NewReader(r io.Reader, maxLine int) *Reader {
	if maxLine <= 0 {
		maxLine = DefaultMaxLineSize
	}
	return &Reader{br: bufio.NewReaderSize(r, 64<<10), maxLine: maxLine}
}

// ReadLine returns the next frame without its terminator.
//
// An unterminated final line is returned as a normal frame; the following call reports io.EOF.
// Blank lines are returned as empty frames and left to the caller to skip.
func (r *Reader) ReadLine() ([]byte, error) {
	var line []byte
	tooLong := false
	for {
		chunk, err := r.br.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > r.maxLine+2 { // room for "\r\n"
				tooLong = true
				line = nil
			} else {
				// ReadSlice's buffer is reused by the next read, so copy out.
				line = append(line, chunk...)
			}
		}

		if err == bufio.ErrBufferFull {
			continue
		}
		if err != nil {
			if err == io.EOF && tooLong {
				return nil, ErrLineTooLong
			}
			if err == io.EOF && len(line) > 0 {
				return trimEOL(line), nil
			}
			return nil, err
		}
		break
	}

	if tooLong {
		return nil, ErrLineTooLong
	}
	line = trimEOL(line)
	if len(line) > r.maxLine {
		return nil, ErrLineTooLong
	}
	return line, nil
}

func trimEOL(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte{'\n'})
	return bytes.TrimSuffix(line, []byte{'\r'})
}

// Encode writes line followed by '\n' with a single Write call.
// The caller must serialize concurrent Encode calls on the same writer,
// otherwise partial lines from different goroutines may interleave.
func Encode(w io.Writer, line []byte) error {
	if bytes.IndexByte(line, '\n') >= 0 {
		return ErrEmbeddedNewline
	}
	buf := make([]byte, len(line)+1)
	copy(buf, line)
	buf[len(line)] = '\n'
	_, err := w.Write(buf)
	return err
}

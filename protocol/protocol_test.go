package protocol

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	var buf bytes.Buffer

	frames := []string{
		`{"jsonrpc":"2.0","id":-1,"method":"getPlayers","params":null}`,
		`{"jsonrpc":"2.0","id":-1,"result":[]}`,
		`{"jsonrpc":"2.0","method":"chat","params":["alice","hello"]}`,
	}
	for _, f := range frames {
		require.NoError(t, Encode(&buf, []byte(f)))
	}
	assert.Equal(t, strings.Join(frames, "\n")+"\n", buf.String())

	r := NewReader(&buf, 0)
	for _, want := range frames {
		got, err := r.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, want, string(got))
	}

	_, err := r.ReadLine()
	assert.Equal(t, io.EOF, err)
}

func TestEncodeRejectsNewline(t *testing.T) {
	var buf bytes.Buffer
	err := Encode(&buf, []byte("a\nb"))
	assert.True(t, errors.Is(err, ErrEmbeddedNewline))
	assert.Zero(t, buf.Len())
}

func TestReadLineCRLFAndTrailing(t *testing.T) {
	r := NewReader(strings.NewReader("one\r\n\ntwo"), 0)

	line, err := r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "one", string(line))

	line, err = r.ReadLine()
	require.NoError(t, err)
	assert.Empty(t, line)

	// Unterminated last line is still a frame.
	line, err = r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "two", string(line))

	_, err = r.ReadLine()
	assert.Equal(t, io.EOF, err)
}

func TestReadLineTooLongIsRecoverable(t *testing.T) {
	long := strings.Repeat("x", 200)
	input := "short\n" + long + "\nafter\n"
	r := NewReader(strings.NewReader(input), 100)

	line, err := r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "short", string(line))

	_, err = r.ReadLine()
	assert.True(t, errors.Is(err, ErrLineTooLong))

	line, err = r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "after", string(line))
}

func TestReadLineLargerThanBuffer(t *testing.T) {
	// Larger than bufio's 64 KiB buffer, below the limit.
	big := strings.Repeat("y", 200<<10)
	r := NewReader(strings.NewReader(big+"\nz\n"), 0)

	line, err := r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, len(big), len(line))

	line, err = r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "z", string(line))
}

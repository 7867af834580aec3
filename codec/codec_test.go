package codec

import (
	"encoding/json"
	"errors"
	"omegga-rpc/message"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRequestWireShape(t *testing.T) {
	c := &JSONCodec{}

	req, err := message.NewRequest(message.IntID(-1), "getPlayers", nil)
	require.NoError(t, err)

	line, err := c.Encode(req)
	require.NoError(t, err)
	assert.Equal(t, `{"jsonrpc":"2.0","id":-1,"method":"getPlayers","params":null}`, string(line))
}

func TestEncodeResponseShapes(t *testing.T) {
	c := &JSONCodec{}

	ok := &message.RPCMessage{Kind: message.KindResponse, ID: message.StringID("a")}
	line, err := c.Encode(ok)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":"a","result":null}`, string(line))

	fail := message.NewErrorResponse(message.IntID(3), message.NewError(message.MethodNotFound, "no such method", nil))
	line, err = c.Encode(fail)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":3,"error":{"code":-32601,"message":"no such method"}}`, string(line))
}

func TestEncodeNeverEmitsNewline(t *testing.T) {
	c := &JSONCodec{}
	note, err := message.NewNotification("broadcast", "line one\nline two")
	require.NoError(t, err)

	// Pretty-printed raw params are compacted by encoding/json.
	note2 := &message.RPCMessage{Kind: message.KindNotification, Method: "x", Params: json.RawMessage("{\n  \"a\": 1\n}")}

	for _, m := range []*message.RPCMessage{note, note2} {
		line, err := c.Encode(m)
		require.NoError(t, err)
		assert.NotContains(t, string(line), "\n")
	}
}

func TestRoundTrip(t *testing.T) {
	c := &JSONCodec{}

	msgs := []*message.RPCMessage{
		{Kind: message.KindRequest, ID: message.IntID(-1), Method: "getPlayers"},
		{Kind: message.KindRequest, ID: message.StringID("init-1"), Method: "init", Params: json.RawMessage(`{"a":[1,2]}`)},
		{Kind: message.KindNotification, Method: "chat", Params: json.RawMessage(`["alice","hello"]`)},
		{Kind: message.KindNotification, Method: "unauthorized"},
		{Kind: message.KindResponse, ID: message.IntID(-2), Result: json.RawMessage(`[]`)},
		{Kind: message.KindResponse, ID: message.IntID(-3)},
		{Kind: message.KindResponse, ID: message.StringID("x"), Error: &message.RPCError{Code: 1, Message: "m", Data: json.RawMessage(`{"k":"v"}`)}},
	}

	for _, m := range msgs {
		line, err := c.Encode(m)
		require.NoError(t, err)

		got, err := c.Decode(line)
		require.NoError(t, err, string(line))
		assert.Equal(t, m, got, string(line))
	}
}

func TestDecodeDiscrimination(t *testing.T) {
	c := &JSONCodec{}

	cases := []struct {
		name string
		line string
		kind message.Kind
	}{
		{"request", `{"jsonrpc":"2.0","id":5,"method":"init","params":{}}`, message.KindRequest},
		{"notification", `{"jsonrpc":"2.0","method":"chat","params":["alice","hello"]}`, message.KindNotification},
		{"result", `{"jsonrpc":"2.0","id":-1,"result":[]}`, message.KindResponse},
		{"null result", `{"jsonrpc":"2.0","id":-1,"result":null}`, message.KindResponse},
		{"error", `{"jsonrpc":"2.0","id":-1,"error":{"code":1,"message":"x"}}`, message.KindResponse},
		{"id only", `{"jsonrpc":"2.0","id":-1}`, message.KindResponse},
		{"response wins over request", `{"jsonrpc":"2.0","id":-1,"method":"m","result":1}`, message.KindResponse},
		{"null id is absent", `{"jsonrpc":"2.0","id":null,"method":"m"}`, message.KindNotification},
		{"missing tag tolerated", `{"method":"line","params":["x"]}`, message.KindNotification},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := c.Decode([]byte(tc.line))
			require.NoError(t, err)
			assert.Equal(t, tc.kind, msg.Kind)
		})
	}
}

func TestDecodeFailures(t *testing.T) {
	c := &JSONCodec{}

	invalid := []string{`not json`, `[1,2]`, `"str"`, `{"id":1`}
	for _, line := range invalid {
		_, err := c.Decode([]byte(line))
		assert.True(t, errors.Is(err, ErrInvalidJSON), line)
	}

	unrecognized := []string{
		`{}`,
		`null`,
		`{"jsonrpc":"2.0"}`,
		`{"jsonrpc":"2.0","id":1.5,"result":1}`,
		`{"jsonrpc":"2.0","id":true,"method":"m"}`,
		`{"jsonrpc":"2.0","method":7}`,
		`{"jsonrpc":"2.0","id":1,"error":{"message":"no code"}}`,
	}
	for _, line := range unrecognized {
		_, err := c.Decode([]byte(line))
		assert.True(t, errors.Is(err, ErrUnrecognized), line)
	}
}

func TestDecodeBothResultAndError(t *testing.T) {
	c := &JSONCodec{}
	msg, err := c.Decode([]byte(`{"jsonrpc":"2.0","id":2,"result":1,"error":{"code":1,"message":"x"}}`))
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`1`), msg.Result)
	require.NotNil(t, msg.Error)
	assert.Equal(t, 1, msg.Error.Code)
}

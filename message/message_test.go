package message

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDEquality(t *testing.T) {
	assert.Equal(t, IntID(-1), IntID(-1))
	assert.NotEqual(t, IntID(1), StringID("1"))

	// IDs are map keys; kind and value both participate.
	seen := map[ID]bool{IntID(7): true}
	assert.True(t, seen[IntID(7)])
	assert.False(t, seen[StringID("7")])
}

func TestIDJSON(t *testing.T) {
	cases := []struct {
		in   string
		want ID
	}{
		{`-1`, IntID(-1)},
		{`42`, IntID(42)},
		{`"abc"`, StringID("abc")},
		{`""`, StringID("")},
	}
	for _, tc := range cases {
		var id ID
		require.NoError(t, json.Unmarshal([]byte(tc.in), &id), tc.in)
		assert.Equal(t, tc.want, id)

		out, err := json.Marshal(id)
		require.NoError(t, err)
		assert.JSONEq(t, tc.in, string(out))
	}

	for _, bad := range []string{`1.5`, `true`, `{}`, `[1]`, `null`} {
		var id ID
		assert.Error(t, json.Unmarshal([]byte(bad), &id), bad)
	}
}

func TestConstructors(t *testing.T) {
	req, err := NewRequest(IntID(-3), "getPlayers", nil)
	require.NoError(t, err)
	assert.True(t, req.IsRequest())
	assert.Nil(t, req.Params)

	note, err := NewNotification("broadcast", "hello")
	require.NoError(t, err)
	assert.True(t, note.IsNotification())
	assert.Equal(t, `"hello"`, string(note.Params))

	res, err := NewResult(StringID("x"), []int{})
	require.NoError(t, err)
	assert.True(t, res.IsResponse())
	assert.Equal(t, `[]`, string(res.Result))

	fail := NewErrorResponse(IntID(1), NewError(MethodNotFound, "nope", nil))
	assert.Equal(t, MethodNotFound, fail.Error.Code)
}

func TestRPCErrorIsError(t *testing.T) {
	var err error = NewError(InternalError, "boom", map[string]int{"n": 1})
	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, "boom", rpcErr.Message)
	assert.JSONEq(t, `{"n":1}`, string(rpcErr.Data))
	assert.Contains(t, err.Error(), "-32603")
}

func TestRPCErrorRequiresCodeAndMessage(t *testing.T) {
	var e RPCError
	assert.Error(t, json.Unmarshal([]byte(`{"message":"x"}`), &e))
	assert.Error(t, json.Unmarshal([]byte(`{"code":1}`), &e))
	require.NoError(t, json.Unmarshal([]byte(`{"code":1,"message":"x","data":null}`), &e))
	assert.Nil(t, e.Data)
}

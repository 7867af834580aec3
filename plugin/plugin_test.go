package plugin

import (
	"bufio"
	"context"
	"io"
	"omegga-rpc/codec"
	"omegga-rpc/config"
	"omegga-rpc/events"
	"omegga-rpc/message"
	"omegga-rpc/store"
	"omegga-rpc/transport"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestPluginServesHostRequests(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Backend = config.BackendMemory
	cfg.Server.HandlerTimeout = config.Duration(time.Second)

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	p, err := New(cfg, inR, outW, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	assert.IsType(t, &store.MemoryStore{}, p.Store)

	p.Server.Handle(events.MethodInit, events.Handler(func(ctx context.Context, ev events.Event) (any, error) {
		return map[string][]string{"registeredCommands": {"ping"}}, nil
	}))

	runErr := make(chan error, 1)
	go func() { runErr <- p.Run(context.Background()) }()

	_, err = inW.Write([]byte(`{"jsonrpc":"2.0","id":1,"method":"init","params":{}}` + "\n"))
	require.NoError(t, err)

	lines := bufio.NewScanner(outR)
	require.True(t, lines.Scan())
	resp, err := codec.Default().Decode(lines.Bytes())
	require.NoError(t, err)
	assert.Equal(t, message.IntID(1), resp.ID)
	assert.JSONEq(t, `{"registeredCommands":["ping"]}`, string(resp.Result))

	// Unknown requests are answered, never left hanging.
	_, err = inW.Write([]byte(`{"jsonrpc":"2.0","id":2,"method":"nope"}` + "\n"))
	require.NoError(t, err)
	require.True(t, lines.Scan())
	resp, err = codec.Default().Decode(lines.Bytes())
	require.NoError(t, err)
	require.NotNil(t, resp.Error)
	assert.Equal(t, message.MethodNotFound, resp.Error.Code)

	inW.Close()
	select {
	case err := <-runErr:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after the host closed stdin")
	}
	assert.ErrorIs(t, p.Transport.Err(), transport.ErrClosed)
}

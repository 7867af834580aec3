package main

import (
	"context"
	"omegga-rpc/events"
	"omegga-rpc/store"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type recordingChat struct {
	lines []string
	logs  []string
}

func (r *recordingChat) Broadcast(line string) error {
	r.lines = append(r.lines, line)
	return nil
}

func (r *recordingChat) Log(line string) error {
	r.logs = append(r.logs, line)
	return nil
}

func newCommands(t *testing.T) (*commands, *recordingChat) {
	rc := &recordingChat{}
	return &commands{chat: rc, store: store.NewMemoryStore(), logger: zaptest.NewLogger(t)}, rc
}

func say(t *testing.T, c *commands, command string, args ...string) {
	t.Helper()
	_, err := c.handle(context.Background(), events.ChatCommand{Player: "alice", Command: command, Args: args})
	require.NoError(t, err)
}

func TestInitRegistersNothing(t *testing.T) {
	c, rc := newCommands(t)
	result, err := c.handle(context.Background(), events.Init{})
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{"registeredCommands": {}}, result)
	assert.Len(t, rc.logs, 1)
}

func TestCommandLifecycle(t *testing.T) {
	c, rc := newCommands(t)

	say(t, c, "new-cmd", "hello", "hi", "there")
	say(t, c, "hello")
	say(t, c, "new-cmd", "hello", "hey")
	say(t, c, "hello")
	say(t, c, "del-cmd", "hello")
	say(t, c, "hello")
	say(t, c, "del-cmd", "hello")

	assert.Equal(t, []string{
		"OK, created the custom command hello.",
		"hi there",
		"OK, overwrote that existing custom command.",
		"hey",
		"OK, removed the custom command hello.",
		"That custom command didn't exist.",
	}, rc.lines)
}

func TestListCommandsInChunks(t *testing.T) {
	c, rc := newCommands(t)
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		say(t, c, "new-cmd", name, "x")
	}
	rc.lines = nil

	say(t, c, "ls-cmds")
	assert.Equal(t, []string{
		"<b>Custom Commands</>",
		"<code>!a</>, <code>!b</>, <code>!c</>, <code>!d</>, <code>!e</>",
		"<code>!f</>",
	}, rc.lines)
}

func TestUsageMessages(t *testing.T) {
	c, rc := newCommands(t)
	say(t, c, "new-cmd", "lonely")
	say(t, c, "del-cmd")
	require.Len(t, rc.lines, 2)
	assert.Contains(t, rc.lines[0], "Usage")
	assert.Contains(t, rc.lines[1], "Usage")
}

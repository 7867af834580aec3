package main

import (
	"context"
	"fmt"
	"omegga-rpc/events"
	"omegga-rpc/store"
	"strings"

	"go.uber.org/zap"
)

// listChunk is how many names go on one line of !ls-cmds.
const listChunk = 5

type chat interface {
	Broadcast(line string) error
	Log(line string) error
}

type commands struct {
	chat   chat
	store  store.Store
	logger *zap.Logger
}

type entry struct {
	Content string `json:"content"`
	Author  string `json:"author"`
}

func (c *commands) handle(ctx context.Context, ev events.Event) (any, error) {
	switch ev := ev.(type) {
	case events.Init:
		if err := c.chat.Log("custom commands ready"); err != nil {
			return nil, err
		}
		// Chat commands need no registration; only console commands do.
		return map[string][]string{"registeredCommands": {}}, nil
	case events.Stop:
		return nil, nil
	case events.ChatCommand:
		if err := c.chatCommand(ctx, ev); err != nil {
			c.logger.Warn("chat command failed", zap.String("command", ev.Command), zap.Error(err))
		}
	}
	return nil, nil
}

func (c *commands) chatCommand(ctx context.Context, ev events.ChatCommand) error {
	switch ev.Command {
	case "new-cmd":
		if len(ev.Args) < 2 {
			return c.chat.Broadcast("Usage: <code>!new-cmd name content</>")
		}
		name := ev.Args[0]
		var old entry
		existed, err := c.store.Get(ctx, name, &old)
		if err != nil {
			return err
		}
		if err := c.store.Set(ctx, name, entry{Content: strings.Join(ev.Args[1:], " "), Author: ev.Player}); err != nil {
			return err
		}
		if existed {
			return c.chat.Broadcast("OK, overwrote that existing custom command.")
		}
		return c.chat.Broadcast(fmt.Sprintf("OK, created the custom command %s.", name))

	case "del-cmd":
		if len(ev.Args) < 1 {
			return c.chat.Broadcast("Usage: <code>!del-cmd name</>")
		}
		name := ev.Args[0]
		var old entry
		existed, err := c.store.Get(ctx, name, &old)
		if err != nil {
			return err
		}
		if !existed {
			return c.chat.Broadcast("That custom command didn't exist.")
		}
		if err := c.store.Delete(ctx, name); err != nil {
			return err
		}
		return c.chat.Broadcast(fmt.Sprintf("OK, removed the custom command %s.", name))

	case "ls-cmds":
		names, err := c.store.Keys(ctx)
		if err != nil {
			return err
		}
		if err := c.chat.Broadcast("<b>Custom Commands</>"); err != nil {
			return err
		}
		for i := 0; i < len(names); i += listChunk {
			end := min(i+listChunk, len(names))
			formatted := make([]string, 0, end-i)
			for _, name := range names[i:end] {
				formatted = append(formatted, fmt.Sprintf("<code>!%s</>", name))
			}
			if err := c.chat.Broadcast(strings.Join(formatted, ", ")); err != nil {
				return err
			}
		}
		return nil

	default:
		var e entry
		found, err := c.store.Get(ctx, ev.Command, &e)
		if err != nil || !found {
			return err
		}
		return c.chat.Broadcast(e.Content)
	}
}

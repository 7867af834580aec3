// Command omegga-pingpong is a minimal plugin: it registers the "ping" console command
// and whispers "Pong!" back to whoever runs it.
package main

import (
	"context"
	"omegga-rpc/cli"
	"omegga-rpc/events"
	"omegga-rpc/message"
	"omegga-rpc/plugin"
	"os"

	"go.uber.org/zap"
)

// host is what the event loop needs from the plugin's client.
type host interface {
	RegisterCommands(id message.ID, names []string) error
	WriteResponse(id message.ID, result any, rpcErr *message.RPCError) error
	Whisper(target, line string) error
}

func main() {
	cmd := cli.NewCommand("omegga-pingpong", "Answers !ping with Pong!", func(ctx context.Context, p *plugin.Plugin) error {
		defer p.Close()
		return loop(ctx, p.Transport.Events(), p.Client, p.Logger)
	})
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loop consumes host events directly instead of going through a server.
func loop(ctx context.Context, in <-chan *message.RPCMessage, h host, logger *zap.Logger) error {
	for {
		select {
		case msg, ok := <-in:
			if !ok {
				return nil
			}
			ev, err := events.Parse(msg)
			if err != nil {
				logger.Warn("ignoring malformed event", zap.Error(err))
				continue
			}
			if err := handle(ev, h); err != nil {
				logger.Warn("reply failed", zap.Error(err))
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func handle(ev events.Event, h host) error {
	switch ev := ev.(type) {
	case events.Init:
		return h.RegisterCommands(ev.ID, []string{"ping"})
	case events.Stop:
		return h.WriteResponse(ev.ID, nil, nil)
	case events.PluginEmit:
		return h.WriteResponse(ev.ID, nil, nil)
	case events.Command:
		if ev.Command == "ping" {
			return h.Whisper(ev.Player, "Pong!")
		}
	}
	return nil
}

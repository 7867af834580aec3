// Command omegga-commands lets players define chat commands at runtime:
//
//	!new-cmd <name> <content...>   create or overwrite !<name>
//	!del-cmd <name>                remove it
//	!ls-cmds                       list every custom command
//	!<name>                        broadcast its content
//
// Commands are kept in the configured store, so they survive restarts.
package main

import (
	"context"
	"omegga-rpc/cli"
	"omegga-rpc/events"
	"omegga-rpc/plugin"
	"os"
)

func main() {
	cmd := cli.NewCommand("omegga-commands", "Custom chat commands", func(ctx context.Context, p *plugin.Plugin) error {
		c := &commands{chat: p.Client, store: p.Store, logger: p.Logger}
		h := events.Handler(c.handle)
		p.Server.Handle(events.MethodInit, h)
		p.Server.Handle(events.MethodStop, h)
		p.Server.HandlePrefix(events.PrefixChatCommand, h)
		return p.Run(ctx)
	})
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

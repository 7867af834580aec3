// Package cli builds the cobra root command shared by the plugin binaries.
package cli

import (
	"context"
	"omegga-rpc/config"
	"omegga-rpc/plugin"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// RunFunc drives a wired plugin until the host goes away or ctx is canceled.
type RunFunc func(ctx context.Context, p *plugin.Plugin) error

// NewCommand returns a root command that loads the config, wires a plugin over the
// process's stdin and stdout, and hands it to run.
func NewCommand(use, short string, run RunFunc) *cobra.Command {
	var (
		cfgPath  string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		// Omegga starts plugins itself; stdout is the protocol, so cobra must not print usage there.
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}

			p, err := plugin.New(cfg, os.Stdin, os.Stdout)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, p)
		},
	}
	cmd.SetOut(os.Stderr)
	cmd.SetErr(os.Stderr)

	flags := cmd.Flags()
	flags.StringVarP(&cfgPath, "config", "c", "", "path to a YAML or TOML config file")
	flags.StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
	return cmd
}

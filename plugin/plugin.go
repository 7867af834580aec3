// Package plugin assembles a running Omegga plugin from its config: logger, transport
// over the host's stdio, typed client, inbound server and key-value store.
package plugin

import (
	"context"
	"errors"
	"io"
	"omegga-rpc/client"
	"omegga-rpc/config"
	"omegga-rpc/logger"
	"omegga-rpc/middleware"
	"omegga-rpc/server"
	"omegga-rpc/store"
	"omegga-rpc/transport"

	"go.uber.org/zap"
)

type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger replaces the logger built from the config.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

type Plugin struct {
	Config    *config.Config
	Logger    *zap.Logger
	Transport *transport.Transport
	Client    *client.Client
	Server    *server.Server
	Store     store.Store
}

// New wires a plugin reading host messages from in and writing to out.
// For a real plugin these are os.Stdin and os.Stdout.
func New(cfg *config.Config, in io.Reader, out io.Writer, opts ...Option) (*Plugin, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	log := o.logger
	if log == nil {
		var err error
		if log, err = logger.New(cfg.Log); err != nil {
			return nil, err
		}
	}
	log = log.With(zap.String("plugin", cfg.Plugin.Name))

	tr := transport.New(in, out,
		transport.WithLogger(log.Named("transport")),
		transport.WithTimeout(cfg.RPC.Timeout.Std()),
		transport.WithMaxLineSize(cfg.RPC.MaxLineSize))

	clientOpts := []client.Option{client.WithLogger(log.Named("client"))}
	if cfg.RPC.RateLimit > 0 {
		clientOpts = append(clientOpts, client.WithRateLimit(cfg.RPC.RateLimit, cfg.RPC.RateBurst))
	}
	if cfg.RPC.Retries > 0 {
		clientOpts = append(clientOpts, client.WithRetry(cfg.RPC.Retries, cfg.RPC.RetryBackoff.Std()))
	}
	c := client.New(tr, clientOpts...)

	srv := server.NewServer(tr,
		server.WithWorkers(cfg.Server.Workers),
		server.WithLogger(log.Named("server")))
	srv.Use(middleware.Recover(log.Named("server")))
	srv.Use(middleware.Logging(log.Named("server")))
	if cfg.Server.RateLimit > 0 {
		srv.Use(middleware.RateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst))
	}
	if cfg.Server.HandlerTimeout > 0 {
		srv.Use(middleware.Timeout(cfg.Server.HandlerTimeout.Std()))
	}

	st, err := store.Open(cfg.Store, cfg.Plugin.Name, c, log.Named("store"))
	if err != nil {
		tr.Close()
		return nil, err
	}

	return &Plugin{
		Config:    cfg,
		Logger:    log,
		Transport: tr,
		Client:    c,
		Server:    srv,
		Store:     st,
	}, nil
}

// Run serves host messages until the host closes the stream or ctx is done, then
// shuts everything down.
func (p *Plugin) Run(ctx context.Context) error {
	p.Logger.Info("plugin started")
	err := p.Server.Serve(ctx)
	if errors.Is(err, server.ErrServerClosed) || errors.Is(err, context.Canceled) {
		err = nil
	}

	if shutdownErr := p.Server.Shutdown(p.Config.Server.ShutdownTimeout.Std()); shutdownErr != nil {
		p.Logger.Warn("handlers still running at exit", zap.Error(shutdownErr))
	}
	p.Close()
	p.Logger.Info("plugin stopped", zap.Error(p.Transport.Err()))
	return err
}

// Close releases the store and the transport.
func (p *Plugin) Close() error {
	storeErr := p.Store.Close()
	trErr := p.Transport.Close()
	if storeErr != nil {
		return storeErr
	}
	return trErr
}

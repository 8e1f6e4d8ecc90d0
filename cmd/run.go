package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/papertrade/internal/web"
)

type runCmd struct {
	common
	addr string
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "poll quotes and serve the HTTP API" }
func (*runCmd) Usage() string {
	return `papertrade run [-config <file>] [-addr <host:port>]

  Keeps the quote cache fresh for the watchlist and every held symbol and serves
  the JSON API with the valuation stream. Serves HTTPS with ACME certificates when
  tls_domains is configured.
`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	c.register(f)
	f.StringVar(&c.addr, "addr", "", "listen address, overrides http_addr")
}

func (c *runCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	pt, cfg, logger, err := c.open(true)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	defer logger.Sync()
	defer pt.Close()

	addr := cfg.HTTPAddr
	if c.addr != "" {
		addr = c.addr
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := web.NewServer(addr, pt, logger.Named("web"))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := pt.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if len(cfg.TLSDomains) > 0 {
			return srv.StartWithAutoTLS(gctx, cfg.TLSDomains, cfg.TLSCacheDir)
		}
		return srv.Start(gctx)
	})

	logger.Info("papertrade started",
		zap.String("addr", addr),
		zap.String("provider", cfg.QuoteProvider),
		zap.String("storage", string(cfg.Storage)),
		zap.Strings("watchlist", cfg.Watchlist))

	if err := g.Wait(); err != nil {
		logger.Error("papertrade stopped", zap.Error(err))
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/papertrade/config"
	"github.com/vadiminshakov/papertrade/internal"
)

// common flags and helpers shared by the commands that open the ledger.
type common struct {
	flags config.Flags
}

func (c *common) register(f *flag.FlagSet) {
	c.flags.Register(f)
}

// logger returns a production logger for long running commands, and a no-op one for
// one-shot commands unless -debug is set.
func (c *common) logger(longRunning bool) (*zap.Logger, error) {
	switch {
	case c.flags.Debug:
		return zap.NewDevelopment()
	case longRunning:
		return zap.NewProduction()
	default:
		return zap.NewNop(), nil
	}
}

func (c *common) open(longRunning bool) (*internal.PaperTrader, config.Config, *zap.Logger, error) {
	cfg, err := c.flags.Load()
	if err != nil {
		return nil, config.Config{}, nil, errors.Wrap(err, "load config")
	}

	logger, err := c.logger(longRunning)
	if err != nil {
		return nil, config.Config{}, nil, errors.Wrap(err, "create logger")
	}

	pt, err := internal.New(cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, config.Config{}, nil, err
	}
	return pt, cfg, logger, nil
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
}

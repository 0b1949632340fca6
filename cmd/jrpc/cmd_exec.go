package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/ozontech/jrpc/invoker"
	"github.com/ozontech/jrpc/report"
)

type ExecCommand struct {
	File  *os.File `arg:"" required:"" default:"-" help:"Payload file (default is stdin)."`
	Route string   `default:"" help:"Catalog route the payload is dispatched to." env:"JRPC_ROUTE"`
	Stats bool     `help:"Print counters to stderr when done."`

	InvokerFlags
}

func (c *ExecCommand) Run(ctx context.Context, log *zap.Logger) (err error) {
	defer c.File.Close()

	counters := report.NewCounters()
	inv := invoker.New(newCatalog(counters), c.options(log, counters)...)
	defer func() { err = multierr.Append(err, inv.Close()) }()

	out, err := inv.ProcessReader(invoker.WithCaller(ctx, stdioCaller), c.Route, c.File)
	if err != nil {
		return err
	}
	if out != nil {
		fmt.Println(string(out))
	}
	if c.Stats {
		fmt.Fprintln(os.Stderr, counters.Snapshot())
	}
	return nil
}

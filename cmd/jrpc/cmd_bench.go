package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/dustin/go-humanize"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ozontech/jrpc/datasource"
	"github.com/ozontech/jrpc/invoker"
	"github.com/ozontech/jrpc/report"
	"github.com/ozontech/jrpc/scheduler"
)

type RateConst struct {
	Freq     uint64        `arg:"" required:"" help:"Payloads per second."`
	Duration time.Duration `help:"Limit duration (10s, 2h...)."`
}

func (r RateConst) AfterApply(kongCtx *kong.Context) error {
	sched, err := scheduler.NewConstant(r.Freq)
	if err != nil {
		return err
	}
	kongCtx.BindTo(sched, (*scheduler.Scheduler)(nil))
	if r.Duration != 0 {
		kongCtx.Bind(DurationLimit{r.Duration})
	}
	return nil
}

type RateLine struct {
	From     float64       `arg:"" required:"" help:"Starting payloads per second."`
	To       float64       `arg:"" required:"" help:"Ending payloads per second."`
	Duration time.Duration `arg:"" required:"" help:"Duration (10s, 2h...)."`
}

func (r RateLine) AfterApply(kongCtx *kong.Context) error {
	sched, err := scheduler.NewLine(r.From, r.To, r.Duration)
	if err != nil {
		return err
	}
	kongCtx.BindTo(sched, (*scheduler.Scheduler)(nil))
	kongCtx.Bind(DurationLimit{r.Duration})
	return nil
}

type RateUnlimited struct {
	Duration time.Duration `help:"Limit duration (10s, 2h...)."`
	Count    uint64        `help:"Limit payloads count."`
}

func (r RateUnlimited) AfterApply(kongCtx *kong.Context) error {
	var sched scheduler.Scheduler = scheduler.Unlimited{}
	if r.Count != 0 {
		sched = scheduler.NewCountLimiter(sched, int64(r.Count))
	}
	if r.Duration != 0 {
		kongCtx.Bind(DurationLimit{r.Duration})
	}
	kongCtx.BindTo(sched, (*scheduler.Scheduler)(nil))
	return nil
}

type Rate struct {
	Const     RateConst     `cmd:"" group:"rate" help:"Constant rate."`
	Line      RateLine      `cmd:"" group:"rate" help:"Linear rate."`
	Unlimited RateUnlimited `cmd:"" group:"rate" help:"Unlimited rate (default one)." default:""`
}

type DurationLimit struct {
	Duration time.Duration
}

// BenchCommand drives the invoker in process with payloads from a file.
type BenchCommand struct {
	Payloads      *os.File      `required:"" help:"File of newline-delimited JSON-RPC payloads."`
	InmemPayloads bool          `help:"Load the whole payloads file in memory."`
	Workers       int           `default:"1" help:"Payloads processed at once."`
	Route         string        `default:"" help:"Catalog route the payloads are dispatched to."`
	StatsInterval time.Duration `default:"1s" help:"Print counters to stderr every interval."`
	MaxLineSize   string        `default:"4MiB" help:"Longest accepted payload line (in-memory mode)."`

	InvokerFlags
	Rate
}

func (c *BenchCommand) Run(
	ctx context.Context,
	log *zap.Logger,
	sched scheduler.Scheduler,
	d DurationLimit,
) (err error) {
	defer c.Payloads.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cyclic := datasource.NewCyclicReader(c.Payloads)
	var ds datasource.DataSource = datasource.NewFileDataSource(cyclic)
	if c.InmemPayloads {
		maxLine, err := humanize.ParseBytes(c.MaxLineSize)
		if err != nil {
			return fmt.Errorf("parsing max line size: %w", err)
		}
		inmem := datasource.NewInmemDataSource(c.Payloads, int(maxLine))
		if err := inmem.Init(); err != nil {
			return fmt.Errorf("inmem datasource init: %w", err)
		}
		ds = inmem
	}

	counters := report.NewCounters()
	inv := invoker.New(newCatalog(counters), c.options(log, counters)...)
	defer func() { err = multierr.Append(err, inv.Close()) }()

	statsCtx, stopStats := context.WithCancel(context.Background())
	defer stopStats()
	var stats errgroup.Group
	if c.StatsInterval > 0 {
		stats.Go(func() error { return counters.Run(statsCtx, os.Stderr, c.StatsInterval) })
	}

	ctx = invoker.WithCaller(ctx, stdioCaller)
	var (
		n        atomic.Int64
		received atomic.Uint64
		begin    = time.Now()
	)
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < max(c.Workers, 1); i++ {
		g.Go(func() error {
			for {
				at, ok := sched.Next(n.Add(1))
				if !ok || at > d.Duration {
					return nil
				}
				if wait := at - time.Since(begin); wait > 0 {
					t := time.NewTimer(wait)
					select {
					case <-ctx.Done():
						t.Stop()
						return nil
					case <-t.C:
					}
				}

				p, err := ds.Fetch()
				if err != nil {
					return err
				}
				out, err := inv.Process(ctx, c.Route, p.Body)
				p.Release()
				if err != nil {
					return nil // interrupted
				}
				received.Add(uint64(len(out)))
			}
		})
	}
	err = g.Wait()

	stopStats()
	err = multierr.Append(err, stats.Wait())
	fmt.Fprintf(os.Stderr, "took %s, received %s", time.Since(begin).Round(time.Millisecond), humanize.Bytes(received.Load()))
	if !c.InmemPayloads {
		fmt.Fprintf(os.Stderr, ", payloads replayed %d times", cyclic.Rewinds())
	}
	fmt.Fprintln(os.Stderr)
	return err
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"time"

	"github.com/alecthomas/kong"
	mangokong "github.com/alecthomas/mango-kong"
	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ozontech/jrpc/invoker"
	"github.com/ozontech/jrpc/report"
)

var CLI struct {
	Serve ServeCommand      `cmd:"" help:"Serve newline-delimited JSON-RPC payloads."`
	Exec  ExecCommand       `cmd:"" help:"Process one payload file and print the response."`
	Bench BenchCommand      `cmd:"" help:"Drive the engine with payloads from a file at a given rate."`
	Man   mangokong.ManFlag `help:"Write man page." hidden:""`

	Verbose bool `help:"Verbose output." env:"JRPC_VERBOSE"`
}

// InvokerFlags are shared by every command that processes payloads.
type InvokerFlags struct {
	ShowInternalErrors    bool          `group:"invoker" help:"Expose method error details to callers." env:"JRPC_SHOW_INTERNAL_ERRORS"`
	MaxBatchSize          int           `group:"invoker" default:"0" help:"Reject batches with more elements (0 is unlimited)." env:"JRPC_MAX_BATCH_SIZE"`
	BatchConcurrency      int           `group:"invoker" default:"0" help:"Requests of one batch running at once (0 is unlimited)." env:"JRPC_BATCH_CONCURRENCY"`
	CacheSize             int           `group:"invoker" default:"4096" help:"Resolved methods kept in cache." env:"JRPC_CACHE_SIZE"`
	CacheTTL              time.Duration `group:"invoker" default:"10m" help:"Lifetime of a cached resolution." env:"JRPC_CACHE_TTL"`
	DrainTimeout          time.Duration `group:"invoker" default:"5s" help:"How long to wait for notifications on shutdown." env:"JRPC_DRAIN_TIMEOUT"`
	ProtoDiscardUnknown   bool          `group:"invoker" help:"Ignore unknown fields of protobuf params." env:"JRPC_PROTO_DISCARD_UNKNOWN"`
	DisallowUnknownFields bool          `group:"invoker" help:"Reject unknown fields of structured params." env:"JRPC_DISALLOW_UNKNOWN_FIELDS"`
	MaxBodySize           ByteSize      `group:"invoker" default:"16MiB" help:"Reject payload files larger than this (0 is unlimited)." env:"JRPC_MAX_BODY_SIZE"`
	MaxIntegerDigits      int           `group:"invoker" default:"1024" help:"Digits allowed in arbitrary precision integer params (0 is unlimited)." env:"JRPC_MAX_INTEGER_DIGITS"`
}

// ByteSize is a flag value like 4MiB or 512k.
type ByteSize int64

func (b *ByteSize) Decode(ctx *kong.DecodeContext) error {
	var s string
	if err := ctx.Scan.PopValueInto("size", &s); err != nil {
		return err
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return fmt.Errorf("parsing size %q: %w", s, err)
	}
	*b = ByteSize(n)
	return nil
}

func (f InvokerFlags) options(log *zap.Logger, reporter report.Reporter) []invoker.Option {
	return []invoker.Option{
		invoker.WithConfig(invoker.Config{
			ShowInternalErrors:    f.ShowInternalErrors,
			MaxBatchSize:          f.MaxBatchSize,
			BatchConcurrency:      f.BatchConcurrency,
			CacheSize:             f.CacheSize,
			CacheTTL:              f.CacheTTL,
			DrainTimeout:          f.DrainTimeout,
			ProtoDiscardUnknown:   f.ProtoDiscardUnknown,
			DisallowUnknownFields: f.DisallowUnknownFields,
			MaxBodySize:           int64(f.MaxBodySize),
			MaxIntegerDigits:      f.MaxIntegerDigits,
		}),
		invoker.WithLogger(log),
		invoker.WithReporter(reporter),
		invoker.WithAuthorizer(invoker.AuthorizerFunc(authorize)),
	}
}

func newLogger(verbose bool) *zap.Logger {
	if verbose {
		return zap.Must(zap.NewDevelopment())
	}
	conf := zap.NewProductionConfig()
	conf.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	return zap.Must(conf.Build())
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	kongCtx := kong.Parse(
		&CLI,
		kong.BindTo(ctx, (*context.Context)(nil)),
		kong.Bind(DurationLimit{Duration: math.MaxInt64}),
		kong.Groups(map[string]string{
			"invoker": `Invoker flags:`,
			"rate":    `Rate commands:`,
		}),
		kong.ConfigureHelp(kong.HelpOptions{
			Tree:    true,
			Compact: true,
		}),
		kong.Description(`JSON-RPC 2.0 processing engine

Reads JSON-RPC payloads, resolves overloaded methods of a demo catalog and writes the responses.
Flags can be set from JRPC_* environment variables and a .env file.
		`),
	)

	log := newLogger(CLI.Verbose)
	defer log.Sync() //nolint:errcheck
	kongCtx.Bind(log)

	err := kongCtx.Run()
	kongCtx.FatalIfErrorf(err)
}

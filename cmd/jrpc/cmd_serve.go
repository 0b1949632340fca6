package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"
	"golang.org/x/sync/errgroup"

	"github.com/ozontech/jrpc/invoker"
	"github.com/ozontech/jrpc/report"
)

const stdioCaller = "stdio"

type ServeCommand struct {
	Listen         string        `placeholder:"127.0.0.1:7070" help:"Accept TCP connections instead of reading stdin." env:"JRPC_LISTEN"`
	MaxConnections int           `default:"64" help:"Connections served at once." env:"JRPC_MAX_CONNECTIONS"`
	MaxLineSize    string        `default:"4MiB" help:"Longest accepted payload line." env:"JRPC_MAX_LINE_SIZE"`
	Route          string        `default:"" help:"Catalog route the payloads are dispatched to." env:"JRPC_ROUTE"`
	StatsInterval  time.Duration `default:"0s" help:"Print counters to stderr every interval (0 disables)." env:"JRPC_STATS_INTERVAL"`

	InvokerFlags
}

func (c *ServeCommand) Run(ctx context.Context, log *zap.Logger) (err error) {
	maxLine, err := humanize.ParseBytes(c.MaxLineSize)
	if err != nil {
		return fmt.Errorf("parsing max line size: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	counters := report.NewCounters()
	inv := invoker.New(newCatalog(counters), c.options(log, counters)...)

	statsCtx, stopStats := context.WithCancel(context.Background())
	var g errgroup.Group
	if c.StatsInterval > 0 {
		g.Go(func() error { return counters.Run(statsCtx, os.Stderr, c.StatsInterval) })
	}

	lines := &lineServer{inv: inv, route: c.Route, maxLine: int(maxLine), log: log.Named("serve")}
	if c.Listen != "" {
		err = lines.listen(ctx, c.Listen, c.MaxConnections)
	} else {
		err = lines.stdio(ctx, os.Stdin, os.Stdout)
	}

	err = multierr.Append(err, inv.Close())
	stopStats()
	return multierr.Append(err, g.Wait())
}

// lineServer answers every input line with one output line. Lines that
// produce no response (notifications) produce no output.
type lineServer struct {
	inv     *invoker.Invoker
	route   string
	maxLine int
	log     *zap.Logger
}

// stdio serves r until EOF or ctx cancellation. A read blocked on r is left
// behind on cancellation.
func (s *lineServer) stdio(ctx context.Context, r io.Reader, w io.Writer) error {
	done := make(chan error, 1)
	go func() {
		done <- s.serve(invoker.WithCaller(ctx, stdioCaller), r, w)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		s.log.Info("interrupted, draining")
		return nil
	}
}

func (s *lineServer) listen(ctx context.Context, addr string, maxConns int) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening %s: %w", addr, err)
	}
	if maxConns > 0 {
		l = netutil.LimitListener(l, maxConns)
	}
	s.log.Info("listening", zap.Stringer("addr", l.Addr()))

	go func() {
		<-ctx.Done()
		l.Close()
	}()

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accepting: %w", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

func (s *lineServer) handleConn(ctx context.Context, conn net.Conn) {
	log := s.log.With(zap.Stringer("remote", conn.RemoteAddr()))
	ctx, cancel := context.WithCancel(invoker.WithCaller(ctx, conn.RemoteAddr().String()))
	defer cancel()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	if err := s.serve(ctx, conn, conn); err != nil && ctx.Err() == nil {
		log.Warn("connection failed", zap.Error(err))
	}
}

func (s *lineServer) serve(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, min(64*1024, s.maxLine)), s.maxLine)
	out := bufio.NewWriter(w)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		resp, err := s.inv.Process(ctx, s.route, line)
		if err != nil {
			return err
		}
		if resp == nil {
			continue
		}
		out.Write(resp) //nolint:errcheck
		out.WriteByte('\n')
		if err := out.Flush(); err != nil {
			return fmt.Errorf("writing response: %w", err)
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("reading payloads: %w", err)
	}
	return nil
}

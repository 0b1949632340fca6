package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ozontech/jrpc/catalog"
	"github.com/ozontech/jrpc/model"
	"github.com/ozontech/jrpc/report"
)

const adminRoute = "/admin"

var capitals = map[string]string{
	"france":  "Paris",
	"germany": "Berlin",
	"japan":   "Tokyo",
}

// newCatalog builds the methods served by the CLI.
func newCatalog(counters *report.Counters) *catalog.Catalog {
	c := catalog.New()
	c.MustAdd("",
		model.NewMethod("Add", func(_ context.Context, args model.Args) (any, error) {
			return model.ArgAs[int64](args, 0) + model.ArgAs[int64](args, 1), nil
		}, []model.ParamDescriptor{model.Param[int64]("a"), model.Param[int64]("b")}, model.WithResult[int64]()),
		model.NewMethod("Add", func(_ context.Context, args model.Args) (any, error) {
			return model.ArgAs[string](args, 0) + model.ArgAs[string](args, 1), nil
		}, []model.ParamDescriptor{model.Param[string]("a"), model.Param[string]("b")}, model.WithResult[string]()),

		model.NewMethod("Sum", func(_ context.Context, args model.Args) (any, error) {
			return decimal.Sum(decimal.Zero, model.ArgAs[[]decimal.Decimal](args, 0)...), nil
		}, []model.ParamDescriptor{model.Param[[]decimal.Decimal]("values")}, model.WithResult[decimal.Decimal]()),

		model.NewMethod("Echo", func(_ context.Context, args model.Args) (any, error) {
			return model.ArgAs[json.RawMessage](args, 0), nil
		}, []model.ParamDescriptor{model.Param[json.RawMessage]("value")}),

		model.NewMethod("Greet", func(_ context.Context, args model.Args) (any, error) {
			return model.ArgOr(args, 1, "Hello") + ", " + model.ArgAs[string](args, 0) + "!", nil
		}, []model.ParamDescriptor{model.Param[string]("name"), model.Optional[string]("greeting")}),

		model.NewMethod("NewID", func(context.Context, model.Args) (any, error) {
			return uuid.New(), nil
		}, nil, model.WithResult[uuid.UUID]()),
		model.NewMethod("IDVersion", func(_ context.Context, args model.Args) (any, error) {
			return int(model.ArgAs[uuid.UUID](args, 0).Version()), nil
		}, []model.ParamDescriptor{model.Param[uuid.UUID]("id")}),

		model.NewMethod("HumanSize", func(_ context.Context, args model.Args) (any, error) {
			return humanize.Bytes(model.ArgAs[uint64](args, 0)), nil
		}, []model.ParamDescriptor{model.Param[uint64]("bytes")}),

		model.NewMethod("Capital", func(_ context.Context, args model.Args) (any, error) {
			country := model.ArgAs[string](args, 0)
			city, ok := capitals[country]
			if !ok {
				return nil, status.Errorf(codes.NotFound, "unknown country %q", country)
			}
			return city, nil
		}, []model.ParamDescriptor{model.Param[string]("country")}),

		model.NewMethod("Keys", func(_ context.Context, args model.Args) (any, error) {
			fields := model.ArgAs[*structpb.Struct](args, 0).GetFields()
			keys := make([]string, 0, len(fields))
			for k := range fields {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			return keys, nil
		}, []model.ParamDescriptor{model.Param[*structpb.Struct]("object")}),

		model.NewMethod("Sleep", func(ctx context.Context, args model.Args) (any, error) {
			d, err := time.ParseDuration(model.ArgOr(args, 0, "100ms"))
			if err != nil {
				return nil, status.Error(codes.InvalidArgument, err.Error())
			}
			return model.Go(func() (any, error) {
				t := time.NewTimer(d)
				defer t.Stop()
				select {
				case <-t.C:
					return fmt.Sprintf("slept %s", d), nil
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}), nil
		}, []model.ParamDescriptor{model.Optional[string]("duration")}),
	)

	c.MustAdd(adminRoute,
		model.NewMethod("Stats", func(context.Context, model.Args) (any, error) {
			return counters.Snapshot().String(), nil
		}, nil, model.WithAuthorization()),
	)
	return c
}

// authorize lets local callers in: stdin and loopback connections.
func authorize(_ context.Context, _ *model.MethodDescriptor, caller any) (bool, error) {
	addr, ok := caller.(string)
	if !ok {
		return false, nil
	}
	if addr == stdioCaller {
		return true, nil
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false, fmt.Errorf("caller address %q: %w", addr, err)
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback(), nil
}

package invoker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ozontech/jrpc/consts"
	"github.com/ozontech/jrpc/converter"
	"github.com/ozontech/jrpc/matcher"
	"github.com/ozontech/jrpc/model"
	"github.com/ozontech/jrpc/parser"
	"github.com/ozontech/jrpc/report"
	"github.com/ozontech/jrpc/serializer"
	"github.com/ozontech/jrpc/tasks"
	"github.com/ozontech/jrpc/utils/pool"
)

type Invoker struct {
	conf Config

	parser     *parser.Parser
	matcher    *matcher.Matcher
	converter  *converter.Converter
	serializer *serializer.Serializer
	auth       Authorizer
	tasks      *tasks.Pool
	reporter   report.Reporter
	buffers    *pool.BufferPool

	log *zap.Logger
}

func New(catalog matcher.Catalog, opts ...Option) *Invoker {
	o := options{
		conf:     DefaultConfig(),
		log:      zap.NewNop(),
		reporter: report.Noop{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	conf := o.conf
	if conf.CacheSize <= 0 {
		conf.CacheSize = consts.DefaultCacheSize
	}

	var convOpts []converter.Option
	if conf.ProtoDiscardUnknown {
		convOpts = append(convOpts, converter.WithProtoDiscardUnknown())
	}
	if conf.DisallowUnknownFields {
		convOpts = append(convOpts, converter.WithDisallowUnknownFields())
	}
	if conf.MaxIntegerDigits > 0 {
		convOpts = append(convOpts, converter.WithMaxIntegerDigits(conf.MaxIntegerDigits))
	}

	log := o.log.Named("invoker")
	return &Invoker{
		conf:       conf,
		parser:     parser.New(parser.WithMaxBatchSize(conf.MaxBatchSize)),
		matcher:    matcher.New(catalog, matcher.WithCache(conf.CacheSize, conf.CacheTTL), matcher.WithLogger(o.log)),
		converter:  converter.New(convOpts...),
		serializer: serializer.New(),
		auth:       o.auth,
		tasks:      tasks.New(o.log),
		reporter:   o.reporter,
		buffers:    pool.NewBufferPool(consts.MaxPooledBuffers, consts.DefaultBufferSize, consts.MaxPooledBufferSize),
		log:        log,
	}
}

// Invoke runs one request to completion. It returns nil for notifications.
func (i *Invoker) Invoke(ctx context.Context, route string, req *model.Request) *model.Response {
	start := time.Now()
	result, rpcErr := i.call(ctx, route, req)

	obs := report.Observation{
		Method:       req.Method,
		Notification: req.IsNotification(),
		Duration:     time.Since(start),
	}
	if rpcErr != nil {
		obs.Code = rpcErr.Code
	}
	i.reporter.Observe(obs)

	if req.IsNotification() {
		if rpcErr != nil {
			i.log.Warn("notification failed",
				zap.String("method", req.Method),
				zap.Int("code", rpcErr.Code),
				zap.String("message", rpcErr.Message),
			)
		}
		return nil
	}
	if rpcErr != nil {
		return model.NewErrorResponse(req.ID, rpcErr)
	}
	return model.NewResult(req.ID, result)
}

func (i *Invoker) call(ctx context.Context, route string, req *model.Request) (result []byte, rpcErr *model.Error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		i.log.Error("dispatch panicked",
			zap.String("method", req.Method),
			zap.Stringer("id", req.ID),
			zap.Any("panic", r),
		)
		result, rpcErr = nil, model.InternalError("internal error")
	}()

	if err := ctx.Err(); err != nil {
		return nil, model.InternalError("request cancelled")
	}

	desc, rpcErr := i.matcher.Resolve(route, req)
	if rpcErr != nil {
		return nil, rpcErr
	}
	if rpcErr = i.authorize(ctx, desc); rpcErr != nil {
		return nil, rpcErr
	}
	args, rpcErr := i.convert(desc, req.Params)
	if rpcErr != nil {
		return nil, rpcErr
	}

	out, err := invokeMethod(ctx, desc, args)
	if err != nil {
		return nil, i.mapError(req, err)
	}

	result, err = i.serializer.MarshalValue(out)
	if err != nil {
		i.log.Error("result encoding failed",
			zap.String("method", desc.Name),
			zap.Stringer("id", req.ID),
			zap.Error(err),
		)
		return nil, i.internalError(fmt.Errorf("encoding result: %w", err))
	}
	return result, nil
}

func (i *Invoker) authorize(ctx context.Context, desc *model.MethodDescriptor) *model.Error {
	if !desc.RequiresAuthorization {
		return nil
	}
	if i.auth == nil {
		return model.Unauthorized("Unauthorized")
	}
	allowed, err := i.auth.IsAllowed(ctx, desc, CallerFrom(ctx))
	if err != nil {
		i.log.Error("authorization failed", zap.String("method", desc.Name), zap.Error(err))
		return i.internalError(fmt.Errorf("authorization: %w", err))
	}
	if !allowed {
		return model.Unauthorized("Unauthorized")
	}
	return nil
}

func (i *Invoker) convert(desc *model.MethodDescriptor, params model.Params) (model.Args, *model.Error) {
	values, rpcErr := matcher.Bind(desc, params)
	if rpcErr != nil {
		return nil, rpcErr
	}
	args := make(model.Args, len(desc.Params))
	for idx, p := range desc.Params {
		arg, err := i.converter.ConvertParam(values[idx], p)
		if err != nil {
			return nil, model.InvalidParams(fmt.Sprintf("invalid param %q: %s", p.Name, err))
		}
		args[idx] = arg
	}
	return args, nil
}

// invokeMethod calls the method and awaits its Future, if any. Everything
// that goes wrong in here is reported as a *model.MethodError.
func invokeMethod(ctx context.Context, desc *model.MethodDescriptor, args model.Args) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, &model.MethodError{Method: desc.Name, Err: &model.PanicError{Value: r}}
		}
	}()

	out, err = desc.Func(ctx, args)
	if err == nil {
		if f, ok := out.(model.Future); ok {
			out, err = f.Await(ctx)
		}
	}
	if err != nil {
		return nil, &model.MethodError{Method: desc.Name, Err: err}
	}
	return out, nil
}

func (i *Invoker) mapError(req *model.Request, err error) *model.Error {
	var rpcErr *model.Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}

	if st, ok := status.FromError(errors.Unwrap(err)); ok {
		switch st.Code() {
		case codes.InvalidArgument:
			return model.InvalidParams(st.Message())
		case codes.NotFound, codes.Unimplemented:
			return model.MethodNotFound(st.Message())
		case codes.PermissionDenied, codes.Unauthenticated:
			return model.Unauthorized(st.Message())
		}
	}

	i.log.Error("method failed",
		zap.String("method", req.Method),
		zap.Stringer("id", req.ID),
		zap.Error(err),
	)
	return i.internalError(err)
}

func (i *Invoker) internalError(err error) *model.Error {
	if i.conf.ShowInternalErrors {
		return model.InternalError(err.Error())
	}
	return model.InternalError("Internal error")
}

// Close stops accepting notifications and waits for the running ones up to
// the configured drain timeout.
func (i *Invoker) Close() error {
	return i.tasks.DrainAndStop(i.conf.DrainTimeout)
}

package invoker

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ozontech/jrpc/model"
	"github.com/ozontech/jrpc/parser"
)

// Process handles one payload and returns the bytes to send back. Nil bytes
// with a nil error mean nothing must be sent (notifications only). A non-nil
// error means the payload was abandoned because ctx was cancelled.
func (i *Invoker) Process(ctx context.Context, route string, body []byte) ([]byte, error) {
	batch, err := i.parser.Parse(ctx, body)
	if err != nil {
		rpcErr, ok := parser.IsFatal(err)
		if !ok {
			return nil, err
		}
		i.log.Debug("payload rejected", zap.Int("code", rpcErr.Code), zap.String("message", rpcErr.Message))
		return i.serialize(model.NewErrorResponse(model.NullID, rpcErr))
	}

	responses, err := i.Dispatch(ctx, route, batch)
	if err != nil {
		return nil, err
	}
	switch {
	case batch.IsBulk && len(responses) > 0:
		out, err := i.serializer.SerializeBatch(responses)
		if err != nil {
			i.log.Error("batch encoding failed", zap.Error(err))
		}
		return out, nil
	case len(responses) == 1:
		return i.serialize(responses[0])
	}
	return nil, nil
}

var errBodyTooLarge = model.InvalidRequest("request body too large")

// ProcessReader reads the whole payload from r into a pooled buffer and
// processes it. A payload over MaxBodySize is answered with an error
// without being parsed.
func (i *Invoker) ProcessReader(ctx context.Context, route string, r io.Reader) ([]byte, error) {
	buf := i.buffers.Acquire()
	defer func() { i.buffers.Release(buf) }()

	limit := i.conf.MaxBodySize
	if limit > 0 {
		r = io.LimitReader(r, limit+1)
	}

	for {
		if len(buf) == cap(buf) {
			buf = append(buf, 0)[:len(buf)]
		}
		n, err := r.Read(buf[len(buf):cap(buf)])
		buf = buf[:len(buf)+n]
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading payload: %w", err)
		}
	}
	if limit > 0 && int64(len(buf)) > limit {
		i.log.Warn("payload rejected", zap.Int64("limit", limit), zap.String("message", errBodyTooLarge.Message))
		return i.serialize(model.NewErrorResponse(model.NullID, errBodyTooLarge))
	}
	return i.Process(ctx, route, buf)
}

// Dispatch runs every parsed element. Requests with ids run concurrently
// and are waited for, notifications are handed over to the task pool.
// Responses keep the order of the batch elements.
func (i *Invoker) Dispatch(ctx context.Context, route string, batch parser.Batch) ([]*model.Response, error) {
	slots := make([]*model.Response, len(batch.Results))

	var g errgroup.Group
	if i.conf.BatchConcurrency > 0 {
		g.SetLimit(i.conf.BatchConcurrency)
	}
	for idx, r := range batch.Results {
		switch {
		case r.Err != nil:
			if r.ID.IsPresent() || r.NullReply {
				slots[idx] = model.NewErrorResponse(r.ID, r.Err)
				continue
			}
			i.log.Warn("invalid notification dropped",
				zap.Int("code", r.Err.Code),
				zap.String("message", r.Err.Message),
			)
		case r.Request.IsNotification():
			i.notify(ctx, route, r.Request)
		case !batch.IsBulk:
			slots[idx] = i.Invoke(ctx, route, r.Request)
		default:
			idx, r := idx, r
			g.Go(func() error {
				slots[idx] = i.Invoke(ctx, route, r.Request)
				return nil
			})
		}
	}
	g.Wait() //nolint:errcheck

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	responses := slots[:0]
	for _, resp := range slots {
		if resp != nil {
			responses = append(responses, resp)
		}
	}
	return responses, nil
}

// notify runs a notification detached from the payload: it outlives ctx
// cancellation and owns a copy of its params.
func (i *Invoker) notify(ctx context.Context, route string, req *model.Request) {
	req = req.Clone()
	err := i.tasks.Submit(context.WithoutCancel(ctx), "notification "+req.Method, func(ctx context.Context) error {
		i.Invoke(ctx, route, req)
		return nil
	})
	if err != nil {
		i.log.Warn("notification dropped", zap.String("method", req.Method), zap.Error(err))
	}
}

func (i *Invoker) serialize(resp *model.Response) ([]byte, error) {
	out, err := i.serializer.Serialize(resp)
	if err != nil {
		i.log.Error("response encoding failed", zap.Stringer("id", resp.ID), zap.Error(err))
	}
	return out, nil
}

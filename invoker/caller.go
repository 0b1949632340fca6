package invoker

import (
	"context"

	"github.com/ozontech/jrpc/model"
)

// Authorizer decides whether the caller may invoke a method flagged with
// RequiresAuthorization. It may block, ctx is the request context.
type Authorizer interface {
	IsAllowed(ctx context.Context, method *model.MethodDescriptor, caller any) (bool, error)
}

type AuthorizerFunc func(ctx context.Context, method *model.MethodDescriptor, caller any) (bool, error)

func (f AuthorizerFunc) IsAllowed(ctx context.Context, method *model.MethodDescriptor, caller any) (bool, error) {
	return f(ctx, method, caller)
}

type callerKey struct{}

// WithCaller attaches the identity the transport authenticated.
func WithCaller(ctx context.Context, caller any) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

func CallerFrom(ctx context.Context) any {
	return ctx.Value(callerKey{})
}

// Package context carries request-scoped values between transport and domain.
package context

import "context"

// Request describes the inbound call a piece of work belongs to.
type Request struct {
	ID      string
	TraceID string

	// Operator is the cashier or terminal label sent by the till. It is
	// recorded on sales and audit rows and is never authenticated.
	Operator string
}

type requestKey struct{}

// WithRequest attaches r to ctx.
func WithRequest(ctx context.Context, r Request) context.Context {
	return context.WithValue(ctx, requestKey{}, r)
}

// RequestFrom returns the request attached to ctx.
func RequestFrom(ctx context.Context) (Request, bool) {
	r, ok := ctx.Value(requestKey{}).(Request)
	return r, ok
}

// RequestID returns the request ID or "".
func RequestID(ctx context.Context) string {
	r, _ := RequestFrom(ctx)
	return r.ID
}

// Operator returns the operator label or "".
func Operator(ctx context.Context) string {
	r, _ := RequestFrom(ctx)
	return r.Operator
}

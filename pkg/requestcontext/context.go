// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values. Middleware sets them; services and handlers read
// them without importing net/http.
package requestcontext

import (
	"context"
	"time"
)

// Context key types (unexported for encapsulation).
type (
	submitterIDKey struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// WithSubmitterID attaches the authenticated submitter id to the context.
func WithSubmitterID(ctx context.Context, submitterID string) context.Context {
	return context.WithValue(ctx, submitterIDKey{}, submitterID)
}

// SubmitterID returns the authenticated submitter id, or "" when the request
// is unauthenticated.
func SubmitterID(ctx context.Context) string {
	v, _ := ctx.Value(submitterIDKey{}).(string)
	return v
}

// WithRequestID attaches the correlation id for the current request.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the correlation id, or "" when none was set.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}

// WithTime pins the request time, mainly for tests that need a fixed clock.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}

// Now returns the pinned request time, falling back to the wall clock.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

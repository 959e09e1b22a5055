// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values. Middleware sets them; services and stores read them
// without importing net/http.
package requestcontext

import (
	"context"
	"time"
)

type (
	actorIDKey     struct{}
	actorNameKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for tests that need raw context.WithValue.
var (
	ContextKeyActorID     = actorIDKey{}
	ContextKeyActorName   = actorNameKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// ActorName carries the display name split the audit trail records.
type ActorName struct {
	First string
	Last  string
}

// ActorID retrieves the authenticated actor ID from the context.
func ActorID(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyActorID).(string); ok {
		return id
	}
	return ""
}

// WithActorID injects an actor ID into the context.
func WithActorID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeyActorID, id)
}

// Actor retrieves the actor display name from the context.
func Actor(ctx context.Context) ActorName {
	if n, ok := ctx.Value(ContextKeyActorName).(ActorName); ok {
		return n
	}
	return ActorName{}
}

// WithActor injects an actor display name into the context.
func WithActor(ctx context.Context, name ActorName) context.Context {
	return context.WithValue(ctx, ContextKeyActorName, name)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, id)
}

// Now retrieves the request-scoped time from context. Falls back to
// time.Now() for non-HTTP contexts such as workers and tests.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for service unit
// tests and for workers that want consistent time within a batch.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}

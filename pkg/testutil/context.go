package testutil

import (
	"context"
	"net/http"
	"time"

	"medidrop/pkg/requestcontext"
)

// WithActor adds an actor ID to the request context, simulating what the
// auth middleware does for authenticated requests.
func WithActor(req *http.Request, actorID string) *http.Request {
	ctx := requestcontext.WithActorID(req.Context(), actorID)
	return req.WithContext(ctx)
}

// WithTime pins the request-scoped time, simulating the request-time
// middleware with a fixed clock.
func WithTime(req *http.Request, t time.Time) *http.Request {
	ctx := requestcontext.WithTime(req.Context(), t)
	return req.WithContext(ctx)
}

// Context builds a service-level context with an actor and a fixed time.
func Context(actorID string, now time.Time) context.Context {
	ctx := requestcontext.WithActorID(context.Background(), actorID)
	return requestcontext.WithTime(ctx, now)
}

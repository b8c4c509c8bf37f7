package llm

import "context"

// Attribution identifies the application a request originates from. Some
// aggregators use it for ranking and rate-limit tiering; it is never needed
// for a request to succeed.
type Attribution struct {
	Origin string
	Title  string
}

// ClientContext supplies attribution for an outbound call.
type ClientContext interface {
	Attribution(ctx context.Context) Attribution
}

type attributionKey struct{}

// WithAttribution stores per-request attribution, typically the Origin of
// the browser page that issued the request.
func WithAttribution(ctx context.Context, a Attribution) context.Context {
	return context.WithValue(ctx, attributionKey{}, a)
}

// AttributionFrom returns the attribution stored in ctx, if any.
func AttributionFrom(ctx context.Context) (Attribution, bool) {
	a, ok := ctx.Value(attributionKey{}).(Attribution)
	return a, ok
}

// StaticClientContext prefers attribution carried by the request context and
// fills blanks from fixed values.
type StaticClientContext struct {
	Origin string
	Title  string
}

func (s StaticClientContext) Attribution(ctx context.Context) Attribution {
	a, _ := AttributionFrom(ctx)
	if a.Origin == "" {
		a.Origin = s.Origin
	}
	if a.Title == "" {
		a.Title = s.Title
	}
	return a
}

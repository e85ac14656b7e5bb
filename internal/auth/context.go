// ABOUTME: Client identity carried through request handlers
// ABOUTME: Provides WithClient/FromContext for propagating the client ID via context

package auth

import (
	"context"
)

// ClientContext identifies the browser a request came from. The AuthFlag is stored per client.
type ClientContext struct {
	ClientID string
	// Issued is true when the client cookie was minted on this request.
	Issued bool
}

// clientContextKey is the key type for storing ClientContext in context.Context.
type clientContextKey struct{}

// WithClient returns a new context with the ClientContext attached.
func WithClient(ctx context.Context, client *ClientContext) context.Context {
	return context.WithValue(ctx, clientContextKey{}, client)
}

// FromContext retrieves the ClientContext from the context, returning nil if not present.
func FromContext(ctx context.Context) *ClientContext {
	client, _ := ctx.Value(clientContextKey{}).(*ClientContext)
	return client
}

// MustFromContext retrieves the ClientContext from the context, panicking if not present.
func MustFromContext(ctx context.Context) *ClientContext {
	client := FromContext(ctx)
	if client == nil {
		panic("auth: ClientContext not found in context")
	}
	return client
}

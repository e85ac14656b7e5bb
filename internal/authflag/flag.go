// ABOUTME: The persisted "isAuthenticated" flag scoped to one client identity
// ABOUTME: Implements guard.Authenticator on top of a store.FlagStore

package authflag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/2389/modelview/internal/auth"
	"github.com/2389/modelview/internal/guard"
	"github.com/2389/modelview/internal/store"
)

// Key is the name the flag is stored under.
const Key = "isAuthenticated"

// ErrNoClient is returned when a write is attempted without a client identity in context.
var ErrNoClient = errors.New("no client identity in context")

// Truthy reports whether a stored value counts as authenticated.
// Any non-empty value is truthy, including "false" and "0".
func Truthy(value string) bool {
	return value != ""
}

// Flag reads and writes the authentication flag for the client in context.
type Flag struct {
	store  store.FlagStore
	logger *slog.Logger
}

var _ guard.Authenticator = (*Flag)(nil)

// New creates a Flag backed by s.
func New(s store.FlagStore, logger *slog.Logger) *Flag {
	if logger == nil {
		logger = slog.Default()
	}
	return &Flag{store: s, logger: logger.With("component", "authflag")}
}

// IsAuthenticated reports the flag for the client in ctx. A missing client,
// an absent flag and a failing store all read as unauthenticated.
func (f *Flag) IsAuthenticated(ctx context.Context) bool {
	value, err := f.Get(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoClient) && !errors.Is(err, store.ErrNotFound) {
			f.logger.Warn("reading auth flag failed", "error", err)
		}
		return false
	}
	return Truthy(value)
}

// Get returns the raw stored value.
func (f *Flag) Get(ctx context.Context) (string, error) {
	client := auth.FromContext(ctx)
	if client == nil {
		return "", ErrNoClient
	}
	return f.store.GetFlag(ctx, client.ClientID, Key)
}

// Set stores value for the client in ctx.
func (f *Flag) Set(ctx context.Context, value string) error {
	client := auth.FromContext(ctx)
	if client == nil {
		return ErrNoClient
	}
	if err := f.store.SetFlag(ctx, client.ClientID, Key, value); err != nil {
		return fmt.Errorf("setting %s: %w", Key, err)
	}
	f.logger.Debug("auth flag set", "client_id", client.ClientID)
	return nil
}

// Clear removes the flag for the client in ctx.
func (f *Flag) Clear(ctx context.Context) error {
	client := auth.FromContext(ctx)
	if client == nil {
		return ErrNoClient
	}
	if err := f.store.DeleteFlag(ctx, client.ClientID, Key); err != nil {
		return fmt.Errorf("clearing %s: %w", Key, err)
	}
	f.logger.Debug("auth flag cleared", "client_id", client.ClientID)
	return nil
}

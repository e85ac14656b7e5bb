// ABOUTME: Navigation guard deciding whether a route transition proceeds or redirects to login
// ABOUTME: Reads authentication through an injected Authenticator and never mutates it

package guard

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/2389/modelview/internal/routes"
)

// DefaultLoginRoute is the route name unauthenticated visitors are sent to.
const DefaultLoginRoute = "login"

// Authenticator reports whether the visitor behind ctx is authenticated.
type Authenticator interface {
	IsAuthenticated(ctx context.Context) bool
}

// AuthenticatorFunc adapts a function to the Authenticator interface.
type AuthenticatorFunc func(ctx context.Context) bool

// IsAuthenticated calls f(ctx).
func (f AuthenticatorFunc) IsAuthenticated(ctx context.Context) bool {
	return f(ctx)
}

// Static returns an Authenticator that always reports the given state.
func Static(authenticated bool) Authenticator {
	return AuthenticatorFunc(func(context.Context) bool { return authenticated })
}

// Action is the outcome of a guard decision.
type Action int

const (
	// Proceed continues the transition to the target route unchanged.
	Proceed Action = iota
	// Redirect sends the navigation to the login route instead.
	Redirect
)

// String returns "proceed" or "redirect".
func (a Action) String() string {
	switch a {
	case Proceed:
		return "proceed"
	case Redirect:
		return "redirect"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(text []byte) error {
	switch string(text) {
	case "proceed":
		*a = Proceed
	case "redirect":
		*a = Redirect
	default:
		return fmt.Errorf("unknown guard action %q", text)
	}
	return nil
}

// Decide is the guard's decision function: protected targets need authentication,
// everything else proceeds.
func Decide(target routes.Route, authenticated bool) Action {
	if target.RequiresAuth() && !authenticated {
		return Redirect
	}
	return Proceed
}

// Decision records one guard evaluation.
type Decision struct {
	Action Action
	Target routes.Route
	Source routes.Route
	// Location is the login route when Action is Redirect, zero otherwise.
	Location routes.Route
}

// Guard evaluates navigations against the route table and an Authenticator.
type Guard struct {
	auth   Authenticator
	login  routes.Route
	logger *slog.Logger
	tracer trace.Tracer
}

// Option configures a Guard.
type Option func(*options)

type options struct {
	loginRoute string
	logger     *slog.Logger
}

// WithLoginRoute overrides the name of the route used for redirects.
func WithLoginRoute(name string) Option {
	return func(o *options) { o.loginRoute = name }
}

// WithLogger sets the guard's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New creates a Guard. The login route must exist in table and must be public,
// otherwise a redirect to it would be redirected again.
func New(table *routes.Table, auth Authenticator, opts ...Option) (*Guard, error) {
	o := options{
		loginRoute: DefaultLoginRoute,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if auth == nil {
		return nil, fmt.Errorf("guard: authenticator is required")
	}
	login, ok := table.Lookup(o.loginRoute)
	if !ok {
		return nil, fmt.Errorf("guard: login route %q not in route table", o.loginRoute)
	}
	if login.Kind != routes.KindPublic {
		return nil, fmt.Errorf("guard: login route %q must be public, is %s", o.loginRoute, login.Kind)
	}

	return &Guard{
		auth:   auth,
		login:  login,
		logger: o.logger.With("component", "guard"),
		tracer: otel.Tracer("github.com/2389/modelview/internal/guard"),
	}, nil
}

// LoginRoute returns the route redirects are sent to.
func (g *Guard) LoginRoute() routes.Route {
	return g.login
}

// Check decides the transition from source to target. The Authenticator is consulted
// only for protected targets; any failure inside it counts as unauthenticated.
func (g *Guard) Check(ctx context.Context, target, source routes.Route) Decision {
	ctx, span := g.tracer.Start(ctx, "guard.Check", trace.WithAttributes(
		attribute.String("route.target", target.Path),
		attribute.String("route.source", source.Path),
		attribute.Bool("route.requires_auth", target.RequiresAuth()),
	))
	defer span.End()

	authenticated := false
	if target.RequiresAuth() {
		authenticated = g.auth.IsAuthenticated(ctx)
	}

	d := Decision{
		Action: Decide(target, authenticated),
		Target: target,
		Source: source,
	}
	if d.Action == Redirect {
		d.Location = g.login
	}

	span.SetAttributes(attribute.String("guard.action", d.Action.String()))
	g.logger.Debug("navigation checked",
		"from", source.Path,
		"to", target.Path,
		"action", d.Action.String(),
	)
	return d
}

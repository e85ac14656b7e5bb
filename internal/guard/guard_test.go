// ABOUTME: Tests for the navigation guard
// ABOUTME: Covers the pure decision table, authenticator reads, and construction errors

package guard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/modelview/internal/routes"
)

// countingAuth records how often the guard consults it.
type countingAuth struct {
	authenticated bool
	calls         int
}

func (c *countingAuth) IsAuthenticated(context.Context) bool {
	c.calls++
	return c.authenticated
}

func TestDecide(t *testing.T) {
	table := routes.Default()
	for _, r := range table.Routes() {
		if r.Kind == routes.KindRedirect {
			continue
		}
		for _, authed := range []bool{false, true} {
			got := Decide(r, authed)
			want := Proceed
			if r.RequiresAuth() && !authed {
				want = Redirect
			}
			assert.Equal(t, want, got, "Decide(%s, %v)", r.Name, authed)
		}
	}
}

func TestCheckProtectedRouteRedirectsWhenUnauthenticated(t *testing.T) {
	table := routes.Default()
	auth := &countingAuth{}
	g, err := New(table, auth)
	require.NoError(t, err)

	home, _ := table.Lookup("home")
	images, _ := table.Lookup("images")

	d := g.Check(context.Background(), home, images)
	assert.Equal(t, Redirect, d.Action)
	assert.Equal(t, "login", d.Location.Name)
	assert.Equal(t, "/login", d.Location.Path)
	assert.Equal(t, home, d.Target)
	assert.Equal(t, images, d.Source)
	assert.Equal(t, 1, auth.calls)
}

func TestCheckProtectedRouteProceedsWhenAuthenticated(t *testing.T) {
	table := routes.Default()
	g, err := New(table, Static(true))
	require.NoError(t, err)

	home, _ := table.Lookup("home")
	d := g.Check(context.Background(), home, routes.Route{})
	assert.Equal(t, Proceed, d.Action)
	assert.True(t, d.Location.IsZero())
}

func TestCheckPublicRouteSkipsAuthenticator(t *testing.T) {
	table := routes.Default()
	auth := &countingAuth{}
	g, err := New(table, auth)
	require.NoError(t, err)

	for _, name := range []string{"login", "images"} {
		r, _ := table.Lookup(name)
		d := g.Check(context.Background(), r, routes.Route{})
		assert.Equal(t, Proceed, d.Action, name)
	}
	assert.Zero(t, auth.calls, "public routes must not read the auth flag")
}

func TestCheckDoesNotCacheAuthentication(t *testing.T) {
	table := routes.Default()
	auth := &countingAuth{}
	g, err := New(table, auth)
	require.NoError(t, err)
	home, _ := table.Lookup("home")

	assert.Equal(t, Redirect, g.Check(context.Background(), home, routes.Route{}).Action)
	auth.authenticated = true
	assert.Equal(t, Proceed, g.Check(context.Background(), home, routes.Route{}).Action)
	auth.authenticated = false
	assert.Equal(t, Redirect, g.Check(context.Background(), home, routes.Route{}).Action)
	assert.Equal(t, 3, auth.calls)
}

func TestNewErrors(t *testing.T) {
	table := routes.Default()

	_, err := New(table, nil)
	assert.Error(t, err)

	_, err = New(table, Static(false), WithLoginRoute("signin"))
	assert.ErrorContains(t, err, "not in route table")

	_, err = New(table, Static(false), WithLoginRoute("home"))
	assert.ErrorContains(t, err, "must be public")
}

func TestCustomLoginRoute(t *testing.T) {
	table := routes.MustNewTable(
		routes.Public("/signin", "signin", "SignIn"),
		routes.Protected("/vault", "vault", "Vault"),
	)
	g, err := New(table, Static(false), WithLoginRoute("signin"))
	require.NoError(t, err)

	vault, _ := table.Lookup("vault")
	d := g.Check(context.Background(), vault, routes.Route{})
	assert.Equal(t, Redirect, d.Action)
	assert.Equal(t, "/signin", d.Location.Path)
	assert.Equal(t, "/signin", g.LoginRoute().Path)
}

func TestActionString(t *testing.T) {
	assert.Equal(t, "proceed", Proceed.String())
	assert.Equal(t, "redirect", Redirect.String())
	assert.Equal(t, "action(7)", Action(7).String())
}

func TestActionTextRoundTrip(t *testing.T) {
	for _, a := range []Action{Proceed, Redirect} {
		text, err := a.MarshalText()
		require.NoError(t, err)
		var got Action
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, a, got)
	}

	var a Action
	assert.Error(t, a.UnmarshalText([]byte("action(7)")))
}

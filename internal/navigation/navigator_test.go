// ABOUTME: Tests for the navigator
// ABOUTME: Exercises the navigation properties for protected, public, redirect, and unknown paths

package navigation

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/modelview/internal/guard"
	"github.com/2389/modelview/internal/routes"
)

// flagAuth mimics a stored flag that tests flip between navigations.
type flagAuth struct {
	set bool
}

func (f *flagAuth) IsAuthenticated(context.Context) bool { return f.set }

func newNavigator(t *testing.T, auth guard.Authenticator, policy UnknownPolicy) *Navigator {
	t.Helper()
	table := routes.Default()
	g, err := guard.New(table, auth)
	require.NoError(t, err)
	return New(table, g, policy)
}

func TestProtectedRoutesRedirectWithoutFlag(t *testing.T) {
	nav := newNavigator(t, guard.Static(false), UnknownNotFound)
	ctx := context.Background()

	for _, r := range nav.Table().Routes() {
		if !r.RequiresAuth() {
			continue
		}
		for _, from := range []string{"", "/login", "/images", "/home", "/unknown"} {
			res := nav.Navigate(ctx, r.Path, from)
			assert.Equal(t, OutcomeRedirect, res.Outcome, "to=%s from=%s", r.Path, from)
			assert.Equal(t, "/login", res.Location)
			assert.Equal(t, ReasonAuthRequired, res.Reason)
			assert.Equal(t, http.StatusSeeOther, res.Status)
		}
	}
}

func TestPublicRoutesProceedRegardlessOfFlag(t *testing.T) {
	for _, authed := range []bool{false, true} {
		nav := newNavigator(t, guard.Static(authed), UnknownNotFound)
		for _, r := range nav.Table().Routes() {
			if r.Kind != routes.KindPublic {
				continue
			}
			res := nav.Navigate(context.Background(), r.Path, "")
			assert.Equal(t, OutcomeRender, res.Outcome, "to=%s authed=%v", r.Path, authed)
			assert.Equal(t, r, res.Route)
			assert.Equal(t, http.StatusOK, res.Status)
		}
	}
}

func TestRootAlwaysRedirectsToLogin(t *testing.T) {
	for _, authed := range []bool{false, true} {
		nav := newNavigator(t, guard.Static(authed), UnknownNotFound)
		res := nav.Navigate(context.Background(), "/", "")
		assert.Equal(t, OutcomeRedirect, res.Outcome)
		assert.Equal(t, "/login", res.Location)
		assert.Equal(t, ReasonRouteTable, res.Reason)
		assert.Equal(t, http.StatusFound, res.Status)
	}
}

func TestFlagLifecycle(t *testing.T) {
	auth := &flagAuth{}
	nav := newNavigator(t, auth, UnknownNotFound)
	ctx := context.Background()

	auth.set = true
	res := nav.Navigate(ctx, "/home", "/login")
	assert.Equal(t, OutcomeRender, res.Outcome)
	assert.Equal(t, "home", res.Route.Name)
	assert.Equal(t, "Home", res.Route.View)

	auth.set = false
	res = nav.Navigate(ctx, "/home", "/images")
	assert.Equal(t, OutcomeRedirect, res.Outcome)
	assert.Equal(t, "/login", res.Location)
}

func TestUnknownPathPolicies(t *testing.T) {
	nav := newNavigator(t, guard.Static(true), UnknownNotFound)
	res := nav.Navigate(context.Background(), "/missing/", "")
	assert.Equal(t, OutcomeNotFound, res.Outcome)
	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.Equal(t, "/missing", res.Path)
	assert.Equal(t, NotFoundView, res.Route.View)

	nav = newNavigator(t, guard.Static(true), UnknownLogin)
	res = nav.Navigate(context.Background(), "/missing", "")
	assert.Equal(t, OutcomeRedirect, res.Outcome)
	assert.Equal(t, "/login", res.Location)
	assert.Equal(t, ReasonUnknownPath, res.Reason)
}

func TestParseUnknownPolicy(t *testing.T) {
	p, err := ParseUnknownPolicy("")
	require.NoError(t, err)
	assert.Equal(t, UnknownNotFound, p)

	p, err = ParseUnknownPolicy("login")
	require.NoError(t, err)
	assert.Equal(t, UnknownLogin, p)

	_, err = ParseUnknownPolicy("teapot")
	assert.Error(t, err)
}

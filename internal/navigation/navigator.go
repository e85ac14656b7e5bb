// ABOUTME: Navigator resolving a requested path through the route table and the guard
// ABOUTME: Produces render, redirect, or not-found results for documents and SPA transitions

package navigation

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/2389/modelview/internal/guard"
	"github.com/2389/modelview/internal/routes"
)

// UnknownPolicy selects what happens when a path matches no route.
type UnknownPolicy string

const (
	// UnknownNotFound renders the not-found view with a 404 status.
	UnknownNotFound UnknownPolicy = "not_found"
	// UnknownLogin redirects to the login route.
	UnknownLogin UnknownPolicy = "login"
)

// ParseUnknownPolicy validates a configured policy. Empty selects UnknownNotFound.
func ParseUnknownPolicy(s string) (UnknownPolicy, error) {
	switch UnknownPolicy(s) {
	case "", UnknownNotFound:
		return UnknownNotFound, nil
	case UnknownLogin:
		return UnknownLogin, nil
	default:
		return "", fmt.Errorf("unknown path policy %q (want %q or %q)", s, UnknownNotFound, UnknownLogin)
	}
}

// Outcome is what the shell should do with a navigation.
type Outcome string

const (
	OutcomeRender   Outcome = "render"
	OutcomeRedirect Outcome = "redirect"
	OutcomeNotFound Outcome = "not_found"
)

// Reason explains a redirect.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonRouteTable   Reason = "route_redirect"
	ReasonAuthRequired Reason = "auth_required"
	ReasonUnknownPath  Reason = "unknown_path"
)

// NotFoundView is the view name the frontend renders for unknown paths.
const NotFoundView = "NotFound"

// Result describes the outcome of one navigation.
type Result struct {
	Outcome Outcome `json:"outcome"`
	// Route is the route to render, or the route being redirected to.
	Route    routes.Route `json:"route"`
	Location string       `json:"location,omitempty"`
	Status   int          `json:"status"`
	Reason   Reason       `json:"reason,omitempty"`
	// Path is the canonical requested path.
	Path string `json:"path"`
}

// Navigator runs every navigation through the route table and the guard.
type Navigator struct {
	table   *routes.Table
	guard   *guard.Guard
	unknown UnknownPolicy
}

// New creates a Navigator.
func New(table *routes.Table, g *guard.Guard, unknown UnknownPolicy) *Navigator {
	if unknown == "" {
		unknown = UnknownNotFound
	}
	return &Navigator{table: table, guard: g, unknown: unknown}
}

// Table returns the navigator's route table.
func (n *Navigator) Table() *routes.Table {
	return n.table
}

// Navigate decides the transition from the path from to the path to. An empty or
// unknown from is treated as the initial load.
func (n *Navigator) Navigate(ctx context.Context, to, from string) Result {
	path := routes.CanonicalPath(to)
	source := n.resolveSource(from)

	m, err := n.table.Resolve(path)
	if err != nil {
		return n.unknownPath(path, err)
	}

	d := n.guard.Check(ctx, m.Route, source)
	if d.Action == guard.Redirect {
		return Result{
			Outcome:  OutcomeRedirect,
			Route:    d.Location,
			Location: d.Location.Path,
			Status:   http.StatusSeeOther,
			Reason:   ReasonAuthRequired,
			Path:     path,
		}
	}

	if m.Redirected() {
		return Result{
			Outcome:  OutcomeRedirect,
			Route:    m.Route,
			Location: m.Route.Path,
			Status:   http.StatusFound,
			Reason:   ReasonRouteTable,
			Path:     path,
		}
	}

	return Result{
		Outcome: OutcomeRender,
		Route:   m.Route,
		Status:  http.StatusOK,
		Path:    path,
	}
}

func (n *Navigator) resolveSource(from string) routes.Route {
	if from == "" {
		return routes.Route{}
	}
	m, err := n.table.Resolve(from)
	if err != nil {
		return routes.Route{}
	}
	return m.Route
}

func (n *Navigator) unknownPath(path string, err error) Result {
	if n.unknown == UnknownLogin && errors.Is(err, routes.ErrNoRoute) {
		login := n.guard.LoginRoute()
		return Result{
			Outcome:  OutcomeRedirect,
			Route:    login,
			Location: login.Path,
			Status:   http.StatusSeeOther,
			Reason:   ReasonUnknownPath,
			Path:     path,
		}
	}
	return Result{
		Outcome: OutcomeNotFound,
		Route:   routes.Route{Path: path, View: NotFoundView, Kind: routes.KindPublic},
		Status:  http.StatusNotFound,
		Path:    path,
	}
}

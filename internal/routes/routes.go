// ABOUTME: Static route table mapping document paths to named views
// ABOUTME: Routes are tagged public, protected, or redirect and never change after startup

package routes

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrNoRoute is returned when a path does not match any route in the table.
var ErrNoRoute = errors.New("no route for path")

// Kind tags a route with how navigation to it is authorized.
type Kind int

const (
	// KindPublic routes render for every visitor.
	KindPublic Kind = iota
	// KindProtected routes render only while the AuthFlag is truthy.
	KindProtected
	// KindRedirect routes never render; navigation continues at RedirectTo.
	KindRedirect
)

// String returns the kind name used in logs and JSON.
func (k Kind) String() string {
	switch k {
	case KindPublic:
		return "public"
	case KindProtected:
		return "protected"
	case KindRedirect:
		return "redirect"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	switch string(text) {
	case "public":
		*k = KindPublic
	case "protected":
		*k = KindProtected
	case "redirect":
		*k = KindRedirect
	default:
		return fmt.Errorf("unknown route kind %q", text)
	}
	return nil
}

// Route is one entry of the route table.
type Route struct {
	Path       string `json:"path"`
	Name       string `json:"name,omitempty"`
	View       string `json:"view,omitempty"` // opaque component handle consumed by the frontend renderer
	Kind       Kind   `json:"kind"`
	RedirectTo string `json:"redirect_to,omitempty"` // target path, only for KindRedirect
}

// Public declares a route that renders for everyone.
func Public(path, name, view string) Route {
	return Route{Path: path, Name: name, View: view, Kind: KindPublic}
}

// Protected declares a route that requires authentication.
func Protected(path, name, view string) Route {
	return Route{Path: path, Name: name, View: view, Kind: KindProtected}
}

// Redirect declares an unconditional redirect from path to target.
func Redirect(path, target string) Route {
	return Route{Path: path, Kind: KindRedirect, RedirectTo: target}
}

// RequiresAuth reports whether the route is protected.
func (r Route) RequiresAuth() bool {
	return r.Kind == KindProtected
}

// IsZero reports whether r is the zero Route, used as the source of an initial load.
func (r Route) IsZero() bool {
	return r.Path == ""
}

// Match is the outcome of resolving a path.
type Match struct {
	Route Route
	// RedirectedFrom is the originally requested path when redirect routes were followed.
	RedirectedFrom string
}

// Redirected reports whether resolution passed through a redirect route.
func (m Match) Redirected() bool {
	return m.RedirectedFrom != ""
}

// Table is an immutable, ordered set of routes.
type Table struct {
	routes []Route
	byPath map[string]int
	byName map[string]int
}

// NewTable validates and indexes the given routes.
func NewTable(routes ...Route) (*Table, error) {
	t := &Table{
		routes: make([]Route, 0, len(routes)),
		byPath: make(map[string]int, len(routes)),
		byName: make(map[string]int, len(routes)),
	}

	for _, r := range routes {
		if !strings.HasPrefix(r.Path, "/") {
			return nil, fmt.Errorf("route %q: path must start with /", r.Path)
		}
		if canon := CanonicalPath(r.Path); canon != r.Path {
			return nil, fmt.Errorf("route %q: path must be canonical (%q)", r.Path, canon)
		}
		if _, dup := t.byPath[r.Path]; dup {
			return nil, fmt.Errorf("route %q: duplicate path", r.Path)
		}
		if r.Name != "" {
			if _, dup := t.byName[r.Name]; dup {
				return nil, fmt.Errorf("route %q: duplicate name %q", r.Path, r.Name)
			}
			t.byName[r.Name] = len(t.routes)
		}
		switch r.Kind {
		case KindRedirect:
			if r.RedirectTo == "" {
				return nil, fmt.Errorf("route %q: redirect without target", r.Path)
			}
		case KindPublic, KindProtected:
			if r.RedirectTo != "" {
				return nil, fmt.Errorf("route %q: only redirect routes may set a target", r.Path)
			}
		default:
			return nil, fmt.Errorf("route %q: unknown kind %v", r.Path, r.Kind)
		}
		t.byPath[r.Path] = len(t.routes)
		t.routes = append(t.routes, r)
	}

	// Every redirect must end at a renderable route.
	for _, r := range t.routes {
		if r.Kind != KindRedirect {
			continue
		}
		if _, err := t.Resolve(r.Path); err != nil {
			return nil, fmt.Errorf("route %q: %w", r.Path, err)
		}
	}

	return t, nil
}

// MustNewTable is NewTable for statically known tables. It panics on error.
func MustNewTable(routes ...Route) *Table {
	t, err := NewTable(routes...)
	if err != nil {
		panic("routes: " + err.Error())
	}
	return t
}

// Default returns the application's route table.
func Default() *Table {
	return MustNewTable(
		Redirect("/", "/login"),
		Public("/login", "login", "Login"),
		Protected("/home", "home", "Home"),
		Public("/images", "images", "Images"),
	)
}

// Resolve finds the route for path, following redirect routes to their final target.
func (t *Table) Resolve(path string) (Match, error) {
	path = CanonicalPath(path)
	requested := path

	// A chain longer than the table must revisit a route.
	for hops := 0; hops <= len(t.routes); hops++ {
		idx, ok := t.byPath[path]
		if !ok {
			return Match{}, fmt.Errorf("%w: %s", ErrNoRoute, path)
		}
		r := t.routes[idx]
		if r.Kind != KindRedirect {
			m := Match{Route: r}
			if path != requested {
				m.RedirectedFrom = requested
			}
			return m, nil
		}
		path = CanonicalPath(r.RedirectTo)
	}
	return Match{}, fmt.Errorf("redirect cycle starting at %s", requested)
}

// Lookup returns the route registered under name.
func (t *Table) Lookup(name string) (Route, bool) {
	idx, ok := t.byName[name]
	if !ok {
		return Route{}, false
	}
	return t.routes[idx], true
}

// Routes returns a copy of the table in declaration order.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// CanonicalPath returns the cleaned, rooted form of p: repeated slashes are
// collapsed, dot segments resolved and trailing slashes stripped. An empty
// path is the root. The result never starts with "//".
func CanonicalPath(p string) string {
	return path.Clean("/" + p)
}

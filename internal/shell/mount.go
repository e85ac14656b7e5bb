// ABOUTME: Builds the shell's HTTP handler: health, static assets, navigation API and documents
// ABOUTME: Every document request runs the navigator before the page is rendered

package shell

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/2389/modelview/internal/auth"
	"github.com/2389/modelview/internal/navigation"
	"github.com/2389/modelview/internal/routes"
)

//go:embed templates/*.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// pageData is the index.html template input.
type pageData struct {
	Title      string
	MountID    string
	Scripts    template.HTML
	Navigation navigation.Result
}

// RoutesResponse is the JSON response for GET /api/routes.
type RoutesResponse struct {
	Routes     []routes.Route `json:"routes"`
	LoginRoute string         `json:"login_route"`
}

// Mount builds the HTTP handler. It succeeds exactly once; later calls return
// ErrAlreadyMounted.
func (s *Shell) Mount() (http.Handler, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handler != nil {
		return nil, ErrAlreadyMounted
	}

	mux := http.NewServeMux()

	// Health endpoints
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /health/ready", s.handleReady)

	mux.Handle("GET /static/", http.StripPrefix("/static", s.bundle.FileServer()))

	mux.HandleFunc("GET /api/navigate", s.handleNavigate)
	mux.HandleFunc("GET /api/routes", s.handleRoutes)

	for _, p := range s.plugins {
		p.Routes(mux)
		s.logger.Info("plugin mounted", "plugin", p.Name())
	}

	mux.HandleFunc("GET /", s.handleDocument)

	clientMiddleware := auth.ClientMiddleware(s.verifier, auth.ClientConfig{
		CookieName: s.config.Auth.ClientCookie,
		TTL:        s.config.Auth.ClientTTL,
		Logger:     s.logger,
	})
	s.handler = clientMiddleware(mux)

	s.httpServer = &http.Server{
		Addr:              s.config.Server.HTTPAddr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("shell mounted", "mount_id", s.config.App.MountID, "plugins", len(s.plugins), "dev", s.bundle.Dev())
	return s.handler, nil
}

// handleHealth returns 200 OK if the server is alive.
func (s *Shell) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleReady returns 200 OK if the store answers.
func (s *Shell) handleReady(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.CountUsers(r.Context())
	if err != nil {
		s.logger.Warn("readiness check failed", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("store unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "ready (%d users)", users)
}

// handleNavigate handles GET /api/navigate?to=PATH&from=PATH for client-side
// transitions, which run through the same guard as document loads.
func (s *Shell) handleNavigate(w http.ResponseWriter, r *http.Request) {
	to := r.URL.Query().Get("to")
	if to == "" {
		s.sendJSONError(w, http.StatusBadRequest, "missing 'to' parameter")
		return
	}
	res := s.navigator.Navigate(r.Context(), to, r.URL.Query().Get("from"))
	w.Header().Set("Cache-Control", "no-store")
	s.sendJSON(w, http.StatusOK, res)
}

func (s *Shell) handleRoutes(w http.ResponseWriter, r *http.Request) {
	login := ""
	if lr := s.guard.LoginRoute(); !lr.IsZero() {
		login = lr.Name
	}
	s.sendJSON(w, http.StatusOK, RoutesResponse{Routes: s.table.Routes(), LoginRoute: login})
}

// handleDocument serves the application document for any path the mux did not
// claim, after deciding the navigation.
func (s *Shell) handleDocument(w http.ResponseWriter, r *http.Request) {
	if canonical := routes.CanonicalPath(r.URL.Path); canonical != r.URL.Path {
		target := (&url.URL{Path: canonical, RawQuery: r.URL.RawQuery}).String()
		if strings.HasPrefix(target, "//") || strings.HasPrefix(target, `/\`) {
			s.sendJSONError(w, http.StatusBadRequest, "invalid path")
			return
		}
		http.Redirect(w, r, target, http.StatusMovedPermanently)
		return
	}

	res := s.navigator.Navigate(r.Context(), r.URL.Path, refererPath(r))

	// The response depends on the client's authentication flag.
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Add("Vary", "Cookie")

	if res.Outcome == navigation.OutcomeRedirect {
		s.logger.Debug("navigation redirected", "path", res.Path, "location", res.Location, "reason", res.Reason)
		http.Redirect(w, r, res.Location, res.Status)
		return
	}

	data := pageData{
		Title:      s.config.App.Title,
		MountID:    s.config.App.MountID,
		Scripts:    template.HTML(s.bundle.ScriptTags(s.config.App.Entry)),
		Navigation: res,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(res.Status)
	if err := indexTemplate.Execute(w, data); err != nil {
		s.logger.Error("failed to render document", "error", err)
	}
}

// refererPath returns the path of a same-origin Referer, the navigation source.
func refererPath(r *http.Request) string {
	ref := r.Header.Get("Referer")
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil || u.Host != r.Host {
		return ""
	}
	return u.Path
}

func (s *Shell) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// sendJSONError writes a JSON error response.
func (s *Shell) sendJSONError(w http.ResponseWriter, status int, message string) {
	s.sendJSON(w, status, map[string]string{"error": message})
}

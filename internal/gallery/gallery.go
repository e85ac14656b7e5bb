// ABOUTME: Catalog of the 3D model assets shipped in the frontend build
// ABOUTME: Serves GET /api/models for the public images view

package gallery

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/zeebo/blake3"

	"github.com/2389/modelview/internal/bundle"
)

// Model describes one servable model file.
type Model struct {
	Name        string `json:"name"`
	File        string `json:"file"`
	URL         string `json:"url"`
	Format      string `json:"format"`
	Size        int64  `json:"size"`
	Digest      string `json:"digest"`
	Source      string `json:"source,omitempty"`
	Description string `json:"description,omitempty"`
}

// Catalog is the immutable set of models found at load time.
type Catalog struct {
	models []Model
	logger *slog.Logger
}

// Load walks fsys for files the policy treats as model assets. When manifest is
// non-nil, each output file is annotated with the source module it came from.
// A sidecar "<name>.md" next to a model is rendered to HTML as its description.
func Load(fsys fs.FS, policy bundle.Policy, manifest bundle.Manifest, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "gallery")

	sources := make(map[string]string, len(manifest))
	for key, e := range manifest {
		src := e.Src
		if src == "" {
			src = key
		}
		sources[e.File] = src
	}

	var models []Model
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !policy.IsAsset(p) {
			return nil
		}

		m, err := describe(fsys, p, logger)
		if err != nil {
			return err
		}
		m.Source = sources[p]
		models = append(models, m)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning models: %w", err)
	}

	sort.Slice(models, func(i, j int) bool { return models[i].File < models[j].File })
	logger.Info("model catalog loaded", "models", len(models))
	return &Catalog{models: models, logger: logger}, nil
}

func describe(fsys fs.FS, p string, logger *slog.Logger) (Model, error) {
	f, err := fsys.Open(p)
	if err != nil {
		return Model{}, fmt.Errorf("opening %s: %w", p, err)
	}
	defer f.Close()

	h := blake3.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return Model{}, fmt.Errorf("hashing %s: %w", p, err)
	}

	ext := path.Ext(p)
	m := Model{
		Name:   displayName(path.Base(p)),
		File:   p,
		URL:    "/static/" + p,
		Format: strings.TrimPrefix(ext, "."),
		Size:   size,
		Digest: hex.EncodeToString(h.Sum(nil)),
	}

	sidecar := strings.TrimSuffix(p, ext) + ".md"
	md, err := fs.ReadFile(fsys, sidecar)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		logger.Warn("reading model description", "file", sidecar, "error", err)
	default:
		var buf bytes.Buffer
		if err := goldmark.Convert(md, &buf); err != nil {
			logger.Error("failed to convert markdown", "file", sidecar, "error", err)
		} else {
			m.Description = buf.String()
		}
	}
	return m, nil
}

// displayName strips the extension and a Vite content hash from a file name:
// "duck.1a2b3c4d.glb" and "duck-1a2b3c4d.glb" both become "duck".
func displayName(base string) string {
	name := strings.TrimSuffix(base, path.Ext(base))
	if i := strings.LastIndexAny(name, ".-"); i > 0 && len(name)-i-1 >= 8 {
		name = name[:i]
	}
	return name
}

// Models returns a copy of the catalog entries.
func (c *Catalog) Models() []Model {
	out := make([]Model, len(c.models))
	copy(out, c.models)
	return out
}

// Find returns the model with the given display name.
func (c *Catalog) Find(name string) (Model, bool) {
	for _, m := range c.models {
		if m.Name == name {
			return m, true
		}
	}
	return Model{}, false
}

// ModelsResponse is the JSON response for GET /api/models.
type ModelsResponse struct {
	Models []Model `json:"models"`
}

// Name identifies the plugin.
func (c *Catalog) Name() string {
	return "gallery"
}

// Routes registers the catalog endpoints.
func (c *Catalog) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/models", c.handleList)
	mux.HandleFunc("GET /api/models/{name}", c.handleGet)
}

func (c *Catalog) handleList(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ModelsResponse{Models: c.Models()}); err != nil {
		c.logger.Error("failed to encode models response", "error", err)
	}
}

func (c *Catalog) handleGet(w http.ResponseWriter, r *http.Request) {
	m, ok := c.Find(r.PathValue("name"))
	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "model not found"})
		return
	}
	if err := json.NewEncoder(w).Encode(m); err != nil {
		c.logger.Error("failed to encode model response", "error", err)
	}
}

// ABOUTME: A loaded frontend build: manifest, script tags and the models chunk file set
// ABOUTME: Runs in dev mode against the Vite dev server when no manifest is present

package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"github.com/2389/modelview/internal/bundle"
)

// ManifestPath is where Vite writes its manifest inside the build output.
const ManifestPath = ".vite/manifest.json"

// DefaultDevURL is the Vite dev server used when no manifest is present.
const DefaultDevURL = "http://localhost:5173"

// Bundle is a frontend build ready to be served.
type Bundle struct {
	fsys       fs.FS
	manifest   bundle.Manifest
	policy     bundle.Policy
	modelFiles map[string]bool
	devURL     string
	etags      *etagCache
	logger     *slog.Logger
}

// Load reads the build output in fsys. A missing manifest selects dev mode;
// a malformed one is an error.
func Load(fsys fs.FS, policy bundle.Policy, logger *slog.Logger) (*Bundle, error) {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bundle{
		fsys:       fsys,
		policy:     policy,
		modelFiles: make(map[string]bool),
		devURL:     DefaultDevURL,
		etags:      newETagCache(),
		logger:     logger.With("component", "assets"),
	}

	data, err := fs.ReadFile(fsys, ManifestPath)
	if errors.Is(err, fs.ErrNotExist) {
		b.logger.Debug("no vite manifest found (dev mode?)")
		return b, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading vite manifest: %w", err)
	}

	b.manifest, err = bundle.ParseManifest(data)
	if err != nil {
		return nil, err
	}
	for _, f := range b.manifest.ChunkFiles(policy, bundle.ModelsChunk) {
		b.modelFiles[f] = true
	}

	plan := policy.PlanManifest(b.manifest)
	for _, v := range plan.Violations {
		b.logger.Warn("model asset outside models chunk", "module", v.Module, "file", v.File)
	}
	b.logger.Info("vite manifest loaded", "entries", len(b.manifest), "model_files", len(b.modelFiles))
	return b, nil
}

// WithDevURL overrides the dev server URL used for dev-mode script tags.
func (b *Bundle) WithDevURL(url string) *Bundle {
	if url != "" {
		b.devURL = strings.TrimSuffix(url, "/")
	}
	return b
}

// Dev reports whether the bundle has no manifest.
func (b *Bundle) Dev() bool {
	return b.manifest == nil
}

// FS returns the underlying build output.
func (b *Bundle) FS() fs.FS {
	return b.fsys
}

// Manifest returns the parsed manifest, nil in dev mode.
func (b *Bundle) Manifest() bundle.Manifest {
	return b.manifest
}

// Policy returns the asset policy the bundle was loaded with.
func (b *Bundle) Policy() bundle.Policy {
	return b.policy
}

// IsModelFile reports whether name (relative to the build root) belongs to the
// models chunk or is a model asset.
func (b *Bundle) IsModelFile(name string) bool {
	name = strings.TrimPrefix(name, "/")
	return b.modelFiles[name] || b.policy.IsAsset(name)
}

// ScriptTags generates HTML tags for a Vite entry point.
// In production (manifest present): emits stylesheet links, modulepreload hints
// for the import graph, and a module script tag. The models chunk is never
// preloaded; it loads when a view imports it.
// In dev mode (manifest absent): emits the Vite HMR client and a direct module URL.
func (b *Bundle) ScriptTags(entry string) string {
	if b.Dev() {
		return b.devScriptTags(entry)
	}
	return b.prodScriptTags(entry)
}

func (b *Bundle) prodScriptTags(entry string) string {
	e, ok := b.manifest[entry]
	if !ok {
		return ""
	}

	var sb strings.Builder

	for _, css := range e.CSS {
		sb.WriteString(`<link rel="stylesheet" href="/static/`)
		sb.WriteString(css)
		sb.WriteString("\">\n")
	}

	// Modulepreload for the import graph (prevents waterfall).
	// Sorted for deterministic HTML output across requests.
	seen := make(map[string]bool)
	b.collectImports(entry, seen)
	imports := make([]string, 0, len(seen))
	for imp := range seen {
		imports = append(imports, imp)
	}
	sort.Strings(imports)
	for _, imp := range imports {
		me, ok := b.manifest[imp]
		if !ok || b.modelFiles[me.File] {
			continue
		}
		sb.WriteString(`<link rel="modulepreload" href="/static/`)
		sb.WriteString(me.File)
		sb.WriteString("\">\n")
	}

	sb.WriteString(`<script type="module" src="/static/`)
	sb.WriteString(e.File)
	sb.WriteString("\"></script>\n")

	return sb.String()
}

// collectImports recursively walks the static import graph, adding each
// imported entry key to seen. Handles cycles via the seen map. Dynamic imports
// are not followed.
func (b *Bundle) collectImports(entry string, seen map[string]bool) {
	e, ok := b.manifest[entry]
	if !ok {
		return
	}
	for _, imp := range e.Imports {
		if !seen[imp] {
			seen[imp] = true
			b.collectImports(imp, seen)
		}
	}
}

func (b *Bundle) devScriptTags(entry string) string {
	var sb strings.Builder
	sb.WriteString(`<script type="module" src="`)
	sb.WriteString(b.devURL)
	sb.WriteString(`/@vite/client"></script>`)
	sb.WriteString("\n")
	sb.WriteString(`<script type="module" src="`)
	sb.WriteString(b.devURL)
	sb.WriteString("/")
	sb.WriteString(entry)
	sb.WriteString("\"></script>\n")
	return sb.String()
}

// ABOUTME: Vite manifest model and the chunk plan derived from it
// ABOUTME: Reports model assets that escaped the models chunk

package bundle

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ManifestEntry represents a single entry in Vite's manifest.json.
type ManifestEntry struct {
	File           string   `json:"file"`
	Name           string   `json:"name,omitempty"`
	Src            string   `json:"src,omitempty"`
	IsEntry        bool     `json:"isEntry,omitempty"`
	IsDynamicEntry bool     `json:"isDynamicEntry,omitempty"`
	CSS            []string `json:"css,omitempty"`
	Assets         []string `json:"assets,omitempty"`
	Imports        []string `json:"imports,omitempty"`
	DynamicImports []string `json:"dynamicImports,omitempty"`
}

// Manifest maps Vite source paths (e.g. "src/main.js") to their build outputs.
type Manifest map[string]ManifestEntry

// ParseManifest decodes a .vite/manifest.json document.
func ParseManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing vite manifest: %w", err)
	}
	return m, nil
}

// InChunk reports whether the manifest key belongs to chunk under p. Vite names
// manual chunks after the chunk, so a keyed "_models-<hash>.js" entry counts too.
func (m Manifest) InChunk(p Policy, key, chunk string) bool {
	if p.ChunkFor(key) == chunk && chunk != "" {
		return true
	}
	e, ok := m[key]
	return ok && chunk != "" && e.Name == chunk
}

// ChunkFiles returns the sorted output files belonging to chunk.
func (m Manifest) ChunkFiles(p Policy, chunk string) []string {
	seen := make(map[string]bool)
	for key, e := range m {
		if m.InChunk(p, key, chunk) {
			seen[e.File] = true
		}
	}
	files := make([]string, 0, len(seen))
	for f := range seen {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// Violation is a model asset that would be bundled outside the models chunk.
type Violation struct {
	Module string `json:"module"`
	File   string `json:"file"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s -> %s is not in the %s chunk", v.Module, v.File, ModelsChunk)
}

// ChunkPlan groups module ids by the chunk they are assigned to.
type ChunkPlan struct {
	Models     []string    `json:"models"`
	Default    []string    `json:"default"`
	Violations []Violation `json:"violations,omitempty"`
}

// OK reports whether the plan has no violations.
func (c ChunkPlan) OK() bool {
	return len(c.Violations) == 0
}

// Plan assigns each module id to a chunk.
func (p Policy) Plan(ids []string) ChunkPlan {
	plan := ChunkPlan{Models: []string{}, Default: []string{}}
	for _, id := range ids {
		if p.ChunkFor(id) == ModelsChunk {
			plan.Models = append(plan.Models, id)
		} else {
			plan.Default = append(plan.Default, id)
		}
	}
	sort.Strings(plan.Models)
	sort.Strings(plan.Default)
	return plan
}

// PlanManifest plans the manifest's modules and flags model assets outside the
// models chunk.
func (p Policy) PlanManifest(m Manifest) ChunkPlan {
	ids := make([]string, 0, len(m))
	for key := range m {
		ids = append(ids, key)
	}
	plan := p.Plan(ids)

	for _, key := range ids {
		e := m[key]
		src := e.Src
		if src == "" {
			src = key
		}
		if !p.IsAsset(src) && !p.IsAsset(e.File) {
			continue
		}
		if !m.InChunk(p, key, ModelsChunk) {
			plan.Violations = append(plan.Violations, Violation{Module: key, File: e.File})
		}
	}
	sort.Slice(plan.Violations, func(i, j int) bool {
		return plan.Violations[i].Module < plan.Violations[j].Module
	})
	return plan
}

// Summary renders a one-line description of the plan for logs and the CLI.
func (c ChunkPlan) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d modules in %s chunk, %d in default chunking", len(c.Models), ModelsChunk, len(c.Default))
	if n := len(c.Violations); n > 0 {
		fmt.Fprintf(&b, ", %d violations", n)
	}
	return b.String()
}

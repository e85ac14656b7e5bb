// ABOUTME: Asset policy: alias resolution, asset include globs and model chunking
// ABOUTME: Mirrors the bundler configuration the frontend build is produced with

package bundle

import (
	"path"
	"sort"
	"strings"
)

const (
	// ModelsChunk is the output chunk that model modules are split into.
	ModelsChunk = "models"

	// DefaultModelsMarker is the module id substring that selects ModelsChunk.
	DefaultModelsMarker = "models/"
)

// ChunkFor returns ModelsChunk when moduleID contains "models/" and the empty
// string (default chunking) otherwise.
func ChunkFor(moduleID string) string {
	if strings.Contains(moduleID, DefaultModelsMarker) {
		return ModelsChunk
	}
	return ""
}

// Policy is the bundler configuration surface.
type Policy struct {
	// Aliases maps a symbolic import prefix to a source directory.
	Aliases map[string]string
	// AssetsInclude lists globs of files imported as opaque binary assets.
	AssetsInclude []string
	// ModelsMarker overrides DefaultModelsMarker when set.
	ModelsMarker string
}

// DefaultPolicy returns the policy the frontend ships with.
func DefaultPolicy() Policy {
	return Policy{
		Aliases:       map[string]string{"@": "src"},
		AssetsInclude: []string{"**/*.glb", "**/*.gltf"},
		ModelsMarker:  DefaultModelsMarker,
	}
}

// ChunkFor classifies moduleID using the policy's marker.
func (p Policy) ChunkFor(moduleID string) string {
	marker := p.ModelsMarker
	if marker == "" {
		marker = DefaultModelsMarker
	}
	if strings.Contains(moduleID, marker) {
		return ModelsChunk
	}
	return ""
}

// Resolve rewrites an aliased import path. The longest matching alias wins and
// an alias only matches a whole path segment, so "@x/y" is not resolved by "@".
func (p Policy) Resolve(importPath string) (string, bool) {
	prefixes := make([]string, 0, len(p.Aliases))
	for prefix := range p.Aliases {
		prefixes = append(prefixes, prefix)
	}
	sort.Slice(prefixes, func(i, j int) bool {
		if len(prefixes[i]) != len(prefixes[j]) {
			return len(prefixes[i]) > len(prefixes[j])
		}
		return prefixes[i] < prefixes[j]
	})

	for _, prefix := range prefixes {
		target := p.Aliases[prefix]
		if importPath == prefix {
			return target, true
		}
		if rest, ok := strings.CutPrefix(importPath, prefix+"/"); ok {
			return path.Join(target, rest), true
		}
	}
	return importPath, false
}

// IsAsset reports whether name matches one of the AssetsInclude globs.
func (p Policy) IsAsset(name string) bool {
	name = strings.TrimPrefix(path.Clean("/"+name), "/")
	for _, pattern := range p.AssetsInclude {
		if matchGlob(pattern, name) {
			return true
		}
	}
	return false
}

// matchGlob extends path.Match with "**", which matches zero or more whole
// path segments.
func matchGlob(pattern, name string) bool {
	return matchSegments(strings.Split(pattern, "/"), strings.Split(name, "/"))
}

func matchSegments(pattern, name []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			rest := pattern[1:]
			for i := 0; i <= len(name); i++ {
				if matchSegments(rest, name[i:]) {
					return true
				}
			}
			return false
		}
		if len(name) == 0 {
			return false
		}
		ok, err := path.Match(pattern[0], name[0])
		if err != nil || !ok {
			return false
		}
		pattern, name = pattern[1:], name[1:]
	}
	return len(name) == 0
}

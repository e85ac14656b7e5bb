package bundle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkFor(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"/app/src/assets/models/duck.glb", ModelsChunk},
		{"src/models/scene.gltf?url", ModelsChunk},
		{"models/", ModelsChunk},
		{"/app/src/views/Home.vue", ""},
		{"/app/src/models", ""},
		{"/app/node_modules/three/build/three.module.js", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ChunkFor(tt.id); got != tt.want {
			t.Errorf("ChunkFor(%q) = %q, want %q", tt.id, got, tt.want)
		}
	}
}

func TestPolicy_ChunkForCustomMarker(t *testing.T) {
	p := Policy{ModelsMarker: "meshes/"}
	assert.Equal(t, ModelsChunk, p.ChunkFor("src/meshes/a.glb"))
	assert.Equal(t, "", p.ChunkFor("src/models/a.glb"))

	assert.Equal(t, ModelsChunk, Policy{}.ChunkFor("src/models/a.glb"), "empty marker falls back to default")
}

func TestPolicy_Resolve(t *testing.T) {
	p := DefaultPolicy()
	p.Aliases["@images"] = "src/assets/images"

	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"@", "src", true},
		{"@/views/Home.vue", "src/views/Home.vue", true},
		{"@images/logo.png", "src/assets/images/logo.png", true},
		{"@images", "src/assets/images", true},
		{"@imagesX/logo.png", "@imagesX/logo.png", false},
		{"vue", "vue", false},
		{"./local.js", "./local.js", false},
	}
	for _, tt := range tests {
		got, ok := p.Resolve(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Resolve(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestPolicy_IsAsset(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		name string
		want bool
	}{
		{"duck.glb", true},
		{"src/assets/models/duck.glb", true},
		{"/abs/path/scene.gltf", true},
		{"src/assets/models/duck.bin", false},
		{"src/main.js", false},
		{"duck.glb.js", false},
	}
	for _, tt := range tests {
		if got := p.IsAsset(tt.name); got != tt.want {
			t.Errorf("IsAsset(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestMatchGlob(t *testing.T) {
	tests := []struct {
		pattern, name string
		want          bool
	}{
		{"**/*.glb", "a.glb", true},
		{"**/*.glb", "a/b/c.glb", true},
		{"src/**/*.glb", "src/a.glb", true},
		{"src/**/*.glb", "lib/a.glb", false},
		{"*.glb", "a/b.glb", false},
		{"src/**", "src/a/b", true},
		{"[", "a", false},
	}
	for _, tt := range tests {
		if got := matchGlob(tt.pattern, tt.name); got != tt.want {
			t.Errorf("matchGlob(%q, %q) = %v, want %v", tt.pattern, tt.name, got, tt.want)
		}
	}
}

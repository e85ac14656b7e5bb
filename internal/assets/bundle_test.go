package assets

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/2389/modelview/internal/bundle"
)

const testManifest = `{
  "src/main.js": {
    "file": "assets/main.a1b2c3d4.js",
    "isEntry": true,
    "css": ["assets/main.e5f6a7b8.css"],
    "imports": ["_shared.c9d0e1f2.js", "_models.abcdef12.js"]
  },
  "_shared.c9d0e1f2.js": {
    "file": "assets/shared.c9d0e1f2.js",
    "imports": ["_utils.a3b4c5d6.js"]
  },
  "_utils.a3b4c5d6.js": {
    "file": "assets/utils.a3b4c5d6.js"
  },
  "_models.abcdef12.js": {
    "file": "assets/models.abcdef12.js",
    "name": "models"
  },
  "src/assets/models/duck.glb": {
    "file": "assets/duck.12345678.glb",
    "src": "src/assets/models/duck.glb"
  }
}`

func testFS() fstest.MapFS {
	return fstest.MapFS{
		".vite/manifest.json":       {Data: []byte(testManifest)},
		"assets/main.a1b2c3d4.js":   {Data: []byte(strings.Repeat("console.log('modelview');\n", 200))},
		"assets/main.e5f6a7b8.css":  {Data: []byte("body{margin:0}")},
		"assets/models.abcdef12.js": {Data: []byte("export default {}")},
		"assets/duck.12345678.glb":  {Data: []byte("glTF\x02\x00\x00\x00binary-model-payload")},
		"favicon.ico":               {Data: []byte("ico")},
	}
}

func loadTestBundle(t *testing.T) *Bundle {
	t.Helper()
	b, err := Load(testFS(), bundle.DefaultPolicy(), nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return b
}

func TestLoad_DevMode(t *testing.T) {
	b, err := Load(fstest.MapFS{}, bundle.DefaultPolicy(), nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !b.Dev() {
		t.Error("expected dev mode without manifest")
	}
	if b.Manifest() != nil {
		t.Error("expected nil manifest in dev mode")
	}
}

func TestLoad_InvalidManifest(t *testing.T) {
	fsys := fstest.MapFS{".vite/manifest.json": {Data: []byte("{not json")}}
	if _, err := Load(fsys, bundle.DefaultPolicy(), nil); err == nil {
		t.Fatal("expected error for malformed manifest")
	}
}

func TestIsModelFile(t *testing.T) {
	b := loadTestBundle(t)

	tests := []struct {
		name string
		want bool
	}{
		{"assets/models.abcdef12.js", true},
		{"/assets/duck.12345678.glb", true},
		{"assets/other.gltf", true},
		{"assets/main.a1b2c3d4.js", false},
		{"favicon.ico", false},
	}
	for _, tt := range tests {
		if got := b.IsModelFile(tt.name); got != tt.want {
			t.Errorf("IsModelFile(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestProdScriptTags(t *testing.T) {
	b := loadTestBundle(t)
	got := b.ScriptTags("src/main.js")

	if !strings.Contains(got, `<link rel="stylesheet" href="/static/assets/main.e5f6a7b8.css">`) {
		t.Error("missing CSS stylesheet link")
	}
	if !strings.Contains(got, `<link rel="modulepreload" href="/static/assets/shared.c9d0e1f2.js">`) {
		t.Error("missing modulepreload for shared chunk")
	}
	if !strings.Contains(got, `<link rel="modulepreload" href="/static/assets/utils.a3b4c5d6.js">`) {
		t.Error("missing modulepreload for transitive import (utils)")
	}
	if strings.Contains(got, "models.abcdef12.js") {
		t.Error("models chunk must not be preloaded")
	}
	if !strings.Contains(got, `<script type="module" src="/static/assets/main.a1b2c3d4.js"></script>`) {
		t.Error("missing main script tag")
	}

	cssIdx := strings.Index(got, "stylesheet")
	scriptIdx := strings.Index(got, `<script`)
	if cssIdx > scriptIdx {
		t.Error("CSS link should appear before script tag")
	}
}

func TestProdScriptTagsMissingEntry(t *testing.T) {
	b := loadTestBundle(t)
	if got := b.ScriptTags("nonexistent.ts"); got != "" {
		t.Errorf("expected empty string for missing entry, got %q", got)
	}
}

func TestProdScriptTagsCyclicImports(t *testing.T) {
	fsys := fstest.MapFS{".vite/manifest.json": {Data: []byte(`{
		"a.ts": {"file": "js/a.11111111.js", "isEntry": true, "imports": ["b.ts"]},
		"b.ts": {"file": "js/b.22222222.js", "imports": ["a.ts"]}
	}`)}}
	b, err := Load(fsys, bundle.DefaultPolicy(), nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	got := b.ScriptTags("a.ts")
	if !strings.Contains(got, "js/a.11111111.js") {
		t.Error("missing main script tag")
	}
	if !strings.Contains(got, `modulepreload`) {
		t.Error("missing modulepreload for import")
	}
}

func TestDevScriptTags(t *testing.T) {
	b, err := Load(fstest.MapFS{}, bundle.DefaultPolicy(), nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	got := b.ScriptTags("src/main.js")
	if !strings.Contains(got, `<script type="module" src="http://localhost:5173/@vite/client"></script>`) {
		t.Error("missing Vite HMR client script")
	}
	if !strings.Contains(got, `<script type="module" src="http://localhost:5173/src/main.js"></script>`) {
		t.Error("missing direct module URL")
	}

	got = b.WithDevURL("http://vite.internal:3000/").ScriptTags("src/main.js")
	if !strings.Contains(got, `src="http://vite.internal:3000/@vite/client"`) {
		t.Errorf("dev URL override not applied: %q", got)
	}
}

package bundle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testManifest = `{
  "src/main.js": {
    "file": "assets/main.a1b2c3d4.js",
    "src": "src/main.js",
    "isEntry": true,
    "css": ["assets/main.e5f6a7b8.css"],
    "imports": ["_vendor.c9d0e1f2.js"],
    "dynamicImports": ["src/assets/models/duck.glb"]
  },
  "_vendor.c9d0e1f2.js": {
    "file": "assets/vendor.c9d0e1f2.js"
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

func TestPlan(t *testing.T) {
	plan := DefaultPolicy().Plan([]string{
		"src/views/Home.vue",
		"src/assets/models/duck.glb",
		"src/main.js",
		"src/assets/models/scene.gltf",
	})

	assert.Equal(t, []string{"src/assets/models/duck.glb", "src/assets/models/scene.gltf"}, plan.Models)
	assert.Equal(t, []string{"src/main.js", "src/views/Home.vue"}, plan.Default)
	assert.True(t, plan.OK())
}

func TestPlanManifest(t *testing.T) {
	m, err := ParseManifest([]byte(testManifest))
	require.NoError(t, err)

	p := DefaultPolicy()
	plan := p.PlanManifest(m)
	assert.True(t, plan.OK(), "violations: %v", plan.Violations)
	assert.Equal(t, []string{"src/assets/models/duck.glb"}, plan.Models)

	files := m.ChunkFiles(p, ModelsChunk)
	assert.Equal(t, []string{"assets/duck.12345678.glb", "assets/models.abcdef12.js"}, files)
}

func TestPlanManifest_Violation(t *testing.T) {
	m := Manifest{
		"src/assets/meshes/chair.glb": {File: "assets/chair.11111111.glb", Src: "src/assets/meshes/chair.glb"},
		"src/main.js":                 {File: "assets/main.22222222.js", IsEntry: true},
	}

	plan := DefaultPolicy().PlanManifest(m)
	require.Len(t, plan.Violations, 1)
	assert.Equal(t, "src/assets/meshes/chair.glb", plan.Violations[0].Module)
	assert.Contains(t, plan.Violations[0].String(), "not in the models chunk")
	assert.Contains(t, plan.Summary(), "1 violations")
}

func TestParseManifest_Invalid(t *testing.T) {
	_, err := ParseManifest([]byte(`not json`))
	assert.Error(t, err)
}

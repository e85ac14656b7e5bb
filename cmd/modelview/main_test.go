package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/modelview/internal/bundle"
	"github.com/2389/modelview/internal/config"
	"github.com/2389/modelview/internal/routes"
)

func TestGetConfigPath(t *testing.T) {
	t.Run("env override", func(t *testing.T) {
		t.Setenv("MODELVIEW_CONFIG", "/etc/modelview.toml")
		assert.Equal(t, "/etc/modelview.toml", getConfigPath())
	})

	t.Run("xdg config home", func(t *testing.T) {
		t.Setenv("MODELVIEW_CONFIG", "")
		t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
		assert.Equal(t, filepath.Join("/tmp/xdg", "modelview", "config.yaml"), getConfigPath())
	})
}

func TestGetDataPath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/data")
	assert.Equal(t, filepath.Join("/tmp/data", "modelview"), getDataPath())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestColorHandler(t *testing.T) {
	var buf bytes.Buffer
	h := &colorHandler{level: slog.LevelInfo, out: &buf, mu: &sync.Mutex{}}
	logger := slog.New(h).With("client", "c-1").WithGroup("nav")

	logger.Debug("hidden")
	logger.Info("navigated", "path", "/home")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "navigated")
	assert.Contains(t, out, "client=")
	assert.Contains(t, out, "c-1")
	assert.Contains(t, out, "nav.path=")
	assert.Contains(t, out, "/home")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestColorHandlerEnabled(t *testing.T) {
	h := &colorHandler{level: slog.LevelWarn, out: &bytes.Buffer{}, mu: &sync.Mutex{}}
	ctx := context.Background()
	assert.False(t, h.Enabled(ctx, slog.LevelInfo))
	assert.True(t, h.Enabled(ctx, slog.LevelError))
	assert.Same(t, h, h.WithGroup(""))
}

func TestWriteConfigLoads(t *testing.T) {
	dir := t.TempDir()
	secret, err := generateSecret()
	require.NoError(t, err)
	require.Len(t, secret, 64)

	var buf bytes.Buffer
	writeConfig(&buf, initAnswers{
		HTTPAddr:    "localhost:9090",
		GRPCAddr:    "",
		DBPath:      filepath.Join(dir, "modelview.db"),
		JWTSecret:   secret,
		UnknownPath: config.UnknownLogin,
		LogLevel:    "debug",
		LogFormat:   "json",
	})

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9090", cfg.Server.HTTPAddr)
	assert.Empty(t, cfg.Server.GRPCAddr)
	assert.Equal(t, config.DriverSQLite, cfg.Flags.Driver)
	assert.Equal(t, secret, cfg.Auth.JWTSecret)
	assert.Equal(t, config.UnknownLogin, cfg.App.UnknownPath)
	assert.False(t, cfg.Tailscale.Enabled)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
}

func TestWriteConfigTailscale(t *testing.T) {
	var buf bytes.Buffer
	writeConfig(&buf, initAnswers{
		TailscaleEnabled: true,
		TSHostname:       "viewer",
		TSFunnel:         true,
	})
	out := buf.String()
	assert.Contains(t, out, `hostname: "viewer"`)
	assert.Contains(t, out, "funnel: true")
	assert.NotContains(t, out, "auth_key")
}

func TestAuthKeyPromptMatchesServer(t *testing.T) {
	assert.Contains(t, authKeyPrompt, "TS_AUTHKEY")
	assert.NotContains(t, authKeyPrompt, "interactive")
}

func TestIsYes(t *testing.T) {
	assert.True(t, isYes("Y"))
	assert.True(t, isYes("yes"))
	assert.False(t, isYes("no"))
	assert.False(t, isYes(""))
}

func TestPrintRoutes(t *testing.T) {
	var buf bytes.Buffer
	printRoutes(&buf, routes.Default())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "PATH")
	assert.Contains(t, lines[1], "redirect")
	assert.Contains(t, lines[1], "→ /login")
	assert.Contains(t, lines[3], "/home")
	assert.Contains(t, lines[3], "protected")
	assert.Contains(t, lines[4], "/images")
	assert.Contains(t, lines[4], "public")
}

const goodManifest = `{
  "src/main.js": {"file": "assets/main-4f2a9c1d.js", "isEntry": true, "imports": ["_models-8d0c1e2f.js"]},
  "_models-8d0c1e2f.js": {"file": "assets/models-8d0c1e2f.js", "name": "models"},
  "src/models/duck.glb": {"file": "assets/duck-1a2b3c4d.glb", "src": "src/models/duck.glb"}
}`

func TestCheckChunks(t *testing.T) {
	t.Run("models isolated", func(t *testing.T) {
		var buf bytes.Buffer
		err := checkChunks(&buf, bundle.DefaultPolicy(), []byte(goodManifest))
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "models: assets/duck-1a2b3c4d.glb")
		assert.Contains(t, buf.String(), "models: assets/models-8d0c1e2f.js")
	})

	t.Run("stray model asset", func(t *testing.T) {
		manifest := `{
  "src/main.js": {"file": "assets/main-4f2a9c1d.js", "isEntry": true},
  "src/images/cube.glb": {"file": "assets/cube-5e6f7a8b.glb", "src": "src/images/cube.glb"}
}`
		var buf bytes.Buffer
		err := checkChunks(&buf, bundle.DefaultPolicy(), []byte(manifest))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 model file(s)")
		assert.Contains(t, buf.String(), "src/images/cube.glb")
	})

	t.Run("malformed manifest", func(t *testing.T) {
		err := checkChunks(&bytes.Buffer{}, bundle.DefaultPolicy(), []byte("{"))
		require.Error(t, err)
	})
}

func TestRunChunksRequiresManifest(t *testing.T) {
	err := runChunks(&bytes.Buffer{}, []string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--manifest")
}

func TestRunChunksWithoutConfig(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "manifest.json")
	require.NoError(t, os.WriteFile(manifest, []byte(goodManifest), 0644))

	var buf bytes.Buffer
	err := runChunks(&buf, []string{"--config", filepath.Join(dir, "missing.yaml"), "--manifest", manifest})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "models chunk")
}

// ABOUTME: Admin subcommands for modelview: init, useradd, routes, chunks, health
// ABOUTME: Each command loads the same config file the server reads

package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/2389/modelview/internal/bundle"
	"github.com/2389/modelview/internal/config"
	"github.com/2389/modelview/internal/routes"
	"github.com/2389/modelview/internal/session"
	"github.com/2389/modelview/internal/shell"
	"github.com/2389/modelview/internal/store"
)

// authKeyPrompt asks for the tsnet auth key. The server refuses to start
// without one, so an empty answer defers to TS_AUTHKEY.
const authKeyPrompt = "Tailscale auth key (leave empty to read TS_AUTHKEY at startup)"

// initAnswers holds everything runInit asks for.
type initAnswers struct {
	HTTPAddr         string
	GRPCAddr         string
	DBPath           string
	JWTSecret        string
	UnknownPath      string
	TailscaleEnabled bool
	TSHostname       string
	TSAuthKey        string
	TSEphemeral      bool
	TSFunnel         bool
	LogLevel         string
	LogFormat        string
}

func runInit() error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("modelview configuration setup")
	fmt.Println("=============================")
	fmt.Println()

	defaultDBPath := filepath.Join(getDataPath(), "modelview.db")

	outputFile := prompt(reader, "Config file path", getConfigPath())

	if _, err := os.Stat(outputFile); err == nil {
		overwrite := prompt(reader, "File exists. Overwrite?", "no")
		if !isYes(overwrite) {
			fmt.Println("Aborted.")
			return nil
		}
	}

	secret, err := generateSecret()
	if err != nil {
		return err
	}

	var a initAnswers
	a.JWTSecret = secret

	fmt.Println("\n--- Server Configuration ---")
	a.HTTPAddr = prompt(reader, "HTTP address", config.DefaultHTTPAddr)
	a.GRPCAddr = prompt(reader, "gRPC health address (empty to disable)", config.DefaultGRPCAddr)

	fmt.Println("\n--- Database Configuration ---")
	a.DBPath = prompt(reader, "SQLite database path", defaultDBPath)

	fmt.Println("\n--- Navigation ---")
	a.UnknownPath = prompt(reader, "Unknown paths (not_found/login)", config.UnknownNotFound)

	fmt.Println("\n--- Tailscale Configuration ---")
	a.TailscaleEnabled = isYes(prompt(reader, "Enable Tailscale?", "no"))
	if a.TailscaleEnabled {
		a.TSHostname = prompt(reader, "Tailscale hostname", "modelview")
		a.TSAuthKey = prompt(reader, authKeyPrompt, "")
		a.TSEphemeral = isYes(prompt(reader, "Ephemeral node?", "no"))
		a.TSFunnel = isYes(prompt(reader, "Enable Funnel (public HTTPS)?", "no"))
	}

	fmt.Println("\n--- Logging Configuration ---")
	a.LogLevel = prompt(reader, "Log level (debug/info/warn/error)", "info")
	a.LogFormat = prompt(reader, "Log format (text/json)", "text")

	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	var cfg strings.Builder
	writeConfig(&cfg, a)
	// The file carries the JWT secret.
	if err := os.WriteFile(outputFile, []byte(cfg.String()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	dataDir := filepath.Dir(a.DBPath)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	fmt.Printf("\nConfig written to %s\n", outputFile)
	fmt.Printf("Data directory: %s\n", dataDir)
	fmt.Println("\nCreate a login, then start the server:")
	fmt.Printf("  modelview useradd --username admin --password <password>\n")
	fmt.Printf("  modelview serve\n")

	return nil
}

// writeConfig renders the answers as a YAML config file.
func writeConfig(w io.Writer, a initAnswers) {
	fmt.Fprintf(w, "# modelview configuration\n")
	fmt.Fprintf(w, "# Generated by modelview init\n\n")

	fmt.Fprintf(w, "server:\n")
	fmt.Fprintf(w, "  http_addr: %q\n", a.HTTPAddr)
	fmt.Fprintf(w, "  grpc_addr: %q\n", a.GRPCAddr)
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "database:\n")
	fmt.Fprintf(w, "  path: %q\n", a.DBPath)
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "flags:\n")
	fmt.Fprintf(w, "  driver: %q\n", config.DriverSQLite)
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "auth:\n")
	fmt.Fprintf(w, "  jwt_secret: %q\n", a.JWTSecret)
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "app:\n")
	fmt.Fprintf(w, "  unknown_path: %q\n", a.UnknownPath)
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "tailscale:\n")
	fmt.Fprintf(w, "  enabled: %t\n", a.TailscaleEnabled)
	if a.TailscaleEnabled {
		fmt.Fprintf(w, "  hostname: %q\n", a.TSHostname)
		if a.TSAuthKey != "" {
			fmt.Fprintf(w, "  auth_key: %q\n", a.TSAuthKey)
		}
		fmt.Fprintf(w, "  ephemeral: %t\n", a.TSEphemeral)
		fmt.Fprintf(w, "  funnel: %t\n", a.TSFunnel)
	}
	fmt.Fprintf(w, "\n")

	fmt.Fprintf(w, "logging:\n")
	fmt.Fprintf(w, "  level: %q\n", a.LogLevel)
	fmt.Fprintf(w, "  format: %q\n", a.LogFormat)
}

func generateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating jwt secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func isYes(s string) bool {
	s = strings.ToLower(s)
	return s == "yes" || s == "y"
}

func prompt(reader *bufio.Reader, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("%s [%s]: ", question, defaultVal)
	} else {
		fmt.Printf("%s: ", question)
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		// On EOF or error, return default
		fmt.Println()
		return defaultVal
	}
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultVal
	}
	return input
}

func runUserAdd(ctx context.Context, args []string) error {
	var configPath, username, password, displayName string
	fs := newFlagSet("useradd", &configPath)
	fs.StringVarP(&username, "username", "u", "", "login name")
	fs.StringVarP(&password, "password", "p", "", "password (use MODELVIEW_PASSWORD to keep it out of shell history)")
	fs.StringVarP(&displayName, "name", "n", "", "display name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if password == "" {
		password = os.Getenv("MODELVIEW_PASSWORD")
	}
	if username == "" || password == "" {
		return errors.New("--username and --password are required")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer s.Close()

	user, err := session.CreateUser(ctx, s, username, password, displayName)
	if err != nil {
		return err
	}

	color.New(color.FgGreen).Print("✓ ")
	fmt.Printf("created user %s (%s)\n", user.Username, user.ID)
	return nil
}

func runRoutes(w io.Writer, args []string) error {
	var configPath string
	if err := newFlagSet("routes", &configPath).Parse(args); err != nil {
		return err
	}
	printRoutes(w, routes.Default())
	return nil
}

func printRoutes(w io.Writer, table *routes.Table) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tKIND\tNAME\tTARGET")
	for _, r := range table.Routes() {
		target := r.View
		if r.Kind == routes.KindRedirect {
			target = "→ " + r.RedirectTo
		}
		name := r.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Path, r.Kind, name, target)
	}
	tw.Flush()
}

func runChunks(w io.Writer, args []string) error {
	var configPath, manifestPath string
	fs := newFlagSet("chunks", &configPath)
	fs.StringVarP(&manifestPath, "manifest", "m", "", "path to the Vite manifest (dist/.vite/manifest.json)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if manifestPath == "" {
		return errors.New("--manifest is required")
	}

	policy := bundle.DefaultPolicy()
	if _, err := os.Stat(configPath); err == nil {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if policy, err = shell.PolicyFromConfig(cfg.Bundle); err != nil {
			return fmt.Errorf("building asset policy: %w", err)
		}
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("reading manifest: %w", err)
	}
	return checkChunks(w, policy, data)
}

// checkChunks prints the chunk assignment of a manifest and fails when a
// model asset landed outside the models chunk.
func checkChunks(w io.Writer, policy bundle.Policy, data []byte) error {
	m, err := bundle.ParseManifest(data)
	if err != nil {
		return err
	}
	plan := policy.PlanManifest(m)

	fmt.Fprintln(w, plan.Summary())
	for _, f := range m.ChunkFiles(policy, bundle.ModelsChunk) {
		fmt.Fprintf(w, "  %s: %s\n", bundle.ModelsChunk, f)
	}
	for _, v := range plan.Violations {
		fmt.Fprintf(w, "  %s %s\n", color.RedString("✗"), v)
	}

	if !plan.OK() {
		return fmt.Errorf("%d model file(s) outside the %s chunk", len(plan.Violations), bundle.ModelsChunk)
	}
	return nil
}

func runHealth(ctx context.Context, args []string) error {
	var configPath string
	if err := newFlagSet("health", &configPath).Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// Make HTTP request to health endpoint with context
	url := fmt.Sprintf("http://%s/health", cfg.Server.HTTPAddr)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	if cfg.Server.GRPCAddr != "" {
		if err := checkGRPCHealth(ctx, cfg.Server.GRPCAddr); err != nil {
			return err
		}
	}

	fmt.Println("healthy")
	return nil
}

func checkGRPCHealth(ctx context.Context, addr string) error {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("dialing grpc: %w", err)
	}
	defer conn.Close()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return fmt.Errorf("grpc health check failed: %w", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("grpc unhealthy: %s", resp.GetStatus())
	}
	return nil
}

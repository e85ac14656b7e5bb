// ABOUTME: Entry point for the modelview server and its admin commands
// ABOUTME: Serves the single-page model viewer behind the navigation guard

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/2389/modelview/internal/config"
	"github.com/2389/modelview/internal/gallery"
	"github.com/2389/modelview/internal/session"
	"github.com/2389/modelview/internal/shell"
	"github.com/2389/modelview/internal/telemetry"
)

// Set via -ldflags "-X main.version=..." at release.
var version = "dev"

const banner = `
                      _      _       _
  _ __ ___   ___   __| | ___| |_   _(_) _____      __
 | '_ ' _ \ / _ \ / _' |/ _ \ \ \ / / |/ _ \ \ /\ / /
 | | | | | | (_) | (_| |  __/ |\ V /| |  __/\ V  V /
 |_| |_| |_|\___/ \__,_|\___|_| \_/ |_|\___| \_/\_/
`

// getConfigPath returns the path to the config file.
// Priority: MODELVIEW_CONFIG env var > XDG_CONFIG_HOME/modelview/config.yaml > ~/.config/modelview/config.yaml
func getConfigPath() string {
	if envPath := os.Getenv("MODELVIEW_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "modelview", "config.yaml")
}

// getDataPath returns the path to the modelview data directory.
// Priority: XDG_DATA_HOME/modelview > ~/.local/share/modelview
func getDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "modelview")
}

func usage() {
	fmt.Println("Usage: modelview <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve                          Start the server")
	fmt.Println("  init                           Create a new config file interactively")
	fmt.Println("  useradd --username U --password P [--name N]")
	fmt.Println("                                 Create a login account")
	fmt.Println("  routes                         Print the route table")
	fmt.Println("  chunks --manifest PATH         Check a Vite manifest against the asset policy")
	fmt.Println("  health                         Check server health")
	fmt.Println("  version                        Print the version")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	args := os.Args[2:]
	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx, args)
	case "init":
		err = runInit()
	case "useradd":
		err = runUserAdd(ctx, args)
	case "routes":
		err = runRoutes(os.Stdout, args)
	case "chunks":
		err = runChunks(os.Stdout, args)
	case "health":
		err = runHealth(ctx, args)
	case "version", "--version":
		fmt.Println(version)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newFlagSet returns a flag set carrying the shared --config flag.
func newFlagSet(name string, configPath *string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringVarP(configPath, "config", "c", getConfigPath(), "config file (YAML or TOML)")
	return fs
}

func runServe(ctx context.Context, args []string) error {
	var configPath string
	if err := newFlagSet("serve", &configPath).Parse(args); err != nil {
		return err
	}

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	// Version info
	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logger := setupLogger(cfg.Logging)

	// Startup info
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	if cfg.Server.HTTPAddr != "" {
		green.Print("    ▶ ")
		fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	}
	if cfg.Server.GRPCAddr != "" {
		green.Print("    ▶ ")
		fmt.Printf("gRPC:      %s\n", cfg.Server.GRPCAddr)
	}
	green.Print("    ▶ ")
	fmt.Printf("Flags:     %s\n", cfg.Flags.Driver)

	// Tailscale status
	if cfg.Tailscale.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Tailscale: ")
		cyan.Print(cfg.Tailscale.Hostname)
		if cfg.Tailscale.Funnel {
			yellow.Print(" [funnel]")
		}
		if cfg.Tailscale.Ephemeral {
			gray.Print(" (ephemeral)")
		}
		fmt.Println()
	}

	fmt.Println()

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:     cfg.Telemetry.Enabled,
		Endpoint:    cfg.Telemetry.Endpoint,
		ServiceName: cfg.Telemetry.ServiceName,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("setting up telemetry: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("flushing traces failed", "error", err)
		}
	}()

	logger.Info("starting modelview",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"grpc_addr", cfg.Server.GRPCAddr,
	)

	s, err := shell.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating shell: %w", err)
	}

	if err := s.Use(session.New(s.Store(), s.Flag(), logger)); err != nil {
		return err
	}

	b := s.Bundle()
	catalog, err := gallery.Load(b.FS(), b.Policy(), b.Manifest(), logger)
	if err != nil {
		return fmt.Errorf("loading model catalog: %w", err)
	}
	if err := s.Use(catalog); err != nil {
		return err
	}

	return s.Run(ctx)
}

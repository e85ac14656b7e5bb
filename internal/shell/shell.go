// ABOUTME: Application shell that wires store, guard, navigator and assets into one server
// ABOUTME: Holds the single route table and mounts the HTTP surface exactly once

package shell

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"net/http"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"tailscale.com/tsnet"

	"github.com/2389/modelview/internal/assets"
	"github.com/2389/modelview/internal/auth"
	"github.com/2389/modelview/internal/authflag"
	"github.com/2389/modelview/internal/bundle"
	"github.com/2389/modelview/internal/config"
	"github.com/2389/modelview/internal/guard"
	"github.com/2389/modelview/internal/navigation"
	"github.com/2389/modelview/internal/routes"
	"github.com/2389/modelview/internal/store"
)

// ErrAlreadyMounted is returned when the shell is mounted twice or a plugin is
// added after mounting.
var ErrAlreadyMounted = errors.New("shell already mounted")

// Plugin contributes HTTP routes to the shell.
type Plugin interface {
	Name() string
	Routes(mux *http.ServeMux)
}

// Shell orchestrates the modelview server components.
type Shell struct {
	config    *config.Config
	store     *store.SQLiteStore
	flags     store.FlagStore
	flag      *authflag.Flag
	verifier  *auth.JWTVerifier
	table     *routes.Table
	guard     *guard.Guard
	navigator *navigation.Navigator
	bundle    *assets.Bundle
	logger    *slog.Logger

	mu      sync.Mutex
	plugins []Plugin
	handler http.Handler

	grpcServer  *grpc.Server
	health      *health.Server
	httpServer  *http.Server
	tsnetServer *tsnet.Server
}

// initStore opens the SQLite store holding users (and flags for the sqlite driver).
func initStore(cfg *config.Config) (*store.SQLiteStore, error) {
	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}
	return s, nil
}

// initFlagStore selects the backend for the authentication flag.
func initFlagStore(cfg *config.Config, sqlStore *store.SQLiteStore) (store.FlagStore, error) {
	if cfg.Flags.Driver != config.DriverRedis {
		return sqlStore, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r := cfg.Flags.Redis
	rs, err := store.DialRedis(ctx, r.Addr, r.Password, r.DB, r.Prefix)
	if err != nil {
		return nil, fmt.Errorf("initializing redis flag store: %w", err)
	}
	return rs, nil
}

// PolicyFromConfig builds the asset policy, merging jsconfig aliases under the
// configured ones.
func PolicyFromConfig(cfg config.BundleConfig) (bundle.Policy, error) {
	p := bundle.Policy{
		Aliases:       make(map[string]string),
		AssetsInclude: cfg.AssetsInclude,
		ModelsMarker:  cfg.ModelsMarker,
	}
	if cfg.JSConfig != "" {
		aliases, err := bundle.LoadAliasesFile(cfg.JSConfig)
		if err != nil {
			return bundle.Policy{}, err
		}
		maps.Copy(p.Aliases, aliases)
	}
	maps.Copy(p.Aliases, cfg.Aliases)
	if len(p.AssetsInclude) == 0 {
		p.AssetsInclude = bundle.DefaultPolicy().AssetsInclude
	}
	return p, nil
}

// buildFS returns the build output to serve: a directory on disk when
// configured, otherwise the embedded build.
func buildFS(cfg config.BundleConfig) fs.FS {
	if cfg.Dir != "" {
		return os.DirFS(cfg.Dir)
	}
	return assets.Embedded()
}

// newGRPCServer creates the gRPC server carrying the standard health service.
func newGRPCServer() (*grpc.Server, *health.Server) {
	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    15 * time.Second,
			Timeout: 5 * time.Second,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(server, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	return server, hs
}

// New creates a new Shell instance with the given configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Shell, error) {
	if logger == nil {
		logger = slog.Default()
	}

	verifier, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("creating client verifier: %w", err)
	}

	unknown, err := navigation.ParseUnknownPolicy(cfg.App.UnknownPath)
	if err != nil {
		return nil, err
	}

	policy, err := PolicyFromConfig(cfg.Bundle)
	if err != nil {
		return nil, fmt.Errorf("loading bundle policy: %w", err)
	}

	sqlStore, err := initStore(cfg)
	if err != nil {
		return nil, err
	}

	flags, err := initFlagStore(cfg, sqlStore)
	if err != nil {
		_ = sqlStore.Close()
		return nil, err
	}
	flag := authflag.New(flags, logger)

	table := routes.Default()
	loginRoute := cfg.App.LoginRoute
	if loginRoute == "" {
		loginRoute = guard.DefaultLoginRoute
	}
	g, err := guard.New(table, flag,
		guard.WithLoginRoute(loginRoute),
		guard.WithLogger(logger),
	)
	if err != nil {
		_ = closeFlags(flags, sqlStore)
		_ = sqlStore.Close()
		return nil, fmt.Errorf("creating guard: %w", err)
	}

	b, err := assets.Load(buildFS(cfg.Bundle), policy, logger)
	if err != nil {
		_ = closeFlags(flags, sqlStore)
		_ = sqlStore.Close()
		return nil, fmt.Errorf("loading assets: %w", err)
	}
	b.WithDevURL(cfg.App.DevURL)

	grpcServer, hs := newGRPCServer()

	return &Shell{
		config:     cfg,
		store:      sqlStore,
		flags:      flags,
		flag:       flag,
		verifier:   verifier,
		table:      table,
		guard:      g,
		navigator:  navigation.New(table, g, unknown),
		bundle:     b,
		logger:     logger.With("component", "shell"),
		grpcServer: grpcServer,
		health:     hs,
	}, nil
}

// closeFlags closes the flag store when it is separate from the SQLite store.
func closeFlags(flags store.FlagStore, sqlStore *store.SQLiteStore) error {
	if s, ok := flags.(*store.SQLiteStore); ok && s == sqlStore {
		return nil
	}
	return flags.Close()
}

// Store returns the user store.
func (s *Shell) Store() store.Store {
	return s.store
}

// Flag returns the authentication flag accessor.
func (s *Shell) Flag() *authflag.Flag {
	return s.flag
}

// Bundle returns the loaded frontend build.
func (s *Shell) Bundle() *assets.Bundle {
	return s.bundle
}

// Navigator returns the shell's navigator.
func (s *Shell) Navigator() *navigation.Navigator {
	return s.navigator
}

// Use registers a plugin. Plugins must be added before Mount.
func (s *Shell) Use(p Plugin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.handler != nil {
		return fmt.Errorf("registering plugin %s: %w", p.Name(), ErrAlreadyMounted)
	}
	s.plugins = append(s.plugins, p)
	s.logger.Debug("plugin registered", "plugin", p.Name())
	return nil
}

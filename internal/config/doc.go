// Package config handles configuration loading for modelview.
//
// # Overview
//
// Configuration is loaded from a YAML or TOML file (chosen by extension) with
// environment variable expansion, then individual fields may be overridden by
// MODELVIEW_* environment variables. Defaults are applied before validation.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from MODELVIEW_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/modelview/config.yaml
//  3. ~/.config/modelview/config.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${MODELVIEW_SECRET}"
//
// Syntax: ${VAR_NAME}
//
// # Environment Overrides
//
// Selected fields read a variable directly, after the file is parsed:
//
//	MODELVIEW_HTTP_ADDR, MODELVIEW_GRPC_ADDR, MODELVIEW_DB_PATH,
//	MODELVIEW_FLAGS_DRIVER, MODELVIEW_REDIS_ADDR, MODELVIEW_JWT_SECRET,
//	MODELVIEW_UNKNOWN_PATH, MODELVIEW_DIST_DIR, MODELVIEW_LOG_LEVEL,
//	MODELVIEW_OTEL_ENDPOINT
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"   # SPA, assets and JSON API
//	  grpc_addr: "0.0.0.0:50051"  # gRPC health service (optional)
//	  shutdown_timeout: "5s"
//
// Storage:
//
//	database:
//	  path: "/var/lib/modelview/modelview.db"
//	flags:
//	  driver: "sqlite"            # sqlite or redis
//	  redis:
//	    addr: "localhost:6379"
//
// Client identity:
//
//	auth:
//	  jwt_secret: "${MODELVIEW_SECRET}"  # at least 32 bytes
//	  client_cookie: "modelview_client"
//	  client_ttl: "8760h"
//
// Application:
//
//	app:
//	  title: "modelview"
//	  mount_id: "app"
//	  entry: "src/main.js"
//	  login_route: "login"
//	  unknown_path: "not_found"   # not_found or login
//
// Bundle policy:
//
//	bundle:
//	  aliases:
//	    "@": "src"
//	  assets_include: ["**/*.glb", "**/*.gltf"]
//	  jsconfig: "web/jsconfig.json"     # optional, merged into aliases
//	  models_marker: "models/"
//
// Logging and tracing:
//
//	logging:
//	  level: "info"    # debug, info, warn, error
//	  format: "text"   # text or json
//	telemetry:
//	  enabled: false
//	  endpoint: "http://localhost:4318"
package config

// Package shell is the application shell: it owns the single route table,
// guard and navigator, mounts the HTTP surface exactly once, and runs the
// HTTP and gRPC health servers.
//
// # Surface
//
//	GET  /health           liveness
//	GET  /health/ready     readiness (store reachable)
//	GET  /static/...       embedded Vite build
//	GET  /api/navigate     guard decision for SPA transitions (?to=&from=)
//	GET  /api/routes       route table
//	GET  /                 document: every path runs the navigator first
//
// Plugins registered with Use add their own routes before Mount.
//
// # Navigation
//
// Document requests are decided server-side before any view code runs:
// a protected path without the authentication flag redirects to the login
// route with 303, table redirects use 302, unknown paths render the
// not-found view with 404 (or redirect to login, per app.unknown_path).
package shell

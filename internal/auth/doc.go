// Package auth identifies the browser behind each request.
//
// # Client Identity
//
// The AuthFlag lives in a per-browser key-value store. On the server the
// browser is identified by a signed cookie:
//
//	modelview_client=<HS256 JWT, sub=<client uuid>>
//
// ClientMiddleware verifies the cookie on every request and attaches a
// ClientContext. A missing, expired, or tampered cookie is replaced by a
// fresh identity, so the visitor simply starts out unauthenticated.
//
// # Usage
//
//	verifier, err := auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret))
//	handler = auth.ClientMiddleware(verifier, auth.ClientConfig{})(handler)
//
//	client := auth.FromContext(r.Context()) // nil outside the middleware
package auth

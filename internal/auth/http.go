// ABOUTME: HTTP middleware that attaches a signed client identity to every request
// ABOUTME: Mints a new client cookie when the presented one is missing or invalid

package auth

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultClientCookie is the cookie holding the signed client identity.
	DefaultClientCookie = "modelview_client"

	// DefaultClientTTL is how long a client identity stays valid.
	DefaultClientTTL = 365 * 24 * time.Hour
)

// ClientConfig configures ClientMiddleware.
type ClientConfig struct {
	CookieName string
	TTL        time.Duration
	Logger     *slog.Logger
}

// clientFromCookie returns the verified client ID from the request cookie, if any.
func clientFromCookie(r *http.Request, name string, verifier TokenVerifier) (string, bool) {
	cookie, err := r.Cookie(name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	clientID, err := verifier.Verify(cookie.Value)
	if err != nil {
		return "", false
	}
	return clientID, true
}

// ClientMiddleware creates an HTTP middleware that attaches a ClientContext to every request.
// It never rejects a request: an unknown visitor gets a fresh identity, which starts out
// unauthenticated.
func ClientMiddleware(verifier interface {
	TokenVerifier
	TokenGenerator
}, cfg ClientConfig) func(http.Handler) http.Handler {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultClientCookie
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultClientTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "client-auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if clientID, ok := clientFromCookie(r, cfg.CookieName, verifier); ok {
				ctx := WithClient(r.Context(), &ClientContext{ClientID: clientID})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			clientID := uuid.New().String()
			token, err := verifier.Generate(clientID, cfg.TTL)
			if err != nil {
				// Serve without identity; the flag then reads as unauthenticated.
				logger.Error("failed to issue client token", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			http.SetCookie(w, &http.Cookie{
				Name:     cfg.CookieName,
				Value:    token,
				Path:     "/",
				Expires:  time.Now().Add(cfg.TTL),
				HttpOnly: true,
				Secure:   r.TLS != nil,
				SameSite: http.SameSiteLaxMode,
			})
			logger.Debug("issued client identity", "client_id", clientID)

			ctx := WithClient(r.Context(), &ClientContext{ClientID: clientID, Issued: true})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

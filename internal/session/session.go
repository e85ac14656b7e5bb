// ABOUTME: The login action: checks credentials and writes the authentication flag
// ABOUTME: GET/POST/DELETE /api/session for the SPA's login view and logout

package session

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/2389/modelview/internal/auth"
	"github.com/2389/modelview/internal/authflag"
	"github.com/2389/modelview/internal/store"
)

// dummyHash keeps failed lookups as slow as failed password checks.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

const maxBodyBytes = 1 << 16

// LoginRequest is the JSON request body for POST /api/session.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// StatusResponse is the JSON response for session endpoints.
type StatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
	DisplayName   string `json:"display_name,omitempty"`
}

// Handler serves the session endpoints.
type Handler struct {
	users  store.UserStore
	flag   *authflag.Flag
	logger *slog.Logger
}

// New creates the session plugin.
func New(users store.UserStore, flag *authflag.Flag, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{users: users, flag: flag, logger: logger.With("component", "session")}
}

// Name identifies the plugin.
func (h *Handler) Name() string {
	return "session"
}

// Routes registers the session endpoints.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/session", h.handleStatus)
	mux.HandleFunc("POST /api/session", h.handleLogin)
	mux.HandleFunc("DELETE /api/session", h.handleLogout)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, http.StatusOK, StatusResponse{Authenticated: h.flag.IsAuthenticated(r.Context())})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || ct != "application/json" {
		h.sendJSONError(w, http.StatusUnsupportedMediaType, "content type must be application/json")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		h.sendJSONError(w, http.StatusBadRequest, "username and password required")
		return
	}

	user, err := h.users.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(req.Password))
			h.sendJSONError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		h.logger.Error("failed to get user", "error", err)
		h.sendJSONError(w, http.StatusInternalServerError, "an error occurred")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		h.sendJSONError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	if err := h.flag.Set(r.Context(), "true"); err != nil {
		h.logger.Error("failed to set auth flag", "error", err)
		h.sendJSONError(w, http.StatusInternalServerError, "an error occurred")
		return
	}

	client := auth.FromContext(r.Context())
	h.logger.Info("login successful", "username", user.Username, "client_id", client.ClientID)
	h.sendJSON(w, http.StatusOK, StatusResponse{
		Authenticated: true,
		Username:      user.Username,
		DisplayName:   user.DisplayName,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.flag.Clear(r.Context()); err != nil {
		h.logger.Error("failed to clear auth flag", "error", err)
		h.sendJSONError(w, http.StatusInternalServerError, "an error occurred")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) sendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// sendJSONError writes a JSON error response.
func (h *Handler) sendJSONError(w http.ResponseWriter, status int, message string) {
	h.sendJSON(w, status, map[string]string{"error": message})
}

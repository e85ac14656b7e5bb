// ABOUTME: Login account creation with bcrypt password hashing
// ABOUTME: Shared by the useradd command and tests

package session

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/2389/modelview/internal/store"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{2,31}$`)

var (
	ErrInvalidUsername = errors.New("invalid username")
	ErrWeakPassword    = errors.New("password too short")
)

// hashCost is lowered by tests.
var hashCost = bcrypt.DefaultCost

// validateUsername checks if username meets requirements
// Returns an error message or empty string if valid
func validateUsername(username string) string {
	if len(username) < 3 {
		return "Username must be at least 3 characters"
	}
	if len(username) > 32 {
		return "Username must be at most 32 characters"
	}
	if !usernameRegex.MatchString(username) {
		return "Username must start with a letter and contain only letters, numbers, and underscores"
	}
	return ""
}

// CreateUser validates the credentials, hashes the password and stores a new user.
func CreateUser(ctx context.Context, users store.UserStore, username, password, displayName string) (*store.User, error) {
	username = strings.TrimSpace(username)
	if msg := validateUsername(username); msg != "" {
		return nil, fmt.Errorf("%w: %s", ErrInvalidUsername, msg)
	}
	if len(password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: must be at least %d characters", ErrWeakPassword, MinPasswordLength)
	}
	if displayName == "" {
		displayName = username
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &store.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hash),
		DisplayName:  displayName,
		CreatedAt:    time.Now().UTC(),
	}
	if err := users.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

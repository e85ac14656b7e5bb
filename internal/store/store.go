// ABOUTME: Store interfaces and data types for modelview persistence
// ABOUTME: Defines per-client flag storage and login users

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrUserNotFound is returned when a user doesn't exist.
var ErrUserNotFound = errors.New("user not found")

// ErrUsernameExists is returned when trying to create a user with an existing username.
var ErrUsernameExists = errors.New("username already exists")

// FlagStore persists small string values per client, mirroring a browser's local storage.
// Values carry no structure and never expire.
type FlagStore interface {
	// GetFlag returns ErrNotFound when the key is absent.
	GetFlag(ctx context.Context, clientID, key string) (string, error)
	SetFlag(ctx context.Context, clientID, key, value string) error
	// DeleteFlag is a no-op when the key is absent.
	DeleteFlag(ctx context.Context, clientID, key string) error
	Close() error
}

// User is an account that can perform the login action.
type User struct {
	ID           string
	Username     string
	PasswordHash string // bcrypt hash
	DisplayName  string
	CreatedAt    time.Time
}

// UserStore persists login users.
type UserStore interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	CountUsers(ctx context.Context) (int, error)
}

// Store combines flag and user persistence.
type Store interface {
	FlagStore
	UserStore
}

// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"sync"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu    sync.RWMutex
	flags map[string]map[string]string // clientID -> key -> value
	users map[string]*User             // keyed by username

	// FailReads makes GetFlag return ReadErr, simulating an unavailable backend.
	FailReads bool
	ReadErr   error
}

// Ensure MockStore implements Store.
var _ Store = (*MockStore)(nil)

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		flags: make(map[string]map[string]string),
		users: make(map[string]*User),
	}
}

// GetFlag retrieves a flag value.
func (m *MockStore) GetFlag(ctx context.Context, clientID, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FailReads {
		if m.ReadErr != nil {
			return "", m.ReadErr
		}
		return "", context.DeadlineExceeded
	}
	value, ok := m.flags[clientID][key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

// SetFlag stores a flag value.
func (m *MockStore) SetFlag(ctx context.Context, clientID, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.flags[clientID] == nil {
		m.flags[clientID] = make(map[string]string)
	}
	m.flags[clientID][key] = value
	return nil
}

// DeleteFlag removes a flag value.
func (m *MockStore) DeleteFlag(ctx context.Context, clientID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.flags[clientID], key)
	return nil
}

// CreateUser stores a new user.
func (m *MockStore) CreateUser(ctx context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[user.Username]; exists {
		return ErrUsernameExists
	}
	u := *user
	m.users[u.Username] = &u
	return nil
}

// GetUserByUsername retrieves a user by username.
func (m *MockStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

// CountUsers returns the number of users.
func (m *MockStore) CountUsers(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users), nil
}

// Close is a no-op for MockStore.
func (m *MockStore) Close() error {
	return nil
}

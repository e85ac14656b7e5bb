// ABOUTME: Per-client flag persistence for SQLiteStore
// ABOUTME: Backs the AuthFlag with an upserted key-value row per client

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetFlag retrieves the value stored under key for a client.
func (s *SQLiteStore) GetFlag(ctx context.Context, clientID, key string) (string, error) {
	query := `SELECT value FROM client_flags WHERE client_id = ? AND key = ?`

	var value string
	err := s.db.QueryRowContext(ctx, query, clientID, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("querying flag: %w", err)
	}
	return value, nil
}

// SetFlag stores value under key for a client, replacing any previous value.
func (s *SQLiteStore) SetFlag(ctx context.Context, clientID, key, value string) error {
	query := `
		INSERT INTO client_flags (client_id, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (client_id, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query, clientID, key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upserting flag: %w", err)
	}
	return nil
}

// DeleteFlag removes key for a client.
func (s *SQLiteStore) DeleteFlag(ctx context.Context, clientID, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM client_flags WHERE client_id = ? AND key = ?`, clientID, key)
	if err != nil {
		return fmt.Errorf("deleting flag: %w", err)
	}
	return nil
}

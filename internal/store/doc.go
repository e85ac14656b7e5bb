// Package store provides persistence for modelview.
//
// # Architecture
//
// Two interfaces split the persisted state:
//
//   - FlagStore: small per-client string values (the AuthFlag lives here)
//   - UserStore: accounts allowed to perform the login action
//
// SQLiteStore implements both. RedisStore implements FlagStore only and is
// selected with flags.driver: "redis"; users then stay in SQLite.
// MockStore is an in-memory Store for tests.
//
// # Flags
//
// A flag is addressed by (client ID, key) and holds a plain string with no
// expiry. Reads of an absent key return ErrNotFound.
//
// # Schema
//
//	client_flags(client_id, key, value, updated_at)  PRIMARY KEY (client_id, key)
//	users(id, username UNIQUE, password_hash, display_name, created_at)
//
// Redis keeps one hash per client:
//
//	HSET modelview:client:<client id> isAuthenticated true
package store

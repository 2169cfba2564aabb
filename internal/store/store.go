// Package store persists per-chat link records. The backing engine is a
// chat-scoped hash map (one hash per chat, one field per normalized URL) plus
// a plain counter key per chat for retention bookkeeping.
package store

import (
	"context"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned when a key or hash field does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrUnavailable is returned by every operation when no backing engine is
	// configured; consumers degrade to stateless pass-through.
	ErrUnavailable = errors.New("store: no persistent storage configured")
)

// Store is the field-level hash surface the link store is built on.
// Implementations must be safe for concurrent use.
type Store interface {
	// HGet reads one hash field, or ErrNotFound.
	HGet(ctx context.Context, key, field string) ([]byte, error)
	// HSet upserts one hash field.
	HSet(ctx context.Context, key, field string, value []byte) error
	// HDel removes the given hash fields in a single round trip.
	HDel(ctx context.Context, key string, fields ...string) error
	// HGetAll enumerates a whole hash; order is not guaranteed.
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	// HLen counts the fields of a hash.
	HLen(ctx context.Context, key string) (int64, error)
	// Incr atomically increments a counter key and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)
	// Set overwrites a plain key.
	Set(ctx context.Context, key, value string) error
	// Ping verifies the engine is reachable.
	Ping(ctx context.Context) error
}

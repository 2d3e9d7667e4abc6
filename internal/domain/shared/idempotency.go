package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers keys that were already claimed, such as
// client-supplied Idempotency-Key headers on batch submissions.
type IdempotencyStore interface {
	// MarkProcessed claims key for ttl.
	// Returns true if the key was newly claimed, false if it was already claimed
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks if key has already been claimed
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Close closes the store and releases resources
	Close() error
}

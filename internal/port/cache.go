package port

import (
	"context"
	"time"
)

// CacheStore is a key/value store with server-side expiry.
// Get reports ok=false for a missing or expired key.
type CacheStore interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	SetEx(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

package models

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// CredentialStore persists integration credentials under opaque string keys.
// Values expire through the store's TTL mechanism; this module never deletes
// them explicitly.
type CredentialStore interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get returns the stored value, or ErrNotFound when the key is absent
	// or has expired.
	Get(ctx context.Context, key string) (string, error)
}

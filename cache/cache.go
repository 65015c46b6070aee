package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonwraymond/surcharge/stress"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 128

// hashLen is the number of hex characters in the hash part of a Key.
const hashLen = 16

// Sentinel errors for cache operations.
var (
	ErrNilCache        = errors.New("cache: manager is nil")
	ErrInvalidKey      = errors.New("cache: key is invalid")
	ErrKeyTooLong      = errors.New("cache: key exceeds max length")
	ErrNotFound        = errors.New("cache: entry not found")
	ErrCorrupt         = errors.New("cache: entry is corrupt")
	ErrPersist         = errors.New("cache: failed to persist entry")
	ErrDiskUnavailable = errors.New("cache: disk tier unavailable")
)

// Key identifies a stress field: "<namespace>:<16 hex>". The namespace
// names the computation family (for example "rectangular") and the hash is
// derived from the rounded inputs by a Keyer.
type Key string

// Namespace returns the part before the colon.
func (k Key) Namespace() string {
	ns, _, _ := strings.Cut(string(k), ":")
	return ns
}

// Hash returns the hex digest after the colon.
func (k Key) Hash() string {
	_, h, _ := strings.Cut(string(k), ":")
	return h
}

// FileName returns the disk tier file name for k: "<namespace>_<hash>.npz".
func (k Key) FileName() string {
	return k.Namespace() + "_" + k.Hash() + ".npz"
}

func (k Key) String() string { return string(k) }

// ValidateKey checks that a key is well formed and safe to use as a file name.
func ValidateKey(key Key) error {
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	ns, hash, ok := strings.Cut(string(key), ":")
	if !ok || ns == "" {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, r := range ns {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-') {
			return fmt.Errorf("%w: namespace %q", ErrInvalidKey, ns)
		}
	}
	if len(hash) != hashLen {
		return fmt.Errorf("%w: hash %q", ErrInvalidKey, hash)
	}
	for _, r := range hash {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			return fmt.Errorf("%w: hash %q", ErrInvalidKey, hash)
		}
	}
	return nil
}

// Entry is a cached field with its creation time.
type Entry struct {
	Key       Key
	Field     *stress.Field
	CreatedAt time.Time
}

// Tier is one storage level of the cache.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: methods should honor cancellation/deadlines where applicable.
// - Errors: Get returns ErrNotFound on a miss; other errors mean the tier
//   could not answer. Delete is idempotent.
// - Ownership: fields are shared, never copied; callers must not mutate them.
type Tier interface {
	// Name identifies the tier in metrics and logs.
	Name() string

	// Get retrieves the field stored under key.
	Get(ctx context.Context, key Key) (*stress.Field, error)

	// Set stores field under key, replacing any previous value.
	Set(ctx context.Context, key Key, field *stress.Field) error

	// Delete removes the entry for key.
	Delete(ctx context.Context, key Key) error
}

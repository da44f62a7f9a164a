// Package cache stores learned models and rendered outputs between runs.
//
// # Backends
//
//   - [FileCache]: JSON entry files under a local directory, for the CLI.
//   - [RedisCache]: a shared Redis instance, for the HTTP server.
//   - [NullCache]: stores nothing; used with --no-cache and in tests.
//
// # Keys
//
// A [Keyer] derives keys from content hashes plus every option that changes
// the cached value. Models are keyed by the sample hash, level count and
// quantizer. Artifacts are keyed by the model hash, output size, seed and
// encoding, and only runs with a fixed seed produce artifact keys: without
// one the output is not reproducible and must not be served from cache.
// [ScopedKeyer] prefixes keys to give callers separate namespaces.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the stored value and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Default entry lifetimes.
const (
	TTLModel    = 7 * 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// ModelKeyOpts are the settings that shape a learned model.
type ModelKeyOpts struct {
	Levels int    `json:"levels"`
	Method string `json:"method"`
}

// ArtifactKeyOpts are the settings that shape a generated output.
type ArtifactKeyOpts struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Levels   int    `json:"levels"`
	Attempts int    `json:"attempts"`
	Seed     uint64 `json:"seed"`
	Format   string `json:"format"`
	Scale    int    `json:"scale"`
}

// Keyer derives cache keys.
type Keyer interface {
	// ModelKey returns the key of the model learned from a sample.
	ModelKey(sampleHash string, opts ModelKeyOpts) string
	// ArtifactKey returns the key of an encoded output. ok is false when
	// the output is not reproducible and must not be cached.
	ArtifactKey(modelHash string, seeded bool, opts ArtifactKeyOpts) (key string, ok bool)
}

// DefaultKeyer builds keys of the form kind:sha256(parts).
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ModelKey implements Keyer.
func (DefaultKeyer) ModelKey(sampleHash string, opts ModelKeyOpts) string {
	return hashKey("model", sampleHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(modelHash string, seeded bool, opts ArtifactKeyOpts) (string, bool) {
	if !seeded {
		return "", false
	}
	return hashKey("artifact", modelHash, opts), true
}

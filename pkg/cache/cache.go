// Package cache provides byte-oriented caching for decoded facts payloads
// and (optionally) rendered artifacts.
//
// Backends:
//   - FileCache: sha256-sharded entry files for CLI usage
//   - RedisCache: shared cache for server deployments
//   - NullCache: caching disabled
//
// Keys are produced by a Keyer so every consumer derives them the same way.
// Computed layout positions are deliberately never cached across sessions;
// only the expensive load/decode edge is (facts payloads keyed by content
// hash) plus rendered artifacts keyed by layout hash.
package cache

import (
	"context"
	"time"
)

// Cache is the interface all cache backends implement.
type Cache interface {
	// Get retrieves a value. The second return reports a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with a TTL. A zero TTL means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// TTLs per entry class.
const (
	// TTLFacts covers decoded file payloads; facts change only on re-parse.
	TTLFacts = 24 * time.Hour

	// TTLArtifact covers rendered outputs (SVG/PNG/DOT bytes).
	TTLArtifact = 6 * time.Hour
)

// FactsKeyOpts differentiates facts cache entries.
type FactsKeyOpts struct {
	ContentHash string `json:"content_hash"`
}

// ArtifactKeyOpts differentiates rendered artifact entries.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
	Mode   string `json:"mode,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// Keyer derives cache keys from their distinguishing inputs.
type Keyer interface {
	// FactsKey generates a key for a decoded per-file payload.
	FactsKey(fileID string, opts FactsKeyOpts) string

	// ArtifactKey generates a key for a rendered artifact, keyed by the
	// hash of the serialized layout it was rendered from.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer is the standard key derivation.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// FactsKey generates a key for a decoded per-file payload.
func (k *DefaultKeyer) FactsKey(fileID string, opts FactsKeyOpts) string {
	return hashKey("facts", fileID, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

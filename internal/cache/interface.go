package cache

import (
	"context"

	"github.com/SteelMorgan/buildstats-diff/internal/domain"
)

// Store caches parsed buildstats collections keyed by source
// Implementations: BoltDB
type Store interface {
	// Get returns the cached collection of a source, nil when the source is
	// not cached or has changed since it was stored
	Get(ctx context.Context, kind, path string, fp Fingerprint) (domain.BuildStats, error)

	// Set stores the collection of a source together with its fingerprint
	Set(ctx context.Context, kind, path string, fp Fingerprint, bs domain.BuildStats) error

	// Close closes the store
	Close() error
}

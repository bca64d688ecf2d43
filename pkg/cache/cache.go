// Package cache provides the caching layer shared by the CLI and the HTTP
// server. Conversions are pure functions of their input, so cached bundles
// never go stale; TTLs exist only to bound disk and memory usage.
//
// Three backends are provided: a file cache for CLI usage, a Redis cache
// for server deployments, and a null cache that disables caching entirely.
package cache

import (
	"context"
	"errors"
	"time"
)

// TTL values per entry class.
const (
	// TTLConvert applies to cached conversion bundles.
	TTLConvert = 30 * 24 * time.Hour

	// TTLRender applies to cached rendered images, which are larger and
	// cheaper to recompute than to hoard.
	TTLRender = 7 * 24 * time.Hour
)

// ErrCacheMiss is returned by helpers that treat a miss as an error.
// The Cache interface itself reports misses via the bool return.
var ErrCacheMiss = errors.New("cache miss")

// Cache is the backend-agnostic storage interface.
//
// Get returns (data, true, nil) on a hit and (nil, false, nil) on a miss;
// the error return is reserved for backend failures. Implementations must
// be safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer generates cache keys for the two cacheable products.
type Keyer interface {
	// ConvertKey keys a conversion bundle by source format, source text and
	// the options that influence the output.
	ConvertKey(sourceFormat, sourceText string, opts ConvertKeyOpts) string

	// RenderKey keys a rendered image by the canonical DOT text and the
	// image format.
	RenderKey(dotText, imageFormat string) string
}

// ConvertKeyOpts are the conversion options that change serialized output
// and therefore participate in the cache key.
type ConvertKeyOpts struct {
	GraphName   string `json:"graph_name,omitempty"`
	Orientation string `json:"orientation,omitempty"`
}

// DefaultKeyer hashes all key components with SHA-256, so arbitrary input
// text never produces pathological keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// ConvertKey generates a key for a conversion bundle.
func (k *DefaultKeyer) ConvertKey(sourceFormat, sourceText string, opts ConvertKeyOpts) string {
	return hashKey("convert", sourceFormat, sourceText, opts)
}

// RenderKey generates a key for a rendered image.
func (k *DefaultKeyer) RenderKey(dotText, imageFormat string) string {
	return hashKey("render", dotText, imageFormat)
}

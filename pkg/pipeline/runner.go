package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphshift/pkg/cache"
	"github.com/matzehuels/graphshift/pkg/errors"
	"github.com/matzehuels/graphshift/pkg/format"
	"github.com/matzehuels/graphshift/pkg/render"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store conversion results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs one conversion with caching. Bundles are cached whole,
// per-target errors included, so a cached non-series-parallel input does
// not redo the failing decomposition either.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Bundle, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	logger := r.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	}

	cacheKey := r.Keyer.ConvertKey(string(opts.SourceFormat), opts.SourceText, opts.keyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if bundle, err := unmarshalBundle(data); err == nil {
				bundle.CacheHit = true
				logger.Debug("conversion cache hit", "source", opts.SourceFormat)
				return bundle, nil
			}
			// Undecodable entry - recompute and overwrite
		}
	}

	start := time.Now()
	bundle, err := Convert(opts)
	if err != nil {
		return nil, err
	}

	logger.Info("converted graph",
		"source", opts.SourceFormat,
		"nodes", bundle.Stats.NodeCount,
		"edges", bundle.Stats.EdgeCount,
		"duration", time.Since(start))

	if data, err := marshalBundle(bundle); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLConvert)
	}
	return bundle, nil
}

// Render converts the source to canonical DOT and rasterizes it, with
// image-level caching. The bool reports whether the image came from cache.
func (r *Runner) Render(ctx context.Context, opts Options, imgFormat render.Format) ([]byte, bool, error) {
	bundle, err := r.Execute(ctx, opts)
	if err != nil {
		return nil, false, err
	}
	dotText, err := bundle.Text(format.DOT)
	if err != nil {
		return nil, false, err
	}

	cacheKey := r.Keyer.RenderKey(dotText, string(imgFormat))
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			return data, true, nil
		}
	}

	start := time.Now()
	img, err := render.Image(ctx, dotText, imgFormat)
	if err != nil {
		return nil, false, err
	}
	r.Logger.Info("rendered image",
		"format", imgFormat,
		"bytes", len(img),
		"duration", time.Since(start))

	_ = r.Cache.Set(ctx, cacheKey, img, cache.TTLRender)
	return img, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// =============================================================================
// Bundle Serialization - Cache and API Wire Format
// =============================================================================

// bundleJSON is the wire form of a Bundle, used both for cache entries and
// for server responses. Errors travel as code plus message so a decoded
// bundle still answers errors.Is questions.
type bundleJSON struct {
	Source  string                `json:"source"`
	Targets map[string]targetJSON `json:"targets"`
}

type targetJSON struct {
	Text         string `json:"text,omitempty"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

func marshalBundle(b *Bundle) ([]byte, error) {
	out := bundleJSON{
		Source:  string(b.Source),
		Targets: make(map[string]targetJSON, len(b.Targets)),
	}
	for f, r := range b.Targets {
		t := targetJSON{Text: r.Text}
		if r.Err != nil {
			t.ErrorCode = string(errors.GetCode(r.Err))
			t.ErrorMessage = errors.UserMessage(r.Err)
		}
		out.Targets[string(f)] = t
	}
	return json.Marshal(out)
}

func unmarshalBundle(data []byte) (*Bundle, error) {
	var in bundleJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}
	b := &Bundle{
		Source:  format.Format(in.Source),
		Targets: make(map[format.Format]TargetResult, len(in.Targets)),
	}
	for name, t := range in.Targets {
		r := TargetResult{Text: t.Text}
		if t.ErrorCode != "" {
			r.Err = errors.New(errors.Code(t.ErrorCode), "%s", t.ErrorMessage)
		}
		b.Targets[format.Format(name)] = r
	}
	return b, nil
}

// MarshalBundle encodes a bundle in its wire form. The server uses this for
// /convert responses so cached and fresh results are byte-identical.
func MarshalBundle(b *Bundle) ([]byte, error) {
	return marshalBundle(b)
}

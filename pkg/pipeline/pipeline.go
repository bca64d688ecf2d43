// Package pipeline provides the core conversion pipeline for graphshift.
//
// This package implements the parse → decompose → serialize pipeline that
// can be used by CLI and server components. By centralizing this logic, we
// ensure consistent behavior across all entry points and avoid code
// duplication.
//
// # Architecture
//
// A conversion run has three stages:
//
//  1. Parse: read the source text in its grammar into the execution graph
//  2. Decompose: infer the nested Sequence/Parallel structure (only needed
//     when the nested task grammar is among the targets)
//  3. Serialize: render the graph into every requested target grammar
//
// Parsing happens exactly once per run; each target then succeeds or fails
// independently. A graph that parses fine but is not series-parallel yields
// a bundle whose dot and mermaid slots carry text while the taskseq slot
// carries the decomposition error.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	bundle, err := runner.Execute(ctx, pipeline.Options{
//	    SourceFormat: format.DOT,
//	    SourceText:   text,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out := bundle.Targets[format.Mermaid].Text
//
// Or call Convert directly for a pure, cache-free conversion.
package pipeline

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphshift/pkg/cache"
	"github.com/matzehuels/graphshift/pkg/errors"
	"github.com/matzehuels/graphshift/pkg/format"
	"github.com/matzehuels/graphshift/pkg/format/dot"
	"github.com/matzehuels/graphshift/pkg/format/mermaid"
	"github.com/matzehuels/graphshift/pkg/format/taskseq"
	"github.com/matzehuels/graphshift/pkg/graph"
	"github.com/matzehuels/graphshift/pkg/structure"
)

// MaxSourceBytes bounds the accepted source text. Execution plans are
// human-written files; anything larger is a mistake, not a plan.
const MaxSourceBytes = 1 << 20

// =============================================================================
// Options - Conversion Configuration
// =============================================================================

// Options contains all configuration for one conversion run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// SourceFormat names the grammar the source text is written in.
	SourceFormat format.Format `json:"source_format"`

	// SourceText is the text to convert.
	SourceText string `json:"source_text"`

	// GraphName overrides the graph name carried into the DOT header.
	// When empty, the name parsed from the source (if any) is kept.
	GraphName string `json:"graph_name,omitempty"`

	// Orientation selects the flowchart layout direction (TD when empty).
	Orientation mermaid.Orientation `json:"orientation,omitempty"`

	// Refresh bypasses the cache read (the result is still written back).
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
}

// Validate checks required fields and normalizes the source format.
func (o *Options) Validate() error {
	if o.SourceText == "" {
		return errors.New(errors.ErrCodeInvalidInput, "source text is required")
	}
	if len(o.SourceText) > MaxSourceBytes {
		return errors.New(errors.ErrCodeInvalidInput,
			"source text exceeds %d bytes", MaxSourceBytes)
	}
	f, err := format.ParseFormat(string(o.SourceFormat))
	if err != nil {
		return err
	}
	o.SourceFormat = f
	return nil
}

// keyOpts returns the option fields that change serialized output and
// therefore participate in the cache key.
func (o *Options) keyOpts() cache.ConvertKeyOpts {
	return cache.ConvertKeyOpts{
		GraphName:   o.GraphName,
		Orientation: string(o.Orientation),
	}
}

// =============================================================================
// Bundle - Conversion Result
// =============================================================================

// TargetResult is the outcome of serializing one target grammar. Exactly
// one of Text or Err is set.
type TargetResult struct {
	Text string
	Err  error
}

// Bundle contains the outputs of one conversion run: one TargetResult per
// supported grammar, keyed by format. Targets fail independently; a
// non-series-parallel graph fails only its taskseq slot.
type Bundle struct {
	// Source is the grammar the input was parsed from.
	Source format.Format

	// Targets holds one result per supported format, the source included
	// (its slot echoes the input text).
	Targets map[format.Format]TargetResult

	// Stats contains timing and size information for this run.
	// Not populated when the bundle was served from cache.
	Stats Stats

	// CacheHit reports whether the bundle came from the cache.
	CacheHit bool
}

// Stats contains conversion statistics.
type Stats struct {
	NodeCount   int
	EdgeCount   int
	ConvertTime time.Duration
}

// Result returns the outcome for one target format.
func (b *Bundle) Result(f format.Format) (TargetResult, bool) {
	r, ok := b.Targets[f]
	return r, ok
}

// Text returns the serialized text for one target, or the target's error.
func (b *Bundle) Text(f format.Format) (string, error) {
	r, ok := b.Targets[f]
	if !ok {
		return "", errors.New(errors.ErrCodeInvalidFormat, "unknown format %q", string(f))
	}
	return r.Text, r.Err
}

// Failed reports whether every target failed (a parse error run).
func (b *Bundle) Failed() bool {
	for _, r := range b.Targets {
		if r.Err == nil {
			return false
		}
	}
	return true
}

// =============================================================================
// Convert - Pure Conversion
// =============================================================================

// Convert runs one conversion without caching: parse the source once, then
// serialize every target grammar independently.
//
// Convert returns an error only for invalid options. Parse failures are
// reported through the bundle with the same error in every target slot;
// per-target failures (a non-series-parallel graph cannot be rendered as
// nested task blocks) fill only their own slot.
func Convert(opts Options) (*Bundle, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	bundle := &Bundle{
		Source:  opts.SourceFormat,
		Targets: make(map[format.Format]TargetResult, len(format.All())),
	}

	g, parseErr := format.Parse(opts.SourceFormat, opts.SourceText)
	if parseErr != nil {
		for _, f := range format.All() {
			bundle.Targets[f] = TargetResult{Err: parseErr}
		}
		bundle.Stats.ConvertTime = time.Since(start)
		return bundle, nil
	}
	if opts.GraphName != "" {
		g.SetName(opts.GraphName)
	}

	for _, f := range format.All() {
		if f == opts.SourceFormat {
			// The identity target echoes the input verbatim.
			bundle.Targets[f] = TargetResult{Text: opts.SourceText}
			continue
		}
		text, err := serialize(g, f, opts.Orientation)
		bundle.Targets[f] = TargetResult{Text: text, Err: err}
	}

	bundle.Stats = Stats{
		NodeCount:   g.NodeCount(),
		EdgeCount:   g.EdgeCount(),
		ConvertTime: time.Since(start),
	}
	return bundle, nil
}

// ConvertTo runs one conversion and returns a single target's text.
func ConvertTo(opts Options, target format.Format) (string, error) {
	if _, err := format.ParseFormat(string(target)); err != nil {
		return "", err
	}
	bundle, err := Convert(opts)
	if err != nil {
		return "", err
	}
	return bundle.Text(target)
}

// serialize renders the graph into one target grammar. The nested task
// grammar is the only target that can fail: it requires a decomposable
// graph.
func serialize(g *graph.Graph, f format.Format, orient mermaid.Orientation) (string, error) {
	switch f {
	case format.TaskSeq:
		tree, err := structure.Decompose(g)
		if err != nil {
			return "", err
		}
		return taskseq.Serialize(tree), nil
	case format.DOT:
		return dot.Serialize(g), nil
	case format.Mermaid:
		return mermaid.Serialize(g, orient), nil
	default:
		return "", errors.New(errors.ErrCodeInvalidFormat, "unknown format %q", string(f))
	}
}

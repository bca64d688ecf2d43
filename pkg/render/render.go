// Package render rasterizes canonical DOT text into images.
//
// This package uses [github.com/goccy/go-graphviz] for in-process rendering
// (no external graphviz binary required). The input is the exact text
// produced by the DOT serializer, so anything convertible is renderable.
package render

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/graphshift/pkg/errors"
)

// Format identifies a supported image format.
type Format string

const (
	// SVG renders scalable vector output.
	SVG Format = "svg"
	// PNG renders raster output.
	PNG Format = "png"
)

// ParseImageFormat converts a user-supplied image format name into a
// Format. Unknown names fail with an INVALID_FORMAT error.
func ParseImageFormat(name string) (Format, error) {
	switch Format(name) {
	case SVG:
		return SVG, nil
	case PNG:
		return PNG, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidFormat,
			"unknown image format %q (valid: svg, png)", name)
	}
}

// Image renders DOT text into the given image format.
func Image(ctx context.Context, dot string, f Format) ([]byte, error) {
	var gvFormat graphviz.Format
	switch f {
	case SVG:
		gvFormat = graphviz.SVG
	case PNG:
		gvFormat = graphviz.PNG
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown image format %q", string(f))
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, gvFormat, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

// Package format names the three interchangeable textual grammars and
// dispatches parsing to the grammar subpackages. Serialization is dispatched
// by the pipeline, which owns the extra inputs some targets need (the
// decomposed structure tree, the flowchart orientation).
package format

import (
	"strings"

	"github.com/matzehuels/graphshift/pkg/errors"
	"github.com/matzehuels/graphshift/pkg/format/dot"
	"github.com/matzehuels/graphshift/pkg/format/mermaid"
	"github.com/matzehuels/graphshift/pkg/format/taskseq"
	"github.com/matzehuels/graphshift/pkg/graph"
)

// Format identifies one of the supported grammars.
type Format string

const (
	// TaskSeq is the nested Sequence/Parallel task-block grammar.
	TaskSeq Format = "taskseq"
	// DOT is the directed-graph statement grammar.
	DOT Format = "dot"
	// Mermaid is the flowchart arrow grammar.
	Mermaid Format = "mermaid"
)

// All returns every supported format in stable order.
func All() []Format {
	return []Format{TaskSeq, DOT, Mermaid}
}

// extensions maps file extensions to formats, for source-format inference.
var extensions = map[string]Format{
	".seq": TaskSeq,
	".dot": DOT,
	".gv":  DOT,
	".mmd": Mermaid,
}

// ParseFormat converts a user-supplied format name into a Format,
// case-insensitively. Unknown names fail with an INVALID_FORMAT error that
// lists the valid choices.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case TaskSeq:
		return TaskSeq, nil
	case DOT:
		return DOT, nil
	case Mermaid:
		return Mermaid, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidFormat,
			"unknown format %q (valid: taskseq, dot, mermaid)", name)
	}
}

// FromExtension infers the format from a file extension (with or without
// the leading dot). Unknown extensions fail with an INVALID_FORMAT error.
func FromExtension(ext string) (Format, error) {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if f, ok := extensions[ext]; ok {
		return f, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat,
		"cannot infer format from extension %q (known: .seq, .dot, .gv, .mmd)", ext)
}

// Parse parses text in the given format into an execution graph.
func Parse(f Format, text string) (*graph.Graph, error) {
	switch f {
	case TaskSeq:
		return taskseq.ParseGraph(text)
	case DOT:
		return dot.Parse(text)
	case Mermaid:
		return mermaid.Parse(text)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown format %q", string(f))
	}
}

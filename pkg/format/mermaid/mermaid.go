// Package mermaid implements the flowchart arrow grammar:
//
//	flowchart TD
//	    q0[q0] --> q1[q1]
//	    q0 --> q2
//	    q1 --> q3
//	    q2 --> q3
//
// The first non-empty line is the header naming the orientation (TD or LR).
// Every following non-empty line is either a single node reference or a
// chain of references joined by "-->"; a chain of n references creates n-1
// edges. A reference is a bare identifier or an identifier with a bracket
// label ("id[label]"); when the same node is labeled more than once the last
// label wins.
//
// Serialization is canonical: isolated nodes first in lexicographic order,
// then edges fused into maximal unambiguous chains, with 4-space
// indentation.
package mermaid

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/matzehuels/graphshift/pkg/errors"
	"github.com/matzehuels/graphshift/pkg/graph"
)

// Orientation selects the layout direction named in the flowchart header.
type Orientation string

const (
	// OrientTD lays the flowchart out top-down.
	OrientTD Orientation = "TD"
	// OrientLR lays the flowchart out left-right.
	OrientLR Orientation = "LR"
)

// indent is the serialization indentation for body lines.
const indent = "    "

var (
	headerRe = regexp.MustCompile(`^\s*flowchart\s+(TD|LR)\s*$`)
	nodeRe   = regexp.MustCompile(`^([A-Za-z0-9_]+)\s*(?:\[([^\[\]]*)\])?$`)
)

// Parse parses flowchart text into an execution graph. It fails with a
// SYNTAX_ERROR (carrying a line number) on a missing or malformed header, a
// malformed node reference, or an empty arrow operand, and with a
// VALIDATION_ERROR on self-loops. Duplicate edges collapse silently.
func Parse(text string) (*graph.Graph, error) {
	lines := strings.Split(text, "\n")

	i, err := parseHeader(lines)
	if err != nil {
		return nil, err
	}

	g := graph.New("")
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if err := parseChain(g, line, i+1); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// parseHeader locates the "flowchart TD|LR" line, skipping leading blank
// lines, and returns the index of the first body line.
func parseHeader(lines []string) (int, error) {
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !headerRe.MatchString(line) {
			return 0, syntaxErr(i+1, "expected 'flowchart TD' or 'flowchart LR' header, found %q", strings.TrimSpace(line))
		}
		return i + 1, nil
	}
	return 0, syntaxErr(1, "empty input: expected 'flowchart TD' or 'flowchart LR' header")
}

// parseChain handles one body line: a single node reference or an arrow
// chain. Every operand is declared, then consecutive pairs become edges.
func parseChain(g *graph.Graph, line string, lineNo int) error {
	parts := strings.Split(line, "-->")

	ids := make([]string, len(parts))
	for i, part := range parts {
		id, err := parseRef(g, strings.TrimSpace(part), lineNo)
		if err != nil {
			return err
		}
		ids[i] = id
	}

	for i := 0; i+1 < len(ids); i++ {
		if err := g.AddEdge(graph.Edge{From: ids[i], To: ids[i+1]}); err != nil {
			return errors.Wrap(errors.ErrCodeValidation, err, "line %d", lineNo)
		}
	}
	return nil
}

// parseRef declares one node reference ("id" or "id[label]") and returns
// its identifier.
func parseRef(g *graph.Graph, ref string, lineNo int) (string, error) {
	if ref == "" {
		return "", syntaxErr(lineNo, "empty arrow operand")
	}
	m := nodeRe.FindStringSubmatch(ref)
	if m == nil {
		return "", syntaxErr(lineNo, "malformed node reference %q", ref)
	}
	id := m[1]
	if err := g.EnsureNode(id); err != nil {
		return "", errors.Wrap(errors.ErrCodeValidation, err, "line %d", lineNo)
	}
	if m[2] != "" {
		g.SetLabel(id, m[2])
	}
	return id, nil
}

func syntaxErr(line int, format string, args ...any) error {
	return errors.New(errors.ErrCodeSyntax, "line %d: %s", line, fmt.Sprintf(format, args...))
}

// Serialize renders the graph in canonical flowchart text under the given
// orientation (TD when empty). Isolated nodes come first in lexicographic
// order, then every edge exactly once, fused into maximal chains where the
// fusion is unambiguous (each interior node has exactly one parent and one
// child). Serialization is total and never fails.
func Serialize(g *graph.Graph, orient Orientation) string {
	if orient == "" {
		orient = OrientTD
	}

	var b strings.Builder
	fmt.Fprintf(&b, "flowchart %s\n", orient)

	for _, id := range g.NodeIDs() {
		if g.OutDegree(id) == 0 && g.InDegree(id) == 0 {
			b.WriteString(indent)
			b.WriteString(ref(g, id))
			b.WriteString("\n")
		}
	}

	emitted := make(map[graph.Edge]bool, g.EdgeCount())
	for _, start := range g.NodeIDs() {
		for _, next := range g.Children(start) {
			e := graph.Edge{From: start, To: next}
			if emitted[e] {
				continue
			}
			emitted[e] = true

			chain := []string{ref(g, start), ref(g, next)}
			for g.OutDegree(next) == 1 && g.InDegree(next) == 1 {
				after := g.Children(next)[0]
				e = graph.Edge{From: next, To: after}
				if emitted[e] {
					break
				}
				emitted[e] = true
				chain = append(chain, ref(g, after))
				next = after
			}

			b.WriteString(indent)
			b.WriteString(strings.Join(chain, " --> "))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// ref renders a node reference, attaching the bracket label only when it
// differs from the identifier.
func ref(g *graph.Graph, id string) string {
	n, ok := g.Node(id)
	if !ok || n.Label == "" || n.Label == n.ID {
		return id
	}
	return fmt.Sprintf("%s[%s]", id, n.Label)
}

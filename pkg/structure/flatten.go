package structure

import (
	"github.com/matzehuels/graphshift/pkg/errors"
	"github.com/matzehuels/graphshift/pkg/graph"
)

// Flatten wires a structure tree into a Graph.
//
// Within a Sequence, every exit task of element i gains an edge to every
// entry task of element i+1. Within a Parallel, children are independent;
// they inherit their predecessor/successor wiring from the enclosing
// context. A Leaf contributes one node that is both its own entry and exit.
//
// Flatten fails with a VALIDATION_ERROR if the tree contains an empty
// Sequence/Parallel block or a duplicate task identifier (identifiers must
// be globally unique across the whole tree).
func Flatten(root *Node) (*graph.Graph, error) {
	if root == nil {
		return nil, errors.New(errors.ErrCodeValidation, "empty structure")
	}
	if err := validate(root, map[string]bool{}); err != nil {
		return nil, err
	}

	g := graph.New("")
	for _, id := range root.Leaves() {
		if err := g.AddNode(graph.Node{ID: id}); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "add task %q", id)
		}
	}
	if err := wire(g, root); err != nil {
		return nil, err
	}
	return g, nil
}

// validate checks for empty blocks and duplicate identifiers.
func validate(n *Node, seen map[string]bool) error {
	switch n.Kind {
	case KindLeaf:
		if n.ID == "" {
			return errors.New(errors.ErrCodeValidation, "task identifier must not be empty")
		}
		if seen[n.ID] {
			return errors.New(errors.ErrCodeValidation, "duplicate task identifier %q", n.ID)
		}
		seen[n.ID] = true
		return nil
	case KindSequence, KindParallel:
		if len(n.Children) == 0 {
			return errors.New(errors.ErrCodeValidation, "empty %s block", n.Kind)
		}
		for _, c := range n.Children {
			if err := validate(c, seen); err != nil {
				return err
			}
		}
		return nil
	default:
		return errors.New(errors.ErrCodeInternal, "unknown structure kind %d", int(n.Kind))
	}
}

// wire adds the dependency edges implied by every Sequence in the subtree.
func wire(g *graph.Graph, n *Node) error {
	if n.Kind == KindLeaf {
		return nil
	}
	for _, c := range n.Children {
		if err := wire(g, c); err != nil {
			return err
		}
	}
	if n.Kind != KindSequence {
		return nil
	}
	for i := 0; i < len(n.Children)-1; i++ {
		for _, from := range exits(n.Children[i]) {
			for _, to := range entries(n.Children[i+1]) {
				if err := g.AddEdge(graph.Edge{From: from, To: to}); err != nil {
					return errors.Wrap(errors.ErrCodeInternal, err, "wire %s -> %s", from, to)
				}
			}
		}
	}
	return nil
}

// entries returns the tasks of the subtree that run first.
func entries(n *Node) []string {
	switch n.Kind {
	case KindLeaf:
		return []string{n.ID}
	case KindSequence:
		return entries(n.Children[0])
	default: // KindParallel
		var out []string
		for _, c := range n.Children {
			out = append(out, entries(c)...)
		}
		return out
	}
}

// exits returns the tasks of the subtree that run last.
func exits(n *Node) []string {
	switch n.Kind {
	case KindLeaf:
		return []string{n.ID}
	case KindSequence:
		return exits(n.Children[len(n.Children)-1])
	default: // KindParallel
		var out []string
		for _, c := range n.Children {
			out = append(out, exits(c)...)
		}
		return out
	}
}

package structure

import (
	"slices"
	"strings"

	"github.com/matzehuels/graphshift/pkg/errors"
	"github.com/matzehuels/graphshift/pkg/graph"
)

// Decompose infers the nested Sequence/Parallel structure of an execution
// graph by reduction: starting from one Leaf per task, it repeatedly merges
// in-series chains and in-parallel groups until a single node remains.
//
// Two reductions are applied, series first, in each pass:
//
//   - Series: an edge a→b where a has exactly one successor and b exactly
//     one predecessor is contracted into a Sequence (adjacent Sequences are
//     flattened, never nested).
//   - Parallel: a maximal group of two or more working nodes sharing an
//     identical predecessor set and an identical successor set is merged
//     into one Parallel node (nested Parallels are flattened).
//
// Candidates are always considered in lexicographic node-id order, so the
// same graph yields a structurally identical tree on every call. A graph
// reduced to a single Leaf (one task) is wrapped in a one-element Sequence
// for a consistent output shape.
//
// Decompose fails with a VALIDATION_ERROR on an empty graph, a CYCLE_ERROR
// on a cyclic graph, and a DECOMPOSITION_ERROR when the graph is not weakly
// connected or is not series-parallel. The decomposition error names the
// task identifiers that could not be reduced; it is never silently
// approximated.
func Decompose(g *graph.Graph) (*Node, error) {
	if g.NodeCount() == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "cannot decompose an empty graph")
	}
	if err := g.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCycle, err, "execution graphs must be acyclic")
	}
	if stranded := disconnected(g); len(stranded) > 0 {
		return nil, errors.New(errors.ErrCodeDecomposition,
			"graph is not weakly connected: [%s] unreachable from [%s]",
			strings.Join(stranded, " "), g.NodeIDs()[0])
	}

	r := newReducer(g)

	// Each successful reduction removes at least one working node, so the
	// pass bound is a guard against livelock, not the usual exit path.
	maxPasses := 2*(g.NodeCount()+g.EdgeCount()) + 4
	for pass := 0; pass < maxPasses && len(r.members) > 1; pass++ {
		if r.reduceSeries() {
			continue
		}
		if r.reduceParallel() {
			continue
		}
		break
	}

	if len(r.members) > 1 {
		return nil, errors.New(errors.ErrCodeDecomposition,
			"graph is not series-parallel: unresolved tasks [%s]",
			strings.Join(r.unresolved(), " "))
	}

	tree := r.members[r.ids()[0]]
	if tree.Kind == KindLeaf {
		tree = Sequence(tree)
	}
	return tree, nil
}

// disconnected returns the node IDs not reachable from the first node when
// edges are treated as undirected, or nil if the graph is weakly connected.
func disconnected(g *graph.Graph) []string {
	ids := g.NodeIDs()
	if len(ids) == 0 {
		return nil
	}

	visited := map[string]bool{ids[0]: true}
	stack := []string{ids[0]}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, next := range append(g.Children(id), g.Parents(id)...) {
			if !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}

	var stranded []string
	for _, id := range ids {
		if !visited[id] {
			stranded = append(stranded, id)
		}
	}
	return stranded
}

// reducer holds the working collection of StructureNodes and the working
// edge relation between them. Working nodes are keyed by a representative
// task id: a series contraction keeps the head's id, a parallel merge keeps
// the lexicographically smallest member id.
type reducer struct {
	members map[string]*Node
	pred    map[string]map[string]struct{}
	succ    map[string]map[string]struct{}
}

func newReducer(g *graph.Graph) *reducer {
	r := &reducer{
		members: make(map[string]*Node, g.NodeCount()),
		pred:    make(map[string]map[string]struct{}, g.NodeCount()),
		succ:    make(map[string]map[string]struct{}, g.NodeCount()),
	}
	for _, id := range g.NodeIDs() {
		r.members[id] = Leaf(id)
		r.pred[id] = make(map[string]struct{})
		r.succ[id] = make(map[string]struct{})
	}
	for _, e := range g.Edges() {
		r.succ[e.From][e.To] = struct{}{}
		r.pred[e.To][e.From] = struct{}{}
	}
	return r
}

// ids returns the working node ids in lexicographic order.
func (r *reducer) ids() []string {
	ids := make([]string, 0, len(r.members))
	for id := range r.members {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// reduceSeries contracts the first (in id order) edge a→b where a has
// exactly one successor and b exactly one predecessor. Reports whether a
// contraction happened.
func (r *reducer) reduceSeries() bool {
	for _, a := range r.ids() {
		if len(r.succ[a]) != 1 {
			continue
		}
		b := soleKey(r.succ[a])
		if len(r.pred[b]) != 1 {
			continue
		}

		r.members[a] = sequenceJoin(r.members[a], r.members[b])

		next := r.succ[b]
		delete(r.members, b)
		delete(r.pred, b)
		delete(r.succ, b)
		r.succ[a] = next
		for x := range next {
			delete(r.pred[x], b)
			r.pred[x][a] = struct{}{}
		}
		return true
	}
	return false
}

// reduceParallel merges every maximal group of working nodes that share an
// identical predecessor set and an identical successor set. Reports whether
// any merge happened.
func (r *reducer) reduceParallel() bool {
	groups := make(map[string][]string)
	for _, id := range r.ids() {
		key := setKey(r.pred[id]) + "|" + setKey(r.succ[id])
		groups[key] = append(groups[key], id)
	}

	keys := make([]string, 0, len(groups))
	for key, ids := range groups {
		if len(ids) >= 2 {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)

	merged := false
	for _, key := range keys {
		ids := groups[key] // already in lexicographic order
		keep := ids[0]

		var children []*Node
		for _, id := range ids {
			if t := r.members[id]; t.Kind == KindParallel {
				children = append(children, t.Children...)
			} else {
				children = append(children, t)
			}
		}
		r.members[keep] = Parallel(children...)

		for _, id := range ids[1:] {
			for p := range r.pred[id] {
				delete(r.succ[p], id)
				r.succ[p][keep] = struct{}{}
			}
			for s := range r.succ[id] {
				delete(r.pred[s], id)
				r.pred[s][keep] = struct{}{}
			}
			delete(r.members, id)
			delete(r.pred, id)
			delete(r.succ, id)
		}
		merged = true
	}
	return merged
}

// unresolved returns every task id inside the remaining working nodes, for
// decomposition error reporting.
func (r *reducer) unresolved() []string {
	var out []string
	for _, id := range r.ids() {
		out = append(out, r.members[id].Leaves()...)
	}
	slices.Sort(out)
	return out
}

// sequenceJoin concatenates two trees into one Sequence, splicing existing
// Sequence children so a Sequence never directly contains a Sequence.
func sequenceJoin(a, b *Node) *Node {
	children := make([]*Node, 0, 2)
	for _, t := range []*Node{a, b} {
		if t.Kind == KindSequence {
			children = append(children, t.Children...)
		} else {
			children = append(children, t)
		}
	}
	return Sequence(children...)
}

func soleKey(set map[string]struct{}) string {
	for k := range set {
		return k
	}
	return ""
}

func setKey(set map[string]struct{}) string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return strings.Join(keys, ",")
}

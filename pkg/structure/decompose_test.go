package structure

import (
	"strings"
	"testing"

	"github.com/matzehuels/graphshift/pkg/errors"
	"github.com/matzehuels/graphshift/pkg/graph"
)

// buildGraph constructs a graph from node ids and "a->b" edge specs.
func buildGraph(t *testing.T, nodes []string, edges []string) *graph.Graph {
	t.Helper()
	g := graph.New("")
	for _, id := range nodes {
		if err := g.AddNode(graph.Node{ID: id}); err != nil {
			t.Fatalf("AddNode(%s): %v", id, err)
		}
	}
	for _, spec := range edges {
		from, to, ok := strings.Cut(spec, "->")
		if !ok {
			t.Fatalf("bad edge spec %q", spec)
		}
		if err := g.AddEdge(graph.Edge{From: from, To: to}); err != nil {
			t.Fatalf("AddEdge(%s): %v", spec, err)
		}
	}
	return g
}

func TestDecompose(t *testing.T) {
	tests := []struct {
		name  string
		nodes []string
		edges []string
		want  *Node
	}{
		{
			name:  "LinearChain",
			nodes: []string{"q0", "q1", "q2", "q3"},
			edges: []string{"q0->q1", "q1->q2", "q2->q3"},
			want:  Sequence(Leaf("q0"), Leaf("q1"), Leaf("q2"), Leaf("q3")),
		},
		{
			name:  "Diamond",
			nodes: []string{"q0", "q1", "q2", "q3"},
			edges: []string{"q0->q1", "q0->q2", "q1->q3", "q2->q3"},
			want:  Sequence(Leaf("q0"), Parallel(Leaf("q1"), Leaf("q2")), Leaf("q3")),
		},
		{
			name:  "SequenceInsideParallel",
			nodes: []string{"q1", "q2", "q3", "q4", "q5"},
			edges: []string{"q1->q2", "q1->q3", "q2->q4", "q3->q5", "q4->q5"},
			want: Sequence(
				Leaf("q1"),
				Parallel(Sequence(Leaf("q2"), Leaf("q4")), Leaf("q3")),
				Leaf("q5"),
			),
		},
		{
			name:  "SingleTaskWrappedInSequence",
			nodes: []string{"only"},
			want:  Sequence(Leaf("only")),
		},
		{
			name:  "WideFanOutFanIn",
			nodes: []string{"s", "a", "b", "c", "t"},
			edges: []string{"s->a", "s->b", "s->c", "a->t", "b->t", "c->t"},
			want:  Sequence(Leaf("s"), Parallel(Leaf("a"), Leaf("b"), Leaf("c")), Leaf("t")),
		},
		{
			name:  "NestedDiamonds",
			nodes: []string{"a", "b", "c", "d", "e", "f"},
			edges: []string{"a->b", "a->c", "b->d", "c->d", "d->e", "d->f"},
			// First diamond reduces to a series-parallel prefix; the
			// trailing fan-out has no join, so e and f run in parallel.
			want: Sequence(
				Leaf("a"),
				Parallel(Leaf("b"), Leaf("c")),
				Leaf("d"),
				Parallel(Leaf("e"), Leaf("f")),
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildGraph(t, tt.nodes, tt.edges)

			got, err := Decompose(g)
			if err != nil {
				t.Fatalf("Decompose: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Decompose() = %v, want %v", got.canonicalKey(), tt.want.canonicalKey())
			}
		})
	}
}

func TestDecompose_Errors(t *testing.T) {
	tests := []struct {
		name     string
		nodes    []string
		edges    []string
		wantCode errors.Code
	}{
		{
			name:     "EmptyGraph",
			wantCode: errors.ErrCodeValidation,
		},
		{
			name:     "Cycle",
			nodes:    []string{"a", "b"},
			edges:    []string{"a->b", "b->a"},
			wantCode: errors.ErrCodeCycle,
		},
		{
			name:     "Disconnected",
			nodes:    []string{"a", "b", "c"},
			edges:    []string{"a->b"},
			wantCode: errors.ErrCodeDecomposition,
		},
		{
			// The classic non-series-parallel witness: a diamond with an
			// extra cross edge between the branches.
			name:     "BowtieWithCrossEdge",
			nodes:    []string{"A", "B", "C", "D"},
			edges:    []string{"A->B", "A->C", "B->D", "C->D", "B->C"},
			wantCode: errors.ErrCodeDecomposition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildGraph(t, tt.nodes, tt.edges)

			_, err := Decompose(g)
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("Decompose() error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestDecompose_CrossEdgeErrorNamesNodes(t *testing.T) {
	g := buildGraph(t,
		[]string{"A", "B", "C", "D"},
		[]string{"A->B", "A->C", "B->D", "C->D", "B->C"},
	)

	_, err := Decompose(g)
	if err == nil {
		t.Fatal("Decompose() = nil, want DecompositionError")
	}
	msg := err.Error()
	for _, id := range []string{"A", "B", "C", "D"} {
		if !strings.Contains(msg, id) {
			t.Errorf("error %q does not name unresolved task %s", msg, id)
		}
	}
}

func TestDecompose_Deterministic(t *testing.T) {
	build := func() *graph.Graph {
		return buildGraph(t,
			[]string{"q1", "q2", "q3", "q4", "q5"},
			[]string{"q1->q2", "q1->q3", "q2->q4", "q3->q5", "q4->q5"},
		)
	}

	first, err := Decompose(build())
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}
	for i := 0; i < 10; i++ {
		next, err := Decompose(build())
		if err != nil {
			t.Fatalf("Decompose: %v", err)
		}
		// Structural identity, including Parallel child order.
		if first.canonicalKey() != next.canonicalKey() || !sameOrder(first, next) {
			t.Fatalf("run %d produced a different tree", i)
		}
	}
}

// sameOrder compares trees including child order (stricter than Equal).
func sameOrder(a, b *Node) bool {
	if a.Kind != b.Kind || a.ID != b.ID || len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !sameOrder(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}

func TestDecompose_RoundTripThroughFlatten(t *testing.T) {
	trees := []*Node{
		Sequence(Leaf("q0"), Leaf("q1"), Leaf("q2")),
		Sequence(Leaf("q0"), Parallel(Leaf("q1"), Leaf("q2")), Leaf("q3")),
		Sequence(Leaf("q1"), Parallel(Sequence(Leaf("q2"), Leaf("q4")), Leaf("q3")), Leaf("q5")),
	}

	for _, tree := range trees {
		g, err := Flatten(tree)
		if err != nil {
			t.Fatalf("Flatten: %v", err)
		}
		back, err := Decompose(g)
		if err != nil {
			t.Fatalf("Decompose: %v", err)
		}
		if !back.Equal(tree) {
			t.Errorf("round trip: got %s, want %s", back.canonicalKey(), tree.canonicalKey())
		}

		// A second flatten of the recovered tree must reproduce the edges.
		g2, err := Flatten(back)
		if err != nil {
			t.Fatalf("Flatten(recovered): %v", err)
		}
		if g.EdgeCount() != g2.EdgeCount() {
			t.Errorf("edge count drifted: %d vs %d", g.EdgeCount(), g2.EdgeCount())
		}
	}
}

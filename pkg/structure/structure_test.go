package structure

import (
	"reflect"
	"testing"

	"github.com/matzehuels/graphshift/pkg/errors"
	"github.com/matzehuels/graphshift/pkg/graph"
)

func TestLeaves(t *testing.T) {
	tree := Sequence(
		Leaf("q1"),
		Parallel(Sequence(Leaf("q2"), Leaf("q4")), Leaf("q3")),
		Leaf("q5"),
	)

	want := []string{"q1", "q2", "q4", "q3", "q5"}
	if got := tree.Leaves(); !reflect.DeepEqual(got, want) {
		t.Errorf("Leaves() = %v, want %v", got, want)
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b *Node
		want bool
	}{
		{
			name: "Identical",
			a:    Sequence(Leaf("a"), Leaf("b")),
			b:    Sequence(Leaf("a"), Leaf("b")),
			want: true,
		},
		{
			name: "SequenceOrderMatters",
			a:    Sequence(Leaf("a"), Leaf("b")),
			b:    Sequence(Leaf("b"), Leaf("a")),
			want: false,
		},
		{
			name: "ParallelOrderIgnored",
			a:    Parallel(Leaf("a"), Leaf("b")),
			b:    Parallel(Leaf("b"), Leaf("a")),
			want: true,
		},
		{
			name: "DifferentKinds",
			a:    Sequence(Leaf("a"), Leaf("b")),
			b:    Parallel(Leaf("a"), Leaf("b")),
			want: false,
		},
		{
			name: "NestedParallelOrderIgnored",
			a:    Sequence(Leaf("x"), Parallel(Sequence(Leaf("a"), Leaf("b")), Leaf("c"))),
			b:    Sequence(Leaf("x"), Parallel(Leaf("c"), Sequence(Leaf("a"), Leaf("b")))),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFlatten(t *testing.T) {
	tests := []struct {
		name      string
		tree      *Node
		wantEdges []graph.Edge
	}{
		{
			name:      "Linear",
			tree:      Sequence(Leaf("q0"), Leaf("q1"), Leaf("q2"), Leaf("q3")),
			wantEdges: []graph.Edge{{From: "q0", To: "q1"}, {From: "q1", To: "q2"}, {From: "q2", To: "q3"}},
		},
		{
			name: "ParallelFanOutFanIn",
			tree: Sequence(Leaf("q0"), Parallel(Leaf("q1"), Leaf("q2")), Leaf("q3")),
			wantEdges: []graph.Edge{
				{From: "q0", To: "q1"},
				{From: "q0", To: "q2"},
				{From: "q1", To: "q3"},
				{From: "q2", To: "q3"},
			},
		},
		{
			name: "SequenceInsideParallel",
			tree: Sequence(
				Leaf("q1"),
				Parallel(Sequence(Leaf("q2"), Leaf("q4")), Leaf("q3")),
				Leaf("q5"),
			),
			wantEdges: []graph.Edge{
				{From: "q1", To: "q2"},
				{From: "q1", To: "q3"},
				{From: "q2", To: "q4"},
				{From: "q3", To: "q5"},
				{From: "q4", To: "q5"},
			},
		},
		{
			name:      "SingleTask",
			tree:      Sequence(Leaf("only")),
			wantEdges: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Flatten(tt.tree)
			if err != nil {
				t.Fatalf("Flatten: %v", err)
			}
			got := g.Edges()
			if len(got) == 0 {
				got = nil
			}
			if !reflect.DeepEqual(got, tt.wantEdges) {
				t.Errorf("Edges() = %v, want %v", got, tt.wantEdges)
			}
		})
	}
}

func TestFlatten_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		tree     *Node
		wantCode errors.Code
	}{
		{"NilTree", nil, errors.ErrCodeValidation},
		{"EmptySequence", Sequence(), errors.ErrCodeValidation},
		{"EmptyParallel", Sequence(Leaf("a"), Parallel()), errors.ErrCodeValidation},
		{"DuplicateID", Sequence(Leaf("a"), Parallel(Leaf("b"), Leaf("a"))), errors.ErrCodeValidation},
		{"EmptyLeafID", Sequence(Leaf("")), errors.ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Flatten(tt.tree)
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("Flatten() error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

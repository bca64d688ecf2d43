package pipeline

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/graphshift/pkg/cache"
	"github.com/matzehuels/graphshift/pkg/errors"
	"github.com/matzehuels/graphshift/pkg/format"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func TestConvert_LinearChain(t *testing.T) {
	bundle, err := Convert(Options{
		SourceFormat: format.TaskSeq,
		SourceText:   "Sequence { q0, q1, q2, q3 }",
	})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	dotText, err := bundle.Text(format.DOT)
	if err != nil {
		t.Fatalf("dot target: %v", err)
	}
	for _, stmt := range []string{"digraph", "q0 -> q1;", "q1 -> q2;", "q2 -> q3;"} {
		if !strings.Contains(dotText, stmt) {
			t.Errorf("dot output missing %q:\n%s", stmt, dotText)
		}
	}

	mmdText, err := bundle.Text(format.Mermaid)
	if err != nil {
		t.Fatalf("mermaid target: %v", err)
	}
	if !strings.Contains(mmdText, "q0 --> q1 --> q2 --> q3") {
		t.Errorf("mermaid output did not fuse the chain:\n%s", mmdText)
	}
}

func TestConvert_ParallelFromDOT(t *testing.T) {
	bundle, err := Convert(Options{
		SourceFormat: format.DOT,
		SourceText: `digraph G {
  q0 -> q1;
  q0 -> q2;
  q1 -> q3;
  q2 -> q3;
}`,
	})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	seqText, err := bundle.Text(format.TaskSeq)
	if err != nil {
		t.Fatalf("taskseq target: %v", err)
	}
	if !strings.Contains(seqText, "Parallel {") {
		t.Errorf("taskseq output has no Parallel block:\n%s", seqText)
	}
	if !strings.HasPrefix(seqText, "Sequence {") {
		t.Errorf("taskseq output does not start with Sequence:\n%s", seqText)
	}
}

func TestConvert_IdentityEchoesSource(t *testing.T) {
	src := "flowchart TD\n    a --> b\n"
	bundle, err := Convert(Options{SourceFormat: format.Mermaid, SourceText: src})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	got, err := bundle.Text(format.Mermaid)
	if err != nil {
		t.Fatalf("identity target: %v", err)
	}
	if got != src {
		t.Errorf("identity target = %q, want the source text", got)
	}
}

func TestConvert_CycleFailsOnlyTaskSeq(t *testing.T) {
	bundle, err := Convert(Options{
		SourceFormat: format.DOT,
		SourceText:   "digraph G {\n  a -> b;\n  b -> a;\n}",
	})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	if _, err := bundle.Text(format.TaskSeq); !errors.Is(err, errors.ErrCodeCycle) {
		t.Errorf("taskseq target error = %v, want CYCLE_ERROR", err)
	}
	// The arrow grammars render cyclic graphs without complaint.
	if _, err := bundle.Text(format.Mermaid); err != nil {
		t.Errorf("mermaid target error = %v, want nil", err)
	}
	if bundle.Failed() {
		t.Error("Failed() = true, want false (only one target failed)")
	}
}

func TestConvert_NonSeriesParallelFailsOnlyTaskSeq(t *testing.T) {
	// Diamond with a cross edge between the branches.
	bundle, err := Convert(Options{
		SourceFormat: format.DOT,
		SourceText:   "digraph G {\n  A -> B;\n  A -> C;\n  B -> C;\n  B -> D;\n  C -> D;\n}",
	})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	if _, err := bundle.Text(format.TaskSeq); !errors.Is(err, errors.ErrCodeDecomposition) {
		t.Errorf("taskseq target error = %v, want DECOMPOSITION_ERROR", err)
	}
	if _, err := bundle.Text(format.Mermaid); err != nil {
		t.Errorf("mermaid target error = %v, want nil", err)
	}
}

func TestConvert_ParseErrorFillsAllTargets(t *testing.T) {
	bundle, err := Convert(Options{
		SourceFormat: format.TaskSeq,
		SourceText:   "Sequence { q0, q1",
	})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if !bundle.Failed() {
		t.Fatal("Failed() = false, want true")
	}
	for _, f := range format.All() {
		if _, err := bundle.Text(f); !errors.Is(err, errors.ErrCodeSyntax) {
			t.Errorf("%s target error = %v, want SYNTAX_ERROR", f, err)
		}
	}
}

func TestConvert_InvalidOptions(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		wantCode errors.Code
	}{
		{"EmptyText", Options{SourceFormat: format.DOT}, errors.ErrCodeInvalidInput},
		{"UnknownFormat", Options{SourceFormat: "yaml", SourceText: "x"}, errors.ErrCodeInvalidFormat},
		{
			"OversizedText",
			Options{SourceFormat: format.DOT, SourceText: strings.Repeat("x", MaxSourceBytes+1)},
			errors.ErrCodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Convert(tt.opts)
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("Convert() error = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

// Converting between the arrow grammars must preserve the graph exactly:
// parsing the mermaid output yields the same canonical DOT as the input.
func TestConvert_CrossFormatEquivalence(t *testing.T) {
	srcDOT := `digraph Pipeline {
  fetch;
  parse_a;
  parse_b;
  merge;
  fetch -> parse_a;
  fetch -> parse_b;
  parse_a -> merge;
  parse_b -> merge;
}`

	first, err := Convert(Options{SourceFormat: format.DOT, SourceText: srcDOT})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	mmdText, err := first.Text(format.Mermaid)
	if err != nil {
		t.Fatalf("mermaid target: %v", err)
	}

	second, err := Convert(Options{
		SourceFormat: format.Mermaid,
		SourceText:   mmdText,
		GraphName:    "Pipeline",
	})
	if err != nil {
		t.Fatalf("Convert(mermaid): %v", err)
	}
	backDOT, err := second.Text(format.DOT)
	if err != nil {
		t.Fatalf("dot target: %v", err)
	}

	canonical, err := Convert(Options{SourceFormat: format.DOT, SourceText: srcDOT})
	if err != nil {
		t.Fatal(err)
	}
	// Canonical DOT of the round-tripped graph equals the canonical DOT of
	// the identity conversion run through a re-serialization.
	reparsed, err := Convert(Options{SourceFormat: format.DOT, SourceText: backDOT})
	if err != nil {
		t.Fatal(err)
	}
	wantSeq, err := canonical.Text(format.TaskSeq)
	if err != nil {
		t.Fatal(err)
	}
	gotSeq, err := reparsed.Text(format.TaskSeq)
	if err != nil {
		t.Fatal(err)
	}
	if gotSeq != wantSeq {
		t.Errorf("round-tripped structure drifted:\n%s\nwant:\n%s", gotSeq, wantSeq)
	}
}

func TestConvert_GraphNameFlowsToDOTHeader(t *testing.T) {
	bundle, err := Convert(Options{
		SourceFormat: format.Mermaid,
		SourceText:   "flowchart TD\n    a --> b\n",
		GraphName:    "Nightly",
	})
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	dotText, err := bundle.Text(format.DOT)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(dotText, "digraph Nightly {") {
		t.Errorf("dot output does not carry the graph name:\n%s", dotText)
	}
}

func TestRunner_CachesBundles(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, quietLogger())
	defer r.Close()

	opts := Options{SourceFormat: format.DOT, SourceText: "digraph G {\n  a -> b;\n}"}

	first, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if first.CacheHit {
		t.Error("first run reported a cache hit")
	}

	second, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute (cached): %v", err)
	}
	if !second.CacheHit {
		t.Error("second run did not hit the cache")
	}

	wantText, _ := first.Text(format.Mermaid)
	gotText, _ := second.Text(format.Mermaid)
	if gotText != wantText {
		t.Errorf("cached mermaid text = %q, want %q", gotText, wantText)
	}
}

func TestRunner_CachedErrorsKeepTheirCode(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, quietLogger())
	defer r.Close()

	opts := Options{SourceFormat: format.DOT, SourceText: "digraph G {\n  a -> b;\n  b -> a;\n}"}

	if _, err := r.Execute(ctx, opts); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	cached, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute (cached): %v", err)
	}
	if !cached.CacheHit {
		t.Fatal("second run did not hit the cache")
	}
	if _, err := cached.Text(format.TaskSeq); !errors.Is(err, errors.ErrCodeCycle) {
		t.Errorf("cached taskseq error = %v, want CYCLE_ERROR", err)
	}
}

func TestRunner_RefreshBypassesCache(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, quietLogger())
	defer r.Close()

	opts := Options{SourceFormat: format.DOT, SourceText: "digraph G {\n  a -> b;\n}"}
	if _, err := r.Execute(ctx, opts); err != nil {
		t.Fatal(err)
	}

	opts.Refresh = true
	bundle, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if bundle.CacheHit {
		t.Error("refresh run reported a cache hit")
	}
}

func TestRunner_NilDependenciesGetDefaults(t *testing.T) {
	r := NewRunner(nil, nil, quietLogger())
	defer r.Close()

	bundle, err := r.Execute(context.Background(), Options{
		SourceFormat: format.TaskSeq,
		SourceText:   "Sequence { a, b }",
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if bundle.CacheHit {
		t.Error("null cache reported a hit")
	}
}

func TestConvertTo(t *testing.T) {
	got, err := ConvertTo(Options{
		SourceFormat: format.TaskSeq,
		SourceText:   "Sequence { a, b }",
	}, format.DOT)
	if err != nil {
		t.Fatalf("ConvertTo: %v", err)
	}
	if !strings.Contains(got, "a -> b;") {
		t.Errorf("ConvertTo output missing edge:\n%s", got)
	}

	if _, err := ConvertTo(Options{
		SourceFormat: format.TaskSeq,
		SourceText:   "Sequence { a, b }",
	}, "yaml"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("ConvertTo(yaml) error = %v, want INVALID_FORMAT", err)
	}
}

func TestBundleRoundTrip(t *testing.T) {
	bundle, err := Convert(Options{
		SourceFormat: format.DOT,
		SourceText:   "digraph G {\n  a -> b;\n  b -> a;\n}",
	})
	if err != nil {
		t.Fatal(err)
	}

	data, err := MarshalBundle(bundle)
	if err != nil {
		t.Fatalf("MarshalBundle: %v", err)
	}
	back, err := unmarshalBundle(data)
	if err != nil {
		t.Fatalf("unmarshalBundle: %v", err)
	}

	if back.Source != format.DOT {
		t.Errorf("Source = %s, want dot", back.Source)
	}
	wantText, _ := bundle.Text(format.Mermaid)
	gotText, _ := back.Text(format.Mermaid)
	if gotText != wantText {
		t.Errorf("mermaid text = %q, want %q", gotText, wantText)
	}
	if _, err := back.Text(format.TaskSeq); !errors.Is(err, errors.ErrCodeCycle) {
		t.Errorf("decoded taskseq error = %v, want CYCLE_ERROR", err)
	}
}

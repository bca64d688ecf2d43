package store

import (
	"context"
	"testing"
	"time"

	"github.com/matzehuels/graphshift/pkg/errors"
)

func TestNewRecord(t *testing.T) {
	rec := NewRecord("deploy", "dot", "digraph G {\n}", map[string]string{"mermaid": "flowchart TD\n"})

	if rec.ID == "" {
		t.Error("NewRecord did not assign an ID")
	}
	if rec.CreatedAt.IsZero() {
		t.Error("NewRecord did not set CreatedAt")
	}
	if other := NewRecord("deploy", "dot", "", nil); other.ID == rec.ID {
		t.Error("two records share an ID")
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close(ctx)

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Get(missing) error = %v, want NOT_FOUND", err)
	}

	rec := NewRecord("deploy", "dot", "digraph G {\n}", nil)
	if err := s.Save(ctx, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Get(ctx, "deploy")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != rec.ID {
		t.Errorf("Get returned ID %s, want %s", got.ID, rec.ID)
	}

	// Re-saving the same name replaces the record.
	replacement := NewRecord("deploy", "mermaid", "flowchart TD\n", nil)
	if err := s.Save(ctx, replacement); err != nil {
		t.Fatalf("Save (replace): %v", err)
	}
	got, err = s.Get(ctx, "deploy")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.SourceFormat != "mermaid" {
		t.Errorf("replaced record kept source format %s", got.SourceFormat)
	}

	if err := s.Delete(ctx, "deploy"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "deploy"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Delete(gone) error = %v, want NOT_FOUND", err)
	}
}

func TestMemoryStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close(ctx)

	old := NewRecord("old", "dot", "digraph G {\n}", nil)
	old.CreatedAt = time.Now().Add(-time.Hour)
	if err := s.Save(ctx, old); err != nil {
		t.Fatal(err)
	}
	if err := s.Save(ctx, NewRecord("new", "dot", "digraph G {\n}", nil)); err != nil {
		t.Fatal(err)
	}

	recs, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("List returned %d records, want 2", len(recs))
	}
	if recs[0].Name != "new" {
		t.Errorf("List[0] = %s, want new", recs[0].Name)
	}
}

// Package store persists named conversions so a graph authored once can be
// fetched later in any grammar. The server exposes it under /graphs; the
// CLI works without it.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Record is one saved conversion: the source as submitted plus every
// serialized target. Records are keyed by Name; saving an existing name
// replaces the record.
type Record struct {
	ID           string            `bson:"_id" json:"id"`
	Name         string            `bson:"name" json:"name"`
	SourceFormat string            `bson:"source_format" json:"source_format"`
	SourceText   string            `bson:"source_text" json:"source_text"`
	Targets      map[string]string `bson:"targets" json:"targets"`
	CreatedAt    time.Time         `bson:"created_at" json:"created_at"`
}

// NewRecord creates a record with a fresh ID and timestamp.
func NewRecord(name, sourceFormat, sourceText string, targets map[string]string) Record {
	return Record{
		ID:           uuid.NewString(),
		Name:         name,
		SourceFormat: sourceFormat,
		SourceText:   sourceText,
		Targets:      targets,
		CreatedAt:    time.Now().UTC(),
	}
}

// Store is the persistence interface for named conversions.
//
// Get returns a NOT_FOUND error (per pkg/errors) for unknown names.
type Store interface {
	Save(ctx context.Context, rec Record) error
	Get(ctx context.Context, name string) (Record, error)
	List(ctx context.Context) ([]Record, error)
	Delete(ctx context.Context, name string) error
	Close(ctx context.Context) error
}

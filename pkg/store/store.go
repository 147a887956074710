// Package store provides the record-store adapter used by the workbench
// services: a named table of revisioned records with conditional write
// primitives. All concurrency control is delegated to the store's
// compare-and-swap on (id, rev); no multi-record transactions exist.
package store

import (
	"context"
)

// Record is a single row in a record table. Identity fields (ID, Rev,
// CreatedBy, UpdatedBy) live outside Fields; Fields holds the domain
// payload as stored.
type Record struct {
	ID        string
	Rev       int64
	CreatedBy string
	UpdatedBy string
	Fields    map[string]any
}

// Clone returns a deep-ish copy of the record. Fields values are shared;
// the Fields map itself is copied so callers can add or drop keys safely.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Fields = make(map[string]any, len(r.Fields))
	for k, v := range r.Fields {
		cp.Fields[k] = v
	}
	return &cp
}

// Projection limits which Fields keys a read returns. Empty means all.
// Identity fields are always returned.
type Projection []string

// Apply filters the record's Fields down to the projected keys.
func (p Projection) Apply(rec *Record) *Record {
	if rec == nil || len(p) == 0 {
		return rec
	}
	out := *rec
	out.Fields = make(map[string]any, len(p))
	for _, k := range p {
		if v, ok := rec.Fields[k]; ok {
			out.Fields[k] = v
		}
	}
	return &out
}

// RecordStore is the contract all record tables implement. Every
// operation is atomic at single-record granularity.
//
//   - Get returns (nil, nil) when the id is absent.
//   - ConditionalCreate fails with apperrors.ErrAlreadyExists when the id
//     is present; the stored record always starts at rev 0.
//   - ConditionalUpdate fails with apperrors.ErrNotFound when the id is
//     absent and apperrors.ErrRevisionConflict when the stored rev does
//     not equal expectedRev; on success the stored rev is expectedRev+1.
//   - ConditionalDelete fails with apperrors.ErrNotFound when absent.
//   - Scan returns up to limit records in insertion order. No pagination
//     cursor; acceptable only for small collections.
type RecordStore interface {
	Get(ctx context.Context, id string, fields Projection) (*Record, error)
	ConditionalCreate(ctx context.Context, rec *Record) (*Record, error)
	ConditionalUpdate(ctx context.Context, id string, expectedRev int64, rec *Record) (*Record, error)
	ConditionalDelete(ctx context.Context, id string) error
	Scan(ctx context.Context, limit int, fields Projection) ([]*Record, error)
}

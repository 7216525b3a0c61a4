// Package repository contains the entity store: per-collection, per-id
// document storage with whole-collection scans and a single transactional
// read-modify-write primitive. Three drivers implement the DocumentRepo
// contract: MySQL, PostgreSQL and an in-memory map used by tests.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
)

// Document is a stored JSON object. Keys are field names and values are the
// JSON primitives the API accepts (string, float64, int64, bool, nil).
type Document map[string]any

// Clone returns a shallow copy of the document. Values are primitives so a
// shallow copy is enough to keep callers from mutating stored state.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Snapshot is one entry of a collection scan: the document together with
// the id it is stored under.
type Snapshot struct {
	ID   string
	Data Document
}

// TransactFunc receives the current state of a document (nil and false when
// it does not exist yet) and returns the state to write back. Returning an
// error aborts the transaction without writing anything.
type TransactFunc func(current Document, exists bool) (Document, error)

// DocumentRepo is the contract every store driver satisfies. All
// operations are independent except Transact, whose read and write commit
// atomically with respect to concurrent Transact calls on the same document.
type DocumentRepo interface {
	// Get returns the document or ErrDocumentNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)
	// Create inserts a new document or fails with ErrDocumentExists.
	Create(ctx context.Context, collection, id string, doc Document) error
	// Set fully replaces (or inserts) the document.
	Set(ctx context.Context, collection, id string, doc Document) error
	// Update merges fields into an existing document. Untouched fields keep
	// their values. Returns ErrDocumentNotFound when absent.
	Update(ctx context.Context, collection, id string, fields Document) error
	// Delete removes the document or returns ErrDocumentNotFound.
	Delete(ctx context.Context, collection, id string) error
	// List returns every document in the collection ordered by id.
	List(ctx context.Context, collection string) ([]Snapshot, error)
	// Transact runs fn inside a transaction that locks the document.
	Transact(ctx context.Context, collection, id string, fn TransactFunc) error
	// Close releases the underlying connection pool.
	Close() error
}

func encodeDocument(doc Document) ([]byte, error) {
	if doc == nil {
		doc = Document{}
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return b, nil
}

func decodeDocument(raw []byte) (Document, error) {
	doc := Document{}
	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Adam-Grimes/CINEMA/internal/repository"
)

// Reference points at one document of another collection.  It only exists
// in memory; documents store the plain identifier (see Encode).
type Reference struct {
	Collection string
	ID         string
}

// Path renders the reference as "<Collection>/<ID>".
func (r Reference) Path() string { return r.Collection + "/" + r.ID }

// Lookup answers "which documents of collection have field pointing at
// target".  ScanLookup is the only implementation today; an indexed one can
// replace it without touching callers.
type Lookup interface {
	Referencing(ctx context.Context, collection, field string, target Reference) ([]repository.Snapshot, error)
}

// Resolver converts between stored references and plain identifiers and
// checks that reference targets exist.
type Resolver struct {
	store  repository.DocumentRepo
	lookup Lookup
}

// NewResolver builds a resolver.  A nil lookup selects ScanLookup.
func NewResolver(store repository.DocumentRepo, lookup Lookup) *Resolver {
	if lookup == nil {
		lookup = ScanLookup{Store: store}
	}
	return &Resolver{store: store, lookup: lookup}
}

// ToReference returns a reference to collection/id after confirming the
// target document exists.  A missing target is a not-found error.
func (r *Resolver) ToReference(ctx context.Context, collection, id string) (Reference, error) {
	id = SanitizeID(collection, id)
	if id == "" {
		return Reference{}, validationf("%s reference must not be empty", collection)
	}
	if _, err := r.store.Get(ctx, collection, id); err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return Reference{}, notFoundf("%s %s not found", collection, id)
		}
		return Reference{}, fmt.Errorf("check %s: %w", Reference{collection, id}.Path(), err)
	}
	return Reference{Collection: collection, ID: id}, nil
}

// Encode is the stored form of a reference: the plain identifier.
func (r *Resolver) Encode(ref Reference) any { return ref.ID }

// Referencing returns every document of collection whose field resolves to
// target.
func (r *Resolver) Referencing(ctx context.Context, collection, field string, target Reference) ([]repository.Snapshot, error) {
	return r.lookup.Referencing(ctx, collection, field, target)
}

// FromReference unwraps any stored reference form to its plain identifier.
// Accepted forms: "Film1", "Film/Film1", "/Film/Film1",
// {"collection": "Film", "id": "Film1"} and {"path": "Film/Film1"}.
// Values that are not references are returned unchanged.
func FromReference(v any) any {
	_, id, ok := splitReference(v)
	if !ok {
		return v
	}
	return id
}

// splitReference returns the collection (empty when the stored form does
// not carry one) and the identifier of a stored reference.
func splitReference(v any) (collection, id string, ok bool) {
	switch t := v.(type) {
	case string:
		c, i := splitPath(t)
		return c, i, true
	case map[string]any:
		if p, isStr := t["path"].(string); isStr {
			c, i := splitPath(p)
			return c, i, true
		}
		i, isStr := t["id"].(string)
		if !isStr {
			return "", "", false
		}
		c, _ := t["collection"].(string)
		return c, i, true
	case Reference:
		return t.Collection, t.ID, true
	}
	return "", "", false
}

func splitPath(s string) (collection, id string) {
	s = strings.TrimPrefix(s, "/")
	if i := strings.LastIndexByte(s, '/'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return "", s
}

// SanitizeID strips a leading "<collection>/" or "/<collection>/" from a
// path parameter, so "/Film/Film1" and "Film1" name the same film.
func SanitizeID(collection, raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "/")
	s = strings.TrimPrefix(s, collection+"/")
	return s
}

// ScanLookup reads the whole collection and compares resolved plain IDs.
// It costs O(documents in collection) per call.
type ScanLookup struct {
	Store repository.DocumentRepo
}

func (l ScanLookup) Referencing(ctx context.Context, collection, field string, target Reference) ([]repository.Snapshot, error) {
	docs, err := l.Store.List(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	out := []repository.Snapshot{}
	for _, d := range docs {
		c, id, ok := splitReference(d.Data[field])
		if !ok || id != target.ID {
			continue
		}
		if c != "" && c != target.Collection {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

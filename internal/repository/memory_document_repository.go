package repository

import (
	"context"
	"sort"
	"sync"
)

// MemoryDocs is an in-memory DocumentRepo. It backs the unit tests and the
// STORE_DRIVER=memory mode; nothing survives a restart.
type MemoryDocs struct {
	mu          sync.RWMutex
	collections map[string]map[string]Document
}

// NewMemoryDocs returns an empty in-memory store.
func NewMemoryDocs() *MemoryDocs {
	return &MemoryDocs{collections: map[string]map[string]Document{}}
}

// collection returns the map for name, creating it when create is true.
// Callers must hold the lock.
func (m *MemoryDocs) collection(name string, create bool) map[string]Document {
	c, ok := m.collections[name]
	if !ok && create {
		c = map[string]Document{}
		m.collections[name] = c
	}
	return c
}

func (m *MemoryDocs) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.collection(collection, false)[id]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return doc.Clone(), nil
}

func (m *MemoryDocs) Create(ctx context.Context, collection, id string, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.collection(collection, true)
	if _, ok := c[id]; ok {
		return ErrDocumentExists
	}
	c[id] = cloneOrEmpty(doc)
	return nil
}

func (m *MemoryDocs) Set(ctx context.Context, collection, id string, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collection(collection, true)[id] = cloneOrEmpty(doc)
	return nil
}

func (m *MemoryDocs) Update(ctx context.Context, collection, id string, fields Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.collection(collection, false)
	cur, ok := c[id]
	if !ok {
		return ErrDocumentNotFound
	}
	next := cur.Clone()
	for k, v := range fields {
		next[k] = v
	}
	c[id] = next
	return nil
}

func (m *MemoryDocs) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.collection(collection, false)
	if _, ok := c[id]; !ok {
		return ErrDocumentNotFound
	}
	delete(c, id)
	return nil
}

func (m *MemoryDocs) List(ctx context.Context, collection string) ([]Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	c := m.collection(collection, false)
	out := make([]Snapshot, 0, len(c))
	for id, doc := range c {
		out = append(out, Snapshot{ID: id, Data: doc.Clone()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Transact holds the write lock for the whole read-modify-write so
// concurrent calls are fully serialised.
func (m *MemoryDocs) Transact(ctx context.Context, collection, id string, fn TransactFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.collection(collection, true)
	cur, exists := c[id]
	next, err := fn(cur.Clone(), exists)
	if err != nil {
		return err
	}
	c[id] = cloneOrEmpty(next)
	return nil
}

func (m *MemoryDocs) Close() error { return nil }

func cloneOrEmpty(doc Document) Document {
	if doc == nil {
		return Document{}
	}
	return doc.Clone()
}

package service

import (
	"context"
	"errors"
	"sync"

	"github.com/Adam-Grimes/CINEMA/internal/queue"
	"github.com/Adam-Grimes/CINEMA/internal/repository"
)

// recordingPublisher keeps every event it is handed.
type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.EntityChangedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.EntityChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

var errStoreDown = errors.New("store unavailable")

// brokenCounterStore fails every transaction but serves everything else
// from the wrapped memory store.
type brokenCounterStore struct {
	*repository.MemoryDocs
}

func (brokenCounterStore) Transact(context.Context, string, string, repository.TransactFunc) error {
	return errStoreDown
}

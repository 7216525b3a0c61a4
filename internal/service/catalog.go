package service

import (
	"context"

	"github.com/Adam-Grimes/CINEMA/internal/model"
	"github.com/Adam-Grimes/CINEMA/internal/repository"
)

// Catalog owns one EntityService per collection plus the shared counter
// and resolver.
type Catalog struct {
	Counter  *Counter
	Resolver *Resolver
	services map[string]*EntityService
	order    []string
}

// NewCatalog builds services for every schema in model.Schemas().
func NewCatalog(store repository.DocumentRepo, events EventPublisher) *Catalog {
	counter := NewCounter(store)
	resolver := NewResolver(store, nil)
	c := &Catalog{
		Counter:  counter,
		Resolver: resolver,
		services: map[string]*EntityService{},
	}
	for _, schema := range model.Schemas() {
		c.services[schema.Collection] = NewEntityService(schema, store, counter, resolver, events)
		c.order = append(c.order, schema.Collection)
	}
	return c
}

// Service returns the service for collection, or nil.
func (c *Catalog) Service(collection string) *EntityService {
	return c.services[collection]
}

// All returns the services in registration order.
func (c *Catalog) All() []*EntityService {
	out := make([]*EntityService, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.services[name])
	}
	return out
}

// ScreeningsForFilm returns every Screening whose FilmID resolves to
// filmID.  The film itself must exist.  The match is a full scan of the
// Screening collection (see ScanLookup).
func (c *Catalog) ScreeningsForFilm(ctx context.Context, filmID string) ([]repository.Document, error) {
	film, err := c.Resolver.ToReference(ctx, model.Film.Collection, filmID)
	if err != nil {
		return nil, err
	}
	snaps, err := c.Resolver.Referencing(ctx, model.Screening.Collection, "FilmID", film)
	if err != nil {
		return nil, err
	}
	return c.services[model.Screening.Collection].presentAll(snaps), nil
}

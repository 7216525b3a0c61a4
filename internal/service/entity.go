package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/Adam-Grimes/CINEMA/internal/model"
	"github.com/Adam-Grimes/CINEMA/internal/queue"
	"github.com/Adam-Grimes/CINEMA/internal/repository"
)

// EventPublisher receives a notification after every successful write.
// Publishing is best effort: a failure is logged and the write still
// succeeds.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.EntityChangedEvent) error
}

// publishTimeout bounds how long a write waits on the broker.
const publishTimeout = 2 * time.Second

// CreateResult reports the identifier a create stored the entity under and
// whether that identifier was minted from the collection's counter.
type CreateResult struct {
	ID        string
	Generated bool
}

// EntityService implements create, read, update and delete for one
// collection described by a model.Schema.
type EntityService struct {
	schema   model.Schema
	store    repository.DocumentRepo
	counter  *Counter
	resolver *Resolver
	fields   *fieldValidator
	events   EventPublisher
}

// NewEntityService wires a service for schema.  events may be nil.
func NewEntityService(schema model.Schema, store repository.DocumentRepo, counter *Counter, resolver *Resolver, events EventPublisher) *EntityService {
	return &EntityService{
		schema:   schema,
		store:    store,
		counter:  counter,
		resolver: resolver,
		fields:   newFieldValidator(),
		events:   events,
	}
}

// Schema returns the collection description the service was built for.
func (s *EntityService) Schema() model.Schema { return s.schema }

// Create validates body, resolves the identifier, checks that every
// referenced document exists and only then mints a counter value (when
// the identity policy needs one) and inserts the document.  Optional
// attributes missing from body are stored as null.
func (s *EntityService) Create(ctx context.Context, body map[string]any) (CreateResult, error) {
	doc := repository.Document{}
	for _, f := range s.schema.Fields {
		v, ok := body[f.Name]
		if !ok || v == nil {
			if f.Required {
				return CreateResult{}, validationf("Missing required field: %s", f.Name)
			}
			doc[f.Name] = nil
			continue
		}
		norm, err := s.fields.check(s.schema.Collection, f, v)
		if err != nil {
			return CreateResult{}, err
		}
		doc[f.Name] = norm
	}

	id, mint, err := s.identity(body)
	if err != nil {
		return CreateResult{}, err
	}

	for _, f := range s.schema.References() {
		raw, _ := doc[f.Name].(string)
		ref, err := s.resolver.ToReference(ctx, f.Ref, raw)
		if err != nil {
			return CreateResult{}, err
		}
		doc[f.Name] = s.resolver.Encode(ref)
	}

	if mint {
		if id, err = s.insertMinted(ctx, doc); err != nil {
			return CreateResult{}, err
		}
	} else if err := s.store.Create(ctx, s.schema.Collection, id, doc); err != nil {
		if errors.Is(err, repository.ErrDocumentExists) {
			return CreateResult{}, conflictf("%s %s already exists", s.schema.Collection, id)
		}
		return CreateResult{}, fmt.Errorf("create %s: %w", s.schema.Collection, err)
	}

	s.publish(ctx, id, queue.ActionCreated, fieldNames(doc))
	return CreateResult{ID: id, Generated: mint}, nil
}

// maxMintAttempts bounds how many counter values insertMinted draws
// before giving up on a collection.
const maxMintAttempts = 16

// insertMinted draws counter values until one names a free document.  A
// caller may already have stored "Theatre1" under an optional-generated
// policy; that value is skipped rather than reported as a conflict.
func (s *EntityService) insertMinted(ctx context.Context, doc repository.Document) (string, error) {
	for attempt := 0; attempt < maxMintAttempts; attempt++ {
		n, err := s.counter.Next(ctx, s.schema.Sequence())
		if err != nil {
			return "", fmt.Errorf("generate %s id: %w", s.schema.Collection, err)
		}
		id := FormatID(s.schema.Collection, n)
		err = s.store.Create(ctx, s.schema.Collection, id, doc)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, repository.ErrDocumentExists) {
			return "", fmt.Errorf("create %s: %w", s.schema.Collection, err)
		}
	}
	return "", conflictf("no free %s id after %d attempts", s.schema.Collection, maxMintAttempts)
}

// identity reads the identifier from body according to the schema's
// policy.  mint is true when the caller must draw one from the counter.
func (s *EntityService) identity(body map[string]any) (id string, mint bool, err error) {
	if s.schema.IDPolicy == model.Generated {
		return "", true, nil
	}
	raw, present := body[s.schema.IDField]
	if !present || raw == nil {
		if s.schema.IDPolicy == model.OptionalGenerated {
			return "", true, nil
		}
		return "", false, validationf("Missing required field: %s", s.schema.IDField)
	}
	str, ok := raw.(string)
	if !ok {
		return "", false, validationf("%s must be a string", s.schema.IDField)
	}
	str = SanitizeID(s.schema.Collection, str)
	if str == "" {
		if s.schema.IDPolicy == model.OptionalGenerated {
			return "", true, nil
		}
		return "", false, validationf("%s must not be empty", s.schema.IDField)
	}
	if strings.Contains(str, "/") {
		return "", false, validationf("%s must not contain '/'", s.schema.IDField)
	}
	return str, false, nil
}

// Get returns one entity with references unwrapped and the identity field
// set.
func (s *EntityService) Get(ctx context.Context, id string) (repository.Document, error) {
	id = SanitizeID(s.schema.Collection, id)
	doc, err := s.store.Get(ctx, s.schema.Collection, id)
	if err != nil {
		return nil, s.notFound(err, "get")
	}
	return s.present(id, doc), nil
}

// List returns every entity of the collection.
func (s *EntityService) List(ctx context.Context) ([]repository.Document, error) {
	snaps, err := s.store.List(ctx, s.schema.Collection)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.schema.Collection, err)
	}
	return s.presentAll(snaps), nil
}

// Update merges the recognised, non-null attributes of body into the
// stored entity.  Unknown keys and the identity field are ignored.  A
// reference whose value changed is checked against its target collection.
func (s *EntityService) Update(ctx context.Context, id string, body map[string]any) error {
	id = SanitizeID(s.schema.Collection, id)

	patch := repository.Document{}
	for _, f := range s.schema.Fields {
		v, ok := body[f.Name]
		if !ok || v == nil {
			continue
		}
		norm, err := s.fields.check(s.schema.Collection, f, v)
		if err != nil {
			return err
		}
		patch[f.Name] = norm
	}
	if len(patch) == 0 {
		return validationf("No valid fields provided for update")
	}

	cur, err := s.store.Get(ctx, s.schema.Collection, id)
	if err != nil {
		return s.notFound(err, "update")
	}

	for _, f := range s.schema.References() {
		v, ok := patch[f.Name]
		if !ok {
			continue
		}
		want := v.(string)
		if FromReference(cur[f.Name]) == want {
			patch[f.Name] = want
			continue
		}
		ref, err := s.resolver.ToReference(ctx, f.Ref, want)
		if err != nil {
			return err
		}
		patch[f.Name] = s.resolver.Encode(ref)
	}

	if err := s.store.Update(ctx, s.schema.Collection, id, patch); err != nil {
		return s.notFound(err, "update")
	}
	s.publish(ctx, id, queue.ActionUpdated, fieldNames(patch))
	return nil
}

// Delete removes the entity.  Documents that reference it are left alone.
func (s *EntityService) Delete(ctx context.Context, id string) error {
	id = SanitizeID(s.schema.Collection, id)
	if err := s.store.Delete(ctx, s.schema.Collection, id); err != nil {
		return s.notFound(err, "delete")
	}
	s.publish(ctx, id, queue.ActionDeleted, nil)
	return nil
}

// present converts a stored document to its API shape.
func (s *EntityService) present(id string, doc repository.Document) repository.Document {
	out := doc.Clone()
	for _, f := range s.schema.References() {
		if v, ok := out[f.Name]; ok && v != nil {
			out[f.Name] = FromReference(v)
		}
	}
	out[s.schema.IDField] = id
	return out
}

func (s *EntityService) presentAll(snaps []repository.Snapshot) []repository.Document {
	out := make([]repository.Document, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, s.present(snap.ID, snap.Data))
	}
	return out
}

// notFound maps a missing document to a client-facing not-found error and
// wraps everything else with the operation name.
func (s *EntityService) notFound(err error, op string) error {
	if errors.Is(err, repository.ErrDocumentNotFound) {
		return notFoundf("%s not found", s.schema.Collection)
	}
	return fmt.Errorf("%s %s: %w", op, s.schema.Collection, err)
}

func (s *EntityService) publish(ctx context.Context, id string, action queue.Action, fields []string) {
	if s.events == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	ev := queue.NewEntityChangedEvent(s.schema.Collection, id, action, fields)
	if err := s.events.Publish(ctx, ev); err != nil {
		log.Warnf("publish %s %s/%s: %v", action, s.schema.Collection, id, err)
	}
}

func fieldNames(doc repository.Document) []string {
	names := make([]string, 0, len(doc))
	for k := range doc {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Package queue carries entity change events over RabbitMQ: a publisher used
// by the entity services and a consumer that writes an audit log.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// Action names the kind of change an event describes.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// EntityChangedEvent is published after a document has been created,
// updated or deleted.  Fields lists the attribute names that were written;
// it is empty for deletes.
type EntityChangedEvent struct {
	EventID    string   `json:"event_id"`
	Collection string   `json:"collection"`
	EntityID   string   `json:"entity_id"`
	Action     Action   `json:"action"`
	Fields     []string `json:"fields,omitempty"`
	OccurredAt string   `json:"occurred_at"`
}

// NewEntityChangedEvent stamps a fresh event id and the current UTC time.
func NewEntityChangedEvent(collection, entityID string, action Action, fields []string) EntityChangedEvent {
	return EntityChangedEvent{
		EventID:    uuid.NewString(),
		Collection: collection,
		EntityID:   entityID,
		Action:     action,
		Fields:     fields,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	}
}

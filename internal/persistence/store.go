package persistence

import (
	"context"
	"errors"

	"github.com/avelin/dagflow/pkg/api"
)

var (
	// ErrDefinitionNotFound is returned when a workflow definition is not found.
	ErrDefinitionNotFound = errors.New("workflow definition not found")

	// ErrInstanceNotFound is returned when a workflow instance is not found.
	ErrInstanceNotFound = errors.New("workflow instance not found")
)

// DefinitionStore handles storage of workflow definitions.
// Definitions are immutable once saved.
type DefinitionStore interface {
	SaveDefinition(def api.Definition) error
	GetDefinition(id string) (api.Definition, error)
	ListDefinitions() ([]api.Definition, error)
}

// InstanceFilter is used to select instances from the store.
// Empty fields mean "no filter".
type InstanceFilter struct {
	DefinitionID string
	Status       api.Status
}

// InstanceStore handles storage of workflow instance snapshots. The
// engine hands stores deep copies, so implementations may retain what
// they are given.
type InstanceStore interface {
	SaveInstance(inst *api.Instance) error
	UpdateInstance(inst *api.Instance) error
	GetInstance(id string) (*api.Instance, error)
	ListInstances(filter InstanceFilter) ([]*api.Instance, error)
}

// EventStore is an append-only history store for workflow events,
// mirroring the per-instance audit log into durable storage.
type EventStore interface {
	AppendEvent(ctx context.Context, ev api.Event) error
	ListEvents(ctx context.Context, instanceID string) ([]api.Event, error)
}

// NoopEventStore discards all events.
type NoopEventStore struct{}

func (NoopEventStore) AppendEvent(ctx context.Context, ev api.Event) error { return nil }
func (NoopEventStore) ListEvents(ctx context.Context, instanceID string) ([]api.Event, error) {
	return nil, nil
}

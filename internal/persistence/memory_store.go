package persistence

import (
	"sync"

	"github.com/avelin/dagflow/pkg/api"
)

// InMemoryStore is a simple, goroutine-safe implementation of
// DefinitionStore and InstanceStore backed by maps.
type InMemoryStore struct {
	mu          sync.RWMutex
	definitions map[string]api.Definition
	instances   map[string]*api.Instance
}

// NewInMemoryStore creates a new InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		definitions: make(map[string]api.Definition),
		instances:   make(map[string]*api.Instance),
	}
}

// Ensure InMemoryStore implements the interfaces.
var _ DefinitionStore = (*InMemoryStore)(nil)

var _ InstanceStore = (*InMemoryStore)(nil)

func (s *InMemoryStore) SaveDefinition(def api.Definition) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.definitions[def.ID] = def
	return nil
}

func (s *InMemoryStore) GetDefinition(id string) (api.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	def, ok := s.definitions[id]
	if !ok {
		return api.Definition{}, ErrDefinitionNotFound
	}

	return def, nil
}

func (s *InMemoryStore) ListDefinitions() ([]api.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]api.Definition, 0, len(s.definitions))
	for _, def := range s.definitions {
		out = append(out, def)
	}
	return out, nil
}

func (s *InMemoryStore) SaveInstance(inst *api.Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.instances[inst.ID] = inst
	return nil
}

func (s *InMemoryStore) UpdateInstance(inst *api.Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.instances[inst.ID]; !ok {
		return ErrInstanceNotFound
	}

	s.instances[inst.ID] = inst
	return nil
}

func (s *InMemoryStore) GetInstance(id string) (*api.Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inst, ok := s.instances[id]
	if !ok {
		return nil, ErrInstanceNotFound
	}

	return inst, nil
}

func (s *InMemoryStore) ListInstances(filter InstanceFilter) ([]*api.Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*api.Instance

	for _, inst := range s.instances {
		if filter.DefinitionID != "" && inst.DefinitionID != filter.DefinitionID {
			continue
		}
		if filter.Status != "" && inst.Status != filter.Status {
			continue
		}
		result = append(result, inst)
	}

	return result, nil
}

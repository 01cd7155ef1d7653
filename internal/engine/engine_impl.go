package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avelin/dagflow/internal/graph"
	"github.com/avelin/dagflow/internal/persistence"
	"github.com/avelin/dagflow/pkg/api"
)

// engineImpl is an in-process orchestration engine. Each started
// instance is owned by one runner; all cross-instance state lives
// behind the stores and the registry.
type engineImpl struct {
	definitions persistence.DefinitionStore
	instances   persistence.InstanceStore
	events      persistence.EventStore

	registry *handlerRegistry
	bus      *eventBus
	observer api.Observer

	mu      sync.RWMutex
	runners map[string]*runner
}

// Config describes how to construct an engineImpl.
// Only used inside this package; external callers use the helper functions.
type Config struct {
	Persistence persistence.Persistence
	Observer    api.Observer
}

func NewInMemoryEngine() api.Engine {
	mem := persistence.NewInMemoryStore()
	return NewEngine(persistence.Persistence{
		Definitions: mem,
		Instances:   mem,
	})
}

func NewInMemoryEngineWithObserver(obs api.Observer) api.Engine {
	mem := persistence.NewInMemoryStore()
	return NewEngineWithConfig(Config{
		Persistence: persistence.Persistence{
			Definitions: mem,
			Instances:   mem,
		},
		Observer: obs,
	})
}

func NewSQLiteEngine(db *sql.DB) (api.Engine, error) {
	return NewSQLiteEngineWithObserver(db, nil)
}

func NewSQLiteEngineWithObserver(db *sql.DB, obs api.Observer) (api.Engine, error) {
	inst, err := persistence.NewSQLiteInstanceStore(db)
	if err != nil {
		return nil, err
	}
	events, err := persistence.NewSQLiteEventStore(db)
	if err != nil {
		return nil, err
	}
	// Definitions remain in-memory: they are registered by code at
	// startup and are not durable state.
	memDefs := persistence.NewInMemoryStore()

	return NewEngineWithConfig(Config{
		Persistence: persistence.Persistence{
			Definitions: memDefs,
			Instances:   inst,
			Events:      events,
		},
		Observer: obs,
	}), nil
}

// NewEngine returns an Engine backed by the given persistence bundle.
func NewEngine(p persistence.Persistence) api.Engine {
	return NewEngineWithConfig(Config{Persistence: p})
}

// NewEngineWithConfig creates a new Engine using the given configuration.
func NewEngineWithConfig(cfg Config) api.Engine {
	obs := cfg.Observer
	if obs == nil {
		obs = api.NoopObserver{}
	}
	events := cfg.Persistence.Events
	if events == nil {
		events = persistence.NoopEventStore{}
	}
	return &engineImpl{
		definitions: cfg.Persistence.Definitions,
		instances:   cfg.Persistence.Instances,
		events:      events,
		registry:    newHandlerRegistry(),
		bus:         newEventBus(),
		observer:    obs,
		runners:     make(map[string]*runner),
	}
}

func (e *engineImpl) RegisterWorkflow(def api.Definition) (string, error) {
	if def.ID == "" {
		def.ID = uuid.NewString()
	}
	if err := graph.Validate(def); err != nil {
		return "", err
	}

	if _, err := e.definitions.GetDefinition(def.ID); err == nil {
		return "", fmt.Errorf("workflow definition already registered: %s", def.ID)
	} else if !errors.Is(err, persistence.ErrDefinitionNotFound) {
		return "", err
	}

	if err := e.definitions.SaveDefinition(def); err != nil {
		return "", err
	}
	return def.ID, nil
}

func (e *engineImpl) RegisterHandler(taskType string, h api.Handler) error {
	return e.registry.Register(taskType, h)
}

func (e *engineImpl) StartWorkflow(ctx context.Context, definitionID string, initialData map[string]any) (string, error) {
	def, err := e.definitions.GetDefinition(definitionID)
	if err != nil {
		if errors.Is(err, persistence.ErrDefinitionNotFound) {
			return "", fmt.Errorf("unknown workflow definition: %s", definitionID)
		}
		return "", err
	}

	inst := &api.Instance{
		ID:             uuid.NewString(),
		DefinitionID:   def.ID,
		Status:         api.StatusRunning,
		Data:           api.CloneData(initialData),
		CurrentTasks:   make(map[string]*api.TaskInstance),
		CompletedTasks: make(map[string]*api.TaskInstance),
		FailedTasks:    make(map[string]*api.TaskInstance),
		StartTime:      time.Now(),
	}
	if inst.Data == nil {
		inst.Data = make(map[string]any)
	}

	if err := e.instances.SaveInstance(inst.Clone()); err != nil {
		return "", err
	}

	r := newRunner(ctx, e, def, inst)
	e.mu.Lock()
	e.runners[inst.ID] = r
	e.mu.Unlock()

	r.start()
	return inst.ID, nil
}

func (e *engineImpl) PauseWorkflowInstance(id string) error {
	r, err := e.runner(id)
	if err != nil {
		return err
	}
	return r.pause()
}

func (e *engineImpl) ResumeWorkflowInstance(id string) error {
	r, err := e.runner(id)
	if err != nil {
		return err
	}
	return r.resume()
}

func (e *engineImpl) CancelWorkflowInstance(id string) error {
	r, err := e.runner(id)
	if err != nil {
		return err
	}
	return r.cancelInstance()
}

func (e *engineImpl) GetWorkflowInstance(id string) (*api.Instance, bool) {
	if r, err := e.runner(id); err == nil {
		return r.snapshot(), true
	}
	inst, err := e.instances.GetInstance(id)
	if err != nil {
		return nil, false
	}
	return inst.Clone(), true
}

func (e *engineImpl) ListWorkflowInstances(opts api.InstanceListOptions) ([]*api.Instance, error) {
	filter := persistence.InstanceFilter{
		DefinitionID: opts.DefinitionID,
		Status:       opts.Status,
	}
	stored, err := e.instances.ListInstances(filter)
	if err != nil {
		return nil, err
	}
	out := make([]*api.Instance, 0, len(stored))
	for _, inst := range stored {
		// Prefer the live runner state over the persisted snapshot.
		if r, rerr := e.runner(inst.ID); rerr == nil {
			out = append(out, r.snapshot())
			continue
		}
		out = append(out, inst.Clone())
	}
	return out, nil
}

func (e *engineImpl) WaitForInstance(ctx context.Context, id string) (*api.Instance, error) {
	r, err := e.runner(id)
	if err != nil {
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-r.done:
		return r.snapshot(), nil
	}
}

func (e *engineImpl) Subscribe(fn func(api.Event)) func() {
	return e.bus.Subscribe(fn)
}

func (e *engineImpl) runner(id string) (*runner, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	r, ok := e.runners[id]
	if !ok {
		return nil, &api.InstanceNotFoundError{ID: id}
	}
	return r, nil
}

// publish fans an event out to bus subscribers and mirrors it into the
// event store. Store failures are deliberately not allowed to affect
// execution.
func (e *engineImpl) publish(ev api.Event) {
	e.bus.Publish(ev)
	_ = e.events.AppendEvent(context.Background(), ev)
}

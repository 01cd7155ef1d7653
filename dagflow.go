package dagflow

import (
	"context"
	"database/sql"

	"github.com/avelin/dagflow/internal/engine"
	"github.com/avelin/dagflow/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Engine              = api.Engine
	Definition          = api.Definition
	TaskDefinition      = api.TaskDefinition
	Instance            = api.Instance
	TaskInstance        = api.TaskInstance
	InstanceListOptions = api.InstanceListOptions
	Status              = api.Status
	TaskStatus          = api.TaskStatus
	Condition           = api.Condition
	Operator            = api.Operator
	RetryStrategy       = api.RetryStrategy
	ErrorHandling       = api.ErrorHandling
	Handler             = api.Handler
	TaskInput           = api.TaskInput
	Event               = api.Event
	EventType           = api.EventType
	AuditEntry          = api.AuditEntry
	Observer            = api.Observer
	LoggingObserver     = api.LoggingObserver
	BasicMetrics        = api.BasicMetrics
	CompositeObserver   = api.CompositeObserver
	NoopObserver        = api.NoopObserver
)

// Re-export common observer helpers.

var (
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver
)

// Re-export status values for convenience.

const (
	StatusRunning   = api.StatusRunning
	StatusPaused    = api.StatusPaused
	StatusCompleted = api.StatusCompleted
	StatusFailed    = api.StatusFailed
	StatusCancelled = api.StatusCancelled

	TaskQueued    = api.TaskQueued
	TaskRunning   = api.TaskRunning
	TaskRetry     = api.TaskRetry
	TaskCompleted = api.TaskCompleted
	TaskFailed    = api.TaskFailed
	TaskCancelled = api.TaskCancelled

	ErrorFail     = api.ErrorFail
	ErrorContinue = api.ErrorContinue
)

// Engine constructors
// These wrap the internal/engine package so external callers
// never need to import internal packages.

// NewInMemoryEngine returns an Engine backed entirely by in-memory stores.
func NewInMemoryEngine() Engine {
	return engine.NewInMemoryEngine()
}

// NewInMemoryEngineWithObserver returns an in-memory Engine with the given Observer.
func NewInMemoryEngineWithObserver(obs Observer) Engine {
	return engine.NewInMemoryEngineWithObserver(obs)
}

// NewSQLiteEngine returns an Engine that persists instance snapshots
// and audit events in a SQLite database. Workflow definitions are kept
// in-memory.
func NewSQLiteEngine(db *sql.DB) (Engine, error) {
	return engine.NewSQLiteEngine(db)
}

// NewSQLiteEngineWithObserver returns a SQLite-backed Engine with the given Observer.
func NewSQLiteEngineWithObserver(db *sql.DB, obs Observer) (Engine, error) {
	return engine.NewSQLiteEngineWithObserver(db, obs)
}

// Convenience helpers that just forward to the underlying Engine.

// Start starts a workflow instance and returns its id.
func Start(ctx context.Context, eng Engine, definitionID string, initialData map[string]any) (string, error) {
	return eng.StartWorkflow(ctx, definitionID, initialData)
}

// Run starts a workflow instance and blocks until it reaches a
// terminal status, returning the final snapshot.
func Run(ctx context.Context, eng Engine, definitionID string, initialData map[string]any) (*Instance, error) {
	id, err := eng.StartWorkflow(ctx, definitionID, initialData)
	if err != nil {
		return nil, err
	}
	return eng.WaitForInstance(ctx, id)
}

// GetInstance fetches an instance snapshot by ID.
func GetInstance(eng Engine, id string) (*Instance, bool) {
	return eng.GetWorkflowInstance(id)
}

// ListInstances lists workflow instances according to the given options.
func ListInstances(eng Engine, opts InstanceListOptions) ([]*Instance, error) {
	return eng.ListWorkflowInstances(opts)
}

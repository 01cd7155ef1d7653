package api

import "context"

// Engine is the public orchestration API.
//
// Definition and lifecycle errors are surfaced synchronously from these
// methods. Task execution errors never are: they are recorded on the
// task instance, routed through the retry/failure policy and observable
// only via the instance status and the event stream.
type Engine interface {
	// RegisterWorkflow validates and registers a definition, returning
	// its id. A DefinitionError is returned for malformed definitions
	// (missing name, no tasks, duplicate ids, dangling dependsOn
	// references, dependency cycles).
	RegisterWorkflow(def Definition) (string, error)

	// RegisterHandler binds a handler to a task type. Registering the
	// same type twice is an error.
	RegisterHandler(taskType string, h Handler) error

	// StartWorkflow creates an instance of a registered definition,
	// seeds its data context from initialData and starts executing it
	// asynchronously. It returns the new instance id.
	StartWorkflow(ctx context.Context, definitionID string, initialData map[string]any) (string, error)

	// PauseWorkflowInstance moves a running instance to paused.
	// Already-running tasks are not interrupted, but no new task is
	// dispatched until resume.
	PauseWorkflowInstance(id string) error

	// ResumeWorkflowInstance moves a paused instance back to running
	// and re-dispatches tasks left queued while paused.
	ResumeWorkflowInstance(id string) error

	// CancelWorkflowInstance cancels a non-terminal instance. Every
	// task still in flight (queued or running) is marked cancelled.
	CancelWorkflowInstance(id string) error

	// GetWorkflowInstance returns a deep snapshot of an instance, or
	// false if the id is unknown.
	GetWorkflowInstance(id string) (*Instance, bool)

	// ListWorkflowInstances returns snapshots of instances matching the
	// given options.
	ListWorkflowInstances(opts InstanceListOptions) ([]*Instance, error)

	// WaitForInstance blocks until the instance reaches a terminal
	// status (or ctx is done) and returns its final snapshot.
	WaitForInstance(ctx context.Context, id string) (*Instance, error)

	// Subscribe registers fn for every event emitted by the engine and
	// returns an unsubscribe function. Events are delivered
	// synchronously on the engine's scheduling goroutines, in
	// transition order; subscribers must be fast and must not call back
	// into the engine.
	Subscribe(fn func(Event)) (unsubscribe func())
}

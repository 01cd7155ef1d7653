package api

import "context"

// TaskInput is what a handler receives for one execution attempt.
//
// Data is a deep snapshot of the instance data context taken at
// dispatch time; mutating it has no effect on the shared context.
// The only way task output re-enters the context is through the task's
// output data mapping applied to the returned result.
type TaskInput struct {
	InstanceID string
	TaskID     string
	Type       string
	Attempt    int

	Config map[string]any
	Data   map[string]any
}

// Handler performs the actual work for a task type. The engine never
// inspects handler internals, only the returned result and error.
//
// Handlers may block on I/O; the context is cancelled when the instance
// is cancelled or fails terminally, so long-running handlers should
// honor it.
type Handler func(ctx context.Context, in TaskInput) (any, error)

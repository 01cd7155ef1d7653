package api

import (
	"errors"
	"fmt"
	"time"
)

// DefinitionError reports a malformed definition. It is raised
// synchronously from RegisterWorkflow; a rejected definition can never
// produce an instance.
type DefinitionError struct {
	Reason string
}

func (e *DefinitionError) Error() string {
	return "invalid workflow definition: " + e.Reason
}

// NewDefinitionError formats a DefinitionError.
func NewDefinitionError(format string, args ...any) *DefinitionError {
	return &DefinitionError{Reason: fmt.Sprintf(format, args...)}
}

// IsDefinitionError reports whether err is (or wraps) a DefinitionError.
func IsDefinitionError(err error) bool {
	var de *DefinitionError
	return errors.As(err, &de)
}

// InstanceNotFoundError is returned by lifecycle operations called with
// an unknown instance id.
type InstanceNotFoundError struct {
	ID string
}

func (e *InstanceNotFoundError) Error() string {
	return "workflow instance not found: " + e.ID
}

// IsInstanceNotFound reports whether err is (or wraps) an
// InstanceNotFoundError.
func IsInstanceNotFound(err error) bool {
	var ne *InstanceNotFoundError
	return errors.As(err, &ne)
}

// InvalidStateTransitionError is returned when a lifecycle operation is
// called from an incompatible instance status, for example resuming an
// instance that is not paused.
type InvalidStateTransitionError struct {
	ID   string
	From Status
	Op   string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("cannot %s instance %s in status %s", e.Op, e.ID, e.From)
}

// IsInvalidStateTransition reports whether err is (or wraps) an
// InvalidStateTransitionError.
func IsInvalidStateTransition(err error) bool {
	var te *InvalidStateTransitionError
	return errors.As(err, &te)
}

// UnsupportedTaskTypeError is recorded on a task when no handler is
// registered for its type. It is not retryable: retrying cannot fix a
// missing registration.
type UnsupportedTaskTypeError struct {
	Type string
}

func (e *UnsupportedTaskTypeError) Error() string {
	return "no handler registered for task type: " + e.Type
}

// TaskExecutionError wraps a handler failure with the task id and the
// time of the attempt. It is recorded on the TaskInstance and routed
// through the retry/failure policy; it never escapes the engine's
// asynchronous execution path.
type TaskExecutionError struct {
	TaskID string
	At     time.Time
	Cause  error
}

func (e *TaskExecutionError) Error() string {
	return fmt.Sprintf("task %s failed: %v", e.TaskID, e.Cause)
}

func (e *TaskExecutionError) Unwrap() error {
	return e.Cause
}

// NewTaskExecutionError wraps cause as a TaskExecutionError for taskID,
// stamped with the current time.
func NewTaskExecutionError(taskID string, cause error) *TaskExecutionError {
	return &TaskExecutionError{TaskID: taskID, At: time.Now(), Cause: cause}
}

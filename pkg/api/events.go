package api

import "time"

// EventType identifies a workflow lifecycle event.
type EventType string

const (
	EventWorkflowStarted   EventType = "workflow_started"
	EventWorkflowCompleted EventType = "workflow_completed"
	EventWorkflowFailed    EventType = "workflow_failed"
	EventWorkflowPaused    EventType = "workflow_paused"
	EventWorkflowResumed   EventType = "workflow_resumed"
	EventWorkflowCancelled EventType = "workflow_cancelled"

	EventTaskQueued         EventType = "task_queued"
	EventTaskStarted        EventType = "task_started"
	EventTaskCompleted      EventType = "task_completed"
	EventTaskError          EventType = "task_error"
	EventTaskRetryScheduled EventType = "task_retry_scheduled"
	EventTaskFailed         EventType = "task_failed"
	EventTaskCancelled      EventType = "task_cancelled"
	EventTaskSkipped        EventType = "task_skipped"
)

// Event is the record published to bus subscribers for every state
// transition. The same record, minus the result payload, is appended to
// the instance audit log.
//
// Events are strictly observational: nothing in the engine's control
// flow depends on who is subscribed.
type Event struct {
	At   time.Time `json:"at"`
	Type EventType `json:"type"`

	InstanceID   string `json:"instanceId"`
	DefinitionID string `json:"definitionId"`

	// Status is the instance status at the moment the event was emitted.
	Status Status `json:"status"`

	// Task fields are set only for task_* events.
	TaskID     string     `json:"taskId,omitempty"`
	TaskStatus TaskStatus `json:"taskStatus,omitempty"`
	Attempts   int        `json:"attempts,omitempty"`

	// Result carries the handler result on task_completed.
	Result any `json:"result,omitempty"`

	// Err carries the recorded error message on task_error, task_failed
	// and workflow_failed.
	Err string `json:"error,omitempty"`
}

package api

import "time"

// Status represents the lifecycle state of a workflow instance.
type Status string

const (
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status is absorbing: once an instance
// reaches it, the instance is never mutated again.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// TaskStatus represents the lifecycle state of a single task instance.
type TaskStatus string

const (
	TaskQueued    TaskStatus = "queued"
	TaskRunning   TaskStatus = "running"
	TaskRetry     TaskStatus = "retry"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
	TaskCancelled TaskStatus = "cancelled"
)

// Operator names a comparison applied by a task condition.
type Operator string

const (
	OpEq         Operator = "eq"
	OpNeq        Operator = "neq"
	OpGt         Operator = "gt"
	OpGte        Operator = "gte"
	OpLt         Operator = "lt"
	OpLte        Operator = "lte"
	OpContains   Operator = "contains"
	OpStartsWith Operator = "startsWith"
	OpEndsWith   Operator = "endsWith"
	OpExists     Operator = "exists"
)

// Condition is a single comparison predicate. Left and Right are either
// literals or context references (strings with a "$." prefix, resolved
// against the instance data). OpExists ignores Right.
type Condition struct {
	Left     any      `json:"left" yaml:"left"`
	Operator Operator `json:"operator" yaml:"operator"`
	Right    any      `json:"right,omitempty" yaml:"right,omitempty"`
}

// RetryStrategy controls how a task is retried when its handler fails.
// MaxAttempts includes the first attempt; values <= 1 mean no retries.
// Delay is the pause before a failed task is re-queued.
type RetryStrategy struct {
	MaxAttempts int           `json:"maxAttempts" yaml:"maxAttempts"`
	Delay       time.Duration `json:"delay" yaml:"delay"`
}

// ErrorHandling decides what happens to the workflow when a task
// exhausts its retries.
type ErrorHandling string

const (
	// ErrorFail fails the whole instance as soon as the task fails.
	// This is the default when no policy is set.
	ErrorFail ErrorHandling = "fail"

	// ErrorContinue records the failure but keeps advancing the task's
	// dependents, so the instance can still complete.
	ErrorContinue ErrorHandling = "continue"
)

// TaskDefinition describes one node of the task graph.
type TaskDefinition struct {
	ID            string            `json:"id" yaml:"id"`
	Type          string            `json:"type" yaml:"type"`
	DependsOn     []string          `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
	Conditions    []Condition       `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Retry         RetryStrategy     `json:"retryStrategy,omitempty" yaml:"retryStrategy,omitempty"`
	ErrorHandling ErrorHandling     `json:"errorHandling,omitempty" yaml:"errorHandling,omitempty"`
	OutputMapping map[string]string `json:"outputDataMapping,omitempty" yaml:"outputDataMapping,omitempty"`
	Config        map[string]any    `json:"config,omitempty" yaml:"config,omitempty"`
}

// Definition is the reusable, validated template describing a set of
// tasks and their dependency/condition/retry rules. It is immutable
// once registered and may be shared freely across instances.
type Definition struct {
	ID    string           `json:"id" yaml:"id"`
	Name  string           `json:"name" yaml:"name"`
	Tasks []TaskDefinition `json:"tasks" yaml:"tasks"`
}

// TaskError records why a task attempt failed.
type TaskError struct {
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// TaskInstance is the runtime state of one task within an instance.
// Its ID equals the TaskDefinition ID; at most one live TaskInstance
// exists per task id per instance.
type TaskInstance struct {
	ID        string     `json:"id"`
	Status    TaskStatus `json:"status"`
	Attempts  int        `json:"attempts"`
	StartTime time.Time  `json:"startTime,omitzero"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	Error     *TaskError `json:"error,omitempty"`
	Result    any        `json:"result,omitempty"`
}

// AuditEntry is one record of the append-only per-instance audit log.
type AuditEntry struct {
	At      time.Time      `json:"at"`
	Event   EventType      `json:"event"`
	Details map[string]any `json:"details,omitempty"`
}

// Instance is one execution of a Definition. The engine mutates it
// exclusively through the scheduler and lifecycle operations; callers
// only ever see deep snapshots.
type Instance struct {
	ID           string `json:"id"`
	DefinitionID string `json:"definitionId"`
	Status       Status `json:"status"`

	// Data is the shared execution context, seeded from the initial
	// data passed to StartWorkflow and extended by output mappings.
	Data map[string]any `json:"data"`

	// CurrentTasks, CompletedTasks and FailedTasks are disjoint:
	// a task id appears in at most one of them.
	CurrentTasks   map[string]*TaskInstance `json:"currentTasks"`
	CompletedTasks map[string]*TaskInstance `json:"completedTasks"`
	FailedTasks    map[string]*TaskInstance `json:"failedTasks"`

	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`

	AuditLog []AuditEntry `json:"auditLog"`
}

// Clone returns a deep copy of the instance. Task results and audit
// details are copied with CloneValue, so JSON-shaped payloads are fully
// detached from the original.
func (in *Instance) Clone() *Instance {
	if in == nil {
		return nil
	}
	out := &Instance{
		ID:             in.ID,
		DefinitionID:   in.DefinitionID,
		Status:         in.Status,
		Data:           CloneData(in.Data),
		CurrentTasks:   cloneTasks(in.CurrentTasks),
		CompletedTasks: cloneTasks(in.CompletedTasks),
		FailedTasks:    cloneTasks(in.FailedTasks),
		StartTime:      in.StartTime,
	}
	if in.EndTime != nil {
		t := *in.EndTime
		out.EndTime = &t
	}
	if in.AuditLog != nil {
		out.AuditLog = make([]AuditEntry, len(in.AuditLog))
		for i, e := range in.AuditLog {
			out.AuditLog[i] = AuditEntry{At: e.At, Event: e.Event, Details: CloneData(e.Details)}
		}
	}
	return out
}

// Clone returns a deep copy of the task instance.
func (ti *TaskInstance) Clone() *TaskInstance {
	if ti == nil {
		return nil
	}
	out := *ti
	if ti.EndTime != nil {
		t := *ti.EndTime
		out.EndTime = &t
	}
	if ti.Error != nil {
		e := *ti.Error
		out.Error = &e
	}
	out.Result = CloneValue(ti.Result)
	return &out
}

func cloneTasks(m map[string]*TaskInstance) map[string]*TaskInstance {
	out := make(map[string]*TaskInstance, len(m))
	for id, ti := range m {
		out[id] = ti.Clone()
	}
	return out
}

// CloneData deep-copies a JSON-shaped data map (nested maps and slices
// are copied, scalars are shared by value).
func CloneData(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies a JSON-shaped value. Values that are neither
// maps nor slices are returned as-is.
func CloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return CloneData(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = CloneValue(e)
		}
		return out
	default:
		return v
	}
}

// InstanceListOptions controls how instances are listed.
// Zero values mean "no filter" for that field.
type InstanceListOptions struct {
	// DefinitionID, if non-empty, limits results to instances of the
	// given definition.
	DefinitionID string

	// Status, if non-empty, limits results to instances with the given
	// status.
	Status Status
}

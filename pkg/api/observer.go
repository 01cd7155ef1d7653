package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Observer receives callbacks from the workflow engine for logging and metrics.
//
// Implementations should be fast and non-blocking; heavy work should be done
// asynchronously so as not to delay workflow execution. The instance passed
// to a callback is the engine's live state and must not be retained.
type Observer interface {
	// OnWorkflowStart is called once when an instance is first started,
	// before any task is dispatched.
	OnWorkflowStart(ctx context.Context, inst *Instance)

	// OnWorkflowCompleted is called when an instance reaches StatusCompleted.
	OnWorkflowCompleted(ctx context.Context, inst *Instance)

	// OnWorkflowFailed is called when an instance transitions to StatusFailed.
	OnWorkflowFailed(ctx context.Context, inst *Instance, err error)

	// OnTaskStart is called before a task attempt is handed to its handler.
	// attempt is 1-based and includes the current attempt.
	OnTaskStart(ctx context.Context, inst *Instance, taskID string, attempt int)

	// OnTaskCompleted is called after a handler returns, for both
	// successes and failures (err != nil).
	OnTaskCompleted(ctx context.Context, inst *Instance, taskID string, attempt int, err error, duration time.Duration)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnWorkflowStart(ctx context.Context, inst *Instance)             {}
func (NoopObserver) OnWorkflowCompleted(ctx context.Context, inst *Instance)         {}
func (NoopObserver) OnWorkflowFailed(ctx context.Context, inst *Instance, err error) {}
func (NoopObserver) OnTaskStart(ctx context.Context, inst *Instance, taskID string, attempt int) {
}
func (NoopObserver) OnTaskCompleted(ctx context.Context, inst *Instance, taskID string, attempt int, err error, d time.Duration) {
}

// CompositeObserver fans out callbacks to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards callbacks to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnWorkflowStart(ctx context.Context, inst *Instance) {
	for _, o := range c.observers {
		o.OnWorkflowStart(ctx, inst)
	}
}

func (c *CompositeObserver) OnWorkflowCompleted(ctx context.Context, inst *Instance) {
	for _, o := range c.observers {
		o.OnWorkflowCompleted(ctx, inst)
	}
}

func (c *CompositeObserver) OnWorkflowFailed(ctx context.Context, inst *Instance, err error) {
	for _, o := range c.observers {
		o.OnWorkflowFailed(ctx, inst, err)
	}
}

func (c *CompositeObserver) OnTaskStart(ctx context.Context, inst *Instance, taskID string, attempt int) {
	for _, o := range c.observers {
		o.OnTaskStart(ctx, inst, taskID, attempt)
	}
}

func (c *CompositeObserver) OnTaskCompleted(ctx context.Context, inst *Instance, taskID string, attempt int, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnTaskCompleted(ctx, inst, taskID, attempt, err, d)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs workflow / task lifecycle
// events using the provided slog.Logger. If logger is nil, slog.Default()
// is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnWorkflowStart(ctx context.Context, inst *Instance) {
	o.Logger.InfoContext(ctx, "workflow_started",
		slog.String("definition_id", inst.DefinitionID),
		slog.String("instance_id", inst.ID),
	)
}

func (o *LoggingObserver) OnWorkflowCompleted(ctx context.Context, inst *Instance) {
	o.Logger.InfoContext(ctx, "workflow_completed",
		slog.String("definition_id", inst.DefinitionID),
		slog.String("instance_id", inst.ID),
		slog.Int("completed_tasks", len(inst.CompletedTasks)),
		slog.Int("failed_tasks", len(inst.FailedTasks)),
	)
}

func (o *LoggingObserver) OnWorkflowFailed(ctx context.Context, inst *Instance, err error) {
	o.Logger.ErrorContext(ctx, "workflow_failed",
		slog.String("definition_id", inst.DefinitionID),
		slog.String("instance_id", inst.ID),
		slog.Any("error", err),
	)
}

func (o *LoggingObserver) OnTaskStart(ctx context.Context, inst *Instance, taskID string, attempt int) {
	o.Logger.DebugContext(ctx, "task_started",
		slog.String("instance_id", inst.ID),
		slog.String("task", taskID),
		slog.Int("attempt", attempt),
	)
}

func (o *LoggingObserver) OnTaskCompleted(ctx context.Context, inst *Instance, taskID string, attempt int, err error, d time.Duration) {
	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelWarn
	}
	o.Logger.Log(ctx, level, "task_completed",
		slog.String("instance_id", inst.ID),
		slog.String("task", taskID),
		slog.Int("attempt", attempt),
		slog.Duration("duration", d),
		slog.Any("error", err),
	)
}

// BasicMetrics collects simple counters and aggregate task durations.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	workflowsStarted   atomic.Int64
	workflowsCompleted atomic.Int64
	workflowsFailed    atomic.Int64
	taskAttempts       atomic.Int64
	tasksCompleted     atomic.Int64
	totalTaskDuration  atomic.Int64 // nanoseconds
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	WorkflowsStarted   int64
	WorkflowsCompleted int64
	WorkflowsFailed    int64
	ActiveWorkflows    int64

	TaskAttempts    int64
	TasksCompleted  int64
	AvgTaskDuration time.Duration
}

func (m *BasicMetrics) OnWorkflowStart(ctx context.Context, inst *Instance) {
	m.workflowsStarted.Add(1)
}

func (m *BasicMetrics) OnWorkflowCompleted(ctx context.Context, inst *Instance) {
	m.workflowsCompleted.Add(1)
}

func (m *BasicMetrics) OnWorkflowFailed(ctx context.Context, inst *Instance, err error) {
	m.workflowsFailed.Add(1)
}

func (m *BasicMetrics) OnTaskStart(ctx context.Context, inst *Instance, taskID string, attempt int) {
	m.taskAttempts.Add(1)
}

func (m *BasicMetrics) OnTaskCompleted(ctx context.Context, inst *Instance, taskID string, attempt int, err error, d time.Duration) {
	// Only successful attempts count toward the average duration.
	if err == nil {
		m.tasksCompleted.Add(1)
		m.totalTaskDuration.Add(d.Nanoseconds())
	}
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	started := m.workflowsStarted.Load()
	completed := m.workflowsCompleted.Load()
	failed := m.workflowsFailed.Load()
	tasks := m.tasksCompleted.Load()
	totalNs := m.totalTaskDuration.Load()

	var avg time.Duration
	if tasks > 0 {
		avg = time.Duration(totalNs / tasks)
	}

	return BasicMetricsSnapshot{
		WorkflowsStarted:   started,
		WorkflowsCompleted: completed,
		WorkflowsFailed:    failed,
		ActiveWorkflows:    started - completed - failed,
		TaskAttempts:       m.taskAttempts.Load(),
		TasksCompleted:     tasks,
		AvgTaskDuration:    avg,
	}
}

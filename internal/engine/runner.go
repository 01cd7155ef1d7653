package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/avelin/dagflow/internal/expr"
	"github.com/avelin/dagflow/internal/graph"
	"github.com/avelin/dagflow/pkg/api"
)

// runner owns the execution of exactly one instance. A single mutex
// serializes every mutation of the instance, so all bookkeeping
// (moving tasks between collections, appending to the audit log,
// advancing the frontier) is atomic with respect to the rest.
//
// Handlers run on their own goroutines, outside the lock, against a
// deep snapshot of the data context.
type runner struct {
	eng *engineImpl
	def api.Definition

	tasks      map[string]api.TaskDefinition
	dependents map[string][]string

	mu   sync.Mutex
	inst *api.Instance

	// satisfied marks task ids whose dependents may proceed: completed,
	// skipped, or failed under errorHandling continue.
	satisfied map[string]bool

	// seen marks task ids that have been queued or skipped, so a task
	// is discovered at most once.
	seen map[string]bool

	timers map[string]*time.Timer

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func newRunner(ctx context.Context, eng *engineImpl, def api.Definition, inst *api.Instance) *runner {
	rctx, cancel := context.WithCancel(ctx)
	return &runner{
		eng:        eng,
		def:        def,
		tasks:      graph.Index(def),
		dependents: graph.Dependents(def),
		inst:       inst,
		satisfied:  make(map[string]bool),
		seen:       make(map[string]bool),
		timers:     make(map[string]*time.Timer),
		ctx:        rctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// start queues the initial frontier: every task with no dependencies.
func (r *runner) start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.emit(api.Event{Type: api.EventWorkflowStarted})
	r.eng.observer.OnWorkflowStart(r.ctx, r.inst)

	for _, id := range graph.StartTasks(r.def) {
		r.consider(id)
	}
	r.persist()
	r.checkCompletion()
}

// consider discovers a task whose dependencies are all satisfied.
// Its conditions decide between queueing and skipping; a skipped task
// satisfies its dependents exactly as a completed one would, but never
// joins completedTasks.
func (r *runner) consider(id string) {
	if r.seen[id] {
		return
	}
	r.seen[id] = true

	t := r.tasks[id]
	if len(t.Conditions) > 0 && !expr.EvaluateAll(t.Conditions, r.inst.Data) {
		r.satisfied[id] = true
		r.emit(api.Event{Type: api.EventTaskSkipped, TaskID: id})
		r.advance(id)
		return
	}

	ti := &api.TaskInstance{ID: id, Status: api.TaskQueued}
	r.inst.CurrentTasks[id] = ti
	r.emit(api.Event{Type: api.EventTaskQueued, TaskID: id, TaskStatus: api.TaskQueued})

	if r.inst.Status == api.StatusRunning {
		r.dispatch(ti)
	}
}

// advance re-scans the dependents of a finished (or skipped) task for
// readiness.
func (r *runner) advance(id string) {
	for _, dep := range r.dependents[id] {
		if r.seen[dep] {
			continue
		}
		if r.ready(dep) {
			r.consider(dep)
		}
	}
}

func (r *runner) ready(id string) bool {
	for _, dep := range r.tasks[id].DependsOn {
		if !r.satisfied[dep] {
			return false
		}
	}
	return true
}

// dispatch hands a queued task to its handler on a fresh goroutine.
// Caller holds the lock.
func (r *runner) dispatch(ti *api.TaskInstance) {
	ti.Status = api.TaskRunning
	ti.Attempts++
	if ti.StartTime.IsZero() {
		ti.StartTime = time.Now()
	}

	r.emit(api.Event{
		Type:       api.EventTaskStarted,
		TaskID:     ti.ID,
		TaskStatus: api.TaskRunning,
		Attempts:   ti.Attempts,
	})
	r.eng.observer.OnTaskStart(r.ctx, r.inst, ti.ID, ti.Attempts)

	data := api.CloneData(r.inst.Data)
	go r.execute(ti.ID, ti.Attempts, data)
}

// execute runs one attempt without holding the lock.
func (r *runner) execute(taskID string, attempt int, data map[string]any) {
	t := r.tasks[taskID]
	started := time.Now()

	var (
		result any
		err    error
	)
	h, ok := r.eng.registry.Get(t.Type)
	if !ok {
		err = &api.UnsupportedTaskTypeError{Type: t.Type}
	} else {
		result, err = safeInvoke(r.ctx, h, api.TaskInput{
			InstanceID: r.inst.ID,
			TaskID:     taskID,
			Type:       t.Type,
			Attempt:    attempt,
			Config:     t.Config,
			Data:       data,
		})
	}

	r.settle(taskID, attempt, result, err, time.Since(started), !ok)
}

// safeInvoke converts a handler panic into an ordinary task error so a
// misbehaving handler cannot take down the engine.
func safeInvoke(ctx context.Context, h api.Handler, in api.TaskInput) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("handler panic: %v", rec)
		}
	}()
	return h(ctx, in)
}

// settle records the outcome of one attempt. Late results against a
// terminal instance, or against a task that is no longer on this
// attempt, are discarded.
func (r *runner) settle(taskID string, attempt int, result any, err error, dur time.Duration, unsupported bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.inst.Status.Terminal() {
		return
	}
	ti := r.inst.CurrentTasks[taskID]
	if ti == nil || ti.Status != api.TaskRunning || ti.Attempts != attempt {
		return
	}

	r.eng.observer.OnTaskCompleted(r.ctx, r.inst, taskID, attempt, err, dur)

	if err == nil {
		r.succeed(ti, result)
	} else {
		r.handleFailure(ti, api.NewTaskExecutionError(taskID, err), unsupported)
	}
	r.persist()
}

func (r *runner) succeed(ti *api.TaskInstance, result any) {
	now := time.Now()
	ti.Status = api.TaskCompleted
	ti.EndTime = &now
	ti.Result = result
	ti.Error = nil

	t := r.tasks[ti.ID]
	expr.ApplyOutputMapping(t.OutputMapping, result, r.inst.Data)

	delete(r.inst.CurrentTasks, ti.ID)
	r.inst.CompletedTasks[ti.ID] = ti

	r.emit(api.Event{
		Type:       api.EventTaskCompleted,
		TaskID:     ti.ID,
		TaskStatus: api.TaskCompleted,
		Attempts:   ti.Attempts,
		Result:     result,
	})

	r.satisfied[ti.ID] = true
	r.advance(ti.ID)
	r.checkCompletion()
}

// handleFailure applies the retry policy, then the task's error
// handling. unsupported failures skip retries: a missing handler
// registration cannot heal between attempts.
func (r *runner) handleFailure(ti *api.TaskInstance, terr *api.TaskExecutionError, unsupported bool) {
	ti.Error = &api.TaskError{Message: terr.Cause.Error(), At: terr.At}

	r.emit(api.Event{
		Type:       api.EventTaskError,
		TaskID:     ti.ID,
		TaskStatus: ti.Status,
		Attempts:   ti.Attempts,
		Err:        ti.Error.Message,
	})

	t := r.tasks[ti.ID]
	maxAttempts := t.Retry.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	if !unsupported && ti.Attempts < maxAttempts {
		ti.Status = api.TaskRetry
		r.emit(api.Event{
			Type:       api.EventTaskRetryScheduled,
			TaskID:     ti.ID,
			TaskStatus: api.TaskRetry,
			Attempts:   ti.Attempts,
			Err:        ti.Error.Message,
		})
		id := ti.ID
		r.timers[id] = time.AfterFunc(t.Retry.Delay, func() {
			r.requeue(id)
		})
		return
	}

	now := time.Now()
	ti.Status = api.TaskFailed
	ti.EndTime = &now
	delete(r.inst.CurrentTasks, ti.ID)
	r.inst.FailedTasks[ti.ID] = ti

	r.emit(api.Event{
		Type:       api.EventTaskFailed,
		TaskID:     ti.ID,
		TaskStatus: api.TaskFailed,
		Attempts:   ti.Attempts,
		Err:        ti.Error.Message,
	})

	if t.ErrorHandling == api.ErrorContinue {
		// The failed task still unblocks its dependents; the workflow
		// can complete with a non-empty failedTasks.
		r.satisfied[ti.ID] = true
		r.advance(ti.ID)
		r.checkCompletion()
		return
	}

	r.failInstance(ti.Error.Message)
}

// requeue fires when a retry delay elapses. The instance status is
// re-checked so a cancelled or failed workflow cannot resurrect work;
// under pause the task parks in queued until resume.
func (r *runner) requeue(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.timers, id)
	if r.inst.Status.Terminal() {
		return
	}
	ti := r.inst.CurrentTasks[id]
	if ti == nil || ti.Status != api.TaskRetry {
		return
	}

	ti.Status = api.TaskQueued
	if r.inst.Status == api.StatusRunning {
		r.dispatch(ti)
	}
	r.persist()
}

func (r *runner) checkCompletion() {
	if r.inst.Status != api.StatusRunning || len(r.inst.CurrentTasks) > 0 {
		return
	}
	now := time.Now()
	r.inst.Status = api.StatusCompleted
	r.inst.EndTime = &now

	r.emit(api.Event{Type: api.EventWorkflowCompleted})
	r.eng.observer.OnWorkflowCompleted(r.ctx, r.inst)
	r.persist()
	r.finish()
}

func (r *runner) failInstance(msg string) {
	now := time.Now()
	r.inst.Status = api.StatusFailed
	r.inst.EndTime = &now
	r.stopTimers()

	r.emit(api.Event{Type: api.EventWorkflowFailed, Err: msg})
	r.eng.observer.OnWorkflowFailed(r.ctx, r.inst, fmt.Errorf("%s", msg))
	r.persist()
	r.finish()
}

func (r *runner) pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.inst.Status != api.StatusRunning {
		return &api.InvalidStateTransitionError{ID: r.inst.ID, From: r.inst.Status, Op: "pause"}
	}
	r.inst.Status = api.StatusPaused
	r.emit(api.Event{Type: api.EventWorkflowPaused})
	r.persist()
	return nil
}

func (r *runner) resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.inst.Status != api.StatusPaused {
		return &api.InvalidStateTransitionError{ID: r.inst.ID, From: r.inst.Status, Op: "resume"}
	}
	r.inst.Status = api.StatusRunning
	r.emit(api.Event{Type: api.EventWorkflowResumed})

	// Re-dispatch everything left queued while paused, including retry
	// tasks whose timer fired during the pause.
	for _, id := range r.currentTaskIDs() {
		if ti := r.inst.CurrentTasks[id]; ti.Status == api.TaskQueued {
			r.dispatch(ti)
		}
	}
	r.persist()
	r.checkCompletion()
	return nil
}

func (r *runner) cancelInstance() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.inst.Status.Terminal() {
		return &api.InvalidStateTransitionError{ID: r.inst.ID, From: r.inst.Status, Op: "cancel"}
	}
	now := time.Now()
	r.inst.Status = api.StatusCancelled
	r.inst.EndTime = &now
	r.stopTimers()

	for _, id := range r.currentTaskIDs() {
		ti := r.inst.CurrentTasks[id]
		ti.Status = api.TaskCancelled
		ti.EndTime = &now
		r.emit(api.Event{
			Type:       api.EventTaskCancelled,
			TaskID:     id,
			TaskStatus: api.TaskCancelled,
			Attempts:   ti.Attempts,
		})
	}

	r.emit(api.Event{Type: api.EventWorkflowCancelled})
	r.persist()
	r.finish()
	return nil
}

// finish seals a terminal instance: in-flight handler contexts are
// cancelled and waiters are released.
func (r *runner) finish() {
	r.cancel()
	close(r.done)
}

func (r *runner) stopTimers() {
	for id, timer := range r.timers {
		timer.Stop()
		delete(r.timers, id)
	}
}

func (r *runner) currentTaskIDs() []string {
	ids := make([]string, 0, len(r.inst.CurrentTasks))
	for id := range r.inst.CurrentTasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *runner) snapshot() *api.Instance {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inst.Clone()
}

// emit stamps and publishes an event and appends it to the audit log.
// Caller holds the lock, so audit order equals delivery order.
func (r *runner) emit(ev api.Event) {
	ev.At = time.Now()
	ev.InstanceID = r.inst.ID
	ev.DefinitionID = r.inst.DefinitionID
	ev.Status = r.inst.Status

	details := map[string]any{}
	if ev.TaskID != "" {
		details["taskId"] = ev.TaskID
	}
	if ev.TaskStatus != "" {
		details["taskStatus"] = string(ev.TaskStatus)
	}
	if ev.Attempts > 0 {
		details["attempts"] = ev.Attempts
	}
	if ev.Err != "" {
		details["error"] = ev.Err
	}
	r.inst.AuditLog = append(r.inst.AuditLog, api.AuditEntry{
		At:      ev.At,
		Event:   ev.Type,
		Details: details,
	})

	r.eng.publish(ev)
}

// persist writes a best-effort snapshot; storage failures must not
// stall execution.
func (r *runner) persist() {
	_ = r.eng.instances.UpdateInstance(r.inst.Clone())
}

package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/avelin/dagflow/pkg/api"
)

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	eng := NewInMemoryEngine()

	var calls atomic.Int32
	mustHandler(t, eng, "flaky", func(_ context.Context, in api.TaskInput) (any, error) {
		if n := calls.Add(1); n < 3 {
			return nil, errors.New("transient")
		}
		if in.Attempt != 3 {
			return nil, errors.New("attempt not threaded through input")
		}
		return "ok", nil
	})

	defID := mustRegister(t, eng, api.Definition{
		Name: "retry",
		Tasks: []api.TaskDefinition{{
			ID:    "a",
			Type:  "flaky",
			Retry: api.RetryStrategy{MaxAttempts: 3, Delay: 10 * time.Millisecond},
		}},
	})

	log := &eventLog{}
	defer eng.Subscribe(log.record)()

	inst := waitFor(t, eng, mustStart(t, eng, defID, nil))

	if inst.Status != api.StatusCompleted {
		t.Fatalf("expected completed, got %s", inst.Status)
	}
	ti := inst.CompletedTasks["a"]
	if ti == nil {
		t.Fatal("task a not in completedTasks")
	}
	if ti.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", ti.Attempts)
	}
	if ti.Result != "ok" {
		t.Fatalf("unexpected result %v", ti.Result)
	}

	assertEventTypes(t, log.types(),
		api.EventWorkflowStarted,
		api.EventTaskQueued,
		api.EventTaskStarted,
		api.EventTaskError,
		api.EventTaskRetryScheduled,
		api.EventTaskStarted,
		api.EventTaskError,
		api.EventTaskRetryScheduled,
		api.EventTaskStarted,
		api.EventTaskCompleted,
		api.EventWorkflowCompleted,
	)
}

func TestRetry_ExhaustedAttemptsFailTask(t *testing.T) {
	eng := NewInMemoryEngine()
	mustHandler(t, eng, "broken", func(_ context.Context, _ api.TaskInput) (any, error) {
		return nil, errors.New("permanent")
	})

	defID := mustRegister(t, eng, api.Definition{
		Name: "exhausted",
		Tasks: []api.TaskDefinition{{
			ID:    "a",
			Type:  "broken",
			Retry: api.RetryStrategy{MaxAttempts: 2, Delay: 5 * time.Millisecond},
		}},
	})

	log := &eventLog{}
	defer eng.Subscribe(log.record)()

	inst := waitFor(t, eng, mustStart(t, eng, defID, nil))

	if inst.Status != api.StatusFailed {
		t.Fatalf("expected failed, got %s", inst.Status)
	}
	ti := inst.FailedTasks["a"]
	if ti == nil {
		t.Fatal("task a not in failedTasks")
	}
	if ti.Attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", ti.Attempts)
	}
	if ti.Error == nil || ti.Error.Message != "permanent" {
		t.Fatalf("unexpected task error %+v", ti.Error)
	}
	if inst.EndTime == nil {
		t.Fatal("endTime not set on failed instance")
	}

	if n := log.count(api.EventTaskRetryScheduled); n != 1 {
		t.Fatalf("expected 1 retry_scheduled event, got %d", n)
	}
	if n := log.count(api.EventTaskFailed); n != 1 {
		t.Fatalf("expected 1 task_failed event, got %d", n)
	}
	if n := log.count(api.EventWorkflowFailed); n != 1 {
		t.Fatalf("expected 1 workflow_failed event, got %d", n)
	}
}

// Zero retry configuration means exactly one attempt.
func TestRetry_DefaultSingleAttempt(t *testing.T) {
	eng := NewInMemoryEngine()

	var calls atomic.Int32
	mustHandler(t, eng, "broken", func(_ context.Context, _ api.TaskInput) (any, error) {
		calls.Add(1)
		return nil, errors.New("boom")
	})

	defID := mustRegister(t, eng, linearDef("once", "broken", "a"))
	inst := waitFor(t, eng, mustStart(t, eng, defID, nil))

	if inst.Status != api.StatusFailed {
		t.Fatalf("expected failed, got %s", inst.Status)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single attempt, got %d", calls.Load())
	}
}

// A missing handler registration cannot heal between attempts, so the
// retry policy is not applied.
func TestRetry_UnsupportedTypeNotRetried(t *testing.T) {
	eng := NewInMemoryEngine()

	defID := mustRegister(t, eng, api.Definition{
		Name: "unregistered",
		Tasks: []api.TaskDefinition{{
			ID:    "a",
			Type:  "nobody-registered-this",
			Retry: api.RetryStrategy{MaxAttempts: 5, Delay: time.Millisecond},
		}},
	})

	log := &eventLog{}
	defer eng.Subscribe(log.record)()

	inst := waitFor(t, eng, mustStart(t, eng, defID, nil))

	if inst.Status != api.StatusFailed {
		t.Fatalf("expected failed, got %s", inst.Status)
	}
	if n := log.count(api.EventTaskRetryScheduled); n != 0 {
		t.Fatalf("unsupported type was retried %d times", n)
	}
	ti := inst.FailedTasks["a"]
	if ti == nil || ti.Attempts != 1 {
		t.Fatalf("expected single failed attempt, got %+v", ti)
	}
}

func TestHandlerPanic_BecomesTaskError(t *testing.T) {
	eng := NewInMemoryEngine()
	mustHandler(t, eng, "panics", func(_ context.Context, _ api.TaskInput) (any, error) {
		panic("kaboom")
	})

	defID := mustRegister(t, eng, linearDef("panic", "panics", "a"))
	inst := waitFor(t, eng, mustStart(t, eng, defID, nil))

	if inst.Status != api.StatusFailed {
		t.Fatalf("expected failed, got %s", inst.Status)
	}
	ti := inst.FailedTasks["a"]
	if ti == nil || ti.Error == nil {
		t.Fatal("expected failed task with error")
	}
	if want := "handler panic: kaboom"; ti.Error.Message != want {
		t.Fatalf("error message %q, want %q", ti.Error.Message, want)
	}
}

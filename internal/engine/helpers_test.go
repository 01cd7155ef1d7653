package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/avelin/dagflow/pkg/api"
)

// eventLog collects published events for assertions. Delivery is
// synchronous, so by the time WaitForInstance returns the log holds
// every event of the run.
type eventLog struct {
	mu     sync.Mutex
	events []api.Event
}

func (l *eventLog) record(ev api.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) list() []api.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]api.Event(nil), l.events...)
}

func (l *eventLog) types() []api.EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]api.EventType, len(l.events))
	for i, ev := range l.events {
		out[i] = ev.Type
	}
	return out
}

func (l *eventLog) count(typ api.EventType) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, ev := range l.events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func assertEventTypes(t *testing.T, got []api.EventType, want ...api.EventType) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("event count mismatch: got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: got %s, want %s (full sequence %v)", i, got[i], want[i], got)
		}
	}
}

func noopHandler(_ context.Context, _ api.TaskInput) (any, error) {
	return nil, nil
}

func mustRegister(t *testing.T, eng api.Engine, def api.Definition) string {
	t.Helper()
	id, err := eng.RegisterWorkflow(def)
	if err != nil {
		t.Fatalf("RegisterWorkflow failed: %v", err)
	}
	return id
}

func mustHandler(t *testing.T, eng api.Engine, taskType string, h api.Handler) {
	t.Helper()
	if err := eng.RegisterHandler(taskType, h); err != nil {
		t.Fatalf("RegisterHandler(%s) failed: %v", taskType, err)
	}
}

func mustStart(t *testing.T, eng api.Engine, defID string, data map[string]any) string {
	t.Helper()
	id, err := eng.StartWorkflow(context.Background(), defID, data)
	if err != nil {
		t.Fatalf("StartWorkflow failed: %v", err)
	}
	return id
}

func waitFor(t *testing.T, eng api.Engine, id string) *api.Instance {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	inst, err := eng.WaitForInstance(ctx, id)
	if err != nil {
		t.Fatalf("WaitForInstance(%s) failed: %v", id, err)
	}
	return inst
}

package api

import (
	"testing"
	"time"
)

func TestInstanceClone_IsDeep(t *testing.T) {
	end := time.Now()
	in := &Instance{
		ID:     "inst-1",
		Status: StatusRunning,
		Data: map[string]any{
			"order": map[string]any{"items": []any{"a", "b"}},
		},
		CurrentTasks: map[string]*TaskInstance{
			"t1": {ID: "t1", Status: TaskRunning, Attempts: 1, Result: map[string]any{"n": 1.0}},
		},
		CompletedTasks: map[string]*TaskInstance{},
		FailedTasks: map[string]*TaskInstance{
			"t0": {ID: "t0", Status: TaskFailed, EndTime: &end, Error: &TaskError{Message: "boom"}},
		},
		AuditLog: []AuditEntry{
			{Event: EventWorkflowStarted, Details: map[string]any{"k": "v"}},
		},
	}

	out := in.Clone()

	out.Data["order"].(map[string]any)["items"].([]any)[0] = "mutated"
	out.CurrentTasks["t1"].Attempts = 99
	out.CurrentTasks["t1"].Result.(map[string]any)["n"] = -1.0
	out.FailedTasks["t0"].Error.Message = "changed"
	*out.FailedTasks["t0"].EndTime = end.Add(time.Hour)
	out.AuditLog[0].Details["k"] = "w"

	if got := in.Data["order"].(map[string]any)["items"].([]any)[0]; got != "a" {
		t.Fatalf("data aliased through clone: %v", got)
	}
	if in.CurrentTasks["t1"].Attempts != 1 {
		t.Fatal("task instance aliased through clone")
	}
	if got := in.CurrentTasks["t1"].Result.(map[string]any)["n"]; got != 1.0 {
		t.Fatalf("task result aliased through clone: %v", got)
	}
	if in.FailedTasks["t0"].Error.Message != "boom" {
		t.Fatal("task error aliased through clone")
	}
	if !in.FailedTasks["t0"].EndTime.Equal(end) {
		t.Fatal("end time aliased through clone")
	}
	if in.AuditLog[0].Details["k"] != "v" {
		t.Fatal("audit details aliased through clone")
	}
}

func TestCloneNil(t *testing.T) {
	var in *Instance
	if in.Clone() != nil {
		t.Fatal("nil instance clone should be nil")
	}
	var ti *TaskInstance
	if ti.Clone() != nil {
		t.Fatal("nil task instance clone should be nil")
	}
	if CloneData(nil) != nil {
		t.Fatal("nil data clone should be nil")
	}
}

package dagflow

import (
	"context"
	"testing"
	"time"
)

func TestLoadDefinition(t *testing.T) {
	def, err := LoadDefinition([]byte(`
id: wf-orders
name: order-fulfilment
tasks:
  - id: assess
    type: data_transformation
    config:
      transformations:
        - type: reduce
          source: "$.order.items"
          target: total
          operation: sum
  - id: charge
    type: external_api
    dependsOn: [assess]
    conditions:
      - left: "$.total"
        operator: gt
        right: 0
    retryStrategy:
      maxAttempts: 3
      delay: 250ms
    errorHandling: continue
    outputDataMapping:
      payment.status: body.status
`))
	if err != nil {
		t.Fatalf("LoadDefinition failed: %v", err)
	}

	if def.ID != "wf-orders" || def.Name != "order-fulfilment" {
		t.Fatalf("unexpected header: %+v", def)
	}
	if len(def.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(def.Tasks))
	}

	charge := def.Tasks[1]
	if charge.Type != "external_api" {
		t.Fatalf("unexpected type %q", charge.Type)
	}
	if len(charge.DependsOn) != 1 || charge.DependsOn[0] != "assess" {
		t.Fatalf("dependsOn not parsed: %v", charge.DependsOn)
	}
	if len(charge.Conditions) != 1 || charge.Conditions[0].Operator != "gt" {
		t.Fatalf("conditions not parsed: %v", charge.Conditions)
	}
	if charge.Retry.MaxAttempts != 3 || charge.Retry.Delay != 250*time.Millisecond {
		t.Fatalf("retry not parsed: %+v", charge.Retry)
	}
	if charge.ErrorHandling != ErrorContinue {
		t.Fatalf("errorHandling not parsed: %q", charge.ErrorHandling)
	}
	if charge.OutputMapping["payment.status"] != "body.status" {
		t.Fatalf("output mapping not parsed: %v", charge.OutputMapping)
	}
}

func TestLoadDefinition_Errors(t *testing.T) {
	if _, err := LoadDefinition([]byte("tasks: [")); err == nil {
		t.Fatal("expected error for malformed YAML")
	}

	_, err := LoadDefinition([]byte(`
name: bad-delay
tasks:
  - id: a
    type: noop
    retryStrategy:
      maxAttempts: 2
      delay: soon
`))
	if err == nil {
		t.Fatal("expected error for unparseable retry delay")
	}
}

// A loaded definition runs end to end like a hand-built one.
func TestLoadDefinition_Runs(t *testing.T) {
	def, err := LoadDefinition([]byte(`
name: loaded
tasks:
  - id: a
    type: noop
  - id: b
    type: noop
    dependsOn: [a]
`))
	if err != nil {
		t.Fatalf("LoadDefinition failed: %v", err)
	}

	eng := NewInMemoryEngine()
	if err := eng.RegisterHandler("noop", func(ctx context.Context, in TaskInput) (any, error) {
		return nil, nil
	}); err != nil {
		t.Fatalf("RegisterHandler failed: %v", err)
	}

	defID, err := eng.RegisterWorkflow(def)
	if err != nil {
		t.Fatalf("RegisterWorkflow failed: %v", err)
	}

	inst, err := Run(context.Background(), eng, defID, nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if inst.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", inst.Status)
	}
	if len(inst.CompletedTasks) != 2 {
		t.Fatalf("expected 2 completed tasks, got %d", len(inst.CompletedTasks))
	}
}

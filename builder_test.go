package dagflow

import (
	"testing"
	"time"
)

func TestDefinitionBuilder(t *testing.T) {
	def := NewDefinition("order-fulfilment").
		ID("wf-orders").
		Task("reserve", "external_api",
			WithConfig(map[string]any{"endpoint": "https://inventory/reserve"}),
			MapOutput("reservation.id", "body.id"),
		).
		Task("notify", "notification",
			DependsOn("reserve"),
			When("$.order.notify", "eq", true),
			WithRetry(Retry(3).WithDelay(50*time.Millisecond).Strategy()),
			OnError(ErrorContinue),
		).
		Build()

	if def.ID != "wf-orders" || def.Name != "order-fulfilment" {
		t.Fatalf("unexpected definition header: %+v", def)
	}
	if len(def.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(def.Tasks))
	}

	reserve := def.Tasks[0]
	if reserve.Type != "external_api" {
		t.Fatalf("unexpected type %q", reserve.Type)
	}
	if reserve.OutputMapping["reservation.id"] != "body.id" {
		t.Fatalf("output mapping not recorded: %v", reserve.OutputMapping)
	}
	if reserve.Config["endpoint"] != "https://inventory/reserve" {
		t.Fatalf("config not recorded: %v", reserve.Config)
	}

	notify := def.Tasks[1]
	if len(notify.DependsOn) != 1 || notify.DependsOn[0] != "reserve" {
		t.Fatalf("dependencies not recorded: %v", notify.DependsOn)
	}
	if len(notify.Conditions) != 1 || notify.Conditions[0].Operator != "eq" {
		t.Fatalf("conditions not recorded: %v", notify.Conditions)
	}
	if notify.Retry.MaxAttempts != 3 || notify.Retry.Delay != 50*time.Millisecond {
		t.Fatalf("retry not recorded: %+v", notify.Retry)
	}
	if notify.ErrorHandling != ErrorContinue {
		t.Fatalf("error handling not recorded: %q", notify.ErrorHandling)
	}
}

func TestDefinitionBuilder_PanicsOnMissingID(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for empty task id")
		}
	}()
	NewDefinition("broken").Task("", "noop")
}

func TestDefinitionBuilder_Register(t *testing.T) {
	eng := NewInMemoryEngine()

	id, err := NewDefinition("registered").
		Task("a", "noop").
		Register(eng)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected a definition id")
	}

	// Registering the same explicit id twice must fail through the
	// builder as well.
	if _, err := NewDefinition("dup").ID(id).Task("a", "noop").Register(eng); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestRetryBuilder(t *testing.T) {
	s := Retry(5).WithDelay(time.Second).Strategy()
	if s.MaxAttempts != 5 || s.Delay != time.Second {
		t.Fatalf("unexpected strategy %+v", s)
	}

	if got := Retry(0).Strategy().MaxAttempts; got != 1 {
		t.Fatalf("non-positive maxAttempts should clamp to 1, got %d", got)
	}

	if got := Retry(2).WithDelay(time.Minute).Immediate().Strategy().Delay; got != 0 {
		t.Fatalf("Immediate should clear delay, got %v", got)
	}
}

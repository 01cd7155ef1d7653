package dagflow

import (
	"fmt"

	"github.com/avelin/dagflow/pkg/api"
)

// DefinitionBuilder provides a fluent API for defining task graphs:
//
//	def := dagflow.NewDefinition("order-fulfilment").
//	    Task("reserve", "external_api").
//	    Task("notify", "notification",
//	        dagflow.DependsOn("reserve"),
//	        dagflow.When("$.order.notify", "eq", true),
//	    ).
//	    Build()
//
//	id, err := eng.RegisterWorkflow(def)
type DefinitionBuilder struct {
	def api.Definition
}

// TaskOption configures one task in the graph.
type TaskOption func(*api.TaskDefinition)

// NewDefinition creates a new definition builder with the given name.
func NewDefinition(name string) *DefinitionBuilder {
	return &DefinitionBuilder{
		def: api.Definition{
			Name:  name,
			Tasks: make([]api.TaskDefinition, 0),
		},
	}
}

// ID sets an explicit definition id. When omitted, registration
// assigns one.
func (b *DefinitionBuilder) ID(id string) *DefinitionBuilder {
	b.def.ID = id
	return b
}

// Task appends a task to the graph.
func (b *DefinitionBuilder) Task(id, taskType string, opts ...TaskOption) *DefinitionBuilder {
	if id == "" {
		panic("dagflow: task id must not be empty")
	}
	if taskType == "" {
		panic(fmt.Sprintf("dagflow: task %q has no type", id))
	}

	t := api.TaskDefinition{ID: id, Type: taskType}
	for _, opt := range opts {
		opt(&t)
	}
	b.def.Tasks = append(b.def.Tasks, t)
	return b
}

// DependsOn declares dependencies on other task ids.
func DependsOn(ids ...string) TaskOption {
	return func(t *api.TaskDefinition) {
		t.DependsOn = append(t.DependsOn, ids...)
	}
}

// When adds a condition; the task is skipped unless every condition
// holds against the instance data at discovery time.
func When(left any, op Operator, right any) TaskOption {
	return func(t *api.TaskDefinition) {
		t.Conditions = append(t.Conditions, api.Condition{Left: left, Operator: op, Right: right})
	}
}

// WithRetry sets the task's retry strategy.
func WithRetry(rs RetryStrategy) TaskOption {
	return func(t *api.TaskDefinition) {
		t.Retry = rs
	}
}

// OnError sets the task's error handling policy.
func OnError(eh ErrorHandling) TaskOption {
	return func(t *api.TaskDefinition) {
		t.ErrorHandling = eh
	}
}

// MapOutput copies the value at source (a path within the task result)
// to target (a path within the instance data) when the task completes.
func MapOutput(target, source string) TaskOption {
	return func(t *api.TaskDefinition) {
		if t.OutputMapping == nil {
			t.OutputMapping = make(map[string]string)
		}
		t.OutputMapping[target] = source
	}
}

// WithConfig sets handler-specific parameters.
func WithConfig(config map[string]any) TaskOption {
	return func(t *api.TaskDefinition) {
		t.Config = config
	}
}

// Name returns the definition name.
func (b *DefinitionBuilder) Name() string {
	return b.def.Name
}

// Build returns the underlying Definition.
func (b *DefinitionBuilder) Build() Definition {
	return b.def
}

// Register registers the built definition with the given engine.
func (b *DefinitionBuilder) Register(eng Engine) (string, error) {
	return eng.RegisterWorkflow(b.def)
}

// MustRegister is like Register but panics on error.
// Useful for initialization in main().
func (b *DefinitionBuilder) MustRegister(eng Engine) string {
	id, err := b.Register(eng)
	if err != nil {
		panic(err)
	}
	return id
}

// Package graph holds the structural side of a workflow definition:
// registration-time validation and the dependency indexes the scheduler
// advances over.
package graph

import "github.com/avelin/dagflow/pkg/api"

// Index returns task definitions keyed by id.
func Index(def api.Definition) map[string]api.TaskDefinition {
	out := make(map[string]api.TaskDefinition, len(def.Tasks))
	for _, t := range def.Tasks {
		out[t.ID] = t
	}
	return out
}

// StartTasks returns the ids of tasks with no dependencies, in
// definition order. Validation guarantees this is non-empty for any
// registered definition.
func StartTasks(def api.Definition) []string {
	var out []string
	for _, t := range def.Tasks {
		if len(t.DependsOn) == 0 {
			out = append(out, t.ID)
		}
	}
	return out
}

// Dependents returns the reverse adjacency of the dependency graph:
// task id -> ids of tasks that depend on it, in definition order.
func Dependents(def api.Definition) map[string][]string {
	out := make(map[string][]string)
	for _, t := range def.Tasks {
		for _, dep := range t.DependsOn {
			out[dep] = append(out[dep], t.ID)
		}
	}
	return out
}

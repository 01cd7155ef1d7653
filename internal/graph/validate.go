package graph

import (
	"strings"

	"github.com/avelin/dagflow/pkg/api"
)

// Validate checks a definition before registration. Checks run in
// order: name present, at least one task, unique task ids, resolvable
// dependsOn references, no dependency cycle. Any violation returns a
// *api.DefinitionError.
func Validate(def api.Definition) error {
	if def.Name == "" {
		return api.NewDefinitionError("name is required")
	}
	if len(def.Tasks) == 0 {
		return api.NewDefinitionError("at least one task is required")
	}

	tasks := make(map[string]api.TaskDefinition, len(def.Tasks))
	for _, t := range def.Tasks {
		if t.ID == "" {
			return api.NewDefinitionError("task id is required")
		}
		if _, dup := tasks[t.ID]; dup {
			return api.NewDefinitionError("duplicate task id %q", t.ID)
		}
		tasks[t.ID] = t
	}

	for _, t := range def.Tasks {
		for _, dep := range t.DependsOn {
			if _, ok := tasks[dep]; !ok {
				return api.NewDefinitionError("task %q depends on unknown task %q", t.ID, dep)
			}
		}
	}

	if cycle := findCycle(def.Tasks, tasks); cycle != nil {
		return api.NewDefinitionError("dependency cycle: %s", strings.Join(cycle, " -> "))
	}
	return nil
}

// findCycle runs a depth-first traversal over dependsOn edges with an
// explicit recursion stack; an edge back into the active stack is a
// cycle. Returns one cycle path as a witness, or nil.
func findCycle(order []api.TaskDefinition, tasks map[string]api.TaskDefinition) []string {
	const (
		white = iota // unvisited
		gray         // on the recursion stack
		black        // fully explored
	)

	color := make(map[string]int, len(tasks))
	var stack []string
	var cycle []string

	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = gray
		stack = append(stack, id)
		for _, dep := range tasks[id].DependsOn {
			switch color[dep] {
			case white:
				if visit(dep) {
					return true
				}
			case gray:
				// Back-edge: slice the stack from dep to id and close it.
				for i, s := range stack {
					if s == dep {
						cycle = append(cycle, stack[i:]...)
						cycle = append(cycle, dep)
						return true
					}
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return false
	}

	for _, t := range order {
		if color[t.ID] == white && visit(t.ID) {
			return cycle
		}
	}
	return nil
}

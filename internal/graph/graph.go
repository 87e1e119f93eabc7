package graph

import (
	"fmt"

	"github.com/gammazero/toposort"
)

type entry struct {
	id   ID
	task Task
}

// Graph is a mapping from task ID to Task. Edges are implicit: for task t,
// every Dependency marker appearing anywhere in t's argument specification
// denotes an incoming edge from the referenced producer. Graph is read-only
// once handed to the scheduler or dispatcher — neither mutates it.
type Graph struct {
	order   []string
	entries map[string]entry
}

// New returns an empty Graph.
func New() *Graph {
	return &Graph{entries: make(map[string]entry)}
}

// Add inserts a task under id. Returns ErrDuplicateID if id is already
// present, or ErrMalformedArgs if the task's Args is not one of the three
// recognized shapes.
func (g *Graph) Add(id ID, t Task) error {
	switch t.Args.Kind {
	case ArgSingle, ArgList, ArgMap:
	default:
		return fmt.Errorf("%w: task %v", ErrMalformedArgs, id)
	}

	k := Key(id)
	if _, exists := g.entries[k]; exists {
		return fmt.Errorf("%w: %v", ErrDuplicateID, id)
	}

	g.entries[k] = entry{id: id, task: t}
	g.order = append(g.order, k)
	return nil
}

// Get returns the task stored under id, if any.
func (g *Graph) Get(id ID) (Task, bool) {
	e, ok := g.entries[Key(id)]
	return e.task, ok
}

// Has reports whether id is present in the graph.
func (g *Graph) Has(id ID) bool {
	_, ok := g.entries[Key(id)]
	return ok
}

// IDs returns every task ID, in the order tasks were added (the Go
// equivalent of the input mapping's iteration order, preserved for
// determinism — see spec.md P3).
func (g *Graph) IDs() []ID {
	ids := make([]ID, 0, len(g.order))
	for _, k := range g.order {
		ids = append(ids, g.entries[k].id)
	}
	return ids
}

// Len returns the number of tasks in the graph.
func (g *Graph) Len() int {
	return len(g.entries)
}

// Dependencies returns every Dependency marker referenced by the task under
// id, in traversal order.
func (g *Graph) Dependencies(id ID) []Dependency {
	e, ok := g.entries[Key(id)]
	if !ok {
		return nil
	}
	return Dependencies(e.task.Args)
}

// Successors returns, for every task ID, the list of task IDs that depend
// on it directly.
func (g *Graph) Successors() map[string][]string {
	succ := make(map[string][]string, len(g.order))
	for _, k := range g.order {
		succ[k] = nil
	}
	for _, k := range g.order {
		for _, dep := range Dependencies(g.entries[k].task.Args) {
			dk := Key(dep.TaskID)
			succ[dk] = append(succ[dk], k)
		}
	}
	return succ
}

// Predecessors returns, for every task ID, the list of task IDs it directly
// depends on.
func (g *Graph) Predecessors() map[string][]string {
	pred := make(map[string][]string, len(g.order))
	for _, k := range g.order {
		pred[k] = nil
	}
	for _, k := range g.order {
		for _, dep := range Dependencies(g.entries[k].task.Args) {
			pred[k] = append(pred[k], Key(dep.TaskID))
		}
	}
	return pred
}

// Validate checks the graph's structural invariants: every Dependency must
// reference a task present in the graph, and the graph must be acyclic.
// Cycle detection and an arbitrary valid topological order are computed via
// gammazero/toposort, the same library the teacher repo uses for its own
// DAG validation.
func (g *Graph) Validate() error {
	for _, k := range g.order {
		for _, dep := range Dependencies(g.entries[k].task.Args) {
			if !g.Has(dep.TaskID) {
				return fmt.Errorf("%w: %v", ErrDanglingDependency, dep.TaskID)
			}
		}
	}

	var edges []toposort.Edge
	for _, k := range g.order {
		deps := Dependencies(g.entries[k].task.Args)
		if len(deps) == 0 {
			edges = append(edges, toposort.Edge{nil, k})
			continue
		}
		for _, dep := range deps {
			edges = append(edges, toposort.Edge{Key(dep.TaskID), k})
		}
	}

	if _, err := toposort.Toposort(edges); err != nil {
		return fmt.Errorf("%w: %v", ErrCycle, err)
	}

	return nil
}

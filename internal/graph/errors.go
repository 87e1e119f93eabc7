package graph

import "errors"

// Configuration errors are fatal and raised synchronously, never as part of
// a task's result. They correspond to spec.md §7's kind 1.
var (
	// ErrCycle indicates the graph contains a dependency cycle.
	ErrCycle = errors.New("graph: cycle detected")
	// ErrDanglingDependency indicates a Dependency references a task ID not
	// present in the graph.
	ErrDanglingDependency = errors.New("graph: dependency references unknown task")
	// ErrDuplicateID indicates two tasks were added under the same ID.
	ErrDuplicateID = errors.New("graph: duplicate task id")
	// ErrMalformedArgs indicates an Args value is neither single, list, nor
	// map shaped.
	ErrMalformedArgs = errors.New("graph: malformed argument specification")
	// ErrInvalidWorkerCount indicates worker_count was zero or negative.
	ErrInvalidWorkerCount = errors.New("graph: worker_count must be >= 1")
)

// Package taskresult implements the error sentinel model, per-worker result
// merging, output_tasks filtering, structured-ID inflation and the "costs"
// sidecar, grounded on
// _examples/original_source/limp/_execution.py collect_results/
// inflate_results/costs_dict.
package taskresult

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind distinguishes the three ways a task's result can become a sentinel
// instead of a value, per spec.md §7.
type Kind int

const (
	// TaskFailure means the user function itself raised an error.
	TaskFailure Kind = iota
	// DependencyFailure means the task was never invoked because at least
	// one of its dependency values resolved to an Err.
	DependencyFailure
	// TaskTimeout means a per-dependency blocking read exceeded its
	// configured deadline.
	TaskTimeout
)

func (k Kind) String() string {
	switch k {
	case TaskFailure:
		return "task_failure"
	case DependencyFailure:
		return "dependency_error"
	case TaskTimeout:
		return "task_timeout"
	default:
		return "unknown"
	}
}

// Err is the sentinel value a task's result becomes when it, or one of its
// dependencies, failed. Errs are faithfully carried through cross-worker
// channels and local maps like any other result value.
type Err struct {
	Kind    Kind
	Task    string // graph.Key of the task this Err originated from
	Payload error
}

func (e *Err) Error() string {
	return fmt.Sprintf("%s: task %s: %v", e.Kind, e.Task, e.Payload)
}

func (e *Err) Unwrap() error { return e.Payload }

// MarshalJSON renders Err as {"kind", "task", "error"} — the Payload field
// is a plain error interface and would otherwise marshal as "{}".
func (e *Err) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  string `json:"kind"`
		Task  string `json:"task"`
		Error string `json:"error"`
	}{Kind: e.Kind.String(), Task: e.Task, Error: e.Payload.Error()})
}

// TaskFailureErr wraps a failure raised by a user function during
// invocation.
func TaskFailureErr(task string, cause error) *Err {
	return &Err{Kind: TaskFailure, Task: task, Payload: cause}
}

// DependencyErr reports that task was skipped because a dependency
// resolved to an Err.
func DependencyErr(task string) *Err {
	return &Err{Kind: DependencyFailure, Task: task, Payload: errDependencyFailed}
}

// TimeoutErr reports that task's blocking read of a dependency channel
// exceeded its configured deadline.
func TimeoutErr(task string) *Err {
	return &Err{Kind: TaskTimeout, Task: task, Payload: errReadTimedOut}
}

var (
	errDependencyFailed = errors.New("dependency resolved to an error")
	errReadTimedOut     = errors.New("timed out waiting for dependency value")
)

// ConfigError wraps a fatal configuration error raised synchronously from
// schedule (a cycle, a dangling dependency, a malformed argument shape, or
// an invalid worker count) — spec.md §7 kind 1. Unlike Err, a ConfigError
// is never stored as a task's result; it aborts the call entirely.
type ConfigError struct {
	Cause error
}

func (e *ConfigError) Error() string { return fmt.Sprintf("configuration error: %v", e.Cause) }
func (e *ConfigError) Unwrap() error { return e.Cause }

// ErrCollectionTimeout is returned by execute when the overall
// collection_timeout deadline elapses before every worker has reported its
// results — spec.md §7 kind 5. No partial result map is returned.
var ErrCollectionTimeout = errors.New("taskresult: collection timed out")

package graph

import (
	"errors"
	"testing"
)

func constTask(v any, cost float64) Task {
	return Task{
		Fn:   func(Args) (any, error) { return v, nil },
		Args: Single(v),
		Cost: cost,
	}
}

func TestGraphAddAndGet(t *testing.T) {
	g := New()
	if err := g.Add("a", constTask(1, 1)); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := g.Add("a", constTask(2, 1)); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}

	task, ok := g.Get("a")
	if !ok {
		t.Fatalf("expected task to exist")
	}
	if task.Cost != 1 {
		t.Fatalf("unexpected cost %v", task.Cost)
	}
}

func TestGraphValidateDetectsCycle(t *testing.T) {
	g := New()
	g.Add("a", Task{Fn: constTask(0, 0).Fn, Args: Single(Dependency{TaskID: "b", Cost: 1}), Cost: 1})
	g.Add("b", Task{Fn: constTask(0, 0).Fn, Args: Single(Dependency{TaskID: "a", Cost: 1}), Cost: 1})

	if err := g.Validate(); !errors.Is(err, ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}
}

func TestGraphValidateDetectsDanglingDependency(t *testing.T) {
	g := New()
	g.Add("a", Task{Fn: constTask(0, 0).Fn, Args: Single(Dependency{TaskID: "missing", Cost: 1}), Cost: 1})

	if err := g.Validate(); !errors.Is(err, ErrDanglingDependency) {
		t.Fatalf("expected ErrDanglingDependency, got %v", err)
	}
}

func TestGraphValidateAcceptsDiamond(t *testing.T) {
	g := New()
	g.Add("a", constTask(1, 1))
	g.Add("b", Task{Args: Single(Dependency{TaskID: "a", Cost: 1}), Cost: 1})
	g.Add("c", Task{Args: Single(Dependency{TaskID: "a", Cost: 1}), Cost: 1})
	g.Add("d", Task{Args: ListArgs(Dependency{TaskID: "b", Cost: 1}, Dependency{TaskID: "c", Cost: 1}), Cost: 1})

	if err := g.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGraphSuccessorsAndPredecessors(t *testing.T) {
	g := New()
	g.Add("a", constTask(1, 1))
	g.Add("b", Task{Args: Single(Dependency{TaskID: "a", Cost: 1}), Cost: 1})

	succ := g.Successors()
	if len(succ[Key("a")]) != 1 || succ[Key("a")][0] != Key("b") {
		t.Fatalf("unexpected successors: %v", succ)
	}

	pred := g.Predecessors()
	if len(pred[Key("b")]) != 1 || pred[Key("b")][0] != Key("a") {
		t.Fatalf("unexpected predecessors: %v", pred)
	}
}

func TestKeyDistinguishesTypesAndTuples(t *testing.T) {
	if Key(1) == Key("1") {
		t.Fatalf("int and string ids with the same text must not collide")
	}
	if Key(Tuple{"sums", 0, 0}) == Key(Tuple{"sums", 0, 1}) {
		t.Fatalf("distinct tuples must not collide")
	}
	if Key(Tuple{"sums", 0, 0}) != Key(Tuple{"sums", 0, 0}) {
		t.Fatalf("identical tuples must produce identical keys")
	}
}

func TestArgsTransformFindsNestedDependencies(t *testing.T) {
	args := ListArgs(
		Dependency{TaskID: "x", Cost: 1},
		[]any{Dependency{TaskID: "y", Cost: 2}},
		map[string]any{"k": Dependency{TaskID: "z", Cost: 3}},
	)

	deps := Dependencies(args)
	if len(deps) != 3 {
		t.Fatalf("expected 3 dependencies, got %d: %+v", len(deps), deps)
	}
}

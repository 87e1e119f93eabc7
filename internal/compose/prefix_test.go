package compose

import (
	"errors"
	"testing"

	"github.com/aristath/dagsched/internal/graph"
)

func constFn(graph.Args) (any, error) { return nil, nil }

func TestPrefixRewritesIDsAndDependencies(t *testing.T) {
	g := graph.New()
	g.Add("a", graph.Task{Fn: constFn, Args: graph.Single(1), Cost: 1})
	g.Add("b", graph.Task{Fn: constFn, Args: graph.Single(graph.Dependency{TaskID: "a", Cost: 2}), Cost: 1})

	out, err := Prefix(g, "left")
	if err != nil {
		t.Fatalf("Prefix: %v", err)
	}
	if out.Len() != 2 {
		t.Fatalf("expected 2 tasks, got %d", out.Len())
	}
	if !out.Has(graph.Tuple{"left", "a"}) || !out.Has(graph.Tuple{"left", "b"}) {
		t.Fatalf("expected prefixed IDs to be present")
	}

	bTask, ok := out.Get(graph.Tuple{"left", "b"})
	if !ok {
		t.Fatalf("prefixed b task missing")
	}
	deps := graph.Dependencies(bTask.Args)
	if len(deps) != 1 {
		t.Fatalf("expected 1 dependency, got %d", len(deps))
	}
	want := graph.Tuple{"left", "a"}
	got, ok := deps[0].TaskID.(graph.Tuple)
	if !ok || graph.Key(got) != graph.Key(want) {
		t.Fatalf("dependency not rewritten to prefixed ID: got %v want %v", deps[0].TaskID, want)
	}
}

func TestPrefixMakesColldingIDsDistinct(t *testing.T) {
	left := graph.New()
	left.Add("a", graph.Task{Fn: constFn, Args: graph.Single(1), Cost: 1})
	right := graph.New()
	right.Add("a", graph.Task{Fn: constFn, Args: graph.Single(2), Cost: 1})

	pl, err := Prefix(left, "left")
	if err != nil {
		t.Fatalf("Prefix left: %v", err)
	}
	pr, err := Prefix(right, "right")
	if err != nil {
		t.Fatalf("Prefix right: %v", err)
	}

	merged, err := Merge(pl, pr)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if merged.Len() != 2 {
		t.Fatalf("expected 2 tasks after merge, got %d", merged.Len())
	}
}

func TestMergeRejectsCollidingIDs(t *testing.T) {
	left := graph.New()
	left.Add("a", graph.Task{Fn: constFn, Args: graph.Single(1), Cost: 1})
	right := graph.New()
	right.Add("a", graph.Task{Fn: constFn, Args: graph.Single(2), Cost: 1})

	if _, err := Merge(left, right); !errors.Is(err, graph.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID merging unprefixed colliding graphs, got %v", err)
	}
}

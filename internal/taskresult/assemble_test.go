package taskresult

import (
	"testing"
	"time"

	"github.com/aristath/dagsched/internal/graph"
)

func TestAssembleAliasesEliminatedDuplicates(t *testing.T) {
	alias := map[string]graph.ID{
		graph.Key("s1"): "s1",
		graph.Key("s2"): "s1",
	}
	idByKey := map[string]graph.ID{
		graph.Key("s1"): "s1",
		graph.Key("s2"): "s2",
	}
	outcomes := map[string]Outcome{
		graph.Key("s1"): {Value: 9},
	}

	results := Assemble(outcomes, alias, idByKey)
	v1, ok1 := results.Get("s1")
	v2, ok2 := results.Get("s2")
	if !ok1 || !ok2 || v1 != 9 || v2 != 9 {
		t.Fatalf("expected both s1 and s2 to report 9, got (%v,%v) (%v,%v)", v1, ok1, v2, ok2)
	}
}

func TestAssembleCarriesErrValues(t *testing.T) {
	alias := map[string]graph.ID{graph.Key("a"): "a"}
	idByKey := map[string]graph.ID{graph.Key("a"): "a"}
	e := TaskFailureErr(graph.Key("a"), errSample)
	outcomes := map[string]Outcome{graph.Key("a"): {Err: e}}

	results := Assemble(outcomes, alias, idByKey)
	v, ok := results.Get("a")
	if !ok {
		t.Fatalf("expected a present")
	}
	if got, ok := v.(*Err); !ok || got != e {
		t.Fatalf("expected the Err sentinel to be carried through, got %#v", v)
	}
}

func TestFilterRestrictsToOutputTasks(t *testing.T) {
	results := NewMap()
	results.Set("a", 1)
	results.Set("b", 2)

	filtered := Filter(results, []graph.ID{"b"})
	if filtered.Len() != 1 {
		t.Fatalf("expected 1 entry after filtering, got %d", filtered.Len())
	}
	if v, ok := filtered.Get("b"); !ok || v != 2 {
		t.Fatalf("expected b=2 to survive filtering")
	}
}

func TestFilterWithNilOutputTasksReturnsEverything(t *testing.T) {
	results := NewMap()
	results.Set("a", 1)
	if Filter(results, nil) != results {
		t.Fatalf("nil output_tasks must return the results unchanged")
	}
}

func TestAttachCostsAvoidsCollidingTaskID(t *testing.T) {
	results := NewMap()
	results.Set("costs", "a real task named costs")

	costsMap := NewMap()
	costsMap.Set("a", CostEntry{Compute: time.Second})

	AttachCosts(results, costsMap)
	if _, ok := results.Get("costs_0"); !ok {
		t.Fatalf("expected costs sidecar to be renamed to costs_0 to avoid colliding with the real task id")
	}
	if v, _ := results.Get("costs"); v != "a real task named costs" {
		t.Fatalf("original 'costs' task result must be left untouched")
	}
}

func TestInflateNestsTupleIDs(t *testing.T) {
	results := NewMap()
	results.Set(graph.Tuple{"sums", 0}, 10)
	results.Set(graph.Tuple{"sums", 1}, 20)
	results.Set("plain", 30)

	inflated := Inflate(results)
	sums, ok := inflated["sums"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested 'sums' map, got %#v", inflated["sums"])
	}
	if sums["0"] != 10 || sums["1"] != 20 {
		t.Fatalf("unexpected nested values: %#v", sums)
	}
	if inflated["plain"] != 30 {
		t.Fatalf("expected non-tuple key to remain top-level")
	}
}

var errSample = sampleErr{}

type sampleErr struct{}

func (sampleErr) Error() string { return "sample" }

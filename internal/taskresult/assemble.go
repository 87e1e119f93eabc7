package taskresult

import (
	"fmt"
	"time"

	"github.com/aristath/dagsched/internal/graph"
)

// Outcome is one task's execution record as produced by a worker: either a
// successful value or an Err, the wall-clock compute time, and the
// measured receive latency for each cross-worker dependency it read
// (keyed by the producer's graph.Key), present only when costs were
// requested.
type Outcome struct {
	Value    any
	Err      *Err
	Duration time.Duration
	RecvCost map[string]time.Duration
}

// Assemble merges every worker's local outcomes into a single result Map
// keyed by the *original* task IDs — i.e. before duplicate elimination.
// alias is dedup.RemoveDuplicates' sigma (original key -> survivor ID);
// idByKey recovers the original ID value for each original key. Every
// eliminated duplicate reports the same value as its survivor, per
// spec.md §4.5 step 3 and P4.
func Assemble(outcomes map[string]Outcome, alias map[string]graph.ID, idByKey map[string]graph.ID) *Map {
	out := NewMap()
	for origKey, survivorID := range alias {
		survKey := graph.Key(survivorID)
		o, ok := outcomes[survKey]
		if !ok {
			continue
		}
		id := idByKey[origKey]
		if o.Err != nil {
			out.Set(id, o.Err)
		} else {
			out.Set(id, o.Value)
		}
	}
	return out
}

// Filter restricts results to outputTasks, the surviving-ID aliasing
// already folded in by Assemble. A nil outputTasks returns results
// unchanged — spec.md's "all tasks are output tasks by default".
func Filter(results *Map, outputTasks []graph.ID) *Map {
	if outputTasks == nil {
		return results
	}

	keep := make(map[string]bool, len(outputTasks))
	for _, id := range outputTasks {
		keep[graph.Key(id)] = true
	}

	out := NewMap()
	for _, id := range results.IDs() {
		if !keep[graph.Key(id)] {
			continue
		}
		v, _ := results.Get(id)
		out.Set(id, v)
	}
	return out
}

// Costs builds the recipient-keyed "costs" sidecar: for every original
// task ID, its own computation time plus a per-producer map of measured
// communication time, following
// _examples/original_source/limp/_execution.py costs_dict — aliased
// duplicates share their survivor's cost entry.
func Costs(outcomes map[string]Outcome, alias map[string]graph.ID, idByKey map[string]graph.ID) *Map {
	out := NewMap()
	for origKey, survivorID := range alias {
		survKey := graph.Key(survivorID)
		o, ok := outcomes[survKey]
		if !ok {
			continue
		}
		out.Set(idByKey[origKey], CostEntry{Compute: o.Duration, Comm: o.RecvCost})
	}
	return out
}

// CostEntry is one task's measured cost: the time its own invocation took,
// and the time spent waiting on each cross-worker dependency it read.
type CostEntry struct {
	Compute time.Duration
	Comm    map[string]time.Duration
}

// AttachCosts adds costsMap to results under the key "costs", renaming to
// "costs_0", "costs_1", ... if "costs" already names an actual task,
// following limp's costs_key collision-avoidance loop exactly.
func AttachCosts(results *Map, costsMap *Map) *Map {
	key := "costs"
	for n := 0; results.Has(key); n++ {
		key = fmt.Sprintf("costs_%d", n)
	}
	results.Set(key, costsMap)
	return results
}

// Inflate expands every graph.Tuple key into a nested map of maps, one
// level per tuple element, following
// _examples/original_source/limp/_execution.py inflate_results. Keys that
// are not tuples (including tuples of differing lengths from one another)
// simply become top-level entries; inflation is order-independent and
// never drops a key.
func Inflate(results *Map) map[string]any {
	out := make(map[string]any)
	for _, id := range results.IDs() {
		v, _ := results.Get(id)
		tup, ok := graph.AsTuple(id)
		if !ok || len(tup) == 0 {
			out[fmt.Sprint(id)] = v
			continue
		}

		cur := out
		for _, tok := range tup[:len(tup)-1] {
			key := fmt.Sprint(tok)
			next, ok := cur[key].(map[string]any)
			if !ok {
				next = make(map[string]any)
				cur[key] = next
			}
			cur = next
		}
		cur[fmt.Sprint(tup[len(tup)-1])] = v
	}
	return out
}

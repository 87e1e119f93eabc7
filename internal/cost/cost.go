// Package cost computes HEFT priorities (upward rank) and the
// communication-cost model used by the scheduler.
package cost

import (
	"github.com/aristath/dagsched/internal/graph"
)

// CommCost returns the communication cost incurred when a consumer on
// toWorker reads a value produced by a task on fromWorker, via the declared
// edge cost. Same-worker communication is always free.
func CommCost(fromWorker, toWorker int, declared float64) float64 {
	if fromWorker == toWorker {
		return 0
	}
	return declared
}

// Rank computes the upward rank of every task in g:
//
//	rank(t) = cost(t) + max over outgoing edges e=(t -> succ) of (commCost(e) + rank(succ))
//	rank(leaf) = cost(leaf)
//
// This is spec.md §4.2's placement-priority rule. It differs from
// _examples/original_source/limp/_scheduling.py upward_rank, which sums
// every successor's rank rather than taking the max of the costlier path;
// spec.md's max formula is authoritative here and is what HEFT's insertion
// scheduler expects as a priority order.
func Rank(g *graph.Graph) map[string]float64 {
	ids := g.IDs()
	keys := make([]string, len(ids))
	costOf := make(map[string]float64, len(ids))
	for i, id := range ids {
		k := graph.Key(id)
		keys[i] = k
		task, _ := g.Get(id)
		costOf[k] = task.Cost
	}

	// edgeCost[predecessorKey][successorKey] = the successor-declared cost of
	// reading the predecessor's output. Dependency costs are declared from
	// the consuming task's side, so this is built by scanning every task's
	// own dependency markers. A consumer may reference the same producer
	// through more than one Dependency marker (e.g. with distinct extraction
	// keys); the costlier one wins, since graph.Dependencies iterates
	// ArgMap-shaped args in Go's randomized map order and an overwrite would
	// make the rank nondeterministic between runs on the same graph.
	edgeCost := make(map[string]map[string]float64, len(ids))
	for _, id := range ids {
		task, _ := g.Get(id)
		succKey := graph.Key(id)
		for _, dep := range graph.Dependencies(task.Args) {
			predKey := graph.Key(dep.TaskID)
			if edgeCost[predKey] == nil {
				edgeCost[predKey] = make(map[string]float64)
			}
			if dep.Cost > edgeCost[predKey][succKey] {
				edgeCost[predKey][succKey] = dep.Cost
			}
		}
	}

	successors := g.Successors()

	rank := make(map[string]float64, len(ids))
	visiting := make(map[string]bool, len(ids))
	var visit func(k string) float64
	visit = func(k string) float64 {
		if r, ok := rank[k]; ok {
			return r
		}
		if visiting[k] {
			// Cycles are rejected before Rank is ever called; this guards
			// against misuse rather than signaling a real case.
			return costOf[k]
		}
		visiting[k] = true

		best := 0.0
		for _, succKey := range successors[k] {
			candidate := edgeCost[k][succKey] + visit(succKey)
			if candidate > best {
				best = candidate
			}
		}

		rank[k] = costOf[k] + best
		visiting[k] = false
		return rank[k]
	}

	for _, k := range keys {
		visit(k)
	}

	return rank
}

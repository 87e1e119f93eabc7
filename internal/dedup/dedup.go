// Package dedup implements the duplicate eliminator: it canonicalizes tasks
// by (function identity, argument structure, transitively-equivalent
// dependencies) and merges equivalence classes into a single survivor,
// rewiring dependents. Algorithm sequencing follows
// _examples/original_source/limp/_scheduling.py remove_duplicates: process
// tasks tier by tier (zero remaining predecessors first) so that every
// dependency a task references has already been assigned its final survivor
// before that task's own canonical form is computed.
package dedup

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/hashstructure/v2"

	"github.com/aristath/dagsched/internal/graph"
)

// canonDependency is the normalized form of a Dependency marker used while
// hashing: the cost estimate never participates (two tasks differing only
// in a dependency's communication-cost estimate are still duplicates), only
// the (already-resolved) survivor and the extraction key do.
type canonDependency struct {
	Survivor string
	Key      any
}

type canonForm struct {
	FnIdentity uint64
	Kind       graph.ArgKind
	Value      any
	List       []any
	Map        map[string]any
}

// fnIdentity returns a stable identity for a function value. Go func values
// are only comparable to nil, so, as spec.md §4.1 requires ("lambdas /
// closures compare by identity only"), identity is approximated by the
// function's code pointer via reflection — the standard Go workaround for
// comparing function references, since two separately-defined closures are
// never equal even with identical bodies. Closures created from the same
// function literal share one code pointer, so they compare equal here
// whatever values they capture; only their arguments can tell them apart.
func fnIdentity(fn graph.Func) uint64 {
	if fn == nil {
		return 0
	}
	return uint64(reflect.ValueOf(fn).Pointer())
}

// RemoveDuplicates returns a new graph containing one survivor per
// equivalence class of structurally-identical tasks, plus the alias map
// sigma: every original task's string key maps to its survivor's ID
// (sigma(k) = k for every surviving key, per spec.md §4.1's contract).
func RemoveDuplicates(g *graph.Graph) (*graph.Graph, map[string]graph.ID, error) {
	if err := g.Validate(); err != nil {
		return nil, nil, err
	}

	ids := g.IDs()
	idByKey := make(map[string]graph.ID, len(ids))
	keyOrder := make([]string, len(ids))
	for i, id := range ids {
		k := graph.Key(id)
		keyOrder[i] = k
		idByKey[k] = id
	}

	remaining := make(map[string]map[string]bool, len(ids))
	for _, k := range keyOrder {
		remaining[k] = make(map[string]bool)
	}
	for _, k := range keyOrder {
		task, _ := g.Get(idByKey[k])
		for _, dep := range graph.Dependencies(task.Args) {
			remaining[k][graph.Key(dep.TaskID)] = true
		}
	}

	survivorOf := make(map[string]graph.ID, len(ids))
	canonToSurvivor := make(map[uint64]string, len(ids))
	out := graph.New()

	processed := make(map[string]bool, len(ids))
	for len(processed) < len(ids) {
		var tier []string
		for _, k := range keyOrder {
			if processed[k] {
				continue
			}
			if len(remaining[k]) == 0 {
				tier = append(tier, k)
			}
		}
		if len(tier) == 0 {
			return nil, nil, fmt.Errorf("dedup: unresolved dependency cycle")
		}

		for _, k := range tier {
			task, _ := g.Get(idByKey[k])

			canon := canonForm{
				FnIdentity: fnIdentity(task.Fn),
				Kind:       task.Args.Kind,
			}
			normalized := graph.Transform(task.Args, func(d graph.Dependency) any {
				return canonDependency{Survivor: graph.Key(survivorOf[graph.Key(d.TaskID)]), Key: d.Key}
			})
			canon.Value, canon.List, canon.Map = normalized.Value, normalized.List, normalized.Map

			hash, err := hashstructure.Hash(canon, hashstructure.FormatV2, nil)
			if err != nil {
				return nil, nil, fmt.Errorf("dedup: hashing task %v: %w", idByKey[k], err)
			}

			if survKey, ok := canonToSurvivor[hash]; ok {
				survivorOf[k] = idByKey[survKey]
			} else {
				canonToSurvivor[hash] = k
				survivorOf[k] = idByKey[k]

				rewritten := task
				rewritten.Args = graph.Transform(task.Args, func(d graph.Dependency) any {
					surv := survivorOf[graph.Key(d.TaskID)]
					return graph.Dependency{TaskID: surv, Key: d.Key, Cost: d.Cost}
				})
				if err := out.Add(idByKey[k], rewritten); err != nil {
					return nil, nil, err
				}
			}
			processed[k] = true
		}

		for _, k := range tier {
			delete(remaining, k)
		}
		for k2, preds := range remaining {
			for _, k := range tier {
				delete(preds, k)
			}
			_ = k2
		}
	}

	return out, survivorOf, nil
}

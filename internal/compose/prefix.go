// Package compose implements prefix/join utilities for composing
// independently-built subgraphs into one: every task ID (and every
// Dependency reference to it) is rewritten to carry a distinguishing
// prefix token before the graphs are unioned, so that previously
// colliding IDs — e.g. two subgraphs both using "a" — become distinct
// structured IDs.
//
// Dependency-reference rewriting is grounded on
// _examples/original_source/limp/_scheduling.py relabel_dependencies,
// reused here via graph.Transform rather than reimplemented.
package compose

import (
	"fmt"

	"github.com/aristath/dagsched/internal/graph"
)

// Prefix returns a new graph where every task ID k becomes the structured
// ID graph.Tuple{token, k}, and every Dependency anywhere in any task's
// arguments is rewritten to reference the prefixed ID of its target.
// Prefix is injective: two originally-equal IDs remain equal after
// prefixing, and two originally-distinct IDs remain distinct, since the
// rewrite only ever adds a leading element.
func Prefix(g *graph.Graph, token any) (*graph.Graph, error) {
	out := graph.New()

	rewriteID := func(id graph.ID) graph.ID {
		return graph.Tuple{token, id}
	}

	for _, id := range g.IDs() {
		task, _ := g.Get(id)
		rewritten := task
		rewritten.Args = graph.Transform(task.Args, func(d graph.Dependency) any {
			return graph.Dependency{TaskID: rewriteID(d.TaskID), Key: d.Key, Cost: d.Cost}
		})
		if err := out.Add(rewriteID(id), rewritten); err != nil {
			return nil, fmt.Errorf("compose: prefixing %v: %w", id, err)
		}
	}

	return out, nil
}

// Merge unions a set of graphs — typically ones already passed through
// Prefix with distinct tokens, so their ID spaces cannot collide — into a
// single graph. Merge itself performs no rewriting; it returns
// graph.ErrDuplicateID if two input graphs do share an ID.
func Merge(graphs ...*graph.Graph) (*graph.Graph, error) {
	out := graph.New()
	for _, g := range graphs {
		for _, id := range g.IDs() {
			task, _ := g.Get(id)
			if err := out.Add(id, task); err != nil {
				return nil, fmt.Errorf("compose: merging: %w", err)
			}
		}
	}
	return out, nil
}

// Package dot renders a task graph as Graphviz DOT text, the optional
// to_dot collaborator operation.
package dot

import (
	"fmt"

	"github.com/emicklei/dot"

	"github.com/aristath/dagsched/internal/graph"
)

// Render builds a directed DOT graph from g: one node per task (labeled
// with its ID), one edge per Dependency marker pointing from producer to
// consumer.
func Render(g *graph.Graph) string {
	dotGraph := dot.NewGraph(dot.Directed)

	nodes := make(map[string]dot.Node, g.Len())
	for _, id := range g.IDs() {
		k := graph.Key(id)
		n := dotGraph.Node(k)
		n.Label(fmt.Sprint(id))
		nodes[k] = n
	}

	for _, id := range g.IDs() {
		consumerKey := graph.Key(id)
		for _, dep := range g.Dependencies(id) {
			producerKey := graph.Key(dep.TaskID)
			producer, ok := nodes[producerKey]
			if !ok {
				continue
			}
			edge := dotGraph.Edge(producer, nodes[consumerKey])
			if dep.Cost > 0 {
				edge.Attr("label", fmt.Sprintf("%.2f", dep.Cost))
			}
		}
	}

	return dotGraph.String()
}

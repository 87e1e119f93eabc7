// Package examples holds a small set of named demo graphs the CLI can
// schedule and execute, since task functions are native Go closures and
// cannot be supplied as data on the command line.
package examples

import "github.com/aristath/dagsched/internal/graph"

func square(a graph.Args) (any, error) {
	x := a.Value.(float64)
	return x * x, nil
}

func half(a graph.Args) (any, error) {
	return a.Value.(float64) / 2, nil
}

func add(a graph.Args) (any, error) {
	return a.List[0].(float64) + a.List[1].(float64), nil
}

func mul(a graph.Args) (any, error) {
	return a.List[0].(float64) * a.List[1].(float64), nil
}

func sub(a graph.Args) (any, error) {
	return a.List[0].(float64) - a.List[1].(float64), nil
}

// Arithmetic builds spec scenario 1: a six-task DAG mixing squares, a
// halving, and three binary combinators, across three workers' worth of
// parallelism.
func Arithmetic() *graph.Graph {
	g := graph.New()
	g.Add(0, graph.Task{Fn: square, Args: graph.Single(3.0), Cost: 10.8})
	g.Add(1, graph.Task{Fn: square, Args: graph.Single(4.0), Cost: 10.8})
	g.Add(2, graph.Task{Fn: half, Args: graph.Single(10.0), Cost: 11})
	g.Add(3, graph.Task{
		Fn: add,
		Args: graph.ListArgs(
			graph.Dependency{TaskID: 0, Cost: 1},
			graph.Dependency{TaskID: 1, Cost: 1},
		),
		Cost: 10.7,
	})
	g.Add(4, graph.Task{
		Fn: mul,
		Args: graph.ListArgs(
			graph.Dependency{TaskID: 0, Cost: 1},
			graph.Dependency{TaskID: 2, Cost: 1},
		),
		Cost: 10.8,
	})
	g.Add(5, graph.Task{
		Fn: sub,
		Args: graph.ListArgs(
			graph.Dependency{TaskID: 3, Cost: 1},
			graph.Dependency{TaskID: 4, Cost: 1},
		),
		Cost: 10.9,
	})
	return g
}

// SumOfSquares builds spec scenario 2: two independent squares feeding one
// summing consumer, the minimal graph exercising cross-worker communication
// cost and the output_tasks filter.
func SumOfSquares() *graph.Graph {
	g := graph.New()
	g.Add("s1", graph.Task{Fn: square, Args: graph.Single(3.0), Cost: 8})
	g.Add("s2", graph.Task{Fn: square, Args: graph.Single(8.0), Cost: 8})
	g.Add("sum", graph.Task{
		Fn: add,
		Args: graph.ListArgs(
			graph.Dependency{TaskID: "s1", Cost: 1},
			graph.Dependency{TaskID: "s2", Cost: 1},
		),
		Cost: 1,
	})
	return g
}

// Named resolves a demo graph by name. Returns nil if unknown.
func Named(name string) *graph.Graph {
	switch name {
	case "arithmetic":
		return Arithmetic()
	case "sumsq":
		return SumOfSquares()
	default:
		return nil
	}
}

// Names lists every available demo graph, in a stable order.
func Names() []string {
	return []string{"arithmetic", "sumsq"}
}

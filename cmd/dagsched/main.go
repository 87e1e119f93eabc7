// Command dagsched schedules and executes one of the built-in demo task
// graphs using HEFT list scheduling and the goroutine-based dispatch
// runtime, printing the result map as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aristath/dagsched/internal/config"
	"github.com/aristath/dagsched/internal/dedup"
	"github.com/aristath/dagsched/internal/dot"
	"github.com/aristath/dagsched/internal/examples"
	"github.com/aristath/dagsched/internal/graph"
	"github.com/aristath/dagsched/internal/heft"
	"github.com/aristath/dagsched/internal/runtime"
	"github.com/aristath/dagsched/internal/taskresult"
)

func main() {
	graphName := flag.String("graph", "sumsq", "demo graph to run ("+strings.Join(examples.Names(), ", ")+")")
	workers := flag.Int("workers", 0, "worker count (0 = use config default)")
	outputTasks := flag.String("output-tasks", "", "comma-separated list of task IDs to restrict results to")
	showCosts := flag.Bool("costs", false, "attach measured compute/comm times under the \"costs\" key")
	inflate := flag.Bool("inflate", false, "nest tuple-shaped IDs into a nested mapping")
	asDot := flag.Bool("dot", false, "print the graph as Graphviz DOT instead of executing it")
	perReadTimeout := flag.Duration("per-read-timeout", 0, "max wait for one cross-worker dependency value (0 = use config default, unbounded unless configured)")
	collectionTimeout := flag.Duration("collection-timeout", 0, "overall deadline for execute (0 = use config default)")
	flag.Parse()

	g := examples.Named(*graphName)
	if g == nil {
		fmt.Fprintf(os.Stderr, "unknown graph %q (available: %s)\n", *graphName, strings.Join(examples.Names(), ", "))
		os.Exit(1)
	}

	if *asDot {
		fmt.Println(dot.Render(g))
		return
	}

	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}
	if *workers > 0 {
		cfg.WorkerCount = *workers
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := run(ctx, g, cfg, runOptions{
		outputTasks:       splitCSV(*outputTasks),
		costs:             *showCosts,
		inflate:           *inflate,
		perReadTimeout:    *perReadTimeout,
		collectionTimeout: *collectionTimeout,
	})
	if err != nil {
		log.Printf("ERROR: %v", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(os.Stderr, "error encoding result: %v\n", err)
		os.Exit(1)
	}
}

type runOptions struct {
	outputTasks       []string
	costs             bool
	inflate           bool
	perReadTimeout    time.Duration
	collectionTimeout time.Duration
}

// run schedules g with HEFT, executes it through the dispatch runtime, and
// assembles a client-facing result. Mirrors the Schedule -> Execute ->
// Assemble -> Filter -> (Costs) -> (Inflate) pipeline described in
// spec.md §6.
func run(ctx context.Context, g *graph.Graph, cfg *config.DispatcherConfig, opts runOptions) (any, error) {
	if err := g.Validate(); err != nil {
		return nil, &taskresult.ConfigError{Cause: err}
	}

	idByKey := make(map[string]graph.ID, g.Len())
	for _, id := range g.IDs() {
		idByKey[graph.Key(id)] = id
	}

	deduped, alias, err := dedup.RemoveDuplicates(g)
	if err != nil {
		return nil, &taskresult.ConfigError{Cause: err}
	}

	numWorkers := cfg.WorkerCount
	placement, _, err := heft.Schedule(deduped, numWorkers)
	if err != nil {
		return nil, &taskresult.ConfigError{Cause: err}
	}
	order := heft.WorkerOrder(placement, numWorkers)

	collectionTimeout := opts.collectionTimeout
	if collectionTimeout == 0 {
		collectionTimeout = time.Duration(cfg.CollectionTimeoutSecs * float64(time.Second))
	}
	perReadTimeout := opts.perReadTimeout
	if perReadTimeout == 0 {
		perReadTimeout = time.Duration(cfg.PerReadTimeoutSecs * float64(time.Second))
	}

	d := runtime.NewDispatcher(deduped, placement, order, runtime.Config{
		PerReadTimeout:    perReadTimeout,
		CollectionTimeout: collectionTimeout,
		Costs:             opts.costs || cfg.Costs,
	})

	outcomes, err := d.Execute(ctx)
	if err != nil {
		return nil, err
	}

	results := taskresult.Assemble(outcomes, alias, idByKey)

	var filterIDs []graph.ID
	if len(opts.outputTasks) > 0 {
		for _, t := range opts.outputTasks {
			filterIDs = append(filterIDs, resolveID(idByKey, t))
		}
	}
	results = taskresult.Filter(results, filterIDs)

	if opts.costs || cfg.Costs {
		costs := taskresult.Costs(outcomes, alias, idByKey)
		results = taskresult.AttachCosts(results, costs)
	}

	if opts.inflate || cfg.Inflate {
		return taskresult.Inflate(results), nil
	}

	out := make(map[string]any, results.Len())
	for _, id := range results.IDs() {
		v, _ := results.Get(id)
		out[fmt.Sprint(id)] = v
	}
	return out, nil
}

// resolveID maps a CLI-supplied string flag value back to its original
// task ID. String IDs round-trip as-is; numeric demo IDs (see
// internal/examples) are looked up by their string rendering.
func resolveID(idByKey map[string]graph.ID, s string) graph.ID {
	if id, ok := idByKey[graph.Key(s)]; ok {
		return id
	}
	for _, id := range idByKey {
		if fmt.Sprint(id) == s {
			return id
		}
	}
	return s
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

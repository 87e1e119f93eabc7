// Package runtime implements the dispatcher and worker execution loop:
// materializing each task's arguments from already-computed dependency
// values, invoking the task, and routing outcomes across workers via
// bounded one-shot channels for cross-worker dependencies and a local map
// for same-worker ones.
//
// Workers are goroutines rather than separate OS processes. spec.md §5
// requires process isolation "because user-provided functions may be
// CPU-bound and the host platform may serialize in-process execution" —
// a description of CPython's GIL. Go has no such serialization: goroutines
// already run truly in parallel across GOMAXPROCS, so the isolation
// requirement is moot and goroutines are the idiomatic substitute; see
// DESIGN.md. The worker-pool shape itself — fixed pool, errgroup-bounded
// join, context-cancellation on timeout — follows
// _examples/aristath-orchestrator/internal/orchestrator/runner.go.
package runtime

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/dagsched/internal/events"
	"github.com/aristath/dagsched/internal/graph"
	"github.com/aristath/dagsched/internal/heft"
	"github.com/aristath/dagsched/internal/taskresult"
)

// Config controls dispatcher and worker behavior.
type Config struct {
	// PerReadTimeout bounds a single cross-worker dependency read. Zero
	// means unbounded.
	PerReadTimeout time.Duration
	// CollectionTimeout bounds the overall drain. Zero means
	// DefaultCollectionTimeout.
	CollectionTimeout time.Duration
	// Costs requests per-task compute and receive-latency measurement.
	Costs bool
	// Bus, if set, receives TaskStarted/TaskCompleted/TaskFailed and
	// DAGProgress events for this run. Nil disables event publishing
	// entirely — no event is ever constructed on the hot path.
	Bus *events.EventBus
}

// DefaultCollectionTimeout is used when Config.CollectionTimeout is zero.
const DefaultCollectionTimeout = 60 * time.Second

type edgeKey struct {
	Producer string
	Consumer string
}

type channelMsg struct {
	Value any
	Err   *taskresult.Err
}

// Dispatcher owns the (already deduplicated) graph, its HEFT placement,
// and the cross-worker channels wired between placed tasks.
type Dispatcher struct {
	g         *graph.Graph
	idByKey   map[string]graph.ID
	placement map[string]heft.Placement
	order     [][]string
	cfg       Config
	channels  map[edgeKey]chan channelMsg
}

// progress tracks completed/failed counts across every worker and publishes
// a DAGProgressEvent as each task reports in, so a subscriber sees live
// progress rather than one event per worker at the very end.
type progress struct {
	mu        sync.Mutex
	bus       *events.EventBus
	runID     string
	total     int
	completed int
	failed    int
}

func (p *progress) report(failed bool) {
	p.mu.Lock()
	if failed {
		p.failed++
	} else {
		p.completed++
	}
	completed, fl := p.completed, p.failed
	p.mu.Unlock()

	if p.bus == nil {
		return
	}
	p.bus.Publish(events.TopicDAG, events.DAGProgressEvent{
		Run:       p.runID,
		Total:     p.total,
		Completed: completed,
		Failed:    fl,
		Pending:   p.total - completed - fl,
		Timestamp: time.Now(),
	})
}

// NewDispatcher builds the channel topology for every cross-worker
// dependency edge in g and returns a ready-to-run Dispatcher. order is the
// per-worker task key list, in placement-start order (heft.WorkerOrder).
func NewDispatcher(g *graph.Graph, placement map[string]heft.Placement, order [][]string, cfg Config) *Dispatcher {
	if cfg.CollectionTimeout <= 0 {
		cfg.CollectionTimeout = DefaultCollectionTimeout
	}

	idByKey := make(map[string]graph.ID, g.Len())
	for _, id := range g.IDs() {
		idByKey[graph.Key(id)] = id
	}

	channels := make(map[edgeKey]chan channelMsg)
	for _, id := range g.IDs() {
		consumerKey := graph.Key(id)
		for _, dep := range g.Dependencies(id) {
			producerKey := graph.Key(dep.TaskID)
			if placement[producerKey].Worker == placement[consumerKey].Worker {
				continue
			}
			channels[edgeKey{Producer: producerKey, Consumer: consumerKey}] = make(chan channelMsg, 1)
		}
	}

	return &Dispatcher{g: g, idByKey: idByKey, placement: placement, order: order, cfg: cfg, channels: channels}
}

// Execute runs every worker to completion and returns the merged per-task
// outcome map, keyed by graph.Key. It returns taskresult.ErrCollectionTimeout
// if the overall deadline elapses before every worker has reported in;
// pending workers are signaled to stop via context cancellation and any
// results already produced are discarded, per spec.md §5's cancellation
// rule.
func (d *Dispatcher) Execute(ctx context.Context) (map[string]taskresult.Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.CollectionTimeout)
	defer cancel()

	runID := uuid.New().String()
	total := d.g.Len()
	prog := &progress{bus: d.cfg.Bus, runID: runID, total: total}

	var mu sync.Mutex
	merged := make(map[string]taskresult.Outcome, total)

	grp, gctx := errgroup.WithContext(ctx)
	for w, keys := range d.order {
		w, keys := w, keys
		grp.Go(func() error {
			wk := &worker{
				id:             w,
				order:          keys,
				g:              d.g,
				idByKey:        d.idByKey,
				placement:      d.placement,
				channels:       d.channels,
				perReadTimeout: d.cfg.PerReadTimeout,
				costs:          d.cfg.Costs,
				bus:            d.cfg.Bus,
				runID:          runID,
				progress:       prog,
			}
			outcomes := wk.run(gctx)
			mu.Lock()
			for k, o := range outcomes {
				merged[k] = o
			}
			mu.Unlock()
			return nil
		})
	}

	done := make(chan error, 1)
	go func() { done <- grp.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			return nil, err
		}
		if d.cfg.Bus != nil {
			if dropped := d.cfg.Bus.Dropped(); dropped > 0 {
				log.Printf("WARNING: event bus dropped %d events during run %s (slow subscriber)", dropped, runID)
			}
		}
		return merged, nil
	case <-ctx.Done():
		log.Printf("WARNING: collection timeout exceeded after %s, cancelling remaining workers", d.cfg.CollectionTimeout)
		return nil, taskresult.ErrCollectionTimeout
	}
}

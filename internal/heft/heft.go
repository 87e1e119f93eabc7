// Package heft implements the insertion-based HEFT scheduling heuristic:
// tasks are ordered by descending upward rank and each is placed on the
// worker that gives it the earliest finish time, inserting into idle gaps
// left by already-scheduled tasks rather than only appending to the end of
// a worker's timeline.
//
// The algorithm is grounded on
// _examples/original_source/src/limp/_scheduling.py's est/available/
// idle_slots/add_slot/add_task_eft/earliest_finish_time, generalized from
// limp's fixed mp.Process-per-worker model to an arbitrary worker count,
// with the priority queue shaped after
// _examples/other_examples/SipengXie-blockDagger__listSchedule.go.
package heft

import (
	"container/heap"
	"math"
	"sort"

	"github.com/aristath/dagsched/internal/cost"
	"github.com/aristath/dagsched/internal/graph"
)

// Slot is a single (task, start, finish) assignment on one worker's
// timeline, mirroring limp's (task_id, start, finish) tuples.
type Slot struct {
	TaskKey string
	Start   float64
	Finish  float64
}

// Placement records where and when a task was scheduled to run.
type Placement struct {
	Worker int
	Start  float64
	Finish float64
}

// taskPriority is one entry in the scheduling priority queue: a task key
// ordered by descending rank, with ties broken by key for determinism.
type taskPriority struct {
	key      string
	priority float64
}

type priorityQueue []taskPriority

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].priority != pq[j].priority {
		return pq[i].priority > pq[j].priority
	}
	return pq[i].key < pq[j].key
}
func (pq priorityQueue) Swap(i, j int)      { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x any)        { *pq = append(*pq, x.(taskPriority)) }
func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// Schedule assigns every task in g to one of numWorkers workers, returning
// each task's placement keyed by graph.Key(taskID), and the order tasks
// were placed in (descending rank, the HEFT priority order).
func Schedule(g *graph.Graph, numWorkers int) (map[string]Placement, []string, error) {
	if numWorkers < 1 {
		return nil, nil, graph.ErrInvalidWorkerCount
	}

	ids := g.IDs()
	costOf := make(map[string]float64, len(ids))
	depsOf := make(map[string][]graph.Dependency, len(ids))
	for _, id := range ids {
		k := graph.Key(id)
		task, _ := g.Get(id)
		costOf[k] = task.Cost
		depsOf[k] = graph.Dependencies(task.Args)
	}

	ranks := cost.Rank(g)

	pq := make(priorityQueue, 0, len(ids))
	for _, id := range ids {
		k := graph.Key(id)
		pq = append(pq, taskPriority{key: k, priority: ranks[k]})
	}
	heap.Init(&pq)

	priorityOrder := make([]string, 0, len(ids))
	timeline := make([][]Slot, numWorkers)
	placement := make(map[string]Placement, len(ids))

	for pq.Len() > 0 {
		next := heap.Pop(&pq).(taskPriority)
		k := next.key
		priorityOrder = append(priorityOrder, k)

		worker, start, finish := addTaskEFT(k, costOf[k], depsOf[k], placement, timeline)
		placement[k] = Placement{Worker: worker, Start: start, Finish: finish}
		timeline[worker] = addSlot(k, start, finish, timeline[worker])
	}

	return placement, priorityOrder, nil
}

// WorkerOrder returns, for every worker, its assigned task keys sorted by
// start time — the order the dispatcher hands work items to that worker.
func WorkerOrder(placement map[string]Placement, numWorkers int) [][]string {
	order := make([][]string, numWorkers)
	for k, p := range placement {
		order[p.Worker] = append(order[p.Worker], k)
	}
	for w := range order {
		sort.Slice(order[w], func(i, j int) bool {
			return placement[order[w][i]].Start < placement[order[w][j]].Start
		})
	}
	return order
}

// est computes the earliest possible start time for a task on a given
// worker: every dependency's finish time (plus the declared cross-worker
// communication cost if the dependency ran elsewhere) establishes the
// earliest time the task may start at all, and available then finds the
// earliest idle slot of sufficient length at or after that time.
func est(computeCost float64, dependencies []graph.Dependency, worker int, placement map[string]Placement, timeline []Slot) float64 {
	earliest := 0.0
	for _, dep := range dependencies {
		p := placement[graph.Key(dep.TaskID)]
		candidate := p.Finish
		if p.Worker != worker {
			candidate += dep.Cost
		}
		if candidate > earliest {
			earliest = candidate
		}
	}
	return available(computeCost, earliest, timeline)
}

// addTaskEFT picks, across every worker, the placement that gives task k
// the earliest finish time, and returns that placement without yet
// committing it to any timeline.
func addTaskEFT(k string, computeCost float64, dependencies []graph.Dependency, placement map[string]Placement, timelines [][]Slot) (worker int, start, finish float64) {
	bestFinish := math.Inf(1)
	for w, tl := range timelines {
		s := est(computeCost, dependencies, w, placement, tl)
		f := s + computeCost
		if f < bestFinish {
			bestFinish = f
			worker = w
			start = s
			finish = f
		}
	}
	return worker, start, finish
}

// available finds the earliest start time, at or after earliest, of an
// idle gap at least minLength long in a single worker's timeline. It walks
// the gaps before each occupied slot (mirroring limp's idle_slots, fused in
// here rather than materializing an intermediate gap list) plus the final
// unbounded gap after the last slot, clamping each gap's start forward to
// earliest before checking whether it still fits — the per-gap
// max(gap_start, earliest) check that a scan starting blindly from time 0
// would miss, per
// _examples/original_source/src/limp/_scheduling.py:434-456.
func available(minLength, earliest float64, schedule []Slot) float64 {
	last := 0.0
	for _, slot := range schedule {
		start := math.Max(last, earliest)
		if slot.Start-start >= minLength {
			return start
		}
		last = slot.Finish
	}
	return math.Max(last, earliest)
}

// addSlot inserts a new (task, start, finish) slot into a worker's
// timeline, keeping it sorted by start time.
func addSlot(taskKey string, start, finish float64, schedule []Slot) []Slot {
	newSlot := Slot{TaskKey: taskKey, Start: start, Finish: finish}

	insertAt := len(schedule)
	for i, slot := range schedule {
		if finish <= slot.Start {
			insertAt = i
			break
		}
	}

	out := make([]Slot, 0, len(schedule)+1)
	out = append(out, schedule[:insertAt]...)
	out = append(out, newSlot)
	out = append(out, schedule[insertAt:]...)
	return out
}

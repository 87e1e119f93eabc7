package runtime

import (
	"context"
	"time"

	"github.com/aristath/dagsched/internal/events"
	"github.com/aristath/dagsched/internal/graph"
	"github.com/aristath/dagsched/internal/heft"
	"github.com/aristath/dagsched/internal/taskresult"
)

// worker executes one timeline's tasks sequentially, in placement order.
type worker struct {
	id             int
	order          []string
	g              *graph.Graph
	idByKey        map[string]graph.ID
	placement      map[string]heft.Placement
	channels       map[edgeKey]chan channelMsg
	perReadTimeout time.Duration
	costs          bool
	bus            *events.EventBus
	runID          string
	progress       *progress

	local map[string]taskresult.Outcome
}

// run executes this worker's task list in placement order, materializing
// each task's arguments from already-produced dependency values — read
// from the local map for same-worker producers, or from the shared
// channel for cross-worker ones — invoking the task, and fanning the
// outcome out to any cross-worker consumer waiting on it.
func (w *worker) run(ctx context.Context) map[string]taskresult.Outcome {
	w.local = make(map[string]taskresult.Outcome, len(w.order))

	for _, key := range w.order {
		id := w.idByKey[key]
		task, _ := w.g.Get(id)

		w.publish(events.TopicTask, events.TaskStartedEvent{Run: w.runID, Key: key, Worker: w.id, Timestamp: time.Now()})

		recvCost := map[string]time.Duration{}

		materialized, depErr := w.materialize(ctx, key, task.Args, recvCost)

		var outcome taskresult.Outcome
		switch {
		case depErr != nil:
			outcome = taskresult.Outcome{Err: depErr}
		default:
			start := time.Now()
			v, err := task.Fn(materialized)
			duration := time.Since(start)
			if err != nil {
				outcome = taskresult.Outcome{Err: taskresult.TaskFailureErr(key, err)}
			} else {
				outcome = taskresult.Outcome{Value: v}
			}
			outcome.Duration = duration
		}

		if w.costs {
			outcome.RecvCost = recvCost
		}
		w.local[key] = outcome

		if outcome.Err != nil {
			w.publish(events.TopicTask, events.TaskFailedEvent{
				Run: w.runID, Key: key, Worker: w.id,
				Kind: outcome.Err.Kind.String(), Err: outcome.Err,
				Duration: outcome.Duration, Timestamp: time.Now(),
			})
		} else {
			w.publish(events.TopicTask, events.TaskCompletedEvent{
				Run: w.runID, Key: key, Worker: w.id,
				Finish: w.placement[key].Finish, Duration: outcome.Duration, Timestamp: time.Now(),
			})
		}

		if w.progress != nil {
			w.progress.report(outcome.Err != nil)
		}

		w.fanOut(key, outcome)
	}

	return w.local
}

// publish is a no-op when no bus was configured, so a Dispatcher built
// without Config.Bus pays nothing for event construction.
func (w *worker) publish(topic string, ev events.Event) {
	if w.bus == nil {
		return
	}
	w.bus.Publish(topic, ev)
}

// materialize walks task's argument tree, resolving every Dependency
// marker to its producer's already-computed value and applying any
// extraction key. If any dependency resolved to an Err — locally or via a
// remote read — or the read itself timed out, materialization
// short-circuits and the task is not invoked, per spec.md §4.5 worker-loop
// steps a-c.
//
// A consumer may reference the same cross-worker producer through more than
// one Dependency marker (distinct extraction keys over the same value, for
// instance), but each producer/consumer edge has exactly one channel and
// fanOut sends the producer's outcome onto it exactly once. received caches
// the first read of each producer within this call, keyed by producerKey
// independent of extraction key, so later occurrences reuse it instead of
// blocking on a channel nothing will ever send to again — the Go analogue
// of the original storing each received value at a fixed result-list index
// reusable by every subsequent reference (_execution.py expand_args).
func (w *worker) materialize(ctx context.Context, consumerKey string, args graph.Args, recvCost map[string]time.Duration) (graph.Args, *taskresult.Err) {
	var depErr *taskresult.Err
	received := make(map[string]channelMsg)

	materialized := graph.Transform(args, func(d graph.Dependency) any {
		if depErr != nil {
			return nil
		}

		producerKey := graph.Key(d.TaskID)

		var value any
		var err *taskresult.Err
		if w.placement[producerKey].Worker == w.id {
			out, ok := w.local[producerKey]
			if !ok {
				// Unreachable under a correctly-placed schedule: HEFT
				// guarantees a same-worker producer starts before its
				// consumer, so it is always already in w.local.
				err = taskresult.TimeoutErr(consumerKey)
			} else if out.Err != nil {
				err = taskresult.DependencyErr(consumerKey)
			} else {
				value = out.Value
			}
		} else {
			msg, ok := received[producerKey]
			if !ok {
				recvStart := time.Now()
				ch := w.channels[edgeKey{Producer: producerKey, Consumer: consumerKey}]
				m, recvErr := recv(ctx, ch, w.perReadTimeout)
				if w.costs {
					recvCost[producerKey] = time.Since(recvStart)
				}
				if recvErr != nil {
					err = taskresult.TimeoutErr(consumerKey)
				} else {
					msg = m
					received[producerKey] = msg
				}
			}
			if err == nil {
				if msg.Err != nil {
					err = taskresult.DependencyErr(consumerKey)
				} else {
					value = msg.Value
				}
			}
		}

		if err != nil {
			depErr = err
			return nil
		}
		return extract(value, d.Key)
	})

	return materialized, depErr
}

// recv blocks on ch, bounded by timeout (if positive) and ctx.
func recv(ctx context.Context, ch chan channelMsg, timeout time.Duration) (channelMsg, error) {
	if timeout <= 0 {
		select {
		case msg := <-ch:
			return msg, nil
		case <-ctx.Done():
			return channelMsg{}, ctx.Err()
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case msg := <-ch:
		return msg, nil
	case <-timer.C:
		return channelMsg{}, context.DeadlineExceeded
	case <-ctx.Done():
		return channelMsg{}, ctx.Err()
	}
}

// extract applies an optional extraction key to a fetched dependency
// value: nil uses the value as-is, a single token performs one lookup,
// and a []any of tokens performs successive lookups.
func extract(value any, key any) any {
	switch k := key.(type) {
	case nil:
		return value
	case []any:
		cur := value
		for _, tok := range k {
			cur = lookup(cur, tok)
		}
		return cur
	default:
		return lookup(value, k)
	}
}

func lookup(value any, tok any) any {
	switch v := value.(type) {
	case map[string]any:
		if s, ok := tok.(string); ok {
			return v[s]
		}
	case []any:
		if i, ok := tok.(int); ok && i >= 0 && i < len(v) {
			return v[i]
		}
	}
	return nil
}

// fanOut pushes a finished task's outcome onto every cross-worker channel
// a downstream consumer is waiting on.
func (w *worker) fanOut(producerKey string, outcome taskresult.Outcome) {
	msg := channelMsg{Value: outcome.Value, Err: outcome.Err}
	for ek, ch := range w.channels {
		if ek.Producer == producerKey {
			ch <- msg
		}
	}
}

package matcher

import (
	"context"
	"maps"
	"sync"

	"github.com/hetulpatel/arbmatch/internal/embedstore"
)

type job struct {
	id   string
	done chan evaluation
}

// runPool evaluates queue on m.workers goroutines against a frozen view of the
// matched set and hands results to emit in queue order. A result whose query or
// any ranked candidate was matched after the view was frozen is re-evaluated
// inline, so the output equals a sequential run.
func (m *Matcher) runPool(ctx context.Context, snap embedstore.Snapshot, queue []string, emit func(evaluation) bool) {
	frozen := maps.Clone(m.matched)
	excluded := func(id string) bool {
		_, ok := frozen[id]
		return ok
	}

	ctx, cancel := context.WithCancel(ctx)
	jobs := make(chan job)
	order := make(chan job, m.workers)

	var wg sync.WaitGroup
	for range m.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				j.done <- m.evaluate(ctx, snap, j.id, excluded)
			}
		}()
	}
	defer func() {
		cancel()
		wg.Wait()
	}()

	go func() {
		defer close(jobs)
		defer close(order)
		for _, id := range queue {
			j := job{id: id, done: make(chan evaluation, 1)}
			select {
			case order <- j:
			case <-ctx.Done():
				return
			}
			select {
			case jobs <- j:
			case <-ctx.Done():
				return
			}
		}
	}()

	for j := range order {
		var ev evaluation
		select {
		case ev = <-j.done:
		case <-ctx.Done():
			return
		}
		if m.stale(ev) {
			ev = m.evaluate(ctx, snap, ev.id, m.isMatched)
		}
		if !emit(ev) {
			return
		}
	}
}

func (m *Matcher) stale(ev evaluation) bool {
	if m.isMatched(ev.id) {
		return true
	}
	for _, id := range ev.considered {
		if m.isMatched(id) {
			return true
		}
	}
	return false
}

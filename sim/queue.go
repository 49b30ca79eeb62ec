package sim

import "container/heap"

// scheduledCallback is a function queued to run at a future tick, optionally
// recurring with a fixed period.
type scheduledCallback struct {
	due       int64
	seq       uint64
	fn        func(tick int64)
	recurring bool
	period    int64
}

// callbackHeap orders scheduled callbacks by (due, seq) so that callbacks
// sharing a due tick fire in insertion order.
type callbackHeap []*scheduledCallback

func (h callbackHeap) Len() int { return len(h) }

func (h callbackHeap) Less(i, j int) bool {
	if h[i].due != h[j].due {
		return h[i].due < h[j].due
	}
	return h[i].seq < h[j].seq
}

func (h callbackHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *callbackHeap) Push(x any) { *h = append(*h, x.(*scheduledCallback)) }

func (h *callbackHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return c
}

// callbackQueue implements the scheduled-callback phase of the tick loop.
type callbackQueue struct {
	h   callbackHeap
	seq uint64
}

// schedule inserts a callback due delay ticks from the current tick. A
// recurring callback re-fires every delay ticks after its first due tick.
func (q *callbackQueue) schedule(current int64, fn func(tick int64), delay int64, recurring bool) {
	if fn == nil {
		panic("sim: scheduled callback must not be nil")
	}
	if delay < 0 {
		panic("sim: scheduled callback delay must not be negative")
	}
	if recurring && delay < 1 {
		panic("sim: recurring callback period must be at least 1")
	}
	heap.Push(&q.h, &scheduledCallback{due: current + delay, seq: q.seq, fn: fn, recurring: recurring, period: delay})
	q.seq++
}

// fire pops and runs every callback due at or before the tick passed, in
// (due, seq) order. Callbacks scheduled while firing are held back until the
// next tick even when their due tick is the current one: the sequence
// barrier taken at the start of the phase excludes them from this round.
// Recurring callbacks are re-inserted with their due tick advanced by one
// period. Returns the number of callbacks fired.
func (q *callbackQueue) fire(tick int64) int {
	barrier := q.seq
	fired := 0
	for q.h.Len() > 0 {
		top := q.h[0]
		if top.due > tick || (top.due == tick && top.seq >= barrier) {
			break
		}
		heap.Pop(&q.h)
		top.fn(tick)
		fired++
		if top.recurring {
			heap.Push(&q.h, &scheduledCallback{due: top.due + top.period, seq: q.seq, fn: top.fn, recurring: true, period: top.period})
			q.seq++
		}
	}
	return fired
}

package sim

import "container/heap"

// scheduled is an event waiting in the environment's queue.
type scheduled struct {
	at    int64
	seq   int64
	event *Event
}

// eventQueue is a min-heap ordered by (at, seq).
// Ties on time fall back to scheduling order, giving FIFO resumption for
// events that fire at the same simulated instant.
type eventQueue []scheduled

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seq < q[j].seq
}

func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x any) {
	*q = append(*q, x.(scheduled))
}

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	// Nil out the slot so the popped event can be collected.
	old[n-1] = scheduled{}
	*q = old[:n-1]
	return item
}

func (q *eventQueue) push(item scheduled) {
	heap.Push(q, item)
}

func (q *eventQueue) pop() scheduled {
	return heap.Pop(q).(scheduled)
}

func (q eventQueue) peek() (scheduled, bool) {
	if len(q) == 0 {
		return scheduled{}, false
	}
	return q[0], true
}

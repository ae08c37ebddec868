// Implements the WaitQueue, which holds all customers waiting for a server.
// Customers are enqueued on arrival and leave either by being assigned to a
// server or by abandoning once their wait reaches their tolerance.

package sim

import (
	"container/list"
	"fmt"
	"strings"
)

// Customer is a single waiting customer.
type Customer struct {
	ID        int64 // monotonically increasing, never reused
	Tolerance int64 // max ticks the customer will wait
	Waited    int64 // ticks spent waiting so far
}

func (c Customer) String() string {
	return fmt.Sprintf("#%d(%d/%d)", c.ID, c.Waited, c.Tolerance)
}

// Outcome is the fate of a customer during one queue sweep.
type Outcome int

const (
	// Waiting keeps the customer in the queue.
	Waiting Outcome = iota
	// Assigned removes the customer because a server took it.
	Assigned
	// Abandoned removes the customer because its wait reached its tolerance.
	Abandoned
)

// SweepResult counts the outcomes of one Sweep.
type SweepResult struct {
	Assigned  int
	Waiting   int
	Abandoned int
	// Emptied is true when the sweep started non-empty and removed everyone.
	Emptied bool
}

// WaitQueue represents a FIFO queue of customers with a fixed capacity.
// Customers are also indexed by ID so RemoveByKey does not scan.
type WaitQueue struct {
	capacity int
	order    *list.List // of *Customer, arrival order
	index    map[int64]*list.Element
}

// NewWaitQueue creates an empty queue holding at most capacity customers.
func NewWaitQueue(capacity int) *WaitQueue {
	if capacity < 0 {
		panic(fmt.Sprintf("NewWaitQueue: capacity must be >= 0, got %d", capacity))
	}
	return &WaitQueue{
		capacity: capacity,
		order:    list.New(),
		index:    make(map[int64]*list.Element),
	}
}

// Enqueue appends a new customer at the tail.
// Returns false, leaving the queue unchanged, when the queue is full.
func (wq *WaitQueue) Enqueue(id, tolerance int64) bool {
	if wq.Full() {
		return false
	}
	if _, dup := wq.index[id]; dup {
		panic(fmt.Sprintf("Enqueue: customer %d already queued", id))
	}
	wq.index[id] = wq.order.PushBack(&Customer{ID: id, Tolerance: tolerance})
	return true
}

// RemoveByKey removes the customer with the given id.
// Returns false if no such customer is queued.
func (wq *WaitQueue) RemoveByKey(id int64) bool {
	e, ok := wq.index[id]
	if !ok {
		return false
	}
	wq.remove(e)
	return true
}

func (wq *WaitQueue) remove(e *list.Element) {
	c := wq.order.Remove(e).(*Customer)
	delete(wq.index, c.ID)
}

// Sweep visits every queued customer front to back exactly once and applies
// the outcome fn returns. Assigned and Abandoned customers are removed in
// place; the cursor moves to the successor captured before fn ran, so a
// removal never skips or revisits a customer.
//
// fn MUST NOT call Enqueue or RemoveByKey on wq.
func (wq *WaitQueue) Sweep(fn func(c *Customer) Outcome) SweepResult {
	if fn == nil {
		panic("Sweep: fn must not be nil")
	}
	var res SweepResult
	start := wq.order.Len()
	for e := wq.order.Front(); e != nil; {
		next := e.Next()
		switch outcome := fn(e.Value.(*Customer)); outcome {
		case Assigned:
			wq.remove(e)
			res.Assigned++
		case Abandoned:
			wq.remove(e)
			res.Abandoned++
		case Waiting:
			res.Waiting++
		default:
			panic(fmt.Sprintf("Sweep: unknown outcome %d", outcome))
		}
		e = next
	}
	res.Emptied = start > 0 && wq.order.Len() == 0
	return res
}

// Len returns the number of customers in the queue.
func (wq *WaitQueue) Len() int {
	return wq.order.Len()
}

// Cap returns the queue capacity.
func (wq *WaitQueue) Cap() int {
	return wq.capacity
}

// Full reports whether another Enqueue would be rejected.
func (wq *WaitQueue) Full() bool {
	return wq.order.Len() >= wq.capacity
}

// Peek returns a copy of the customer at the front of the queue.
// ok is false if the queue is empty.
func (wq *WaitQueue) Peek() (c Customer, ok bool) {
	front := wq.order.Front()
	if front == nil {
		return Customer{}, false
	}
	return *front.Value.(*Customer), true
}

// Snapshot returns copies of the queued customers in arrival order.
func (wq *WaitQueue) Snapshot() []Customer {
	out := make([]Customer, 0, wq.order.Len())
	for e := wq.order.Front(); e != nil; e = e.Next() {
		out = append(out, *e.Value.(*Customer))
	}
	return out
}

func (wq *WaitQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for e := wq.order.Front(); e != nil; e = e.Next() {
		sb.WriteString(e.Value.(*Customer).String())
		if e.Next() != nil {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}

package queue

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

var _ Queue[int] = (*Bounded[int])(nil)

// Bounded is a fixed-capacity blocking FIFO queue safe for use by any
// number of producer and consumer goroutines.
//
// Insert blocks while the queue is full and Remove blocks while it is empty.
// The Try variants bound that wait by a timeout and report whether the
// operation happened; a timed-out call leaves the queue unchanged.
//
// The untimed Insert and Remove cannot be cancelled: they return only once
// a complementary Remove or Insert runs. A Remove on a queue nobody will
// ever feed blocks its goroutine forever.
//
// A Bounded must not be copied after first use.
type Bounded[T any] struct {
	mu       sync.Mutex
	notFull  waitCond // gates Insert
	notEmpty waitCond // gates Remove
	items    *ring[T]

	count    atomic.Int64 // mirrors items.size for lock-free Count
	capacity int
}

// New creates an empty queue holding at most capacity items.
// It returns an error wrapping ErrInvalidCapacity if capacity is not positive.
func New[T any](capacity int) (*Bounded[T], error) {
	if capacity <= 0 {
		return nil, errors.Wrapf(ErrInvalidCapacity, "capacity %d", capacity)
	}

	return &Bounded[T]{
		items:    newRing[T](capacity),
		capacity: capacity,
	}, nil
}

// MustNew is like New but panics if capacity is not positive.
func MustNew[T any](capacity int) *Bounded[T] {
	q, err := New[T](capacity)
	if err != nil {
		panic(err)
	}
	return q
}

// Insert adds item to the back of the queue, blocking while it is full.
func (q *Bounded[T]) Insert(item T) {
	q.mu.Lock()
	for q.items.full() {
		q.notFull.wait(&q.mu, nil)
	}
	q.push(item)
	q.mu.Unlock()
}

// TryInsert adds item to the back of the queue if capacity frees up within
// timeout. A timeout <= 0 makes a single attempt without waiting.
// It returns false, and does not store item, if the queue stayed full.
func (q *Bounded[T]) TryInsert(item T, timeout time.Duration) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.await(&q.notFull, q.items.full, timeout) {
		return false
	}
	q.push(item)
	return true
}

// Remove detaches and returns the item at the front of the queue,
// blocking while it is empty.
func (q *Bounded[T]) Remove() T {
	q.mu.Lock()
	for q.items.empty() {
		q.notEmpty.wait(&q.mu, nil)
	}
	item := q.pop()
	q.mu.Unlock()
	return item
}

// TryRemove detaches and returns the front item if one arrives within
// timeout. A timeout <= 0 makes a single attempt without waiting.
// It returns (zero, false) if the queue stayed empty.
func (q *Bounded[T]) TryRemove(timeout time.Duration) (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.await(&q.notEmpty, q.items.empty, timeout) {
		var zero T
		return zero, false
	}
	return q.pop(), true
}

// Count returns the number of buffered items without taking the lock.
// The value is a snapshot and may be stale by the time it is used.
func (q *Bounded[T]) Count() int {
	return int(q.count.Load())
}

// Cap returns the fixed capacity of the queue.
func (q *Bounded[T]) Cap() int {
	return q.capacity
}

// await waits on c until blocked reports false or timeout elapses.
// q.mu must be held. It returns false if the queue is still blocked.
func (q *Bounded[T]) await(c *waitCond, blocked func() bool, timeout time.Duration) bool {
	if !blocked() {
		return true
	}
	if timeout <= 0 {
		return false
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for blocked() {
		if !c.wait(&q.mu, timer.C) {
			return !blocked()
		}
	}
	return true
}

func (q *Bounded[T]) push(item T) {
	q.items.pushBack(item)
	q.count.Add(1)
	q.notEmpty.signal()
}

func (q *Bounded[T]) pop() T {
	item := q.items.popFront()
	q.count.Add(-1)
	q.notFull.signal()
	return item
}

package queue

import (
	"container/list"
	"sync"
	"time"
)

type waiter chan struct{}

func newWaiter() any {
	return make(waiter, 1)
}

// waitCond is a condition variable whose Wait can be bounded by a deadline.
// Waiters are queued in arrival order and signal wakes the oldest one.
//
// All methods must be called with the associated mutex held.
// The zero value is ready for use.
type waitCond struct {
	waiters    list.List
	waiterPool sync.Pool
}

// wait atomically unlocks mu and suspends the calling goroutine until
// signal picks it or deadline fires. mu is locked again before wait returns.
//
// A nil deadline waits without bound. The result is false only when the
// deadline fired; the caller must re-check its predicate either way, and
// must not wait on the same deadline again after a false result.
func (c *waitCond) wait(mu *sync.Mutex, deadline <-chan time.Time) bool {
	if c.waiterPool.New == nil {
		c.waiterPool.New = newWaiter
	}

	w := c.waiterPool.Get().(waiter)
	elem := c.waiters.PushBack(w)
	mu.Unlock()

	select {
	case <-w:
		c.waiterPool.Put(w)
		mu.Lock()
		return true

	case <-deadline:
		mu.Lock()
		select {
		case <-w:
			// Signalled while the deadline fired. signal already unlinked us;
			// the caller's predicate check decides whether the wake is used.
		default:
			c.waiters.Remove(elem)
		}
		c.waiterPool.Put(w)
		return false
	}
}

// signal wakes the oldest waiter, if any.
func (c *waitCond) signal() {
	front := c.waiters.Front()
	if front == nil {
		return
	}
	w := c.waiters.Remove(front).(waiter)
	w <- struct{}{}
}

// len reports the number of suspended waiters.
func (c *waitCond) len() int {
	return c.waiters.Len()
}

package queue

import "time"

// Queue is a generic interface for bounded FIFO queues that hand elements
// from producers over to consumers.
type Queue[T any] interface {
	// Insert adds an item to the back of the queue.
	// Blocks while the queue is full.
	Insert(item T)

	// TryInsert adds an item, waiting at most timeout for free capacity.
	// Returns false if the queue stayed full; the item is not stored.
	TryInsert(item T, timeout time.Duration) bool

	// Remove removes and returns the item at the front of the queue.
	// Blocks while the queue is empty.
	Remove() T

	// TryRemove removes the front item, waiting at most timeout for one.
	// Returns (zero, false) if the queue stayed empty.
	TryRemove(timeout time.Duration) (T, bool)

	// Count returns the number of buffered items.
	Count() int

	// Cap returns the total capacity of the queue.
	Cap() int
}

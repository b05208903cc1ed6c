package queue

// ring is a fixed-size circular buffer of values.
// It is NOT thread-safe.
type ring[T any] struct {
	buf  []T // backing array, length == capacity
	head int // index of the first element
	size int // number of elements in the ring
}

func newRing[T any](capacity int) *ring[T] {
	return &ring[T]{buf: make([]T, capacity)}
}

func (r *ring[T]) full() bool  { return r.size == len(r.buf) }
func (r *ring[T]) empty() bool { return r.size == 0 }

// pushBack appends v. The caller must check full() first.
func (r *ring[T]) pushBack(v T) {
	tail := r.head + r.size
	if tail >= len(r.buf) {
		tail -= len(r.buf)
	}
	r.buf[tail] = v
	r.size++
}

// popFront detaches the first element and clears its slot.
// The caller must check empty() first.
func (r *ring[T]) popFront() T {
	var zero T
	v := r.buf[r.head]
	r.buf[r.head] = zero // drop the reference
	r.head++
	if r.head == len(r.buf) {
		r.head = 0
	}
	r.size--
	return v
}

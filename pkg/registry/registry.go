// Package registry hands out one process-wide queue per element type.
//
// It is a convenience for drivers that want producers and consumers to meet
// on a queue without passing it around. The queue package knows nothing
// about it.
package registry

import (
	"reflect"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/huynhanx03/go-timedqueue/pkg/datastructs/queue"
)

var (
	mu     sync.Mutex
	queues = make(map[reflect.Type]any)

	logger atomic.Pointer[zap.Logger]
)

// SetLogger sets the logger used to report capacity mismatches.
func SetLogger(l *zap.Logger) {
	logger.Store(l)
}

// Shared returns the queue for element type T, creating it with capacity on
// first use. Later calls return the same queue whatever capacity they pass.
func Shared[T any](capacity int) (*queue.Bounded[T], error) {
	key := reflect.TypeOf((*T)(nil)).Elem()

	mu.Lock()
	defer mu.Unlock()

	if existing, ok := queues[key]; ok {
		q := existing.(*queue.Bounded[T])
		if q.Cap() != capacity {
			if l := logger.Load(); l != nil {
				l.Warn("shared queue already exists with a different capacity",
					zap.Stringer("type", key),
					zap.Int("capacity", q.Cap()),
					zap.Int("requested", capacity))
			}
		}
		return q, nil
	}

	q, err := queue.New[T](capacity)
	if err != nil {
		return nil, err
	}
	queues[key] = q
	return q, nil
}

// Reset forgets every shared queue. Goroutines still holding one keep using it.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	clear(queues)
}

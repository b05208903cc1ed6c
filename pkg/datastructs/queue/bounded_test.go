package queue

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance check
var _ Queue[string] = (*Bounded[string])(nil)

// waitBlocked waits until n goroutines are suspended on c.
func waitBlocked[T any](t *testing.T, q *Bounded[T], c *waitCond, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		q.mu.Lock()
		defer q.mu.Unlock()
		return c.len() == n
	}, time.Second, time.Millisecond)
}

// =============================================================================
// Constructor Tests
// =============================================================================

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		wantErr  bool
	}{
		{"one", 1, false},
		{"power_of_two", 64, false},
		{"not_power_of_two", 100, false},
		{"zero", 0, true},
		{"negative", -5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := New[int](tt.capacity)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidCapacity))
				assert.Nil(t, q)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.capacity, q.Cap())
			assert.Equal(t, 0, q.Count())
		})
	}
}

func TestMustNew_PanicsOnZeroCapacity(t *testing.T) {
	assert.Panics(t, func() { MustNew[int](0) })
	assert.NotPanics(t, func() { MustNew[int](1) })
}

// =============================================================================
// Count / FIFO Tests
// =============================================================================

func TestInsertRemove_Count(t *testing.T) {
	q := MustNew[int](32)
	assert.Equal(t, 0, q.Count())

	for i := 0; i < 3; i++ {
		q.Insert(i)
	}
	assert.Equal(t, 3, q.Count())

	q.Remove()
	q.Remove()
	assert.Equal(t, 1, q.Count())
}

func TestRemove_FIFOOrder(t *testing.T) {
	q := MustNew[int](8)

	// wrap the ring a few times
	next := 0
	for round := 0; round < 5; round++ {
		for i := 0; i < 6; i++ {
			q.Insert(round*10 + i)
		}
		for i := 0; i < 6; i++ {
			want := next/6*10 + next%6
			assert.Equal(t, want, q.Remove())
			next++
		}
	}
	assert.Equal(t, 0, q.Count())
}

func TestRemove_ClearsSlot(t *testing.T) {
	q := MustNew[*int](2)
	v := 7
	q.Insert(&v)

	got := q.Remove()
	require.Same(t, &v, got)
	for _, slot := range q.items.buf {
		assert.Nil(t, slot)
	}
}

func TestCapacityAndConservation(t *testing.T) {
	const capacity = 5
	q := MustNew[int](capacity)

	inserted, removed := 0, 0
	ops := []bool{true, true, true, false, true, true, true, true, false, false, true, false}
	for _, insert := range ops {
		if insert {
			if q.TryInsert(inserted, 0) {
				inserted++
			}
		} else {
			if _, ok := q.TryRemove(0); ok {
				removed++
			}
		}
		assert.GreaterOrEqual(t, q.Count(), 0)
		assert.LessOrEqual(t, q.Count(), capacity)
		assert.Equal(t, inserted-removed, q.Count())
	}
}

// =============================================================================
// Try (non-waiting) Tests
// =============================================================================

func TestTryInsert_ZeroTimeout(t *testing.T) {
	q := MustNew[int](2)

	assert.True(t, q.TryInsert(1, 0))
	assert.True(t, q.TryInsert(2, 0))
	assert.False(t, q.TryInsert(3, 0))
	assert.False(t, q.TryInsert(3, -time.Second))
	assert.Equal(t, 2, q.Count())

	assert.Equal(t, 1, q.Remove())
	assert.Equal(t, 2, q.Remove())
}

func TestTryRemove_ZeroTimeout(t *testing.T) {
	q := MustNew[string](2)

	v, ok := q.TryRemove(0)
	assert.False(t, ok)
	assert.Equal(t, "", v)

	q.Insert("a")
	v, ok = q.TryRemove(0)
	assert.True(t, ok)
	assert.Equal(t, "a", v)
	assert.Equal(t, 0, q.Count())
}

// =============================================================================
// Timeout Tests
// =============================================================================

func TestTryInsert_TimesOutOnFullQueue(t *testing.T) {
	const (
		capacity = 128
		timeout  = 200 * time.Millisecond
	)
	q := MustNew[int](capacity)
	for i := 0; i < capacity; i++ {
		q.Insert(i)
	}

	start := time.Now()
	ok := q.TryInsert(-1, timeout)
	elapsed := time.Since(start)

	assert.False(t, ok)
	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Less(t, elapsed, timeout+500*time.Millisecond)
	assert.Equal(t, capacity, q.Count())
	assert.Equal(t, 0, q.notFull.len(), "timed-out waiter must leave the wait list")

	for i := 0; i < capacity; i++ {
		assert.Equal(t, i, q.Remove())
	}
}

func TestTryInsert_TimesOutAfterOneSecond(t *testing.T) {
	if testing.Short() {
		t.Skip("slow timing test")
	}

	q := MustNew[int](128)
	for i := 0; i < 128; i++ {
		q.Insert(i)
	}

	start := time.Now()
	ok := q.TryInsert(42, time.Second)
	elapsed := time.Since(start)

	assert.False(t, ok)
	assert.InDelta(t, time.Second.Seconds(), elapsed.Seconds(), 0.1)
	assert.Equal(t, 128, q.Count())
}

func TestTryRemove_TimesOutOnEmptyQueue(t *testing.T) {
	const timeout = 200 * time.Millisecond
	q := MustNew[int](128)

	start := time.Now()
	v, ok := q.TryRemove(timeout)
	elapsed := time.Since(start)

	assert.False(t, ok)
	assert.Equal(t, 0, v)
	assert.GreaterOrEqual(t, elapsed, timeout)
	assert.Equal(t, 0, q.Count())
	assert.Equal(t, 0, q.notEmpty.len())
}

func TestTryInsert_SucceedsWhenSpaceFrees(t *testing.T) {
	q := MustNew[int](1)
	q.Insert(1)

	done := make(chan bool, 1)
	go func() {
		done <- q.TryInsert(2, 5*time.Second)
	}()

	waitBlocked(t, q, &q.notFull, 1)
	assert.Equal(t, 1, q.Remove())

	select {
	case ok := <-done:
		assert.True(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("TryInsert did not wake after Remove")
	}
	assert.Equal(t, 2, q.Remove())
}

func TestTryRemove_SucceedsWhenItemArrives(t *testing.T) {
	q := MustNew[int](1)

	type result struct {
		v  int
		ok bool
	}
	done := make(chan result, 1)
	go func() {
		v, ok := q.TryRemove(5 * time.Second)
		done <- result{v, ok}
	}()

	waitBlocked(t, q, &q.notEmpty, 1)
	q.Insert(9)

	select {
	case r := <-done:
		assert.True(t, r.ok)
		assert.Equal(t, 9, r.v)
	case <-time.After(2 * time.Second):
		t.Fatal("TryRemove did not wake after Insert")
	}
	assert.Equal(t, 0, q.Count())
}

// TryInsert races its own deadline against a Remove that frees the slot.
// It must report true exactly when it took that slot.
func TestTryInsert_DeadlineRacesRemove(t *testing.T) {
	rounds := 2000
	if testing.Short() {
		rounds = 200
	}

	q := MustNew[int](1)
	for i := 0; i < rounds; i++ {
		q.Insert(1)

		done := make(chan bool, 1)
		go func() {
			done <- q.TryInsert(2, time.Millisecond)
		}()

		time.Sleep(time.Duration(i%4) * 300 * time.Microsecond)
		require.Equal(t, 1, q.Remove())
		ok := <-done

		require.Equal(t, ok, q.Count() == 1, "round %d", i)
		if ok {
			require.Equal(t, 2, q.Remove())
		}
		require.Equal(t, 0, q.notFull.len())
	}
}

// =============================================================================
// Blocking Tests
// =============================================================================

func TestInsert_BlocksUntilRemove(t *testing.T) {
	q := MustNew[int](1)
	q.Insert(1)

	var inserted atomic.Bool
	done := make(chan struct{})
	go func() {
		defer close(done)
		q.Insert(2)
		inserted.Store(true)
	}()

	waitBlocked(t, q, &q.notFull, 1)
	time.Sleep(20 * time.Millisecond)
	assert.False(t, inserted.Load(), "Insert returned while queue was full")
	assert.Equal(t, 1, q.Count())

	assert.Equal(t, 1, q.Remove())
	<-done
	assert.True(t, inserted.Load())
	assert.Equal(t, 2, q.Remove())
}

func TestRemove_BlocksUntilInsert(t *testing.T) {
	q := MustNew[int](4)

	got := make(chan int, 1)
	go func() {
		got <- q.Remove()
	}()

	waitBlocked(t, q, &q.notEmpty, 1)
	select {
	case v := <-got:
		t.Fatalf("Remove returned %d from an empty queue", v)
	default:
	}

	q.Insert(5)
	assert.Equal(t, 5, <-got)
}

func TestInsert_WakesOneRemoverPerItem(t *testing.T) {
	q := MustNew[int](4)
	const removers = 3

	got := make(chan int, removers)
	for i := 0; i < removers; i++ {
		go func() { got <- q.Remove() }()
	}
	waitBlocked(t, q, &q.notEmpty, removers)

	q.Insert(1)
	first := <-got
	assert.Equal(t, 1, first)
	waitBlocked(t, q, &q.notEmpty, removers-1)

	q.Insert(2)
	q.Insert(3)
	seen := map[int]bool{first: true, <-got: true, <-got: true}
	assert.Len(t, seen, 3)
}

func TestCount_DoesNotBlock(t *testing.T) {
	q := MustNew[int](1)

	// hold the lock as if a long critical section were running
	q.mu.Lock()
	defer q.mu.Unlock()

	done := make(chan int, 1)
	go func() { done <- q.Count() }()

	select {
	case n := <-done:
		assert.Equal(t, 0, n)
	case <-time.After(time.Second):
		t.Fatal("Count blocked on the queue lock")
	}
}

// =============================================================================
// Concurrency Tests
// =============================================================================

func TestConcurrency_PushPopCount(t *testing.T) {
	q := MustNew[int](32)

	var wg sync.WaitGroup
	for p := 0; p < 2; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 3; i++ {
				q.Insert(i)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 6, q.Count())

	for c := 0; c < 2; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 2; i++ {
				q.Remove()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 2, q.Count())
}

func TestConcurrency_SPSCOrder(t *testing.T) {
	const n = 10000
	q := MustNew[int](1)

	go func() {
		for i := 0; i < n; i++ {
			q.Insert(i)
		}
	}()

	for i := 0; i < n; i++ {
		require.Equal(t, i, q.Remove())
	}
}

func TestConcurrency_XORChecksum(t *testing.T) {
	tests := []struct {
		name      string
		capacity  int
		producers int
		consumers int
		perProd   int
		timed     bool
	}{
		{"blocking_cap1", 1, 4, 4, 2000, false},
		{"blocking_cap128", 128, 8, 3, 5000, false},
		{"timed_cap4", 4, 4, 4, 2000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := MustNew[uint64](tt.capacity)
			total := tt.producers * tt.perProd

			var (
				pushed, popped atomic.Uint64
				removed        atomic.Int64
				seen           sync.Map
				wg             sync.WaitGroup
			)

			for p := 0; p < tt.producers; p++ {
				wg.Add(1)
				go func(p int) {
					defer wg.Done()
					for i := 0; i < tt.perProd; i++ {
						v := uint64(p)<<32 | uint64(i)
						if tt.timed {
							insertRetrying(q, v)
						} else {
							q.Insert(v)
						}
						xorInto(&pushed, v)
					}
				}(p)
			}

			for c := 0; c < tt.consumers; c++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for removed.Add(1) <= int64(total) {
						var v uint64
						if tt.timed {
							v = removeRetrying(q)
						} else {
							v = q.Remove()
						}
						if _, dup := seen.LoadOrStore(v, struct{}{}); dup {
							t.Errorf("value %#x removed twice", v)
						}
						xorInto(&popped, v)
					}
				}()
			}

			wg.Wait()
			assert.Equal(t, pushed.Load(), popped.Load())
			assert.Equal(t, 0, q.Count())
		})
	}
}

// insertRetrying retries a timed insert the way a load driver does after a miss.
func insertRetrying(q *Bounded[uint64], v uint64) {
	for !q.TryInsert(v, time.Millisecond) {
		continue
	}
}

func removeRetrying(q *Bounded[uint64]) uint64 {
	for {
		if v, ok := q.TryRemove(time.Millisecond); ok {
			return v
		}
	}
}

func xorInto(dst *atomic.Uint64, v uint64) {
	for {
		old := dst.Load()
		if dst.CompareAndSwap(old, old^v) {
			return
		}
	}
}

// =============================================================================
// Generic Type Tests
// =============================================================================

func TestBounded_StructType(t *testing.T) {
	type heavyItem struct {
		id    int
		array [255]int64
	}

	q := MustNew[heavyItem](2)
	item := heavyItem{id: 3}
	item.array[254] = 99
	q.Insert(item)

	got := q.Remove()
	assert.Equal(t, 3, got.id)
	assert.Equal(t, int64(99), got.array[254])
}

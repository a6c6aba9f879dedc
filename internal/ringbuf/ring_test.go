package ringbuf

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRing_EvictsOldest(t *testing.T) {
	r := New[int](4)

	// HWM+1 pushes: the first value is evicted.
	for i := 1; i <= 5; i++ {
		evicted := r.Push(i)
		if wantEvict := i == 5; evicted != wantEvict {
			t.Errorf("Push(%d) evicted = %v, want %v", i, evicted, wantEvict)
		}
	}

	if r.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", r.Len())
	}
	if r.Dropped() != 1 {
		t.Errorf("Dropped() = %d, want 1", r.Dropped())
	}

	for want := 2; want <= 5; want++ {
		got, ok := r.TryPop()
		if !ok || got != want {
			t.Errorf("TryPop() = %d, %v; want %d, true", got, ok, want)
		}
	}
	if _, ok := r.TryPop(); ok {
		t.Error("TryPop() on empty ring should report false")
	}
}

func TestRing_ManyOverflows(t *testing.T) {
	r := New[int](3)
	for i := 0; i < 100; i++ {
		r.Push(i)
	}
	for want := 97; want < 100; want++ {
		got, _ := r.TryPop()
		if got != want {
			t.Errorf("got %d, want %d", got, want)
		}
	}
	if r.Dropped() != 97 {
		t.Errorf("Dropped() = %d, want 97", r.Dropped())
	}
}

func TestRing_SnapshotKeepsEntries(t *testing.T) {
	r := New[int](3)
	if got := r.Snapshot(); got != nil {
		t.Errorf("Snapshot() of empty ring = %v, want nil", got)
	}

	for i := 1; i <= 5; i++ {
		r.Push(i)
	}
	got := r.Snapshot()
	want := []int{3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("Snapshot() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Snapshot()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
	if r.Len() != 3 {
		t.Errorf("Snapshot removed entries: Len() = %d", r.Len())
	}
}

func TestRing_MinimumCapacity(t *testing.T) {
	r := New[string](0)
	if r.Cap() != 1 {
		t.Fatalf("Cap() = %d, want 1", r.Cap())
	}
	r.Push("a")
	r.Push("b")
	got, _ := r.TryPop()
	if got != "b" {
		t.Errorf("got %q, want newest entry %q", got, "b")
	}
}

func TestRing_PopBlocksUntilPush(t *testing.T) {
	r := New[int](2)
	result := make(chan int, 1)

	go func() {
		v, err := r.Pop(context.Background())
		if err != nil {
			t.Errorf("Pop failed: %v", err)
		}
		result <- v
	}()

	time.Sleep(20 * time.Millisecond)
	r.Push(42)

	select {
	case v := <-result:
		if v != 42 {
			t.Errorf("Pop() = %d, want 42", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Pop did not return after Push")
	}
}

func TestRing_PopHonoursContext(t *testing.T) {
	r := New[int](2)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := r.Pop(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Pop() error = %v, want DeadlineExceeded", err)
	}
}

func TestRing_CloseDrainsThenFails(t *testing.T) {
	r := New[int](2)
	r.Push(1)
	r.Close()
	r.Push(2) // ignored after close

	v, err := r.Pop(context.Background())
	if err != nil || v != 1 {
		t.Fatalf("Pop() = %d, %v; want 1, nil", v, err)
	}
	if _, err := r.Pop(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Pop() error = %v, want ErrClosed", err)
	}
}

func TestRing_CloseWakesWaiters(t *testing.T) {
	r := New[int](2)
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.Pop(context.Background())
		}()
	}

	time.Sleep(20 * time.Millisecond)
	r.Close()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not wake blocked readers")
	}
}

func TestRing_ConcurrentWriterNeverBlocks(t *testing.T) {
	r := New[int](4)
	done := make(chan struct{})

	go func() {
		for i := 0; i < 10000; i++ {
			r.Push(i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("writer blocked on an unread ring")
	}
	if r.Len() != 4 {
		t.Errorf("Len() = %d, want 4", r.Len())
	}
}

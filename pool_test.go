package taskpool

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// shutdownWithin fails the test if Shutdown does not return in time.
func shutdownWithin(t *testing.T, p *Pool[int], d time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		p.Shutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatal("Shutdown did not return in time")
	}
}

func TestFIFOOrder(t *testing.T) {
	p := NewPool[int](Options{Workers: 1}, nil)

	gate := make(chan struct{})
	started := make(chan struct{})
	if err := p.Submit(Task[int]{Payload: -1, Fn: func(int) {
		close(started)
		<-gate
	}}); err != nil {
		t.Fatalf("submit blocker: %v", err)
	}
	<-started

	// All ten sit queued before the single worker dequeues any of them.
	var mu sync.Mutex
	var order []int
	executed := make(chan struct{}, 10)
	for i := 0; i < 10; i++ {
		err := p.Submit(Task[int]{Payload: i, Fn: func(n int) {
			mu.Lock()
			order = append(order, n)
			mu.Unlock()
			executed <- struct{}{}
		}})
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	close(gate)

	for i := 0; i < 10; i++ {
		select {
		case <-executed:
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d of 10 tasks executed", i)
		}
	}
	shutdownWithin(t, p, 2*time.Second)

	mu.Lock()
	defer mu.Unlock()
	for i, n := range order {
		if n != i {
			t.Fatalf("execution order = %v; want 0..9 in submission order", order)
		}
	}
}

func TestAllTasksRunOnceWithCleanup(t *testing.T) {
	m := &AtomicMetrics{}
	p := NewPool[int](Options{Workers: 4}, m)

	const n = 10
	var runs, cleanups [n]atomic.Int32
	executed := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		err := p.Submit(Task[int]{
			Payload: i,
			Fn: func(id int) {
				runs[id].Add(1)
				time.Sleep(50 * time.Millisecond)
				executed <- struct{}{}
			},
			Cleanup: func() { cleanups[i].Add(1) },
		})
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	for i := 0; i < n; i++ {
		select {
		case <-executed:
		case <-time.After(3 * time.Second):
			t.Fatalf("only %d of %d tasks executed", i, n)
		}
	}
	shutdownWithin(t, p, 2*time.Second)

	for i := 0; i < n; i++ {
		if got := runs[i].Load(); got != 1 {
			t.Errorf("task %d ran %d times; want 1", i, got)
		}
		if got := cleanups[i].Load(); got != 1 {
			t.Errorf("cleanup %d ran %d times; want 1", i, got)
		}
	}
	if got := m.Executed(); got != n {
		t.Errorf("executed metric = %d; want %d", got, n)
	}
	if got := m.Queued(); got != 0 {
		t.Errorf("queued metric after shutdown = %d; want 0", got)
	}
}

func TestShutdownEmptyPool(t *testing.T) {
	p := NewPool[int](Options{Workers: 4}, nil)
	shutdownWithin(t, p, time.Second)
}

func TestShutdownWaitsForInFlightTask(t *testing.T) {
	p := NewPool[int](Options{Workers: 1}, nil)

	started := make(chan struct{})
	var finished atomic.Bool
	err := p.Submit(Task[int]{Payload: 5, Fn: func(int) {
		close(started)
		time.Sleep(400 * time.Millisecond)
		finished.Store(true)
	}})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	<-started
	p.Shutdown()
	if !finished.Load() {
		t.Fatal("Shutdown returned before the in-flight task completed")
	}
}

func TestConcurrentProducers(t *testing.T) {
	p := NewPool[int](Options{Workers: 4, OnShutdown: DrainPending}, nil)

	const producers = 3
	const perProducer = 100
	var mu sync.Mutex
	seen := make(map[int]int)

	var producerWG sync.WaitGroup
	for pr := 0; pr < producers; pr++ {
		producerWG.Add(1)
		go func(base int) {
			defer producerWG.Done()
			for i := 0; i < perProducer; i++ {
				id := base*perProducer + i
				err := p.Submit(Task[int]{Payload: id, Fn: func(n int) {
					mu.Lock()
					seen[n]++
					mu.Unlock()
				}})
				if err != nil {
					t.Errorf("submit %d: %v", id, err)
					return
				}
			}
		}(pr)
	}
	producerWG.Wait()
	shutdownWithin(t, p, 5*time.Second)

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != producers*perProducer {
		t.Fatalf("executed %d unique ids; want %d", len(seen), producers*perProducer)
	}
	for id, count := range seen {
		if count != 1 {
			t.Fatalf("task %d executed %d times; want 1", id, count)
		}
	}
}

func TestSubmitAfterShutdown(t *testing.T) {
	p := NewPool[int](Options{Workers: 1}, nil)
	p.Shutdown()

	var ran atomic.Bool
	err := p.Submit(Task[int]{Payload: 1, Fn: func(int) { ran.Store(true) }})
	if !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("Submit after Shutdown = %v; want ErrPoolClosed", err)
	}
	time.Sleep(50 * time.Millisecond)
	if ran.Load() {
		t.Fatal("task executed after shutdown")
	}
}

func TestSubmitNilFunc(t *testing.T) {
	p := NewPool[int](Options{Workers: 1}, nil)
	defer p.Shutdown()

	if err := p.Submit(Task[int]{Payload: 1}); !errors.Is(err, ErrNilFunc) {
		t.Fatalf("Submit with nil Fn = %v; want ErrNilFunc", err)
	}
}

func TestDiscardPendingAtShutdown(t *testing.T) {
	m := &AtomicMetrics{}
	p := NewPool[int](Options{Workers: 1, OnShutdown: DiscardPending}, m)

	started := make(chan struct{})
	gate := make(chan struct{})
	_ = p.Submit(Task[int]{Payload: -1, Fn: func(int) {
		close(started)
		<-gate
	}})
	<-started

	var ran, cleaned atomic.Int32
	const pending = 3
	for i := 0; i < pending; i++ {
		_ = p.Submit(Task[int]{
			Payload: i,
			Fn:      func(int) { ran.Add(1) },
			Cleanup: func() { cleaned.Add(1) },
		})
	}

	shutdownDone := make(chan struct{})
	go func() {
		p.Shutdown()
		close(shutdownDone)
	}()
	time.Sleep(50 * time.Millisecond) // let Shutdown flip the flag
	close(gate)

	select {
	case <-shutdownDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not return with tasks still queued")
	}

	if got := ran.Load(); got != 0 {
		t.Fatalf("%d pending tasks executed after shutdown; want 0", got)
	}
	if got := cleaned.Load(); got != pending {
		t.Fatalf("cleanup ran %d times for discarded tasks; want %d", got, pending)
	}
	if got := m.Discarded(); got != pending {
		t.Fatalf("discarded metric = %d; want %d", got, pending)
	}
}

func TestDrainPendingAtShutdown(t *testing.T) {
	p := NewPool[int](Options{Workers: 1, OnShutdown: DrainPending}, nil)

	started := make(chan struct{})
	gate := make(chan struct{})
	_ = p.Submit(Task[int]{Payload: -1, Fn: func(int) {
		close(started)
		<-gate
	}})
	<-started

	var ran, cleaned atomic.Int32
	const pending = 3
	for i := 0; i < pending; i++ {
		_ = p.Submit(Task[int]{
			Payload: i,
			Fn:      func(int) { ran.Add(1) },
			Cleanup: func() { cleaned.Add(1) },
		})
	}

	shutdownDone := make(chan struct{})
	go func() {
		p.Shutdown()
		close(shutdownDone)
	}()
	time.Sleep(50 * time.Millisecond)
	close(gate)

	select {
	case <-shutdownDone:
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not return")
	}

	if got := ran.Load(); got != pending {
		t.Fatalf("%d pending tasks executed during drain; want %d", got, pending)
	}
	if got := cleaned.Load(); got != pending {
		t.Fatalf("cleanup ran %d times; want %d", got, pending)
	}
}

func TestDegradedCapacity(t *testing.T) {
	p := newPool[int](Options{Workers: 4}, nil)

	var startFailures atomic.Int32
	p.OnInternalError = func(error) { startFailures.Add(1) }

	realSpawn := p.spawn
	p.spawn = func(id int) error {
		if id%2 == 1 {
			return errors.New("no thread available")
		}
		return realSpawn(id)
	}
	p.start()

	if got := p.LiveWorkers(); got != 2 {
		t.Fatalf("LiveWorkers = %d; want 2", got)
	}
	if got := startFailures.Load(); got != 2 {
		t.Fatalf("internal error sink saw %d failures; want 2", got)
	}

	// The degraded pool still accepts and executes work.
	const n = 10
	executed := make(chan int, n)
	for i := 0; i < n; i++ {
		err := p.Submit(Task[int]{Payload: i, Fn: func(id int) { executed <- id }})
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	seen := make(map[int]bool)
	for i := 0; i < n; i++ {
		select {
		case id := <-executed:
			seen[id] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d of %d tasks executed on degraded pool", i, n)
		}
	}
	if len(seen) != n {
		t.Fatalf("executed %d unique ids; want %d", len(seen), n)
	}

	// Shutdown joins exactly the workers that started, without hanging.
	shutdownWithin(t, p, 2*time.Second)
}

func TestPanicRecoveryAndCleanup(t *testing.T) {
	p := NewPool[int](Options{Workers: 1}, nil)
	defer p.Shutdown()

	var panics atomic.Int32
	p.OnTaskPanic = func(any) { panics.Add(1) }

	var cleaned atomic.Int32
	secondDone := make(chan struct{})

	_ = p.Submit(Task[int]{
		Payload: 1,
		Fn:      func(int) { panic("boom") },
		Cleanup: func() { cleaned.Add(1) },
	})
	_ = p.Submit(Task[int]{
		Payload: 2,
		Fn:      func(int) { close(secondDone) },
		Cleanup: func() { cleaned.Add(1) },
	})

	select {
	case <-secondDone:
	case <-time.After(2 * time.Second):
		t.Fatal("second task did not run after first panicked")
	}
	time.Sleep(10 * time.Millisecond) // let the cleanup defer finish

	if got := panics.Load(); got != 1 {
		t.Fatalf("panic sink called %d times; want 1", got)
	}
	if got := cleaned.Load(); got != 2 {
		t.Fatalf("cleanup ran %d times; want 2", got)
	}
}

func TestShutdownIdempotent(t *testing.T) {
	p := NewPool[int](Options{Workers: 2}, nil)
	shutdownWithin(t, p, time.Second)
	shutdownWithin(t, p, time.Second)
}

package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestManualFrameOrdering(t *testing.T) {
	m := NewManual()
	var got []string

	m.Post(func() { got = append(got, "task") })
	m.RequestFrame(func() {
		got = append(got, "frame1")
		m.RequestFrame(func() { got = append(got, "frame2") })
		m.Post(func() { got = append(got, "posted-in-frame") })
	})

	m.Frame()
	want := []string{"task", "frame1", "posted-in-frame"}
	if !equal(got, want) {
		t.Fatalf("after first frame got %v, want %v", got, want)
	}

	m.Frame()
	if got[len(got)-1] != "frame2" {
		t.Errorf("second frame did not run nested request: %v", got)
	}
}

func TestManualCancel(t *testing.T) {
	m := NewManual()
	ran := false

	cancel := m.RequestFrame(func() { ran = true })
	cancel()
	cancel()
	m.Frame()
	if ran {
		t.Error("canceled frame callback ran")
	}

	cancel = m.After(time.Second, func() { ran = true })
	cancel()
	m.Advance(2 * time.Second)
	if ran {
		t.Error("canceled timer ran")
	}
	if tasks, frames, timers := m.Pending(); tasks+frames+timers != 0 {
		t.Errorf("Pending() = %d/%d/%d, want all zero", tasks, frames, timers)
	}
}

func TestManualAdvance(t *testing.T) {
	m := NewManual()
	var got []int

	m.After(300*time.Millisecond, func() { got = append(got, 300) })
	m.After(100*time.Millisecond, func() {
		got = append(got, 100)
		m.After(100*time.Millisecond, func() { got = append(got, 200) })
	})
	m.After(100*time.Millisecond, func() { got = append(got, 101) })

	m.Advance(250 * time.Millisecond)
	want := []int{100, 101, 200}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if m.Now() != 250*time.Millisecond {
		t.Errorf("Now() = %v, want 250ms", m.Now())
	}

	m.Advance(50 * time.Millisecond)
	if got[len(got)-1] != 300 {
		t.Errorf("timer at 300ms did not fire: %v", got)
	}
}

func TestLoopRunsCallbacks(t *testing.T) {
	l := NewLoop(WithFrameInterval(time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(3)
	var order []string
	var mu sync.Mutex
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
		wg.Done()
	}

	l.Post(func() { record("post") })
	l.RequestFrame(func() { record("frame") })
	l.After(5*time.Millisecond, func() { record("timer") })

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	waitTimeout(t, &wg, time.Second)
	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
	if l.Running() {
		t.Error("Running() = true after Run returned")
	}
	if err := l.Run(context.Background()); err != ErrStopped {
		t.Errorf("second Run() = %v, want ErrStopped", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 || order[0] != "post" {
		t.Errorf("order = %v, want post first", order)
	}
}

func TestLoopRecoversPanics(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var ran atomic.Bool
	l.Post(func() { panic("boom") })
	l.Post(func() { ran.Store(true) })

	go l.Run(ctx)

	deadline := time.Now().Add(time.Second)
	for !ran.Load() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if !ran.Load() {
		t.Fatal("task after panic did not run")
	}
}

func TestLoopAfterCancel(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	var ran atomic.Bool
	stop := l.After(10*time.Millisecond, func() { ran.Store(true) })
	stop()
	time.Sleep(30 * time.Millisecond)
	if ran.Load() {
		t.Error("canceled timer ran")
	}
}

func waitTimeout(t *testing.T, wg *sync.WaitGroup, d time.Duration) {
	t.Helper()
	ch := make(chan struct{})
	go func() {
		wg.Wait()
		close(ch)
	}()
	select {
	case <-ch:
	case <-time.After(d):
		t.Fatal("timed out waiting for callbacks")
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

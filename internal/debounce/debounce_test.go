package debounce

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduleKeepsLastCall(t *testing.T) {
	d := New(50 * time.Millisecond)

	var mu sync.Mutex
	var got []int
	done := make(chan struct{})
	for i := 1; i <= 3; i++ {
		v := i
		d.Schedule("m1", func() {
			mu.Lock()
			got = append(got, v)
			mu.Unlock()
			if v == 3 {
				close(done)
			}
		})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced call never ran")
	}
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != 3 {
		t.Errorf("calls = %v, want [3]", got)
	}
}

func TestKeysAreIndependent(t *testing.T) {
	d := New(time.Hour)
	var a, b atomic.Int32
	d.Schedule("a", func() { a.Add(1) })
	d.Schedule("b", func() { b.Add(1) })
	d.Schedule("a", func() { a.Add(10) })

	if d.Pending() != 2 {
		t.Errorf("pending = %d, want 2", d.Pending())
	}
	d.Flush()
	if a.Load() != 10 || b.Load() != 1 {
		t.Errorf("a = %d, b = %d; want 10 and 1", a.Load(), b.Load())
	}
	if d.Pending() != 0 {
		t.Errorf("pending after flush = %d, want 0", d.Pending())
	}
}

func TestFlushRunsOnce(t *testing.T) {
	d := New(20 * time.Millisecond)
	var n atomic.Int32
	d.Schedule("m1", func() { n.Add(1) })
	d.Flush()
	time.Sleep(60 * time.Millisecond)
	if n.Load() != 1 {
		t.Errorf("runs = %d, want 1", n.Load())
	}
}

func TestCancel(t *testing.T) {
	d := New(time.Hour)
	var n atomic.Int32
	d.Schedule("m1", func() { n.Add(1) })
	if !d.Cancel("m1") {
		t.Error("Cancel should report a pending call")
	}
	if d.Cancel("m1") {
		t.Error("second Cancel should find nothing")
	}
	d.Flush()
	if n.Load() != 0 {
		t.Errorf("runs = %d, want 0", n.Load())
	}
}

func TestZeroWindowRunsImmediately(t *testing.T) {
	d := New(0)
	ran := false
	d.Schedule("m1", func() { ran = true })
	if !ran {
		t.Error("call should run synchronously")
	}
	if d.Pending() != 0 {
		t.Errorf("pending = %d, want 0", d.Pending())
	}
}

func TestStop(t *testing.T) {
	d := New(time.Hour)
	var n atomic.Int32
	d.Schedule("m1", func() { n.Add(1) })
	d.Stop()
	if n.Load() != 1 {
		t.Errorf("Stop should flush pending work, runs = %d", n.Load())
	}
	if d.Schedule("m2", func() { n.Add(1) }) {
		t.Error("Schedule after Stop should be rejected")
	}
	d.Flush()
	if n.Load() != 1 {
		t.Errorf("runs = %d, want 1", n.Load())
	}
}

func TestFlushWaitsForFiringCalls(t *testing.T) {
	d := New(time.Millisecond)
	started := make(chan struct{})
	var finished atomic.Bool
	d.Schedule("m1", func() {
		close(started)
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
	})
	<-started
	d.Flush()
	if !finished.Load() {
		t.Error("Flush returned before the firing call finished")
	}
}

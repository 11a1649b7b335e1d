package timer

import (
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu      sync.Mutex
	ticks   []int
	expired int
	done    chan struct{}
}

func newRecorder() *recorder {
	return &recorder{done: make(chan struct{}, 4)}
}

func (r *recorder) tick(remaining int) {
	r.mu.Lock()
	r.ticks = append(r.ticks, remaining)
	r.mu.Unlock()
}

func (r *recorder) expire() {
	r.mu.Lock()
	r.expired++
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *recorder) snapshot() ([]int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.ticks...), r.expired
}

func TestCountdownTicksThenExpires(t *testing.T) {
	ctrl := New(2 * time.Millisecond)
	rec := newRecorder()

	ctrl.Start(3, rec.tick, rec.expire)

	select {
	case <-rec.done:
	case <-time.After(time.Second):
		t.Fatal("countdown never expired")
	}

	ticks, expired := rec.snapshot()
	if len(ticks) != 2 || ticks[0] != 2 || ticks[1] != 1 {
		t.Fatalf("unexpected ticks: %v", ticks)
	}
	if expired != 1 {
		t.Fatalf("expected one expiry, got %d", expired)
	}
	if ctrl.Running() {
		t.Fatal("expected controller idle after expiry")
	}
}

func TestStopPreventsExpiry(t *testing.T) {
	ctrl := New(5 * time.Millisecond)
	rec := newRecorder()

	ctrl.Start(2, rec.tick, rec.expire)
	ctrl.Stop()

	time.Sleep(40 * time.Millisecond)
	ticks, expired := rec.snapshot()
	if len(ticks) != 0 || expired != 0 {
		t.Fatalf("expected no callbacks after stop, got ticks=%v expired=%d", ticks, expired)
	}
	if ctrl.Running() {
		t.Fatal("expected controller idle after stop")
	}
}

func TestRestartSupersedesPreviousCountdown(t *testing.T) {
	ctrl := New(2 * time.Millisecond)
	first := newRecorder()
	second := newRecorder()

	ctrl.Start(50, first.tick, first.expire)
	ctrl.Start(2, second.tick, second.expire)

	select {
	case <-second.done:
	case <-time.After(time.Second):
		t.Fatal("second countdown never expired")
	}

	time.Sleep(20 * time.Millisecond)
	_, firstExpired := first.snapshot()
	if firstExpired != 0 {
		t.Fatal("superseded countdown must not expire")
	}
	_, secondExpired := second.snapshot()
	if secondExpired != 1 {
		t.Fatalf("expected one expiry, got %d", secondExpired)
	}
}

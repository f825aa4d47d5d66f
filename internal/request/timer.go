package request

import (
	"fmt"
	"sync"
	"time"
)

// Timer measures one request round trip
type Timer struct {
	mu      sync.Mutex
	start   time.Time
	elapsed time.Duration
	stopped bool
}

// StartTimer creates a running timer
func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop freezes the timer and returns the elapsed duration. Later calls
// return the same value.
func (t *Timer) Stop() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.stopped {
		t.elapsed = time.Since(t.start)
		t.stopped = true
	}
	return t.elapsed
}

// Elapsed returns the duration so far, or the frozen duration once stopped
func (t *Timer) Elapsed() time.Duration {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return t.elapsed
	}
	return time.Since(t.start)
}

func (t *Timer) String() string {
	return HumanDuration(t.Elapsed())
}

// HumanDuration renders d as milliseconds below one second and as seconds
// with two decimals otherwise, e.g. "123ms" or "1.42s"
func HumanDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}

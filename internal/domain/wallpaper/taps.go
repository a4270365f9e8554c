package wallpaper

import (
	"sync"
	"time"
)

// TapCounter detects three taps on the same target, each within window of
// the previous one. A tap on another target or after the window restarts
// the count.
type TapCounter struct {
	mu     sync.Mutex
	window time.Duration
	needed int
	now    func() time.Time

	target int
	count  int
	last   time.Time
}

// NewTapCounter creates a triple-tap counter; now may be nil
func NewTapCounter(window time.Duration, now func() time.Time) *TapCounter {
	if now == nil {
		now = time.Now
	}
	return &TapCounter{window: window, needed: 3, now: now, target: -1}
}

// Tap registers a tap on target and reports whether it completed the
// sequence, which also resets the counter
func (t *TapCounter) Tap(target int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if target != t.target || t.count == 0 || now.Sub(t.last) > t.window {
		t.target = target
		t.count = 0
	}
	t.count++
	t.last = now

	if t.count >= t.needed {
		t.reset()
		return true
	}
	return false
}

// Reset clears the sequence
func (t *TapCounter) Reset() {
	t.mu.Lock()
	t.reset()
	t.mu.Unlock()
}

func (t *TapCounter) reset() {
	t.target = -1
	t.count = 0
	t.last = time.Time{}
}

// Package timer holds periodic timers that are replaced, never stacked.
//
// A Slot owns at most one running ticker. Arming it stops whatever was
// running before; each arming gets a new generation so callbacks that race
// with a replacement can recognise themselves as stale.
package timer

import (
	"sync"
	"time"
)

// Slot is a single replaceable periodic timer
type Slot struct {
	mu   sync.Mutex
	stop chan struct{}
	gen  uint64
}

// Every stops the running timer (if any) and calls fn every d until the slot
// is stopped or re-armed. fn receives the generation it was armed with.
// Stop does not wait for an in-flight fn; callers compare generations.
func (s *Slot) Every(d time.Duration, fn func(gen uint64)) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.gen++
	gen := s.gen
	stop := make(chan struct{})
	s.stop = stop

	go func() {
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				select {
				case <-stop:
					return
				default:
				}
				fn(gen)
			}
		}
	}()

	return gen
}

// Stop cancels the running timer and invalidates its generation
func (s *Slot) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		s.gen++
	}
	s.stopLocked()
}

// Current reports whether gen is the generation of the running timer
func (s *Slot) Current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop != nil && s.gen == gen
}

// Active reports whether a timer is running
func (s *Slot) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop != nil
}

func (s *Slot) stopLocked() {
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrCircuitOpen  = errors.New("circuit breaker is open")
	ErrProbeRunning = errors.New("circuit breaker probe in flight")
)

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures a breaker guarding one upstream (geocoder, forecast, framing probe)
type Settings struct {
	// FailureThreshold consecutive failures trip the breaker
	FailureThreshold int
	// Cooldown is how long the breaker stays open before letting one probe through
	Cooldown time.Duration
	// IsFailure decides which errors count against the upstream. Context
	// cancellation by the caller never does.
	IsFailure func(error) bool
	// OnStateChange is called outside the lock whenever the state changes
	OnStateChange func(name string, from, to State)
	// Now is the clock, replaceable in tests
	Now func() time.Time
}

// Breaker short-circuits calls to an upstream that keeps failing
type Breaker struct {
	name     string
	settings Settings

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probing  bool
}

// New creates a breaker; zero settings fall back to 5 failures / 30s
func New(name string, settings Settings) *Breaker {
	if settings.FailureThreshold <= 0 {
		settings.FailureThreshold = 5
	}
	if settings.Cooldown <= 0 {
		settings.Cooldown = 30 * time.Second
	}
	if settings.IsFailure == nil {
		settings.IsFailure = func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		}
	}
	if settings.Now == nil {
		settings.Now = time.Now
	}
	return &Breaker{name: name, settings: settings}
}

// Name returns the upstream name
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state, promoting Open to HalfOpen once the cooldown passed
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current()
}

// Do runs fn unless the breaker is open
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := b.admit(); err != nil {
		return err
	}

	var err error
	defer func() {
		if r := recover(); r != nil {
			b.record(errors.New("panic"))
			panic(r)
		}
		b.record(err)
	}()

	err = fn(ctx)
	return err
}

// Call is Do for functions returning a value
func Call[T any](ctx context.Context, b *Breaker, fn func(context.Context) (T, error)) (T, error) {
	var out T
	err := b.Do(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err == nil {
			out = v
		}
		return err
	})
	return out, err
}

// Reset closes the breaker and clears failures
func (b *Breaker) Reset() {
	b.transition(StateClosed)
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	switch b.current() {
	case StateOpen:
		b.mu.Unlock()
		return ErrCircuitOpen
	case StateHalfOpen:
		if b.probing {
			b.mu.Unlock()
			return ErrProbeRunning
		}
		b.probing = true
	}
	b.mu.Unlock()
	return nil
}

func (b *Breaker) record(err error) {
	b.mu.Lock()
	state := b.current()
	failed := b.settings.IsFailure(err)

	var next State = state
	switch state {
	case StateHalfOpen:
		b.probing = false
		if failed {
			next = StateOpen
		} else if err == nil {
			next = StateClosed
		}
	case StateClosed:
		if failed {
			b.failures++
			if b.failures >= b.settings.FailureThreshold {
				next = StateOpen
			}
		} else if err == nil {
			b.failures = 0
		}
	}
	b.mu.Unlock()

	if next != state {
		b.transition(next)
	}
}

// current must be called with mu held
func (b *Breaker) current() State {
	if b.state == StateOpen && b.settings.Now().Sub(b.openedAt) >= b.settings.Cooldown {
		b.state = StateHalfOpen
		b.probing = false
	}
	return b.state
}

func (b *Breaker) transition(to State) {
	b.mu.Lock()
	from := b.state
	b.state = to
	b.failures = 0
	b.probing = false
	if to == StateOpen {
		b.openedAt = b.settings.Now()
	}
	b.mu.Unlock()

	if from != to && b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, from, to)
	}
}

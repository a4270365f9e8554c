package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var errUpstream = errors.New("upstream down")

func fail(context.Context) error { return errUpstream }
func pass(context.Context) error { return nil }

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name     string
		calls    []func(context.Context) error
		expected State
	}{
		{"stays closed on successes", []func(context.Context) error{pass, pass, pass}, StateClosed},
		{"stays closed below threshold", []func(context.Context) error{fail, fail}, StateClosed},
		{"opens at threshold", []func(context.Context) error{fail, fail, fail}, StateOpen},
		{"success resets the streak", []func(context.Context) error{fail, fail, pass, fail, fail}, StateClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("test", Settings{FailureThreshold: 3, Cooldown: time.Minute})
			for _, call := range tt.calls {
				_ = b.Do(context.Background(), call)
			}
			assert.Equal(t, tt.expected, b.State())
		})
	}
}

func TestBreakerOpenShortCircuits(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	b := New("geocoder", Settings{FailureThreshold: 1, Cooldown: time.Minute, Now: clock.Now})

	require.ErrorIs(t, b.Do(context.Background(), fail), errUpstream)

	called := false
	err := b.Do(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	var transitions []string
	b := New("forecast", Settings{
		FailureThreshold: 1,
		Cooldown:         time.Minute,
		Now:              clock.Now,
		OnStateChange: func(_ string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	_ = b.Do(context.Background(), fail)
	clock.Advance(time.Minute)
	assert.Equal(t, StateHalfOpen, b.State())

	// failed probe reopens
	_ = b.Do(context.Background(), fail)
	assert.Equal(t, StateOpen, b.State())

	clock.Advance(time.Minute)
	require.NoError(t, b.Do(context.Background(), pass))
	assert.Equal(t, StateClosed, b.State())

	assert.Equal(t, []string{"closed->open", "half-open->open", "half-open->closed"}, transitions)
}

func TestBreakerSingleProbe(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	b := New("probe", Settings{FailureThreshold: 1, Cooldown: time.Second, Now: clock.Now})
	_ = b.Do(context.Background(), fail)
	clock.Advance(time.Second)

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error)
	go func() {
		done <- b.Do(context.Background(), func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	assert.ErrorIs(t, b.Do(context.Background(), pass), ErrProbeRunning)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerIgnoresCancellation(t *testing.T) {
	b := New("test", Settings{FailureThreshold: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Do(ctx, func(ctx context.Context) error { return ctx.Err() })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateClosed, b.State())
}

func TestCall(t *testing.T) {
	b := New("test", Settings{})
	v, err := Call(context.Background(), b, func(context.Context) (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = Call(context.Background(), b, func(context.Context) (int, error) { return 7, errUpstream })
	assert.ErrorIs(t, err, errUpstream)
	assert.Zero(t, v)
}

func TestBreakerPanicCountsAsFailure(t *testing.T) {
	b := New("test", Settings{FailureThreshold: 1})
	assert.Panics(t, func() {
		_ = b.Do(context.Background(), func(context.Context) error { panic("boom") })
	})
	assert.Equal(t, StateOpen, b.State())
}

/*
Package resilience provides a circuit breaker for the shell's outbound calls.

Each upstream (reverse geocoder, forecast API, framing probe) gets its own
breaker. After FailureThreshold consecutive failures the breaker opens and
calls fail fast with ErrCircuitOpen; once Cooldown has passed a single probe
call is let through, and its outcome closes or reopens the breaker.

	Closed --[threshold failures]--> Open --[cooldown]--> HalfOpen
	   ^                                                    |
	   +----------------[probe succeeds]--------------------+

# Usage

	breaker := resilience.New("forecast", resilience.Settings{
		FailureThreshold: 3,
		Cooldown:         time.Minute,
	})

	snap, err := resilience.Call(ctx, breaker, func(ctx context.Context) (*Snapshot, error) {
		return fetch(ctx)
	})
*/
package resilience

package resilience

// #region imports
import (
	"errors"
	"fmt"
	"time"
)

// #endregion

// #region state

// State is the breaker position.
type State string

const (
	StateClosed   State = "CLOSED"
	StateOpen     State = "OPEN"
	StateHalfOpen State = "HALF_OPEN"
)

// ErrOpen is returned when a call short-circuits on an open breaker;
// the wrapped operation is not invoked.
var ErrOpen = errors.New("circuit breaker is open")

// #endregion

// #region breaker

// Breaker isolates one external component. Consecutive failures at or
// above the threshold trip it OPEN; after the timeout elapses the
// next call proceeds as a HALF_OPEN probe, and a single success
// closes the breaker again.
type Breaker struct {
	failureThreshold int
	timeout          time.Duration

	state        State
	failureCount int
	lastFailure  time.Time

	now func() time.Time
}

// NewBreaker returns a closed breaker.
func NewBreaker(failureThreshold int, timeout time.Duration) *Breaker {
	return &Breaker{
		failureThreshold: failureThreshold,
		timeout:          timeout,
		state:            StateClosed,
		now:              time.Now,
	}
}

// State returns the current breaker position.
func (b *Breaker) State() State { return b.state }

// FailureCount returns the consecutive failure count.
func (b *Breaker) FailureCount() int { return b.failureCount }

// #endregion

// #region call

// Call runs op under breaker protection. While OPEN and inside the
// timeout window the call fails fast without invoking op; once the
// timeout has elapsed the breaker moves to HALF_OPEN and the call
// proceeds.
func (b *Breaker) Call(op Operation) error {
	if b.state == StateOpen {
		if b.now().Sub(b.lastFailure) >= b.timeout {
			b.state = StateHalfOpen
		} else {
			return fmt.Errorf("%w (cooling down for %s)", ErrOpen, b.timeout)
		}
	}

	if err := op(); err != nil {
		b.onFailure()
		return err
	}
	b.onSuccess()
	return nil
}

func (b *Breaker) onSuccess() {
	b.failureCount = 0
	b.state = StateClosed
}

func (b *Breaker) onFailure() {
	b.failureCount++
	b.lastFailure = b.now()
	if b.failureCount >= b.failureThreshold {
		b.state = StateOpen
	}
}

// #endregion

package lifecycle

import (
	"errors"
	"time"
)

// ErrGateTimeout is returned when the exclusivity gate could not be
// acquired within the bounded wait. Fatal for the calling open attempt;
// the machine stays Closed.
var ErrGateTimeout = errors.New("lifecycle: exclusivity gate timeout")

// Gate is a single-permit gate bounding concurrent open/close attempts on
// one camera handle. Not re-entrant. There is no queueing beyond the
// bounded wait: a second acquirer times out rather than blocking
// indefinitely.
type Gate struct {
	permit  chan struct{}
	timeout time.Duration
}

// NewGate creates a gate holding one free permit.
func NewGate(timeout time.Duration) *Gate {
	g := &Gate{
		permit:  make(chan struct{}, 1),
		timeout: timeout,
	}
	g.permit <- struct{}{}
	return g
}

// Acquire takes the permit, waiting up to the configured bound.
func (g *Gate) Acquire() error {
	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	select {
	case <-g.permit:
		return nil
	case <-timer.C:
		return ErrGateTimeout
	}
}

// TryRelease returns the permit. Reports false if the permit was already
// free, which lets callers verify the release-exactly-once invariant.
func (g *Gate) TryRelease() bool {
	select {
	case g.permit <- struct{}{}:
		return true
	default:
		return false
	}
}

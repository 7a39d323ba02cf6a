package sessions

import "time"

// Guard is the single process-wide advisory lock. Every state-changing
// session operation (open, close, cancel, auto-close, reconcile, sweep)
// acquires it before touching the registry or the counter cache. The lock is
// global rather than per-member: all session mutations are deliberately
// serialized, which is plenty for tens of concurrent members.
type Guard struct {
	slot    chan struct{}
	timeout time.Duration
}

// NewGuard creates a Guard whose Acquire waits up to timeout.
func NewGuard(timeout time.Duration) *Guard {
	return &Guard{
		slot:    make(chan struct{}, 1),
		timeout: timeout,
	}
}

// Acquire takes the lock, waiting up to the configured timeout. It returns
// false if the lock could not be acquired in time; callers surface that as a
// transient busy condition, never as a user error.
func (g *Guard) Acquire() bool {
	return g.AcquireWait(g.timeout)
}

// AcquireWait takes the lock, waiting up to d.
func (g *Guard) AcquireWait(d time.Duration) bool {
	select {
	case g.slot <- struct{}{}:
		return true
	default:
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case g.slot <- struct{}{}:
		return true
	case <-timer.C:
		return false
	}
}

// Release frees the lock. It must be called exactly once for every
// successful Acquire, on every exit path.
func (g *Guard) Release() {
	select {
	case <-g.slot:
	default:
		panic("sessions: Release without Acquire")
	}
}

package session

import "time"

// Clock is the time source of a session.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock returns the wall clock. time.Now carries a monotonic reading so
// deadlines are immune to wall clock jumps.
func RealClock() Clock {
	return realClock{}
}

// Deadline is an absolute point in time measured on a Clock.
type Deadline struct {
	clock Clock
	at    time.Time
}

// NewDeadline returns a deadline budget from now.
func NewDeadline(clock Clock, budget time.Duration) *Deadline {
	return &Deadline{clock: clock, at: clock.Now().Add(budget)}
}

// Shorten returns a deadline that expires d earlier.
func (d *Deadline) Shorten(by time.Duration) *Deadline {
	return &Deadline{clock: d.clock, at: d.at.Add(-by)}
}

// Remaining is the time left, never negative.
func (d *Deadline) Remaining() time.Duration {
	left := d.at.Sub(d.clock.Now())
	if left < 0 {
		return 0
	}
	return left
}

// Expired reports whether the deadline has passed. A session checks it before
// blocking so a spent budget never waits on a fresh timer.
func (d *Deadline) Expired() bool {
	return d.Remaining() == 0
}

// Done fires once the deadline passes.
func (d *Deadline) Done() <-chan time.Time {
	return d.clock.After(d.Remaining())
}

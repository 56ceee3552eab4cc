// Package clock lets callers inject "now" so that time-dependent counts
// stay reproducible in tests.
package clock

import "time"

// Clock provides the current time
type Clock interface {
	Now() time.Time
}

// Real returns the system time
type Real struct{}

// Now returns time.Now()
func (Real) Now() time.Time {
	return time.Now()
}

// Fixed always returns T
type Fixed struct {
	T time.Time
}

// Now returns the fixed time
func (c Fixed) Now() time.Time {
	return c.T
}

// Func adapts a plain function to Clock
type Func func() time.Time

// Now calls the wrapped function
func (f Func) Now() time.Time {
	return f()
}

// NewFixed returns a Clock frozen at t
func NewFixed(t time.Time) Clock {
	return Fixed{T: t}
}

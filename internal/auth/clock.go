package auth

import "time"

// Clock supplies the current time. Every token timestamp is produced and
// compared in UTC.
type Clock interface {
	Now() time.Time
}

// UTCClock reads the system clock in UTC
type UTCClock struct{}

func (UTCClock) Now() time.Time {
	return time.Now().UTC()
}

// FixedClock returns a settable instant, for tests
type FixedClock struct {
	T time.Time
}

func (c *FixedClock) Now() time.Time {
	return c.T.UTC()
}

// Advance moves the clock forward by d
func (c *FixedClock) Advance(d time.Duration) {
	c.T = c.T.Add(d)
}

package core

import "time"

// Clock supplies the current instant. It is injected so the window policy
// and the minute accumulators are deterministic under test.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production clock. All instants are UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

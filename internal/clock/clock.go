// Package clock centralises time lookups so that expiry, grant TTL and
// response-time calculations can be pinned in tests.
package clock

import "time"

// NowFunc returns current time. Override in tests for determinism.
var NowFunc = func() time.Time { return time.Now().UTC() }

// Now is a thin wrapper around NowFunc.
func Now() time.Time { return NowFunc() }

// Freeze pins NowFunc to t and returns a restore function.
func Freeze(t time.Time) (restore func()) {
	prev := NowFunc
	NowFunc = func() time.Time { return t }
	return func() { NowFunc = prev }
}

// Advance moves a frozen clock forward by d.
func Advance(d time.Duration) {
	now := NowFunc()
	NowFunc = func() time.Time { return now.Add(d) }
}

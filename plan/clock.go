package plan

import "time"

// =============================================================================
// CLOCK - Injected source of "today"
// =============================================================================

// Clock supplies the current date for overdue and grace-period checks.
// Injecting it keeps every calendar-sensitive computation deterministic
// in tests.
type Clock interface {
	Today() Date
}

// SystemClock reads the wall clock (UTC).
type SystemClock struct{}

func (SystemClock) Today() Date { return DateOf(time.Now().UTC()) }

// FixedClock always returns the same date. Test and replay use.
type FixedClock struct {
	Date Date
}

func (c FixedClock) Today() Date { return c.Date }

package core

import "time"

// DeltaTimer measures wall-clock time between successive Delta calls.
type DeltaTimer struct {
	last time.Time
	now  func() time.Time
}

// NewDeltaTimer returns a timer whose first Delta measures from now.
func NewDeltaTimer() *DeltaTimer {
	t := &DeltaTimer{now: time.Now}
	t.last = t.now()
	return t
}

// Delta returns the seconds since the previous call (or construction).
func (t *DeltaTimer) Delta() float64 {
	now := t.now()
	dt := now.Sub(t.last).Seconds()
	t.last = now
	if dt < 0 {
		return 0
	}
	return dt
}

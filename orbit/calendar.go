// Package orbit models the planet's clock, its circular orbit around the sun
// and the rotating reference frame the raymarcher samples terrain in.
//
// All state here is a pure function of elapsed simulated seconds. Nothing is
// integrated frame over frame except the elapsed counter itself.
package orbit

import "math"

const (
	SecondsPerDay  = 86400.0
	DaysPerYear    = 365
	SecondsPerYear = SecondsPerDay * DaysPerYear
)

// CalendarState is the derived view of a point in simulated time.
type CalendarState struct {
	DayIndex       int
	DayFraction    float64 // [0,1)
	YearFraction   float64 // [0,1)
	Hour           int
	Minute         int
	Second         int
	ElapsedSeconds float64 // [0, SecondsPerYear)
}

// Calendar accumulates simulated seconds and wraps them at the year boundary.
type Calendar struct {
	elapsed float64
}

// NewCalendar starts the clock at the given elapsed seconds (wrapped).
func NewCalendar(elapsed float64) *Calendar {
	return &Calendar{elapsed: wrapYear(elapsed)}
}

// Advance moves time forward by dt·timeSpeed seconds. Negative dt or speed is
// treated as zero so the clock never runs backward.
func (c *Calendar) Advance(dt, timeSpeed float64) CalendarState {
	step := math.Max(dt, 0) * math.Max(timeSpeed, 0)
	if math.IsNaN(step) || math.IsInf(step, 0) {
		step = 0
	}
	c.elapsed = wrapYear(c.elapsed + step)
	return StateFromElapsed(c.elapsed)
}

// State returns the current calendar without advancing it.
func (c *Calendar) State() CalendarState {
	return StateFromElapsed(c.elapsed)
}

// Elapsed returns the raw elapsed seconds into the current year.
func (c *Calendar) Elapsed() float64 {
	return c.elapsed
}

// SetElapsed jumps the clock, wrapping into the current year.
func (c *Calendar) SetElapsed(seconds float64) {
	c.elapsed = wrapYear(seconds)
}

// StateFromElapsed derives every calendar field from elapsed seconds alone.
func StateFromElapsed(elapsed float64) CalendarState {
	elapsed = wrapYear(elapsed)

	secondsIntoDay := math.Mod(elapsed, SecondsPerDay)
	dayIndex := int(math.Floor(elapsed / SecondsPerDay))
	if dayIndex >= DaysPerYear {
		dayIndex = DaysPerYear - 1
	}

	whole := int(math.Floor(secondsIntoDay))
	return CalendarState{
		DayIndex:       dayIndex,
		DayFraction:    secondsIntoDay / SecondsPerDay,
		YearFraction:   elapsed / SecondsPerYear,
		Hour:           whole / 3600,
		Minute:         (whole % 3600) / 60,
		Second:         whole % 60,
		ElapsedSeconds: elapsed,
	}
}

func wrapYear(seconds float64) float64 {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0
	}
	w := math.Mod(seconds, SecondsPerYear)
	if w < 0 {
		w += SecondsPerYear
	}
	// Mod can return exactly SecondsPerYear after the negative fix-up above
	// through rounding; keep the range half-open.
	if w >= SecondsPerYear {
		w = 0
	}
	return w
}

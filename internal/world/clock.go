package world

import "math"

// Clock tracks the simulated day and the time within it. Advance is the only
// mutator; the caller holds the world lock.
type Clock struct {
	day       int
	timeOfDay float64 // seconds, always in [0, dayLength)
	dayLength float64
	timeScale float64
}

func NewClock(dayLength, timeScale float64) *Clock {
	if dayLength <= 0 {
		dayLength = 1
	}
	if timeScale < 0 {
		timeScale = 0
	}
	return &Clock{day: 1, dayLength: dayLength, timeScale: timeScale}
}

// Advance moves the clock forward by seconds of real step time scaled by the
// time scale, and returns how many day boundaries were crossed.
func (c *Clock) Advance(seconds float64) int {
	if seconds <= 0 || c.timeScale == 0 {
		return 0
	}
	c.timeOfDay += seconds * c.timeScale
	days := int(math.Floor(c.timeOfDay / c.dayLength))
	c.timeOfDay -= float64(days) * c.dayLength
	// Float rounding can leave the remainder a hair outside the range.
	if c.timeOfDay >= c.dayLength {
		c.timeOfDay -= c.dayLength
		days++
	}
	if c.timeOfDay < 0 {
		c.timeOfDay = 0
	}
	c.day += days
	return days
}

func (c *Clock) Day() int            { return c.day }
func (c *Clock) TimeOfDay() float64  { return c.timeOfDay }
func (c *Clock) DayLength() float64  { return c.dayLength }
func (c *Clock) TimeScale() float64  { return c.timeScale }
func (c *Clock) Normalized() float64 { return c.timeOfDay / c.dayLength }

func (c *Clock) SetTimeScale(s float64) {
	if s < 0 {
		s = 0
	}
	c.timeScale = s
}

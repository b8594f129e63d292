package desk

import (
	"sync"
	"time"
	_ "time/tzdata"
)

const timestampLayout = "2006-01-02T15:04:05.000000-07:00"

var eastern = mustLoadLocation("America/New_York")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// exchangeClock is shared by every pipeline in the process so exchange
// timestamps strictly increase.
var exchangeClock = newMonotonicClock(time.Now)

type monotonicClock struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

func newMonotonicClock(now func() time.Time) *monotonicClock {
	return &monotonicClock{now: now}
}

// Next returns a time strictly after any previously returned one, at
// microsecond resolution.
func (c *monotonicClock) Next() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now().Truncate(time.Microsecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}

func formatTimestamp(t time.Time) string {
	return t.In(eastern).Format(timestampLayout)
}

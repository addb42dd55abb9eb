package clock

import (
	"fmt"
	"time"
)

// stampLayout is the display format written into lastUpdated/createdAt.
const stampLayout = "1/2/2006, 3:04:05 PM"

// Clock provides the two notions of time the service needs: Now for
// interval arithmetic (compared only by subtraction; the returned values
// carry Go's monotonic reading) and Stamp for the human-readable string
// persisted on records.
type Clock interface {
	Now() time.Time
	Stamp() string
}

// WallClock is the production Clock, formatting stamps in a configured
// timezone.
type WallClock struct {
	loc *time.Location
}

// New creates a WallClock for the given IANA timezone name. An empty
// name selects the local timezone.
func New(timezone string) (*WallClock, error) {
	if timezone == "" {
		return &WallClock{loc: time.Local}, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", timezone, err)
	}
	return &WallClock{loc: loc}, nil
}

// Now returns the current instant.
func (c *WallClock) Now() time.Time {
	return time.Now()
}

// Stamp returns the current time formatted for display.
func (c *WallClock) Stamp() string {
	return time.Now().In(c.loc).Format(stampLayout)
}

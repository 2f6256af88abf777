package internal

import "time"

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// Clock produces server-side timestamps in the configured time zone.
type Clock struct {
	location *time.Location
	now      func() time.Time
}

func NewClock(location *time.Location) *Clock {
	if location == nil {
		location = time.Local
	}
	return &Clock{location: location, now: time.Now}
}

// FixedClock always returns t, for tests.
func FixedClock(t time.Time) *Clock {
	return &Clock{location: t.Location(), now: func() time.Time { return t }}
}

func (c *Clock) Now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c.now().In(c.location)
}

func (c *Clock) Today() string {
	return c.Now().Format(DateLayout)
}

func (c *Clock) Date(t time.Time) string {
	return c.in(t).Format(DateLayout)
}

func (c *Clock) TimeOfDay(t time.Time) string {
	return c.in(t).Format(TimeLayout)
}

func (c *Clock) in(t time.Time) time.Time {
	if c == nil {
		return t
	}
	return t.In(c.location)
}

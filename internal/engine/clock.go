package engine

import "time"

// Clock supplies today's date for defaulting and lock checks. Production
// reads the wall clock; tests pin a date.
type Clock interface {
	Today() time.Time
}

// SystemClock truncates the wall clock to UTC midnight so every date
// comparison stays day-granular.
type SystemClock struct{}

func (SystemClock) Today() time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

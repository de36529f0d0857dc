package schedule

import (
	"errors"
	"time"
)

const (
	// ReminderLookahead bounds the scheduler's fetch: only appointments
	// starting within this horizon are considered per run.
	ReminderLookahead = 26 * time.Hour

	// MinRescheduleLead is the minimum remaining time before the current
	// slot under which a reschedule is refused.
	MinRescheduleLead = 2 * time.Hour
)

var ErrInvalidTimestamp = errors.New("invalid timestamp format")

// Window is a closed interval of lead time before a target instant during
// which a reminder is eligible to fire. Intervals instead of exact offsets
// tolerate invocation jitter of the periodic trigger.
type Window struct {
	Name string
	Min  time.Duration
	Max  time.Duration
}

var (
	Window24h = Window{Name: "24h", Min: 23*time.Hour + 30*time.Minute, Max: 24*time.Hour + 30*time.Minute}
	Window2h  = Window{Name: "2h", Min: 90 * time.Minute, Max: 150 * time.Minute}
)

// Contains reports whether now falls inside the window relative to target.
// Both boundaries are inclusive.
func (w Window) Contains(now, target time.Time) bool {
	delta := target.Sub(now)
	return delta >= w.Min && delta <= w.Max
}

// timestampLayouts are tried in order after RFC3339. Layouts without an
// offset are interpreted as UTC.
var timestampLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseTimestamp parses a client-supplied timestamp. Offset-carrying values
// keep their instant; naive values are assumed UTC.
func ParseTimestamp(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidTimestamp
}

// NormalizeUTC strips sub-second precision and rebases to UTC. All stored
// scheduled times go through this before comparison or persistence.
func NormalizeUTC(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}

// TooCloseToReschedule reports whether the currently scheduled time is
// within the minimum reschedule lead from now.
func TooCloseToReschedule(scheduled, now time.Time) bool {
	return scheduled.Sub(now) < MinRescheduleLead
}

// IsFuture reports whether t is strictly after now.
func IsFuture(t, now time.Time) bool {
	return t.After(now)
}

package telecaller

import "time"

// Window is an inclusive [From, To] time range.
type Window struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t lies inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// Daily is the current calendar day in loc, up to now.
func Daily(now time.Time, loc *time.Location) Window {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return Window{From: start, To: now}
}

// Weekly is the trailing seven days ending at now.
func Weekly(now time.Time) Window {
	return Window{From: now.AddDate(0, 0, -7), To: now}
}

// Monthly runs from the 1st of the current month in loc up to now.
func Monthly(now time.Time, loc *time.Location) Window {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	return Window{From: start, To: now}
}

package domain

import "time"

const DateLayout = "2006-01-02"

// Date truncates t to its calendar date in UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// DateRange is the half-open interval [Start, End).
type DateRange struct {
	Start time.Time
	End   time.Time
}

func (d DateRange) Valid() bool {
	return d.Start.Before(d.End)
}

// Overlaps reports whether both ranges are valid and intersect. A range
// ending on the day another starts does not overlap it.
func (d DateRange) Overlaps(other DateRange) bool {
	if !d.Valid() || !other.Valid() {
		return false
	}
	return d.Start.Before(other.End) && other.Start.Before(d.End)
}

func (d DateRange) Nights() int {
	if !d.Valid() {
		return 0
	}
	return int(Date(d.End).Sub(Date(d.Start)).Hours() / 24)
}

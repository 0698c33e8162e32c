// Package daterange parses and clamps the inclusive calendar-day ranges
// used by metrics queries. The end date of a requested range is
// authoritative: when a range is longer than the caller's role allows, the
// start date moves forward so the window still ends on the requested day.
package daterange

import (
	"errors"
	"time"

	"github.com/mwholloway/salescope/internal/domain/models"
)

// ErrInvalidRange is returned when from/to do not parse as calendar days.
var ErrInvalidRange = errors.New("invalid date range")

// Layout is the wire format for calendar days.
const Layout = "2006-01-02"

// Role maximum spans, in whole days (inclusive).
const (
	MaxDaysUser  = 5
	MaxDaysAdmin = 30
)

// Range is an inclusive [From, To] pair of UTC calendar days.
// Invariant: From and To are midnight UTC and From <= To.
type Range struct {
	From time.Time
	To   time.Time
}

// Parse builds a Range from two YYYY-MM-DD strings. Reversed inputs are
// swapped rather than rejected; unparseable inputs yield ErrInvalidRange.
func Parse(from, to string) (Range, error) {
	f, err := time.ParseInLocation(Layout, from, time.UTC)
	if err != nil {
		return Range{}, ErrInvalidRange
	}
	t, err := time.ParseInLocation(Layout, to, time.UTC)
	if err != nil {
		return Range{}, ErrInvalidRange
	}
	if f.After(t) {
		f, t = t, f
	}
	return Range{From: f, To: t}, nil
}

// New builds a Range from two times, truncating both to UTC midnight and
// swapping if reversed.
func New(from, to time.Time) Range {
	f := Day(from)
	t := Day(to)
	if f.After(t) {
		f, t = t, f
	}
	return Range{From: f, To: t}
}

// Day truncates a time to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Days returns the span length in whole days, inclusive of both ends.
func (r Range) Days() int {
	return int(r.To.Sub(r.From)/(24*time.Hour)) + 1
}

// MaxDaysForRole returns the maximum inclusive span a role may request.
func MaxDaysForRole(role string) int {
	if role == models.RoleAdmin {
		return MaxDaysAdmin
	}
	return MaxDaysUser
}

// ClampForRole shrinks the range to the role's maximum span. The window is
// anchored at To: only From moves forward. Ranges already within the limit
// are returned unchanged.
func (r Range) ClampForRole(role string) Range {
	return r.Clamp(MaxDaysForRole(role))
}

// Clamp shrinks the range to at most maxDays inclusive days, keeping To.
func (r Range) Clamp(maxDays int) Range {
	if maxDays < 1 || r.Days() <= maxDays {
		return r
	}
	return Range{
		From: r.To.AddDate(0, 0, -(maxDays - 1)),
		To:   r.To,
	}
}

// EachDay calls fn for every day in the range, in ascending order.
func (r Range) EachDay(fn func(day time.Time)) {
	for d := r.From; !d.After(r.To); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}

// LastNDaysEnding returns the n-day range ending on the given day.
func LastNDaysEnding(end time.Time, n int) Range {
	e := Day(end)
	return Range{From: e.AddDate(0, 0, -(n - 1)), To: e}
}

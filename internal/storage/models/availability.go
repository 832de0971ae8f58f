// Package models contains the domain models for the application.
package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateKeyLayout is the canonical layout of a DateKey.
const DateKeyLayout = "2006-01-02"

// Member identifies a band member by name.
type Member string

// DateKey is a calendar date in canonical YYYY-MM-DD form.
// It carries no time of day and no timezone.
type DateKey string

// Earliest and latest dates a DateKey can hold.
const (
	MinDateKey DateKey = "0001-01-01"
	MaxDateKey DateKey = "9999-12-31"
)

// NewDateKey returns the DateKey of the calendar date t falls on in t's own location.
// Dates outside years 1 to 9999 are clamped to MinDateKey or MaxDateKey.
func NewDateKey(t time.Time) DateKey {
	switch y := t.Year(); {
	case y < 1:
		return MinDateKey
	case y > 9999:
		return MaxDateKey
	}
	return DateKey(t.Format(DateKeyLayout))
}

// Today returns the DateKey of the current local date.
func Today() DateKey {
	return NewDateKey(time.Now())
}

// ParseDateKey parses a year-month-day string into a canonical DateKey.
// Missing zero padding is accepted and out-of-range days roll over the
// way time.Date normalizes them, so "2024-2-30" becomes "2024-03-01".
func ParseDateKey(s string) (DateKey, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return "", fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}

	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return "", fmt.Errorf("invalid date %q: %w", s, err)
		}
		nums[i] = n
	}

	t := time.Date(nums[0], time.Month(nums[1]), nums[2], 0, 0, 0, 0, time.UTC)
	if y := t.Year(); y < 1 || y > 9999 {
		return "", fmt.Errorf("invalid date %q: year %d out of range", s, y)
	}
	return NewDateKey(t), nil
}

// MustParseDateKey is like ParseDateKey but panics on error.
func MustParseDateKey(s string) DateKey {
	d, err := ParseDateKey(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Time returns midnight UTC of the date.
// A zero time is returned for keys that are not canonical.
func (d DateKey) Time() time.Time {
	t, err := time.Parse(DateKeyLayout, string(d))
	if err != nil {
		return time.Time{}
	}
	return t
}

// AddDays returns the date n days after d, clamped like NewDateKey.
func (d DateKey) AddDays(n int) DateKey {
	return NewDateKey(d.Time().AddDate(0, 0, n))
}

// AddMonths returns the date n months after d, normalized like time.AddDate.
func (d DateKey) AddMonths(n int) DateKey {
	return NewDateKey(d.Time().AddDate(0, n, 0))
}

// Before reports whether d is an earlier date than other.
// Canonical keys compare correctly as strings.
func (d DateKey) Before(other DateKey) bool {
	return d < other
}

// String implements fmt.Stringer.
func (d DateKey) String() string {
	return string(d)
}

// Response is a member's answer for a date.
type Response int

// Response values. Pending is the zero value: no answer recorded.
const (
	ResponsePending Response = iota
	ResponseAvailable
	ResponseUnavailable
)

// String returns the wire name of the response.
func (r Response) String() string {
	switch r {
	case ResponseAvailable:
		return "available"
	case ResponseUnavailable:
		return "unavailable"
	default:
		return "pending"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Response) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Response) UnmarshalText(text []byte) error {
	switch string(text) {
	case "pending":
		*r = ResponsePending
	case "available":
		*r = ResponseAvailable
	case "unavailable":
		*r = ResponseUnavailable
	default:
		return fmt.Errorf("unknown response %q", string(text))
	}
	return nil
}

// AvailabilityRecord maps members to their answer for one date.
// A member missing from the map has not answered yet.
type AvailabilityRecord map[Member]bool

// Response returns the tri-state answer of member.
func (r AvailabilityRecord) Response(member Member) Response {
	available, ok := r[member]
	switch {
	case !ok:
		return ResponsePending
	case available:
		return ResponseAvailable
	default:
		return ResponseUnavailable
	}
}

// Clone returns a copy of the record. A nil record clones to an empty one.
func (r AvailabilityRecord) Clone() AvailabilityRecord {
	out := make(AvailabilityRecord, len(r))
	for m, v := range r {
		out[m] = v
	}
	return out
}

package models

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// clockPattern accepts H:MM and HH:MM, hours 0-23, minutes 00-59
var clockPattern = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):([0-5][0-9])$`)

// Clock is a time of day with minute precision.
// The zero value means the punch was not recorded; 00:00 is a valid recorded time.
type Clock struct {
	minutes int
	valid   bool
}

// NewClock builds a recorded time of day
func NewClock(hour, minute int) (Clock, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return Clock{}, fmt.Errorf("%w: %02d:%02d", ErrMalformedTime, hour, minute)
	}
	return Clock{minutes: hour*60 + minute, valid: true}, nil
}

// ClockFromMinutes wraps minutes since midnight, folding values past one day
func ClockFromMinutes(m int) Clock {
	m %= 24 * 60
	if m < 0 {
		m += 24 * 60
	}
	return Clock{minutes: m, valid: true}
}

// ParseClock parses an HH:MM string. Empty input is an error; callers decide whether blank means absent.
func ParseClock(s string) (Clock, error) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return Clock{}, fmt.Errorf("%w: %q", ErrMalformedTime, s)
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	return Clock{minutes: h*60 + mm, valid: true}, nil
}

// Recorded reports whether the clock holds a punch
func (c Clock) Recorded() bool { return c.valid }

// Minutes returns minutes since midnight; 0 when not recorded
func (c Clock) Minutes() int { return c.minutes }

// String returns HH:MM, or an empty string when not recorded
func (c Clock) String() string {
	if !c.valid {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", c.minutes/60, c.minutes%60)
}

func (c Clock) MarshalJSON() ([]byte, error) {
	if !c.valid {
		return []byte("null"), nil
	}
	return json.Marshal(c.String())
}

func (c *Clock) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		*c = Clock{}
		return nil
	}
	parsed, err := ParseClock(*s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// DateLayout is the display form of a calendar date
const DateLayout = "02/01/2006"

var dateLayouts = []string{DateLayout, "2/1/2006", "2006-01-02"}

// Date is a calendar day without time of day. The zero value means not recorded.
type Date struct {
	t time.Time
}

// NewDate builds a calendar day
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf takes the calendar day of t in t's own location
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate parses DD/MM/YYYY (single-digit day and month accepted) or YYYY-MM-DD
func ParseDate(s string) (Date, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
}

func (d Date) IsZero() bool { return d.t.IsZero() }

// String returns DD/MM/YYYY, or an empty string for the zero date
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

// Key returns the date with path-unsafe separators replaced, for use in storage keys
func (d Date) Key() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format("02-01-2006")
}

func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

// Time returns midnight UTC of the day
func (d Date) Time() time.Time { return d.t }

// Compare returns -1, 0 or +1
func (d Date) Compare(other Date) int { return d.t.Compare(other.t) }

func (d Date) Before(other Date) bool { return d.t.Before(other.t) }

func (d Date) After(other Date) bool { return d.t.After(other.t) }

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(*s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

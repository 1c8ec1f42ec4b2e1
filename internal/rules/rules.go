// Package rules classifies punches against the working-hours policy
package rules

import (
	"fmt"
	"time"

	"attendance-report/internal/models"
)

// Status is the classification of one slot
type Status int

const (
	StatusNotRecorded Status = iota
	StatusOnTime
	StatusLate
	StatusEarly
	StatusNotApplicable
)

func (s Status) String() string {
	switch s {
	case StatusOnTime:
		return "on_time"
	case StatusLate:
		return "late"
	case StatusEarly:
		return "early"
	case StatusNotApplicable:
		return "not_applicable"
	default:
		return "not_recorded"
	}
}

// Flagged reports whether the status is a violation worth highlighting
func (s Status) Flagged() bool {
	return s == StatusLate || s == StatusEarly
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Thresholds holds the policy in minutes since midnight
type Thresholds struct {
	MorningInLateAfter      int // S1
	MorningOutEarlyBefore   int // S2
	AfternoonInLateAfter    int // C1
	AfternoonOutEarlyBefore int // C2
}

// DefaultThresholds: 07:15 / 11:15 / 13:00 / 17:00
func DefaultThresholds() Thresholds {
	return Thresholds{
		MorningInLateAfter:      7*60 + 15,
		MorningOutEarlyBefore:   11*60 + 15,
		AfternoonInLateAfter:    13 * 60,
		AfternoonOutEarlyBefore: 17 * 60,
	}
}

// ParseThresholds reads the four limits as HH:MM strings
func ParseThresholds(morningIn, morningOut, afternoonIn, afternoonOut string) (Thresholds, error) {
	var th Thresholds
	targets := []struct {
		name string
		raw  string
		dst  *int
	}{
		{"S1", morningIn, &th.MorningInLateAfter},
		{"S2", morningOut, &th.MorningOutEarlyBefore},
		{"C1", afternoonIn, &th.AfternoonInLateAfter},
		{"C2", afternoonOut, &th.AfternoonOutEarlyBefore},
	}
	for _, t := range targets {
		c, err := models.ParseClock(t.raw)
		if err != nil {
			return Thresholds{}, fmt.Errorf("threshold %s: %w", t.name, err)
		}
		*t.dst = c.Minutes()
	}
	return th, nil
}

// IsLate reports whether a valid HH:MM time is strictly after the threshold.
// Malformed or empty times are never late.
func IsLate(t string, threshold int) bool {
	c, err := models.ParseClock(t)
	if err != nil {
		return false
	}
	return c.Minutes() > threshold
}

// IsEarly reports whether a valid HH:MM time is strictly before the threshold.
// Malformed or empty times are never early.
func IsEarly(t string, threshold int) bool {
	c, err := models.ParseClock(t)
	if err != nil {
		return false
	}
	return c.Minutes() < threshold
}

// NotApplicable reports whether a slot is outside the working schedule for the record's day.
// Saturday is a half day: the afternoon slots only count when Saturday is included explicitly.
func NotApplicable(rec models.AttendanceRecord, s models.Slot, includeSaturday bool) bool {
	return s.IsAfternoon() && !includeSaturday && !rec.Date.IsZero() && rec.Date.Weekday() == time.Saturday
}

// ClassifySlot evaluates one punch without weekday context
func (th Thresholds) ClassifySlot(s models.Slot, c models.Clock) Status {
	if !c.Recorded() {
		return StatusNotRecorded
	}
	t := c.String()
	switch s {
	case models.SlotMorningIn:
		if IsLate(t, th.MorningInLateAfter) {
			return StatusLate
		}
	case models.SlotMorningOut:
		if IsEarly(t, th.MorningOutEarlyBefore) {
			return StatusEarly
		}
	case models.SlotAfternoonIn:
		if IsLate(t, th.AfternoonInLateAfter) {
			return StatusLate
		}
	case models.SlotAfternoonOut:
		if IsEarly(t, th.AfternoonOutEarlyBefore) {
			return StatusEarly
		}
	}
	return StatusOnTime
}

// Classify evaluates every slot of a record
func (th Thresholds) Classify(rec models.AttendanceRecord, includeSaturday bool) [models.SlotCount]Status {
	var out [models.SlotCount]Status
	for _, s := range models.Slots {
		if NotApplicable(rec, s, includeSaturday) {
			out[s] = StatusNotApplicable
			continue
		}
		out[s] = th.ClassifySlot(s, rec.Slot(s))
	}
	return out
}

// HasViolation reports whether any slot of the record is late or early
func (th Thresholds) HasViolation(rec models.AttendanceRecord, includeSaturday bool) bool {
	for _, st := range th.Classify(rec, includeSaturday) {
		if st.Flagged() {
			return true
		}
	}
	return false
}

package rules

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendance-report/internal/models"
)

func mustClock(t *testing.T, s string) models.Clock {
	t.Helper()
	c, err := models.ParseClock(s)
	require.NoError(t, err)
	return c
}

func TestIsLate(t *testing.T) {
	tests := []struct {
		name      string
		time      string
		threshold int
		want      bool
	}{
		{"After morning limit", "07:26", 435, true},
		{"Exactly at limit", "07:15", 435, false},
		{"One minute after", "07:16", 435, true},
		{"Before limit", "06:59", 435, false},
		{"Single digit hour", "7:30", 435, true},
		{"Empty", "", 435, false},
		{"Garbage", "late", 435, false},
		{"Hour out of range", "24:00", 0, false},
		{"Minute out of range", "07:60", 0, false},
		{"Seconds not accepted", "07:26:10", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLate(tt.time, tt.threshold))
		})
	}
}

func TestIsEarly(t *testing.T) {
	tests := []struct {
		name      string
		time      string
		threshold int
		want      bool
	}{
		{"Left before noon limit", "11:00", 675, true},
		{"Exactly at limit", "11:15", 675, false},
		{"After limit", "11:30", 675, false},
		{"Midnight is a valid time", "00:00", 1, true},
		{"Absent", "", 1020, false},
		{"Malformed", "5pm", 1020, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsEarly(tt.time, tt.threshold))
		})
	}
}

func TestLateAndEarlyAreNeverBothTrue(t *testing.T) {
	for _, k := range []int{0, 435, 675, 780, 1020, 1439} {
		for h := 0; h < 24; h++ {
			for m := 0; m < 60; m++ {
				s := fmt.Sprintf("%02d:%02d", h, m)
				total := h*60 + m
				late, early := IsLate(s, k), IsEarly(s, k)
				require.Equal(t, total > k, late, s)
				require.Equal(t, total < k, early, s)
				require.False(t, late && early, s)
			}
		}
	}
}

func TestParseThresholds(t *testing.T) {
	th, err := ParseThresholds("07:15", "11:15", "13:00", "17:00")
	require.NoError(t, err)
	assert.Equal(t, DefaultThresholds(), th)

	_, err = ParseThresholds("07:15", "noon", "13:00", "17:00")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrMalformedTime)
	assert.Contains(t, err.Error(), "S2")
}

func TestClassify(t *testing.T) {
	th := DefaultThresholds()
	weekday := models.NewDate(2025, time.June, 2) // Monday
	saturday := models.NewDate(2025, time.June, 7)
	require.Equal(t, time.Saturday, saturday.Weekday())

	rec := models.NewAttendanceRecord("Nguyễn Văn A", weekday)
	rec.SetSlot(models.SlotMorningIn, mustClock(t, "07:26"))
	rec.SetSlot(models.SlotMorningOut, mustClock(t, "11:30"))
	rec.SetSlot(models.SlotAfternoonIn, mustClock(t, "13:05"))

	got := th.Classify(rec, false)
	assert.Equal(t, [models.SlotCount]Status{StatusLate, StatusOnTime, StatusLate, StatusNotRecorded}, got)
	assert.True(t, th.HasViolation(rec, false))

	t.Run("Saturday afternoon is not applicable", func(t *testing.T) {
		sat := rec
		sat.Date = saturday
		sat.SetSlot(models.SlotAfternoonOut, mustClock(t, "15:00"))

		got := th.Classify(sat, false)
		assert.Equal(t, StatusLate, got[models.SlotMorningIn])
		assert.Equal(t, StatusNotApplicable, got[models.SlotAfternoonIn])
		assert.Equal(t, StatusNotApplicable, got[models.SlotAfternoonOut])
	})

	t.Run("Saturday included", func(t *testing.T) {
		sat := rec
		sat.Date = saturday
		sat.SetSlot(models.SlotAfternoonOut, mustClock(t, "15:00"))

		got := th.Classify(sat, true)
		assert.Equal(t, StatusLate, got[models.SlotAfternoonIn])
		assert.Equal(t, StatusEarly, got[models.SlotAfternoonOut])
	})

	t.Run("Custom thresholds", func(t *testing.T) {
		custom := th
		custom.MorningInLateAfter = 8 * 60
		got := custom.Classify(rec, false)
		assert.Equal(t, StatusOnTime, got[models.SlotMorningIn])
	})
}

func TestClassifyAbsentNeverFlagged(t *testing.T) {
	th := DefaultThresholds()
	rec := models.NewAttendanceRecord("B", models.NewDate(2025, time.April, 1))
	for _, st := range th.Classify(rec, true) {
		assert.Equal(t, StatusNotRecorded, st)
	}
	assert.False(t, th.HasViolation(rec, true))
}

package sheet

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"attendance-report/internal/models"
)

const (
	// excelEpochOffset is the serial of 1970-01-01
	excelEpochOffset = 25569
	secondsPerDay    = 86400
)

// yearMonth matches the "2006.01" text legacy .xls readers give for date-formatted cells.
// The day is lost, so such a cell cannot be converted.
var yearMonth = regexp.MustCompile(`^(1[89]|2[01])\d{2}\.(0[1-9]|1[0-2])$`)

// DateFromSerial converts a spreadsheet date serial to a calendar day.
// Zero, negative and non-finite serials give the zero Date (not recorded).
func DateFromSerial(serial float64) models.Date {
	if serial <= 0 || math.IsNaN(serial) || math.IsInf(serial, 0) {
		return models.Date{}
	}
	secs := math.Round((serial - excelEpochOffset) * secondsPerDay)
	return models.DateOf(time.Unix(int64(secs), 0).UTC())
}

// TimeFromFraction converts a day fraction to a time of day. Seconds are truncated.
// Zero, negative and non-finite input give the zero Clock (not recorded), as does a
// whole-day serial with no time part.
func TimeFromFraction(fraction float64) models.Clock {
	if fraction <= 0 || math.IsNaN(fraction) || math.IsInf(fraction, 0) {
		return models.Clock{}
	}
	secs := int64(math.Round(fraction*secondsPerDay)) % secondsPerDay
	if secs == 0 && fraction >= 1 {
		return models.Clock{}
	}
	return models.ClockFromMinutes(int(secs / 60))
}

// ConvertDate turns a raw date cell into a calendar day. Blank cells are not recorded.
// Cells that cannot be read yield the zero Date and a ConversionError.
func ConvertDate(v any) (models.Date, error) {
	switch x := v.(type) {
	case nil:
		return models.Date{}, nil
	case time.Time:
		return models.DateOf(x), nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return models.Date{}, nil
		}
		if yearMonth.MatchString(s) {
			return models.Date{}, &models.ConversionError{Field: FieldDate, Value: s}
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return DateFromSerial(f), nil
		}
		if d, err := models.ParseDate(s); err == nil {
			return d, nil
		}
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return models.DateOf(t), nil
		}
		return models.Date{}, &models.ConversionError{Field: FieldDate, Value: s}
	}
	if f, ok := toFloat(v); ok {
		return DateFromSerial(f), nil
	}
	return models.Date{}, &models.ConversionError{Field: FieldDate, Value: toString(v)}
}

// ConvertTime turns a raw punch cell into a time of day. Blank cells are not recorded.
// Cells that cannot be read yield the zero Clock and a ConversionError.
func ConvertTime(field string, v any) (models.Clock, error) {
	switch x := v.(type) {
	case nil:
		return models.Clock{}, nil
	case time.Time:
		return models.NewClock(x.Hour(), x.Minute())
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return models.Clock{}, nil
		}
		if yearMonth.MatchString(s) {
			return models.Clock{}, &models.ConversionError{Field: field, Value: s}
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return TimeFromFraction(f), nil
		}
		if c, err := models.ParseClock(s); err == nil {
			return c, nil
		}
		for _, layout := range []string{"15:04:05", time.RFC3339} {
			if t, err := time.Parse(layout, s); err == nil {
				return models.NewClock(t.Hour(), t.Minute())
			}
		}
		return models.Clock{}, &models.ConversionError{Field: field, Value: s}
	}
	if f, ok := toFloat(v); ok {
		return TimeFromFraction(f), nil
	}
	return models.Clock{}, &models.ConversionError{Field: field, Value: toString(v)}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	}
	return 0, false
}

// toString renders a cell value for messages and search
func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	if f, ok := toFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	if s, ok := v.(interface{ String() string }); ok {
		return s.String()
	}
	return ""
}

// CellString renders a raw cell value as text
func CellString(v any) string {
	return strings.TrimSpace(toString(v))
}

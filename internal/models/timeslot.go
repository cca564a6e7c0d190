package models

import (
	"fmt"
	"strings"
	"time"
)

// Day is a canonical lowercase day-of-week name ("sunday".."saturday").
type Day string

const (
	Sunday    Day = "sunday"
	Monday    Day = "monday"
	Tuesday   Day = "tuesday"
	Wednesday Day = "wednesday"
	Thursday  Day = "thursday"
	Friday    Day = "friday"
	Saturday  Day = "saturday"
)

// AllDays lists the canonical days in calendar order.
var AllDays = []Day{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// ParseDay matches a day name case-insensitively against the canonical set.
func ParseDay(s string) (Day, error) {
	d := Day(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllDays {
		if d == known {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: unknown day of week %q", ErrInvalidInput, s)
}

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date string as a naive calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid date %q, expected YYYY-MM-DD", ErrInvalidInput, s)
	}
	return t, nil
}

// DayOf returns the canonical day-of-week for a YYYY-MM-DD date.
// The calendar's own weekday computation is authoritative; no timezone
// conversion is performed.
func DayOf(date string) (Day, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return Day(strings.ToLower(t.Weekday().String())), nil
}

// slotLayouts are the accepted input forms for a slot label, tried in order.
var slotLayouts = []string{"15:04", "3:04 PM", "3:04PM"}

// NormalizeSlot converts a slot label to the canonical 24-hour "HH:MM"
// form. It accepts 24-hour labels (zero-padding "9:00" to "09:00") and
// 12-hour "H:MM AM/PM" labels. Callers booking a slot fall back to the raw
// string when normalization fails; a failure here never aborts a booking
// by itself.
func NormalizeSlot(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: empty time slot", ErrInvalidInput)
	}
	s = strings.ToUpper(s)
	for _, layout := range slotLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04"), nil
		}
	}
	return "", fmt.Errorf("%w: unrecognized time slot %q", ErrInvalidInput, raw)
}

package reservation

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// parseClock converts an "HH:MM" string to minutes past midnight.
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("%w: time %q, expected HH:MM", ErrInvalidSlot, s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// formatClock renders minutes past midnight as "HH:MM".
func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// weekday returns the lowercase weekday name for an ISO date.
func weekday(date string) (string, error) {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return "", fmt.Errorf("%w: date %q, expected YYYY-MM-DD", ErrInvalidSlot, date)
	}
	switch t.Weekday() {
	case time.Monday:
		return "monday", nil
	case time.Tuesday:
		return "tuesday", nil
	case time.Wednesday:
		return "wednesday", nil
	case time.Thursday:
		return "thursday", nil
	case time.Friday:
		return "friday", nil
	case time.Saturday:
		return "saturday", nil
	default:
		return "sunday", nil
	}
}

// nextDay returns the ISO date one day after the given date.
func nextDay(date string) (string, error) {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return "", fmt.Errorf("%w: date %q, expected YYYY-MM-DD", ErrInvalidSlot, date)
	}
	return t.AddDate(0, 0, 1).Format(dateLayout), nil
}

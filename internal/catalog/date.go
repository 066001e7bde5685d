package catalog

import (
	"fmt"
	"time"
)

// FormatDate renders a post date as "November 26th, 2021". A nil or zero
// date yields "Invalid date".
func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "Invalid date"
	}
	day := t.Day()
	return fmt.Sprintf("%s %d%s, %d", t.Month(), day, ordinal(day), t.Year())
}

func ordinal(n int) string {
	if v := n % 100; v >= 11 && v <= 13 {
		return "th"
	}
	switch n % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}

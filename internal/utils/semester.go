package utils

import (
	"fmt"
	"time"
)

// Semester names the academic term a date falls in: Spring (Jan-Apr),
// Summer (May-Aug) or Fall (Sep-Dec), suffixed with the year.
func Semester(t time.Time) string {
	var term string
	switch {
	case t.Month() <= time.April:
		term = "Spring"
	case t.Month() <= time.August:
		term = "Summer"
	default:
		term = "Fall"
	}
	return fmt.Sprintf("%s%d", term, t.Year())
}

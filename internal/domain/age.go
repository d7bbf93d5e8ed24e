package domain

import (
	"fmt"
	"strings"
	"time"
)

// HumanizeAge renders how long ago ts was, e.g. "2 days 3 hrs 4 mins ago".
// Seconds are only shown when the minute component is zero.
func HumanizeAge(ts, now time.Time) string {
	diff := now.Sub(ts)
	if diff < 0 {
		diff = 0
	}
	total := int64(diff / time.Second)
	days := total / 86400
	total %= 86400
	hrs := total / 3600
	total %= 3600
	mins := total / 60
	secs := total % 60

	parts := make([]string, 0, 3)
	if days != 0 {
		parts = append(parts, fmt.Sprintf("%d days", days))
	}
	if hrs != 0 {
		parts = append(parts, fmt.Sprintf("%d hrs", hrs))
	}
	if mins != 0 {
		parts = append(parts, fmt.Sprintf("%d mins", mins))
	} else {
		parts = append(parts, fmt.Sprintf("%d secs", secs))
	}
	return strings.Join(parts, " ") + " ago"
}

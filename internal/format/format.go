// Package format renders durations for the queue-building UI.
package format

import (
	"fmt"
	"math"
)

// Duration renders a second count as a short human string: "~2m 30s",
// "~45s", "~1h 5m". Sub-second durations render "< 1s"; zero renders "~0s".
func Duration(seconds float64) string {
	if seconds <= 0 {
		return "~0s"
	}
	if seconds < 1 {
		return "< 1s"
	}

	total := int(math.Round(seconds))
	switch {
	case total < 60:
		return fmt.Sprintf("~%ds", total)
	case total < 3600:
		m, s := total/60, total%60
		if s == 0 {
			return fmt.Sprintf("~%dm", m)
		}
		return fmt.Sprintf("~%dm %ds", m, s)
	default:
		h, m := total/3600, (total%3600)/60
		if m == 0 {
			return fmt.Sprintf("~%dh", h)
		}
		return fmt.Sprintf("~%dh %dm", h, m)
	}
}

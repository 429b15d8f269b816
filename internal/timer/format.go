// Package timer implements the solve timer state machine and time formatting.
package timer

import (
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/cubetui/internal/model"
)

// DateLayout is the calendar-date format used for grouping solves and reviews.
const DateLayout = "2006-01-02"

// FormatTime renders milliseconds as "45.67" or "1:23.45". Negative values render as DNF.
func FormatTime(ms int64, precision int) string {
	if ms < 0 {
		return "DNF"
	}
	if precision != 3 {
		precision = 2
	}
	totalSeconds := float64(ms) / 1000
	minutes := ms / 60000
	seconds := totalSeconds - float64(minutes*60)
	formatted := strconv.FormatFloat(seconds, 'f', precision, 64)
	if minutes > 0 {
		if pad := precision + 3 - len(formatted); pad > 0 {
			formatted = strings.Repeat("0", pad) + formatted
		}
		return strconv.FormatInt(minutes, 10) + ":" + formatted
	}
	return formatted
}

// FormatSolveTime renders a solve time with its penalty marker.
func FormatSolveTime(ms int64, penalty model.Penalty, precision int) string {
	if penalty == model.PenaltyDNF {
		return "DNF"
	}
	formatted := FormatTime(ms+int64(penalty), precision)
	if penalty == model.PenaltyPlusTwo {
		return formatted + "+"
	}
	return formatted
}

// DateString returns the UTC calendar date of a Unix timestamp in seconds.
func DateString(unixSeconds int64) string {
	return time.Unix(unixSeconds, 0).UTC().Format(DateLayout)
}

// Today returns the UTC calendar date of t.
func Today(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

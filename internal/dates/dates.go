// Package dates normalizes the free-form validity dates typed into the spreadsheets.
package dates

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"InstrumentsMonitor/internal/domain"
)

// Parse reads a calendar date from raw trying, in order, D/M/YYYY (slash or dash),
// a YYYY-MM-DD prefix and finally an ISO date over the first ten characters.
// Two-digit years are rejected, and so is any date the calendar does not have.
func Parse(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	for _, sep := range []string{"/", "-"} {
		parts := strings.Split(raw, sep)
		if len(parts) != 3 || utf8.RuneCountInString(parts[2]) != 4 {
			continue
		}
		if d, ok := civil(parts[2], parts[1], parts[0]); ok {
			return d, true
		}
	}

	if len(raw) >= 10 && raw[4] == '-' && raw[7] == '-' {
		if d, ok := civil(raw[0:4], raw[5:7], raw[8:10]); ok {
			return d, true
		}
	}

	head := raw
	if len(head) > 10 {
		head = head[:10]
	}
	for _, layout := range []string{time.DateOnly, "20060102"} {
		if d, err := time.Parse(layout, head); err == nil {
			return d, true
		}
	}

	return time.Time{}, false
}

func civil(year, month, day string) (time.Time, bool) {
	y, err := strconv.Atoi(strings.TrimSpace(year))
	if err != nil {
		return time.Time{}, false
	}
	m, err := strconv.Atoi(strings.TrimSpace(month))
	if err != nil {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(strings.TrimSpace(day))
	if err != nil {
		return time.Time{}, false
	}
	if y < 1 || y > 9999 || m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}

	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (31/02 -> 03/03); reject instead.
	if t.Day() != d || int(t.Month()) != m {
		return time.Time{}, false
	}
	return t, true
}

const secondsPerDay = 24 * 60 * 60

// Today truncates now to its calendar date in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc != nil {
		now = now.In(loc)
	}
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysRemaining counts calendar days from today until d; absent when !ok.
func DaysRemaining(d time.Time, ok bool, today time.Time) domain.Days {
	if !ok {
		return domain.Days{}
	}
	end := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	start := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	// Unix seconds avoid the ~292 year clamp of time.Duration.
	return domain.DaysOf(int((end.Unix() - start.Unix()) / secondsPerDay))
}

// Format renders a parsed date as ISO-8601, empty when absent.
func Format(d time.Time, ok bool) string {
	if !ok {
		return ""
	}
	return d.Format(time.DateOnly)
}

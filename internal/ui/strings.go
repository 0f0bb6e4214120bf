package ui

import (
	"fmt"
	"strings"
	"time"
)

// truncate shortens a string to the given limit, adding ellipsis if needed.
func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// truncateMiddle keeps both ends of a string, useful for paths and URLs.
func truncateMiddle(value string, limit int) string {
	value = strings.TrimSpace(value)
	runes := []rune(value)
	if limit <= 0 || len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	keep := limit - 1
	prefix := keep / 2
	suffix := keep - prefix
	return string(runes[:prefix]) + "…" + string(runes[len(runes)-suffix:])
}

// padRight pads a string with spaces to the given width.
func padRight(s string, width int) string {
	r := []rune(s)
	if width <= 0 || len(r) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(r))
}

// relativeTime renders how long ago t was, coarsely.
func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := now.Sub(t)
	switch {
	case d < 0:
		return "just now"
	case d < 5*time.Second:
		return "just now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return t.Local().Format("2006-01-02 15:04")
	}
}

// Date range input layouts, most specific first.
var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseDateRange parses "<start> .. <end>" (or "<start> <end>" when each
// bound is a bare date). Bare dates cover the whole day: the end bound is
// pushed to 23:59:59. Empty input clears the range.
func parseDateRange(input string, loc *time.Location) (start, end time.Time, err error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, time.Time{}, nil
	}
	var parts []string
	if strings.Contains(input, "..") {
		parts = strings.SplitN(input, "..", 2)
	} else {
		parts = strings.Fields(input)
	}
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("want \"start .. end\", got %q", input)
	}

	start, _, err = parseDateBound(parts[0], loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, dateOnly, err := parseDateBound(parts[1], loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if dateOnly {
		end = end.Add(24*time.Hour - time.Second)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end %s is before start %s", end.Format(time.DateTime), start.Format(time.DateTime))
	}
	return start, end, nil
}

func parseDateBound(value string, loc *time.Location) (time.Time, bool, error) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, layout == "2006-01-02", nil
		}
	}
	return time.Time{}, false, fmt.Errorf("unrecognised date %q (use YYYY-MM-DD or YYYY-MM-DD HH:MM)", value)
}

// formatDateRange is the inverse of parseDateRange for display.
func formatDateRange(start, end time.Time) string {
	if start.IsZero() || end.IsZero() {
		return ""
	}
	return start.Local().Format("2006-01-02 15:04") + " .. " + end.Local().Format("2006-01-02 15:04")
}

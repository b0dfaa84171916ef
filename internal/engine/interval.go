package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/routinez-api/internal/models"
)

// ParseClock converts a clock text into minutes since midnight. It
// accepts 24-hour forms ("14:30", "08:00:00") and 12-hour forms
// ("2:30 PM", "9:00AM", "8 AM"). The boolean is false for empty or
// unparsable input; callers must treat that as "unknown" and decide
// fail-open or fail-closed themselves.
func ParseClock(text string) (int, bool) {
	t := strings.ToUpper(strings.TrimSpace(text))
	if t == "" {
		return 0, false
	}

	meridiem := ""
	switch {
	case strings.HasSuffix(t, "AM"):
		meridiem = "AM"
		t = strings.TrimSpace(strings.TrimSuffix(t, "AM"))
	case strings.HasSuffix(t, "PM"):
		meridiem = "PM"
		t = strings.TrimSpace(strings.TrimSuffix(t, "PM"))
	}

	parts := strings.Split(t, ":")
	if len(parts) > 3 {
		return 0, false
	}

	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, false
	}
	minute := 0
	if len(parts) > 1 {
		minute, err = strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return 0, false
		}
	}
	// Seconds are accepted and dropped.
	if len(parts) > 2 {
		if _, err := strconv.Atoi(strings.TrimSpace(parts[2])); err != nil {
			return 0, false
		}
	}

	if minute < 0 || minute > 59 {
		return 0, false
	}

	if meridiem != "" {
		if hour < 1 || hour > 12 {
			return 0, false
		}
		if hour == 12 {
			hour = 0
		}
		if meridiem == "PM" {
			hour += 12
		}
	} else if hour < 0 || hour > 23 {
		return 0, false
	}

	return hour*60 + minute, true
}

// MinutesToClock renders minutes-of-day as "HH:MM".
func MinutesToClock(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Overlap is the strict half-open interval test: intervals that merely
// touch at an endpoint do not conflict.
func Overlap(aStart, aEnd, bStart, bEnd int) bool {
	return max(aStart, bStart) < min(aEnd, bEnd)
}

var dateLayouts = []string{"2006-01-02", "02-01-2006", "2006/01/02", "02/01/2006"}

// NormalizeDate canonicalizes a date text to YYYY-MM-DD. The boolean is
// false when no known layout matches.
func NormalizeDate(text string) (string, bool) {
	t := strings.TrimSpace(text)
	if t == "" {
		return "", false
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, t); err == nil {
			return parsed.Format("2006-01-02"), true
		}
	}
	return "", false
}

// ParseWindow resolves a TimeWindow to minute endpoints, preferring the
// explicit start/end texts and falling back to splitting the label on "-".
func ParseWindow(w models.TimeWindow) (int, int, bool) {
	startText, endText := w.Start, w.End
	if startText == "" || endText == "" {
		parts := strings.SplitN(w.Label, "-", 2)
		if len(parts) != 2 {
			return 0, 0, false
		}
		startText, endText = parts[0], parts[1]
	}
	start, okStart := ParseClock(startText)
	end, okEnd := ParseClock(endText)
	if !okStart || !okEnd || start >= end {
		return 0, 0, false
	}
	return start, end, true
}

// DefaultGrid is the fixed 7-slot selection grid the frontend offers.
func DefaultGrid() []models.TimeWindow {
	labels := []string{
		"8:00 AM-9:20 AM",
		"9:30 AM-10:50 AM",
		"11:00 AM-12:20 PM",
		"12:30 PM-1:50 PM",
		"2:00 PM-3:20 PM",
		"3:30 PM-4:50 PM",
		"5:00 PM-6:20 PM",
	}
	grid := make([]models.TimeWindow, 0, len(labels))
	for _, label := range labels {
		parts := strings.SplitN(label, "-", 2)
		grid = append(grid, models.TimeWindow{Label: label, Start: parts[0], End: parts[1]})
	}
	return grid
}

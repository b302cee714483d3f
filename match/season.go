package match

import (
	"fmt"
	"time"
)

// DefaultSeasonEnd is the terminal date of the current competitive season.
// Scrape ranges never end before this date — see ClampEnd.
var DefaultSeasonEnd = time.Date(2026, time.June, 30, 0, 0, 0, 0, time.UTC)

// Season returns the season string for a given wall-clock date, e.g.
// "2025-26". The season rolls over in August: Aug 2025 → "2025-26",
// Jan 2026 → "2025-26", Aug 2026 → "2026-27". This is a function of the
// current date, not of any match date.
func Season(now time.Time) string {
	year := now.Year()
	if now.Month() >= time.August {
		return fmt.Sprintf("%d-%02d", year, (year+1)%100)
	}
	return fmt.Sprintf("%d-%02d", year-1, year%100)
}

// ClampEnd enforces the season-end floor on a requested range end. Any end
// date earlier than floor is raised to floor; the floor itself or anything
// later passes through unchanged.
func ClampEnd(end, floor time.Time) time.Time {
	if end.Before(floor) {
		return floor
	}
	return end
}

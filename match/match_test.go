package match

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSeasonRollsOverInAugust(t *testing.T) {
	cases := []struct {
		now  time.Time
		want string
	}{
		{date(2025, time.September, 1), "2025-26"},
		{date(2026, time.March, 1), "2025-26"},
		{date(2026, time.August, 1), "2026-27"},
		{date(2025, time.July, 31), "2024-25"},
		{date(2025, time.August, 1), "2025-26"},
	}
	for _, tc := range cases {
		if got := Season(tc.now); got != tc.want {
			t.Errorf("Season(%s) = %q, want %q", tc.now.Format("2006-01-02"), got, tc.want)
		}
	}
}

func TestClampEndRaisesEarlyDates(t *testing.T) {
	// WHAT: End dates before the floor are raised to the floor.
	// WHY: Every scrape call must cover the remainder of the season,
	// regardless of the range the directing agent supplies.
	floor := date(2026, time.June, 30)

	if got := ClampEnd(date(2026, time.February, 1), floor); !got.Equal(floor) {
		t.Errorf("got %s, want floor", got)
	}
	// The floor itself and later dates pass through.
	if got := ClampEnd(floor, floor); !got.Equal(floor) {
		t.Errorf("clamping the floor changed it: %s", got)
	}
	later := date(2026, time.July, 15)
	if got := ClampEnd(later, floor); !got.Equal(later) {
		t.Errorf("got %s, want %s", got, later)
	}
}

func TestNormalizeIsLeagueScoped(t *testing.T) {
	// WHAT: The same display name maps to different canonical names
	// depending on league, and to itself when absent from the table.
	n := Normalizer{
		"Homegrown": {"Intercontinental Football Academy": "IFA"},
		"Academy":   {"Intercontinental Football Academy": "IFA Academy"},
	}

	if got := n.Normalize("Homegrown", "Intercontinental Football Academy"); got != "IFA" {
		t.Errorf("Homegrown: got %q", got)
	}
	if got := n.Normalize("Academy", "Intercontinental Football Academy"); got != "IFA Academy" {
		t.Errorf("Academy: got %q", got)
	}
	if got := n.Normalize("Homegrown", "Boston Bolts"); got != "Boston Bolts" {
		t.Errorf("unmapped name changed: got %q", got)
	}
	if got := n.Normalize("Unknown League", "Intercontinental Football Academy"); got != "Intercontinental Football Academy" {
		t.Errorf("unknown league scope applied an override: got %q", got)
	}
}

func TestInvolvesIsExactMatch(t *testing.T) {
	r := Record{HomeTeam: "IFA", AwayTeam: "Boston Bolts"}

	if !r.Involves("IFA") {
		t.Error("home team exact match should be retained")
	}
	if !r.Involves("Boston Bolts") {
		t.Error("away team exact match should be retained")
	}
	if r.Involves("IF") {
		t.Error("substring must not match")
	}
	if r.Involves("ifa") {
		t.Error("match is case-sensitive")
	}
}

func TestHasScore(t *testing.T) {
	two, one := 2, 1
	r := Record{HomeScore: &two, AwayScore: &one}
	if !r.HasScore() {
		t.Error("both scores present should report true")
	}
	r = Record{HomeScore: &two}
	if r.HasScore() {
		t.Error("one-sided score should report false")
	}
	if (&Record{}).HasScore() {
		t.Error("no scores should report false")
	}
}

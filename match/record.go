// Package match holds the domain model for scraped match records: the
// queue-facing record shape, season derivation, the season-end floor, and
// league-scoped team-name normalization.
package match

// Source tags every record published by this pipeline.
const Source = "match-scraper-agent"

// TypeLeague is the only match type this pipeline produces.
const TypeLeague = "League"

// Record is the shape submitted to the downstream match queue.
//
// Division doubles as the conference name for conference-based leagues:
// the downstream schema has no separate conference attribute, so
// conference-based leagues repurpose the division slot. This is a
// deliberate overload, not a bug.
//
// HomeScore and AwayScore are nil unless the upstream result carried both
// integers — never a placeholder number, never one without the other.
type Record struct {
	HomeTeam        string `json:"home_team"`
	AwayTeam        string `json:"away_team"`
	MatchDate       string `json:"match_date"` // calendar date, ISO 8601
	Season          string `json:"season"`
	AgeGroup        string `json:"age_group"`
	MatchType       string `json:"match_type"`
	Division        string `json:"division"`
	League          string `json:"league"`
	HomeScore       *int   `json:"home_score"`
	AwayScore       *int   `json:"away_score"`
	MatchStatus     string `json:"match_status"`
	ExternalMatchID string `json:"external_match_id"`
	Location        string `json:"location"`
	SourceTag       string `json:"source"`
}

// HasScore reports whether both scores are present.
func (r *Record) HasScore() bool {
	return r.HomeScore != nil && r.AwayScore != nil
}

// Involves reports whether team exactly equals the home or away name.
// Exact match only — a substring or case variant does not count.
func (r *Record) Involves(team string) bool {
	return r.HomeTeam == team || r.AwayTeam == team
}

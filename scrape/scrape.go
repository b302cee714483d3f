// Package scrape defines the scrape-engine contract consumed by the agent
// tools, and a headless-Chrome implementation built on Rod.
//
// The engine is deliberately dumb: given a descriptor it returns the match
// rows it found, verbatim. Normalization, filtering and season shaping all
// happen in the tools layer.
package scrape

import (
	"context"
	"time"
)

// Descriptor is one scrape request: the competition slice and date range
// to pull from the upstream schedule.
type Descriptor struct {
	AgeGroup   string
	League     string
	Division   string
	Conference string
	Club       string

	StartDate time.Time
	EndDate   time.Time

	// LookBackDays is informational: the span of the requested range in
	// days. The engine may use it to pick between day and month views.
	LookBackDays int
}

// Target is the human-readable competition label for the descriptor:
// age group + league + conference (or division, when no conference is set).
func (d Descriptor) Target() string {
	label := d.AgeGroup + " " + d.League
	switch {
	case d.Conference != "":
		label += " " + d.Conference
	case d.Division != "":
		label += " " + d.Division
	}
	return label
}

// Match is one row extracted from the upstream schedule, untouched.
// HomeScore and AwayScore are nil for fixtures that have not been played
// (or where the site shows anything other than two integers).
type Match struct {
	MatchID   string
	HomeTeam  string
	AwayTeam  string
	HomeScore *int
	AwayScore *int
	Status    string
	Kickoff   time.Time
	Location  string
}

// HasScore reports whether both scores were extracted.
func (m *Match) HasScore() bool {
	return m.HomeScore != nil && m.AwayScore != nil
}

// Engine produces match rows for a descriptor. Implementations own their
// retry and timeout behaviour; callers treat any returned error as final.
type Engine interface {
	Scrape(ctx context.Context, d Descriptor) ([]Match, error)
}

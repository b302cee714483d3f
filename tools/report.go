package tools

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ActionKind classifies one agent action in the run report.
type ActionKind string

const (
	ActionScrape ActionKind = "scrape"
	ActionSubmit ActionKind = "submit"
	ActionSkip   ActionKind = "skip"
)

// Action is one tool action taken during the run.
type Action struct {
	Kind   ActionKind `json:"action"`
	Detail string     `json:"detail"`
	DryRun bool       `json:"dry_run"`
}

// Report is the structured run result: what the agent did, how many
// matches were found and submitted, and the agent's closing summary.
type Report struct {
	Summary          string   `json:"summary"`
	Actions          []Action `json:"actions"`
	MatchesFound     int      `json:"matches_found"`
	MatchesSubmitted int      `json:"matches_submitted"`
}

// Render formats the report for a terminal.
func (r *Report) Render() string {
	var b strings.Builder
	if r.Summary != "" {
		b.WriteString(r.Summary)
		b.WriteByte('\n')
	}
	for _, a := range r.Actions {
		prefix := ""
		if a.DryRun {
			prefix = "[DRY RUN] "
		}
		fmt.Fprintf(&b, "  %s%s: %s\n", prefix, a.Kind, a.Detail)
	}
	fmt.Fprintf(&b, "matches found: %d, submitted: %d\n", r.MatchesFound, r.MatchesSubmitted)
	return b.String()
}

// JSON renders the report as an indented JSON document.
func (r *Report) JSON() (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("tools: encode report: %w", err)
	}
	return string(data), nil
}

package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hazyhaar/matchagent/kit"
	"github.com/hazyhaar/matchagent/match"
	"github.com/hazyhaar/matchagent/scrape"
)

// ErrBadDate is returned when a scrape date cannot be parsed. It surfaces
// to the agent as a tool-call failure; the agent may retry with corrected
// input within its retry budget.
var ErrBadDate = errors.New("tools: invalid date")

const dateLayout = "2006-01-02"

// TodayInfo returns the current date context: date, weekday, ISO week and
// UTC time. No inputs, no side effects, no failure modes.
func TodayInfo(ctx context.Context, d *Deps) string {
	d.defaults()
	now := d.Now().UTC()
	_, week := now.ISOWeek()

	d.Logger.Info("tool.get_today_info",
		"run_id", kit.GetRunID(ctx),
		"date", now.Format(dateLayout),
		"day", now.Weekday().String(),
	)

	return fmt.Sprintf("Date: %s\nDay: %s\nWeek: %d\nTime (UTC): %s",
		now.Format(dateLayout),
		now.Weekday().String(),
		week,
		now.Format("15:04"),
	)
}

// ScrapeRequest carries the scrape capability's arguments. Dates are
// required ISO 8601 strings; the rest fall back to the run configuration.
type ScrapeRequest struct {
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	AgeGroup   string `json:"age_group,omitempty"`
	League     string `json:"league,omitempty"`
	Division   string `json:"division,omitempty"`
	Conference string `json:"conference,omitempty"`
	Club       string `json:"club,omitempty"`
}

// ScrapeMatches scrapes the upstream schedule for a date range, shapes the
// results into queue records, appends them to the run context, and returns
// a digest of everything the engine saw.
//
// The digest deliberately covers all engine results, not just those that
// survive the team filter — the agent needs the full picture to decide its
// next action.
func ScrapeMatches(ctx context.Context, d *Deps, req ScrapeRequest) (string, error) {
	d.defaults()
	log := d.Logger

	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return "", fmt.Errorf("%w: start_date %q", ErrBadDate, req.StartDate)
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return "", fmt.Errorf("%w: end_date %q", ErrBadDate, req.EndDate)
	}

	// Season-end floor: the caller cannot undercut it. Every scrape covers
	// the remainder of the season no matter what range the agent asked for.
	if clamped := match.ClampEnd(end, d.SeasonEnd); !clamped.Equal(end) {
		log.Info("tool.scrape_matches.end_raised",
			"requested", end.Format(dateLayout),
			"floor", d.SeasonEnd.Format(dateLayout),
		)
		end = clamped
	}

	desc := scrape.Descriptor{
		AgeGroup:     fallback(req.AgeGroup, d.Config.AgeGroup),
		League:       fallback(req.League, d.Config.League),
		Division:     fallback(req.Division, d.Config.Division),
		Conference:   req.Conference,
		Club:         req.Club,
		StartDate:    start,
		EndDate:      end,
		LookBackDays: int(end.Sub(start).Hours() / 24),
	}

	log.Info("tool.scrape_matches",
		"run_id", kit.GetRunID(ctx),
		"start", start.Format(dateLayout),
		"end", end.Format(dateLayout),
		"target", desc.Target(),
	)

	// Engine failures propagate uncaught — no retry at this layer.
	ms, err := d.Engine.Scrape(ctx, desc)
	if err != nil {
		return "", fmt.Errorf("scrape %s: %w", desc.Target(), err)
	}

	// The downstream schema has no conference attribute: conference-based
	// leagues store the conference name in the division slot.
	division := desc.Division
	if desc.Conference != "" {
		division = desc.Conference
	}

	season := match.Season(d.Now())
	batch := make([]match.Record, 0, len(ms))
	for _, m := range ms {
		rec := match.Record{
			HomeTeam:        d.Names.Normalize(desc.League, m.HomeTeam),
			AwayTeam:        d.Names.Normalize(desc.League, m.AwayTeam),
			MatchDate:       m.Kickoff.Format(dateLayout),
			Season:          season,
			AgeGroup:        desc.AgeGroup,
			MatchType:       match.TypeLeague,
			Division:        division,
			League:          desc.League,
			HomeScore:       m.HomeScore,
			AwayScore:       m.AwayScore,
			MatchStatus:     m.Status,
			ExternalMatchID: m.MatchID,
			Location:        m.Location,
			SourceTag:       match.Source,
		}
		if d.TeamFilter != "" && !rec.Involves(d.TeamFilter) {
			continue
		}
		batch = append(batch, rec)
	}
	d.append(batch)
	d.report.MatchesFound += len(ms)

	rangeLabel := fmt.Sprintf("%s to %s", start.Format(dateLayout), end.Format(dateLayout))
	d.recordAction(ActionScrape,
		fmt.Sprintf("%s: %d matches (%s), %d retained", desc.Target(), len(ms), rangeLabel, len(batch)),
		false)

	if len(ms) == 0 {
		return fmt.Sprintf("No matches found for %s (%s).", desc.Target(), rangeLabel), nil
	}

	lines := []string{fmt.Sprintf("Found %d matches (%s):", len(ms), rangeLabel)}
	for _, m := range ms {
		score := ""
		if m.HasScore() {
			score = fmt.Sprintf(" (%d-%d)", *m.HomeScore, *m.AwayScore)
		}
		lines = append(lines, fmt.Sprintf("  %s | %s vs %s%s [%s]",
			m.Kickoff.Format(dateLayout), m.HomeTeam, m.AwayTeam, score, m.Status))
	}

	log.Info("tool.scrape_matches.done", "matches_found", len(ms), "retained", len(batch))
	return strings.Join(lines, "\n"), nil
}

// SubmitMatches drains the run context's accumulated records into the
// queue. Per-record faults are counted and logged, never fatal — one bad
// record does not sink the batch. In dry-run mode it reports intent and
// leaves the accumulator untouched.
func SubmitMatches(ctx context.Context, d *Deps) (string, error) {
	d.defaults()
	log := d.Logger

	records := d.scraped
	if len(records) == 0 {
		d.recordAction(ActionSkip, "no matches to submit", d.DryRun)
		return "No matches to submit. Run scrape_matches first.", nil
	}

	if d.DryRun {
		log.Info("tool.submit_matches.dry_run", "count", len(records))
		d.recordAction(ActionSubmit, fmt.Sprintf("would submit %d matches", len(records)), true)
		return fmt.Sprintf("[DRY RUN] Would submit %d matches to queue.", len(records)), nil
	}

	if d.Queue == nil {
		return "", errors.New("tools: queue client not configured")
	}

	submitted, errCount := 0, 0
	for _, rec := range records {
		if _, err := d.Queue.Submit(ctx, rec); err != nil {
			errCount++
			log.Warn("tool.submit_matches.error",
				"match", fmt.Sprintf("%s vs %s", rec.HomeTeam, rec.AwayTeam),
				"error", err,
			)
			continue
		}
		submitted++
	}
	d.drain()
	d.report.MatchesSubmitted += submitted
	d.recordAction(ActionSubmit,
		fmt.Sprintf("submitted %d matches (%d errors)", submitted, errCount), false)

	log.Info("tool.submit_matches.done", "submitted", submitted, "errors", errCount)
	return fmt.Sprintf("Submitted %d matches to queue (%d errors).", submitted, errCount), nil
}

func fallback(value, def string) string {
	if value != "" {
		return value
	}
	return def
}

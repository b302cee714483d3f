package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
)

// Config configures the Rod engine.
type Config struct {
	// BaseURL is the schedule page. The descriptor is encoded as query
	// parameters on top of it.
	BaseURL string

	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local headless Chrome via launcher.
	RemoteURL string

	// Timeout bounds one full scrape (navigate + extract). Default: 60s.
	Timeout time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://www.mlssoccer.com/mlsnext/schedule/all/"
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// RodEngine scrapes the upstream schedule with headless Chrome. One Chrome
// per Scrape call — the process is single-run, keeping a warm browser
// around buys nothing.
type RodEngine struct {
	cfg Config
}

// NewRodEngine creates an engine. The browser is launched lazily on the
// first Scrape call.
func NewRodEngine(cfg Config) *RodEngine {
	cfg.defaults()
	return &RodEngine{cfg: cfg}
}

// Scrape navigates to the schedule view for the descriptor and extracts
// all match rows. Engine failures are returned as-is; callers do not retry.
func (e *RodEngine) Scrape(ctx context.Context, d Descriptor) ([]Match, error) {
	log := e.cfg.Logger

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	browser, cleanup, err := e.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	page, err := stealth.Page(browser)
	if err != nil {
		return nil, fmt.Errorf("scrape: create page: %w", err)
	}
	defer page.Close()

	target := e.scheduleURL(d)
	log.Info("scrape: navigating", "url", target, "target", d.Target())

	if err := page.Context(ctx).Navigate(target); err != nil {
		return nil, fmt.Errorf("scrape: navigate %s: %w", target, err)
	}
	if err := page.Context(ctx).WaitLoad(); err != nil {
		return nil, fmt.Errorf("scrape: wait load: %w", err)
	}

	rows, err := page.Context(ctx).Elements(`[data-testid="match-row"]`)
	if err != nil {
		return nil, fmt.Errorf("scrape: locate match rows: %w", err)
	}

	matches := make([]Match, 0, len(rows))
	for _, row := range rows {
		m, err := extractRow(row)
		if err != nil {
			log.Warn("scrape: skipping unreadable row", "error", err)
			continue
		}
		matches = append(matches, m)
	}

	log.Info("scrape: extracted", "target", d.Target(), "matches", len(matches))
	return matches, nil
}

func (e *RodEngine) connect(ctx context.Context) (*rod.Browser, func(), error) {
	if e.cfg.RemoteURL != "" {
		b := rod.New().Context(ctx).ControlURL(e.cfg.RemoteURL)
		if err := b.Connect(); err != nil {
			return nil, nil, fmt.Errorf("scrape: connect remote chrome: %w", err)
		}
		return b, func() { b.Close() }, nil
	}

	l := launcher.New().
		Headless(true).
		Set("disable-blink-features", "AutomationControlled")
	wsURL, err := l.Launch()
	if err != nil {
		return nil, nil, fmt.Errorf("scrape: launch chrome: %w", err)
	}

	b := rod.New().Context(ctx).ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, nil, fmt.Errorf("scrape: connect chrome: %w", err)
	}
	return b, func() { b.Close(); l.Cleanup() }, nil
}

// scheduleURL encodes the descriptor onto the configured base URL. The
// upstream filter bar is driven entirely by query parameters, which avoids
// clicking through the filter widgets.
func (e *RodEngine) scheduleURL(d Descriptor) string {
	q := url.Values{}
	q.Set("age_group", d.AgeGroup)
	q.Set("league", d.League)
	if d.Conference != "" {
		q.Set("conference", d.Conference)
	} else if d.Division != "" {
		q.Set("division", d.Division)
	}
	if d.Club != "" {
		q.Set("club", d.Club)
	}
	q.Set("from", d.StartDate.Format("2006-01-02"))
	q.Set("to", d.EndDate.Format("2006-01-02"))

	sep := "?"
	if strings.Contains(e.cfg.BaseURL, "?") {
		sep = "&"
	}
	return e.cfg.BaseURL + sep + q.Encode()
}

func extractRow(row *rod.Element) (Match, error) {
	var m Match

	id, err := row.Attribute("data-match-id")
	if err != nil || id == nil || *id == "" {
		return m, fmt.Errorf("missing data-match-id")
	}
	m.MatchID = *id

	m.HomeTeam, err = elementText(row, `[data-testid="home-team"]`)
	if err != nil {
		return m, err
	}
	m.AwayTeam, err = elementText(row, `[data-testid="away-team"]`)
	if err != nil {
		return m, err
	}

	if status, err := elementText(row, `[data-testid="match-status"]`); err == nil {
		m.Status = status
	}
	if loc, err := elementText(row, `[data-testid="match-venue"]`); err == nil {
		m.Location = loc
	}

	if ts, err := row.Attribute("data-kickoff"); err == nil && ts != nil {
		if kickoff, perr := time.Parse(time.RFC3339, *ts); perr == nil {
			m.Kickoff = kickoff
		}
	}

	if scoreText, err := elementText(row, `[data-testid="match-score"]`); err == nil {
		m.HomeScore, m.AwayScore = ParseScore(scoreText)
	}

	return m, nil
}

func elementText(row *rod.Element, selector string) (string, error) {
	el, err := row.Element(selector)
	if err != nil {
		return "", fmt.Errorf("element %s: %w", selector, err)
	}
	text, err := el.Text()
	if err != nil {
		return "", fmt.Errorf("text %s: %w", selector, err)
	}
	return strings.TrimSpace(text), nil
}

// ParseScore parses a schedule score cell like "2 - 1". Anything that is
// not two integers (empty cell, "PPD", "v", half a score) yields nil, nil:
// a record never carries one score without the other.
func ParseScore(text string) (home, away *int) {
	parts := strings.Split(text, "-")
	if len(parts) != 2 {
		return nil, nil
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, nil
	}
	a, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, nil
	}
	return &h, &a
}

package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/matchagent/config"
	"github.com/hazyhaar/matchagent/match"
	"github.com/hazyhaar/matchagent/scrape"
)

// fakeEngine returns canned matches and records the descriptors it saw.
type fakeEngine struct {
	matches []scrape.Match
	err     error
	seen    []scrape.Descriptor
}

func (e *fakeEngine) Scrape(_ context.Context, d scrape.Descriptor) ([]scrape.Match, error) {
	e.seen = append(e.seen, d)
	if e.err != nil {
		return nil, e.err
	}
	return e.matches, nil
}

// fakeQueue counts submissions and fails on configured home teams.
type fakeQueue struct {
	failOn map[string]bool
	got    []match.Record
}

func (q *fakeQueue) Submit(_ context.Context, rec match.Record) (string, error) {
	if q.failOn[rec.HomeTeam] {
		return "", errors.New("connection lost")
	}
	q.got = append(q.got, rec)
	return fmt.Sprintf("job-%d", len(q.got)), nil
}

func fixedNow() time.Time {
	return time.Date(2026, time.February, 25, 12, 30, 0, 0, time.UTC)
}

func testDeps(engine scrape.Engine, q Submitter) *Deps {
	return &Deps{
		Queue:  q,
		Engine: engine,
		Config: &config.Config{
			AgeGroup: "U14",
			League:   "Homegrown",
			Division: "Northeast",
		},
		SeasonEnd: time.Date(2026, time.June, 30, 0, 0, 0, 0, time.UTC),
		Now:       fixedNow,
	}
}

func fakeMatch(id, home, away string, homeScore, awayScore *int) scrape.Match {
	status := "scheduled"
	if homeScore != nil && awayScore != nil {
		status = "completed"
	}
	return scrape.Match{
		MatchID:   id,
		HomeTeam:  home,
		AwayTeam:  away,
		HomeScore: homeScore,
		AwayScore: awayScore,
		Status:    status,
		Kickoff:   time.Date(2026, time.February, 20, 18, 0, 0, 0, time.UTC),
		Location:  "Stadium",
	}
}

func intp(n int) *int { return &n }

func TestTodayInfo(t *testing.T) {
	d := testDeps(&fakeEngine{}, nil)
	got := TodayInfo(context.Background(), d)

	for _, want := range []string{
		"Date: 2026-02-25",
		"Day: Wednesday",
		"Week: 9",
		"Time (UTC): 12:30",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("today info missing %q:\n%s", want, got)
		}
	}
}

func TestScrapeDigestShowsScoresAndStatus(t *testing.T) {
	// WHAT: The digest lists every engine result, with a score annotation
	// only when both scores are present.
	engine := &fakeEngine{matches: []scrape.Match{
		fakeMatch("m-1", "Team A", "Team B", intp(2), intp(1)),
		fakeMatch("m-2", "Team C", "Team D", nil, nil),
	}}
	d := testDeps(engine, nil)

	digest, err := ScrapeMatches(context.Background(), d, ScrapeRequest{
		StartDate: "2026-02-18", EndDate: "2026-02-25",
	})
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(digest, "Found 2 matches") {
		t.Errorf("missing header:\n%s", digest)
	}
	if !strings.Contains(digest, "Team A vs Team B (2-1) [completed]") {
		t.Errorf("missing scored line:\n%s", digest)
	}
	if !strings.Contains(digest, "Team C vs Team D [scheduled]") {
		t.Errorf("missing scheduled line:\n%s", digest)
	}
	if strings.Contains(digest, "Team C vs Team D (") {
		t.Errorf("scheduled match has a score annotation:\n%s", digest)
	}
}

func TestScrapeAppliesSeasonEndFloor(t *testing.T) {
	engine := &fakeEngine{}
	d := testDeps(engine, nil)

	digest, err := ScrapeMatches(context.Background(), d, ScrapeRequest{
		StartDate: "2026-02-18", EndDate: "2026-03-01",
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(engine.seen) != 1 {
		t.Fatalf("engine called %d times", len(engine.seen))
	}
	want := time.Date(2026, time.June, 30, 0, 0, 0, 0, time.UTC)
	if !engine.seen[0].EndDate.Equal(want) {
		t.Errorf("engine end date %s, want floor %s", engine.seen[0].EndDate, want)
	}
	if !strings.Contains(digest, "2026-06-30") {
		t.Errorf("digest should name the effective end:\n%s", digest)
	}

	// Requesting the floor itself is a no-op.
	_, err = ScrapeMatches(context.Background(), d, ScrapeRequest{
		StartDate: "2026-02-18", EndDate: "2026-06-30",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !engine.seen[1].EndDate.Equal(want) {
		t.Errorf("floor request changed: %s", engine.seen[1].EndDate)
	}
}

func TestScrapeNoMatchesNamesTarget(t *testing.T) {
	d := testDeps(&fakeEngine{}, nil)

	digest, err := ScrapeMatches(context.Background(), d, ScrapeRequest{
		StartDate: "2026-02-18", EndDate: "2026-07-01",
		League: "Academy", Conference: "New England",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(digest, "No matches found for U14 Academy New England") {
		t.Errorf("digest %q", digest)
	}
}

func TestScrapeBuildsRecords(t *testing.T) {
	engine := &fakeEngine{matches: []scrape.Match{
		fakeMatch("m-1", "Intercontinental Football Academy", "Boston Bolts", intp(2), intp(1)),
	}}
	d := testDeps(engine, nil)

	if _, err := ScrapeMatches(context.Background(), d, ScrapeRequest{
		StartDate: "2026-02-18", EndDate: "2026-07-01",
	}); err != nil {
		t.Fatal(err)
	}

	recs := d.Records()
	if len(recs) != 1 {
		t.Fatalf("got %d records", len(recs))
	}
	r := recs[0]
	if r.HomeTeam != "IFA" {
		t.Errorf("home team not normalized: %q", r.HomeTeam)
	}
	if r.AwayTeam != "Boston Bolts" {
		t.Errorf("away team changed: %q", r.AwayTeam)
	}
	if r.Season != "2025-26" {
		t.Errorf("season %q", r.Season)
	}
	if r.MatchDate != "2026-02-20" {
		t.Errorf("match date %q", r.MatchDate)
	}
	if r.MatchType != match.TypeLeague || r.SourceTag != match.Source {
		t.Errorf("constants: %q / %q", r.MatchType, r.SourceTag)
	}
	if r.Division != "Northeast" || r.League != "Homegrown" || r.AgeGroup != "U14" {
		t.Errorf("classification: %q / %q / %q", r.Division, r.League, r.AgeGroup)
	}
	if !r.HasScore() || *r.HomeScore != 2 {
		t.Errorf("score lost: %+v", r)
	}
	if r.ExternalMatchID != "m-1" {
		t.Errorf("external id %q", r.ExternalMatchID)
	}
}

func TestScrapeConferenceOverloadsDivision(t *testing.T) {
	// WHAT: With a conference supplied, the record's division slot holds
	// the conference name.
	// WHY: The downstream schema has no conference attribute; Academy
	// leagues repurpose division by convention.
	engine := &fakeEngine{matches: []scrape.Match{
		fakeMatch("m-1", "Team A", "Team B", nil, nil),
	}}
	d := testDeps(engine, nil)

	if _, err := ScrapeMatches(context.Background(), d, ScrapeRequest{
		StartDate: "2026-02-18", EndDate: "2026-07-01",
		League: "Academy", Conference: "New England",
	}); err != nil {
		t.Fatal(err)
	}

	if got := d.Records()[0].Division; got != "New England" {
		t.Errorf("division slot %q, want the conference name", got)
	}
}

func TestScrapeTeamFilterIsExact(t *testing.T) {
	engine := &fakeEngine{matches: []scrape.Match{
		fakeMatch("m-1", "Intercontinental Football Academy", "Boston Bolts", nil, nil),
		fakeMatch("m-2", "IFA Reserves", "Valeo FC", nil, nil),
		fakeMatch("m-3", "NEFC", "Seacoast United", nil, nil),
	}}
	d := testDeps(engine, nil)
	d.TeamFilter = "IFA"

	digest, err := ScrapeMatches(context.Background(), d, ScrapeRequest{
		StartDate: "2026-02-18", EndDate: "2026-07-01",
	})
	if err != nil {
		t.Fatal(err)
	}

	// Only the normalized exact match survives; "IFA Reserves" is a
	// substring relative, not the team.
	recs := d.Records()
	if len(recs) != 1 || recs[0].HomeTeam != "IFA" {
		t.Fatalf("filter retained %+v", recs)
	}

	// The digest still reflects everything the engine saw.
	if !strings.Contains(digest, "Found 3 matches") {
		t.Errorf("digest should be unfiltered:\n%s", digest)
	}
	if !strings.Contains(digest, "NEFC vs Seacoast United") {
		t.Errorf("digest missing filtered-out match:\n%s", digest)
	}
}

func TestScrapeBatchesConcatenateInCallOrder(t *testing.T) {
	engine := &fakeEngine{matches: []scrape.Match{
		fakeMatch("m-1", "Team A", "Team B", nil, nil),
	}}
	d := testDeps(engine, nil)

	if _, err := ScrapeMatches(context.Background(), d, ScrapeRequest{
		StartDate: "2026-02-18", EndDate: "2026-07-01",
	}); err != nil {
		t.Fatal(err)
	}
	engine.matches = []scrape.Match{fakeMatch("m-2", "Team C", "Team D", nil, nil)}
	if _, err := ScrapeMatches(context.Background(), d, ScrapeRequest{
		StartDate: "2026-02-18", EndDate: "2026-07-01",
	}); err != nil {
		t.Fatal(err)
	}

	recs := d.Records()
	if len(recs) != 2 {
		t.Fatalf("got %d records", len(recs))
	}
	if recs[0].ExternalMatchID != "m-1" || recs[1].ExternalMatchID != "m-2" {
		t.Errorf("order lost: %s then %s", recs[0].ExternalMatchID, recs[1].ExternalMatchID)
	}
}

func TestScrapeBadDate(t *testing.T) {
	d := testDeps(&fakeEngine{}, nil)

	_, err := ScrapeMatches(context.Background(), d, ScrapeRequest{
		StartDate: "not-a-date", EndDate: "2026-07-01",
	})
	if !errors.Is(err, ErrBadDate) {
		t.Fatalf("got %v, want ErrBadDate", err)
	}

	_, err = ScrapeMatches(context.Background(), d, ScrapeRequest{
		StartDate: "2026-02-18", EndDate: "02/25/2026",
	})
	if !errors.Is(err, ErrBadDate) {
		t.Fatalf("got %v, want ErrBadDate", err)
	}
}

func TestScrapeEngineErrorPropagates(t *testing.T) {
	engineErr := errors.New("selector timeout")
	d := testDeps(&fakeEngine{err: engineErr}, nil)

	_, err := ScrapeMatches(context.Background(), d, ScrapeRequest{
		StartDate: "2026-02-18", EndDate: "2026-07-01",
	})
	if !errors.Is(err, engineErr) {
		t.Fatalf("got %v, want the engine error", err)
	}
	if len(d.Records()) != 0 {
		t.Error("failed scrape must not append records")
	}
}

func TestSubmitEmpty(t *testing.T) {
	q := &fakeQueue{}
	d := testDeps(&fakeEngine{}, q)

	msg, err := SubmitMatches(context.Background(), d)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(msg, "No matches to submit") {
		t.Errorf("got %q", msg)
	}
	if len(q.got) != 0 {
		t.Error("empty submit must not touch the queue")
	}
}

func TestSubmitDryRun(t *testing.T) {
	engine := &fakeEngine{matches: []scrape.Match{
		fakeMatch("m-1", "Team A", "Team B", nil, nil),
		fakeMatch("m-2", "Team C", "Team D", nil, nil),
	}}
	q := &fakeQueue{}
	d := testDeps(engine, q)
	d.DryRun = true

	if _, err := ScrapeMatches(context.Background(), d, ScrapeRequest{
		StartDate: "2026-02-18", EndDate: "2026-07-01",
	}); err != nil {
		t.Fatal(err)
	}

	msg, err := SubmitMatches(context.Background(), d)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(msg, "[DRY RUN] Would submit 2 matches") {
		t.Errorf("got %q", msg)
	}
	if len(q.got) != 0 {
		t.Error("dry run must not touch the queue")
	}
	// Dry-run does not drain: a later real submit still sees the batch.
	if len(d.Records()) != 2 {
		t.Errorf("dry run drained the accumulator: %d left", len(d.Records()))
	}
}

func TestSubmitPartialFailure(t *testing.T) {
	engine := &fakeEngine{matches: []scrape.Match{
		fakeMatch("m-1", "Team A", "Team B", nil, nil),
		fakeMatch("m-2", "Team C", "Team D", nil, nil),
		fakeMatch("m-3", "Team E", "Team F", nil, nil),
	}}
	q := &fakeQueue{failOn: map[string]bool{"Team C": true}}
	d := testDeps(engine, q)

	if _, err := ScrapeMatches(context.Background(), d, ScrapeRequest{
		StartDate: "2026-02-18", EndDate: "2026-07-01",
	}); err != nil {
		t.Fatal(err)
	}

	msg, err := SubmitMatches(context.Background(), d)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(msg, "Submitted 2 matches to queue (1 errors).") {
		t.Errorf("got %q", msg)
	}

	// Every non-faulted record observed exactly once.
	if len(q.got) != 2 {
		t.Fatalf("queue saw %d records", len(q.got))
	}
	if q.got[0].HomeTeam != "Team A" || q.got[1].HomeTeam != "Team E" {
		t.Errorf("queue saw %s, %s", q.got[0].HomeTeam, q.got[1].HomeTeam)
	}

	// The batch is drained even with partial failure — no rollback, no
	// retry within the run.
	msg, err = SubmitMatches(context.Background(), d)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(msg, "No matches to submit") {
		t.Errorf("second submit resubmitted: %q", msg)
	}
}

func TestReportAccumulates(t *testing.T) {
	engine := &fakeEngine{matches: []scrape.Match{
		fakeMatch("m-1", "Team A", "Team B", nil, nil),
		fakeMatch("m-2", "Team C", "Team D", nil, nil),
	}}
	q := &fakeQueue{}
	d := testDeps(engine, q)

	if _, err := ScrapeMatches(context.Background(), d, ScrapeRequest{
		StartDate: "2026-02-18", EndDate: "2026-07-01",
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := SubmitMatches(context.Background(), d); err != nil {
		t.Fatal(err)
	}

	rep := d.Report()
	if rep.MatchesFound != 2 || rep.MatchesSubmitted != 2 {
		t.Errorf("found %d, submitted %d", rep.MatchesFound, rep.MatchesSubmitted)
	}
	if len(rep.Actions) != 2 {
		t.Fatalf("got %d actions", len(rep.Actions))
	}
	if rep.Actions[0].Kind != ActionScrape || rep.Actions[1].Kind != ActionSubmit {
		t.Errorf("actions: %s then %s", rep.Actions[0].Kind, rep.Actions[1].Kind)
	}

	rendered := rep.Render()
	if !strings.Contains(rendered, "matches found: 2, submitted: 2") {
		t.Errorf("render:\n%s", rendered)
	}
}

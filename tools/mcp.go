package tools

import (
	"context"
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/matchagent/kit"
)

// RegisterMCP registers the three capabilities on an MCP server. The
// decision-making agent connects as an MCP client and drives them in
// whatever order it decides — invocation order is the agent's concern,
// not ours.
func RegisterMCP(srv *mcp.Server, deps *Deps) {
	registerTodayInfo(srv, deps)
	registerScrapeMatches(srv, deps)
	registerSubmitMatches(srv, deps)
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func registerTodayInfo(srv *mcp.Server, deps *Deps) {
	tool := &mcp.Tool{
		Name: "get_today_info",
		Description: "Get today's date, day of week, ISO week number and UTC time. " +
			"Use this at the start of your run to understand what day it is.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (string, error) {
		return TodayInfo(ctx, deps), nil
	}

	decode := func(_ *mcp.CallToolRequest) (any, error) {
		return nil, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

func registerScrapeMatches(srv *mcp.Server, deps *Deps) {
	tool := &mcp.Tool{
		Name: "scrape_matches",
		Description: "Scrape match data from the MLS Next website for a date range. " +
			"Pure browser automation, no tokens consumed. Results accumulate for submit_matches.",
		InputSchema: inputSchema(map[string]any{
			"start_date": map[string]any{"type": "string", "description": "Start date (ISO 8601, e.g. 2026-02-18)"},
			"end_date":   map[string]any{"type": "string", "description": "End date (ISO 8601, e.g. 2026-02-25)"},
			"age_group":  map[string]any{"type": "string", "description": "Age group (e.g. U14). Defaults to run config."},
			"league":     map[string]any{"type": "string", "description": "League type (Homegrown or Academy). Defaults to run config."},
			"division":   map[string]any{"type": "string", "description": "Division filter for Homegrown (e.g. Northeast). Defaults to run config."},
			"conference": map[string]any{"type": "string", "description": "Conference filter for Academy (e.g. New England). Optional."},
			"club":       map[string]any{"type": "string", "description": "Club filter. Optional."},
		}, []string{"start_date", "end_date"}),
	}

	endpoint := func(ctx context.Context, r any) (string, error) {
		return ScrapeMatches(ctx, deps, *r.(*ScrapeRequest))
	}

	decode := func(r *mcp.CallToolRequest) (any, error) {
		var p ScrapeRequest
		if err := json.Unmarshal(r.Params.Arguments, &p); err != nil {
			return nil, err
		}
		return &p, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

func registerSubmitMatches(srv *mcp.Server, deps *Deps) {
	tool := &mcp.Tool{
		Name: "submit_matches",
		Description: "Submit all scraped matches to the downstream queue. Mutating — " +
			"respects dry-run. Call after scrape_matches if matches were found.",
		InputSchema: inputSchema(map[string]any{}, nil),
	}

	endpoint := func(ctx context.Context, _ any) (string, error) {
		return SubmitMatches(ctx, deps)
	}

	decode := func(_ *mcp.CallToolRequest) (any, error) {
		return nil, nil
	}

	kit.RegisterMCPTool(srv, tool, endpoint, decode)
}

// Package kit is the MCP glue for the matchagent tool surface: a small
// endpoint abstraction and the adapter that exposes an endpoint as an MCP
// tool, plus run-scoped context helpers.
package kit

import "context"

// Endpoint is one capability invocation: typed request in, human-readable
// result text out. The decision-making agent consumes the text verbatim.
type Endpoint func(ctx context.Context, req any) (string, error)

type contextKey string

const (
	// RunIDKey carries the short run identifier bound at process start.
	RunIDKey contextKey = "kit_run_id"
	// TransportKey names the transport a call arrived on ("stdio", "http").
	TransportKey contextKey = "kit_transport"
)

// WithRunID attaches the run identifier to the context.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RunIDKey, id)
}

// GetRunID returns the run identifier, or "" outside a run.
func GetRunID(ctx context.Context) string {
	v, _ := ctx.Value(RunIDKey).(string)
	return v
}

// WithTransport attaches the transport name to the context.
func WithTransport(ctx context.Context, t string) context.Context {
	return context.WithValue(ctx, TransportKey, t)
}

// GetTransport returns the transport name, defaulting to "stdio".
func GetTransport(ctx context.Context) string {
	if v, ok := ctx.Value(TransportKey).(string); ok {
		return v
	}
	return "stdio"
}

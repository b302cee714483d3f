package kit

import (
	"context"
	"testing"
)

func TestRunIDRoundTrip(t *testing.T) {
	ctx := WithRunID(context.Background(), "abc123")
	if got := GetRunID(ctx); got != "abc123" {
		t.Errorf("got %q", got)
	}
	if got := GetRunID(context.Background()); got != "" {
		t.Errorf("empty context should have no run id, got %q", got)
	}
}

func TestTransportDefaultsToStdio(t *testing.T) {
	if got := GetTransport(context.Background()); got != "stdio" {
		t.Errorf("got %q, want stdio", got)
	}
	ctx := WithTransport(context.Background(), "http")
	if got := GetTransport(ctx); got != "http" {
		t.Errorf("got %q, want http", got)
	}
}

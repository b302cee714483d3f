package preflight_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hazyhaar/matchagent/preflight"
)

func statusServer(t *testing.T, status preflight.Status) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status" {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestBareModeReturnsConfiguredModel(t *testing.T) {
	srv := statusServer(t, preflight.Status{NoActiveSession: true})
	g := &preflight.Gate{ProxyBaseURL: srv.URL, Model: "m1", MinTokenBudget: 5000}

	model, err := g.Check(context.Background())
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if model != "m1" {
		t.Fatalf("got model %q, want m1", model)
	}
}

func TestSessionOverridesModel(t *testing.T) {
	srv := statusServer(t, preflight.Status{
		TokensRemaining: 100_000,
		ModelAllowed:    "m2",
		PolicyMode:      "enforce",
	})
	g := &preflight.Gate{ProxyBaseURL: srv.URL, Model: "m1", MinTokenBudget: 5000}

	model, err := g.Check(context.Background())
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if model != "m2" {
		t.Fatalf("got model %q, want the session's m2", model)
	}
}

func TestEnforceExhaustedBudgetFails(t *testing.T) {
	srv := statusServer(t, preflight.Status{
		TokensRemaining: 100,
		ModelAllowed:    "m2",
		PolicyMode:      "enforce",
	})
	g := &preflight.Gate{ProxyBaseURL: srv.URL, Model: "m1", MinTokenBudget: 5000}

	_, err := g.Check(context.Background())
	if !errors.Is(err, preflight.ErrBudgetExhausted) {
		t.Fatalf("got %v, want ErrBudgetExhausted", err)
	}
}

func TestMonitorExhaustedBudgetProceeds(t *testing.T) {
	// WHAT: Under monitor policy a low budget warns but does not stop the run.
	// WHY: Monitor mode exists to observe budget pressure before enforcing it.
	srv := statusServer(t, preflight.Status{
		TokensRemaining: 100,
		ModelAllowed:    "m2",
		PolicyMode:      "monitor",
	})
	g := &preflight.Gate{ProxyBaseURL: srv.URL, Model: "m1", MinTokenBudget: 5000}

	model, err := g.Check(context.Background())
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if model != "m2" {
		t.Fatalf("got model %q, want m2", model)
	}
}

func TestUnreachableProxy(t *testing.T) {
	g := &preflight.Gate{ProxyBaseURL: "http://127.0.0.1:1", Model: "m1"}

	_, err := g.Check(context.Background())
	if !errors.Is(err, preflight.ErrUnreachable) {
		t.Fatalf("got %v, want ErrUnreachable", err)
	}
}

func TestNon2xxStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()
	g := &preflight.Gate{ProxyBaseURL: srv.URL, Model: "m1"}

	_, err := g.Check(context.Background())
	if !errors.Is(err, preflight.ErrProxyStatus) {
		t.Fatalf("got %v, want ErrProxyStatus", err)
	}
}

func TestStatusURLStripsV1(t *testing.T) {
	cases := []struct{ base, want string }{
		{"http://localhost:8100", "http://localhost:8100/status"},
		{"http://localhost:8100/", "http://localhost:8100/status"},
		{"http://localhost:8100/v1", "http://localhost:8100/status"},
		{"http://localhost:8100/v1/", "http://localhost:8100/status"},
	}
	for _, tc := range cases {
		g := &preflight.Gate{ProxyBaseURL: tc.base}
		if got := g.StatusURL(); got != tc.want {
			t.Errorf("StatusURL(%q) = %q, want %q", tc.base, got, tc.want)
		}
	}
}

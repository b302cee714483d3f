// Package preflight implements the pre-run budget gate against the
// rate-governing proxy. It runs once, before the agent is constructed, and
// decides whether the run proceeds and which model it may use.
package preflight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Sentinel errors. Callers exit non-zero on any of them except when the
// proxy is in monitor mode, where a low budget only warns.
var (
	// ErrUnreachable covers connection failures and timeouts to /status.
	ErrUnreachable = errors.New("preflight: proxy unreachable")
	// ErrProxyStatus covers non-2xx responses and unreadable bodies.
	ErrProxyStatus = errors.New("preflight: proxy status")
	// ErrBudgetExhausted is returned when the remaining budget is below
	// the minimum and the session policy is enforce.
	ErrBudgetExhausted = errors.New("preflight: token budget exhausted")
)

// Status is the proxy's /status response. All fields are optional on the
// wire; zero values mean "not reported".
type Status struct {
	NoActiveSession bool    `json:"no_active_session"`
	TokensRemaining int     `json:"tokens_remaining"`
	ModelAllowed    string  `json:"model_allowed"`
	PolicyMode      string  `json:"policy_mode"`
	BudgetPct       float64 `json:"budget_pct"`
}

// Gate checks the proxy before a run.
type Gate struct {
	// ProxyBaseURL is the agent-facing proxy URL (possibly ending in /v1).
	ProxyBaseURL string
	// Model is the statically configured model, returned unchanged in
	// bare mode. An active session may override it.
	Model string
	// MinTokenBudget is the minimum remaining budget for a run to start.
	MinTokenBudget int
	// Client overrides the HTTP client. Default: 5s timeout.
	Client *http.Client
	Logger *slog.Logger
}

func (g *Gate) defaults() {
	if g.Client == nil {
		g.Client = &http.Client{Timeout: 5 * time.Second}
	}
	if g.Logger == nil {
		g.Logger = slog.Default()
	}
}

// StatusURL derives the /status endpoint from the proxy base URL. The
// base URL the agent talks to may end in /v1; status lives beside it,
// not under it.
func (g *Gate) StatusURL() string {
	base := strings.TrimRight(g.ProxyBaseURL, "/")
	base = strings.TrimSuffix(base, "/v1")
	return base + "/status"
}

// Check queries the proxy and resolves the model for this run.
//
//   - Unreachable proxy, HTTP error, timeout → ErrUnreachable/ErrProxyStatus.
//   - No active session ("bare mode") → configured model unchanged.
//   - Active session, budget ≥ minimum → session's allowed model.
//   - Active session, budget < minimum, enforce → ErrBudgetExhausted.
//   - Active session, budget < minimum, monitor → warn, allowed model.
//
// The result is final for the run; the gate is never re-evaluated.
func (g *Gate) Check(ctx context.Context) (string, error) {
	g.defaults()
	log := g.Logger
	statusURL := g.StatusURL()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		log.Error("preflight.proxy_unreachable", "url", statusURL, "error", err)
		return "", fmt.Errorf("%w: %s: %v", ErrUnreachable, statusURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Error("preflight.proxy_error", "url", statusURL, "status", resp.StatusCode)
		return "", fmt.Errorf("%w: %s returned %d", ErrProxyStatus, statusURL, resp.StatusCode)
	}

	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		log.Error("preflight.proxy_error", "url", statusURL, "error", err)
		return "", fmt.Errorf("%w: decode: %v", ErrProxyStatus, err)
	}

	// Bare mode — proxy is up but no session governs this run.
	if status.NoActiveSession {
		log.Info("preflight.bare_mode", "proxy", statusURL)
		return g.Model, nil
	}

	modelAllowed := status.ModelAllowed
	if modelAllowed == "" {
		modelAllowed = g.Model
	}
	policyMode := status.PolicyMode
	if policyMode == "" {
		policyMode = "enforce"
	}

	log.Info("preflight.session_active",
		"model_allowed", modelAllowed,
		"tokens_remaining", status.TokensRemaining,
		"budget_pct", status.BudgetPct,
		"policy_mode", policyMode,
	)

	if status.TokensRemaining < g.MinTokenBudget {
		if policyMode == "monitor" {
			log.Warn("preflight.budget_low_monitor",
				"tokens_remaining", status.TokensRemaining,
				"min_token_budget", g.MinTokenBudget,
			)
			return modelAllowed, nil
		}
		log.Error("preflight.budget_exhausted",
			"tokens_remaining", status.TokensRemaining,
			"min_token_budget", g.MinTokenBudget,
		)
		return "", fmt.Errorf("%w: %d remaining, need %d",
			ErrBudgetExhausted, status.TokensRemaining, g.MinTokenBudget)
	}

	return modelAllowed, nil
}

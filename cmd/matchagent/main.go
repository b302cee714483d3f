// Command matchagent runs one autonomous match-scraping task-cycle.
//
// Usage:
//
//	matchagent run --env prod --target u14-hg
//	matchagent serve --addr :8085
//	matchagent scrape --target u14-hg-ifa --json
//	matchagent check --env local
//	matchagent drain
//
// run performs the preflight budget gate, then exposes the capability
// tools over MCP stdio for the decision-making agent to drive. serve does
// the same over HTTP for a remote agent. scrape bypasses the agent
// entirely — no model, no proxy, no tokens.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/hazyhaar/matchagent/config"
	"github.com/hazyhaar/matchagent/kit"
	"github.com/hazyhaar/matchagent/match"
	"github.com/hazyhaar/matchagent/preflight"
	"github.com/hazyhaar/matchagent/queue"
	"github.com/hazyhaar/matchagent/scrape"
	"github.com/hazyhaar/matchagent/tools"
)

var serverImpl = &mcp.Implementation{Name: "matchagent", Version: "1.0.0"}

func main() {
	root := &cobra.Command{
		Use:           "matchagent",
		Short:         "MLS Next match-scraper agent toolchain",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(), newServeCmd(), newScrapeCmd(), newCheckCmd(), newDrainCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// commonFlags are shared by the commands that construct a run.
type commonFlags struct {
	env         string
	dryRun      bool
	jsonLogs    bool
	model       string
	proxyURL    string
	noProxy     bool
	target      string
	targetsFile string
	queuePath   string
}

func (f *commonFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.env, "env", "local", "environment name (local, prod)")
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, "skip mutating operations")
	cmd.Flags().BoolVar(&f.jsonLogs, "json-logs", false, "output JSON log lines")
	cmd.Flags().StringVar(&f.model, "model", "", "override model name")
	cmd.Flags().StringVar(&f.proxyURL, "proxy-url", "", "override proxy base URL")
	cmd.Flags().BoolVar(&f.noProxy, "no-proxy", false, "skip the proxy preflight gate")
	cmd.Flags().StringVar(&f.target, "target", "", "scrape target preset (u14-hg, u13-hg-ifa, ...)")
	cmd.Flags().StringVar(&f.targetsFile, "targets-file", "", "YAML targets file (default: built-in presets)")
	cmd.Flags().StringVar(&f.queuePath, "queue-path", "", "override queue database path")
}

// loadConfig builds the immutable run configuration from env + flags.
func (f *commonFlags) loadConfig() (*config.Config, error) {
	// .env at the repo root covers local development, envs/.env.<env>
	// the named environments.
	_ = godotenv.Load(".env")
	cfg, err := config.Load(config.EnvFilePath(f.env))
	if err != nil {
		return nil, err
	}
	if f.model != "" {
		cfg.ModelName = f.model
	}
	if f.proxyURL != "" {
		cfg.ProxyBaseURL = f.proxyURL
	}
	if f.noProxy {
		cfg.ProxyEnabled = false
	}
	if f.dryRun {
		cfg.DryRun = true
	}
	if f.queuePath != "" {
		cfg.QueuePath = f.queuePath
	}
	return cfg, nil
}

func (f *commonFlags) loadTargets() (*config.TargetsFile, error) {
	if f.targetsFile == "" {
		return config.DefaultTargets(), nil
	}
	return config.LoadTargets(f.targetsFile)
}

// setupLogging configures the process-wide slog default. Logs go to
// stderr: in run mode stdout belongs to the MCP stdio transport.
func setupLogging(jsonLogs bool, level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	var handler slog.Handler
	if jsonLogs {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// classifyError returns a one-line diagnostic and whether the error is a
// known kind. Unknown errors get their full chain dumped for debugging;
// known ones are self-explanatory.
func classifyError(err error, proxyURL string) (string, bool) {
	switch {
	case errors.Is(err, preflight.ErrUnreachable):
		return fmt.Sprintf("Cannot reach proxy at %s — is the gating proxy running?", proxyURL), true
	case errors.Is(err, preflight.ErrBudgetExhausted):
		return "Token budget exhausted — run blocked by the proxy session policy", true
	case errors.Is(err, preflight.ErrProxyStatus):
		return fmt.Sprintf("Proxy status error: %v", err), true
	case errors.Is(err, tools.ErrBadDate):
		return fmt.Sprintf("Invalid date input: %v", err), true
	}
	return err.Error(), false
}

// resolveModel runs the preflight gate when the proxy is enabled and
// returns the model for this run.
func resolveModel(ctx context.Context, cfg *config.Config) (string, error) {
	if !cfg.ProxyEnabled {
		return cfg.ModelName, nil
	}
	gate := &preflight.Gate{
		ProxyBaseURL:   cfg.ProxyBaseURL,
		Model:          cfg.ModelName,
		MinTokenBudget: cfg.MinTokenBudget,
	}
	model, err := gate.Check(ctx)
	if err != nil {
		return "", err
	}
	if model != cfg.ModelName {
		slog.Info("preflight.model_override", "configured", cfg.ModelName, "using", model)
	}
	return model, nil
}

// buildDeps wires the run context: queue client, engine, config snapshot,
// name table, and the target's team filter.
func buildDeps(cfg *config.Config, tf *config.TargetsFile, targetName string) (*tools.Deps, *queue.Client, error) {
	var teamFilter string
	if targetName != "" {
		tgt, ok := tf.Targets[targetName]
		if !ok {
			return nil, nil, fmt.Errorf("unknown target %q. Valid targets: %s", targetName, tf.Names())
		}
		teamFilter = tgt.TeamFilter
	}

	qc, err := queue.Open(cfg.QueuePath, cfg.QueueName)
	if err != nil {
		return nil, nil, err
	}

	engine := scrape.NewRodEngine(scrape.Config{
		BaseURL:   cfg.ScheduleURL,
		RemoteURL: cfg.ChromeURL,
	})

	deps := &tools.Deps{
		Queue:      qc,
		Engine:     engine,
		Config:     cfg,
		Names:      tf.TeamNames,
		DryRun:     cfg.DryRun,
		TeamFilter: teamFilter,
	}
	return deps, qc, nil
}

func newRunCmd() *cobra.Command {
	flags := &commonFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the preflight gate, then serve the agent tools over MCP stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			setupLogging(flags.jsonLogs || cfg.JSONLogs, cfg.LogLevel)

			ctx, cancel := signalContext()
			defer cancel()

			runID := uuid.NewString()[:12]
			ctx = kit.WithRunID(ctx, runID)
			log := slog.Default().With("run_id", runID, "env", flags.env)

			model, err := resolveModel(ctx, cfg)
			if err != nil {
				message, known := classifyError(err, cfg.ProxyBaseURL)
				log.Error("agent.failed", "error", message)
				if !known {
					log.Error("agent.failed.trace", "trace", fmt.Sprintf("%+v", err))
				}
				return errors.New(message)
			}

			tf, err := flags.loadTargets()
			if err != nil {
				return err
			}
			deps, qc, err := buildDeps(cfg, tf, flags.target)
			if err != nil {
				return err
			}
			defer qc.Close()
			deps.Logger = log

			if flags.target != "" {
				log.Info("agent.target_filter", "target", flags.target, "team_filter", deps.TeamFilter)
			}
			log.Info("agent.starting",
				"model", model,
				"proxy", cfg.ProxyBaseURL,
				"proxy_enabled", cfg.ProxyEnabled,
				"dry_run", cfg.DryRun,
			)

			srv := mcp.NewServer(serverImpl, nil)
			tools.RegisterMCP(srv, deps)

			// Blocks until the agent disconnects or the process is
			// signalled. stdout carries the protocol; logs are on stderr.
			if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				message, known := classifyError(err, cfg.ProxyBaseURL)
				log.Error("agent.failed", "error", message)
				if !known {
					log.Error("agent.failed.trace", "trace", fmt.Sprintf("%+v", err))
				}
				return errors.New(message)
			}

			rep := deps.Report()
			rep.Summary = fmt.Sprintf("Run %s complete: %d matches found, %d submitted.",
				runID, rep.MatchesFound, rep.MatchesSubmitted)
			log.Info("agent.completed",
				"actions", len(rep.Actions),
				"matches_found", rep.MatchesFound,
				"matches_submitted", rep.MatchesSubmitted,
			)

			if flags.jsonLogs || cfg.JSONLogs {
				out, err := rep.JSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(os.Stderr, out)
			} else {
				fmt.Fprintln(os.Stderr, "\n"+rep.Render())
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newServeCmd() *cobra.Command {
	flags := &commonFlags{}
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the agent tools over MCP HTTP for a remote agent",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			setupLogging(flags.jsonLogs || cfg.JSONLogs, cfg.LogLevel)

			ctx, cancel := signalContext()
			defer cancel()

			if _, err := resolveModel(ctx, cfg); err != nil {
				message, _ := classifyError(err, cfg.ProxyBaseURL)
				return errors.New(message)
			}

			tf, err := flags.loadTargets()
			if err != nil {
				return err
			}
			deps, qc, err := buildDeps(cfg, tf, flags.target)
			if err != nil {
				return err
			}
			defer qc.Close()

			srv := mcp.NewServer(serverImpl, nil)
			tools.RegisterMCP(srv, deps)

			r := chi.NewRouter()
			r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
			})
			r.Handle("/mcp", mcp.NewStreamableHTTPHandler(
				func(*http.Request) *mcp.Server { return srv }, nil))

			httpSrv := &http.Server{Addr: addr, Handler: r}
			go func() {
				<-ctx.Done()
				httpSrv.Shutdown(context.Background())
			}()

			slog.Info("serve.starting", "addr", addr)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", ":8085", "listen address")
	return cmd
}

func newScrapeCmd() *cobra.Command {
	flags := &commonFlags{}
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape a target directly — no agent, no model, no proxy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.target == "" {
				return errors.New("scrape requires --target")
			}
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			setupLogging(flags.jsonLogs, cfg.LogLevel)

			ctx, cancel := signalContext()
			defer cancel()

			tf, err := flags.loadTargets()
			if err != nil {
				return err
			}
			tgt, ok := tf.Targets[flags.target]
			if !ok {
				return fmt.Errorf("unknown target %q. Valid targets: %s", flags.target, tf.Names())
			}

			deps, qc, err := buildDeps(cfg, tf, flags.target)
			if err != nil {
				return err
			}
			defer qc.Close()
			// Direct scrape never submits; keep the queue out of it.
			deps.Queue = nil
			deps.DryRun = true

			req := tools.ScrapeRequest{
				StartDate:  time.Now().UTC().Format("2006-01-02"),
				EndDate:    match.DefaultSeasonEnd.Format("2006-01-02"),
				AgeGroup:   tgt.AgeGroup,
				League:     tgt.League,
				Division:   tgt.Division,
				Conference: tgt.Conference,
			}

			fmt.Fprintf(os.Stderr, "Scraping %s %s (%s to %s)...\n",
				tgt.AgeGroup, tgt.League, req.StartDate, req.EndDate)

			digest, err := tools.ScrapeMatches(ctx, deps, req)
			if err != nil {
				return err
			}

			if jsonOutput {
				data, err := json.MarshalIndent(deps.Records(), "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}
			fmt.Println(digest)
			if deps.TeamFilter != "" {
				fmt.Printf("\n%d of %d matches retained by team filter %q\n",
					len(deps.Records()), deps.Report().MatchesFound, deps.TeamFilter)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output retained records as JSON")
	return cmd
}

func newCheckCmd() *cobra.Command {
	flags := &commonFlags{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check proxy health and queue connectivity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			setupLogging(false, cfg.LogLevel)

			ctx, cancel := signalContext()
			defer cancel()

			fmt.Printf("environment: %s\n", flags.env)

			gate := &preflight.Gate{
				ProxyBaseURL:   cfg.ProxyBaseURL,
				Model:          cfg.ModelName,
				MinTokenBudget: cfg.MinTokenBudget,
			}
			fmt.Printf("proxy: checking %s\n", gate.StatusURL())
			model, err := gate.Check(ctx)
			switch {
			case errors.Is(err, preflight.ErrUnreachable):
				fmt.Println("  status: UNREACHABLE")
			case err != nil:
				fmt.Printf("  status: ERROR (%v)\n", err)
			default:
				fmt.Printf("  status: ok (model: %s)\n", model)
			}

			fmt.Printf("queue: checking %s\n", cfg.QueuePath)
			qc, err := queue.Open(cfg.QueuePath, cfg.QueueName)
			if err != nil {
				fmt.Printf("  status: ERROR (%v)\n", err)
				return nil
			}
			defer qc.Close()
			if qc.CheckConnection(ctx) {
				fmt.Println("  status: connected")
			} else {
				fmt.Println("  status: UNREACHABLE")
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newDrainCmd() *cobra.Command {
	flags := &commonFlags{}
	cmd := &cobra.Command{
		Use:   "drain",
		Short: "Claim pending match jobs and print them as JSON lines",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			setupLogging(flags.jsonLogs, cfg.LogLevel)

			ctx, cancel := signalContext()
			defer cancel()

			qc, err := queue.Open(cfg.QueuePath, cfg.QueueName)
			if err != nil {
				return err
			}
			defer qc.Close()

			enc := json.NewEncoder(os.Stdout)
			drained := 0
			for {
				job, err := qc.Queue().Claim(ctx)
				if err != nil {
					return fmt.Errorf("claim: %w", err)
				}
				if job == nil {
					break
				}
				var rec match.Record
				if err := json.Unmarshal(job.Payload, &rec); err != nil {
					slog.Warn("drain: undecodable payload", "id", job.ID, "error", err)
					if err := qc.Queue().Nack(ctx, job.ID); err != nil {
						return err
					}
					continue
				}
				if err := enc.Encode(rec); err != nil {
					return err
				}
				if err := qc.Queue().Ack(ctx, job.ID); err != nil {
					return err
				}
				drained++
			}
			slog.Info("drain.done", "jobs", drained)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}


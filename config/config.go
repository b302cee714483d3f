// Package config loads the run configuration: environment variables (with
// an optional dotenv file) for deployment-specific settings, and a YAML
// targets file for the scrape presets and team-name overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config is the immutable per-run configuration snapshot. Flags may adjust
// it during CLI setup; once the run starts it does not change.
type Config struct {
	// Proxy / model.
	ProxyBaseURL   string
	ModelName      string
	ProxyEnabled   bool
	MinTokenBudget int

	// Queue.
	QueuePath string
	QueueName string

	// Scrape defaults, used when the agent omits the overrides.
	AgeGroup string
	League   string
	Division string

	// ScheduleURL overrides the upstream schedule page (tests, mirrors).
	ScheduleURL string
	// ChromeURL points at an external Chrome instance; empty launches one.
	ChromeURL string

	DryRun   bool
	JSONLogs bool
	LogLevel string
}

func defaults() *Config {
	return &Config{
		ProxyBaseURL:   "http://localhost:8100",
		ModelName:      "claude-haiku-4-5",
		ProxyEnabled:   true,
		MinTokenBudget: 5000,
		QueuePath:      "data/matches.db",
		QueueName:      "matches",
		AgeGroup:       "U14",
		League:         "Homegrown",
		Division:       "Northeast",
		LogLevel:       "info",
	}
}

// Load builds a Config from the environment. If envFile is non-empty and
// exists, it is loaded first (real environment variables win — godotenv
// does not override existing keys). All variables use the AGENT_ prefix.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("config: load %s: %w", envFile, err)
			}
		}
	}

	cfg := defaults()
	cfg.ProxyBaseURL = env("AGENT_PROXY_BASE_URL", cfg.ProxyBaseURL)
	cfg.ModelName = env("AGENT_MODEL_NAME", cfg.ModelName)
	cfg.ProxyEnabled = envBool("AGENT_PROXY_ENABLED", cfg.ProxyEnabled)
	cfg.MinTokenBudget = envInt("AGENT_MIN_TOKEN_BUDGET", cfg.MinTokenBudget)
	cfg.QueuePath = env("AGENT_QUEUE_PATH", cfg.QueuePath)
	cfg.QueueName = env("AGENT_QUEUE_NAME", cfg.QueueName)
	cfg.AgeGroup = env("AGENT_AGE_GROUP", cfg.AgeGroup)
	cfg.League = env("AGENT_LEAGUE", cfg.League)
	cfg.Division = env("AGENT_DIVISION", cfg.Division)
	cfg.ScheduleURL = env("AGENT_SCHEDULE_URL", cfg.ScheduleURL)
	cfg.ChromeURL = env("AGENT_CHROME_URL", cfg.ChromeURL)
	cfg.DryRun = envBool("AGENT_DRY_RUN", cfg.DryRun)
	cfg.JSONLogs = envBool("AGENT_JSON_LOGS", cfg.JSONLogs)
	cfg.LogLevel = env("AGENT_LOG_LEVEL", cfg.LogLevel)
	return cfg, nil
}

// EnvFilePath resolves the dotenv file for an environment name, e.g.
// envs/.env.local. Returns "" when the file does not exist (settings then
// come from real environment variables, as in a container).
func EnvFilePath(envName string) string {
	path := "envs/.env." + envName
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/matchagent/match"
)

// Target is a named scrape preset: the competition slice, an optional team
// filter, and the prompt handed to the directing agent.
type Target struct {
	AgeGroup   string `yaml:"age_group"`
	League     string `yaml:"league"`
	Division   string `yaml:"division"`
	Conference string `yaml:"conference"`
	TeamFilter string `yaml:"team_filter"`
	Prompt     string `yaml:"prompt"`
}

// TargetsFile is the on-disk shape of the targets YAML: presets plus the
// league-scoped team-name overrides injected into the scrape capability.
type TargetsFile struct {
	Targets   map[string]Target `yaml:"targets"`
	TeamNames match.Normalizer  `yaml:"team_names"`
}

// LoadTargets reads a targets YAML file. Missing team_names falls back to
// the built-in table.
func LoadTargets(path string) (*TargetsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read targets: %w", err)
	}
	tf := &TargetsFile{}
	if err := yaml.Unmarshal(data, tf); err != nil {
		return nil, fmt.Errorf("config: parse targets: %w", err)
	}
	if tf.Targets == nil {
		tf.Targets = map[string]Target{}
	}
	if tf.TeamNames == nil {
		tf.TeamNames = match.DefaultNormalizer()
	}
	return tf, nil
}

// DefaultTargets returns the built-in presets, used when no targets file
// is supplied.
func DefaultTargets() *TargetsFile {
	return &TargetsFile{
		Targets: map[string]Target{
			"u14-hg": {
				AgeGroup: "U14", League: "Homegrown", Division: "Northeast",
				Prompt: "Only scrape U14 Homegrown Northeast today. Do not scrape other targets.",
			},
			"u14-hg-ifa": {
				AgeGroup: "U14", League: "Homegrown", Division: "Northeast",
				TeamFilter: "IFA",
				Prompt: "Only scrape U14 Homegrown Northeast today. " +
					"Only IFA matches will be submitted. Do not scrape other targets.",
			},
			"u13-hg": {
				AgeGroup: "U13", League: "Homegrown", Division: "Northeast",
				Prompt: "Only scrape U13 Homegrown Northeast today. Do not scrape other targets.",
			},
			"u13-hg-ifa": {
				AgeGroup: "U13", League: "Homegrown", Division: "Northeast",
				TeamFilter: "IFA",
				Prompt: "Only scrape U13 Homegrown Northeast today. " +
					"Only IFA matches will be submitted. Do not scrape other targets.",
			},
			"u14-academy": {
				AgeGroup: "U14", League: "Academy", Conference: "New England",
				Prompt: "Only scrape U14 Academy New England (conference='New England') today. " +
					"Do not scrape other targets.",
			},
			"u14-academy-ifa": {
				AgeGroup: "U14", League: "Academy", Conference: "New England",
				TeamFilter: "IFA Academy",
				Prompt: "Only scrape U14 Academy New England (conference='New England') today. " +
					"Only IFA Academy matches will be submitted. Do not scrape other targets.",
			},
		},
		TeamNames: match.DefaultNormalizer(),
	}
}

// Names lists the target names, sorted, for error messages.
func (tf *TargetsFile) Names() string {
	names := make([]string, 0, len(tf.Targets))
	for name := range tf.Targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

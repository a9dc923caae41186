package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const defaultLimit = 20

// Target describes one project to collect insights for.
type Target struct {
	Name              string     `yaml:"name" json:"name"`
	URL               string     `yaml:"url" json:"url"`
	Project           string     `yaml:"project" json:"project"`
	Branch            string     `yaml:"branch,omitempty" json:"branch,omitempty"`
	Limit             int        `yaml:"limit,omitempty" json:"limit,omitempty"`
	MinTypePercentage *float64   `yaml:"min_type_percentage,omitempty" json:"min_type_percentage,omitempty"`
	Schedules         []Schedule `yaml:"schedules,omitempty" json:"schedules,omitempty"`
}

// Schedule defines when a target is collected automatically. Either Every
// (interval, e.g. "1h") or At (daily time, "HH:MM") is set.
type Schedule struct {
	Every string `yaml:"every,omitempty" json:"every,omitempty"`
	At    string `yaml:"at,omitempty" json:"at,omitempty"`
}

// TargetsConfig holds the list of all collection targets
type TargetsConfig struct {
	Targets []Target `yaml:"targets" json:"targets"`
}

// LoadTargets loads the targets configuration from a YAML file
func LoadTargets(configPath string) (*TargetsConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read targets config: %w", err)
	}

	var config TargetsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse targets config: %w", err)
	}

	for i := range config.Targets {
		if err := config.Targets[i].Validate(); err != nil {
			return nil, fmt.Errorf("invalid target %q: %w", config.Targets[i].Name, err)
		}
	}

	return &config, nil
}

// GetTarget returns a target by name
func (c *TargetsConfig) GetTarget(name string) (*Target, error) {
	for i := range c.Targets {
		if c.Targets[i].Name == name {
			return &c.Targets[i], nil
		}
	}
	return nil, fmt.Errorf("target '%s' not found", name)
}

// Validate checks required fields and applies defaults
func (t *Target) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("name is required")
	}
	if t.URL == "" {
		return fmt.Errorf("url is required")
	}
	if t.Project == "" {
		return fmt.Errorf("project is required")
	}
	if t.Limit < 0 {
		return fmt.Errorf("limit must be positive")
	}
	if t.Limit == 0 {
		t.Limit = defaultLimit
	}
	if t.MinTypePercentage != nil && (*t.MinTypePercentage < 0 || *t.MinTypePercentage > 100) {
		return fmt.Errorf("min_type_percentage must be between 0 and 100")
	}
	for _, schedule := range t.Schedules {
		if schedule.Every == "" && schedule.At == "" {
			return fmt.Errorf("schedule needs either 'every' or 'at'")
		}
	}
	return nil
}

// Threshold returns the configured minimum type percentage, defaulting to 1.
func (t *Target) Threshold() float64 {
	if t.MinTypePercentage == nil {
		return 1.0
	}
	return *t.MinTypePercentage
}

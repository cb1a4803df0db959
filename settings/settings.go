// Package settings is the credential and settings store the desktop shell
// hands to the agent core: a YAML file overlaid with environment variables.
package settings

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Settings supplies the backend credentials and agent defaults.
type Settings struct {
	APIKey      string  `yaml:"api_key" env:"AIBUDDY_API_KEY"`
	Provider    string  `yaml:"provider" env:"AIBUDDY_PROVIDER"`
	Model       string  `yaml:"model" env:"AIBUDDY_MODEL"`
	MaxTokens   int     `yaml:"max_tokens" env:"AIBUDDY_MAX_TOKENS"`
	Temperature float64 `yaml:"temperature" env:"AIBUDDY_TEMPERATURE"`
	Workspace   string  `yaml:"workspace" env:"AIBUDDY_WORKSPACE"`
	// Estimator selects the context-size estimation strategy: "heuristic"
	// or "tiktoken".
	Estimator string `yaml:"estimator" env:"AIBUDDY_ESTIMATOR"`
}

// Defaults returns the settings applied when neither file nor environment
// provides a value.
func Defaults() Settings {
	return Settings{
		Provider:  "anthropic",
		Model:     "claude-sonnet-4-5",
		MaxTokens: 4096,
		Estimator: "heuristic",
	}
}

// Load reads settings from the YAML file at path, then applies environment
// overrides. A missing file is not an error; the environment alone can
// supply everything.
func Load(path string) (Settings, error) {
	s := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to environment
		case err != nil:
			return Settings{}, fmt.Errorf("read settings %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &s); err != nil {
				return Settings{}, fmt.Errorf("parse settings %s: %w", path, err)
			}
		}
	}

	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("parse settings environment: %w", err)
	}
	return s, nil
}

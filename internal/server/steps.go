package server

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/mark3labs/applywiz/internal/form"
)

// LoadSteps reads a steps configuration from a YAML file. An empty path
// yields the built-in steps.
func LoadSteps(path string) (form.StepsConfig, error) {
	if path == "" {
		return form.DefaultSteps(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return form.StepsConfig{}, fmt.Errorf("reading steps file: %w", err)
	}

	var cfg form.StepsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return form.StepsConfig{}, fmt.Errorf("parsing steps file: %w", err)
	}
	if len(cfg.Steps) == 0 {
		return form.StepsConfig{}, fmt.Errorf("steps file %s defines no steps", path)
	}

	for i := range cfg.Steps {
		if cfg.Steps[i].StepNumber == 0 {
			cfg.Steps[i].StepNumber = i + 1
		}
		for _, name := range slices.Concat(cfg.Steps[i].Fields, cfg.Steps[i].RequiredFields) {
			if _, err := form.ParseRef(name); err != nil {
				return form.StepsConfig{}, fmt.Errorf("step %d: %w", i+1, err)
			}
		}
		if cfg.Steps[i].Fields == nil {
			cfg.Steps[i].Fields = []string{}
		}
		if cfg.Steps[i].RequiredFields == nil {
			cfg.Steps[i].RequiredFields = []string{}
		}
	}
	cfg.TotalSteps = len(cfg.Steps)
	return cfg, nil
}

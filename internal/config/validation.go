package config

import (
	"fmt"

	foundationerrors "git.home.luguber.info/inful/classforge/internal/foundation/errors"
)

// ValidateConfig checks the completed configuration.
func ValidateConfig(cfg *Config) error {
	v := &configurationValidator{config: cfg}
	return v.validate()
}

type configurationValidator struct {
	config *Config
}

func (cv *configurationValidator) validate() error {
	if err := cv.validateRun(); err != nil {
		return err
	}
	if err := cv.validateOutput(); err != nil {
		return err
	}
	return cv.validateEvents()
}

func (cv *configurationValidator) validateRun() error {
	run := cv.config.Run
	if run.MaxPasses < 1 {
		return invalid("run.max_passes", fmt.Sprintf("must be at least 1, got %d", run.MaxPasses))
	}
	if run.Workers < 0 {
		return invalid("run.workers", fmt.Sprintf("must not be negative, got %d", run.Workers))
	}
	seen := make(map[string]bool, len(run.Transformers))
	for _, name := range run.Transformers {
		if name == "" {
			return invalid("run.transformers", "contains an empty name")
		}
		if seen[name] {
			return invalid("run.transformers", fmt.Sprintf("lists %q twice", name))
		}
		seen[name] = true
	}
	return nil
}

func (cv *configurationValidator) validateOutput() error {
	out := cv.config.Output
	if out.GitCommit && out.Path == "" {
		return invalid("output.git_commit", "requires output.path or workspace.path")
	}
	return nil
}

func (cv *configurationValidator) validateEvents() error {
	if cv.config.Metrics.Enabled && cv.config.Metrics.ListenAddr == "" {
		return invalid("metrics.listen_addr", "required when metrics are enabled")
	}
	return nil
}

func invalid(field, message string) error {
	return foundationerrors.ConfigError(field + " " + message).WithContext("field", field).Build()
}

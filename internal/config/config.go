// Package config loads the classforge configuration file.
//
// Loading order: .env files seed the process environment (existing variables
// win), ${VAR} references in the YAML are expanded, the file is decoded,
// CLASSFORGE_* variables override it, defaults fill what is still unset, and
// the result is validated.
package config

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	foundationerrors "git.home.luguber.info/inful/classforge/internal/foundation/errors"
)

// Config is the root configuration document.
type Config struct {
	Workspace    WorkspaceConfig           `yaml:"workspace"`
	Run          RunConfig                 `yaml:"run"`
	Transformers map[string]map[string]any `yaml:"transformers,omitempty"`
	Output       OutputConfig              `yaml:"output"`
	Logging      LoggingConfig             `yaml:"logging"`
	Metrics      MetricsConfig             `yaml:"metrics"`
	Events       EventsConfig              `yaml:"events"`
	Hierarchy    HierarchyConfig           `yaml:"hierarchy"`
	Watch        WatchConfig               `yaml:"watch"`
}

// WorkspaceConfig locates the classes to transform.
type WorkspaceConfig struct {
	Path       string   `yaml:"path"`       // Primary resource directory
	Supporting []string `yaml:"supporting"` // Library resource directories (read-only)
}

// RunConfig tunes the transformation pipeline.
type RunConfig struct {
	MaxPasses    int      `yaml:"max_passes"`
	Parallel     *bool    `yaml:"parallel,omitempty"`
	Workers      int      `yaml:"workers"`
	Transformers []string `yaml:"transformers"`
}

// IsParallel reports the effective parallel setting (default true).
func (r RunConfig) IsParallel() bool { return r.Parallel == nil || *r.Parallel }

// OutputConfig controls what happens after a successful run.
type OutputConfig struct {
	Path          string       `yaml:"path"` // Defaults to the workspace path (in-place)
	GitCommit     bool         `yaml:"git_commit"`
	CommitMessage string       `yaml:"commit_message"`
	Report        ReportConfig `yaml:"report"`
}

// ReportConfig selects the run report.
type ReportConfig struct {
	Path   string       `yaml:"path"`
	Format ReportFormat `yaml:"format"`
}

// MetricsConfig enables the Prometheus endpoint.
type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

// EventsConfig selects where run events are journaled and published.
type EventsConfig struct {
	SQLitePath  string `yaml:"sqlite_path"`
	NATSURL     string `yaml:"nats_url"`
	NATSSubject string `yaml:"nats_subject"`
}

// HierarchyConfig tunes the inheritance hierarchy cache.
type HierarchyConfig struct {
	CacheSize int `yaml:"cache_size"`
}

// WatchConfig tunes watch mode.
type WatchConfig struct {
	Debounce Duration `yaml:"debounce"`
}

// Load reads, defaults, overrides and validates the configuration at path.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, foundationerrors.NewError(foundationerrors.CategoryNotFound, "configuration file not found").
				WithContext("path", path).Build()
		}
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "failed to read config file").
			WithContext("path", path).Build()
	}
	return Parse([]byte(os.ExpandEnv(string(data))))
}

// Parse decodes a configuration document and completes it like Load, minus
// the .env and variable expansion steps.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "failed to decode config").Fatal().Build()
	}
	return complete(&cfg)
}

// Default returns a configuration with defaults and environment overrides
// applied, for running without a config file.
func Default() (*Config, error) {
	loadEnvFiles()
	return complete(&Config{})
}

func complete(cfg *Config) (*Config, error) {
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

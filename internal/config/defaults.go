package config

import (
	"time"
)

const (
	DefaultMaxPasses     = 10
	DefaultCacheSize     = 4096
	DefaultListenAddr    = ":9464"
	DefaultNATSSubject   = "classforge.events"
	DefaultCommitMessage = "Apply classforge transformations"
	DefaultDebounce      = 500 * time.Millisecond
)

// DefaultApplier applies defaults for one configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config)
	Domain() string
}

// RunDefaultApplier handles run defaults.
type RunDefaultApplier struct{}

func (RunDefaultApplier) Domain() string { return "run" }

func (RunDefaultApplier) ApplyDefaults(cfg *Config) {
	if cfg.Run.MaxPasses == 0 {
		cfg.Run.MaxPasses = DefaultMaxPasses
	}
}

// OutputDefaultApplier handles output and report defaults.
type OutputDefaultApplier struct{}

func (OutputDefaultApplier) Domain() string { return "output" }

func (OutputDefaultApplier) ApplyDefaults(cfg *Config) {
	if cfg.Output.Path == "" {
		cfg.Output.Path = cfg.Workspace.Path
	}
	if cfg.Output.CommitMessage == "" {
		cfg.Output.CommitMessage = DefaultCommitMessage
	}
	cfg.Output.Report.Format = reportFormats.Normalize(string(cfg.Output.Report.Format))
}

// LoggingDefaultApplier normalizes logging enumerations.
type LoggingDefaultApplier struct{}

func (LoggingDefaultApplier) Domain() string { return "logging" }

func (LoggingDefaultApplier) ApplyDefaults(cfg *Config) {
	cfg.Logging.Level = logLevels.Normalize(string(cfg.Logging.Level))
	cfg.Logging.Format = logFormats.Normalize(string(cfg.Logging.Format))
}

// ObservabilityDefaultApplier handles metrics, events, hierarchy and watch defaults.
type ObservabilityDefaultApplier struct{}

func (ObservabilityDefaultApplier) Domain() string { return "observability" }

func (ObservabilityDefaultApplier) ApplyDefaults(cfg *Config) {
	if cfg.Metrics.ListenAddr == "" {
		cfg.Metrics.ListenAddr = DefaultListenAddr
	}
	if cfg.Events.NATSSubject == "" {
		cfg.Events.NATSSubject = DefaultNATSSubject
	}
	if cfg.Hierarchy.CacheSize <= 0 {
		cfg.Hierarchy.CacheSize = DefaultCacheSize
	}
	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = Duration(DefaultDebounce)
	}
}

var defaultAppliers = []DefaultApplier{
	RunDefaultApplier{},
	OutputDefaultApplier{},
	LoggingDefaultApplier{},
	ObservabilityDefaultApplier{},
}

// ApplyDefaults runs every domain applier in order.
func ApplyDefaults(cfg *Config) {
	for _, a := range defaultAppliers {
		a.ApplyDefaults(cfg)
	}
}

// Package commands implements the classforge command line.
package commands

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/classforge/internal/config"
	foundationerrors "git.home.luguber.info/inful/classforge/internal/foundation/errors"
)

// DefaultConfigPath is used when --config is not given.
const DefaultConfigPath = "classforge.yaml"

// Global is shared with every subcommand.
type Global struct {
	Logger *slog.Logger
}

// CLI definition and global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"classforge.yaml" env:"CLASSFORGE_CONFIG"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Run    RunCmd    `cmd:"" help:"Run transformers over the workspace and write the result"`
	Plan   PlanCmd   `cmd:"" help:"Show the resolved transformer queue (text, mermaid, dot, json)"`
	List   ListCmd   `cmd:"" help:"List built-in transformers"`
	Watch  WatchCmd  `cmd:"" help:"Re-run transformers whenever classes in the workspace change"`
	Events EventsCmd `cmd:"" help:"Show journaled run history"`
}

// AfterApply installs a text logger before any command runs. Commands
// replace it once the configuration has been read.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	if g != nil {
		g.Logger = logger
	}
	return nil
}

// loadConfig reads the configuration file. A missing default file is not an
// error; defaults and CLASSFORGE_* variables are used instead.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.Config == DefaultConfigPath {
		if _, err := os.Stat(c.Config); errors.Is(err, fs.ErrNotExist) {
			return config.Default()
		}
	}
	return config.Load(c.Config)
}

// setupLogging replaces the default logger according to cfg. --verbose
// always wins over the configured level.
func (c *CLI) setupLogging(g *Global, cfg *config.Config) *slog.Logger {
	level := toSlogLevel(cfg.Logging.Level)
	if c.Verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if cfg.Logging.Format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	if g != nil {
		g.Logger = logger
	}
	return logger
}

func toSlogLevel(l config.LogLevel) slog.Level {
	switch l {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// selectTransformers prefers names given on the command line.
func selectTransformers(flags []string, cfg *config.Config) ([]string, error) {
	names := flags
	if len(names) == 0 {
		names = cfg.Run.Transformers
	}
	if len(names) == 0 {
		return nil, foundationerrors.ValidationError("no transformers selected").
			WithContext("hint", "pass --transformer or set run.transformers").Build()
	}
	return names, nil
}

package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	foundationerrors "git.home.luguber.info/inful/classforge/internal/foundation/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CLASSFORGE_"

var envFiles = []string{".env", ".env.local"}

// loadEnvFiles seeds the environment from .env files that exist. Variables
// already set are never overwritten.
func loadEnvFiles() {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}
}

type envOverride struct {
	key   string
	apply func(cfg *Config, value string) error
}

var envOverrides = []envOverride{
	{"WORKSPACE", func(c *Config, v string) error { c.Workspace.Path = v; return nil }},
	{"SUPPORTING", func(c *Config, v string) error { c.Workspace.Supporting = splitList(v); return nil }},
	{"OUTPUT", func(c *Config, v string) error { c.Output.Path = v; return nil }},
	{"TRANSFORMERS", func(c *Config, v string) error { c.Run.Transformers = splitList(v); return nil }},
	{"MAX_PASSES", func(c *Config, v string) error { return setInt(&c.Run.MaxPasses, v) }},
	{"WORKERS", func(c *Config, v string) error { return setInt(&c.Run.Workers, v) }},
	{"PARALLEL", func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		c.Run.Parallel = &b
		return nil
	}},
	{"LOG_LEVEL", func(c *Config, v string) error {
		level, err := logLevels.Parse(v)
		c.Logging.Level = level
		return err
	}},
	{"LOG_FORMAT", func(c *Config, v string) error {
		format, err := logFormats.Parse(v)
		c.Logging.Format = format
		return err
	}},
	{"SQLITE_PATH", func(c *Config, v string) error { c.Events.SQLitePath = v; return nil }},
	{"NATS_URL", func(c *Config, v string) error { c.Events.NATSURL = v; return nil }},
	{"METRICS_ADDR", func(c *Config, v string) error {
		c.Metrics.Enabled = true
		c.Metrics.ListenAddr = v
		return nil
	}},
}

// applyEnvOverrides applies CLASSFORGE_* variables on top of the file.
func applyEnvOverrides(cfg *Config) error {
	for _, o := range envOverrides {
		v, ok := os.LookupEnv(EnvPrefix + o.key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		if err := o.apply(cfg, strings.TrimSpace(v)); err != nil {
			return foundationerrors.WrapError(err, foundationerrors.CategoryConfig, "invalid environment override").
				WithContext("variable", EnvPrefix+o.key).Fatal().Build()
		}
	}
	return nil
}

func setInt(dst *int, v string) error {
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

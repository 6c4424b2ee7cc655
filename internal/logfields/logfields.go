package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID       = "run_id"
	KeyClass       = "class"
	KeyTransformer = "transformer"
	KeyBundle      = "bundle"
	KeyResource    = "resource"
	KeyPass        = "pass"
	KeyPhase       = "phase"
	KeyCount       = "count"
	KeyDurationMS  = "duration_ms"
	KeyPath        = "path"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr         { return slog.String(KeyRunID, id) }
func Class(name string) slog.Attr       { return slog.String(KeyClass, name) }
func Transformer(name string) slog.Attr { return slog.String(KeyTransformer, name) }
func Bundle(name string) slog.Attr      { return slog.String(KeyBundle, name) }
func Resource(name string) slog.Attr    { return slog.String(KeyResource, name) }
func Pass(n int) slog.Attr              { return slog.Int(KeyPass, n) }
func Phase(name string) slog.Attr       { return slog.String(KeyPhase, name) }
func Count(n int) slog.Attr             { return slog.Int(KeyCount, n) }
func Path(p string) slog.Attr           { return slog.String(KeyPath, p) }

// Duration reports d in milliseconds under duration_ms.
func Duration(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}

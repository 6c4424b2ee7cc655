// Package report renders a human-readable summary of a transformation run as
// Markdown, or as HTML converted from that Markdown with goldmark.
package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"git.home.luguber.info/inful/classforge/internal/foundation/errors"
	"git.home.luguber.info/inful/classforge/internal/transform"
)

// Format selects the rendered output.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// FailureRow is one failed (class, transformer) pair.
type FailureRow struct {
	Class       string
	Transformer string
	Pass        int
	Error       string
}

// Data is everything a report shows. It is decoupled from transform.Result
// so reports can also be built from journaled events.
type Data struct {
	RunID       string
	GeneratedAt time.Time
	Duration    time.Duration
	Passes      int
	Queue       []string
	Modified    map[string][]string // transformer -> classes
	Removed     []string
	Renames     []string
	Failures    []FailureRow
	DryRun      bool
	Canceled    bool
}

// FromResult extracts report data from a run result.
func FromResult(r *transform.Result) Data {
	d := Data{
		RunID:       r.RunID(),
		GeneratedAt: time.Now(),
		Duration:    r.Duration(),
		Passes:      r.Passes(),
		Queue:       r.Queue(),
		Modified:    r.ModifiedClassesPerTransformer(),
		Removed:     r.ClassesToRemove(),
		Canceled:    r.Canceled(),
	}
	if m := r.MappingsToApply(); m != nil {
		d.Renames = m.Lines()
	}
	for _, f := range r.Failures() {
		row := FailureRow{Class: f.Class, Transformer: f.Transformer, Pass: f.Pass}
		if f.Err != nil {
			row.Error = f.Err.Error()
		}
		d.Failures = append(d.Failures, row)
	}
	return d
}

// Markdown renders d.
func Markdown(d Data) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "# Transformation run %s\n\n", d.RunID)
	if d.DryRun {
		b.WriteString("> Dry run: no changes were written.\n\n")
	}
	if d.Canceled {
		b.WriteString("> Canceled: only work finished before the cancellation is included.\n\n")
	}

	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Generated | %s |\n", d.GeneratedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "| Duration | %s |\n", d.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "| Passes | %d |\n", d.Passes)
	fmt.Fprintf(&b, "| Transformers | %s |\n", escapeCell(strings.Join(d.Queue, ", ")))
	fmt.Fprintf(&b, "| Classes removed | %d |\n", len(d.Removed))
	fmt.Fprintf(&b, "| Renames | %d |\n", len(d.Renames))
	fmt.Fprintf(&b, "| Failures | %d |\n", len(d.Failures))

	if len(d.Modified) > 0 {
		b.WriteString("\n## Modified classes\n")
		names := make([]string, 0, len(d.Modified))
		for name := range d.Modified {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			classes := d.Modified[name]
			fmt.Fprintf(&b, "\n### %s (%d)\n\n", name, len(classes))
			for _, c := range classes {
				fmt.Fprintf(&b, "- `%s`\n", c)
			}
		}
	}

	writeList(&b, "Removed classes", d.Removed)
	writeList(&b, "Renames", d.Renames)

	if len(d.Failures) > 0 {
		b.WriteString("\n## Failures\n\n| Class | Transformer | Pass | Error |\n|---|---|---|---|\n")
		for _, f := range d.Failures {
			fmt.Fprintf(&b, "| `%s` | %s | %d | %s |\n", f.Class, f.Transformer, f.Pass, escapeCell(f.Error))
		}
	}
	return b.Bytes()
}

// HTML renders d as a standalone HTML document.
func HTML(d Data) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var body bytes.Buffer
	if err := md.Convert(Markdown(d), &body); err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to render report").Build()
	}
	var out bytes.Buffer
	fmt.Fprintf(&out, "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>classforge run %s</title></head>\n<body>\n", d.RunID)
	out.Write(body.Bytes())
	out.WriteString("</body></html>\n")
	return out.Bytes(), nil
}

// Render dispatches on format. Unknown formats fall back to Markdown.
func Render(d Data, format Format) ([]byte, error) {
	if format == FormatHTML {
		return HTML(d)
	}
	return Markdown(d), nil
}

// WriteFile renders d and writes it to path, creating parent directories.
func WriteFile(path string, format Format, d Data) error {
	data, err := Render(d, format)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to create report directory").
			WithContext("path", path).Build()
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write report").
			WithContext("path", path).Build()
	}
	return nil
}

func writeList(b *bytes.Buffer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## %s\n\n", title)
	for _, it := range items {
		fmt.Fprintf(b, "- `%s`\n", it)
	}
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

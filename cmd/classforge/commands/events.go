package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/classforge/internal/eventstore"
	foundationerrors "git.home.luguber.info/inful/classforge/internal/foundation/errors"
)

// EventsCmd implements the 'events' command.
type EventsCmd struct {
	RunID string `arg:"" optional:"" help:"Show the journaled events of one run"`
	Limit int    `short:"n" help:"Number of runs to show" default:"20"`
	JSON  bool   `help:"Print JSON instead of a table"`
}

// Run executes the events command.
func (cmd *EventsCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	root.setupLogging(g, cfg)
	if cfg.Events.SQLitePath == "" {
		return foundationerrors.ConfigError("events.sqlite_path is not configured").Build()
	}

	store, err := eventstore.NewSQLiteStore(cfg.Events.SQLitePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	if cmd.RunID != "" {
		return cmd.printRun(ctx, os.Stdout, store)
	}
	return cmd.printHistory(ctx, os.Stdout, store)
}

func (cmd *EventsCmd) printRun(ctx context.Context, w io.Writer, store eventstore.Store) error {
	events, err := store.GetByRunID(ctx, cmd.RunID)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		return foundationerrors.NewError(foundationerrors.CategoryNotFound, "no events for run").
			WithContext("run_id", cmd.RunID).Build()
	}
	if cmd.JSON {
		type row struct {
			Type      string          `json:"type"`
			Timestamp time.Time       `json:"timestamp"`
			Payload   json.RawMessage `json:"payload"`
		}
		rows := make([]row, len(events))
		for i, e := range events {
			rows[i] = row{Type: e.Type(), Timestamp: e.Timestamp(), Payload: e.Payload()}
		}
		return writeJSON(w, rows)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TIME\tTYPE\tPAYLOAD")
	for _, e := range events {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Timestamp().Format(time.RFC3339), e.Type(), e.Payload())
	}
	return tw.Flush()
}

func (cmd *EventsCmd) printHistory(ctx context.Context, w io.Writer, store eventstore.Store) error {
	projection := eventstore.NewRunHistoryProjection(store, cmd.Limit)
	if err := projection.Rebuild(ctx); err != nil {
		return err
	}
	history := projection.GetHistory()
	if cmd.JSON {
		return writeJSON(w, history)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RUN\tSTARTED\tSTATUS\tPASSES\tTRANSFORMED\tREMOVED\tFAILURES\tDURATION")
	for _, s := range history {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			s.RunID, s.StartedAt.Format(time.RFC3339), s.Status, s.Passes, s.Transformed, s.Removed, s.Failures, s.Duration)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

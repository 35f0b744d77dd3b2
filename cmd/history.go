package main

import (
	"context"
	"time"

	"github.com/desertthunder/loopback/internal/history"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"
)

// HistoryList prints recorded captures, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)
	limit := cmd.Int("limit")

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	store := history.NewStore(db, r.logger)
	captures, err := store.List(ctx, limit)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(captures, cmd.Bool("pretty"))
	}

	if len(captures) == 0 {
		return r.writePlain("No captures recorded\n")
	}

	for _, c := range captures {
		r.writePlain("%s  :%d  %s\n", c.CreatedAt.Format(time.DateTime), c.Port, c.RawURL)
	}
	return r.writePlain("\n%d capture(s)\n", len(captures))
}

// HistoryPrune deletes captures older than the cutoff in rate-limited batches.
func (r *Runner) HistoryPrune(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)
	cutoff := time.Now().Add(-cmd.Duration("older-than"))

	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	limiter := rate.NewLimiter(rate.Limit(cmd.Float("rate")), 1)
	store := history.NewStore(db, r.logger)

	deleted, err := store.Prune(ctx, cutoff, cmd.Int("batch-size"), limiter)
	if err != nil {
		return err
	}

	return r.writePlain("✓ Pruned %d capture(s) older than %s\n", deleted, cutoff.Format(time.DateTime))
}

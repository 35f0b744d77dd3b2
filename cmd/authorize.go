package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/loopback/internal/flow"
	"github.com/desertthunder/loopback/internal/history"
	"github.com/desertthunder/loopback/internal/shared"
	"github.com/urfave/cli/v3"
)

// Authorize runs the full browser authorization flow and prints the captured code.
func (r *Runner) Authorize(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)

	if config.Credentials.ClientID == "" || config.Credentials.AuthURL == "" {
		return fmt.Errorf("%w: credentials.client_id and credentials.auth_url must be set in config.toml", shared.ErrInvalidArgument)
	}

	cfg, err := r.captureConfig(config, cmd)
	if err != nil {
		return err
	}

	authorizer := flow.New(flow.Opts{
		Registry:    r.registry,
		Credentials: config.Credentials,
		Logger:      r.logger,
		Timeout:     cmd.Duration("timeout"),
	})

	r.writePlain("→ Opening browser for authorization...\n")
	r.writePlain("→ Waiting for the redirect...\n")

	result, err := authorizer.Authorize(ctx, cfg)
	if err != nil {
		return err
	}

	if cmd.Bool("save") {
		if err := r.saveCapture(ctx, config, result); err != nil {
			r.logger.Warn("failed to record capture", "error", err)
		} else {
			r.writePlain("✓ Capture recorded to %s\n", config.Database.Path)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(map[string]any{
			"code":  result.Code,
			"state": result.State,
			"url":   result.RawURL,
			"port":  result.Port,
		}, true)
	}

	r.writePlainln("✓ Authorization successful")
	r.writePlain("Code: %s\n", result.Code)
	r.writePlain("Redirect: %s\n", result.RawURL)

	return nil
}

// saveCapture records a completed flow in the history database.
func (r *Runner) saveCapture(ctx context.Context, config *shared.Config, result *flow.Result) error {
	db, err := r.openDatabase(config)
	if err != nil {
		return err
	}
	defer db.Close()

	store := history.NewStore(db, r.logger)
	_, err = store.Record(ctx, history.Capture{
		Port:   result.Port,
		RawURL: result.RawURL,
		Code:   result.Code,
		State:  result.State,
	})
	return err
}

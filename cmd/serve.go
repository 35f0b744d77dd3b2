package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/loopback/internal/capture"
	"github.com/desertthunder/loopback/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs one capture session until interrupted, streaming events to the output.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd)
	cfg, err := r.captureConfig(config, cmd)
	if err != nil {
		return err
	}
	useJSON := cmd.Bool("json")

	sub := r.registry.Subscribe(0)
	defer sub.Cancel()

	port, err := r.registry.Start(cfg)
	if err != nil {
		return err
	}

	r.writePlain("✓ Listening on http://127.0.0.1:%d\n", port)
	r.writePlain("Redirect URI: http://127.0.0.1:%d/callback\n", port)
	r.writePlain("Press Ctrl+C to stop\n\n")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stopping capture session", "port", port)
			cancelCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := r.registry.Cancel(cancelCtx, port); err != nil && !errors.Is(err, shared.ErrNotRunning) {
				return err
			}
			r.writePlainln("✓ Session on port %d canceled", port)
			return nil

		case ev, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if err := r.writeEvent(ev, useJSON); err != nil {
				return err
			}
			if ev.Kind == capture.EventListenerLost && ev.Port == port {
				return fmt.Errorf("listener lost on port %d: %w", ev.Port, ev.Err)
			}
		}
	}
}

// writeEvent prints one capture event as text or JSON.
func (r *Runner) writeEvent(ev capture.Event, useJSON bool) error {
	if useJSON {
		out := map[string]any{"kind": ev.Kind.String(), "port": ev.Port}
		switch ev.Kind {
		case capture.EventCaptured:
			out["url"] = ev.Redirect.RawURL
			out["query"] = ev.Redirect.Query
		case capture.EventInvalid:
			out["reason"] = ev.Invalid.Reason
			out["snippet"] = ev.Invalid.Snippet
		case capture.EventListenerLost:
			out["error"] = ev.Err.Error()
		}
		return r.writeJSON(out, false)
	}

	switch ev.Kind {
	case capture.EventCaptured:
		return r.writePlain("→ captured %s\n", ev.Redirect.RawURL)
	case capture.EventInvalid:
		return r.writePlain("✗ invalid redirect: %s\n", ev.Invalid.Reason)
	case capture.EventListenerLost:
		return r.writePlain("! listener lost on port %d: %v\n", ev.Port, ev.Err)
	}
	return nil
}

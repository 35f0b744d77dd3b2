package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/loopback/internal/capture"
	"github.com/desertthunder/loopback/internal/shared"
	tu "github.com/desertthunder/loopback/internal/testing"
	"github.com/urfave/cli/v3"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(io.Discard)
			output := &bytes.Buffer{}
			registry := capture.NewRegistry(logger)

			runner := NewRunner(RunnerOpts{
				Config:   config,
				Logger:   logger,
				Output:   output,
				Registry: registry,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.registry != registry {
				t.Error("expected registry to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil registry constructs one", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.registry == nil {
				t.Error("expected a registry to be constructed")
			}
		})

		t.Run("with configPath sets field", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{ConfigPath: "/test/path/config.toml"})
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
		})
	})

	t.Run("write helpers", func(t *testing.T) {
		t.Run("writePlain writes formatted text", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output, Logger: shared.NewLogger(io.Discard)})

			if err := runner.writePlain("port %d\n", 8723); err != nil {
				t.Fatal(err)
			}
			if output.String() != "port 8723\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("writeJSON marshals data", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output, Logger: shared.NewLogger(io.Discard)})

			if err := runner.writeJSON(map[string]int{"port": 8723}, false); err != nil {
				t.Fatal(err)
			}
			if output.String() != "{\"port\":8723}\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("failing writer surfaces the error", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}, Logger: shared.NewLogger(io.Discard)})

			if err := runner.writePlain("anything"); err == nil {
				t.Error("expected an error from the failing writer")
			}
		})

		t.Run("writeJSON fails when the trailing newline cannot be written", func(t *testing.T) {
			lw := tu.NewLimitedWriter(1, 0, io.Discard)
			runner := NewRunner(RunnerOpts{Output: &lw, Logger: shared.NewLogger(io.Discard)})

			if err := runner.writeJSON(map[string]int{"port": 8723}, false); err == nil {
				t.Error("expected an error once the write limit is hit")
			}
		})
	})
}

func TestCaptureConfig(t *testing.T) {
	t.Run("config ports and timeouts carry over", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: io.Discard})

		config := shared.DefaultConfig()
		config.Server.Ports = []int{9001, 9002}
		config.Server.ReadTimeout = 3
		config.Server.WriteTimeout = 7

		cfg, err := runner.captureConfig(config, &cli.Command{})
		if err != nil {
			t.Fatal(err)
		}
		if len(cfg.Ports) != 2 || cfg.Ports[0] != 9001 {
			t.Errorf("expected configured ports, got %v", cfg.Ports)
		}
		if cfg.ReadTimeout != 3*time.Second || cfg.WriteTimeout != 7*time.Second {
			t.Errorf("expected timeouts 3s/7s, got %v/%v", cfg.ReadTimeout, cfg.WriteTimeout)
		}
	})

	t.Run("response file contents become the response body", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: io.Discard})

		dir := t.TempDir()
		path := filepath.Join(dir, "done.html")
		if err := os.WriteFile(path, []byte("<html>done</html>"), 0644); err != nil {
			t.Fatal(err)
		}

		config := shared.DefaultConfig()
		config.Server.ResponseFile = path

		cfg, err := runner.captureConfig(config, &cli.Command{})
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Response != "<html>done</html>" {
			t.Errorf("expected response file contents, got %q", cfg.Response)
		}
	})

	t.Run("missing response file is an error", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: io.Discard})

		config := shared.DefaultConfig()
		config.Server.ResponseFile = filepath.Join(t.TempDir(), "missing.html")

		if _, err := runner.captureConfig(config, &cli.Command{}); err == nil {
			t.Error("expected an error for a missing response file")
		}
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("falls back to the injected config", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.Server.Ports = []int{4242}
		runner := NewRunner(RunnerOpts{Config: config, Logger: shared.NewLogger(io.Discard), Output: io.Discard})

		got := runner.loadConfig(&cli.Command{})
		if len(got.Server.Ports) != 1 || got.Server.Ports[0] != 4242 {
			t.Errorf("expected the injected config, got ports %v", got.Server.Ports)
		}
	})

	t.Run("reads the configured path when present", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "config.toml")
		if err := os.WriteFile(path, []byte("[server]\nports = [5555]\n"), 0644); err != nil {
			t.Fatal(err)
		}

		runner := NewRunner(RunnerOpts{ConfigPath: path, Logger: shared.NewLogger(io.Discard), Output: io.Discard})

		got := runner.loadConfig(&cli.Command{})
		if len(got.Server.Ports) != 1 || got.Server.Ports[0] != 5555 {
			t.Errorf("expected ports from file, got %v", got.Server.Ports)
		}
	})
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/nowsync/internal/models"
	"github.com/desertthunder/nowsync/internal/shared"
	tu "github.com/desertthunder/nowsync/internal/testing"
	"github.com/urfave/cli/v3"
)

func testConfig() *shared.Config {
	config := shared.DefaultConfig()
	config.Credentials.Spotify.ClientID = "id"
	config.Credentials.Spotify.ClientSecret = "secret"
	config.Database.Path = ":memory:"
	return config
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := testConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			store := &tu.MockStore{}
			service := &tu.MockService{}

			runner := NewRunner(RunnerOpts{
				Config:  config,
				Logger:  logger,
				Output:  output,
				Store:   store,
				Service: service,
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
			if runner.store != store {
				t.Error("expected store to be set")
			}
			if runner.service != service {
				t.Error("expected service to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output == nil {
				t.Error("expected default output to be set")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("compact", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]int{"a": 1}, false); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if strings.TrimSpace(output.String()) != `{"a":1}` {
				t.Errorf("unexpected output: %s", output.String())
			}
		})

		t.Run("pretty", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]int{"a": 1}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !strings.Contains(output.String(), "\n") {
				t.Error("expected indented output")
			}
		})

		t.Run("write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
			if err := runner.writeJSON("data", false); err == nil {
				t.Error("expected write error")
			}
		})
	})

	t.Run("buildEngine", func(t *testing.T) {
		t.Run("invalid config is fatal", func(t *testing.T) {
			config := testConfig()
			config.Credentials.Spotify.ClientID = ""

			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
			if _, _, err := runner.buildEngine(config); err == nil {
				t.Error("expected startup error for missing credentials")
			}
		})

		t.Run("injected doubles are used", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{
				Store:   &tu.MockStore{},
				Service: &tu.MockService{},
				Output:  &bytes.Buffer{},
			})

			engine, cleanup, err := runner.buildEngine(testConfig())
			defer cleanup()
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if engine == nil {
				t.Fatal("expected engine")
			}
		})
	})
}

func TestResolveInterval(t *testing.T) {
	runInterval := func(t *testing.T, args []string, config *shared.Config) time.Duration {
		t.Helper()
		var got time.Duration
		cmd := &cli.Command{
			Name:  "test",
			Flags: []cli.Flag{&cli.IntFlag{Name: "interval"}},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				got = resolveInterval(cmd, config)
				return nil
			},
		}
		if err := cmd.Run(context.Background(), args); err != nil {
			t.Fatalf("command failed: %v", err)
		}
		return got
	}

	t.Run("flag wins", func(t *testing.T) {
		config := testConfig()
		if got := runInterval(t, []string{"test", "--interval", "30"}, config); got != 30*time.Second {
			t.Errorf("expected 30s, got %s", got)
		}
	})

	t.Run("config fallback", func(t *testing.T) {
		config := testConfig()
		config.Sync.IntervalSeconds = 45
		if got := runInterval(t, []string{"test"}, config); got != 45*time.Second {
			t.Errorf("expected 45s, got %s", got)
		}
	})

	t.Run("default of sixty seconds", func(t *testing.T) {
		config := testConfig()
		config.Sync.IntervalSeconds = 0
		if got := runInterval(t, []string{"test"}, config); got != 60*time.Second {
			t.Errorf("expected 60s, got %s", got)
		}
	})
}

func TestOnceCommand(t *testing.T) {
	t.Run("reports cycle result as JSON", func(t *testing.T) {
		store := &tu.MockStore{Users: []models.UserCredential{{
			UserID:         "user-1",
			AccessToken:    "tok",
			RefreshToken:   "ref",
			TokenExpiresAt: time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
		}}}
		service := &tu.MockService{Snapshot: &models.TrackSnapshot{Name: "Song", Artists: "Artist", DurationMS: 1}}
		output := &bytes.Buffer{}

		runner := NewRunner(RunnerOpts{
			Config:  testConfig(),
			Store:   store,
			Service: service,
			Output:  output,
			Logger:  shared.NewLogger(&bytes.Buffer{}),
		})

		app := &cli.Command{Name: "nowsync", Commands: runner.register()}
		if err := app.Run(context.Background(), []string{"nowsync", "once", "--json"}); err != nil {
			t.Fatalf("once failed: %v", err)
		}

		var result map[string]any
		if err := json.Unmarshal(output.Bytes(), &result); err != nil {
			t.Fatalf("expected JSON output, got %s", output.String())
		}
		if result["total"] != float64(1) || result["synced"] != float64(1) {
			t.Errorf("unexpected cycle result: %v", result)
		}
		if len(store.Updates) != 1 {
			t.Errorf("expected one store write, got %d", len(store.Updates))
		}
	})
}

func TestUsersCommand(t *testing.T) {
	t.Run("lists users without leaking tokens", func(t *testing.T) {
		store := &tu.MockStore{Users: []models.UserCredential{
			{UserID: "user-1", AccessToken: "secret-token", TokenExpiresAt: "2025-06-01T12:00:00Z"},
			{UserID: "user-2"},
		}}
		output := &bytes.Buffer{}

		runner := NewRunner(RunnerOpts{
			Config: testConfig(),
			Store:  store,
			Output: output,
			Logger: shared.NewLogger(&bytes.Buffer{}),
		})

		app := &cli.Command{Name: "nowsync", Commands: runner.register()}
		if err := app.Run(context.Background(), []string{"nowsync", "users"}); err != nil {
			t.Fatalf("users failed: %v", err)
		}

		text := output.String()
		if !strings.Contains(text, "user-1") || !strings.Contains(text, "user-2") {
			t.Errorf("expected both users listed, got %s", text)
		}
		if strings.Contains(text, "secret-token") {
			t.Error("access token must not be printed")
		}
		if !strings.Contains(text, "no token") {
			t.Errorf("expected token presence marker, got %s", text)
		}
	})
}

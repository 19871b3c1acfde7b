package main

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/nowsync/internal/shared"
	"github.com/desertthunder/nowsync/internal/tasks"
	"github.com/desertthunder/nowsync/internal/ui"
	"github.com/urfave/cli/v3"
)

// resolveInterval picks the cycle delay: flag first, then config, then 60s.
func resolveInterval(cmd *cli.Command, config *shared.Config) time.Duration {
	if seconds := cmd.Int("interval"); seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if config.Sync.IntervalSeconds > 0 {
		return time.Duration(config.Sync.IntervalSeconds) * time.Second
	}
	return 60 * time.Second
}

// Sync runs the polling loop until the context is cancelled.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd.String("config"))

	engine, cleanup, err := r.buildEngine(config)
	if err != nil {
		return err
	}
	defer cleanup()

	return engine.Run(ctx, resolveInterval(cmd, config), nil)
}

// Once runs a single cycle and reports the result.
func (r *Runner) Once(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd.String("config"))

	engine, cleanup, err := r.buildEngine(config)
	if err != nil {
		return err
	}
	defer cleanup()

	result := engine.RunCycle(ctx, nil)

	if cmd.Bool("json") {
		return r.writeJSON(result, cmd.Bool("pretty"))
	}

	return r.writePlain("cycle %s: %d users, %d synced, %d skipped, %d failed (%s)\n",
		result.CycleID, result.Total, result.Synced, result.Skipped, result.Failed, result.Elapsed)
}

// userSummary is the `users` command output row. Tokens themselves are never
// printed.
type userSummary struct {
	ID             string `json:"id"`
	HasAccessToken bool   `json:"has_access_token"`
	TokenExpiresAt string `json:"token_expires_at,omitempty"`
}

// Users lists enabled users from the store.
func (r *Runner) Users(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd.String("config"))
	if err := config.Validate(); err != nil {
		return err
	}

	store := r.store
	cleanup := func() {}
	if store == nil {
		var err error
		store, cleanup, err = r.buildStore(config)
		if err != nil {
			return err
		}
	}
	defer cleanup()

	users, err := store.ListEnabledUsers(ctx)
	if err != nil {
		return err
	}

	summaries := make([]userSummary, 0, len(users))
	for _, user := range users {
		summaries = append(summaries, userSummary{
			ID:             user.UserID,
			HasAccessToken: user.AccessToken != "",
			TokenExpiresAt: user.TokenExpiresAt,
		})
	}

	if cmd.Bool("json") {
		return r.writeJSON(summaries, cmd.Bool("pretty"))
	}

	for _, summary := range summaries {
		token := "no token"
		if summary.HasAccessToken {
			token = "token expires " + summary.TokenExpiresAt
		}
		if err := r.writePlain("%s  %s\n", summary.ID, token); err != nil {
			return err
		}
	}
	return r.writePlain("%d users\n", len(summaries))
}

// Watch runs the sync loop behind the live terminal view. Quitting the view
// cancels the loop.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	config := r.loadConfig(cmd.String("config"))

	engine, cleanup, err := r.buildEngine(config)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan error, 1)

	go func() {
		done <- engine.Run(ctx, resolveInterval(cmd, config), progress)
		close(progress)
	}()

	program := tea.NewProgram(ui.NewModel(progress, cancel))
	if _, err := program.Run(); err != nil {
		cancel()
		<-done
		return fmt.Errorf("watch view failed: %w", err)
	}

	cancel()
	return <-done
}

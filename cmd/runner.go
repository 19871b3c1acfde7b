package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nowsync/internal/repositories"
	"github.com/desertthunder/nowsync/internal/services"
	"github.com/desertthunder/nowsync/internal/shared"
	"github.com/desertthunder/nowsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	store   repositories.UserStore
	service services.Service
	logger  *log.Logger
	output  io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
// Store and Service override the config-driven construction, mainly for tests.
type RunnerOpts struct {
	Config  *shared.Config
	Store   repositories.UserStore
	Service services.Service
	Logger  *log.Logger
	Output  io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:  opts.Config,
		store:   opts.Store,
		service: opts.Service,
		logger:  opts.Logger,
		output:  opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		syncCommand, onceCommand, usersCommand, watchCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig resolves the effective config for a command: an injected config
// wins, then the file at path, then the embedded defaults.
func (r *Runner) loadConfig(path string) *shared.Config {
	if r.config != nil {
		return r.config
	}

	if _, err := os.Stat(path); err == nil {
		if config, err := shared.LoadConfig(path); err == nil {
			return config
		}
		r.logger.Warn("failed to load config, using defaults", "path", path)
	}

	return shared.DefaultConfig()
}

// buildEngine validates the config and assembles the sync engine with its
// store and service. Validation failures here are fatal startup errors.
// The returned cleanup closes any local database connection.
func (r *Runner) buildEngine(config *shared.Config) (*tasks.SyncEngine, func(), error) {
	cleanup := func() {}

	if err := config.Validate(); err != nil {
		return nil, cleanup, err
	}

	store := r.store
	if store == nil {
		var err error
		store, cleanup, err = r.buildStore(config)
		if err != nil {
			return nil, cleanup, err
		}
	}

	service := r.service
	if service == nil {
		spotify, err := services.NewSpotifyService(map[string]string{
			"client_id":     config.Credentials.Spotify.ClientID,
			"client_secret": config.Credentials.Spotify.ClientSecret,
		})
		if err != nil {
			return nil, cleanup, err
		}
		service = spotify
	}

	engine := tasks.NewSyncEngine(tasks.EngineOpts{
		Store:     store,
		Service:   service,
		Logger:    r.logger,
		RateLimit: config.Sync.RateLimit,
	})

	return engine, cleanup, nil
}

func (r *Runner) buildStore(config *shared.Config) (repositories.UserStore, func(), error) {
	cleanup := func() {}

	switch config.Store.Backend {
	case "supabase":
		store, err := repositories.NewSupabaseStore(config.Store.URL, config.Store.ServiceKey, nil)
		return store, cleanup, err

	case "sqlite":
		db, err := shared.NewDatabase(config.Database.Path)
		if err != nil {
			return nil, cleanup, err
		}
		shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
		return repositories.NewSQLiteStore(db), func() { db.Close() }, nil

	default:
		return nil, cleanup, fmt.Errorf("%w: unknown store backend %q", shared.ErrInvalidConfig, config.Store.Backend)
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

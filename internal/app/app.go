package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/vk/exrun/internal/config"
	"github.com/vk/exrun/internal/ctxlog"
	"github.com/vk/exrun/internal/executor"
	"github.com/vk/exrun/internal/metrics"
)

// Version is reported to the tracing backend.
var Version = "dev"

// ErrBlocksFailed is returned by Run when at least one block did not succeed.
var ErrBlocksFailed = errors.New("one or more blocks failed")

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx        context.Context
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	settings   *config.Settings
	metrics    *metrics.Metrics
	runner     executor.ProcessRunner
	httpServer *http.Server
}

// Option customizes an App.
type Option func(*App)

// WithRunner replaces the process runner, mostly for tests.
func WithRunner(r executor.ProcessRunner) Option {
	return func(a *App) { a.runner = r }
}

// NewApp is the constructor for the main application. Settings from the
// config file, if any, are loaded first and then overlaid with the ones from
// cfg.Settings; defaults fill whatever is still unset.
func NewApp(outW io.Writer, cfg *Config, opts ...Option) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	settings := &config.Settings{}
	if cfg.ConfigPath != "" {
		loaded, err := config.Load(ctx, cfg.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		settings = loaded
		logger.Debug("Configuration file loaded.", "path", cfg.ConfigPath)
	}
	settings.Merge(&cfg.Settings)
	if err := settings.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	logger.Debug("Settings resolved.",
		"source_dir", settings.SourceDir,
		"exec_dir", settings.ExecDir,
		"output_dir", settings.OutputDir,
		"search_paths", len(settings.SearchPaths))

	a := &App{
		ctx:      ctx,
		outW:     outW,
		logger:   logger,
		config:   cfg,
		settings: settings,
		metrics:  metrics.New(),
		runner:   &executor.ExecRunner{Stdout: outW, Stderr: outW},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Settings returns the resolved settings. This is primarily for testing.
func (a *App) Settings() *config.Settings {
	return a.settings
}

// Metrics returns the application's metrics.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

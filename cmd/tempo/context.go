package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"tempo/internal/config"
	"tempo/internal/logging"
	"tempo/internal/notifications"
	"tempo/internal/pipeline"
	"tempo/internal/runs"
	"tempo/internal/spotify"
	"tempo/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureLogger builds the process logger: configured format to stderr,
// plus an append-only file in the log directory.
func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}

		writer := io.Writer(os.Stderr)
		logPath := filepath.Join(cfg.Paths.LogDir, "tempo.log")
		if fileWriter, err := logging.FileWriter(logPath); err == nil {
			writer = io.MultiWriter(os.Stderr, fileWriter)
		}

		logger, err := logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Writer: writer,
		})
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

// newRunner assembles the pipeline with its live collaborators. The
// run history store is returned too so callers can close it.
func (c *commandContext) newRunner(ctx context.Context) (*pipeline.Runner, *runs.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.RequireCredentials(); err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}

	st, err := store.New(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	history, err := runs.Open(cfg)
	if err != nil {
		return nil, nil, err
	}

	client := spotify.NewClient(ctx, cfg, logger)
	notifier := notifications.NewService(cfg)
	return pipeline.New(cfg, logger, client, st, history, notifier), history, nil
}

// newOfflineRunner assembles a pipeline without Spotify credentials
// for commands that only touch local state.
func (c *commandContext) newOfflineRunner() (*pipeline.Runner, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	st, err := store.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	return pipeline.New(cfg, logger, nil, st, nil, notifications.NewService(cfg)), nil
}

package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/at-ishikawa/cinelog/internal/app"
	"github.com/at-ishikawa/cinelog/internal/bootstrap"
	"github.com/at-ishikawa/cinelog/internal/config"
)

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create config loader: %w", err)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// setupFileLogger sends logs to a rotated file when --log-file or log.file is set.
func setupFileLogger(cfg *config.Config) *lumberjack.Logger {
	path := logFile
	if path == "" {
		path = cfg.Log.File
	}
	if path == "" {
		return nil
	}

	writer := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAgeDays,
	}
	setupLogger(debugMode, writer)
	return writer
}

type sessionFunc func(ctx context.Context, session *app.Session, boot app.Bootstrapped) error

// runSession loads the configuration, opens a session, runs the requested initial loads and
// then run. Everything the session opened is released when run returns or on interrupt.
func runSession(cmd *cobra.Command, opts app.BootstrapOptions, run sessionFunc) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	lifecycle := bootstrap.New()
	if writer := setupFileLogger(cfg); writer != nil {
		lifecycle.AddShutdownHook(func(context.Context) error {
			return writer.Close()
		})
	}

	return lifecycle.Run(cmd.Context(), func(ctx context.Context) error {
		session, err := app.NewSession(ctx, cfg)
		if err != nil {
			return fmt.Errorf("app.NewSession() > %w", err)
		}
		lifecycle.AddShutdownHook(session.Close)

		boot, err := session.Bootstrap(ctx, opts)
		if err != nil {
			return fmt.Errorf("session.Bootstrap() > %w", err)
		}
		return run(ctx, session, boot)
	})
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func parseRating(arg string) (int, error) {
	rating, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid rating %q", arg)
	}
	return rating, nil
}

// Package commands defines the pivot CLI: the proxy server itself plus the
// small operational commands around it.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/pivotproxy/pivot/internal/app"
	"github.com/pivotproxy/pivot/internal/observability"
)

// Execute runs the root command with the given context and arguments.
func Execute(ctx context.Context, args []string, version, commit string) error {
	cmd := &cli.Command{
		Name:    "pivot",
		Usage:   "LLM wire-format conversion proxy",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to TOML config file",
			},
		},
		Commands: []*cli.Command{
			startCommand(),
			authCommand(),
			modelsCommand(),
		},
	}

	return cmd.Run(ctx, args)
}

func startCommand() *cli.Command {
	return &cli.Command{
		Name:  "start",
		Usage: "Start the proxy server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "listen",
				Usage: "listen address (host:port)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug|info|warn|error)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log format (auto|text|json)",
			},
		},
		Action: startAction,
	}
}

func startAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return err
	}

	// Set up observability before creating app
	shutdown, err := observability.Instrument(observability.Config{
		Level:        level,
		Format:       resolveLogFormat(cfg.Log.Format),
		OTLPEndpoint: cfg.Log.OTLPEndpoint,
		OTLPProtocol: cfg.Log.OTLPProtocol,
	})
	if err != nil {
		return fmt.Errorf("failed to set up observability layer: %w", err)
	}

	application, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}
	application.OnShutdown(shutdown)

	slog.InfoContext(ctx, "starting", "version", cmd.Root().Version)

	if err := application.Start(ctx); err != nil {
		return fmt.Errorf("app failed to start: %w", err)
	}

	slog.InfoContext(ctx, "stopped gracefully")
	return nil
}

// resolveLogFormat turns the auto format into a concrete one: text when
// stdout is a terminal, json otherwise.
func resolveLogFormat(format string) string {
	if format != "auto" {
		return format
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return "text"
	}
	return "json"
}

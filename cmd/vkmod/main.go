package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vkmod/vkmod/internal/config"
	"github.com/vkmod/vkmod/util/cliutil"

	"github.com/carlmjohnson/versioninfo"
	_ "github.com/joho/godotenv/autoload"
	cli "github.com/urfave/cli/v2"
)

func main() {
	if err := run(os.Args); err != nil {
		slog.Error("exiting", "err", err)
		os.Exit(-1)
	}
}

func run(args []string) error {
	return newApp().Run(args)
}

func newApp() *cli.App {

	app := &cli.App{
		Name:    "vkmod",
		Usage:   "chat moderation daemon for a VK community",
		Version: versioninfo.Short(),
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "path to YAML configuration file (optional)",
			Value:   "vkmod.yaml",
			EnvVars: []string{"VKMOD_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "log verbosity level (debug, info, warn, error)",
			EnvVars: []string{"VKMOD_LOG_LEVEL", "LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "log output format (text, json)",
			EnvVars: []string{"VKMOD_LOG_FMT", "LOG_FMT"},
		},
	}

	app.Commands = []*cli.Command{
		runCmd,
		checkCmd,
	}

	return app
}

// loads configuration and applies global flag overrides, then sets up logging
func loadConfig(cctx *cli.Context, load func(path string) (*config.Config, error)) (*config.Config, *slog.Logger, error) {
	cfg, err := load(cctx.String("config"))
	if err != nil {
		return nil, nil, err
	}
	if cctx.IsSet("log-level") {
		cfg.Log.Level = cctx.String("log-level")
	}
	if cctx.IsSet("log-format") {
		cfg.Log.Format = cctx.String("log-format")
	}
	logger, err := cliutil.SetupSlog(cliutil.LogOptions{
		LogLevel:  cfg.Log.Level,
		LogFormat: cfg.Log.Format,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "run the moderation service",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    "readonly",
			Usage:   "evaluate and log decisions, but never delete messages",
			EnvVars: []string{"VKMOD_READONLY", "READONLY"},
		},
		&cli.StringFlag{
			Name:    "metrics-listen",
			Usage:   "IP or address, and port, to listen on for metrics APIs",
			EnvVars: []string{"VKMOD_METRICS_LISTEN"},
		},
	},
	Action: func(cctx *cli.Context) error {
		cfg, logger, err := loadConfig(cctx, config.Load)
		if err != nil {
			return err
		}
		if cctx.IsSet("readonly") {
			cfg.ReadOnly = cctx.Bool("readonly")
		}
		if cctx.IsSet("metrics-listen") {
			cfg.MetricsListen = cctx.String("metrics-listen")
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		shutdownOTEL, err := configOTEL(ctx, "vkmod")
		if err != nil {
			return err
		}
		defer shutdownOTEL()

		srv, err := NewServer(cfg, logger)
		if err != nil {
			return err
		}

		if err := srv.Run(ctx, cfg.MetricsListen); err != nil {
			return fmt.Errorf("failed to run moderation service: %w", err)
		}
		return nil
	},
}

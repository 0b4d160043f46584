package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"xconsole/internal/config"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Loaded before parsing so .env values reach the flags' env sources.
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	app := initApp()
	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initApp() *cli.Command {
	return &cli.Command{
		Name:    "xconsole",
		Usage:   "Schema-driven console for REST APIs described by OpenAPI",
		Version: version,

		HideHelpCommand: true,

		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "base-url",
				Usage:   "Base URL requests are sent to (e.g. http://localhost:8000/api/v1)",
				Sources: cli.EnvVars(config.EnvBaseURL),
			},
			&cli.StringFlag{
				Name:    "spec-url",
				Usage:   "OpenAPI document URL (http/https)",
				Sources: cli.EnvVars(config.EnvSpecURL),
			},
			&cli.StringFlag{
				Name:    "spec-file",
				Usage:   "Path to a local OpenAPI document",
				Sources: cli.EnvVars(config.EnvSpecFile),
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Usage:   "Per-request timeout",
				Value:   config.DefaultTimeout,
				Sources: cli.EnvVars(config.EnvTimeout),
			},
			&cli.DurationFlag{
				Name:    "poll-interval",
				Usage:   "Interval between refreshes of a watched list",
				Value:   config.DefaultPollInterval,
				Sources: cli.EnvVars(config.EnvPollInterval),
			},
			&cli.StringFlag{
				Name:    "listen",
				Usage:   "Listen address of the web server",
				Value:   config.DefaultListen,
				Sources: cli.EnvVars(config.EnvListen),
			},
			&cli.StringFlag{
				Name:    "origin-allowed",
				Usage:   "Allowed CORS and WebSocket origin of the web server",
				Sources: cli.EnvVars(config.EnvOrigin),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "Write debug logs (to --log-file while the TUI runs)",
				Sources: cli.EnvVars(config.EnvDebug),
			},
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "Debug log file used by the TUI",
				Value:   config.DefaultLogFile,
				Sources: cli.EnvVars(config.EnvLogFile),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level of non-interactive commands",
				Value:   config.DefaultLogLevel,
				Sources: cli.EnvVars(config.EnvLogLevel),
			},
		},

		OnUsageError: func(ctx context.Context, cmd *cli.Command, err error, isSubcommand bool) error {
			return cli.Exit(err, 2)
		},

		Action: runTUI,

		Commands: []*cli.Command{
			{
				Name:   "ops",
				Usage:  "List the operations of the catalog by tag",
				Action: runOps,
			},
			{
				Name:      "describe",
				Usage:     "Show an operation's parameters and body schema",
				ArgsUsage: "<operation-id>",
				Action:    runDescribe,
			},
			{
				Name:      "call",
				Usage:     "Dispatch an operation once and print the result",
				ArgsUsage: "<operation-id> [name=value ...]",
				Action:    runCall,
			},
			{
				Name:      "watch",
				Usage:     "Poll a list operation and print its items when they change",
				ArgsUsage: "<operation-id> [name=value ...]",
				Action:    runWatch,
			},
			{
				Name:   "serve",
				Usage:  "Serve the console over HTTP and WebSocket",
				Action: runServe,
			},
		},
	}
}

func configFrom(cmd *cli.Command) config.Config {
	return config.Config{
		BaseURL:       cmd.String("base-url"),
		SpecURL:       cmd.String("spec-url"),
		SpecFile:      cmd.String("spec-file"),
		Timeout:       cmd.Duration("timeout"),
		PollInterval:  cmd.Duration("poll-interval"),
		Listen:        cmd.String("listen"),
		OriginAllowed: cmd.String("origin-allowed"),
		Debug:         cmd.Bool("debug"),
		LogFile:       cmd.String("log-file"),
		LogLevel:      cmd.String("log-level"),
	}
}

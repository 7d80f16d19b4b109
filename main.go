package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/jxapi/jxgen/internal/codegen/targets"
	"github.com/jxapi/jxgen/internal/commands"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	short := commit
	if len(commit) > 7 {
		short = commit[:7]
	}

	return fmt.Sprintf("%s (%s) %s", version, short, date)
}

func targetFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "target",
		Usage:   fmt.Sprintf("output language %v", targets.DefaultRegistry.Languages()),
		Sources: cli.EnvVars("JXGEN_TARGET"),
	}
}

func generateFlags(exchange bool) []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:  "main",
			Usage: "main sources output directory, relative to the project",
		},
		targetFlag(),
		&cli.StringFlag{
			Name:  "package",
			Usage: "output package for single-package targets (go)",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "maximum number of files parsed or written at once (0 = number of CPUs)",
		},
	}
	if exchange {
		flags = append(flags,
			&cli.StringFlag{
				Name:  "test",
				Usage: "test sources output directory, relative to the project",
			},
			&cli.StringFlag{
				Name:  "javadoc-url",
				Usage: "base URL prepended to generated javadoc links",
			},
			&cli.StringFlag{
				Name:  "src-url",
				Usage: "base URL prepended to descriptor paths in source links",
			},
		)
	}
	return flags
}

func generateOptions(c *cli.Command) commands.GenerateOptions {
	return commands.GenerateOptions{
		MainDir:     c.String("main"),
		TestDir:     c.String("test"),
		JavaDocURL:  c.String("javadoc-url"),
		SrcURL:      c.String("src-url"),
		Target:      c.String("target"),
		PackageName: c.String("package"),
		Workers:     int(c.Int("workers")),
	}
}

func main() {
	flags := &commands.Flags{}
	var ctrl *commands.Controller

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	app := &cli.Command{
		Name:    "jxgen",
		Usage:   "Generate exchange wrappers and POJOs from jxapi descriptors",
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("JXGEN_LOG_LEVEL"),
				Value:       "warn",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "dir",
				Usage:       "project directory (jxgen.yaml is looked up from here)",
				Value:       ".",
				Destination: &flags.Dir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			level, err := zerolog.ParseLevel(flags.LogLevel)
			if err != nil {
				return ctx, fmt.Errorf("failed to parse log level: %w", err)
			}

			log.Logger = log.Level(level)
			ctrl = commands.NewController(flags, log.Logger)

			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:  "exchanges",
				Usage: "Generate exchange wrappers and test skeletons",
				Flags: generateFlags(true),
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Exchanges(ctx, generateOptions(c))
				},
			},
			{
				Name:  "pojos",
				Usage: "Generate plain data classes",
				Flags: generateFlags(false),
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Pojos(ctx, generateOptions(c))
				},
			},
			{
				Name:      "inspect",
				Usage:     "Print the resolved descriptor model",
				ArgsUsage: "<exchanges|pojos>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "output format (json, yaml)",
						Value: "json",
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return fmt.Errorf("inspect expects exactly one mode argument: exchanges or pojos")
					}
					return ctrl.Inspect(ctx, c.Args().First(), c.String("format"))
				},
			},
			{
				Name:  "watch",
				Usage: "Regenerate exchanges and POJOs whenever descriptors change",
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Watch(ctx)
				},
			},
			{
				Name:  "init",
				Usage: "Create jxgen.yaml and sample descriptors",
				Action: func(ctx context.Context, c *cli.Command) error {
					return ctrl.Init(ctx)
				},
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		stop()
		log.Error().Err(err).Msg("failed to run jxgen")
		os.Exit(1)
	}
}

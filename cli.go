package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/urfave/cli/v3"

	"mix-optimizer/internal/batch"
	"mix-optimizer/internal/catalog"
	"mix-optimizer/internal/format"
	"mix-optimizer/internal/logging"
	"mix-optimizer/internal/mixer"
	"mix-optimizer/internal/serializer"
)

const name = "mixopt"

// overridden during build with ldflags
var version = "dev"

// newApp builds the command tree. Command output goes to stdout.
func newApp(cfg Config, stdout io.Writer) *cli.Command {
	formatFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:  "format",
			Value: string(cfg.Format),
			Usage: fmt.Sprintf("Output format (supported values: %s)", strings.Join(serializer.SupportedFormats(), ", ")),
		}
	}
	outputFlag := func() cli.Flag {
		return &cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write output to this file instead of stdout",
		}
	}

	return &cli.Command{
		Name:    name,
		Version: version,
		Usage:   "Find ingredient recipes for target effects and maximum profit",
		Writer:  stdout,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "catalog",
				Usage:   "Catalog YAML file (default: embedded catalog)",
				Value:   cfg.CatalogPath,
				Sources: cli.EnvVars(EnvCatalog),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   cfg.LogLevel,
				Sources: cli.EnvVars(EnvLogLevel),
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable styled text output",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.SetDefaultStructuredLoggerWithLevel(name, version, cmd.String("log-level"))
			if cmd.Bool("no-color") {
				format.DisableColor()
			}
			slog.Debug("starting", "name", name, "version", version, "catalog", cmd.String("catalog"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			effectsCmd(formatFlag(), outputFlag()),
			pathCmd(formatFlag(), outputFlag()),
			optimizeCmd(cfg, formatFlag(), outputFlag()),
			mixCmd(formatFlag(), outputFlag()),
			batchCmd(cfg),
		},
	}
}

func effectsCmd(flags ...cli.Flag) *cli.Command {
	return &cli.Command{
		Name:  "effects",
		Usage: "List effects with the numeric IDs accepted by other commands",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cat, err := catalog.Load(cmd.String("catalog"))
			if err != nil {
				return err
			}
			names := cat.SortedEffects()

			type effectID struct {
				ID   int    `json:"id" yaml:"id"`
				Name string `json:"name" yaml:"name"`
			}
			list := make([]effectID, len(names))
			for i, n := range names {
				list[i] = effectID{ID: i + 1, Name: n}
			}
			return emit(ctx, cmd, list, func() string { return format.Effects(names) })
		},
	}
}

func pathCmd(flags ...cli.Flag) *cli.Command {
	return &cli.Command{
		Name:  "path",
		Usage: "Find the shortest recipe that produces every desired effect",
		Description: `Effects are names (case-insensitive) or IDs from "mixopt effects",
separated by commas or given as repeated flags.

  mixopt path -d Anti-gravity,Glowing
  mixopt path -d 1 -d 20 -s Calming`,
		Flags: append([]cli.Flag{
			&cli.StringSliceFlag{
				Name:     "desired",
				Aliases:  []string{"d"},
				Usage:    "Desired effects",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:    "starting",
				Aliases: []string{"s"},
				Usage:   "Effects the product starts with",
			},
		}, flags...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			svc, err := loadService(cmd)
			if err != nil {
				return err
			}
			res, err := svc.FindPath(mixer.PathRequest{
				Desired: cmd.StringSlice("desired"),
				Initial: cmd.StringSlice("starting"),
			})
			if err != nil {
				return err
			}
			return emit(ctx, cmd, res, func() string { return format.Path(res) })
		},
	}
}

func optimizeCmd(cfg Config, flags ...cli.Flag) *cli.Command {
	return &cli.Command{
		Name:  "optimize",
		Usage: "Find the most profitable recipe for a product",
		Description: `Products are names or 1-based indexes in catalog order.

  mixopt optimize -t marijuana -s sour_diesel -d 4 --grow-tent
  mixopt optimize -t meth -q 2`,
		Flags: append([]cli.Flag{
			&cli.StringFlag{
				Name:     "type",
				Aliases:  []string{"t"},
				Usage:    "Product to mix",
				Required: true,
			},
			&cli.IntFlag{
				Name:    "depth",
				Aliases: []string{"d"},
				Usage:   fmt.Sprintf("Maximum number of ingredients (0-%d)", mixer.MaxDepth),
				Value:   cfg.Depth,
			},
			&cli.BoolFlag{
				Name:    "grow-tent",
				Aliases: []string{"g"},
				Usage:   "Grow in a tent",
			},
			&cli.BoolFlag{
				Name:    "pgr",
				Aliases: []string{"p"},
				Usage:   "Use plant growth regulator",
			},
			&cli.StringFlag{
				Name:    "strain",
				Aliases: []string{"s"},
				Usage:   "Strain name or index (default: first)",
			},
			&cli.IntFlag{
				Name:    "quality",
				Aliases: []string{"q"},
				Usage:   "Precursor quality index (default: highest)",
			},
			&cli.StringSliceFlag{
				Name:    "initial",
				Aliases: []string{"i"},
				Usage:   "Extra starting effects",
			},
		}, flags...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			svc, err := loadService(cmd)
			if err != nil {
				return err
			}
			depth := cmd.Int("depth")
			res, err := svc.Optimize(mixer.OptimizeRequest{
				Product:  cmd.String("type"),
				Depth:    &depth,
				GrowTent: cmd.Bool("grow-tent"),
				PGR:      cmd.Bool("pgr"),
				Strain:   cmd.String("strain"),
				Quality:  cmd.Int("quality"),
				Initial:  cmd.StringSlice("initial"),
			})
			if err != nil {
				return err
			}
			return emit(ctx, cmd, res, func() string { return format.Profit(res) })
		},
	}
}

func mixCmd(flags ...cli.Flag) *cli.Command {
	return &cli.Command{
		Name:        "mix",
		Usage:       "Show the effects of adding ingredients in order",
		Description: `  mixopt mix -i Cuke,Banana -s Calming`,
		Flags: append([]cli.Flag{
			&cli.StringSliceFlag{
				Name:     "ingredients",
				Aliases:  []string{"i"},
				Usage:    "Ingredients in the order they are added",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:    "starting",
				Aliases: []string{"s"},
				Usage:   "Effects the product starts with",
			},
		}, flags...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			svc, err := loadService(cmd)
			if err != nil {
				return err
			}
			res, err := svc.Mix(mixer.MixRequest{
				Ingredients: cmd.StringSlice("ingredients"),
				Initial:     cmd.StringSlice("starting"),
			})
			if err != nil {
				return err
			}
			return emit(ctx, cmd, res, func() string { return format.Mix(res) })
		},
	}
}

// batchReport is the document written by the batch command.
type batchReport struct {
	Summary batch.Summary  `json:"summary" yaml:"summary"`
	Results []batch.Result `json:"results" yaml:"results"`
}

func batchCmd(cfg Config) *cli.Command {
	return &cli.Command{
		Name:  "batch",
		Usage: "Run path and optimize jobs from a JSON file in parallel",
		Description: `The jobs file is a JSON array. Each job is either
  {"kind": "path", "desired": [...], "initial": [...]}
or
  {"kind": "optimize", "product": "meth", "depth": 3, "quality": 2, ...}
Results keep job order. A failed job is reported, it does not stop the batch.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "jobs-file",
				Usage:    "JSON array of jobs",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "results",
				Usage: "Results file; .yaml or .yml selects YAML (default: JSON on stdout)",
			},
			&cli.IntFlag{
				Name:    "jobs",
				Aliases: []string{"j"},
				Usage:   "Number of jobs run in parallel",
				Value:   cfg.Workers,
			},
			&cli.StringFlag{
				Name:  "metrics",
				Usage: "Write Prometheus metrics to this file after the run",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			svc, err := loadService(cmd)
			if err != nil {
				return err
			}
			jobs, err := batch.LoadJobs(cmd.String("jobs-file"))
			if err != nil {
				return err
			}

			runner := batch.NewRunner(svc, cmd.Int("jobs"))
			results, runErr := runner.Run(ctx, jobs)

			if path := cmd.String("metrics"); path != "" {
				if err := runner.WriteMetrics(path); err != nil {
					return fmt.Errorf("failed to write metrics: %w", err)
				}
			}

			report := batchReport{Summary: batch.Summarize(results), Results: results}
			var w *serializer.Writer
			if path := cmd.String("results"); path != "" {
				f := serializer.FormatFromPath(path)
				if f == serializer.FormatText {
					f = serializer.FormatJSON
				}
				if w, err = serializer.NewFileWriterOrStdout(f, path); err != nil {
					return err
				}
			} else {
				w = serializer.NewWriter(serializer.FormatJSON, cmd.Root().Writer)
			}
			defer closeWriter(w)

			if err := w.Serialize(context.WithoutCancel(ctx), report); err != nil {
				return err
			}
			return runErr
		},
	}
}

func loadService(cmd *cli.Command) (*mixer.Service, error) {
	cat, err := catalog.Load(cmd.String("catalog"))
	if err != nil {
		return nil, err
	}
	return mixer.NewService(cat), nil
}

// emit writes v in the command's --format, using text() for text output.
func emit(ctx context.Context, cmd *cli.Command, v any, text func() string) error {
	f := serializer.Format(cmd.String("format"))
	if f.IsUnknown() {
		return fmt.Errorf("unknown output format: %q", f)
	}

	var w *serializer.Writer
	if path := cmd.String("output"); path != "" {
		var err error
		if w, err = serializer.NewFileWriterOrStdout(f, path); err != nil {
			return err
		}
	} else {
		w = serializer.NewWriter(f, cmd.Root().Writer)
	}
	defer closeWriter(w)

	if w.Format() == serializer.FormatText {
		v = format.Text(text())
	}
	return w.Serialize(ctx, v)
}

func closeWriter(w *serializer.Writer) {
	if err := w.Close(); err != nil {
		slog.Warn("failed to close serializer", "error", err)
	}
}
